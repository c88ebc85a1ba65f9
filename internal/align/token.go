// Package align turns lyric text into comparable word tokens and computes the
// minimal edit script between two token sequences.
//
// Both the recogniser transcript and the reference lyric pass through the same
// [Tokenizer], so the [Diff] edit script operates on a shared comparison key:
// lowercased, diacritic-folded word forms with punctuation and embedded
// timestamp markup removed. The original surface forms survive on each
// [Token] for output reconstruction.
package align

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/karaokeforge/lyrsync/internal/phonetic"
)

// markupRE matches embedded [mm:ss.xx] timestamp markers as found in synced
// lyric text from lyric databases.
var markupRE = regexp.MustCompile(`\[\d+:\d+(?:\.\d+)?\]`)

// Token is one word of a tokenised text.
// Tokens are immutable once produced.
type Token struct {
	// Text is the original surface form, casing and diacritics intact.
	Text string

	// Key is the normalised comparison form: lowercased and diacritic-folded.
	Key string

	// Index is the token's position within its sequence.
	Index int
}

// TokenizerOption is a functional option for configuring a [Tokenizer].
type TokenizerOption func(*Tokenizer)

// WithKeyFunc replaces the normalisation applied to produce [Token.Key].
// The default folds diacritics with [phonetic.DefaultFoldTable].
func WithKeyFunc(key func(string) string) TokenizerOption {
	return func(t *Tokenizer) {
		t.key = key
	}
}

// Tokenizer splits raw lyric text into ordered word tokens.
// It is read-only after construction and safe for concurrent use.
type Tokenizer struct {
	key func(string) string
}

// NewTokenizer returns a [Tokenizer] configured with the supplied options.
func NewTokenizer(opts ...TokenizerOption) *Tokenizer {
	t := &Tokenizer{
		key: phonetic.DefaultFoldTable().Fold,
	}
	for _, o := range opts {
		o(t)
	}
	return t
}

// Tokenize strips timestamp markup, replaces punctuation with spaces, splits
// on whitespace, and drops empty results. Empty input yields an empty (nil)
// token sequence; there are no error conditions.
func (t *Tokenizer) Tokenize(text string) []Token {
	clean := markupRE.ReplaceAllString(text, " ")
	clean = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsNumber(r) || r == '_' {
			return r
		}
		return ' '
	}, clean)

	fields := strings.Fields(clean)
	if len(fields) == 0 {
		return nil
	}
	tokens := make([]Token, len(fields))
	for i, f := range fields {
		tokens[i] = Token{Text: f, Key: t.key(f), Index: i}
	}
	return tokens
}

// TokenizeAll tokenises several texts into one sequence with continuous
// indices, returning the flat sequence plus the token count contributed by
// each input text. Used to flatten per-segment transcript text into the
// aligner's source sequence while remembering segment ownership.
func (t *Tokenizer) TokenizeAll(texts []string) (tokens []Token, counts []int) {
	counts = make([]int, len(texts))
	for i, text := range texts {
		part := t.Tokenize(text)
		counts[i] = len(part)
		for _, tok := range part {
			tok.Index = len(tokens)
			tokens = append(tokens, tok)
		}
	}
	return tokens, counts
}

// Keys returns the comparison keys of tokens in order.
func Keys(tokens []Token) []string {
	keys := make([]string, len(tokens))
	for i, tok := range tokens {
		keys[i] = tok.Key
	}
	return keys
}

// JoinText joins the surface forms of tokens with single spaces.
func JoinText(tokens []Token) string {
	var b strings.Builder
	for i, tok := range tokens {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(tok.Text)
	}
	return b.String()
}
