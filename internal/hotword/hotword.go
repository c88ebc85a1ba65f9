// Package hotword extracts recognition hints from a reference lyric.
//
// A recogniser biased with the song's unusual words (proper nouns, slang,
// long domain terms) mishears far less. The extractor pulls exactly those
// words out of the lyric text: capitalised words keep their original
// spelling, long uncommon lowercase words are kept folded to lowercase, and
// filler plus everyday vocabulary is dropped.
package hotword

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultMax caps the number of extracted hotwords.
const DefaultMax = 50

// timestampRE strips LRC-style inline timestamps such as [01:23.45].
var timestampRE = regexp.MustCompile(`\[\d+:\d+(?:\.\d+)?\]`)

// commonWords is everyday Portuguese vocabulary plus song filler. These never
// make useful recognition hints no matter how often the lyric repeats them.
var commonWords = map[string]struct{}{
	"o": {}, "a": {}, "de": {}, "da": {}, "do": {}, "em": {}, "um": {},
	"uma": {}, "os": {}, "as": {}, "que": {}, "para": {}, "com": {},
	"não": {}, "por": {}, "mais": {}, "se": {}, "no": {}, "na": {},
	"eu": {}, "você": {}, "ele": {}, "ela": {}, "nós": {}, "eles": {},
	"elas": {}, "é": {}, "foi": {}, "são": {}, "ser": {}, "estar": {},
	"ter": {}, "fazer": {}, "amor": {}, "vida": {}, "coração": {},
	"sempre": {}, "nunca": {}, "tudo": {}, "nada": {}, "quando": {},
	"onde": {}, "como": {}, "porque": {}, "quero": {}, "posso": {},
	"yeah": {}, "baby": {}, "oh": {}, "hey": {}, "ooh": {}, "ah": {}, "la": {},
}

// Option configures an [Extractor].
type Option func(*Extractor)

// WithMax sets the hotword cap. Default: [DefaultMax].
func WithMax(n int) Option {
	return func(e *Extractor) {
		e.max = n
	}
}

// Extractor derives hotwords from lyric text. The zero value is not usable;
// construct with [New].
type Extractor struct {
	max int
}

// New returns an [Extractor].
func New(opts ...Option) *Extractor {
	e := &Extractor{max: DefaultMax}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Extract returns the deduplicated, sorted hotword list for lyrics.
//
// A word qualifies when it is at least 3 runes long and either starts with an
// upper-case letter (kept with its original spelling, it is probably a name)
// or is longer than 6 runes and not in the common-word list (kept
// lowercased).
func (e *Extractor) Extract(lyrics string) []string {
	clean := timestampRE.ReplaceAllString(lyrics, "")
	clean = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsNumber(r) || r == '_' || unicode.IsSpace(r) {
			return r
		}
		return ' '
	}, clean)

	seen := make(map[string]struct{})
	for _, word := range strings.Fields(clean) {
		lower := strings.ToLower(word)
		if utf8.RuneCountInString(lower) < 3 {
			continue
		}

		first, _ := utf8.DecodeRuneInString(word)
		switch {
		case unicode.IsUpper(first):
			seen[word] = struct{}{}
		case utf8.RuneCountInString(lower) > 6:
			if _, common := commonWords[lower]; !common {
				seen[lower] = struct{}{}
			}
		}
	}

	out := make([]string, 0, len(seen))
	for w := range seen {
		out = append(out, w)
	}
	sort.Strings(out)
	if len(out) > e.max {
		out = out[:e.max]
	}
	return out
}
