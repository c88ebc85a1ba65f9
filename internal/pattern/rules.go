package pattern

import (
	"strings"

	"github.com/karaokeforge/lyrsync/internal/phonetic"
)

// DefaultRules returns the built-in correction rules for known recogniser
// mistakes. The canonical case is the proper noun "Janelle Monáe", which
// Portuguese models reliably hear as the common words "janela e monê"
// (window and monê); the context gates keep a genuine "janela" elsewhere in
// the song untouched.
func DefaultRules() []Pattern {
	// \b in RE2 is an ASCII word boundary, so it can never sit after "ê" or
	// "é". The accented alternatives therefore end the match themselves and
	// only the plain "mone" spelling keeps a trailing boundary.
	rules := []Pattern{{
		ID:            "janelle-monae-phrase",
		Match:         `\b(ao\s+)?som\s+de\s+janela\s+e\s+mon(?:[êé]|e\b)`,
		Replacement:   "som de Janelle Monáe",
		ContextBefore: "você",
		Confidence:    0.95,
		Regex:         true,
	}}
	for _, m := range []string{
		`\bjanela\s+e\s+mon(?:[êé]|e\b)`,
		`\bjanela\s+mon(?:[êé]|e\b)`,
		`\bjanelle\s+mone\b`,
	} {
		rules = append(rules, Pattern{
			Match:         m,
			Replacement:   "Janelle Monáe",
			ContextBefore: "som",
			Confidence:    0.85,
			Regex:         true,
		})
	}
	return rules
}

// HotwordPatterns derives literal correction rules from multi-word hotwords,
// mapping the diacritic-folded form back to the canonical spelling. A folded
// form identical to the hotword needs no rule; single words are left to the
// alignment and phonetic stages, which have the reference to decide against.
func HotwordPatterns(hotwords []string) []Pattern {
	fold := phonetic.DefaultFoldTable()
	var rules []Pattern
	for _, hw := range hotwords {
		hw = strings.TrimSpace(hw)
		if !strings.Contains(hw, " ") {
			continue
		}
		folded := fold.Fold(hw)
		if folded == strings.ToLower(hw) {
			continue
		}
		rules = append(rules, Pattern{
			ID:          "hotword:" + hw,
			Match:       folded,
			Replacement: hw,
			Confidence:  0.9,
		})
	}
	return rules
}
