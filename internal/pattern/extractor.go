package pattern

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/Veraticus/tally/internal/model"
)

var tokenRegex = regexp.MustCompile(`[\p{L}\p{N}]+`)

var stopWords = map[string]bool{
	"the": true, "and": true, "for": true, "from": true, "with": true, "via": true,
	"van": true, "naar": true, "het": true, "een": true, "voor": true, "der": true,
	"den": true, "des": true, "les": true, "und": true, "pas": true, "nr": true,
}

// Extractor pulls words, phrases and special reference patterns out of a description.
type Extractor struct {
	special SpecialPatternSource
}

// NewExtractor creates an extractor. special may be nil.
func NewExtractor(special SpecialPatternSource) *Extractor {
	return &Extractor{special: special}
}

// Extract returns the deduplicated patterns found in the transaction description.
// Words come first, then two- and three-word phrases, then special patterns.
func (e *Extractor) Extract(txn model.Transaction) []model.Pattern {
	lower := strings.ToLower(strings.TrimSpace(txn.Description))
	if lower == "" {
		return nil
	}

	seen := make(map[string]bool)
	var patterns []model.Pattern
	add := func(t model.PatternType, value string) {
		k := string(t) + "\x00" + value
		if seen[k] {
			return
		}
		seen[k] = true
		patterns = append(patterns, model.Pattern{Type: t, Pattern: value, Confidence: BaseConfidence(t)})
	}

	spans := tokenRegex.FindAllStringIndex(lower, -1)

	for _, span := range spans {
		word := lower[span[0]:span[1]]
		if usefulWord(word) {
			add(model.PatternExactWord, word)
		}
	}

	for size := 2; size <= 3; size++ {
		for i := 0; i+size <= len(spans); i++ {
			if phrase, ok := phraseAt(lower, spans[i:i+size]); ok {
				add(model.PatternExactPhrase, phrase)
			}
		}
	}

	if e.special != nil {
		for _, p := range e.special.SpecialPatterns(txn.Description) {
			add(model.PatternSpecialPattern, p)
		}
	}

	return patterns
}

// usefulWord filters out short tokens, stop words and bare numbers such as reference ids.
func usefulWord(word string) bool {
	if len([]rune(word)) < 3 || stopWords[word] {
		return false
	}
	return !isNumeric(word)
}

func isNumeric(word string) bool {
	for _, r := range word {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// phraseAt joins consecutive tokens separated by exactly one space. Phrases made of
// numbers or stop words only are dropped.
func phraseAt(text string, spans [][]int) (string, bool) {
	useful := false
	for i, span := range spans {
		word := text[span[0]:span[1]]
		if isNumeric(word) {
			return "", false
		}
		if i > 0 && text[spans[i-1][1]:span[0]] != " " {
			return "", false
		}
		if usefulWord(word) {
			useful = true
		}
	}
	if !useful {
		return "", false
	}
	return text[spans[0][0]:spans[len(spans)-1][1]], true
}
