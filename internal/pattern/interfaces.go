// Package pattern extracts textual evidence from transactions, scores learned rules
// against transactions and synthesizes learned rules from manual assignments.
package pattern

import "github.com/Veraticus/tally/internal/model"

// SpecialPatternSource reports which well-known reference formats appear in a description.
type SpecialPatternSource interface {
	SpecialPatterns(description string) []string
}

// Base confidences per evidence type.
const (
	SpecialPatternConfidence = 0.95
	WordConfidence           = 0.7
	PhraseConfidence         = 0.8
	CategoryConfidence       = 0.75
	SubcategoryConfidence    = 0.8
	CounterpartyConfidence   = 0.85
)

// BaseConfidence returns the starting confidence for a pattern type.
func BaseConfidence(t model.PatternType) float64 {
	switch t {
	case model.PatternSpecialPattern:
		return SpecialPatternConfidence
	case model.PatternExactPhrase:
		return PhraseConfidence
	default:
		return WordConfidence
	}
}
