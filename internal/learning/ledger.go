// Package learning turns manual tag corrections into learned rules.
package learning

import (
	"github.com/Veraticus/tally/internal/model"
)

// Ledger is the append-only log of manual assignments.
type Ledger struct {
	entries []model.ManualAssignment
}

// Append adds an assignment to the end of the ledger.
func (l *Ledger) Append(a model.ManualAssignment) {
	l.entries = append(l.entries, a)
}

// Len returns the number of recorded assignments.
func (l *Ledger) Len() int {
	return len(l.entries)
}

// All returns a copy of every assignment in insertion order.
func (l *Ledger) All() []model.ManualAssignment {
	out := make([]model.ManualAssignment, len(l.entries))
	copy(out, l.entries)
	return out
}

// CountByTag tallies assignments per canonical tag.
func (l *Ledger) CountByTag() map[string]int {
	counts := make(map[string]int)
	for _, a := range l.entries {
		tag, _ := model.NormalizeTag(a.AssignedTag)
		counts[tag]++
	}
	return counts
}

func (l *Ledger) reset(entries []model.ManualAssignment) {
	l.entries = entries
}
