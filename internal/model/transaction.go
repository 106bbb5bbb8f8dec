// Package model defines the core data structures for the tally application.
package model

import (
	"crypto/sha256"
	"fmt"
	"strings"
	"time"
)

// Direction is an explicit debit/credit hint supplied by the source data.
type Direction string

// Direction constants.
const (
	DirectionUnknown Direction = ""
	DirectionDebit   Direction = "debit"
	DirectionCredit  Direction = "credit"
)

// ParseDirection normalizes the many spellings banks use for debit/credit indicators.
func ParseDirection(s string) Direction {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "d", "db", "dr", "debit", "af", "out", "outgoing":
		return DirectionDebit
	case "c", "cr", "credit", "bij", "in", "incoming":
		return DirectionCredit
	default:
		return DirectionUnknown
	}
}

// AuditEntry records a single tag change on a transaction.
type AuditEntry struct {
	Timestamp time.Time `json:"timestamp"`
	OldTag    string    `json:"oldTag"`
	NewTag    string    `json:"newTag"`
	Reason    string    `json:"reason"`
}

// Transaction is the canonical record produced by the import adapters.
// Amount is always in minor currency units (cents).
type Transaction struct {
	Date                     time.Time    `json:"date"`
	ID                       string       `json:"id"`
	Description              string       `json:"description"`
	Counterparty             string       `json:"counterparty,omitempty"`
	DebitCredit              Direction    `json:"debitCredit,omitempty"`
	Category                 string       `json:"category,omitempty"`
	Subcategory              string       `json:"subcategory,omitempty"`
	Tag                      string       `json:"tag,omitempty"`
	ClassificationReason     string       `json:"classificationReason,omitempty"`
	OverrideHistory          []AuditEntry `json:"overrideHistory,omitempty"`
	FixHistory               []AuditEntry `json:"fixHistory,omitempty"`
	Amount                   int64        `json:"amount"`
	ClassificationConfidence float64      `json:"classificationConfidence,omitempty"`

	// CategoryAssigned marks Category/Subcategory as written by the classifier
	// rather than supplied by the import source.
	CategoryAssigned bool `json:"categoryAssigned,omitempty"`
}

// SourceView returns a copy carrying only source-supplied classification hints.
// Categories the classifier assigned on an earlier run are cleared so they never
// feed back into the cascade.
func (t Transaction) SourceView() Transaction {
	if t.CategoryAssigned {
		t.Category, t.Subcategory = "", ""
		t.CategoryAssigned = false
	}
	return t
}

// GenerateID derives a stable identifier for sources that do not supply one.
func (t *Transaction) GenerateID() string {
	data := fmt.Sprintf("%s:%d:%s:%s",
		t.Date.Format("2006-01-02"),
		t.Amount,
		t.Description,
		t.Counterparty)
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash[:16])
}

// IsInflow reports whether money came in. An explicit direction hint wins over the amount sign.
func (t *Transaction) IsInflow() bool {
	if t.DebitCredit == DirectionDebit {
		return false
	}
	return t.Amount > 0
}

// IsOutflow reports whether money went out.
func (t *Transaction) IsOutflow() bool {
	if t.DebitCredit == DirectionCredit {
		return false
	}
	return t.Amount < 0
}

// AbsAmount returns the magnitude of the amount in minor units.
func (t *Transaction) AbsAmount() int64 {
	if t.Amount < 0 {
		return -t.Amount
	}
	return t.Amount
}

// IsManuallyTagged reports whether a user has overridden the tag.
func (t *Transaction) IsManuallyTagged() bool {
	return len(t.OverrideHistory) > 0
}
