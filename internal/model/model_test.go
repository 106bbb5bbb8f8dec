package model

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestParseDirection(t *testing.T) {
	tests := []struct {
		input string
		want  Direction
	}{
		{"D", DirectionDebit},
		{" debit ", DirectionDebit},
		{"Af", DirectionDebit},
		{"CR", DirectionCredit},
		{"Bij", DirectionCredit},
		{"credit", DirectionCredit},
		{"", DirectionUnknown},
		{"sideways", DirectionUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseDirection(tt.input))
		})
	}
}

func TestTransaction_Direction(t *testing.T) {
	tests := []struct {
		name        string
		txn         Transaction
		wantInflow  bool
		wantOutflow bool
	}{
		{name: "positive amount", txn: Transaction{Amount: 500}, wantInflow: true},
		{name: "negative amount", txn: Transaction{Amount: -500}, wantOutflow: true},
		{name: "zero amount", txn: Transaction{}},
		{name: "debit hint overrides positive sign", txn: Transaction{Amount: 500, DebitCredit: DirectionDebit}},
		{name: "credit hint overrides negative sign", txn: Transaction{Amount: -500, DebitCredit: DirectionCredit}},
		{name: "debit hint agrees with sign", txn: Transaction{Amount: -500, DebitCredit: DirectionDebit}, wantOutflow: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantInflow, tt.txn.IsInflow())
			assert.Equal(t, tt.wantOutflow, tt.txn.IsOutflow())
		})
	}
}

func TestTransaction_GenerateID(t *testing.T) {
	date := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	a := Transaction{Date: date, Description: "COFFEE", Amount: -350}
	b := a
	c := a
	c.Amount = -351

	assert.Equal(t, a.GenerateID(), b.GenerateID())
	assert.NotEqual(t, a.GenerateID(), c.GenerateID())
	assert.Len(t, a.GenerateID(), 32)
}

func TestTransaction_AbsAmountAndManual(t *testing.T) {
	txn := Transaction{Amount: -1234}
	assert.Equal(t, int64(1234), txn.AbsAmount())
	assert.False(t, txn.IsManuallyTagged())

	txn.OverrideHistory = append(txn.OverrideHistory, AuditEntry{NewTag: TagSavings})
	assert.True(t, txn.IsManuallyTagged())
}

func TestNormalizeTag(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantOK  bool
		isOther bool
	}{
		{input: "income", want: TagIncome, wantOK: true},
		{input: " INVESTMENTS ", want: TagInvestments, wantOK: true},
		{input: "other", want: TagOther, wantOK: true, isOther: true},
		{input: "", want: "", isOther: true},
		{input: "Groceries", want: "Groceries"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := NormalizeTag(tt.input)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.isOther, IsOtherTag(tt.input))
		})
	}
}

func TestResult_Apply(t *testing.T) {
	txn := Transaction{ID: "1", Tag: TagOther}
	Result{
		Tag: TagIncome, Category: "Income", Subcategory: "Salary",
		Confidence: 0.9, Reason: "salary keyword", Source: SourceStatic,
	}.Apply(&txn)

	assert.Equal(t, TagIncome, txn.Tag)
	assert.Equal(t, "Income", txn.Category)
	assert.Equal(t, "Salary", txn.Subcategory)
	assert.InDelta(t, 0.9, txn.ClassificationConfidence, 1e-9)
	assert.Equal(t, "salary keyword", txn.ClassificationReason)
	assert.True(t, txn.CategoryAssigned)
}

func TestResult_ApplyTracksCategoryOrigin(t *testing.T) {
	tests := []struct {
		name         string
		txn          Transaction
		result       Result
		wantAssigned bool
	}{
		{
			name:         "source category kept",
			txn:          Transaction{Category: "Income", Subcategory: "Salary"},
			result:       Result{Tag: TagIncome, Category: "Income", Subcategory: "Salary"},
			wantAssigned: false,
		},
		{
			name:         "source category replaced",
			txn:          Transaction{Category: "Income", Subcategory: "Salary"},
			result:       Result{Tag: TagOther, Category: "Other", Subcategory: "other"},
			wantAssigned: true,
		},
		{
			name:         "no source category",
			txn:          Transaction{},
			result:       Result{Tag: TagOther, Category: "Other", Subcategory: "other"},
			wantAssigned: true,
		},
		{
			name:         "earlier assignment is not treated as source",
			txn:          Transaction{Category: "Income", Subcategory: "Salary", CategoryAssigned: true},
			result:       Result{Tag: TagIncome, Category: "Income", Subcategory: "Salary"},
			wantAssigned: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			txn := tt.txn
			tt.result.Apply(&txn)
			assert.Equal(t, tt.wantAssigned, txn.CategoryAssigned)
		})
	}
}

func TestTransaction_SourceView(t *testing.T) {
	src := Transaction{Category: "Income", Subcategory: "Salary"}
	assert.Equal(t, src, src.SourceView())

	assigned := Transaction{Category: "Income", Subcategory: "Salary", CategoryAssigned: true}
	view := assigned.SourceView()
	assert.Empty(t, view.Category)
	assert.Empty(t, view.Subcategory)
	assert.False(t, view.CategoryAssigned)
	assert.Equal(t, "Income", assigned.Category)
}

func TestMinorUnits(t *testing.T) {
	tests := []struct {
		input string
		want  int64
	}{
		{"25.50", 2550},
		{"-125", -12500},
		{"0.015", 2},
		{"-0.015", -2},
		{"1234567.89", 123456789},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, MinorUnits(decimal.RequireFromString(tt.input)))
		})
	}
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "-25.50", FormatAmount(-2550))
	assert.Equal(t, "0.05", FormatAmount(5))
	assert.Equal(t, "2500.00", FormatAmount(250000))
}
