package classification

import (
	"testing"

	"github.com/Veraticus/tally/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCatalog(t *testing.T) {
	tests := []struct {
		name    string
		errMsg  string
		def     Definition
		wantErr bool
	}{
		{
			name: "default catalog compiles",
			def:  DefaultDefinition(),
		},
		{
			name: "invalid category regex",
			def: Definition{
				CategoryRules: []CategoryRule{{Pattern: `[invalid`, Category: "Food", Subcategory: "x", Confidence: 0.8}},
			},
			wantErr: true,
			errMsg:  "failed to compile pattern",
		},
		{
			name: "confidence out of range",
			def: Definition{
				CategoryRules: []CategoryRule{{Pattern: `food`, Category: "Food", Subcategory: "x", Confidence: 1.5}},
			},
			wantErr: true,
			errMsg:  "outside (0,1]",
		},
		{
			name: "invalid special rule",
			def: Definition{
				SpecialRules: []SpecialRule{{Name: "bad", Pattern: `(unclosed`}},
			},
			wantErr: true,
			errMsg:  "special rule bad",
		},
		{
			name: "empty definition",
			def:  Definition{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewCatalog(tt.def, Options{})
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				assert.Nil(t, c)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, c)
		})
	}
}

func TestCatalog_AssignCategory(t *testing.T) {
	c := MustDefault(Options{})

	tests := []struct {
		name        string
		description string
		category    string
		subcategory string
		confidence  float64
		matched     bool
	}{
		{"salary", "MONTHLY SALARY PAYSLIP", "Income", "Salary", 0.95, true},
		{"groceries", "ALBERT HEIJN 1234 AMSTERDAM", "Food", "Groceries", 0.9, true},
		{"stock purchase", "STOCK PURCHASE BROKERAGE LTD", "Investments", "Stock Purchase", 0.9, true},
		{"first match wins", "SAVINGS TRANSFER", "Savings", "Savings Deposit", 0.9, true},
		{"no match", "RANDOM SHOP XYZ", "Other", "other", 0.5, false},
		{"empty description", "", "Other", "other", 0.5, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := c.AssignCategory(model.Transaction{Description: tt.description})
			assert.Equal(t, tt.category, m.Category)
			assert.Equal(t, tt.subcategory, m.Subcategory)
			assert.InDelta(t, tt.confidence, m.Confidence, 1e-9)
			assert.Equal(t, tt.matched, m.Matched)
		})
	}
}

func TestCatalog_DetectTag(t *testing.T) {
	c := MustDefault(Options{})

	tests := []struct {
		name   string
		txn    model.Transaction
		tag    string
		detect bool
	}{
		{
			name:   "stock purchase at brokerage",
			txn:    model.Transaction{Description: "STOCK PURCHASE BROKERAGE LTD", Amount: -5000},
			tag:    model.TagInvestments,
			detect: true,
		},
		{
			name:   "savings keyword regardless of sign",
			txn:    model.Transaction{Description: "BUNQ SAVINGS TRANSFER", Amount: -20000},
			tag:    model.TagSavings,
			detect: true,
		},
		{
			name:   "savings on inflow",
			txn:    model.Transaction{Description: "BUNQ SAVINGS TRANSFER", Amount: 20000},
			tag:    model.TagSavings,
			detect: true,
		},
		{
			name:   "salary",
			txn:    model.Transaction{Description: "MONTHLY SALARY PAYSLIP", Amount: 250000},
			tag:    model.TagIncome,
			detect: true,
		},
		{
			name:   "salary word on outflow is not income",
			txn:    model.Transaction{Description: "SALARY ADVANCE REPAYMENT", Amount: -250000},
			detect: false,
		},
		{
			name:   "transfer keyword",
			txn:    model.Transaction{Description: "OVERBOEKING NAAR J DOE", Amount: -4500},
			tag:    model.TagTransfers,
			detect: true,
		},
		{
			name:   "savings subcategory whitelist",
			txn:    model.Transaction{Description: "MONTHLY PUT ASIDE", Amount: -10000, Subcategory: "Emergency Fund"},
			tag:    model.TagSavings,
			detect: true,
		},
		{
			name:   "literal savings category",
			txn:    model.Transaction{Description: "MONTHLY PUT ASIDE", Amount: -10000, Category: "savings"},
			tag:    model.TagSavings,
			detect: true,
		},
		{
			name:   "nothing matches",
			txn:    model.Transaction{Description: "RANDOM SHOP XYZ", Amount: -1500},
			detect: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, ok := c.DetectTag(tt.txn)
			require.Equal(t, tt.detect, ok)
			if ok {
				assert.Equal(t, tt.tag, d.Tag)
				assert.NotEmpty(t, d.Reason)
				assert.Greater(t, d.Confidence, 0.0)
			}
		})
	}
}

func TestCatalog_InvestmentGates(t *testing.T) {
	c := MustDefault(Options{})

	tests := []struct {
		name       string
		txn        model.Transaction
		investment bool
	}{
		{"etf keyword", model.Transaction{Description: "ETF MONTHLY PLAN", Amount: -10000}, true},
		{"positive amount never qualifies", model.Transaction{Description: "STOCK PURCHASE BROKERAGE LTD", Amount: 5000}, false},
		{"zero amount", model.Transaction{Description: "STOCK PURCHASE", Amount: 0}, false},
		{"at threshold is excluded", model.Transaction{Description: "STOCK PURCHASE", Amount: -1000}, false},
		{"just above threshold", model.Transaction{Description: "STOCK PURCHASE", Amount: -1001}, true},
		{"fee keyword", model.Transaction{Description: "DEGIRO STOCK TRANSACTION FEE", Amount: -5000}, false},
		{"commission keyword", model.Transaction{Description: "ETF COMMISSION", Amount: -5000}, false},
		{"withdrawal keyword", model.Transaction{Description: "STOCK SALE PROCEEDS", Amount: -5000}, false},
		{"tax keyword", model.Transaction{Description: "DIVIDEND TAX ON SHARES", Amount: -5000}, false},
		{"savings keyword", model.Transaction{Description: "SAVINGS ETF", Amount: -5000}, false},
		{"excluded account", model.Transaction{Description: "EASY SAVINGS ETF", Amount: -5000}, false},
		{"brokerage without purchase context", model.Transaction{Description: "DEGIRO FLATEX", Amount: -5000}, false},
		{"brokerage with purchase context", model.Transaction{Description: "DEGIRO ORDER 1234", Amount: -5000}, true},
		{"cash deposit at brokerage", model.Transaction{Description: "DEGIRO DEPOSIT", Amount: -50000}, false},
		{"cash deposit at exchange", model.Transaction{Description: "COINBASE DEPOSIT", Amount: -50000}, false},
		{"purchase subcategory", model.Transaction{Description: "MONTHLY PLAN", Amount: -5000, Subcategory: "ETF Purchase"}, true},
		{"credit hint beats negative sign", model.Transaction{Description: "STOCK PURCHASE", Amount: -5000, DebitCredit: model.DirectionCredit}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.investment, c.IsInvestment(tt.txn))
		})
	}
}

func TestCatalog_InvestmentThresholdOption(t *testing.T) {
	c := MustDefault(Options{MinInvestmentAmount: 100000})

	assert.False(t, c.IsInvestment(model.Transaction{Description: "STOCK PURCHASE", Amount: -5000}))
	assert.True(t, c.IsInvestment(model.Transaction{Description: "STOCK PURCHASE", Amount: -150000}))
	assert.Equal(t, "below minimum amount", c.ExclusionReason(model.Transaction{Description: "STOCK PURCHASE", Amount: -5000}))
}

func TestCatalog_ValidateTag(t *testing.T) {
	c := MustDefault(Options{})

	tests := []struct {
		name  string
		tag   string
		txn   model.Transaction
		valid bool
	}{
		{"investments on positive amount", model.TagInvestments, model.Transaction{Description: "STOCK PURCHASE", Amount: 500}, false},
		{"investments on purchase", "investments", model.Transaction{Description: "STOCK PURCHASE", Amount: -5000}, true},
		{"income without keyword", model.TagIncome, model.Transaction{Description: "REFUND", Amount: 500}, false},
		{"other always validates", model.TagOther, model.Transaction{Description: "anything"}, true},
		{"unknown tag", "Groceries", model.Transaction{Description: "ALBERT HEIJN"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, c.ValidateTag(tt.tag, tt.txn))
		})
	}
}

func TestCatalog_MatchSpecial(t *testing.T) {
	c := MustDefault(Options{})

	rule, ok := c.MatchSpecial(model.Transaction{Description: "bunq auto-save round"})
	require.True(t, ok)
	assert.Equal(t, model.TagSavings, rule.Tag)

	rule, ok = c.MatchSpecial(model.Transaction{Description: "Tikkie ID 000123456789 dinner"})
	require.True(t, ok)
	assert.Equal(t, model.TagTransfers, rule.Tag)

	_, ok = c.MatchSpecial(model.Transaction{Description: "pay with tikkie"})
	assert.False(t, ok)
}

func TestCatalog_SpecialPatterns(t *testing.T) {
	c := MustDefault(Options{})

	got := c.SpecialPatterns("PAYPAL (EUROPE) S.A.R.L. NL12INGB0001234567")
	assert.Len(t, got, 2)

	assert.Empty(t, c.SpecialPatterns("RANDOM SHOP XYZ"))
}
