package cli

import (
	"bytes"
	"testing"
	"time"

	"github.com/Veraticus/tally/internal/mapping"
	"github.com/Veraticus/tally/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderTransactions(t *testing.T) {
	txns := []model.Transaction{
		{
			Date:                     time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
			Description:              "ACME PAYROLL MARCH",
			Amount:                   250000,
			Tag:                      model.TagIncome,
			Category:                 "Income",
			Subcategory:              "Salary",
			ClassificationConfidence: 0.9,
		},
		{
			Date:        time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC),
			Description: "A very long description that keeps going well past the column width limit",
			Amount:      -1999,
			Tag:         model.TagOther,
		},
	}

	var buf bytes.Buffer
	require.NoError(t, RenderTransactions(&buf, txns))
	out := buf.String()

	assert.Contains(t, out, "2024-03-01")
	assert.Contains(t, out, "2500.00")
	assert.Contains(t, out, "-19.99")
	assert.Contains(t, out, "Income / Salary")
	assert.Contains(t, out, " 90%")
	assert.Contains(t, out, "…")
	assert.NotContains(t, out, "column width limit")
}

func TestRenderRules(t *testing.T) {
	rules := []model.LearnedRule{{
		ID:         "rule-1",
		Tag:        model.TagSavings,
		Confidence: 0.7,
		Conditions: []model.Condition{
			{Type: model.ConditionPattern, Value: "spaarrekening"},
			{Type: model.ConditionCounterparty, Value: "bank"},
		},
		AssignmentsCount: 3,
		UsageCount:       5,
	}}

	var buf bytes.Buffer
	require.NoError(t, RenderRules(&buf, rules))

	assert.Contains(t, buf.String(), `pattern="spaarrekening", counterparty="bank"`)
	assert.Contains(t, buf.String(), "Savings")
}

func TestRenderMappings(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderMappings(&buf, []mapping.Entry{
		{Category: "Transfers", Subcategory: "Internal Transfer", Tag: model.TagTransfers},
	}))

	assert.Contains(t, buf.String(), "Internal Transfer")
	assert.Contains(t, buf.String(), "Transfers")
}

func TestRenderStatistics(t *testing.T) {
	at := time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC)
	out := RenderStatistics(model.Statistics{
		TotalAssignments: 3,
		AssignmentsByTag: map[string]int{model.TagSavings: 1, model.TagIncome: 2},
		RulesGenerated:   1,
		LearnedRuleHits:  4,
		LastSynthesisAt:  &at,
	})

	assert.Contains(t, out, "Assignments: 3")
	assert.Contains(t, out, "Income: 2")
	assert.Contains(t, out, "Learned rule hits: 4")
	assert.Contains(t, out, "2024-03-15 09:30")
}

func TestFormatConfidence(t *testing.T) {
	assert.Contains(t, FormatConfidence(1.0), "100%")
	assert.Contains(t, FormatConfidence(0.5), "50%")
}

func TestFormatTag(t *testing.T) {
	assert.Contains(t, FormatTag(model.TagIncome), model.TagIncome)
	assert.Equal(t, "Bogus", FormatTag("Bogus"))
}

func TestProgress(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgress(&buf)

	p.Increment()
	p.Finish()
	assert.Empty(t, buf.String())

	p.Start(2, "Classifying")
	p.Increment()
	p.Increment()
	p.Finish()

	assert.Contains(t, buf.String(), "Classifying")
}
