package pattern

import (
	"testing"

	"github.com/Veraticus/tally/internal/model"
	"github.com/stretchr/testify/assert"
)

func salaryRule() model.LearnedRule {
	return model.LearnedRule{
		ID:  "rule-income",
		Tag: model.TagIncome,
		Conditions: []model.Condition{
			{Type: model.ConditionPattern, PatternType: model.PatternExactWord, Value: "salary", Confidence: 0.7, Frequency: 1},
			{Type: model.ConditionCategory, Value: "income", Confidence: 0.75, Frequency: 1},
		},
	}
}

func TestMatcher_Score(t *testing.T) {
	m := NewMatcher(0)

	tests := []struct {
		name string
		rule model.LearnedRule
		txn  model.Transaction
		want float64
	}{
		{
			name: "all conditions match",
			rule: salaryRule(),
			txn:  model.Transaction{Description: "MONTHLY SALARY ACME", Category: "Income"},
			want: (0.7 + 0.75) / 2,
		},
		{
			name: "unmatched conditions dilute the score",
			rule: salaryRule(),
			txn:  model.Transaction{Description: "Monthly salary"},
			want: 0.35,
		},
		{
			name: "nothing matches",
			rule: salaryRule(),
			txn:  model.Transaction{Description: "grocery store"},
			want: 0,
		},
		{
			name: "rule without conditions",
			rule: model.LearnedRule{Tag: model.TagSavings},
			txn:  model.Transaction{Description: "anything"},
			want: 0,
		},
		{
			name: "special pattern is a regex",
			rule: model.LearnedRule{Conditions: []model.Condition{
				{Type: model.ConditionPattern, PatternType: model.PatternSpecialPattern, Value: `tikkie\s+id\s+\d{6}`, Confidence: 0.95},
			}},
			txn:  model.Transaction{Description: "TIKKIE ID 987654 dinner"},
			want: 0.95,
		},
		{
			name: "invalid special pattern never matches",
			rule: model.LearnedRule{Conditions: []model.Condition{
				{Type: model.ConditionPattern, PatternType: model.PatternSpecialPattern, Value: `(broken`, Confidence: 0.95},
			}},
			txn:  model.Transaction{Description: "(broken"},
			want: 0,
		},
		{
			name: "subcategory equality is case-insensitive",
			rule: model.LearnedRule{Conditions: []model.Condition{
				{Type: model.ConditionSubcategory, Value: "stock purchase", Confidence: 0.8},
			}},
			txn:  model.Transaction{Subcategory: " Stock Purchase "},
			want: 0.8,
		},
		{
			name: "counterparty containment",
			rule: model.LearnedRule{Conditions: []model.Condition{
				{Type: model.ConditionCounterparty, Value: "degiro", Confidence: 0.85},
			}},
			txn:  model.Transaction{Counterparty: "flatexDEGIRO Bank"},
			want: 0.85,
		},
		{
			name: "category is not a substring test",
			rule: model.LearnedRule{Conditions: []model.Condition{
				{Type: model.ConditionCategory, Value: "income", Confidence: 0.75},
			}},
			txn:  model.Transaction{Category: "Income Tax"},
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, m.Score(tt.rule, tt.txn), 1e-9)
		})
	}
}

func TestMatcher_Best(t *testing.T) {
	savings := model.LearnedRule{
		ID:  "rule-savings",
		Tag: model.TagSavings,
		Conditions: []model.Condition{
			{Type: model.ConditionPattern, PatternType: model.PatternExactWord, Value: "vault", Confidence: 0.7},
		},
	}
	rules := []model.LearnedRule{salaryRule(), savings}

	tests := []struct {
		name      string
		threshold float64
		txn       model.Transaction
		wantIdx   int
		wantOK    bool
	}{
		{
			name:    "highest score above threshold wins",
			txn:     model.Transaction{Description: "vault deposit"},
			wantIdx: 1,
			wantOK:  true,
		},
		{
			name:   "score below threshold",
			txn:    model.Transaction{Description: "salary"},
			wantOK: false,
		},
		{
			name:      "score equal to threshold is rejected",
			threshold: 0.7,
			txn:       model.Transaction{Description: "vault"},
			wantOK:    false,
		},
		{
			name:   "no rule matches",
			txn:    model.Transaction{Description: "coffee"},
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMatcher(tt.threshold)
			idx, _, ok := m.Best(rules, tt.txn)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.wantIdx, idx)
			} else {
				assert.Equal(t, -1, idx)
			}
		})
	}
}

func TestMatcher_BestTieKeepsEarlierRule(t *testing.T) {
	a := model.LearnedRule{ID: "a", Tag: model.TagSavings, Conditions: []model.Condition{
		{Type: model.ConditionPattern, PatternType: model.PatternExactWord, Value: "vault", Confidence: 0.7},
	}}
	b := a
	b.ID = "b"
	b.Tag = model.TagTransfers

	idx, score, ok := NewMatcher(0).Best([]model.LearnedRule{a, b}, model.Transaction{Description: "vault"})
	assert.True(t, ok)
	assert.Equal(t, 0, idx)
	assert.InDelta(t, 0.7, score, 1e-9)
}

func TestSnapshotSource_ApplyLearnedRules(t *testing.T) {
	rule := salaryRule()
	snapshot := model.Snapshot{Version: 3, Rules: []model.LearnedRule{rule}}
	src := NewSnapshotSource(snapshot, nil)

	txn := model.Transaction{Description: "Salary October", Category: "income"}
	first, ok := src.ApplyLearnedRules(txn)
	assert.True(t, ok)
	assert.Equal(t, "rule-income", first.RuleID)
	assert.Equal(t, model.TagIncome, first.Tag)
	assert.InDelta(t, 0.725, first.Confidence, 1e-9)

	second, ok := src.ApplyLearnedRules(txn)
	assert.True(t, ok)
	assert.Equal(t, first, second)
	assert.Equal(t, 0, snapshot.Rules[0].UsageCount)
	assert.Nil(t, snapshot.Rules[0].LastUsed)

	_, ok = src.ApplyLearnedRules(model.Transaction{Description: "groceries"})
	assert.False(t, ok)
	assert.Equal(t, 3, src.Version())
}

func TestSnapshotSource_OnMatch(t *testing.T) {
	src := NewSnapshotSource(model.Snapshot{Rules: []model.LearnedRule{salaryRule()}}, nil)
	var hits []string
	src.OnMatch = func(ruleID string) { hits = append(hits, ruleID) }

	_, ok := src.ApplyLearnedRules(model.Transaction{Description: "Salary October", Category: "income"})
	assert.True(t, ok)
	_, ok = src.ApplyLearnedRules(model.Transaction{Description: "groceries"})
	assert.False(t, ok)
	assert.Equal(t, []string{"rule-income"}, hits)
}
