package learning

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/Veraticus/tally/internal/common"
	"github.com/Veraticus/tally/internal/model"
	"github.com/Veraticus/tally/internal/service"
	"github.com/Veraticus/tally/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCoordinator(store service.Store) *Coordinator {
	return NewCoordinator(store, Config{
		Now:   testutil.FixedClock(),
		NewID: testutil.SequentialIDs("id"),
	})
}

func TestCoordinator_LearnFromAssignment(t *testing.T) {
	ctx := context.Background()
	c := newTestCoordinator(testutil.SetupTestStore(t))

	txn := testutil.Txn("ACME PAYROLL MARCH", 300000)
	txn.Category = "Income"

	first, err := c.LearnFromAssignment(ctx, txn, "income")
	require.NoError(t, err)
	assert.Equal(t, "id-1", first.ID)
	assert.Equal(t, model.TagIncome, first.AssignedTag)
	assert.Equal(t, txn.ID, first.TransactionID)
	assert.Equal(t, int64(300000), first.Amount)
	assert.Equal(t, testutil.FixedTime, first.Timestamp)
	assert.NotEmpty(t, first.Patterns)

	snap := c.Snapshot()
	assert.Empty(t, snap.Rules, "one assignment is not enough evidence")

	txn2 := testutil.Txn("ACME PAYROLL APRIL", 300000)
	txn2.Category = "Income"
	_, err = c.LearnFromAssignment(ctx, txn2, model.TagIncome)
	require.NoError(t, err)

	next := c.Snapshot()
	require.Len(t, next.Rules, 1)
	assert.Greater(t, next.Version, snap.Version)
	rule := next.Rules[0]
	assert.Equal(t, model.TagIncome, rule.Tag)
	assert.Equal(t, 2, rule.AssignmentsCount)

	var values []string
	for _, cond := range rule.Conditions {
		values = append(values, cond.Value)
	}
	assert.Contains(t, values, "acme payroll")
	assert.Contains(t, values, "income")
	assert.NotContains(t, values, "march")

	stats := c.Statistics()
	assert.Equal(t, 2, stats.TotalAssignments)
	assert.Equal(t, map[string]int{model.TagIncome: 2}, stats.AssignmentsByTag)
	assert.Equal(t, 1, stats.RulesGenerated)
	require.NotNil(t, stats.LastSynthesisAt)
}

func TestCoordinator_LearnFromAssignmentRejectsUnknownTag(t *testing.T) {
	c := newTestCoordinator(nil)
	_, err := c.LearnFromAssignment(context.Background(), testutil.Txn("x", 1), "Groceries")
	require.ErrorIs(t, err, common.ErrInvalidTag)
	assert.Empty(t, c.Assignments())
}

func TestCoordinator_ResynthesizesEveryTag(t *testing.T) {
	ctx := context.Background()
	c := newTestCoordinator(nil)

	for _, d := range []string{"VAULT TOPUP", "VAULT TOPUP"} {
		_, err := c.LearnFromAssignment(ctx, testutil.Txn(d, -1000), model.TagSavings)
		require.NoError(t, err)
	}
	savingsID := c.Snapshot().Rules[0].ID

	for _, d := range []string{"ACME PAYROLL", "ACME PAYROLL"} {
		_, err := c.LearnFromAssignment(ctx, testutil.Txn(d, 1000), model.TagIncome)
		require.NoError(t, err)
	}

	rules := c.Snapshot().Rules
	require.Len(t, rules, 2)
	for _, r := range rules {
		if r.Tag == model.TagSavings {
			assert.NotEqual(t, savingsID, r.ID, "savings rule is re-synthesized on every assignment")
		}
	}
}

func TestCoordinator_ApplyLearnedRules(t *testing.T) {
	ctx := context.Background()
	c := newTestCoordinator(nil)
	for i := 0; i < 2; i++ {
		_, err := c.LearnFromAssignment(ctx, testutil.Txn("VAULT TOPUP", -1000), model.TagSavings)
		require.NoError(t, err)
	}

	match, ok := c.ApplyLearnedRules(model.Transaction{Description: "bunq vault topup"})
	require.True(t, ok)
	assert.Equal(t, model.TagSavings, match.Tag)
	assert.Greater(t, match.Confidence, 0.6)

	rule := c.Snapshot().Rules[0]
	assert.Equal(t, match.RuleID, rule.ID)
	assert.Equal(t, 1, rule.UsageCount)
	require.NotNil(t, rule.LastUsed)
	assert.Equal(t, 1, c.Statistics().LearnedRuleHits)

	_, ok = c.ApplyLearnedRules(model.Transaction{Description: "coffee"})
	assert.False(t, ok)
	assert.Equal(t, 1, c.Statistics().LearnedRuleHits)
}

func TestCoordinator_PinHoldsRulesForABatch(t *testing.T) {
	ctx := context.Background()
	c := newTestCoordinator(nil)
	for i := 0; i < 2; i++ {
		_, err := c.LearnFromAssignment(ctx, testutil.Txn("VAULT TOPUP", -1000), model.TagSavings)
		require.NoError(t, err)
	}

	pinned := c.Pin()
	assert.Equal(t, c.Snapshot().Version, pinned.Version())

	txn := model.Transaction{Description: "bunq vault topup"}
	first, ok := pinned.ApplyLearnedRules(txn)
	require.True(t, ok)
	assert.Equal(t, 1, c.Snapshot().Rules[0].UsageCount)
	assert.Equal(t, 1, c.Statistics().LearnedRuleHits)

	c.ClearLearnedData(ctx)
	require.Empty(t, c.Snapshot().Rules)
	assert.Greater(t, c.Snapshot().Version, pinned.Version())

	second, ok := pinned.ApplyLearnedRules(txn)
	require.True(t, ok, "a pinned batch keeps its rule set")
	assert.Equal(t, first, second)
	assert.Equal(t, 0, c.Statistics().LearnedRuleHits, "usage of a dropped rule is not recorded")

	_, ok = c.Pin().ApplyLearnedRules(txn)
	assert.False(t, ok)
}

func TestCoordinator_PersistsAcrossLoad(t *testing.T) {
	ctx := context.Background()
	store := testutil.SetupTestStore(t)

	c := newTestCoordinator(store)
	for i := 0; i < 2; i++ {
		_, err := c.LearnFromAssignment(ctx, testutil.Txn("VAULT TOPUP", -1000), model.TagSavings)
		require.NoError(t, err)
	}

	restored := newTestCoordinator(store)
	restored.Load(ctx)

	assert.Equal(t, c.Assignments(), restored.Assignments())
	assert.Equal(t, c.Snapshot().Rules, restored.Snapshot().Rules)
	assert.Equal(t, c.Statistics(), restored.Statistics())
}

func TestCoordinator_PersistenceFailureKeepsMemoryState(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewFailingStore()
	c := newTestCoordinator(store)

	c.Load(ctx)
	for i := 0; i < 2; i++ {
		_, err := c.LearnFromAssignment(ctx, testutil.Txn("VAULT TOPUP", -1000), model.TagSavings)
		require.NoError(t, err)
	}

	assert.Len(t, c.Assignments(), 2)
	assert.Len(t, c.Snapshot().Rules, 1)
	assert.Equal(t, 3, store.Calls("load"))
	assert.Equal(t, 6, store.Calls("persist"))

	c.ClearLearnedData(ctx)
	assert.Empty(t, c.Assignments())
	assert.Equal(t, 3, store.Calls("delete"))
}

func TestCoordinator_ExportImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	source := newTestCoordinator(nil)
	for i := 0; i < 2; i++ {
		_, err := source.LearnFromAssignment(ctx, testutil.Txn("VAULT TOPUP", -1000), model.TagSavings)
		require.NoError(t, err)
	}

	data, err := source.ExportLearnedRules()
	require.NoError(t, err)

	var doc map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &doc))
	for _, key := range []string{"rules", "assignments", "statistics", "exportedAt"} {
		assert.Contains(t, doc, key)
	}

	target := newTestCoordinator(testutil.SetupTestStore(t))
	_, err = target.LearnFromAssignment(ctx, testutil.Txn("ACME PAYROLL", 1000), model.TagIncome)
	require.NoError(t, err)
	before := target.Snapshot().Version

	require.NoError(t, target.ImportLearnedRules(ctx, data))
	assert.Equal(t, source.Assignments(), target.Assignments())
	assert.Equal(t, source.Snapshot().Rules, target.Snapshot().Rules)
	assert.Equal(t, source.Statistics(), target.Statistics())
	assert.Greater(t, target.Snapshot().Version, before)
}

func TestCoordinator_ImportRejectsInvalidDocuments(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "not json", data: `{`},
		{name: "unknown rule tag", data: `{"rules":[{"id":"r","tag":"Groceries","conditions":[]}]}`},
		{name: "two rules for one tag", data: `{"rules":[{"id":"a","tag":"Savings"},{"id":"b","tag":"savings"}]}`},
		{name: "unknown condition type", data: `{"rules":[{"id":"r","tag":"Savings","conditions":[{"type":"amount","value":"5"}]}]}`},
		{name: "empty condition value", data: `{"rules":[{"id":"r","tag":"Savings","conditions":[{"type":"pattern","value":" "}]}]}`},
		{name: "unknown assignment tag", data: `{"assignments":[{"id":"a","assignedTag":"Food"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			c := newTestCoordinator(nil)
			_, err := c.LearnFromAssignment(ctx, testutil.Txn("VAULT", -1000), model.TagSavings)
			require.NoError(t, err)

			err = c.ImportLearnedRules(ctx, []byte(tt.data))
			require.ErrorIs(t, err, common.ErrInvalidSnapshot)
			assert.Len(t, c.Assignments(), 1, "state is untouched on a rejected import")
		})
	}
}

func TestCoordinator_ClearLearnedData(t *testing.T) {
	ctx := context.Background()
	store := testutil.SetupTestStore(t)
	c := newTestCoordinator(store)
	for i := 0; i < 2; i++ {
		_, err := c.LearnFromAssignment(ctx, testutil.Txn("VAULT TOPUP", -1000), model.TagSavings)
		require.NoError(t, err)
	}
	before := c.Snapshot().Version

	c.ClearLearnedData(ctx)

	assert.Empty(t, c.Assignments())
	assert.Empty(t, c.Snapshot().Rules)
	assert.Equal(t, 0, c.Statistics().TotalAssignments)
	assert.Greater(t, c.Snapshot().Version, before)

	for _, key := range []string{service.KeyAssignments, service.KeyLearnedRules, service.KeyStatistics} {
		_, found, err := store.Load(ctx, key)
		require.NoError(t, err)
		assert.False(t, found, key)
	}
}
