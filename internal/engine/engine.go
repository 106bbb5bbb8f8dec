// Package engine classifies transactions and owns the transaction book.
package engine

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/Veraticus/tally/internal/classification"
	"github.com/Veraticus/tally/internal/common"
	"github.com/Veraticus/tally/internal/model"
	"github.com/Veraticus/tally/internal/service"
)

// ManualReason is recorded when an override arrives without a reason.
const ManualReason = "manual override"

// Engine keeps an ordered, id-deduplicated set of transactions and applies the classifier to it.
// All public methods are serialized.
type Engine struct {
	store        service.Store
	classifier   *Classifier
	catalog      *classification.Catalog
	learner      Learner
	progress     service.Progress
	now          func() time.Time
	index        map[string]int
	transactions []model.Transaction
	mu           sync.Mutex
}

// Config holds optional engine collaborators.
type Config struct {
	Progress service.Progress
	Now      func() time.Time
}

// New creates an engine. store and learner may be nil.
func New(store service.Store, classifier *Classifier, catalog *classification.Catalog, learner Learner, cfg Config) *Engine {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Engine{
		store:      store,
		classifier: classifier,
		catalog:    catalog,
		learner:    learner,
		progress:   cfg.Progress,
		now:        cfg.Now,
		index:      make(map[string]int),
	}
}

// Load restores the persisted transaction book. A missing or corrupt book leaves it empty.
func (e *Engine) Load(ctx context.Context) {
	if e.store == nil {
		return
	}
	data, found, err := e.store.Load(ctx, service.KeyTransactions)
	if err != nil {
		common.LogWarn(err, "Failed to load transactions", common.Fields{"key": service.KeyTransactions})
		return
	}
	if !found {
		return
	}

	var txns []model.Transaction
	if err := json.Unmarshal(data, &txns); err != nil {
		common.LogWarn(err, "Ignoring corrupt transaction book", common.Fields{"key": service.KeyTransactions})
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.transactions = nil
	e.index = make(map[string]int, len(txns))
	for _, txn := range txns {
		e.add(txn)
	}
	slog.Info("Loaded transactions", "count", len(e.transactions))
}

// Add appends transactions, skipping ids already present. Transactions without an id get a
// generated one. It returns how many were added.
func (e *Engine) Add(ctx context.Context, txns ...model.Transaction) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	added := 0
	for _, txn := range txns {
		if e.add(txn) {
			added++
		}
	}
	if added > 0 {
		e.persist(ctx)
	}
	slog.Debug("Added transactions", "added", added, "duplicates", len(txns)-added)
	return added
}

func (e *Engine) add(txn model.Transaction) bool {
	if strings.TrimSpace(txn.ID) == "" {
		txn.ID = txn.GenerateID()
	}
	if _, exists := e.index[txn.ID]; exists {
		return false
	}
	e.index[txn.ID] = len(e.transactions)
	e.transactions = append(e.transactions, txn)
	return true
}

// Transactions returns a copy of the book in insertion order.
func (e *Engine) Transactions() []model.Transaction {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]model.Transaction, len(e.transactions))
	copy(out, e.transactions)
	return out
}

// Transaction looks up a transaction by id.
func (e *Engine) Transaction(id string) (model.Transaction, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	i, ok := e.index[id]
	if !ok {
		return model.Transaction{}, false
	}
	return e.transactions[i], true
}

// Classify runs the cascade on a transaction that is not part of the book.
func (e *Engine) Classify(txn model.Transaction) model.Result {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.classifier.Classify(txn)
}

// ApplyTags classifies every transaction that has not been manually overridden and writes the
// results back. It returns the number of transactions classified.
func (e *Engine) ApplyTags(ctx context.Context) int {
	return e.batch(ctx, "Applying tags", func(c *Classifier, txn *model.Transaction) bool {
		c.Classify(*txn).Apply(txn)
		return true
	})
}

// ForceReevaluateAll drops every non-manual tag and classifies from scratch.
func (e *Engine) ForceReevaluateAll(ctx context.Context) int {
	return e.batch(ctx, "Re-evaluating", func(c *Classifier, txn *model.Transaction) bool {
		txn.Tag = ""
		txn.ClassificationConfidence = 0
		txn.ClassificationReason = ""
		c.Classify(*txn).Apply(txn)
		return true
	})
}

// FixAllTagAssignments re-classifies transactions whose tag no longer validates and records
// the change in their fix history. It returns the number of tags changed.
func (e *Engine) FixAllTagAssignments(ctx context.Context) int {
	return e.batch(ctx, "Fixing tags", func(c *Classifier, txn *model.Transaction) bool {
		if model.IsOtherTag(txn.Tag) || e.catalog.ValidateTag(txn.Tag, txn.SourceView()) {
			return false
		}

		oldTag := txn.Tag
		candidate := *txn
		candidate.Tag = ""
		result := c.Classify(candidate)
		if strings.EqualFold(result.Tag, oldTag) {
			return false
		}

		result.Apply(txn)
		txn.FixHistory = append(txn.FixHistory, model.AuditEntry{
			Timestamp: e.now(),
			OldTag:    oldTag,
			NewTag:    result.Tag,
			Reason:    "failed validation: " + result.Reason,
		})
		return true
	})
}

// batch applies fn to every transaction without a manual override and returns how many fn changed.
// The whole batch classifies against one pinned snapshot of the learned rules.
func (e *Engine) batch(ctx context.Context, description string, fn func(*Classifier, *model.Transaction) bool) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	classifier := e.classifier.Pinned()

	if e.progress != nil {
		e.progress.Start(len(e.transactions), description)
	}

	changed := 0
	for i := range e.transactions {
		txn := &e.transactions[i]
		if !txn.IsManuallyTagged() && fn(classifier, txn) {
			changed++
		}
		if e.progress != nil {
			e.progress.Increment()
		}
	}

	if e.progress != nil {
		e.progress.Finish()
	}

	e.persist(ctx)
	if e.learner != nil {
		e.learner.Flush(ctx)
	}

	slog.Info("Batch complete", "operation", description, "total", len(e.transactions), "changed", changed)
	return changed
}

// UpdateTransactionTag applies a manual override and feeds it to the learner. It returns false
// when the transaction is unknown or the tag is invalid.
func (e *Engine) UpdateTransactionTag(ctx context.Context, id, tag, reason string) bool {
	canonical, ok := model.NormalizeTag(tag)
	if !ok {
		slog.Warn("Rejected manual override with unknown tag", "transaction_id", id, "tag", tag)
		return false
	}
	if strings.TrimSpace(reason) == "" {
		reason = ManualReason
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	i, ok := e.index[id]
	if !ok {
		return false
	}

	txn := &e.transactions[i]
	txn.OverrideHistory = append(txn.OverrideHistory, model.AuditEntry{
		Timestamp: e.now(),
		OldTag:    txn.Tag,
		NewTag:    canonical,
		Reason:    reason,
	})
	txn.Tag = canonical
	txn.ClassificationConfidence = 1.0
	txn.ClassificationReason = reason

	e.persist(ctx)

	if e.learner != nil {
		if _, err := e.learner.LearnFromAssignment(ctx, *txn, canonical); err != nil {
			common.LogWarn(err, "Failed to learn from manual override", common.Fields{"transaction_id": id})
		}
	}

	slog.Info("Updated transaction tag", "transaction_id", id, "tag", canonical)
	return true
}

// persist must be called with e.mu held.
func (e *Engine) persist(ctx context.Context) {
	if e.store == nil {
		return
	}
	data, err := json.Marshal(e.transactions)
	if err != nil {
		common.LogWarn(err, "Failed to encode transactions", nil)
		return
	}
	if err := e.store.Persist(ctx, service.KeyTransactions, data); err != nil {
		common.LogWarn(err, "Failed to persist transactions", common.Fields{"key": service.KeyTransactions})
	}
}
