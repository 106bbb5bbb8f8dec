// Package mapping holds the user-editable category x subcategory -> tag table.
package mapping

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/Veraticus/tally/internal/common"
	"github.com/Veraticus/tally/internal/model"
	"github.com/Veraticus/tally/internal/service"
	"gopkg.in/yaml.v3"
)

// Entry is one row of the mapping table.
type Entry struct {
	Category    string `json:"category" yaml:"category"`
	Subcategory string `json:"subcategory" yaml:"subcategory"`
	Tag         string `json:"tag" yaml:"tag"`
}

// DefaultEntries are the built-in mappings. Persisted overrides win over these.
func DefaultEntries() []Entry {
	return []Entry{
		{Category: "Income", Subcategory: "Salary", Tag: model.TagIncome},
		{Category: "Income", Subcategory: "Investment Income", Tag: model.TagIncome},
		{Category: "Savings", Subcategory: "Savings Deposit", Tag: model.TagSavings},
		{Category: "Savings", Subcategory: "Emergency Fund", Tag: model.TagSavings},
		{Category: "Investments", Subcategory: "Stock Purchase", Tag: model.TagInvestments},
		{Category: "Investments", Subcategory: "ETF Purchase", Tag: model.TagInvestments},
		{Category: "Transfers", Subcategory: "Internal Transfer", Tag: model.TagTransfers},
		{Category: "Transfers", Subcategory: "Payment Request", Tag: model.TagTransfers},
	}
}

// Store merges the defaults with a persisted override table.
type Store struct {
	store     service.Store
	defaults  map[string]Entry
	overrides map[string]Entry
	mu        sync.RWMutex
}

// New creates a mapping store seeded with DefaultEntries.
func New(store service.Store) *Store {
	s := &Store{
		store:     store,
		defaults:  make(map[string]Entry),
		overrides: make(map[string]Entry),
	}
	for _, e := range DefaultEntries() {
		s.defaults[key(e.Category, e.Subcategory)] = e
	}
	return s
}

func key(category, subcategory string) string {
	return strings.ToLower(strings.TrimSpace(category)) + "\x00" + strings.ToLower(strings.TrimSpace(subcategory))
}

// Load reads persisted overrides. A missing or unreadable table leaves the defaults in place.
func (s *Store) Load(ctx context.Context) {
	if s.store == nil {
		return
	}
	data, found, err := s.store.Load(ctx, service.KeyTagMappings)
	if err != nil {
		common.LogWarn(err, "Failed to load tag mappings", common.Fields{"key": service.KeyTagMappings})
		return
	}
	if !found {
		return
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		common.LogWarn(err, "Ignoring corrupt tag mappings", common.Fields{"key": service.KeyTagMappings})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.overrides = make(map[string]Entry, len(entries))
	for _, e := range entries {
		s.overrides[key(e.Category, e.Subcategory)] = e
	}
}

// Lookup returns the tag mapped to category/subcategory. Both must be non-empty.
func (s *Store) Lookup(category, subcategory string) (string, bool) {
	if strings.TrimSpace(category) == "" || strings.TrimSpace(subcategory) == "" {
		return "", false
	}
	k := key(category, subcategory)

	s.mu.RLock()
	defer s.mu.RUnlock()
	if e, ok := s.overrides[k]; ok {
		return e.Tag, true
	}
	if e, ok := s.defaults[k]; ok {
		return e.Tag, true
	}
	return "", false
}

// Set records a user mapping and persists the override table.
func (s *Store) Set(ctx context.Context, category, subcategory, tag string) error {
	if strings.TrimSpace(category) == "" || strings.TrimSpace(subcategory) == "" {
		return fmt.Errorf("%w: category and subcategory are required", common.ErrInvalidConfig)
	}
	canonical, ok := model.NormalizeTag(tag)
	if !ok {
		return fmt.Errorf("%w: %q", common.ErrInvalidTag, tag)
	}

	s.mu.Lock()
	s.overrides[key(category, subcategory)] = Entry{Category: category, Subcategory: subcategory, Tag: canonical}
	s.mu.Unlock()

	s.persist(ctx)
	return nil
}

// Remove deletes a user mapping. Defaults cannot be removed, only overridden.
func (s *Store) Remove(ctx context.Context, category, subcategory string) bool {
	k := key(category, subcategory)

	s.mu.Lock()
	_, ok := s.overrides[k]
	delete(s.overrides, k)
	s.mu.Unlock()

	if ok {
		s.persist(ctx)
	}
	return ok
}

// Entries returns the merged table sorted by category then subcategory.
func (s *Store) Entries() []Entry {
	s.mu.RLock()
	merged := make(map[string]Entry, len(s.defaults)+len(s.overrides))
	for k, e := range s.defaults {
		merged[k] = e
	}
	for k, e := range s.overrides {
		merged[k] = e
	}
	s.mu.RUnlock()

	out := make([]Entry, 0, len(merged))
	for _, e := range merged {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		return key(out[i].Category, out[i].Subcategory) < key(out[j].Category, out[j].Subcategory)
	})
	return out
}

// ImportYAML reads a list of entries and applies each as a user mapping.
// Entries with unknown tags abort the import before anything is applied.
func (s *Store) ImportYAML(ctx context.Context, r io.Reader) (int, error) {
	var doc struct {
		Mappings []Entry `yaml:"mappings"`
	}
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if err == io.EOF {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to decode mappings: %w", err)
	}

	for i, e := range doc.Mappings {
		if strings.TrimSpace(e.Category) == "" || strings.TrimSpace(e.Subcategory) == "" {
			return 0, fmt.Errorf("%w: mapping %d is missing category or subcategory", common.ErrMalformedRecord, i)
		}
		if _, ok := model.NormalizeTag(e.Tag); !ok {
			return 0, fmt.Errorf("%w: mapping %d has tag %q", common.ErrInvalidTag, i, e.Tag)
		}
	}

	s.mu.Lock()
	for _, e := range doc.Mappings {
		e.Tag, _ = model.NormalizeTag(e.Tag)
		s.overrides[key(e.Category, e.Subcategory)] = e
	}
	s.mu.Unlock()

	s.persist(ctx)
	return len(doc.Mappings), nil
}

func (s *Store) persist(ctx context.Context) {
	if s.store == nil {
		return
	}

	s.mu.RLock()
	entries := make([]Entry, 0, len(s.overrides))
	for _, e := range s.overrides {
		entries = append(entries, e)
	}
	s.mu.RUnlock()

	data, err := json.Marshal(entries)
	if err != nil {
		common.LogWarn(err, "Failed to encode tag mappings", nil)
		return
	}
	if err := s.store.Persist(ctx, service.KeyTagMappings, data); err != nil {
		common.LogWarn(err, "Failed to persist tag mappings", common.Fields{"key": service.KeyTagMappings})
	}
}
