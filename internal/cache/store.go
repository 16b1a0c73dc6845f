// Package cache provides the in-memory keyed TTL store backing the analysis
// engine. Every entry type carries its own TTL and capacity policy, expiry is
// checked lazily on read, and capacity overflow evicts the oldest-inserted
// entries of the same type. The store never reports errors: caching is an
// optimization, and anything that would fail is observed as a miss.
package cache

import (
	"container/list"
	"strings"
	"sync"
	"time"
)

const defaultMaxEntries = 500

// Policy configures TTL and capacity for one entry type.
type Policy struct {
	// TTL is how long an entry can be returned after insertion.
	TTL time.Duration
	// MaxEntries caps how many entries of this type are retained.
	MaxEntries int
}

// defaultPolicies mirror the lifetime of each entry type's source data:
// article content goes stale slowly, search results quickly.
var defaultPolicies = map[EntryType]Policy{
	EntryTypeArticle:  {TTL: time.Hour, MaxEntries: defaultMaxEntries},
	EntryTypeAnalysis: {TTL: 24 * time.Hour, MaxEntries: defaultMaxEntries},
	EntryTypeSearch:   {TTL: 15 * time.Minute, MaxEntries: defaultMaxEntries},
	EntryTypeRelated:  {TTL: 30 * time.Minute, MaxEntries: defaultMaxEntries},
	EntryTypeDefault:  {TTL: time.Hour, MaxEntries: defaultMaxEntries},
}

// Option mutates store configuration.
type Option func(*Store)

// WithPolicy overrides the policy for one entry type.
func WithPolicy(entryType EntryType, policy Policy) Option {
	return func(store *Store) {
		if policy.TTL <= 0 || policy.MaxEntries <= 0 {
			return
		}
		store.policies[entryType] = policy
	}
}

// WithClock injects a time source, primarily for tests.
func WithClock(clock func() time.Time) Option {
	return func(store *Store) {
		if clock != nil {
			store.clock = clock
		}
	}
}

// TypeStats is one per-type cache snapshot for telemetry.
type TypeStats struct {
	// Size is the current entry count.
	Size int `json:"size"`
	// MaxEntries is the configured capacity.
	MaxEntries int `json:"max_entries"`
	// TTL is the configured entry lifetime.
	TTL time.Duration `json:"ttl"`
}

type entry struct {
	key      string
	typ      EntryType
	value    any
	storedAt time.Time
	ttl      time.Duration
}

// Store is the keyed TTL cache. It is safe for concurrent use.
type Store struct {
	policies map[EntryType]Policy
	clock    func() time.Time

	mu      sync.Mutex
	entries map[string]*entry
	// order tracks insertion order per type so capacity eviction can drop
	// the oldest-inserted entries first.
	order map[EntryType]*list.List
	index map[string]*list.Element
}

// NewStore builds one keyed TTL store with per-type default policies.
func NewStore(options ...Option) *Store {
	store := &Store{
		policies: make(map[EntryType]Policy, len(defaultPolicies)),
		clock:    time.Now,
		entries:  make(map[string]*entry),
		order:    make(map[EntryType]*list.List),
		index:    make(map[string]*list.Element),
	}
	for entryType, policy := range defaultPolicies {
		store.policies[entryType] = policy
	}
	for _, option := range options {
		option(store)
	}

	return store
}

// Get returns the live value for one key, treating expired entries as
// absent and evicting them.
func (s *Store) Get(key string) (any, bool) {
	if s == nil {
		return nil, false
	}

	now := s.clock()

	s.mu.Lock()
	defer s.mu.Unlock()

	stored, exists := s.entries[key]
	if !exists {
		return nil, false
	}
	if now.Sub(stored.storedAt) >= stored.ttl {
		s.removeLocked(key)
		return nil, false
	}

	return stored.value, true
}

// Set stores one value under the key's entry-type policy. An existing entry
// is replaced, last writer wins.
func (s *Store) Set(key string, value any) {
	if s == nil || strings.TrimSpace(key) == "" {
		return
	}

	entryType := TypeOfKey(key)
	policy := s.policyFor(entryType)
	now := s.clock()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.removeLocked(key)
	stored := &entry{
		key:      key,
		typ:      entryType,
		value:    value,
		storedAt: now,
		ttl:      policy.TTL,
	}
	s.entries[key] = stored
	s.index[key] = s.orderFor(entryType).PushBack(stored)

	for s.orderFor(entryType).Len() > policy.MaxEntries {
		oldest := s.orderFor(entryType).Front()
		if oldest == nil {
			break
		}
		s.removeLocked(oldest.Value.(*entry).key)
	}
}

// Delete removes one key if present.
func (s *Store) Delete(key string) {
	if s == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeLocked(key)
}

// Exists reports whether one key holds a live entry, evicting it when
// expired.
func (s *Store) Exists(key string) bool {
	_, exists := s.Get(key)
	return exists
}

// ClearPrefix removes every entry whose key starts with the prefix and
// returns how many were removed.
func (s *Store) ClearPrefix(prefix string) int {
	if s == nil {
		return 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	matched := make([]string, 0)
	for key := range s.entries {
		if strings.HasPrefix(key, prefix) {
			matched = append(matched, key)
		}
	}
	for _, key := range matched {
		s.removeLocked(key)
	}

	return len(matched)
}

// Stats returns one per-type size and policy snapshot.
func (s *Store) Stats() map[EntryType]TypeStats {
	if s == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stats := make(map[EntryType]TypeStats, len(s.policies))
	for entryType, policy := range s.policies {
		size := 0
		if order, exists := s.order[entryType]; exists {
			size = order.Len()
		}
		stats[entryType] = TypeStats{
			Size:       size,
			MaxEntries: policy.MaxEntries,
			TTL:        policy.TTL,
		}
	}

	return stats
}

func (s *Store) policyFor(entryType EntryType) Policy {
	if policy, exists := s.policies[entryType]; exists {
		return policy
	}

	return s.policies[EntryTypeDefault]
}

func (s *Store) orderFor(entryType EntryType) *list.List {
	if order, exists := s.order[entryType]; exists {
		return order
	}

	order := list.New()
	s.order[entryType] = order

	return order
}

func (s *Store) removeLocked(key string) {
	stored, exists := s.entries[key]
	if !exists {
		return
	}

	delete(s.entries, key)
	if element, indexed := s.index[key]; indexed {
		s.orderFor(stored.typ).Remove(element)
		delete(s.index, key)
	}
}

// GetAs returns the live value for one key when it holds a V. A value of a
// different type is treated as a miss, keeping store failures invisible to
// callers.
func GetAs[V any](store *Store, key string) (V, bool) {
	var zero V

	value, exists := store.Get(key)
	if !exists {
		return zero, false
	}

	typed, ok := value.(V)
	if !ok {
		store.Delete(key)
		return zero, false
	}

	return typed, true
}
