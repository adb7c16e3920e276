// Package cache provides the advisory caches around filter validation and
// execution.
//
// Both stores follow an explicit cache-aside pattern: callers populate
// them after doing the real work, lookups are exact-key only, and nothing
// here is authoritative. Races are benign by contract (last-writer-wins);
// the locks only keep the maps themselves safe.
package cache

import (
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"

	"github.com/clindash/filterql/exec"
	"github.com/clindash/filterql/validate"
)

// Key identifies one cached validation result. SchemaHash ties the entry
// to the dataset schema it was validated against, so schema changes
// invalidate implicitly: the new schema simply produces a different key.
type Key struct {
	StudyID    string
	WidgetID   string
	Expression string
	Dataset    string
	SchemaHash uint64
}

func (k Key) hash() uint64 {
	var b strings.Builder
	b.WriteString(k.StudyID)
	b.WriteByte(0)
	b.WriteString(k.WidgetID)
	b.WriteByte(0)
	b.WriteString(k.Expression)
	b.WriteByte(0)
	b.WriteString(k.Dataset)
	b.WriteByte(0)
	b.WriteString(strconv.FormatUint(k.SchemaHash, 16))
	return xxhash.Sum64String(b.String())
}

// Entry is one cached validation result with its provenance.
type Entry struct {
	ID          string
	Key         Key
	Result      *validate.Result
	ValidatedAt time.Time
}

// ValidationCache stores validation results keyed by (study, widget,
// expression, dataset, schema hash).
type ValidationCache struct {
	mu      sync.RWMutex
	entries map[uint64]*Entry
}

// NewValidationCache creates an empty cache.
func NewValidationCache() *ValidationCache {
	return &ValidationCache{entries: make(map[uint64]*Entry)}
}

// Get returns the cached entry for an exact key match.
func (c *ValidationCache) Get(key Key) (*Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key.hash()]
	return e, ok
}

// Put stores a validation result, replacing any previous entry for the
// same key.
func (c *ValidationCache) Put(key Key, result *validate.Result) *Entry {
	e := &Entry{
		ID:          uuid.NewString(),
		Key:         key,
		Result:      result,
		ValidatedAt: time.Now(),
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key.hash()] = e
	return e
}

// Invalidate removes the entry for a key, if present.
func (c *ValidationCache) Invalidate(key Key) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key.hash())
}

// InvalidateStudy removes every entry belonging to a study, e.g. after a
// dataset re-upload changes schemas across widgets.
func (c *ValidationCache) InvalidateStudy(studyID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for h, e := range c.entries {
		if e.Key.StudyID == studyID {
			delete(c.entries, h)
		}
	}
}

// Len returns the number of cached entries.
func (c *ValidationCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// defaultStatsCapacity bounds the stats store
const defaultStatsCapacity = 4096

// StatsStore keeps the most recent execution metric per (study, widget)
// for dashboard inspection. It implements exec.Recorder; recording is
// best-effort and stops silently at capacity.
type StatsStore struct {
	mu       sync.RWMutex
	stats    map[string]exec.Metric
	capacity int
}

// NewStatsStore creates a stats store with the default capacity.
func NewStatsStore() *StatsStore {
	return &StatsStore{
		stats:    make(map[string]exec.Metric),
		capacity: defaultStatsCapacity,
	}
}

func statsKey(studyID, widgetID string) string {
	return studyID + "\x00" + widgetID
}

// Record stores the metric, overwriting the previous one for the same
// study and widget.
func (s *StatsStore) Record(m exec.Metric) error {
	key := statsKey(m.StudyID, m.WidgetID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.stats[key]; !exists && len(s.stats) >= s.capacity {
		return nil
	}
	s.stats[key] = m
	return nil
}

// Latest returns the most recent metric for a study and widget.
func (s *StatsStore) Latest(studyID, widgetID string) (exec.Metric, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.stats[statsKey(studyID, widgetID)]
	return m, ok
}
