package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clindash/filterql/exec"
	"github.com/clindash/filterql/validate"
)

func testKey() Key {
	return Key{
		StudyID:    "STUDY-42",
		WidgetID:   "widget-1",
		Expression: "AGE >= 45",
		Dataset:    "adverse_events",
		SchemaHash: 0xdeadbeef,
	}
}

func TestValidationCache_PutGet(t *testing.T) {
	c := NewValidationCache()
	key := testKey()

	_, ok := c.Get(key)
	assert.False(t, ok)

	result := &validate.Result{Valid: true, RowCount: 5}
	entry := c.Put(key, result)
	require.NotNil(t, entry)
	assert.NotEmpty(t, entry.ID)
	assert.False(t, entry.ValidatedAt.IsZero())

	got, ok := c.Get(key)
	require.True(t, ok)
	assert.Same(t, result, got.Result)
	assert.Equal(t, 1, c.Len())
}

func TestValidationCache_ExactKeyOnly(t *testing.T) {
	c := NewValidationCache()
	c.Put(testKey(), &validate.Result{Valid: true})

	variants := []func(*Key){
		func(k *Key) { k.StudyID = "STUDY-43" },
		func(k *Key) { k.WidgetID = "widget-2" },
		func(k *Key) { k.Expression = "AGE >= 46" },
		func(k *Key) { k.Dataset = "demographics" },
		func(k *Key) { k.SchemaHash = 0xcafe },
	}

	for _, mutate := range variants {
		key := testKey()
		mutate(&key)
		if _, ok := c.Get(key); ok {
			t.Errorf("variant key %+v should miss", key)
		}
	}
}

func TestValidationCache_SchemaChangeMisses(t *testing.T) {
	c := NewValidationCache()

	schema := &validate.Schema{
		Name:    "adverse_events",
		Columns: map[string]validate.Column{"AGE": {Type: validate.TypeInteger}},
	}
	key := testKey()
	key.SchemaHash = schema.Hash()
	c.Put(key, &validate.Result{Valid: true})

	// Simulate a re-upload adding a column
	schema.Columns["NEWCOL"] = validate.Column{Type: validate.TypeString}
	key.SchemaHash = schema.Hash()

	_, ok := c.Get(key)
	assert.False(t, ok, "stale entry must not be found under the new schema hash")
}

func TestValidationCache_PutReplaces(t *testing.T) {
	c := NewValidationCache()
	key := testKey()

	c.Put(key, &validate.Result{Valid: false})
	second := &validate.Result{Valid: true}
	c.Put(key, second)

	got, ok := c.Get(key)
	require.True(t, ok)
	assert.Same(t, second, got.Result)
	assert.Equal(t, 1, c.Len())
}

func TestValidationCache_Invalidate(t *testing.T) {
	c := NewValidationCache()
	key := testKey()
	c.Put(key, &validate.Result{Valid: true})

	c.Invalidate(key)
	_, ok := c.Get(key)
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())

	// Invalidating an absent key is a no-op
	c.Invalidate(key)
}

func TestValidationCache_InvalidateStudy(t *testing.T) {
	c := NewValidationCache()

	keep := testKey()
	keep.StudyID = "STUDY-OTHER"

	k1 := testKey()
	k2 := testKey()
	k2.WidgetID = "widget-2"

	c.Put(k1, &validate.Result{Valid: true})
	c.Put(k2, &validate.Result{Valid: true})
	c.Put(keep, &validate.Result{Valid: true})

	c.InvalidateStudy("STUDY-42")

	assert.Equal(t, 1, c.Len())
	_, ok := c.Get(keep)
	assert.True(t, ok)
}

func TestStatsStore_RecordAndLatest(t *testing.T) {
	s := NewStatsStore()

	_, ok := s.Latest("STUDY-42", "widget-1")
	assert.False(t, ok)

	require.NoError(t, s.Record(exec.Metric{
		StudyID:  "STUDY-42",
		WidgetID: "widget-1",
		RowCount: 3,
		Engine:   "rows",
	}))
	require.NoError(t, s.Record(exec.Metric{
		StudyID:  "STUDY-42",
		WidgetID: "widget-1",
		RowCount: 4,
		Engine:   "arrow",
	}))

	m, ok := s.Latest("STUDY-42", "widget-1")
	require.True(t, ok)
	assert.Equal(t, 4, m.RowCount, "last metric wins")
	assert.Equal(t, "arrow", m.Engine)

	_, ok = s.Latest("STUDY-42", "widget-2")
	assert.False(t, ok)
}

func TestStatsStore_CapacityStopsNewKeys(t *testing.T) {
	s := &StatsStore{stats: make(map[string]exec.Metric), capacity: 2}

	require.NoError(t, s.Record(exec.Metric{StudyID: "s1", WidgetID: "w"}))
	require.NoError(t, s.Record(exec.Metric{StudyID: "s2", WidgetID: "w"}))
	require.NoError(t, s.Record(exec.Metric{StudyID: "s3", WidgetID: "w"}))

	_, ok := s.Latest("s3", "w")
	assert.False(t, ok, "new keys are dropped at capacity")

	// Existing keys still update
	require.NoError(t, s.Record(exec.Metric{StudyID: "s1", WidgetID: "w", RowCount: 9}))
	m, ok := s.Latest("s1", "w")
	require.True(t, ok)
	assert.Equal(t, 9, m.RowCount)
}
