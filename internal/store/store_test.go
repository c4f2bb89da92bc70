package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sigil/internal/interp"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sigil.db")
	s, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func fixedClock() func() time.Time {
	return func() time.Time { return time.Unix(1700000000, 0).UTC() }
}

func TestOpen_AppliesPragmas(t *testing.T) {
	s := openTestStore(t)

	assert.NoError(t, s.verifyPragma("journal_mode", "wal"))
	assert.NoError(t, s.verifyPragma("synchronous", "1"))
	assert.NoError(t, s.verifyPragma("foreign_keys", "1"))
	assert.NoError(t, s.verifyPragma("user_version", "1"))
}

func TestOpen_IsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sigil.db")

	s1, err := Open(path)
	require.NoError(t, err)
	mem := interp.NewMemoryAt(10, fixedClock())
	mem.Set("k", interp.Int(1))
	require.NoError(t, s1.SaveMemory(context.Background(), mem))
	require.NoError(t, s1.Close())

	// Reopening must not wipe existing entries.
	s2, err := Open(path)
	require.NoError(t, err)
	defer s2.Close()

	loaded, err := s2.LoadMemory(context.Background(), 10, fixedClock())
	require.NoError(t, err)
	v, ok := loaded.Get("k")
	require.True(t, ok)
	assert.Equal(t, interp.Int(1), v)
}

func TestSaveLoadMemory_RoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	mem := interp.NewMemoryAt(100, fixedClock())
	mem.Set("count", interp.Int(42))
	mem.Set("ratio", interp.Float(2.5))
	mem.Set("name", interp.Str("weaver"))
	mem.Set("flag", interp.Bool(true))
	mem.Set("items", interp.List{interp.Int(1), interp.Str("two")})
	mem.Set("nested", interp.Map{"inner": interp.Int(7)})
	mem.SetTTL("ephemeral", interp.Str("soon"), 30)

	require.NoError(t, s.SaveMemory(ctx, mem))

	loaded, err := s.LoadMemory(ctx, 100, fixedClock())
	require.NoError(t, err)

	for _, key := range []string{"count", "ratio", "name", "flag", "items", "nested", "ephemeral"} {
		want, _ := mem.Get(key)
		got, ok := loaded.Get(key)
		require.True(t, ok, key)
		assert.Equal(t, want, got, key)
	}

	// Int and Float survive as distinct types through the codec.
	v, _ := loaded.Get("count")
	assert.IsType(t, interp.Int(0), v)
	v, _ = loaded.Get("ratio")
	assert.IsType(t, interp.Float(0), v)

	assert.Equal(t, float64(30), loaded.TTL("ephemeral"))
	assert.Zero(t, loaded.TTL("count"))
}

func TestSaveMemory_ReplacesPreviousSnapshot(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	first := interp.NewMemoryAt(10, fixedClock())
	first.Set("stale", interp.Int(1))
	first.Set("kept", interp.Int(2))
	require.NoError(t, s.SaveMemory(ctx, first))

	second := interp.NewMemoryAt(10, fixedClock())
	second.Set("kept", interp.Int(3))
	require.NoError(t, s.SaveMemory(ctx, second))

	loaded, err := s.LoadMemory(ctx, 10, fixedClock())
	require.NoError(t, err)

	_, ok := loaded.Get("stale")
	assert.False(t, ok)
	v, ok := loaded.Get("kept")
	require.True(t, ok)
	assert.Equal(t, interp.Int(3), v)
	assert.Equal(t, []string{"kept"}, loaded.Keys())
}

func TestSaveMemory_EmptySnapshotClearsTable(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	mem := interp.NewMemoryAt(10, fixedClock())
	mem.Set("k", interp.Int(1))
	require.NoError(t, s.SaveMemory(ctx, mem))

	require.NoError(t, s.SaveMemory(ctx, interp.NewMemoryAt(10, fixedClock())))

	loaded, err := s.LoadMemory(ctx, 10, fixedClock())
	require.NoError(t, err)
	assert.Empty(t, loaded.Keys())
}

func TestQuery_ReadsRawRows(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	mem := interp.NewMemoryAt(10, fixedClock())
	mem.Set("count", interp.Int(42))
	mem.SetTTL("session", interp.Str("abc"), 60)
	require.NoError(t, s.SaveMemory(ctx, mem))

	rows, err := s.Query(ctx, `
		SELECT key, value, ttl_seconds, updated_at
		FROM memory_entries
		ORDER BY key
	`)
	require.NoError(t, err)
	defer rows.Close()

	type entry struct {
		key, value, updated string
		ttl                 sql.NullFloat64
	}
	var got []entry
	for rows.Next() {
		var e entry
		require.NoError(t, rows.Scan(&e.key, &e.value, &e.ttl, &e.updated))
		got = append(got, e)
	}
	require.NoError(t, rows.Err())

	require.Len(t, got, 2)
	assert.Equal(t, "count", got[0].key)
	assert.Equal(t, "42", got[0].value)
	assert.False(t, got[0].ttl.Valid)
	assert.NotEmpty(t, got[0].updated)
	assert.Equal(t, "session", got[1].key)
	assert.Equal(t, `"abc"`, got[1].value)
	require.True(t, got[1].ttl.Valid)
	assert.Equal(t, float64(60), got[1].ttl.Float64)
}

func TestLoadMemory_FreshDatabaseIsEmpty(t *testing.T) {
	s := openTestStore(t)

	loaded, err := s.LoadMemory(context.Background(), 10, fixedClock())
	require.NoError(t, err)
	assert.Empty(t, loaded.Keys())
}
