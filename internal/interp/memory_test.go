package interp

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_SetGet(t *testing.T) {
	mem := NewMemory(10)

	require.True(t, mem.Set("k", Str("v")))
	v, ok := mem.Get("k")
	require.True(t, ok)
	assert.Equal(t, Str("v"), v)

	_, ok = mem.Get("missing")
	assert.False(t, ok)
}

func TestMemory_CapacityRefusesNewKeys(t *testing.T) {
	mem := NewMemory(2)

	require.True(t, mem.Set("a", Int(1)))
	require.True(t, mem.Set("b", Int(2)))

	// New key past capacity is refused without raising.
	assert.False(t, mem.Set("c", Int(3)))
	assert.Equal(t, 2, mem.Len())

	// Updating an existing key always succeeds.
	assert.True(t, mem.Set("a", Int(10)))
	v, _ := mem.Get("a")
	assert.Equal(t, Int(10), v)
}

func TestMemory_TTLExpiry(t *testing.T) {
	current := time.Unix(1700000000, 0)
	clock := func() time.Time { return current }
	mem := NewMemoryAt(10, clock)

	require.True(t, mem.SetTTL("short", Str("v"), 5))
	require.True(t, mem.Set("forever", Str("w")))

	// Within the TTL window.
	current = current.Add(3 * time.Second)
	assert.True(t, mem.Has("short"))

	// Past it, measured against store age.
	current = current.Add(10 * time.Second)
	_, ok := mem.Get("short")
	assert.False(t, ok)
	assert.True(t, mem.Has("forever"))

	// Expiry is an eviction: the slot frees up.
	assert.Equal(t, 1, mem.Len())
}

func TestMemory_Delete(t *testing.T) {
	mem := NewMemory(10)
	mem.Set("k", Int(1))

	assert.True(t, mem.Delete("k"))
	assert.False(t, mem.Delete("k"))
	assert.False(t, mem.Has("k"))
}

func TestMemory_KeysSorted(t *testing.T) {
	mem := NewMemory(10)
	mem.Set("zeta", Int(1))
	mem.Set("alpha", Int(2))
	mem.Set("mid", Int(3))

	assert.Equal(t, []string{"alpha", "mid", "zeta"}, mem.Keys())
}

func TestMemory_SnapshotIsDetached(t *testing.T) {
	mem := NewMemory(10)
	mem.Set("k", Int(1))

	snap := mem.Snapshot()
	snap["k"] = Int(99)
	snap["extra"] = Int(2)

	v, _ := mem.Get("k")
	assert.Equal(t, Int(1), v)
	assert.False(t, mem.Has("extra"))
}

func TestMemory_TTLOverwriteClearsExpiry(t *testing.T) {
	current := time.Unix(1700000000, 0)
	mem := NewMemoryAt(10, func() time.Time { return current })

	mem.SetTTL("k", Int(1), 5)
	mem.Set("k", Int(2)) // plain set drops the TTL

	current = current.Add(time.Hour)
	assert.True(t, mem.Has("k"))
	assert.Equal(t, float64(0), mem.TTL("k"))
}
