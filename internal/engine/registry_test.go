package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryGetOrCreate(t *testing.T) {
	r := NewRegistry()

	a := r.GetOrCreate("user-1", "")
	b := r.GetOrCreate("user-1", "")
	assert.Same(t, a, b)
	assert.Equal(t, 1, r.Len())

	c := r.GetOrCreate("user-2", "")
	assert.NotSame(t, a, c)
	assert.Equal(t, 2, r.Len())
}

func TestRegistryCreate(t *testing.T) {
	r := NewRegistry()

	key, eng := r.Create("")
	require.NotEmpty(t, key)
	require.NotNil(t, eng)
	assert.Same(t, eng, r.GetOrCreate(key, ""))

	key2, _ := r.Create("")
	assert.NotEqual(t, key, key2)
}

func TestRegistryDestroy(t *testing.T) {
	r := NewRegistry()

	a := r.GetOrCreate("user-1", "")
	require.True(t, a.Execute("x = 1", nil, time.Second).OK())

	r.Destroy("user-1")
	assert.Equal(t, 0, r.Len())

	// A new engine for the same key starts clean.
	b := r.GetOrCreate("user-1", "")
	res := b.Execute("print(x)", nil, time.Second)
	assert.False(t, res.OK())

	// Destroying an unknown key is a no-op.
	r.Destroy("never-seen")
}

func TestRegistryReset(t *testing.T) {
	r := NewRegistry()

	a := r.GetOrCreate("user-1", "")
	require.True(t, a.Execute("x = 1", nil, time.Second).OK())

	r.Reset("user-1")

	// Same engine instance, wiped namespace.
	assert.Same(t, a, r.GetOrCreate("user-1", ""))
	res := a.Execute("print(x)", nil, time.Second)
	assert.False(t, res.OK())
}
