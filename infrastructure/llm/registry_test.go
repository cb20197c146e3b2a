package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitmate/gitmate/internal/domain"
)

func testClient() *ResilientClient {
	return NewResilientClient(NewMockCoreLLM(), DefaultRetryConfig(), nil)
}

func TestRegistry_LookupBeforeInit(t *testing.T) {
	registry := NewRegistry()

	_, err := registry.Lookup()
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnconfigured)
	assert.Equal(t, StateUninitialized, registry.State())
}

func TestRegistry_InitAndLookup(t *testing.T) {
	registry := NewRegistry()
	client := testClient()

	require.NoError(t, registry.Init(client))
	assert.Equal(t, StateReady, registry.State())

	// Repeated lookups between Init and Cleanup return the same handle.
	first, err := registry.Lookup()
	require.NoError(t, err)
	second, err := registry.Lookup()
	require.NoError(t, err)
	assert.Same(t, client, first)
	assert.Same(t, first, second)
}

func TestRegistry_DoubleInitFails(t *testing.T) {
	registry := NewRegistry()

	require.NoError(t, registry.Init(testClient()))
	err := registry.Init(testClient())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrAlreadyConfigured)
}

func TestRegistry_InitNilClient(t *testing.T) {
	registry := NewRegistry()

	err := registry.Init(nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnconfigured)
	assert.Equal(t, StateUninitialized, registry.State())
}

func TestRegistry_LookupAfterCleanup(t *testing.T) {
	registry := NewRegistry()
	require.NoError(t, registry.Init(testClient()))

	registry.Cleanup()
	assert.Equal(t, StateCleanedUp, registry.State())

	_, err := registry.Lookup()
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnconfigured)
}

func TestRegistry_CleanupIsIdempotent(t *testing.T) {
	registry := NewRegistry()
	require.NoError(t, registry.Init(testClient()))

	registry.Cleanup()
	registry.Cleanup()
	assert.Equal(t, StateCleanedUp, registry.State())
}

func TestRegistry_CleanupBeforeInit(t *testing.T) {
	registry := NewRegistry()

	registry.Cleanup()
	assert.Equal(t, StateUninitialized, registry.State())
}

func TestRegistry_ReinitAfterCleanup(t *testing.T) {
	registry := NewRegistry()
	require.NoError(t, registry.Init(testClient()))
	registry.Cleanup()

	// Cleanup ends the interval; a new Init starts a fresh one.
	replacement := testClient()
	require.NoError(t, registry.Init(replacement))

	got, err := registry.Lookup()
	require.NoError(t, err)
	assert.Same(t, replacement, got)
}

func TestLifecycleState_String(t *testing.T) {
	assert.Equal(t, "uninitialized", StateUninitialized.String())
	assert.Equal(t, "ready", StateReady.String())
	assert.Equal(t, "cleaned_up", StateCleanedUp.String())
}
