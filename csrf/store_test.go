package csrf_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/renatrack/renatrack-client/csrf"
)

func TestStore_Lifecycle(t *testing.T) {
	store := csrf.NewStore()

	token, ok := store.Token()
	require.False(t, ok)
	require.Empty(t, token)

	store.Set("csrf-token-1")
	token, ok = store.Token()
	require.True(t, ok)
	require.Equal(t, "csrf-token-1", token)

	store.Set("csrf-token-2")
	token, _ = store.Token()
	require.Equal(t, "csrf-token-2", token)

	store.Clear()
	_, ok = store.Token()
	require.False(t, ok)
}

func TestStore_DistinguishesEmptyFromUnset(t *testing.T) {
	store := csrf.NewStore()
	store.Set("")

	token, ok := store.Token()
	require.True(t, ok, "an explicitly set empty token is still set")
	require.Empty(t, token)
}
