package credentials

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextIsExpired(t *testing.T) {
	tests := []struct {
		name      string
		expiresAt time.Time
		expected  bool
	}{
		{
			name:      "expired in past",
			expiresAt: time.Now().Add(-1 * time.Hour),
			expected:  true,
		},
		{
			name:      "expires soon (within 60s)",
			expiresAt: time.Now().Add(30 * time.Second),
			expected:  true,
		},
		{
			name:      "not expired",
			expiresAt: time.Now().Add(2 * time.Hour),
			expected:  false,
		},
		{
			name:      "zero time means no expiry tracked",
			expiresAt: time.Time{},
			expected:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := &Context{ExpiresAt: tt.expiresAt}
			assert.Equal(t, tt.expected, ctx.IsExpired())
		})
	}
}

func withTempConfigHome(t *testing.T) {
	t.Helper()
	tmpDir, err := os.MkdirTemp("", "relaydocctl-test-*")
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.RemoveAll(tmpDir) })

	oldXDG := os.Getenv("XDG_CONFIG_HOME")
	_ = os.Setenv("XDG_CONFIG_HOME", tmpDir)
	t.Cleanup(func() { _ = os.Setenv("XDG_CONFIG_HOME", oldXDG) })
}

func TestStoreOperations(t *testing.T) {
	withTempConfigHome(t)

	store, err := NewStore()
	require.NoError(t, err)
	assert.NotNil(t, store)

	_, err = store.GetCurrentContext()
	assert.ErrorIs(t, err, ErrNoCurrentContext)
	assert.Empty(t, store.ListContexts())

	ctx1 := &Context{
		ServerURL: "http://localhost:8080",
		ClientID:  "admin",
		Token:     "token1",
		ExpiresAt: time.Now().Add(1 * time.Hour),
	}
	err = store.SetContext("default", ctx1)
	require.NoError(t, err)

	err = store.UseContext("default")
	require.NoError(t, err)

	current, err := store.GetCurrentContext()
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080", current.ServerURL)
	assert.Equal(t, "admin", current.ClientID)

	ctx2 := &Context{ServerURL: "http://production:8080", ClientID: "prod-admin"}
	err = store.SetContext("production", ctx2)
	require.NoError(t, err)

	contexts := store.ListContexts()
	assert.Len(t, contexts, 2)
	assert.Contains(t, contexts, "default")
	assert.Contains(t, contexts, "production")

	err = store.UseContext("production")
	require.NoError(t, err)
	assert.Equal(t, "production", store.GetCurrentContextName())

	err = store.RenameContext("production", "prod")
	require.NoError(t, err)
	assert.Equal(t, "prod", store.GetCurrentContextName())

	err = store.DeleteContext("prod")
	require.NoError(t, err)
	assert.Empty(t, store.GetCurrentContextName())

	_, err = store.GetContext("nonexistent")
	assert.ErrorIs(t, err, ErrContextNotFound)

	err = store.UseContext("nonexistent")
	assert.ErrorIs(t, err, ErrContextNotFound)
}

func TestStoreUpdateToken(t *testing.T) {
	withTempConfigHome(t)

	store, err := NewStore()
	require.NoError(t, err)

	ctx := &Context{ServerURL: "http://localhost:8080", ClientID: "admin", Token: "old-token"}
	err = store.SetContext("default", ctx)
	require.NoError(t, err)
	err = store.UseContext("default")
	require.NoError(t, err)

	newExpiry := time.Now().Add(2 * time.Hour)
	err = store.UpdateToken("new-token", newExpiry)
	require.NoError(t, err)

	current, err := store.GetCurrentContext()
	require.NoError(t, err)
	assert.Equal(t, "new-token", current.Token)
	assert.WithinDuration(t, newExpiry, current.ExpiresAt, time.Second)
}

func TestStoreClearCurrentContext(t *testing.T) {
	withTempConfigHome(t)

	store, err := NewStore()
	require.NoError(t, err)

	ctx := &Context{
		ServerURL: "http://localhost:8080",
		ClientID:  "admin",
		Token:     "token",
		ExpiresAt: time.Now().Add(1 * time.Hour),
	}
	err = store.SetContext("default", ctx)
	require.NoError(t, err)
	err = store.UseContext("default")
	require.NoError(t, err)

	err = store.ClearCurrentContext()
	require.NoError(t, err)

	current, err := store.GetCurrentContext()
	require.NoError(t, err)
	assert.Empty(t, current.Token)
	assert.True(t, current.ExpiresAt.IsZero())
	assert.Equal(t, "http://localhost:8080", current.ServerURL)
	assert.Equal(t, "admin", current.ClientID)
}

func TestStorePreferences(t *testing.T) {
	withTempConfigHome(t)

	store, err := NewStore()
	require.NoError(t, err)

	prefs := store.GetPreferences()
	assert.Empty(t, prefs.DefaultOutput)
	assert.Empty(t, prefs.Color)

	newPrefs := Preferences{DefaultOutput: "json", Color: "auto", Editor: "vim"}
	err = store.SetPreferences(newPrefs)
	require.NoError(t, err)

	prefs = store.GetPreferences()
	assert.Equal(t, "json", prefs.DefaultOutput)
	assert.Equal(t, "auto", prefs.Color)
	assert.Equal(t, "vim", prefs.Editor)
}
