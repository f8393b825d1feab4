package worker

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadOrCreateIdentity(t *testing.T) {
	t.Run("generates and persists a fresh identity", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "worker_id")

		id, err := LoadOrCreateIdentity(path)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(id, "worker-"))

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, id, strings.TrimSpace(string(data)))
	})

	t.Run("same identity across restarts", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "worker_id")

		first, err := LoadOrCreateIdentity(path)
		require.NoError(t, err)

		second, err := LoadOrCreateIdentity(path)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})

	t.Run("respects an existing identity file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "worker_id")
		require.NoError(t, os.WriteFile(path, []byte("worker-pinned\n"), 0o600))

		id, err := LoadOrCreateIdentity(path)
		require.NoError(t, err)
		assert.Equal(t, "worker-pinned", id)
	})

	t.Run("regenerates when the file is empty", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "worker_id")
		require.NoError(t, os.WriteFile(path, []byte("  \n"), 0o600))

		id, err := LoadOrCreateIdentity(path)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(id, "worker-"))
	})
}
