package worker

import (
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
)

// LoadOrCreateIdentity returns the worker identity persisted at path,
// generating and persisting a fresh one if the file is absent or empty. The
// same identity across restarts maps to the same processing ledger, which is
// what makes crash recovery work.
func LoadOrCreateIdentity(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err == nil {
		if id := strings.TrimSpace(string(data)); id != "" {
			return id, nil
		}
	} else if !os.IsNotExist(err) {
		return "", fmt.Errorf("failed to read worker identity file: %w", err)
	}

	id := "worker-" + uuid.NewString()
	if err := os.WriteFile(path, []byte(id+"\n"), 0o600); err != nil {
		return "", fmt.Errorf("failed to persist worker identity: %w", err)
	}

	return id, nil
}
