package pyrun

import (
	"fmt"
	"os"
	"path/filepath"
)

// writeBootstrapScript materializes the embedded bootstrap script to a
// temp file so it can be exec'd as a path; Python has no direct way to
// run a script handed to it over the same stdin the kernel uses for the
// command protocol.
func writeBootstrapScript() (string, error) {
	dir, err := os.MkdirTemp("", "notebook-kernel-*")
	if err != nil {
		return "", fmt.Errorf("create bootstrap temp dir: %w", err)
	}

	path := filepath.Join(dir, "bootstrap.py")
	if err := os.WriteFile(path, bootstrapScript, 0o600); err != nil {
		return "", fmt.Errorf("write bootstrap script: %w", err)
	}
	return path, nil
}
