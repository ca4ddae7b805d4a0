package zellij

import (
	"fmt"
	"os"
	"os/exec"
)

// Detect resolves the zellij binary, honouring an explicit path.
func Detect(binary string) (string, error) {
	if binary == "" {
		binary = DefaultBinary
	}
	path, err := exec.LookPath(binary)
	if err != nil {
		return "", fmt.Errorf("zellij binary %q not found in PATH: %w", binary, err)
	}
	return path, nil
}

// CurrentSession returns the session this process runs inside, if any.
// zellij exports ZELLIJ_SESSION_NAME into every pane.
func CurrentSession() (string, bool) {
	if os.Getenv("ZELLIJ") == "" {
		return "", false
	}
	name := os.Getenv("ZELLIJ_SESSION_NAME")
	return name, name != ""
}
