package rsbuild

import (
	"fmt"
	"os"
	"os/exec"
	"time"
)

// authenticateOnce performs a single authentication check at program start.
// The install and udev-rules stages always need root, so the whole pipeline
// authenticates up front instead of surprising the user mid-build.
func authenticateOnce() error {
	if os.Geteuid() == 0 {
		return nil // Already root
	}

	cmd := exec.Command("sudo", "-v")
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("sudo authentication failed: %w", err)
	}

	// Keep the sudo ticket alive for the duration of a long compile.
	go func() {
		ticker := time.NewTicker(4 * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			exec.Command("sudo", "-nv").Run()
		}
	}()

	return nil
}
