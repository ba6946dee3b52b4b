package rsbuild

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

// artifactName is the canonical installed library file. Its presence after
// `make install` is the post-install invariant.
const artifactName = "librealsense2.so"

// installLibrary performs the privileged system install and verifies the
// artifact landed where it should. A missing artifact after a successful
// install is an integrity failure, not a build failure: install can report
// success while staging or prefix issues leave the file elsewhere.
func installLibrary(ctx context.Context) error {
	buildDir := filepath.Join(CheckoutDir, "build")

	// Interrupting a half-written system install leaves broken libraries
	// behind, so this phase blocks the first Ctrl+C.
	isCriticalAtomic.Store(1)
	defer isCriticalAtomic.Store(0)

	stagePrintln(colSuccess, "Installing librealsense system-wide")

	install := exec.CommandContext(ctx, "make", "install")
	install.Dir = buildDir
	if err := RootExec.Run(install); err != nil {
		return fmt.Errorf("make install failed: %w", err)
	}

	ldconfig := exec.CommandContext(ctx, "ldconfig")
	if err := RootExec.Run(ldconfig); err != nil {
		return fmt.Errorf("ldconfig failed: %w", err)
	}

	return verifyArtifact(filepath.Join(InstallLib, artifactName))
}

// verifyArtifact checks the post-install invariant.
func verifyArtifact(path string) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("%w: expected %s: %v", errInstallIntegrity, path, err)
	}
	debugf("Verified artifact: %s\n", path)
	return nil
}
