package rsbuild

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestRunPipeline_MismatchAbortsBeforeCompile(t *testing.T) {
	origCheckout := CheckoutDir
	CheckoutDir = makeTarballCheckout(t, "v2.48.0")
	t.Cleanup(func() { CheckoutDir = origCheckout })

	ctx := context.Background()
	UserExec = &Executor{Context: ctx}
	RootExec = &Executor{Context: ctx, ShouldRunAsRoot: true}

	req := &BuildRequest{Version: "v2.50.0", UseCUDA: false, Jobs: 4}
	err := runPipeline(ctx, req)

	var vm *VersionMismatchError
	if !errors.As(err, &vm) {
		t.Fatalf("runPipeline = %v, want VersionMismatchError", err)
	}

	// The pipeline must abort before any compile step runs: no build
	// directory may have been created under the stale checkout.
	if _, err := os.Stat(filepath.Join(CheckoutDir, "build")); !os.IsNotExist(err) {
		t.Errorf("build directory was created despite the version mismatch")
	}
}
