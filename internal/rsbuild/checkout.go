package rsbuild

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"
)

// tagMarkerFile records the tag of a checkout that was produced from a
// release tarball rather than a git clone.
const tagMarkerFile = ".rsbuild-tag"

// checkoutSatisfies reports whether a checkout carrying the given tag set
// can be used to build the resolved version. Exact match only: building
// against an unverifiable tag is never acceptable.
func checkoutSatisfies(tags []string, version string) bool {
	return slices.Contains(tags, version)
}

// listCheckoutTags returns the tags known to the local checkout.
func listCheckoutTags(ctx context.Context, dir string) ([]string, error) {
	if _, err := os.Stat(filepath.Join(dir, ".git")); err != nil {
		// Tarball checkout: the single pinned tag lives in the marker file.
		data, err := os.ReadFile(filepath.Join(dir, tagMarkerFile))
		if err != nil {
			return nil, fmt.Errorf("%s is neither a git checkout nor an rsbuild tarball checkout", dir)
		}
		return []string{strings.TrimSpace(string(data))}, nil
	}

	cmd := exec.CommandContext(ctx, "git", "-C", dir, "tag", "-l")
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("git tag listing failed in %s: %w", dir, err)
	}

	var tags []string
	for _, line := range strings.Split(string(out), "\n") {
		if t := strings.TrimSpace(line); t != "" {
			tags = append(tags, t)
		}
	}
	return tags, nil
}

// ensureCheckout guarantees that CheckoutDir holds the upstream source at
// exactly the resolved tag. A fresh clone is shallow and pinned to the tag;
// an existing checkout must already know the tag or the run aborts with
// remediation guidance rather than silently building a different version.
func ensureCheckout(ctx context.Context, version string) error {
	if _, err := os.Stat(CheckoutDir); os.IsNotExist(err) {
		return createCheckout(ctx, version)
	}

	tags, err := listCheckoutTags(ctx, CheckoutDir)
	if err != nil {
		return err
	}
	if !checkoutSatisfies(tags, version) {
		return &VersionMismatchError{Requested: version, Checkout: CheckoutDir}
	}

	stagePrintf(colInfo, "Using existing checkout at %s\n", CheckoutDir)

	if _, err := os.Stat(filepath.Join(CheckoutDir, ".git")); err == nil {
		cmd := exec.CommandContext(ctx, "git", "-C", CheckoutDir, "checkout", version)
		if err := UserExec.Run(cmd); err != nil {
			return fmt.Errorf("failed to check out tag %s: %w", version, err)
		}
	}
	return nil
}

func createCheckout(ctx context.Context, version string) error {
	if _, err := exec.LookPath("git"); err == nil {
		stagePrintf(colInfo, "Cloning librealsense %s into %s\n", version, CheckoutDir)

		cmd := exec.CommandContext(ctx, "git", "clone",
			"--depth", "1", "--branch", version, upstreamGit, CheckoutDir)
		if err := UserExec.Run(cmd); err != nil {
			return fmt.Errorf("git clone of %s failed: %w", version, err)
		}
		return nil
	}

	// No git on the host: fall back to the release tarball.
	debugf("git not found, falling back to release tarball for %s\n", version)
	return checkoutFromTarball(ctx, version)
}

// checkoutFromTarball downloads the release source tarball, extracts it into
// a staging directory, and moves it into place with a tag marker so later
// runs can still verify the pinned version.
func checkoutFromTarball(ctx context.Context, version string) error {
	url := fmt.Sprintf("%s/%s.tar.gz", tarballBase, version)
	filename := fmt.Sprintf("librealsense-%s.tar.gz", version)

	cachePath, err := fetchSourceTarball(ctx, url, filename)
	if err != nil {
		return fmt.Errorf("failed to fetch source tarball: %w", err)
	}

	// Stage on the same filesystem as the final checkout; rename(2) cannot
	// cross mounts, and TMPDIR is commonly a tmpfs.
	parent := filepath.Dir(CheckoutDir)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", parent, err)
	}
	staging, err := os.MkdirTemp(parent, ".rsbuild-src-")
	if err != nil {
		return fmt.Errorf("failed to create staging dir: %w", err)
	}
	defer os.RemoveAll(staging)

	stagePrintf(colSuccess, "Extracting %s\n", filename)
	if err := extractTarball(cachePath, staging); err != nil {
		return fmt.Errorf("failed to extract %s: %w", filename, err)
	}

	// GitHub tag tarballs unpack to a single top-level directory.
	entries, err := os.ReadDir(staging)
	if err != nil {
		return err
	}
	if len(entries) != 1 || !entries[0].IsDir() {
		return fmt.Errorf("unexpected tarball layout in %s", filename)
	}
	srcRoot := filepath.Join(staging, entries[0].Name())

	if err := os.WriteFile(filepath.Join(srcRoot, tagMarkerFile), []byte(version+"\n"), 0o644); err != nil {
		return fmt.Errorf("failed to write tag marker: %w", err)
	}

	if err := os.Rename(srcRoot, CheckoutDir); err != nil {
		return fmt.Errorf("failed to move checkout into place: %w", err)
	}
	return nil
}
