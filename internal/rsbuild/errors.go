package rsbuild

import (
	"errors"
	"fmt"
)

// Failure classes. Every fatal exit maps to exactly one of these so the
// operator always gets an actionable category instead of a generic error.
var (
	errResolution       = errors.New("could not resolve a release version")
	errBuildFailed      = errors.New("build failed")
	errInstallIntegrity = errors.New("installed artifact missing")
)

// VersionMismatchError reports a local checkout that cannot satisfy the
// requested tag. It carries remediation text because silently building
// whatever happens to be checked out would produce artifacts inconsistent
// with the requested version.
type VersionMismatchError struct {
	Requested string
	Checkout  string
}

func (e *VersionMismatchError) Error() string {
	return fmt.Sprintf("checkout at %s does not contain tag %s; "+
		"update the checkout (git -C %s fetch --tags) or remove it and re-run",
		e.Checkout, e.Requested, e.Checkout)
}
