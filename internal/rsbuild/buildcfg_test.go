package rsbuild

import (
	"slices"
	"testing"
)

func TestCmakeArgs_CUDA(t *testing.T) {
	req := &BuildRequest{UseCUDA: true}
	args := newBuildConfig(req, "v2.50.0").cmakeArgs()

	for _, want := range []string{
		"-DCMAKE_BUILD_TYPE=Release",
		"-DBUILD_EXAMPLES=true",
		"-DFORCE_RSUSB_BACKEND=true",
		"-DBUILD_WITH_CUDA=true",
	} {
		if !slices.Contains(args, want) {
			t.Errorf("cmake args missing %s: %v", want, args)
		}
	}
}

func TestCmakeArgs_NoCUDA(t *testing.T) {
	req := &BuildRequest{UseCUDA: false}
	args := newBuildConfig(req, "v2.50.0").cmakeArgs()

	if !slices.Contains(args, "-DBUILD_WITH_CUDA=false") {
		t.Errorf("cmake args missing -DBUILD_WITH_CUDA=false: %v", args)
	}
	// Examples and the user-space backend stay on regardless of CUDA.
	if !slices.Contains(args, "-DBUILD_EXAMPLES=true") ||
		!slices.Contains(args, "-DFORCE_RSUSB_BACKEND=true") {
		t.Errorf("base configure flags must not depend on CUDA: %v", args)
	}
}

func TestBuildEnv(t *testing.T) {
	cuda := newBuildConfig(&BuildRequest{UseCUDA: true}, "v2.50.0")
	env := cuda.buildEnv("/usr/bin:/bin", 4)

	if env["MAKEFLAGS"] != "-j4" {
		t.Errorf("MAKEFLAGS = %q, want -j4", env["MAKEFLAGS"])
	}
	if env["CUDACXX"] != cudaCompiler {
		t.Errorf("CUDACXX = %q, want %q", env["CUDACXX"], cudaCompiler)
	}
	if env["PATH"] != cudaHome+"/bin:/usr/bin:/bin" {
		t.Errorf("PATH = %q, want CUDA bin prepended", env["PATH"])
	}

	plain := newBuildConfig(&BuildRequest{UseCUDA: false}, "v2.50.0")
	env = plain.buildEnv("/usr/bin:/bin", 1)
	if _, ok := env["CUDACXX"]; ok {
		t.Errorf("CUDACXX must not be set when CUDA is disabled")
	}
	if env["MAKEFLAGS"] != "-j1" {
		t.Errorf("MAKEFLAGS = %q, want -j1", env["MAKEFLAGS"])
	}
}
