package rsbuild

import "fmt"

// BuildConfig is the derived, read-only build configuration. Created once
// per run from the BuildRequest; nothing mutates it afterwards.
type BuildConfig struct {
	Version string
	CUDA    bool
}

func newBuildConfig(req *BuildRequest, resolved string) *BuildConfig {
	return &BuildConfig{
		Version: resolved,
		CUDA:    req.UseCUDA,
	}
}

// cmakeArgs returns the configure arguments. Examples are always built so
// the operator can smoke-test the camera, and the user-space USB backend is
// forced so the kernel needs no patched uvcvideo module.
func (bc *BuildConfig) cmakeArgs() []string {
	return []string{
		"..",
		"-DCMAKE_BUILD_TYPE=Release",
		"-DBUILD_EXAMPLES=true",
		"-DFORCE_RSUSB_BACKEND=true",
		fmt.Sprintf("-DBUILD_WITH_CUDA=%v", bc.CUDA),
	}
}

// buildEnv returns the environment overrides for the compiler invocation
// at a given job count. Configuration travels on the child process only;
// the host environment is never mutated.
func (bc *BuildConfig) buildEnv(path string, jobs int) map[string]string {
	env := map[string]string{
		"MAKEFLAGS":                  fmt.Sprintf("-j%d", jobs),
		"CMAKE_BUILD_PARALLEL_LEVEL": fmt.Sprintf("%d", jobs),
	}
	if bc.CUDA {
		env["CUDACXX"] = cudaCompiler
		env["PATH"] = cudaHome + "/bin:" + path
		env["LD_LIBRARY_PATH"] = cudaHome + "/lib64"
	}
	return env
}
