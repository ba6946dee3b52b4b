package rsbuild

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"time"

	"github.com/klauspost/compress/zstd"
)

// buildLibrary configures and compiles the checkout. Compilation gets the
// bounded-retry treatment; a configure failure is a genuine configuration
// problem and fails immediately.
func buildLibrary(ctx context.Context, bc *BuildConfig, jobs int) error {
	buildDir := filepath.Join(CheckoutDir, "build")
	if err := os.MkdirAll(buildDir, 0o755); err != nil {
		return fmt.Errorf("failed to create build directory %s: %w", buildDir, err)
	}
	if err := os.MkdirAll(LogDir, 0o755); err != nil {
		return fmt.Errorf("failed to create log directory %s: %w", LogDir, err)
	}

	stagePrintln(colSuccess, "Configuring build")

	env := buildEnviron(bc, jobs)
	cmake := exec.CommandContext(ctx, "cmake", bc.cmakeArgs()...)
	cmake.Dir = buildDir
	cmake.Env = env
	if err := UserExec.Run(cmake); err != nil {
		return fmt.Errorf("%w: cmake configure failed: %v", errBuildFailed, err)
	}

	stamp := time.Now().Format("20060102-150405")
	attempt := 0
	compile := func(jobCount int) error {
		attempt++
		logPath := filepath.Join(LogDir, fmt.Sprintf("build-%s-%s-attempt%d.log", bc.Version, stamp, attempt))

		logFile, err := os.Create(logPath)
		if err != nil {
			return fmt.Errorf("failed to create log file: %w", err)
		}
		defer func() {
			logFile.Close()
			if err := compressLog(logPath); err != nil {
				debugf("Warning: failed to compress log %s: %v\n", logPath, err)
			}
		}()

		stagePrintf(colSuccess, "Compiling with %d job(s), log: %s\n", jobCount, logPath)

		mk := exec.CommandContext(ctx, "make", fmt.Sprintf("-j%d", jobCount))
		mk.Dir = buildDir
		mk.Env = buildEnviron(bc, jobCount)
		mk.Stdout = io.MultiWriter(os.Stdout, logFile)
		mk.Stderr = io.MultiWriter(os.Stderr, logFile)
		return UserExec.Run(mk)
	}

	return buildWithRetry(compile, jobs)
}

// buildWithRetry runs the compile step as an explicit two-attempt state
// machine: attempt 1 at the selected job count, then on failure exactly one
// serial retry, on the theory that resource contention rather than a source
// defect caused the first failure. A second failure is terminal.
func buildWithRetry(compile func(jobs int) error, jobs int) error {
	err := compile(jobs)
	if err == nil {
		return nil
	}

	stagePrintf(colWarn, "Compile failed (%v). Retrying with a single job.\n", err)

	if err := compile(1); err != nil {
		return fmt.Errorf("%w even with a single job: %v; fix the underlying issue manually and re-run", errBuildFailed, err)
	}
	return nil
}

// buildEnviron merges the config's overrides into the process environment,
// producing the explicit environment for one compiler invocation.
func buildEnviron(bc *BuildConfig, jobs int) []string {
	overrides := bc.buildEnv(os.Getenv("PATH"), jobs)

	keys := make([]string, 0, len(overrides))
	for k := range overrides {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	env := []string{}
	for _, e := range os.Environ() {
		skip := false
		for k := range overrides {
			if len(e) > len(k) && e[:len(k)+1] == k+"=" {
				skip = true
				break
			}
		}
		if !skip {
			env = append(env, e)
		}
	}
	for _, k := range keys {
		env = append(env, fmt.Sprintf("%s=%s", k, overrides[k]))
	}
	return env
}

// compressLog replaces a completed build log with a zstd-compressed copy.
func compressLog(logPath string) error {
	in, err := os.Open(logPath)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(logPath + ".zst")
	if err != nil {
		return err
	}
	defer out.Close()

	zw, err := zstd.NewWriter(out)
	if err != nil {
		return fmt.Errorf("failed to create zstd writer: %w", err)
	}
	if _, err := io.Copy(zw, in); err != nil {
		zw.Close()
		return err
	}
	if err := zw.Close(); err != nil {
		return err
	}

	in.Close()
	return os.Remove(logPath)
}
