package rsbuild

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strconv"
	"syscall"
	"time"

	"github.com/gookit/color"
)

// BuildRequest is the validated form of the command line.
// Jobs == 0 means "not set, size from the host".
type BuildRequest struct {
	Version string
	UseCUDA bool
	Jobs    int
}

// errHelp is returned by parseBuildArgs when usage was requested explicitly.
var errHelp = errors.New("help requested")

// usageError marks bad command-line input, as opposed to a failure while running.
type usageError struct{ msg string }

func (e *usageError) Error() string { return e.msg }

func printUsage() {
	colSuccess.Println("Usage: rsbuild [options]")
	colSuccess.Println("Build and install the librealsense camera library")
	fmt.Println()
	color.Info.Println("Options:")
	opts := []struct {
		Flag string
		Desc string
	}{
		{"-v, --version <tag>", "Release tag to build (default: latest published release)"},
		{"-n, --no-cuda", "Build without CUDA acceleration"},
		{"-j, --jobs <n>", "Compile job count (default: sized from memory and CPUs)"},
		{"-h, --help", "Show this help"},
	}
	for _, o := range opts {
		fmt.Print("  ")
		color.Bold.Print(o.Flag)
		for i := len(o.Flag); i < 24; i++ {
			fmt.Print(" ")
		}
		color.Info.Println(o.Desc)
	}
	fmt.Println()
	color.Info.Println("Commands:")
	fmt.Print("  ")
	color.Bold.Print("log")
	fmt.Print("                      ")
	color.Info.Println("TUI build log viewer")
	fmt.Print("  ")
	color.Bold.Print("version")
	fmt.Print("                  ")
	color.Info.Println("Version information")
	fmt.Println()
}

// parseBuildArgs turns raw CLI tokens into a validated BuildRequest.
// Unknown options and non-positive job counts are rejected here, before
// any network or filesystem work happens.
func parseBuildArgs(args []string) (*BuildRequest, error) {
	req := &BuildRequest{UseCUDA: true}

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "-h", "--help":
			return nil, errHelp
		case "-n", "--no-cuda":
			req.UseCUDA = false
		case "-v", "--version":
			i++
			if i >= len(args) {
				return nil, &usageError{msg: "--version requires a release tag"}
			}
			req.Version = args[i]
		case "-j", "--jobs":
			i++
			if i >= len(args) {
				return nil, &usageError{msg: "--jobs requires a number"}
			}
			n, err := strconv.Atoi(args[i])
			if err != nil || n <= 0 {
				return nil, &usageError{msg: fmt.Sprintf("invalid job count %q: must be a positive integer", args[i])}
			}
			req.Jobs = n
		default:
			return nil, &usageError{msg: fmt.Sprintf("unknown option %q", args[i])}
		}
	}

	return req, nil
}

// Main is the CLI entrypoint for cmd/rsbuild.
func Main() {
	// 1. CONTEXT AND SIGNAL SETUP
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)

	go func() {
		for {
			select {
			case sig := <-sigs:
				if isCriticalAtomic.Load() == 1 {
					// --- CRITICAL PHASE: Block 1st signal, force exit on 2nd ---
					colArrow.Print("\n-> ")
					colError.Printf("Install in progress. Press Ctrl+C AGAIN to force exit NOW.\n")
					select {
					case <-sigs:
						colArrow.Print("\n-> ")
						colError.Printf("Forced immediate exit.")
						os.Exit(130)
					case <-time.After(5 * time.Second):
						continue
					case <-ctx.Done():
						return
					}
				} else {
					// --- NON-CRITICAL PHASE: Graceful Cancellation ---
					colArrow.Print("\n-> ")
					color.Danger.Printf("Received %v. Cancelling build gracefully\n", sig)
					cancel()
					time.Sleep(100 * time.Millisecond)

					select {
					case <-sigs:
						colArrow.Print("\n-> ")
						color.Danger.Printf("Second interrupt received. Forcing immediate exit.")
						os.Exit(130)
					case <-time.After(2 * time.Second):
						colArrow.Print("\n-> ")
						color.Danger.Printf("Graceful shutdown timeout. Exiting.")
						os.Exit(130)
					}
				}

			case <-ctx.Done():
				return
			}
		}
	}()

	if ctx.Err() != nil {
		return
	}

	configPath := ConfigFile
	cfg, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not read %s: %v\n", configPath, err)
	}
	initConfig(cfg)

	args := os.Args[1:]

	// Subcommands that bypass the build pipeline.
	if len(args) > 0 {
		switch args[0] {
		case "log":
			os.Exit(runLogViewer())
		case "version":
			fmt.Printf("rsbuild %s (%s)\n", version, buildDate)
			return
		}
	}

	req, err := parseBuildArgs(args)
	if err != nil {
		if errors.Is(err, errHelp) {
			printUsage()
			return
		}
		colError.Printf("Error: %v\n", err)
		printUsage()
		os.Exit(1)
	}

	// The install and udev stages need root; authenticate once up front.
	if err := authenticateOnce(); err != nil {
		fmt.Fprintf(os.Stderr, "Authentication failed: %v\n", err)
		os.Exit(1)
	}

	UserExec = &Executor{Context: ctx}
	RootExec = &Executor{Context: ctx, ShouldRunAsRoot: true}

	if err := runPipeline(ctx, req); err != nil {
		stagePrintf(colError, "%v\n", err)
		os.Exit(1)
	}
}

// runPipeline drives the stages strictly in sequence. Every stage is
// fatal-on-failure; only the compile step carries its own retry.
func runPipeline(ctx context.Context, req *BuildRequest) error {
	startTime := time.Now()

	// 1. Resolve version
	resolved, err := resolveVersion(ctx, req)
	if err != nil {
		return fmt.Errorf("%w: %v", errResolution, err)
	}
	stagePrintf(colSuccess, "Building librealsense %s (CUDA: %v)\n", resolved, req.UseCUDA)

	// 2. Source checkout
	if err := ensureCheckout(ctx, resolved); err != nil {
		return err
	}

	// 3. Build configuration + job sizing
	bc := newBuildConfig(req, resolved)
	jobs := selectJobs(readTotalMemory(), runtime.NumCPU(), req.Jobs)
	stagePrintf(colSuccess, "Using %d compile job(s)\n", jobs)

	if bc.CUDA && !cudaToolkitPresent() {
		stagePrintf(colWarn, "CUDA requested but %s not found; the configure step may fail. Use --no-cuda to disable.\n", cudaCompiler)
	}

	// 4. Compile (with bounded retry)
	if err := buildLibrary(ctx, bc, jobs); err != nil {
		return err
	}

	// 5. Install + verify
	if err := installLibrary(ctx); err != nil {
		return err
	}

	// 6. System integration
	if err := integrateEnvironment(ctx); err != nil {
		return err
	}

	stagePrintf(colSuccess, "librealsense %s installed in %s\n", resolved, time.Since(startTime).Round(time.Second))
	stagePrintf(colSuccess, "Library: %s\n", filepath.Join(InstallLib, artifactName))
	return nil
}
