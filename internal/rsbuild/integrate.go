package rsbuild

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
)

// rulesFileName is the udev rules file shipped inside the checkout. It is
// static and owned by this pipeline, so it is always overwritten on install.
const rulesFileName = "99-realsense-libusb.rules"

// integrateEnvironment wires the installed library into the host: a
// persisted runtime search path for future shells, and udev rules so the
// camera is usable without root or a reboot. Both operations are idempotent
// and safe to re-run indefinitely.
func integrateEnvironment(ctx context.Context) error {
	exportLine := fmt.Sprintf("export LD_LIBRARY_PATH=$LD_LIBRARY_PATH:%s", InstallLib)

	appended, err := appendLineOnce(ProfilePath, exportLine)
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", ProfilePath, err)
	}
	if appended {
		stagePrintf(colSuccess, "Added library path to %s\n", ProfilePath)
	} else {
		stagePrintf(colSuccess, "Library path already present in %s\n", ProfilePath)
	}

	return installUdevRules(ctx)
}

// appendLineOnce appends line to the file only if no identical line exists.
// Exact-line match: a commented-out or whitespace-variant copy does not
// count as present.
func appendLineOnce(path, line string) (bool, error) {
	if f, err := os.Open(path); err == nil {
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			if scanner.Text() == line {
				f.Close()
				return false, nil
			}
		}
		if err := scanner.Err(); err != nil {
			f.Close()
			return false, err
		}
		f.Close()
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return false, err
	}
	defer f.Close()

	if _, err := fmt.Fprintln(f, line); err != nil {
		return false, err
	}
	return true, nil
}

// installUdevRules copies the checkout's rules file into the system rules
// directory (overwriting any previous copy) and reloads udev so camera
// permissions take effect without a reboot.
func installUdevRules(ctx context.Context) error {
	src := filepath.Join(CheckoutDir, "config", rulesFileName)
	if _, err := os.Stat(src); err != nil {
		return fmt.Errorf("udev rules file not found in checkout: %w", err)
	}
	dst := filepath.Join(RulesDir, rulesFileName)

	stagePrintf(colSuccess, "Installing udev rules to %s\n", dst)

	cp := exec.CommandContext(ctx, "cp", src, dst)
	if err := RootExec.Run(cp); err != nil {
		return fmt.Errorf("failed to install udev rules: %w", err)
	}

	if _, err := exec.LookPath("udevadm"); err != nil {
		stagePrintln(colWarn, "udevadm not found; reconnect the camera after a reboot")
		return nil
	}

	reload := exec.CommandContext(ctx, "udevadm", "control", "--reload-rules")
	reload.Stdout = io.Discard
	reload.Stderr = io.Discard
	if err := RootExec.Run(reload); err != nil {
		return fmt.Errorf("udev rules reload failed: %w", err)
	}

	trigger := exec.CommandContext(ctx, "udevadm", "trigger")
	trigger.Stdout = io.Discard
	trigger.Stderr = io.Discard
	if err := RootExec.Run(trigger); err != nil {
		return fmt.Errorf("udev trigger failed: %w", err)
	}

	debugf("udev rules installed and reloaded: %s\n", dst)
	return nil
}
