package rsbuild

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/gookit/color"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

// fetchSourceTarball downloads a release tarball into the cache store and
// returns the cached path. The cache name is keyed on the URL so a tag whose
// tarball URL changes cannot collide with a stale file.
func fetchSourceTarball(ctx context.Context, url, filename string) (string, error) {
	if err := os.MkdirAll(CacheStore, 0o755); err != nil {
		return "", fmt.Errorf("failed to create cache directory %s: %w", CacheStore, err)
	}

	hashName := fmt.Sprintf("%s-%s", hashString(url), filename)
	cachePath := filepath.Join(CacheStore, hashName)

	// Remove stale cache entries for the same filename under a different key.
	globPattern := filepath.Join(CacheStore, "*-"+filename)
	if matches, err := filepath.Glob(globPattern); err == nil {
		for _, match := range matches {
			if match != cachePath {
				debugf("Removing obsolete cached file: %s\n", match)
				_ = os.Remove(match)
			}
		}
	}

	sumPath := cachePath + ".b3"
	if _, err := os.Stat(cachePath); err == nil {
		// A cached file only counts when its recorded checksum still matches;
		// otherwise it is a truncated leftover from an interrupted run.
		if recorded, err := os.ReadFile(sumPath); err == nil {
			if sum, err := fileChecksum(cachePath); err == nil && sum == strings.TrimSpace(string(recorded)) {
				debugf("Already in cache: %s\n", cachePath)
				return cachePath, nil
			}
		}
		debugf("Cached file %s failed verification, re-downloading\n", cachePath)
		_ = os.Remove(cachePath)
		_ = os.Remove(sumPath)
	}

	stagePrintf(colSuccess, "Fetching source: %s\n", filename)
	if err := downloadFile(ctx, url, cachePath); err != nil {
		_ = os.Remove(cachePath)
		return "", err
	}

	sum, err := fileChecksum(cachePath)
	if err != nil {
		return "", fmt.Errorf("failed to checksum %s: %w", cachePath, err)
	}
	if err := os.WriteFile(sumPath, []byte(sum+"\n"), 0o644); err != nil {
		return "", fmt.Errorf("failed to record checksum: %w", err)
	}
	return cachePath, nil
}

// downloadFile downloads a URL into the cache, preferring curl, then wget,
// then the native Go HTTP client. The destination is flock-guarded so an
// interrupted run re-invoked in another terminal cannot corrupt the file.
func downloadFile(ctx context.Context, finalURL, absPath string) error {
	if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		return fmt.Errorf("failed to create parent directory for %s: %w", absPath, err)
	}
	lockPath := absPath + ".lock"

	lFile, err := os.Create(lockPath)
	if err != nil {
		return fmt.Errorf("failed to create lock file: %w", err)
	}
	defer lFile.Close()

	if err := unix.Flock(int(lFile.Fd()), unix.LOCK_EX); err != nil {
		return fmt.Errorf("failed to acquire lock for download: %w", err)
	}
	defer unix.Flock(int(lFile.Fd()), unix.LOCK_UN)

	// Now that we hold the lock, the file may have been completed by
	// whoever held it before us.
	if _, err := os.Stat(absPath); err == nil {
		debugf("File %s appeared after acquiring lock, skipping download.\n", absPath)
		_ = os.Remove(lockPath)
		return nil
	}

	defer func() {
		if _, err := os.Stat(absPath); err == nil {
			_ = os.Remove(lockPath)
		}
	}()

	debugf("Downloading %s -> %s\n", finalURL, absPath)

	// --- Primary choice: curl with Go-native colorization ---
	if _, err := exec.LookPath("curl"); err == nil {
		cmd := exec.CommandContext(ctx, "curl", "-L", "--fail", "-o", absPath, "-#", finalURL)

		stderrPipe, err := cmd.StderrPipe()
		if err != nil {
			cmd.Stderr = os.Stderr
		}
		cmd.Stdout = os.Stdout

		if err := cmd.Start(); err != nil {
			return fmt.Errorf("failed to start curl: %w", err)
		}

		if stderrPipe != nil {
			go func() {
				reader := bufio.NewReader(stderrPipe)
				blue := "\x1b[" + color.Blue.Code() + "m"
				reset := "\x1b[0m"
				for {
					lineBytes, err := reader.ReadBytes('\r')
					if len(lineBytes) > 0 {
						line := string(lineBytes)
						if strings.HasPrefix(strings.TrimSpace(line), "#") {
							fmt.Fprintf(os.Stderr, "%s%s%s", blue, line, reset)
						} else {
							fmt.Fprint(os.Stderr, line)
						}
					}
					if err != nil {
						break
					}
				}
			}()
		}

		if err := cmd.Wait(); err != nil {
			debugf("\ncurl failed, falling back to wget")
		} else {
			debugf("\nDownload successful with curl.")
			return nil
		}
	} else {
		debugf("curl not found, trying wget")
	}

	// --- Fallback 1: wget ---
	if _, err := exec.LookPath("wget"); err == nil {
		cmd := exec.CommandContext(ctx, "wget", "-nv", "-O", absPath, finalURL)
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		if err := cmd.Run(); err == nil {
			debugf("\nDownload successful with wget.")
			return nil
		}
		debugf("\nwget failed, falling back to native Go HTTP client")
	} else {
		debugf("wget not found, using native Go HTTP client")
	}

	// --- Fallback 2: native Go HTTP client ---
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, finalURL, nil)
	if err != nil {
		return err
	}
	resp, err := newHttpClient().Do(req)
	if err != nil {
		return fmt.Errorf("native http get failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download failed with status: %s", resp.Status)
	}

	out, err := os.Create(absPath)
	if err != nil {
		return fmt.Errorf("failed to create destination file %s: %w", absPath, err)
	}
	defer out.Close()

	var dst io.Writer = out
	if term.IsTerminal(int(os.Stderr.Fd())) {
		bar := progressbar.DefaultBytes(resp.ContentLength, filepath.Base(absPath))
		dst = io.MultiWriter(out, bar)
	}

	if _, err := io.Copy(dst, resp.Body); err != nil {
		return fmt.Errorf("failed to write to destination file: %w", err)
	}

	debugf("Download successful with native Go HTTP client.")
	return nil
}
