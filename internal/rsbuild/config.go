package rsbuild

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
)

// Config struct
type Config struct {
	Values map[string]string
}

// Load /etc/rsbuild.conf and apply defaults
func loadConfig(path string) (*Config, error) {
	cfg := &Config{Values: make(map[string]string)}

	// Attempt to read the file
	file, err := os.Open(path)
	if err == nil {
		defer file.Close()
		scanner := bufio.NewScanner(file)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			parts := strings.SplitN(line, "=", 2)
			if len(parts) != 2 {
				continue
			}
			key := strings.TrimSpace(parts[0])
			val := strings.TrimSpace(parts[1])
			val = strings.Trim(val, `"'`)
			cfg.Values[key] = val
		}
		if err := scanner.Err(); err != nil {
			return cfg, err
		}
	}

	// Merge RSBUILD_* env overrides
	mergeEnvOverrides(cfg)

	return cfg, nil
}

// Merge RSBUILD_* env overrides
func mergeEnvOverrides(cfg *Config) {
	for _, env := range os.Environ() {
		if strings.HasPrefix(env, "RSBUILD_") {
			parts := strings.SplitN(env, "=", 2)
			if len(parts) == 2 {
				cfg.Values[parts[0]] = parts[1]
			}
		}
	}
}

func initConfig(cfg *Config) {
	home, _ := os.UserHomeDir()

	CheckoutDir = cfg.Values["RSBUILD_CHECKOUT"]
	if CheckoutDir == "" {
		CheckoutDir = filepath.Join(home, "librealsense")
	}

	CacheDir = cfg.Values["RSBUILD_CACHE_DIR"]
	if CacheDir == "" {
		CacheDir = filepath.Join(home, ".cache", "rsbuild")
	}

	prefix := cfg.Values["RSBUILD_PREFIX"]
	if prefix == "" {
		prefix = "/usr/local"
	}
	InstallLib = filepath.Join(prefix, "lib")

	RulesDir = cfg.Values["RSBUILD_RULES_DIR"]
	if RulesDir == "" {
		RulesDir = "/etc/udev/rules.d"
	}

	ProfilePath = cfg.Values["RSBUILD_PROFILE"]
	if ProfilePath == "" {
		ProfilePath = filepath.Join(home, ".bashrc")
	}

	Debug = cfg.Values["RSBUILD_DEBUG"] == "1"

	upstreamGit = cfg.Values["RSBUILD_GIT_URL"]
	if upstreamGit == "" {
		upstreamGit = "https://github.com/IntelRealSense/librealsense.git"
	}

	releaseAPI = cfg.Values["RSBUILD_RELEASE_API"]
	if releaseAPI == "" {
		releaseAPI = "https://api.github.com/repos/IntelRealSense/librealsense/releases/latest"
	}

	tarballBase = cfg.Values["RSBUILD_TARBALL_BASE"]
	if tarballBase == "" {
		tarballBase = "https://github.com/IntelRealSense/librealsense/archive/refs/tags"
	}

	LogDir = filepath.Join(CacheDir, "log")
	CacheStore = filepath.Join(CacheDir, "sources")
}
