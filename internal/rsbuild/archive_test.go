package rsbuild

import (
	"archive/tar"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/pgzip"
)

// writeSourceTarball creates a small release-style tarball: a single
// top-level directory with files beneath it.
func writeSourceTarball(t *testing.T, path string) {
	t.Helper()

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create tarball: %v", err)
	}
	defer f.Close()

	gz := pgzip.NewWriter(f)
	tw := tar.NewWriter(gz)

	entries := []struct {
		name string
		body string
		mode int64
		dir  bool
	}{
		{name: "librealsense-2.50.0/", dir: true, mode: 0o755},
		{name: "librealsense-2.50.0/CMakeLists.txt", body: "project(librealsense2)\n", mode: 0o644},
		{name: "librealsense-2.50.0/config/", dir: true, mode: 0o755},
		{name: "librealsense-2.50.0/config/99-realsense-libusb.rules", body: "SUBSYSTEMS==\"usb\"\n", mode: 0o644},
	}
	for _, e := range entries {
		hdr := &tar.Header{Name: e.name, Mode: e.mode, Size: int64(len(e.body))}
		if e.dir {
			hdr.Typeflag = tar.TypeDir
		} else {
			hdr.Typeflag = tar.TypeReg
		}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatalf("write header %s: %v", e.name, err)
		}
		if !e.dir {
			if _, err := tw.Write([]byte(e.body)); err != nil {
				t.Fatalf("write body %s: %v", e.name, err)
			}
		}
	}

	if err := tw.Close(); err != nil {
		t.Fatalf("close tar: %v", err)
	}
	if err := gz.Close(); err != nil {
		t.Fatalf("close gzip: %v", err)
	}
}

func TestExtractTarball_PreservesLayout(t *testing.T) {
	dir := t.TempDir()
	tarball := filepath.Join(dir, "librealsense-v2.50.0.tar.gz")
	writeSourceTarball(t, tarball)

	dest := filepath.Join(dir, "out")
	if err := os.MkdirAll(dest, 0o755); err != nil {
		t.Fatalf("mkdir dest: %v", err)
	}

	if err := extractTarball(tarball, dest); err != nil {
		t.Fatalf("extractTarball failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dest, "librealsense-2.50.0", "CMakeLists.txt"))
	if err != nil {
		t.Fatalf("extracted file missing: %v", err)
	}
	if string(data) != "project(librealsense2)\n" {
		t.Errorf("extracted content = %q", data)
	}

	if _, err := os.Stat(filepath.Join(dest, "librealsense-2.50.0", "config", rulesFileName)); err != nil {
		t.Errorf("udev rules not extracted: %v", err)
	}
}

func TestExtractTarball_RejectsUnknownFormat(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "sources.rar")
	if err := os.WriteFile(archive, []byte("not an archive"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	if err := extractTarball(archive, dir); err == nil {
		t.Errorf("expected error for unsupported archive format")
	}
}
