// Package osfiles owns the filesystem conventions of the pipeline: staged
// temporary artifacts carry a recognizable prefix so interrupted runs can be
// swept, the mux status side-channel is a named pipe, and fonts are cached
// per-user across runs.
package osfiles

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TempPrefix marks every temporary file written by this process.
const TempPrefix = "segmux-"

// TempFile creates a uniquely named temporary file in the OS temp directory.
// ext must include the leading dot (".mp4", ".ass", ...).
func TempFile(ext string) (*os.File, error) {
	name := TempPrefix + uuid.NewString() + ext
	return os.OpenFile(filepath.Join(os.TempDir(), name), os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o600)
}

// TempPath reserves a unique temporary path without creating the file.
func TempPath(ext string) string {
	return filepath.Join(os.TempDir(), TempPrefix+uuid.NewString()+ext)
}

// IsSpecialFile reports whether path exists and is not a regular file
// (device, fifo, socket). Such destinations are exempt from capacity checks.
func IsSpecialFile(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode()&(os.ModeDevice|os.ModeCharDevice|os.ModeNamedPipe|os.ModeSocket) != 0
}

// FontCacheDir returns the persistent font cache directory, creating it if
// needed.
func FontCacheDir() (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(base, "segmux", "fonts")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}

// SweepStale removes leftover temporary files from interrupted runs. Only
// files carrying TempPrefix and older than maxAge are touched.
func SweepStale(maxAge time.Duration) {
	entries, err := os.ReadDir(os.TempDir())
	if err != nil {
		return
	}
	cutoff := time.Now().Add(-maxAge)
	for _, entry := range entries {
		if !strings.HasPrefix(entry.Name(), TempPrefix) {
			continue
		}
		info, err := entry.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		_ = os.Remove(filepath.Join(os.TempDir(), entry.Name()))
	}
}
