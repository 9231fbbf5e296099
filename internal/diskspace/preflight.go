// Package diskspace estimates the disk footprint of a download and checks it
// against the filesystems backing the temporary and destination directories
// before any transfer begins.
package diskspace

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/famomatic/segmux/internal/types"
)

// availTolerance absorbs small concurrent I/O between the two statfs calls
// when deciding whether two paths share a filesystem.
const availTolerance = 10 * 1024

// Usage describes the filesystem backing a path.
type Usage struct {
	Total     uint64
	Available uint64
	// Device is the platform volume identifier; HasDevice is false when the
	// platform cannot provide one and the capacity heuristic must decide.
	Device    uint64
	HasDevice bool
}

// Shortfall names a filesystem that may not hold the estimated bytes.
type Shortfall struct {
	Path     string
	Required uint64
}

// EstimateBytes sums the estimated size of every video and audio stream in
// the requested formats.
func EstimateBytes(formats []types.DownloadFormat) uint64 {
	var total uint64
	for _, format := range formats {
		total += format.Video.Stream.EstimatedBytes()
		for _, audio := range format.Audios {
			total += audio.Stream.EstimatedBytes()
		}
	}
	return total
}

// statPath is swapped in tests.
var statPath = platformStat

// Check compares the estimated requirement against the available space of
// the temp directory and of the nearest existing ancestor of dst. Both
// results are advisory; the pipeline never aborts on them. skipDst exempts
// special sinks (stdout, device files) from the destination check.
func Check(tmpDir, dst string, required uint64, skipDst bool) (tmp, dstShort *Shortfall, err error) {
	tmpUsage, err := statPath(tmpDir)
	if err != nil {
		return nil, nil, err
	}

	dstDir, err := nearestExisting(dst)
	if err != nil {
		return nil, nil, err
	}
	dstUsage, err := statPath(dstDir)
	if err != nil {
		return nil, nil, err
	}

	tmpAvail, dstAvail := effectiveAvailable(tmpUsage, dstUsage)

	if tmpAvail < required {
		tmp = &Shortfall{Path: tmpDir, Required: required}
	}
	if !skipDst && dstAvail < required {
		dstShort = &Shortfall{Path: dstDir, Required: required}
	}
	return tmp, dstShort, nil
}

// effectiveAvailable doubles the available space of both filesystems when
// they are detected to be the same one, since the temporary and final copies
// coexist there simultaneously.
func effectiveAvailable(tmp, dst Usage) (uint64, uint64) {
	if sameFilesystem(tmp, dst) {
		return tmp.Available * 2, dst.Available * 2
	}
	return tmp.Available, dst.Available
}

// sameFilesystem prefers the platform volume identifier and falls back to
// comparing total capacity plus an available-space delta within tolerance.
func sameFilesystem(a, b Usage) bool {
	if a.HasDevice && b.HasDevice {
		return a.Device == b.Device
	}
	if a.Total != b.Total {
		return false
	}
	diff := int64(a.Available) - int64(b.Available)
	if diff < 0 {
		diff = -diff
	}
	return diff < availTolerance
}

// nearestExisting walks up from dst until an existing directory is found.
func nearestExisting(dst string) (string, error) {
	abs, err := filepath.Abs(dst)
	if err != nil {
		return "", err
	}
	for dir := abs; ; {
		if _, err := os.Stat(dir); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return dir, nil
		}
		dir = parent
	}
}

// FormatSize renders a byte requirement for warning output: whole megabytes
// below one gibibyte, gigabytes with two decimals otherwise.
func FormatSize(bytes uint64) string {
	gb := float64(bytes) / (1024 * 1024 * 1024)
	if gb < 1 {
		return fmt.Sprintf("%.0fMB", math.Ceil(float64(bytes)/(1024*1024)))
	}
	return fmt.Sprintf("%.2fGB", gb)
}
