package diskspace

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/famomatic/segmux/internal/types"
)

func stream(bandwidth uint64, seconds int) types.VariantStream {
	var segs []types.Segment
	for i := 0; i < seconds/4; i++ {
		segs = append(segs, types.Segment{Index: i, Duration: 4 * time.Second})
	}
	return types.VariantStream{Bandwidth: bandwidth, Segments: segs}
}

func TestEstimateBytes(t *testing.T) {
	formats := []types.DownloadFormat{
		{
			Video: types.LocalizedStream{Stream: stream(8_000_000, 80)},
			Audios: []types.LocalizedStream{
				{Stream: stream(128_000, 80)},
				{Stream: stream(128_000, 80)},
			},
		},
	}
	// 1 MB/s video for 80s plus two 16 kB/s audio streams for 80s
	want := uint64(1_000_000*80 + 2*16_000*80)
	assert.Equal(t, want, EstimateBytes(formats))
}

func TestEstimateBytesTruncatesPartialSeconds(t *testing.T) {
	s := types.VariantStream{
		Bandwidth: 8000,
		Segments: []types.Segment{
			{Duration: 2500 * time.Millisecond},
			{Duration: 2500 * time.Millisecond},
		},
	}
	// each segment contributes its whole seconds only
	assert.Equal(t, uint64(1000*4), s.EstimatedBytes())
}

func withStat(t *testing.T, fn func(path string) (Usage, error)) {
	t.Helper()
	orig := statPath
	statPath = fn
	t.Cleanup(func() { statPath = orig })
}

func TestCheckSeparateFilesystems(t *testing.T) {
	withStat(t, func(path string) (Usage, error) {
		if path == os.TempDir() {
			return Usage{Total: 100, Available: 30, Device: 1, HasDevice: true}, nil
		}
		return Usage{Total: 200, Available: 80, Device: 2, HasDevice: true}, nil
	})

	tmp, dst, err := Check(os.TempDir(), ".", 50, false)
	require.NoError(t, err)
	require.NotNil(t, tmp, "temp filesystem with 30 free must fall short of 50")
	assert.Equal(t, uint64(50), tmp.Required)
	assert.Nil(t, dst, "destination filesystem with 80 free holds 50")
}

func TestCheckSameFilesystemDoublesAvailable(t *testing.T) {
	withStat(t, func(path string) (Usage, error) {
		return Usage{Total: 100, Available: 30, Device: 7, HasDevice: true}, nil
	})

	// 30 available would fall short of 50, but temp and destination share
	// the filesystem, so the staged copy and the output never coexist at
	// full size and the effective space is 60
	tmp, dst, err := Check(os.TempDir(), ".", 50, false)
	require.NoError(t, err)
	assert.Nil(t, tmp)
	assert.Nil(t, dst)
}

func TestCheckHeuristicFallback(t *testing.T) {
	calls := 0
	withStat(t, func(path string) (Usage, error) {
		calls++
		// no device identifier; identical totals and near-identical
		// available space must be treated as the same filesystem
		return Usage{Total: 100, Available: 30 + uint64(calls)}, nil
	})

	tmp, dst, err := Check(os.TempDir(), ".", 50, false)
	require.NoError(t, err)
	assert.Nil(t, tmp)
	assert.Nil(t, dst)
}

func TestCheckSkipsSpecialDestination(t *testing.T) {
	withStat(t, func(path string) (Usage, error) {
		return Usage{Total: 100, Available: 10, Device: 1, HasDevice: true}, nil
	})

	tmp, dst, err := Check(os.TempDir(), "-", 50, true)
	require.NoError(t, err)
	require.NotNil(t, tmp)
	assert.Nil(t, dst, "special sinks are exempt from the destination check")
}

func TestFormatSize(t *testing.T) {
	assert.Equal(t, "500MB", FormatSize(500*1024*1024))
	assert.Equal(t, "1MB", FormatSize(1))
	assert.Equal(t, "1.50GB", FormatSize(1024*1024*1024+512*1024*1024))
}
