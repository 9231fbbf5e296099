package ffmpeg

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const probeBanner = `Input #0, mov,mp4,m4a,3gp,3g2,mj2, from '/tmp/segmux-x.mp4':
  Duration: 00:23:40.05, start: 0.000000, bitrate: 7991 kb/s
  Stream #0:0(und): Video: h264 (High), yuv420p(tv, bt709), 1920x1080, 23.98 fps, 23.98 tbr, 90k tbn
  Stream #0:1(und): Audio: aac (LC), 44100 Hz, stereo, fltp, 127 kb/s
At least one output file must be specified
`

func TestParseStats(t *testing.T) {
	stats, err := parseStats(probeBanner)
	require.NoError(t, err)
	assert.Equal(t, 23*time.Minute+40*time.Second+50*time.Millisecond, stats.Duration)
	assert.InDelta(t, 23.98, stats.FPS, 0.001)
}

func TestParseStatsRationalFPS(t *testing.T) {
	banner := "Duration: 00:01:00.00, start: 0\n1920x1080, 24000/1001 fps\n"
	stats, err := parseStats(banner)
	require.NoError(t, err)
	assert.InDelta(t, 23.976, stats.FPS, 0.001)
}

func TestParseStatsMissingDuration(t *testing.T) {
	_, err := parseStats("no banner here")
	assert.ErrorContains(t, err, "video length")
}

func TestParseStatsMissingFPS(t *testing.T) {
	_, err := parseStats("Duration: 00:01:00.00, start: 0\naudio only\n")
	assert.ErrorContains(t, err, "fps")
}
