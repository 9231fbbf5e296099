package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"time"
)

var (
	durationRe = regexp.MustCompile(`Duration:\s(\d+):(\d+):(\d+)\.(\d+),`)
	fpsRe      = regexp.MustCompile(`([\d/.]+)\sfps`)
)

// Stats describes a staged video artifact.
type Stats struct {
	Duration time.Duration
	FPS      float64
}

// Probe extracts duration and frame rate of a media file from the banner
// ffmpeg prints when invoked without an output.
func Probe(ctx context.Context, ffmpegPath, path string) (Stats, error) {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	cmd := exec.CommandContext(ctx, ffmpegPath, "-y", "-hide_banner", "-i", path)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	// ffmpeg exits nonzero without an output file; the banner on stderr is
	// all we want
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return Stats{}, err
		}
	}
	return parseStats(stderr.String())
}

func parseStats(output string) (Stats, error) {
	duration := durationRe.FindStringSubmatch(output)
	if duration == nil {
		return Stats{}, fmt.Errorf("failed to get video length: %s", output)
	}
	fps := fpsRe.FindStringSubmatch(output)
	if fps == nil {
		return Stats{}, fmt.Errorf("failed to get video fps: %s", output)
	}

	h, _ := strconv.Atoi(duration[1])
	m, _ := strconv.Atoi(duration[2])
	s, _ := strconv.Atoi(duration[3])
	frac := duration[4]
	if len(frac) > 9 {
		frac = frac[:9]
	}
	nanos, _ := strconv.Atoi(frac + zeros(9-len(frac)))

	rate, err := parseFPS(fps[1])
	if err != nil {
		return Stats{}, err
	}
	return Stats{
		Duration: time.Duration(h)*time.Hour + time.Duration(m)*time.Minute +
			time.Duration(s)*time.Second + time.Duration(nanos),
		FPS: rate,
	}, nil
}

// parseFPS accepts both plain ("23.98") and rational ("24000/1001") rates.
func parseFPS(raw string) (float64, error) {
	if num, den, ok := splitRational(raw); ok {
		if den == 0 {
			return 0, fmt.Errorf("invalid fps %q", raw)
		}
		return num / den, nil
	}
	return strconv.ParseFloat(raw, 64)
}

func splitRational(raw string) (num, den float64, ok bool) {
	for i := 0; i < len(raw); i++ {
		if raw[i] == '/' {
			n, err1 := strconv.ParseFloat(raw[:i], 64)
			d, err2 := strconv.ParseFloat(raw[i+1:], 64)
			if err1 != nil || err2 != nil {
				return 0, 0, false
			}
			return n, d, true
		}
	}
	return 0, 0, false
}

func zeros(n int) string {
	return "000000000"[:n]
}
