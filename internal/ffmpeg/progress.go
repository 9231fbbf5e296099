package ffmpeg

import (
	"bufio"
	"context"
	"io"
	"regexp"
	"strconv"

	"github.com/rs/zerolog"
	"github.com/schollz/progressbar/v3"
)

var frameRe = regexp.MustCompile(`frame=\s*(\d+)`)

// MonitorProgress reads the live vstats feed of a running mux process and
// drives the progress indicator against the precomputed total frame
// estimate. A malformed line stops parsing without failing the operation;
// cancelling ctx snaps the indicator to completion, which covers mux
// processes that finish before the final frame count is observed, and
// returns nil.
func MonitorProgress(ctx context.Context, r io.Reader, totalFrames int64, bar *progressbar.ProgressBar, log zerolog.Logger) error {
	lines := make(chan string)
	scanDone := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				scanDone <- nil
				return
			}
		}
		scanDone <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			finish(bar, totalFrames)
			log.Debug().Msgf("processed frame [%d/%d 100%%]", totalFrames, totalFrames)
			return nil
		case line := <-lines:
			m := frameRe.FindStringSubmatch(line)
			if m == nil {
				// anomalous status line; stop parsing, the process itself
				// is still awaited
				return nil
			}
			frame, err := strconv.ParseInt(m[1], 10, 64)
			if err != nil {
				return nil
			}
			if bar != nil {
				_ = bar.Set64(frame)
			}
			log.Debug().Msgf("processed frame [%d/%d %.2f%%]", frame, totalFrames,
				percent(frame, totalFrames))
		case err := <-scanDone:
			return err
		}
	}
}

func finish(bar *progressbar.ProgressBar, totalFrames int64) {
	if bar != nil {
		_ = bar.Set64(totalFrames)
		_ = bar.Finish()
	}
}

func percent(frame, total int64) float64 {
	if total == 0 {
		return 100
	}
	return float64(frame) / float64(total) * 100
}
