package downloader

import (
	"context"
	"io"
	"runtime"
	"sort"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
	"github.com/schollz/progressbar/v3"

	"github.com/famomatic/segmux/internal/types"
)

// laneFailure is the out-of-band marker a worker lane sends when it gives
// up; the consumer stops committing writes once it arrives.
const laneFailure = -1

type segmentPayload struct {
	index int
	data  []byte
}

// StreamDownload drives the parallel fetch and strictly ordered reassembly
// of one variant stream. Segments are statically partitioned across worker
// lanes by index modulo the lane count; a single consumer owns the sink and
// commits payloads in ascending index order regardless of arrival order.
type StreamDownload struct {
	Fetcher *Fetcher
	// Lanes is the worker count. Zero means runtime.NumCPU().
	Lanes int
	Log   zerolog.Logger
	// Bar, when non-nil, tracks committed bytes against the estimated
	// stream size, re-estimating as real segment sizes arrive.
	Bar *progressbar.ProgressBar
}

// Run downloads all segments of stream and writes them to sink in index
// order. It returns the first lane error, a *ReassemblyError when segments
// are permanently missing, or nil. A stream with zero segments yields an
// empty sink.
func (d *StreamDownload) Run(ctx context.Context, stream types.VariantStream, sink io.Writer) error {
	segments := stream.Segments
	total := len(segments)
	if total == 0 {
		return nil
	}

	lanes := d.Lanes
	if lanes <= 0 {
		lanes = runtime.NumCPU()
	}
	if lanes > total {
		lanes = total
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make(chan segmentPayload, lanes)
	errCh := make(chan error, lanes)
	var wg sync.WaitGroup

	for lane := 0; lane < lanes; lane++ {
		wg.Add(1)
		go func(lane int) {
			defer wg.Done()
			for idx := lane; idx < total; idx += lanes {
				data, err := d.Fetcher.Fetch(ctx, segments[idx])
				if err != nil {
					errCh <- err
					select {
					case results <- segmentPayload{index: laneFailure}:
					case <-ctx.Done():
					}
					return
				}
				select {
				case results <- segmentPayload{index: idx, data: data}:
				case <-ctx.Done():
					return
				}
			}
		}(lane)
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	// The consumer is the only writer to the sink. Out-of-order arrivals are
	// parked in buffered until the cursor reaches them.
	cursor := 0
	buffered := make(map[int][]byte)
	committed := 0
	failed := false

	for payload := range results {
		if payload.index == laneFailure {
			failed = true
			continue
		}
		if failed {
			// A lane already reported failure; drain remaining arrivals so
			// the other lanes can terminate, but discard their output.
			continue
		}

		d.adjustEstimate(stream, segments[payload.index], len(payload.data))
		committed++
		d.Log.Debug().
			Int("segment", payload.index).
			Str("size", humanize.IBytes(uint64(len(payload.data)))).
			Msgf("downloaded and decrypted segment [%d/%d %.2f%%]", committed, total, float64(committed)/float64(total)*100)

		if payload.index == cursor {
			if _, err := sink.Write(payload.data); err != nil {
				cancel()
				drain(results)
				wg.Wait()
				return err
			}
			cursor++
			if err := d.flush(sink, buffered, &cursor); err != nil {
				cancel()
				drain(results)
				wg.Wait()
				return err
			}
		} else {
			buffered[payload.index] = payload.data
		}
	}
	wg.Wait()

	// The first lane error wins; the remaining lanes were drained above.
	select {
	case err := <-errCh:
		return err
	default:
	}

	if err := d.flush(sink, buffered, &cursor); err != nil {
		return err
	}
	if len(buffered) > 0 {
		return &ReassemblyError{Missing: missingIndices(buffered, cursor)}
	}
	return nil
}

func (d *StreamDownload) flush(sink io.Writer, buffered map[int][]byte, cursor *int) error {
	for {
		data, ok := buffered[*cursor]
		if !ok {
			return nil
		}
		delete(buffered, *cursor)
		if _, err := sink.Write(data); err != nil {
			return err
		}
		*cursor++
	}
}

// adjustEstimate corrects the progress total once a segment's real size is
// known, replacing its bandwidth-derived estimate.
func (d *StreamDownload) adjustEstimate(stream types.VariantStream, seg types.Segment, actual int) {
	if d.Bar == nil {
		return
	}
	estimated := int64(stream.Bandwidth/8) * int64(seg.Duration.Seconds())
	d.Bar.ChangeMax64(d.Bar.GetMax64() - estimated + int64(actual))
	_ = d.Bar.Add(actual)
}

func missingIndices(buffered map[int][]byte, cursor int) []int {
	highest := cursor
	for idx := range buffered {
		if idx > highest {
			highest = idx
		}
	}
	var missing []int
	for idx := cursor; idx <= highest; idx++ {
		if _, ok := buffered[idx]; !ok {
			missing = append(missing, idx)
		}
	}
	sort.Ints(missing)
	return missing
}

func drain(results <-chan segmentPayload) {
	for range results {
	}
}
