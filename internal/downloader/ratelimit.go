package downloader

import (
	"context"
	"io"

	"golang.org/x/time/rate"
)

// ByteLimiter throttles segment downloads to a global byte rate. One limiter
// is shared across all fetch lanes of a stream; admission is serialized by
// the underlying token bucket without blocking lane concurrency beyond the
// configured rate.
type ByteLimiter struct {
	limiter *rate.Limiter
}

// NewByteLimiter returns a limiter allowing bytesPerSec sustained throughput.
// A zero rate returns nil, meaning unlimited.
func NewByteLimiter(bytesPerSec uint64) *ByteLimiter {
	if bytesPerSec == 0 {
		return nil
	}
	return &ByteLimiter{limiter: rate.NewLimiter(rate.Limit(bytesPerSec), int(bytesPerSec))}
}

const limiterChunk = 32 * 1024

// Reader wraps r so reads wait for rate tokens. A nil limiter returns r
// unchanged.
func (b *ByteLimiter) Reader(ctx context.Context, r io.Reader) io.Reader {
	if b == nil {
		return r
	}
	return &limitedReader{ctx: ctx, r: r, limiter: b.limiter}
}

type limitedReader struct {
	ctx     context.Context
	r       io.Reader
	limiter *rate.Limiter
}

func (l *limitedReader) Read(p []byte) (int, error) {
	if len(p) > limiterChunk {
		p = p[:limiterChunk]
	}
	n, err := l.r.Read(p)
	if n > 0 {
		if waitErr := l.limiter.WaitN(l.ctx, n); waitErr != nil {
			return n, waitErr
		}
	}
	return n, err
}
