package downloader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/famomatic/segmux/internal/types"
)

const (
	// defaultAttemptTimeout bounds one fetch attempt, not the whole segment.
	defaultAttemptTimeout = 60 * time.Second
	// maxFetchRetries is the number of additional attempts after the first
	// failure. There is no backoff between attempts.
	maxFetchRetries = 5
)

// Fetcher downloads and decrypts single media segments with bounded retry.
type Fetcher struct {
	Client  *http.Client
	Limiter *ByteLimiter

	// AttemptTimeout overrides the per-attempt timeout. Zero means the
	// 60 second default.
	AttemptTimeout time.Duration
}

// Fetch retrieves one segment and returns its decrypted payload. Transport
// failures are retried up to maxFetchRetries additional times; a decryption
// failure after a successful fetch is fatal immediately.
func (f *Fetcher) Fetch(ctx context.Context, seg types.Segment) ([]byte, error) {
	timeout := f.AttemptTimeout
	if timeout <= 0 {
		timeout = defaultAttemptTimeout
	}
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}

	var (
		data    []byte
		lastErr error
	)
	for attempt := 0; ; attempt++ {
		var err error
		data, err = f.fetchOnce(ctx, client, seg.URL, timeout)
		if err == nil {
			break
		}
		lastErr = err
		if errors.Is(err, context.Canceled) || ctx.Err() != nil {
			return nil, err
		}
		if attempt == maxFetchRetries {
			return nil, &FetchError{Index: seg.Index, Attempts: attempt + 1, Err: lastErr}
		}
	}

	decrypted, err := decryptSegment(seg, data)
	if err != nil {
		return nil, &DecryptError{Index: seg.Index, Err: err}
	}
	return decrypted, nil
}

func (f *Fetcher) fetchOnce(ctx context.Context, client *http.Client, url string, timeout time.Duration) ([]byte, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("segment fetch failed: status=%d", resp.StatusCode)
	}
	return io.ReadAll(f.Limiter.Reader(attemptCtx, resp.Body))
}
