// Package client exposes the segmented download-and-mux pipeline: it turns
// remote, encrypted, chunked media streams into a single locally muxed
// output file.
package client

import (
	"net/http"
	"runtime"

	"github.com/famomatic/segmux/internal/downloader"
	"github.com/famomatic/segmux/internal/types"
)

// Downloader drives the pipeline for a set of requested formats:
// capacity preflight, parallel segment fetch with ordered reassembly,
// subtitle repair, font and chapter staging, and finally the supervised mux
// invocation.
type Downloader struct {
	config  Config
	client  *http.Client
	limiter *downloader.ByteLimiter
	formats []types.DownloadFormat
}

// New returns a Downloader with normalized configuration.
func New(cfg Config) *Downloader {
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = http.DefaultClient
	}
	if cfg.Threads <= 0 {
		cfg.Threads = runtime.NumCPU()
	}
	if cfg.FFmpegPath == "" {
		cfg.FFmpegPath = "ffmpeg"
	}
	return &Downloader{
		config:  cfg,
		client:  cfg.HTTPClient,
		limiter: downloader.NewByteLimiter(cfg.RateLimit),
	}
}

// AddFormat queues one renditions-bundle for download. Formats are muxed
// into the same container as separate stream groups, in the order added
// (subject to the configured locale sort).
func (d *Downloader) AddFormat(format types.DownloadFormat) {
	d.formats = append(d.formats, format)
}
