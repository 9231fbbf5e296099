package client

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/famomatic/segmux/internal/ffmpeg"
	"github.com/famomatic/segmux/internal/types"
)

// Config holds configuration for the download pipeline.
type Config struct {
	// HTTPClient is the client used for segment, subtitle and font
	// requests. If nil, http.DefaultClient is used.
	HTTPClient *http.Client

	// RateLimit caps segment download throughput in bytes per second
	// across all worker lanes. Zero means unlimited.
	RateLimit uint64

	// FFmpegPath overrides the mux binary. If empty, "ffmpeg" is resolved
	// from PATH.
	FFmpegPath string

	// Preset selects the output codec configuration. The zero value
	// stream-copies everything.
	Preset ffmpeg.Preset

	// DefaultSubtitle marks the subtitle track with this locale as default,
	// or burns it in when the container cannot embed subtitles.
	DefaultSubtitle types.Locale

	// OutputFormat forces the container format instead of deriving it from
	// the destination extension.
	OutputFormat string

	// AudioSort orders formats and their audio tracks by locale. Empty
	// keeps the caller-provided order.
	AudioSort []types.Locale

	// SubtitleSort orders subtitle tracks by locale. At equal locale,
	// regular tracks sort before closed captions.
	SubtitleSort []types.Locale

	// ForceHardsub burns the default subtitle into the video stream even
	// when the container supports soft subtitles.
	ForceHardsub bool

	// DownloadFonts attaches the fonts referenced by subtitle tracks to
	// the output container (mkv only).
	DownloadFonts bool

	// NoClosedCaption skips closed-caption subtitle tracks entirely.
	NoClosedCaption bool

	// Threads is the worker lane count per stream download. Zero means the
	// available CPU count.
	Threads int

	// FFmpegThreads limits the mux process thread count. Zero leaves the
	// decision to ffmpeg.
	FFmpegThreads int

	// AudioLocaleOutputMap rewrites audio language tags in the output
	// container, keyed by track locale.
	AudioLocaleOutputMap map[types.Locale]string

	// SubtitleLocaleOutputMap rewrites subtitle language tags in the
	// output container, keyed by track locale.
	SubtitleLocaleOutputMap map[types.Locale]string

	// FontBaseURL overrides the remote font asset endpoint.
	FontBaseURL string

	// Logger receives pipeline diagnostics. The zero value discards them.
	Logger zerolog.Logger

	// ShowProgress renders terminal progress bars for downloads and the
	// mux step.
	ShowProgress bool
}
