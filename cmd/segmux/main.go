package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/famomatic/segmux/client"
	"github.com/famomatic/segmux/internal/osfiles"
	"github.com/famomatic/segmux/internal/playlist"
	"github.com/famomatic/segmux/internal/types"
)

func main() {
	var (
		manifest   = flag.String("m", "", "Media playlist file (\"-\" for stdin)")
		base       = flag.String("base", "", "Base URL for relative segment URIs")
		bandwidth  = flag.Uint64("bandwidth", 0, "Nominal stream bitrate in bits per second")
		locale     = flag.String("locale", "en-US", "Stream locale tag")
		output     = flag.String("o", "output.mkv", "Output file (\"-\" for stdout)")
		threads    = flag.Int("threads", 0, "Parallel download lanes (0 = CPU count)")
		rate       = flag.Uint64("rate", 0, "Download rate limit in bytes per second (0 = unlimited)")
		hardsub    = flag.Bool("hardsub", false, "Burn the default subtitle into the video stream")
		fonts      = flag.Bool("fonts", false, "Attach referenced fonts to the output (mkv only)")
		defaultSub = flag.String("default-sub", "", "Locale of the subtitle track to mark as default")
		format     = flag.String("f", "", "Force output container format")
		verbose    = flag.Bool("v", false, "Verbose logging")
	)
	flag.Parse()

	if *manifest == "" {
		fmt.Println("Usage: segmux -m <playlist> [-base <url>] [-o <file>]")
		flag.PrintDefaults()
		os.Exit(1)
	}

	level := zerolog.InfoLevel
	if *verbose {
		level = zerolog.DebugLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()

	if err := run(log, options{
		manifest:   *manifest,
		base:       *base,
		bandwidth:  *bandwidth,
		locale:     types.Locale(*locale),
		output:     *output,
		threads:    *threads,
		rate:       *rate,
		hardsub:    *hardsub,
		fonts:      *fonts,
		defaultSub: types.Locale(*defaultSub),
		format:     *format,
	}); err != nil {
		log.Fatal().Err(err).Msg("download failed")
	}
}

type options struct {
	manifest   string
	base       string
	bandwidth  uint64
	locale     types.Locale
	output     string
	threads    int
	rate       uint64
	hardsub    bool
	fonts      bool
	defaultSub types.Locale
	format     string
}

func run(log zerolog.Logger, opts options) error {
	osfiles.SweepStale(24 * time.Hour)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	raw, err := readManifest(opts.manifest)
	if err != nil {
		return err
	}

	var baseURL *url.URL
	if opts.base != "" {
		baseURL, err = url.Parse(opts.base)
		if err != nil {
			return fmt.Errorf("parse base URL: %w", err)
		}
	}

	httpClient := http.DefaultClient
	stream, err := playlist.ParseVariant(raw, playlist.Params{
		Base:      baseURL,
		Bandwidth: opts.bandwidth,
		FetchKey: func(uri string) ([]byte, error) {
			resp, err := httpClient.Get(uri)
			if err != nil {
				return nil, err
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				return nil, fmt.Errorf("key request returned %s", resp.Status)
			}
			return io.ReadAll(resp.Body)
		},
	})
	if err != nil {
		return err
	}
	log.Info().Int("segments", len(stream.Segments)).Msg("parsed media playlist")

	d := client.New(client.Config{
		HTTPClient:      httpClient,
		RateLimit:       opts.rate,
		DefaultSubtitle: opts.defaultSub,
		OutputFormat:    opts.format,
		ForceHardsub:    opts.hardsub,
		DownloadFonts:   opts.fonts,
		Threads:         opts.threads,
		Logger:          log,
		ShowProgress:    opts.output != "-",
	})
	d.AddFormat(types.DownloadFormat{
		Video: types.LocalizedStream{Stream: stream, Locale: opts.locale},
	})
	return d.Download(ctx, opts.output)
}

func readManifest(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		resp, err := http.Get(path)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("playlist request returned %s", resp.Status)
		}
		return io.ReadAll(resp.Body)
	}
	return os.ReadFile(path)
}
