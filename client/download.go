package client

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/famomatic/segmux/internal/chapters"
	"github.com/famomatic/segmux/internal/diskspace"
	"github.com/famomatic/segmux/internal/downloader"
	"github.com/famomatic/segmux/internal/ffmpeg"
	"github.com/famomatic/segmux/internal/osfiles"
	"github.com/famomatic/segmux/internal/subtitle"
	"github.com/famomatic/segmux/internal/types"
)

// Download runs the full pipeline for all added formats and writes the
// muxed result to dst. dst may be a regular path (parent directories are
// created if absent) or "-" for standard output. Any fatal error during one
// format aborts the whole operation; temporary artifacts are removed on
// every exit path.
func (d *Downloader) Download(ctx context.Context, dst string) (err error) {
	if len(d.formats) == 0 {
		return ErrNoFormats
	}

	d.preflight(dst)
	d.sortFormats()

	var tempPaths []string
	defer func() {
		for _, path := range tempPaths {
			_ = os.Remove(path)
		}
	}()
	stage := func(path string) {
		tempPaths = append(tempPaths, path)
	}

	var (
		videos, audios, subtitles []ffmpeg.Artifact
		chapterEvents             []chapters.Event
		maxLen                    time.Duration
		maxFrames                 float64
	)

	for i, format := range d.formats {
		videoPath, err := d.stageStream(ctx, format.Video.Stream, ".mp4",
			fmt.Sprintf("Downloading video #%d", i+1))
		if err != nil {
			return err
		}
		stage(videoPath)

		for _, audio := range format.Audios {
			audioPath, err := d.stageStream(ctx, audio.Stream, ".m4a",
				fmt.Sprintf("Downloading %s audio", audio.Locale))
			if err != nil {
				return err
			}
			stage(audioPath)
			audios = append(audios, ffmpeg.Artifact{
				Path:   audioPath,
				Locale: audio.Locale,
				Title:  trackTitle(audio.Locale.Human(), false, i),
			})
		}

		stats, err := ffmpeg.Probe(ctx, d.config.FFmpegPath, videoPath)
		if err != nil {
			return err
		}
		if stats.Duration > maxLen {
			maxLen = stats.Duration
		}
		if frames := stats.Duration.Seconds() * stats.FPS; frames > maxFrames {
			maxFrames = frames
		}

		for _, sub := range format.Subtitles {
			if !sub.NotCC && d.config.NoClosedCaption {
				continue
			}
			subPath, err := stageSubtitle(sub.Track, stats.Duration)
			if err != nil {
				return err
			}
			stage(subPath)
			subtitles = append(subtitles, ffmpeg.Artifact{
				Path:   subPath,
				Locale: sub.Track.Locale,
				Title:  trackTitle(sub.Track.Locale.Human(), !sub.NotCC, i),
			})
			d.config.Logger.Debug().
				Str("locale", string(sub.Track.Locale)).
				Bool("cc", !sub.NotCC).
				Msg("downloaded subtitles")
		}

		videos = append(videos, ffmpeg.Artifact{
			Path:   videoPath,
			Locale: format.Video.Locale,
			Title:  videoTitle(i, len(d.formats)),
		})

		if format.SkipEvents != nil {
			chapterEvents = chapters.FromSkipEvents(format.SkipEvents)
		}
	}

	chaptersPath := ""
	if chapterEvents != nil {
		path, err := stageChapters(chapterEvents, maxLen)
		if err != nil {
			return err
		}
		stage(path)
		chaptersPath = path
	}

	var fonts []string
	if d.config.DownloadFonts && !d.config.ForceHardsub && filepath.Ext(dst) == ".mkv" {
		fonts, err = d.stageFonts(ctx, subtitles)
		if err != nil {
			return err
		}
	}

	fifoPath := ""
	if path, err := osfiles.NamedPipe(); err != nil {
		d.config.Logger.Debug().Err(err).Msg("mux status side-channel unavailable")
	} else {
		fifoPath = path
		stage(path)
	}

	job := ffmpeg.MuxJob{
		Videos:          videos,
		Audios:          audios,
		Subtitles:       subtitles,
		Fonts:           fonts,
		ChaptersPath:    chaptersPath,
		DefaultSubtitle: d.config.DefaultSubtitle,
		ForceHardsub:    d.config.ForceHardsub,
		OutputFormat:    d.config.OutputFormat,
		Preset:          d.config.Preset,
		Threads:         d.config.FFmpegThreads,
		AudioLangMap:    d.config.AudioLocaleOutputMap,
		SubtitleLangMap: d.config.SubtitleLocaleOutputMap,
		VStatsPath:      fifoPath,
		Dest:            dst,
	}
	return d.mux(ctx, job, int64(maxFrames))
}

// mux spawns the external mux process and supervises it together with the
// progress monitor until both finish.
func (d *Downloader) mux(ctx context.Context, job ffmpeg.MuxJob, totalFrames int64) error {
	args := ffmpeg.BuildCommand(job).Args()
	d.config.Logger.Debug().Msgf("%s %s", d.config.FFmpegPath, strings.Join(args, " "))

	if job.Dest != "-" {
		if dir := filepath.Dir(job.Dest); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return err
			}
		}
	}

	cmd := exec.CommandContext(ctx, d.config.FFmpegPath, args...)
	if job.Dest == "-" {
		cmd.Stdout = os.Stdout
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return err
	}

	monitorCtx, cancelMonitor := context.WithCancel(ctx)
	defer cancelMonitor()

	monitorDone := make(chan error, 1)
	if job.VStatsPath == "" {
		monitorDone <- nil
	} else {
		var bar *progressbar.ProgressBar
		if d.config.ShowProgress {
			bar = progressbar.NewOptions64(totalFrames,
				progressbar.OptionSetDescription("Generating output file"),
				progressbar.OptionSetPredictTime(false))
		}
		go func() {
			pipe, err := osfiles.OpenPipeReader(job.VStatsPath)
			if err != nil {
				monitorDone <- nil
				return
			}
			defer pipe.Close()
			monitorDone <- ffmpeg.MonitorProgress(monitorCtx, pipe, totalFrames, bar, d.config.Logger)
		}()
	}

	if err := cmd.Wait(); err != nil {
		cancelMonitor()
		<-monitorDone
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &ProcessError{Output: stderr.String()}
	}
	cancelMonitor()
	return <-monitorDone
}

// stageStream downloads one variant stream into a staged temp artifact.
func (d *Downloader) stageStream(ctx context.Context, stream types.VariantStream, ext, description string) (string, error) {
	file, err := osfiles.TempFile(ext)
	if err != nil {
		return "", err
	}

	var bar *progressbar.ProgressBar
	if d.config.ShowProgress {
		bar = progressbar.DefaultBytes(int64(stream.EstimatedBytes()), description)
	}
	download := &downloader.StreamDownload{
		Fetcher: &downloader.Fetcher{Client: d.client, Limiter: d.limiter},
		Lanes:   d.config.Threads,
		Log:     d.config.Logger,
		Bar:     bar,
	}

	runErr := download.Run(ctx, stream, file)
	if closeErr := file.Close(); runErr == nil {
		runErr = closeErr
	}
	if runErr != nil {
		_ = os.Remove(file.Name())
		return "", runErr
	}
	return file.Name(), nil
}

func stageSubtitle(track types.SubtitleTrack, maxLen time.Duration) (string, error) {
	file, err := osfiles.TempFile(".ass")
	if err != nil {
		return "", err
	}
	_, writeErr := file.Write(subtitle.Repair(track.Data, maxLen))
	if closeErr := file.Close(); writeErr == nil {
		writeErr = closeErr
	}
	if writeErr != nil {
		_ = os.Remove(file.Name())
		return "", writeErr
	}
	return file.Name(), nil
}

func stageChapters(events []chapters.Event, videoLen time.Duration) (string, error) {
	file, err := osfiles.TempFile(".chapter")
	if err != nil {
		return "", err
	}
	writeErr := chapters.Write(file, events, uint32(videoLen/time.Second))
	if closeErr := file.Close(); writeErr == nil {
		writeErr = closeErr
	}
	if writeErr != nil {
		_ = os.Remove(file.Name())
		return "", writeErr
	}
	return file.Name(), nil
}

// stageFonts scans the repaired subtitle artifacts for referenced fonts and
// resolves them through the cached catalog. Fonts shared across tracks are
// resolved once.
func (d *Downloader) stageFonts(ctx context.Context, subtitles []ffmpeg.Artifact) ([]string, error) {
	cacheDir, err := osfiles.FontCacheDir()
	if err != nil {
		return nil, err
	}
	resolver := &subtitle.Resolver{
		Client:   d.client,
		BaseURL:  d.config.FontBaseURL,
		CacheDir: cacheDir,
		Log:      d.config.Logger,
	}

	seen := make(map[string]struct{})
	var names []string
	for _, artifact := range subtitles {
		doc, err := os.ReadFile(artifact.Path)
		if err != nil {
			return nil, err
		}
		for _, name := range subtitle.ScanFonts(doc) {
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			names = append(names, name)
		}
	}

	var fonts []string
	for _, name := range names {
		path, cached, err := resolver.Resolve(ctx, name)
		if err != nil {
			return nil, err
		}
		if path == "" {
			continue
		}
		d.config.Logger.Debug().Str("font", name).Bool("cached", cached).Msg("resolved font")
		fonts = append(fonts, path)
	}
	return fonts, nil
}

// preflight warns, without aborting, when the temp or destination
// filesystem may not hold the estimated download size.
func (d *Downloader) preflight(dst string) {
	required := diskspace.EstimateBytes(d.formats)
	skipDst := dst == "-" || osfiles.IsSpecialFile(dst)

	tmpShort, dstShort, err := diskspace.Check(os.TempDir(), dst, required, skipDst)
	if err != nil {
		d.config.Logger.Debug().Err(err).Msg("disk space check failed")
		return
	}
	if tmpShort != nil {
		d.config.Logger.Warn().Msgf(
			"You may not have enough disk space to store temporary files. The temp directory (%s) should have at least %s free space",
			tmpShort.Path, diskspace.FormatSize(tmpShort.Required))
	}
	if dstShort != nil {
		d.config.Logger.Warn().Msgf(
			"You may not have enough disk space to store the output file. The directory %s should have at least %s free space",
			dstShort.Path, diskspace.FormatSize(dstShort.Required))
	}
}

// sortFormats applies the configured locale orders: formats by their video
// locale, audio tracks per format, and subtitle tracks with non-CC tracks
// winning ties at equal locale.
func (d *Downloader) sortFormats() {
	if len(d.config.AudioSort) > 0 {
		stableSortBy(d.formats, func(a, b types.DownloadFormat) bool {
			return localePos(d.config.AudioSort, a.Video.Locale) < localePos(d.config.AudioSort, b.Video.Locale)
		})
		for i := range d.formats {
			stableSortBy(d.formats[i].Audios, func(a, b types.LocalizedStream) bool {
				return localePos(d.config.AudioSort, a.Locale) < localePos(d.config.AudioSort, b.Locale)
			})
		}
	}
	if len(d.config.SubtitleSort) > 0 {
		for i := range d.formats {
			stableSortBy(d.formats[i].Subtitles, func(a, b types.FormatSubtitle) bool {
				apos := localePos(d.config.SubtitleSort, a.Track.Locale)
				bpos := localePos(d.config.SubtitleSort, b.Track.Locale)
				if apos != bpos {
					return apos < bpos
				}
				return a.NotCC && !b.NotCC
			})
		}
	}
}

func stableSortBy[T any](items []T, less func(a, b T) bool) {
	sort.SliceStable(items, func(i, j int) bool { return less(items[i], items[j]) })
}

func localePos(order []types.Locale, locale types.Locale) int {
	for i, l := range order {
		if l == locale {
			return i
		}
	}
	return -1
}

func videoTitle(index, total int) string {
	if total == 1 {
		return "Default"
	}
	return fmt.Sprintf("#%d", index+1)
}

// trackTitle renders the display title of an audio or subtitle track.
// Tracks of secondary formats carry a video reference suffix.
func trackTitle(human string, cc bool, formatIndex int) string {
	title := human
	if cc {
		title += " (CC)"
	}
	if formatIndex != 0 {
		title += fmt.Sprintf(" [Video: #%d]", formatIndex+1)
	}
	return title
}
