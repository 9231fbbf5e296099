package ffmpeg

import (
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/famomatic/segmux/internal/types"
)

// Artifact is a staged temporary file together with the stream metadata it
// will carry in the output container.
type Artifact struct {
	Path   string
	Locale types.Locale
	Title  string
}

// MuxJob describes everything the mux invocation needs. BuildCommand turns
// it into a Command without mutating it.
type MuxJob struct {
	Videos    []Artifact
	Audios    []Artifact
	Subtitles []Artifact
	Fonts     []string
	// ChaptersPath is an optional FFMETADATA input.
	ChaptersPath string

	DefaultSubtitle types.Locale
	ForceHardsub    bool
	OutputFormat    string
	Preset          Preset
	Threads         int

	// Locale remapping for the language tags written into the container.
	AudioLangMap    map[types.Locale]string
	SubtitleLangMap map[types.Locale]string

	// VStatsPath is the named pipe receiving frame status lines; empty
	// disables the side-channel.
	VStatsPath string
	Dest       string

	// WindowsPaths switches filter path escaping to Windows syntax. Left
	// false, the current platform decides.
	WindowsPaths bool
}

// Tag is one per-stream metadata assignment.
type Tag struct {
	Stream string // e.g. "s:v:0"
	Key    string
	Value  string
}

// Disposition marks a stream disposition such as default or forced.
type Disposition struct {
	Stream string
	Value  string
}

// Command is the fully resolved mux invocation, one explicit field per
// argument category. Args is its only serialization; nothing is ever
// removed from a Command after construction.
type Command struct {
	Flags         []string
	InputOpts     []string
	Inputs        []string
	Maps          []int
	MetadataInput int // input index carrying chapter metadata, -1 for none
	Attachments   []string
	Metadata      []Tag
	Threads       int
	Dispositions  []Disposition
	PixelFormat   string
	OutputArgs    []string
	Format        string
	Output        string
}

// Args serializes the command into the final argument vector in one
// deterministic pass.
func (c Command) Args() []string {
	args := append([]string{}, c.Flags...)
	args = append(args, c.InputOpts...)
	for _, input := range c.Inputs {
		args = append(args, "-i", input)
	}
	for _, m := range c.Maps {
		args = append(args, "-map", strconv.Itoa(m))
	}
	for _, attachment := range c.Attachments {
		args = append(args, "-attach", attachment)
	}
	for _, tag := range c.Metadata {
		args = append(args, "-metadata:"+tag.Stream, tag.Key+"="+tag.Value)
	}
	if c.MetadataInput >= 0 {
		args = append(args, "-map_metadata", strconv.Itoa(c.MetadataInput))
	}
	if c.Threads > 0 {
		args = append(args, "-threads", strconv.Itoa(c.Threads))
	}
	for _, d := range c.Dispositions {
		args = append(args, "-disposition:"+d.Stream, d.Value)
	}
	if c.PixelFormat != "" {
		args = append(args, "-pix_fmt", c.PixelFormat)
	}
	args = append(args, c.OutputArgs...)
	if c.Format != "" {
		args = append(args, "-f", c.Format)
	}
	return append(args, c.Output)
}

// softSubContainers support embedding subtitles as selectable tracks instead
// of burning them into the video stream.
var softSubContainers = map[string]bool{"mkv": true, "mov": true, "mp4": true}

// BuildCommand assembles the mux invocation: inputs and stream maps in
// video/audio/subtitle order, per-stream metadata tags, font attachments,
// chapter metadata, dispositions and the burn-in filter when the container
// cannot carry soft subtitles.
func BuildCommand(job MuxJob) Command {
	container := job.OutputFormat
	if container == "" {
		container = strings.TrimPrefix(filepath.Ext(job.Dest), ".")
	}
	softSubs := !job.ForceHardsub && softSubContainers[container]

	cmd := Command{
		Flags:         []string{"-y", "-hide_banner"},
		InputOpts:     append([]string(nil), job.Preset.InputOpts...),
		MetadataInput: -1,
		// the pixel format is forced because some source streams are
		// encoded in a way ffmpeg cannot re-encode otherwise
		PixelFormat: "yuv420p",
		Format:      job.OutputFormat,
		Output:      destArg(job.Dest, job.windows()),
	}
	if job.VStatsPath != "" {
		cmd.Flags = append(cmd.Flags, "-vstats_file", job.VStatsPath)
	}
	if !job.Preset.IsCustom() {
		cmd.Threads = job.Threads
	}

	for i, video := range job.Videos {
		cmd.Inputs = append(cmd.Inputs, video.Path)
		cmd.Maps = append(cmd.Maps, len(cmd.Inputs)-1)
		stream := "s:v:" + strconv.Itoa(i)
		cmd.Metadata = append(cmd.Metadata,
			Tag{Stream: stream, Key: "title", Value: video.Title},
			// blank language so metadata from the source track is not
			// carried over
			Tag{Stream: stream, Key: "language", Value: ""},
		)
	}
	for i, audio := range job.Audios {
		cmd.Inputs = append(cmd.Inputs, audio.Path)
		cmd.Maps = append(cmd.Maps, len(cmd.Inputs)-1)
		stream := "s:a:" + strconv.Itoa(i)
		cmd.Metadata = append(cmd.Metadata,
			Tag{Stream: stream, Key: "language", Value: mapLang(job.AudioLangMap, audio.Locale)},
			Tag{Stream: stream, Key: "title", Value: audio.Title},
		)
	}
	for i, font := range job.Fonts {
		cmd.Attachments = append(cmd.Attachments, font)
		cmd.Metadata = append(cmd.Metadata,
			Tag{Stream: "s:t:" + strconv.Itoa(i), Key: "mimetype", Value: "font/woff2"})
	}
	if softSubs {
		for i, sub := range job.Subtitles {
			cmd.Inputs = append(cmd.Inputs, sub.Path)
			cmd.Maps = append(cmd.Maps, len(cmd.Inputs)-1)
			stream := "s:s:" + strconv.Itoa(i)
			cmd.Metadata = append(cmd.Metadata,
				Tag{Stream: stream, Key: "language", Value: mapLang(job.SubtitleLangMap, sub.Locale)},
				Tag{Stream: stream, Key: "title", Value: sub.Title},
			)
		}
	}
	if job.ChaptersPath != "" {
		cmd.Inputs = append(cmd.Inputs, job.ChaptersPath)
		cmd.MetadataInput = len(cmd.Inputs) - 1
	}

	burnIn := false
	defaultIdx := -1
	if job.DefaultSubtitle != "" {
		for i, sub := range job.Subtitles {
			if sub.Locale == job.DefaultSubtitle {
				defaultIdx = i
				break
			}
		}
	}
	constrainedSubs := softSubs && (container == "mp4" || container == "mov") && defaultIdx >= 0
	if defaultIdx >= 0 {
		if softSubs {
			cmd.Dispositions = append(cmd.Dispositions,
				Disposition{Stream: "s:s:" + strconv.Itoa(defaultIdx), Value: "default"})
		} else {
			burnIn = true
		}
	}
	if softSubs {
		for i, sub := range job.Subtitles {
			if strings.Contains(sub.Title, "(CC)") {
				cmd.Dispositions = append(cmd.Dispositions,
					Disposition{Stream: "s:s:" + strconv.Itoa(i), Value: "forced"})
			}
		}
	}

	preset := job.Preset
	if constrainedSubs {
		preset.SubtitleCodec = "mov_text"
	}
	cmd.OutputArgs = preset.OutputArgs(burnIn, softSubs)
	if constrainedSubs {
		cmd.OutputArgs = append(cmd.OutputArgs, "-movflags", "faststart")
	}
	if burnIn {
		escaped := escapeFilterPath(job.Subtitles[defaultIdx].Path, job.windows())
		cmd.OutputArgs = append(cmd.OutputArgs, "-vf", "ass='"+escaped+"'")
	}
	return cmd
}

func (j MuxJob) windows() bool {
	return j.WindowsPaths || runtime.GOOS == "windows"
}

func mapLang(m map[types.Locale]string, locale types.Locale) string {
	if mapped, ok := m[locale]; ok {
		return mapped
	}
	return string(locale)
}

// escapeFilterPath escapes a subtitle path for use inside the ass video
// filter. ffmpeg treats backslashes and colons inside filter arguments as
// syntax, which collides with Windows absolute paths.
func escapeFilterPath(path string, windows bool) string {
	if !windows {
		return path
	}
	return strings.NewReplacer(`\`, `\\`, `:`, `\:`).Replace(path)
}

// destArg normalizes the output path argument. Bare relative filenames get
// an explicit current-directory prefix so the mux process cannot
// misinterpret them; the stdout sink passes through untouched.
func destArg(dest string, windows bool) string {
	if dest == "-" || windows {
		return dest
	}
	if dir := filepath.Dir(dest); dir == "." && !strings.HasPrefix(dest, "./") {
		return "./" + dest
	}
	return dest
}
