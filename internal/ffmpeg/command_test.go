package ffmpeg

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/famomatic/segmux/internal/types"
)

func argString(job MuxJob) string {
	return strings.Join(BuildCommand(job).Args(), " ")
}

func TestBuildCommandSoftSubs(t *testing.T) {
	job := MuxJob{
		Videos:    []Artifact{{Path: "/tmp/v.mp4", Locale: "ja-JP", Title: "Default"}},
		Audios:    []Artifact{{Path: "/tmp/a.m4a", Locale: "ja-JP", Title: "Japanese"}},
		Subtitles: []Artifact{{Path: "/tmp/s.ass", Locale: "en-US", Title: "English"}},
		Dest:      "/out/episode.mkv",
	}
	cmd := BuildCommand(job)

	assert.Equal(t, []string{"/tmp/v.mp4", "/tmp/a.m4a", "/tmp/s.ass"}, cmd.Inputs)
	assert.Equal(t, []int{0, 1, 2}, cmd.Maps)
	assert.Equal(t, -1, cmd.MetadataInput)
	assert.Equal(t, "yuv420p", cmd.PixelFormat)

	args := argString(job)
	assert.Contains(t, args, "-y -hide_banner")
	assert.Contains(t, args, "-map 0 -map 1 -map 2")
	assert.Contains(t, args, "-metadata:s:v:0 title=Default")
	assert.Contains(t, args, "-metadata:s:v:0 language=")
	assert.Contains(t, args, "-metadata:s:a:0 language=ja-JP")
	assert.Contains(t, args, "-metadata:s:s:0 language=en-US")
	assert.Contains(t, args, "-c:v copy -c:a copy -c:s copy")
	assert.True(t, strings.HasSuffix(args, "/out/episode.mkv"))
}

func TestBuildCommandDefaultSubtitleDisposition(t *testing.T) {
	job := MuxJob{
		Videos: []Artifact{{Path: "/tmp/v.mp4"}},
		Subtitles: []Artifact{
			{Path: "/tmp/s1.ass", Locale: "de-DE", Title: "German"},
			{Path: "/tmp/s2.ass", Locale: "en-US", Title: "English"},
		},
		DefaultSubtitle: "en-US",
		Dest:            "/out/episode.mkv",
	}
	assert.Contains(t, argString(job), "-disposition:s:s:1 default")
}

func TestBuildCommandClosedCaptionForced(t *testing.T) {
	job := MuxJob{
		Videos: []Artifact{{Path: "/tmp/v.mp4"}},
		Subtitles: []Artifact{
			{Path: "/tmp/s1.ass", Locale: "en-US", Title: "English"},
			{Path: "/tmp/s2.ass", Locale: "en-US", Title: "English (CC)"},
		},
		Dest: "/out/episode.mkv",
	}
	args := argString(job)
	assert.Contains(t, args, "-disposition:s:s:1 forced")
	assert.NotContains(t, args, "-disposition:s:s:0")
}

func TestBuildCommandHardsubBurnsIn(t *testing.T) {
	job := MuxJob{
		Videos:          []Artifact{{Path: "/tmp/v.mp4"}},
		Subtitles:       []Artifact{{Path: "/tmp/s.ass", Locale: "en-US", Title: "English"}},
		DefaultSubtitle: "en-US",
		ForceHardsub:    true,
		Dest:            "/out/episode.mkv",
	}
	cmd := BuildCommand(job)
	args := strings.Join(cmd.Args(), " ")

	assert.Contains(t, args, "-vf ass='/tmp/s.ass'")
	// burn-in forces a re-encode, so no copy codec flags and no subtitle input
	assert.NotContains(t, args, "copy")
	assert.NotContains(t, cmd.Inputs, "/tmp/s.ass")
	assert.NotContains(t, args, "-c:s")
}

func TestBuildCommandUnsupportedContainerBurnsIn(t *testing.T) {
	job := MuxJob{
		Videos:          []Artifact{{Path: "/tmp/v.mp4"}},
		Subtitles:       []Artifact{{Path: "/tmp/s.ass", Locale: "en-US", Title: "English"}},
		DefaultSubtitle: "en-US",
		Dest:            "/out/episode.ts",
	}
	assert.Contains(t, argString(job), "-vf ass=")
}

func TestBuildCommandMP4ConstrainedSubtitles(t *testing.T) {
	job := MuxJob{
		Videos:          []Artifact{{Path: "/tmp/v.mp4"}},
		Subtitles:       []Artifact{{Path: "/tmp/s.ass", Locale: "en-US", Title: "English"}},
		DefaultSubtitle: "en-US",
		Dest:            "/out/episode.mp4",
	}
	args := argString(job)
	assert.Contains(t, args, "-c:s mov_text")
	assert.Contains(t, args, "-movflags faststart")
}

func TestBuildCommandChaptersAndFonts(t *testing.T) {
	job := MuxJob{
		Videos:       []Artifact{{Path: "/tmp/v.mp4"}},
		Fonts:        []string{"/cache/arial.woff2"},
		ChaptersPath: "/tmp/chapters.txt",
		Dest:         "/out/episode.mkv",
	}
	cmd := BuildCommand(job)
	require.Equal(t, []string{"/tmp/v.mp4", "/tmp/chapters.txt"}, cmd.Inputs)
	assert.Equal(t, 1, cmd.MetadataInput)
	assert.Equal(t, []int{0}, cmd.Maps, "the chapter input is metadata, not a stream")

	args := strings.Join(cmd.Args(), " ")
	assert.Contains(t, args, "-attach /cache/arial.woff2")
	assert.Contains(t, args, "-metadata:s:t:0 mimetype=font/woff2")
	assert.Contains(t, args, "-map_metadata 1")
}

func TestBuildCommandVStatsAndThreads(t *testing.T) {
	job := MuxJob{
		Videos:     []Artifact{{Path: "/tmp/v.mp4"}},
		VStatsPath: "/tmp/fifo",
		Threads:    4,
		Dest:       "/out/episode.mkv",
	}
	args := argString(job)
	assert.Contains(t, args, "-vstats_file /tmp/fifo")
	assert.Contains(t, args, "-threads 4")
}

func TestBuildCommandCustomPresetSkipsThreads(t *testing.T) {
	job := MuxJob{
		Videos:  []Artifact{{Path: "/tmp/v.mp4"}},
		Preset:  Preset{Custom: []string{"-c:v", "libx265", "-crf", "20"}},
		Threads: 4,
		Dest:    "/out/episode.mkv",
	}
	args := argString(job)
	assert.NotContains(t, args, "-threads")
	assert.Contains(t, args, "-c:v libx265 -crf 20")
}

func TestBuildCommandLanguageRemap(t *testing.T) {
	job := MuxJob{
		Videos:          []Artifact{{Path: "/tmp/v.mp4"}},
		Audios:          []Artifact{{Path: "/tmp/a.m4a", Locale: "ja-JP"}},
		Subtitles:       []Artifact{{Path: "/tmp/s.ass", Locale: "en-US"}},
		AudioLangMap:    map[types.Locale]string{"ja-JP": "jpn"},
		SubtitleLangMap: map[types.Locale]string{"en-US": "eng"},
		Dest:            "/out/episode.mkv",
	}
	args := argString(job)
	assert.Contains(t, args, "-metadata:s:a:0 language=jpn")
	assert.Contains(t, args, "-metadata:s:s:0 language=eng")
}

func TestBuildCommandOutputFormatOverride(t *testing.T) {
	job := MuxJob{
		Videos:       []Artifact{{Path: "/tmp/v.mp4"}},
		OutputFormat: "matroska",
		Dest:         "-",
	}
	args := BuildCommand(job).Args()
	require.GreaterOrEqual(t, len(args), 3)
	assert.Equal(t, "-", args[len(args)-1])
	assert.Equal(t, []string{"-f", "matroska"}, args[len(args)-3:len(args)-1])
}

func TestDestArg(t *testing.T) {
	assert.Equal(t, "./episode.mkv", destArg("episode.mkv", false))
	assert.Equal(t, "./episode.mkv", destArg("./episode.mkv", false))
	assert.Equal(t, "/abs/episode.mkv", destArg("/abs/episode.mkv", false))
	assert.Equal(t, "-", destArg("-", false))
	assert.Equal(t, `C:\out\episode.mkv`, destArg(`C:\out\episode.mkv`, true))
}

func TestEscapeFilterPath(t *testing.T) {
	assert.Equal(t, "/tmp/s.ass", escapeFilterPath("/tmp/s.ass", false))
	assert.Equal(t, `C\:\\tmp\\s.ass`, escapeFilterPath(`C:\tmp\s.ass`, true))
}
