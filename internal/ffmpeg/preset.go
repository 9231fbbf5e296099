// Package ffmpeg builds and supervises the external mux process: typed
// argument construction, stream probing, and live progress monitoring over
// the vstats side-channel.
package ffmpeg

import "strings"

// Preset selects the codec configuration of the mux output. The zero value
// stream-copies everything.
type Preset struct {
	// VideoCodec/AudioCodec/SubtitleCodec are ffmpeg codec names; empty
	// means "copy".
	VideoCodec    string
	AudioCodec    string
	SubtitleCodec string
	// InputOpts are arguments placed before the inputs (hardware
	// acceleration and the like).
	InputOpts []string
	// Extra output arguments appended after the codec flags.
	Extra []string
	// Custom, when set, replaces all generated output arguments.
	Custom []string
}

// IsCustom reports whether the preset bypasses generated codec flags.
func (p Preset) IsCustom() bool { return len(p.Custom) > 0 }

// OutputArgs serializes the preset. When burnIn is set, stream-copy codec
// flags for video and audio are never emitted: copying is incompatible with
// the subtitle burn-in filter, which forces a re-encode. softSubs controls
// whether a subtitle codec flag makes sense at all.
func (p Preset) OutputArgs(burnIn, softSubs bool) []string {
	if p.IsCustom() {
		if !burnIn {
			return append([]string(nil), p.Custom...)
		}
		// custom presets are caller-owned except for the copy/burn-in
		// conflict, which would make ffmpeg fail outright
		return stripCopyCodecs(p.Custom)
	}

	var args []string
	video := codecOrCopy(p.VideoCodec)
	audio := codecOrCopy(p.AudioCodec)
	if !burnIn || video != "copy" {
		args = append(args, "-c:v", video)
	}
	if !burnIn || audio != "copy" {
		args = append(args, "-c:a", audio)
	}
	if softSubs {
		args = append(args, "-c:s", codecOrCopy(p.SubtitleCodec))
	}
	return append(args, p.Extra...)
}

func codecOrCopy(codec string) string {
	if codec == "" {
		return "copy"
	}
	return codec
}

func stripCopyCodecs(custom []string) []string {
	var args []string
	for i := 0; i < len(custom); i++ {
		if i+1 < len(custom) && custom[i+1] == "copy" &&
			(strings.HasPrefix(custom[i], "-c:v") || strings.HasPrefix(custom[i], "-c:a")) {
			i++
			continue
		}
		args = append(args, custom[i])
	}
	return args
}
