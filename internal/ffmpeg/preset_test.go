package ffmpeg

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPresetZeroValueCopiesEverything(t *testing.T) {
	var p Preset
	assert.Equal(t, []string{"-c:v", "copy", "-c:a", "copy", "-c:s", "copy"}, p.OutputArgs(false, true))
	assert.Equal(t, []string{"-c:v", "copy", "-c:a", "copy"}, p.OutputArgs(false, false))
}

func TestPresetBurnInDropsCopyFlags(t *testing.T) {
	p := Preset{AudioCodec: "aac"}
	// video copy is dropped under burn-in, the explicit audio codec survives
	assert.Equal(t, []string{"-c:a", "aac"}, p.OutputArgs(true, false))
}

func TestPresetExtraArgs(t *testing.T) {
	p := Preset{VideoCodec: "libx264", Extra: []string{"-crf", "18"}}
	assert.Equal(t, []string{"-c:v", "libx264", "-c:a", "copy", "-crf", "18"}, p.OutputArgs(false, false))
}

func TestPresetCustomPassthrough(t *testing.T) {
	p := Preset{Custom: []string{"-c:v", "libx265", "-preset", "slow"}}
	assert.True(t, p.IsCustom())
	assert.Equal(t, p.Custom, p.OutputArgs(false, true))
}

func TestPresetCustomBurnInStripsCopy(t *testing.T) {
	p := Preset{Custom: []string{"-c:v", "copy", "-c:a", "aac", "-crf", "20"}}
	assert.Equal(t, []string{"-c:a", "aac", "-crf", "20"}, p.OutputArgs(true, false))
}
