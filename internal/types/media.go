package types

import "time"

// Segment is one fixed-duration chunk of a media stream, fetched
// independently. Key and IV hold the AES-128-CBC material delivered by the
// catalog service; a nil Key marks the segment as cleartext.
type Segment struct {
	Index    int
	URL      string
	Key      []byte
	IV       []byte
	Duration time.Duration
}

// VariantStream is one quality/language rendition of video or audio,
// composed of ordered segments. Segment indices are contiguous 0..N-1 and
// define the only valid output order.
type VariantStream struct {
	// Bandwidth is the nominal stream bitrate in bits per second.
	Bandwidth uint64
	Segments  []Segment
}

// EstimatedBytes returns the expected on-disk size of the fully assembled
// stream, derived from the nominal bandwidth and the segment durations.
func (v VariantStream) EstimatedBytes() uint64 {
	var seconds uint64
	for _, s := range v.Segments {
		seconds += uint64(s.Duration / time.Second)
	}
	return (v.Bandwidth / 8) * seconds
}

// SubtitleTrack is a raw ASS subtitle document plus its locale.
type SubtitleTrack struct {
	Locale Locale
	Data   []byte
}

// SkipEvent is a named time range inside an episode, in whole seconds.
type SkipEvent struct {
	Start uint32
	End   uint32
}

// SkipEvents carries the optional skippable sections of an episode. Any
// subset may be present.
type SkipEvents struct {
	Recap   *SkipEvent
	Intro   *SkipEvent
	Credits *SkipEvent
	Preview *SkipEvent
}

// LocalizedStream pairs a variant stream with the locale it renders.
type LocalizedStream struct {
	Stream VariantStream
	Locale Locale
}

// FormatSubtitle is a subtitle track within a DownloadFormat. NotCC is false
// for closed-caption variants.
type FormatSubtitle struct {
	Track SubtitleTrack
	NotCC bool
}

// DownloadFormat is one complete renditions-bundle to be muxed into one
// output track group: a video stream, its audio streams, subtitle tracks and
// skip-event metadata. A format with no audios or subtitles is valid.
type DownloadFormat struct {
	Video      LocalizedStream
	Audios     []LocalizedStream
	Subtitles  []FormatSubtitle
	SkipEvents *SkipEvents
}
