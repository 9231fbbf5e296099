// Package chapters converts skip-event metadata into an FFMETADATA chapter
// stream consumable by the mux process.
package chapters

import (
	"fmt"
	"io"
	"sort"

	"github.com/famomatic/segmux/internal/types"
)

// fillerGap is the minimum gap between chapters that gets its own filler
// "Episode" chapter.
const fillerGap = 10

// Event is one chapter-producing time range, in whole seconds.
type Event struct {
	Title string
	Start uint32
	End   uint32
}

// FromSkipEvents flattens the optional skip events into chapter events.
func FromSkipEvents(events *types.SkipEvents) []Event {
	if events == nil {
		return nil
	}
	var out []Event
	add := func(title string, e *types.SkipEvent) {
		if e != nil {
			out = append(out, Event{Title: title, Start: e.Start, End: e.End})
		}
	}
	add("Recap", events.Recap)
	add("Intro", events.Intro)
	add("Credits", events.Credits)
	add("Preview", events.Preview)
	return out
}

// Write emits an FFMETADATA1 chapter stream for the given events. Events are
// sorted by start time; any gap larger than fillerGap seconds, before an
// event or after the last one up to videoLen, is filled with an "Episode"
// chapter.
func Write(w io.Writer, events []Event, videoLen uint32) error {
	sorted := make([]Event, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(a, b int) bool { return sorted[a].Start < sorted[b].Start })

	if _, err := fmt.Fprintln(w, ";FFMETADATA1"); err != nil {
		return err
	}

	var lastEnd uint32
	for _, event := range sorted {
		if int64(event.Start)-int64(lastEnd) > fillerGap {
			if err := writeChapter(w, "Episode", lastEnd, event.Start); err != nil {
				return err
			}
		}
		if err := writeChapter(w, event.Title, event.Start, event.End); err != nil {
			return err
		}
		lastEnd = event.End
	}

	if int64(videoLen)-int64(lastEnd) > fillerGap {
		if err := writeChapter(w, "Episode", lastEnd, videoLen); err != nil {
			return err
		}
	}
	return nil
}

func writeChapter(w io.Writer, title string, start, end uint32) error {
	_, err := fmt.Fprintf(w, "[CHAPTER]\nTIMEBASE=1/1\nSTART=%d\nEND=%d\ntitle=%s\n", start, end, title)
	return err
}
