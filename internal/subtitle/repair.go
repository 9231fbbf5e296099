// Package subtitle repairs ASS subtitle documents the way the upstream
// service should have delivered them, and resolves the fonts they reference.
package subtitle

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

var dialogueRe = regexp.MustCompile(`^Dialogue:\s(\d+),(\d+:\d+:\d+\.\d+),(\d+:\d+:\d+\.\d+),`)

const scaledBorderDirective = "ScaledBorderAndShadow: yes"

// Repair rewrites a raw ASS document in one pass over its lines:
//
//   - a ScaledBorderAndShadow directive is inserted into the script info
//     section (exactly once; some players render borders and shadows at the
//     wrong scale without it),
//   - dialogue cues whose timestamps exceed maxLen are clipped to it (some
//     players choke on cues that outlive the video),
//   - dialogue lines are re-sorted chronologically by start time, leaving
//     every non-dialogue line at its original position.
//
// The transform is pure and deterministic; repairing an already repaired
// document is a no-op.
func Repair(doc []byte, maxLen time.Duration) []byte {
	lines := strings.Split(string(doc), "\n")

	hasDirective := false
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "ScaledBorderAndShadow:") {
			hasDirective = true
			break
		}
	}

	type cue struct {
		start time.Duration
		pos   int
	}
	var cues []cue
	var positions []int

	for i := range lines {
		line := lines[i]
		if strings.TrimSpace(line) == "[Script Info]" {
			if !hasDirective {
				lines[i] = line + "\n" + scaledBorderDirective
				hasDirective = true
			}
			continue
		}
		m := dialogueRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		start := parseTime(m[2])
		end := parseTime(m[3])
		if start > maxLen || end > maxLen {
			if start > maxLen {
				start = maxLen
			}
			end = maxLen
			lines[i] = dialogueRe.ReplaceAllString(line,
				fmt.Sprintf("Dialogue: %s,%s,%s,", m[1], formatTime(start), formatTime(end)))
		}
		cues = append(cues, cue{start: start, pos: i})
		positions = append(positions, i)
	}

	// positions holds the dialogue line slots in document order; the i-th
	// chronological cue is placed into the i-th slot. The contents are
	// snapshotted first so earlier placements cannot clobber a line that a
	// later cue still refers to.
	sort.SliceStable(cues, func(a, b int) bool { return cues[a].start < cues[b].start })
	ordered := make([]string, len(cues))
	for i := range cues {
		ordered[i] = lines[cues[i].pos]
	}
	for i, pos := range positions {
		lines[pos] = ordered[i]
	}

	return []byte(strings.Join(lines, "\n"))
}

// parseTime reads an ASS timestamp (H:MM:SS.cc). Malformed fields parse as
// zero, mirroring the lenient handling of upstream documents.
func parseTime(raw string) time.Duration {
	var h, m, s int
	frac := "0"
	if i := strings.IndexByte(raw, '.'); i >= 0 {
		frac = raw[i+1:]
		raw = raw[:i]
	}
	parts := strings.Split(raw, ":")
	if len(parts) == 3 {
		h, _ = strconv.Atoi(parts[0])
		m, _ = strconv.Atoi(parts[1])
		s, _ = strconv.Atoi(parts[2])
	}
	// fractional digits beyond nanosecond precision are impossible in
	// practice; pad or truncate to nanoseconds
	if len(frac) > 9 {
		frac = frac[:9]
	}
	nanos, _ := strconv.Atoi(frac + strings.Repeat("0", 9-len(frac)))

	return time.Duration(h)*time.Hour +
		time.Duration(m)*time.Minute +
		time.Duration(s)*time.Second +
		time.Duration(nanos)
}

// formatTime renders a duration as an ASS timestamp: single-digit hour,
// centisecond precision.
func formatTime(d time.Duration) string {
	h := d / time.Hour
	m := (d % time.Hour) / time.Minute
	s := (d % time.Minute) / time.Second
	cs := (d % time.Second) / (10 * time.Millisecond)
	return fmt.Sprintf("%d:%02d:%02d.%02d", h, m, s, cs)
}
