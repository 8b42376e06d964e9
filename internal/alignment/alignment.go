package alignment

import (
	"math"
	"strings"

	"localtranscriber/internal/diarizer"
	"localtranscriber/internal/transcriber"
)

// DefaultSpeaker labels segments when no diarization data is available.
const DefaultSpeaker = "SPEAKER_00"

// AttributedSegment is a transcription segment with its resolved speaker.
type AttributedSegment struct {
	Start   float64
	End     float64
	Text    string
	Speaker string
}

// ResolveSpeaker picks the speaker for the window [start, end).
//
// The speaker with the greatest accumulated overlap wins. When nothing
// overlaps the window, the segment whose midpoint is closest to the window's
// midpoint decides. Ties in either case go to the first speaker encountered
// in segments order.
func ResolveSpeaker(segments []diarizer.Segment, start, end float64) string {
	if len(segments) == 0 {
		return DefaultSpeaker
	}

	var (
		order   []string
		overlap = make(map[string]float64)
		total   float64
	)
	for _, seg := range segments {
		d := math.Min(end, seg.End) - math.Max(start, seg.Start)
		if d <= 0 {
			continue
		}
		if _, seen := overlap[seg.Speaker]; !seen {
			order = append(order, seg.Speaker)
		}
		overlap[seg.Speaker] += d
		total += d
	}

	if total == 0 {
		return nearestSpeaker(segments, start, end)
	}

	best := order[0]
	for _, speaker := range order[1:] {
		if overlap[speaker] > overlap[best] {
			best = speaker
		}
	}
	return best
}

func nearestSpeaker(segments []diarizer.Segment, start, end float64) string {
	mid := (start + end) / 2

	best := segments[0].Speaker
	bestDistance := math.Inf(1)
	for _, seg := range segments {
		distance := math.Abs(mid - (seg.Start+seg.End)/2)
		if distance < bestDistance {
			best = seg.Speaker
			bestDistance = distance
		}
	}
	return best
}

// Attribute resolves a speaker for every transcription segment, keeping
// input order. Exactly one AttributedSegment is produced per input segment.
func Attribute(transcription []transcriber.TranscriptionSegment, diarization []diarizer.Segment) []AttributedSegment {
	attributed := make([]AttributedSegment, 0, len(transcription))
	for _, seg := range transcription {
		attributed = append(attributed, AttributedSegment{
			Start:   seg.Start,
			End:     seg.End,
			Text:    strings.TrimSpace(seg.Text),
			Speaker: ResolveSpeaker(diarization, seg.Start, seg.End),
		})
	}
	return attributed
}

// CountSpeakers returns the number of distinct speakers across segments
func CountSpeakers(segments []AttributedSegment) int {
	seen := make(map[string]struct{})
	for _, seg := range segments {
		seen[seg.Speaker] = struct{}{}
	}
	return len(seen)
}
