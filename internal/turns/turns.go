package turns

import (
	"strings"

	"localtranscriber/internal/alignment"
)

// Turn is a maximal run of consecutive segments from one speaker.
type Turn struct {
	Speaker string
	Start   float64
	End     float64
	Text    string
}

// Aggregate merges consecutive same-speaker segments into turns.
// Segments are expected in ascending start order; every segment ends up in
// exactly one turn.
func Aggregate(segments []alignment.AttributedSegment) []Turn {
	var (
		result  []Turn
		current *accumulator
	)
	for _, seg := range segments {
		if current != nil && current.speaker == seg.Speaker {
			current.add(seg)
			continue
		}
		if current != nil {
			result = append(result, current.flush())
		}
		current = newAccumulator(seg)
	}
	if current != nil {
		result = append(result, current.flush())
	}
	return result
}

// accumulator collects the open turn
type accumulator struct {
	speaker string
	start   float64
	end     float64
	parts   []string
}

func newAccumulator(seg alignment.AttributedSegment) *accumulator {
	return &accumulator{
		speaker: seg.Speaker,
		start:   seg.Start,
		end:     seg.End,
		parts:   []string{seg.Text},
	}
}

func (a *accumulator) add(seg alignment.AttributedSegment) {
	a.end = seg.End
	a.parts = append(a.parts, seg.Text)
}

// flush combines the collected text with single spaces
func (a *accumulator) flush() Turn {
	return Turn{
		Speaker: a.speaker,
		Start:   a.start,
		End:     a.end,
		Text:    strings.Join(a.parts, " "),
	}
}
