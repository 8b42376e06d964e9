package diarizer

// Segment is a time range attributed to one detected voice. Segments of
// different speakers may overlap and may leave gaps.
type Segment struct {
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Speaker string  `json:"speaker"`
}

// Duration returns the segment length in seconds
func (s Segment) Duration() float64 {
	return s.End - s.Start
}

// CountSpeakers returns the number of distinct speaker labels
func CountSpeakers(segments []Segment) int {
	seen := make(map[string]struct{}, len(segments))
	for _, seg := range segments {
		seen[seg.Speaker] = struct{}{}
	}
	return len(seen)
}
