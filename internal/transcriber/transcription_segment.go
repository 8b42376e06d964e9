package transcriber

import "fmt"

// TranscriptionSegment is one timed piece of recognized speech as emitted by the engine.
// Times are fractional seconds from the start of the file.
type TranscriptionSegment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Validate checks if the TranscriptionSegment has valid values
func (ts *TranscriptionSegment) Validate() error {
	if ts.Start < 0 {
		return fmt.Errorf("start cannot be negative")
	}

	if ts.End < ts.Start {
		return fmt.Errorf("end must not be before start")
	}

	return nil
}

// Result is the complete output of one recognition run.
type Result struct {
	// Text is the engine's full-text transcript, used for plain output.
	Text     string                 `json:"text"`
	Segments []TranscriptionSegment `json:"segments"`
	Language string                 `json:"language,omitempty"`
	// Duration is the audio length in seconds, 0 when the engine does not report it.
	Duration float64 `json:"duration,omitempty"`
}
