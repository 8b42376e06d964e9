package diarizer

import (
	"context"
	"errors"
)

var (
	// ErrInference marks failures raised by the diarization model.
	ErrInference = errors.New("speaker diarization failed")
	// ErrAuthentication marks a rejected or missing HuggingFace token.
	ErrAuthentication = errors.New("huggingface authentication failed")
)

// Request describes one diarization call.
type Request struct {
	AudioPath string
	Token     string
	// NumSpeakers is the expected speaker count, 0 to auto-detect.
	NumSpeakers int
	Device      string
}

// Source produces speaker segments for one audio file.
type Source interface {
	Diarize(ctx context.Context, req Request) ([]Segment, error)
}

// SourceFunc adapts a plain function to Source.
type SourceFunc func(ctx context.Context, req Request) ([]Segment, error)

// Diarize calls f.
func (f SourceFunc) Diarize(ctx context.Context, req Request) ([]Segment, error) {
	return f(ctx, req)
}
