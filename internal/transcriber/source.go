package transcriber

import (
	"context"
	"errors"
)

// ErrInference marks failures raised by the speech engine itself.
var ErrInference = errors.New("speech recognition failed")

// Source produces the full recognition result for one audio file.
type Source interface {
	Transcribe(ctx context.Context, audioPath, model string) (*Result, error)
}

// SourceFunc adapts a plain function to Source.
type SourceFunc func(ctx context.Context, audioPath, model string) (*Result, error)

// Transcribe calls f.
func (f SourceFunc) Transcribe(ctx context.Context, audioPath, model string) (*Result, error) {
	return f(ctx, audioPath, model)
}
