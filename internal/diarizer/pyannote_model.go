package diarizer

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"localtranscriber/internal/helper"
)

//go:embed assets/pyannote_diarize.py
var pyannoteScript []byte

const (
	// DefaultPipeline is the gated HuggingFace pipeline used for diarization.
	DefaultPipeline = "pyannote/speaker-diarization-3.1"

	authExitCode = 5
)

// PyannoteModel runs pyannote.audio locally through an embedded Python helper.
type PyannoteModel struct {
	pythonPath string
	pipeline   string
	logger     *zap.Logger
}

// NewPyannoteModel creates a local pyannote backend.
func NewPyannoteModel(logger *zap.Logger, pythonPath string) *PyannoteModel {
	if pythonPath == "" {
		pythonPath = "python3"
	}
	return &PyannoteModel{
		pythonPath: pythonPath,
		pipeline:   DefaultPipeline,
		logger:     logger,
	}
}

type pyannoteOutput struct {
	Segments []Segment `json:"segments"`
}

// Diarize runs the helper on req.AudioPath. The token travels in the
// helper's environment, never on its command line.
func (p *PyannoteModel) Diarize(ctx context.Context, req Request) ([]Segment, error) {
	scriptPath, cleanup, err := helper.WriteScript("pyannote-diarize-*.py", pyannoteScript)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	device := req.Device
	if device == "" {
		device = "cpu"
	}
	args := []string{scriptPath,
		"--audio", req.AudioPath,
		"--device", device,
		"--num-speakers", strconv.Itoa(req.NumSpeakers),
		"--pipeline", p.pipeline,
	}
	p.logger.Debug("starting pyannote helper",
		zap.String("python", p.pythonPath),
		zap.Strings("args", args))

	out, err := helper.Run(ctx, p.pythonPath, args, "HF_TOKEN="+req.Token)
	if err != nil {
		var exitErr *helper.ExitError
		if errors.As(err, &exitErr) && exitErr.Code == authExitCode {
			return nil, fmt.Errorf("%w: %s", ErrAuthentication, helper.LastLines(exitErr.Stderr, 3))
		}
		return nil, fmt.Errorf("%w: %w", ErrInference, err)
	}

	var parsed pyannoteOutput
	if err := json.Unmarshal(out, &parsed); err != nil {
		return nil, fmt.Errorf("%w: failed to parse helper output: %w", ErrInference, err)
	}
	return parsed.Segments, nil
}
