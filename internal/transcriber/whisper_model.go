package transcriber

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"localtranscriber/internal/helper"
)

//go:embed assets/whisper_transcribe.py
var whisperScript []byte

// WhisperModel runs openai-whisper locally through an embedded Python helper.
// Models are downloaded and cached by whisper itself on first use.
type WhisperModel struct {
	pythonPath string
	device     string
	language   string
	logger     *zap.Logger
}

// NewWhisperModel creates a local Whisper backend. device is "cuda" or "cpu".
func NewWhisperModel(logger *zap.Logger, pythonPath, device, language string) *WhisperModel {
	if pythonPath == "" {
		pythonPath = "python3"
	}
	if device == "" {
		device = "cpu"
	}
	if language == "" {
		language = "en"
	}
	return &WhisperModel{
		pythonPath: pythonPath,
		device:     device,
		language:   language,
		logger:     logger,
	}
}

type helperOutput struct {
	Text     string                 `json:"text"`
	Language string                 `json:"language"`
	Duration float64                `json:"duration"`
	Segments []TranscriptionSegment `json:"segments"`
}

// Transcribe runs the helper on audioPath and decodes its JSON result.
func (w *WhisperModel) Transcribe(ctx context.Context, audioPath, model string) (*Result, error) {
	scriptPath, cleanup, err := helper.WriteScript("whisper-transcribe-*.py", whisperScript)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	if w.device == "cuda" {
		w.logger.Info("using FP16 (half-precision) inference", zap.String("device", w.device))
	} else {
		w.logger.Info("using FP32 (full precision) inference", zap.String("device", w.device))
	}

	args := []string{scriptPath,
		"--audio", audioPath,
		"--model", model,
		"--device", w.device,
		"--language", w.language,
	}
	w.logger.Debug("starting whisper helper",
		zap.String("python", w.pythonPath),
		zap.Strings("args", args))

	out, err := helper.Run(ctx, w.pythonPath, args)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInference, err)
	}

	result, err := decodeHelperOutput(out)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInference, err)
	}
	return result, nil
}

func decodeHelperOutput(out []byte) (*Result, error) {
	var parsed helperOutput
	if err := json.Unmarshal(out, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse helper output: %w", err)
	}

	segments := make([]TranscriptionSegment, 0, len(parsed.Segments))
	for _, s := range parsed.Segments {
		s.Text = strings.TrimSpace(s.Text)
		if err := s.Validate(); err != nil {
			return nil, fmt.Errorf("invalid segment at %.2fs: %w", s.Start, err)
		}
		segments = append(segments, s)
	}

	return &Result{
		Text:     parsed.Text,
		Segments: segments,
		Language: parsed.Language,
		Duration: parsed.Duration,
	}, nil
}
