package transcriber

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"localtranscriber/internal/config"
	"localtranscriber/internal/performance"
)

// TranscriptionEngine runs one speech source and records how long it took
type TranscriptionEngine struct {
	logger             *zap.Logger
	source             Source
	device             string
	performanceMonitor *performance.PerformanceMonitor
}

// NewTranscriptionEngine creates a TranscriptionEngine around an existing source
func NewTranscriptionEngine(logger *zap.Logger, source Source, device string, monitor *performance.PerformanceMonitor) *TranscriptionEngine {
	if monitor == nil {
		monitor = performance.NewPerformanceMonitor(logger)
	}
	return &TranscriptionEngine{
		logger:             logger,
		source:             source,
		device:             device,
		performanceMonitor: monitor,
	}
}

// NewSourceFromConfig builds the speech source selected by transcription.backend
func NewSourceFromConfig(logger *zap.Logger, cfg *config.Configuration, device string) (Source, error) {
	switch backend := cfg.GetTranscriptionBackend(); backend {
	case "whisper":
		return NewWhisperModel(logger, cfg.GetPythonPath(), device, cfg.GetWhisperLanguage()), nil
	case "http":
		return NewWhisperHTTP(logger, WhisperHTTPConfig{
			URL:      cfg.GetTranscriptionURL(),
			Language: cfg.GetWhisperLanguage(),
			Timeout:  cfg.GetTranscriptionTimeout(),
		}), nil
	default:
		return nil, fmt.Errorf("unknown transcription backend: %s", backend)
	}
}

// Transcribe recognizes the whole file. The call blocks until the engine
// returns; cancelling ctx terminates the engine process.
func (te *TranscriptionEngine) Transcribe(ctx context.Context, audioPath, model string) (*Result, error) {
	if te.source == nil {
		return nil, fmt.Errorf("speech source not initialized")
	}

	te.logger.Info("starting transcription",
		zap.String("component", "transcriber"),
		zap.String("audio_file", audioPath),
		zap.String("model", model),
		zap.String("device", te.device))

	timer := te.performanceMonitor.StartStage(performance.StageTranscription, te.device)
	result, err := te.source.Transcribe(ctx, audioPath, model)
	if err != nil {
		te.logger.Error("transcription failed",
			zap.String("component", "transcriber"),
			zap.Error(err))
		if !errors.Is(err, ErrInference) {
			err = fmt.Errorf("%w: %w", ErrInference, err)
		}
		return nil, fmt.Errorf("failed to transcribe %s: %w", audioPath, err)
	}
	if result == nil {
		result = &Result{}
	}
	stage := te.performanceMonitor.EndStage(timer, result.Duration)

	fields := []zap.Field{
		zap.String("component", "transcriber"),
		zap.Int("segments", len(result.Segments)),
		zap.Duration("processing_time", stage.ProcessingTime),
	}
	if result.Duration > 0 {
		fields = append(fields, zap.Float64("audio_minutes", result.Duration/60))
	}
	if ratio := stage.SpeedRatio(); ratio > 0 {
		fields = append(fields, zap.Float64("realtime_factor", ratio))
	}
	te.logger.Info("transcription completed", fields...)

	return result, nil
}
