package diarizer

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"localtranscriber/internal/config"
	"localtranscriber/internal/performance"
)

// DiarizationEngine runs one diarization source and reports what it found
type DiarizationEngine struct {
	logger             *zap.Logger
	source             Source
	performanceMonitor *performance.PerformanceMonitor
}

// NewDiarizationEngine creates a DiarizationEngine around an existing source
func NewDiarizationEngine(logger *zap.Logger, source Source, monitor *performance.PerformanceMonitor) *DiarizationEngine {
	if monitor == nil {
		monitor = performance.NewPerformanceMonitor(logger)
	}
	return &DiarizationEngine{
		logger:             logger,
		source:             source,
		performanceMonitor: monitor,
	}
}

// NewSourceFromConfig builds the diarization source selected by diarization.backend
func NewSourceFromConfig(logger *zap.Logger, cfg *config.Configuration) (Source, error) {
	switch backend := cfg.GetDiarizationBackend(); backend {
	case "pyannote":
		return NewPyannoteModel(logger, cfg.GetPythonPath()), nil
	case "http":
		return NewPyannoteHTTP(logger, PyannoteHTTPConfig{
			BaseURL: cfg.GetDiarizationURL(),
			Timeout: cfg.GetDiarizationTimeout(),
		}), nil
	default:
		return nil, fmt.Errorf("unknown diarization backend: %s", backend)
	}
}

// Diarize runs the source to completion and returns its segments unchanged.
func (de *DiarizationEngine) Diarize(ctx context.Context, req Request) ([]Segment, error) {
	if de.source == nil {
		return nil, fmt.Errorf("diarization source not initialized")
	}

	de.logger.Info("running speaker diarization",
		zap.String("component", "diarizer"),
		zap.String("audio_file", req.AudioPath),
		zap.Int("expected_speakers", req.NumSpeakers),
		zap.String("device", req.Device))

	timer := de.performanceMonitor.StartStage(performance.StageDiarization, req.Device)
	segments, err := de.source.Diarize(ctx, req)
	if err != nil {
		de.logger.Error("diarization failed",
			zap.String("component", "diarizer"),
			zap.Error(err))
		if !errors.Is(err, ErrInference) && !errors.Is(err, ErrAuthentication) {
			err = fmt.Errorf("%w: %w", ErrInference, err)
		}
		return nil, fmt.Errorf("failed to diarize %s: %w", req.AudioPath, err)
	}
	stage := de.performanceMonitor.EndStage(timer, 0)

	var speech float64
	for _, seg := range segments {
		speech += seg.Duration()
	}
	de.logger.Info("diarization completed",
		zap.String("component", "diarizer"),
		zap.Int("segments", len(segments)),
		zap.Int("speakers", CountSpeakers(segments)),
		zap.Float64("speech_seconds", speech),
		zap.Duration("processing_time", stage.ProcessingTime))

	return segments, nil
}
