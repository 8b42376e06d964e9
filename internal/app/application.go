package app

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"localtranscriber/internal/alignment"
	"localtranscriber/internal/config"
	"localtranscriber/internal/credentials"
	"localtranscriber/internal/diarizer"
	"localtranscriber/internal/gpu"
	"localtranscriber/internal/media"
	"localtranscriber/internal/output"
	"localtranscriber/internal/performance"
	"localtranscriber/internal/processor"
	"localtranscriber/internal/transcriber"
	"localtranscriber/internal/transcript"
	"localtranscriber/internal/turns"
)

// Application wires the transcription pipeline for one audio file
type Application struct {
	config              *config.Configuration
	zapLogger           *zap.Logger
	fs                  afero.Fs
	device              string
	runID               string
	now                 func() time.Time
	speechSource        transcriber.Source
	diarizationSource   diarizer.Source
	transcriptionEngine *transcriber.TranscriptionEngine
	diarizationEngine   *diarizer.DiarizationEngine
	writer              *output.Writer
	audioProbe          DurationProber
	performanceMonitor  *performance.PerformanceMonitor
	healthCheckTimeout  time.Duration
}

// DefaultHealthCheckTimeout bounds each sidecar health check
const DefaultHealthCheckTimeout = 5 * time.Second

// DurationProber reports the length of an audio file in seconds
type DurationProber interface {
	Duration(ctx context.Context, audioPath string) (float64, error)
}

// Option customizes an Application
type Option func(*Application)

// WithFilesystem replaces the OS filesystem used for validation, credentials and output
func WithFilesystem(fs afero.Fs) Option {
	return func(app *Application) { app.fs = fs }
}

// WithSpeechSource replaces the configured speech backend
func WithSpeechSource(source transcriber.Source) Option {
	return func(app *Application) { app.speechSource = source }
}

// WithDiarizationSource replaces the configured diarization backend
func WithDiarizationSource(source diarizer.Source) Option {
	return func(app *Application) { app.diarizationSource = source }
}

// WithAudioProbe replaces the ffprobe-based duration probe
func WithAudioProbe(probe DurationProber) Option {
	return func(app *Application) { app.audioProbe = probe }
}

// WithDevice skips device detection
func WithDevice(device string) Option {
	return func(app *Application) { app.device = device }
}

// WithClock sets the time source used for the header date
func WithClock(now func() time.Time) Option {
	return func(app *Application) { app.now = now }
}

// Result summarizes a finished run
type Result struct {
	OutputPath string
	Mode       transcript.Mode
	Speakers   int
	Segments   int
	Turns      int
	Device     string
}

// NewApplication validates cfg and creates the pipeline components
func NewApplication(cfg *config.Configuration, zapLogger *zap.Logger, opts ...Option) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}

	runID := uuid.NewString()
	app := &Application{
		config:    cfg,
		zapLogger: zapLogger.With(zap.String("run_id", runID)),
		fs:        afero.NewOsFs(),
		runID:     runID,
		now:       time.Now,

		healthCheckTimeout: DefaultHealthCheckTimeout,
	}
	for _, opt := range opts {
		opt(app)
	}

	if app.device == "" {
		app.device = gpu.NewGPUDetector(app.zapLogger, cfg.GetDevicePreference()).SelectDevice()
	}

	if app.speechSource == nil {
		source, err := transcriber.NewSourceFromConfig(app.zapLogger, cfg, app.device)
		if err != nil {
			return nil, fmt.Errorf("failed to create speech source: %w", err)
		}
		app.speechSource = source
	}
	if app.diarizationSource == nil && cfg.GetDiarizationEnabled() {
		source, err := diarizer.NewSourceFromConfig(app.zapLogger, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create diarization source: %w", err)
		}
		app.diarizationSource = source
	}

	if app.audioProbe == nil {
		app.audioProbe = processor.NewAudioProbe(app.zapLogger, cfg.GetFFprobePath())
	}

	app.performanceMonitor = performance.NewPerformanceMonitorWithBenchmark(app.zapLogger, cfg.GetDebugMode())
	app.transcriptionEngine = transcriber.NewTranscriptionEngine(app.zapLogger, app.speechSource, app.device, app.performanceMonitor)
	app.diarizationEngine = diarizer.NewDiarizationEngine(app.zapLogger, app.diarizationSource, app.performanceMonitor)
	app.writer = output.NewWriter(app.zapLogger, app.fs)

	return app, nil
}

// RunID returns the identifier attached to every log line of this run
func (app *Application) RunID() string {
	return app.runID
}

// Device returns the selected inference device
func (app *Application) Device() string {
	return app.device
}

// Run transcribes audioPath and writes the transcript beside it. Input and
// credential problems are reported before any model runs; nothing is
// written unless every step succeeds.
func (app *Application) Run(ctx context.Context, audioPath string) (*Result, error) {
	app.performanceMonitor.ResetMetrics()

	audio, err := media.Validate(app.fs, audioPath)
	if err != nil {
		app.zapLogger.Error("input validation failed", zap.String("component", "app"), zap.Error(err))
		return nil, err
	}
	fields := []zap.Field{
		zap.String("component", "app"),
		zap.String("audio_file", audio.Path),
		zap.Int64("bytes", audio.Size),
		zap.String("mime_type", audio.MIMEType),
	}
	if !audio.LooksLikeMedia() {
		app.zapLogger.Warn("content does not look like audio, continuing by extension", fields...)
	} else {
		app.zapLogger.Debug("input validated", fields...)
	}

	diarize := app.config.GetDiarizationEnabled()

	var token *credentials.Token
	if diarize {
		resolver := credentials.NewResolver(app.zapLogger, app.fs, app.config.GetDiarizationTokenFile(), app.config.GetDiarizationToken())
		token, err = resolver.Lookup()
		if err != nil {
			app.zapLogger.Error("diarization requested without credentials", zap.String("component", "app"), zap.Error(err))
			return nil, err
		}
		app.zapLogger.Debug("huggingface token found", zap.String("component", "app"), zap.String("source", token.Source))
	}

	app.checkSidecars(ctx, diarize)

	// Diarization runs to completion before transcription starts
	var diarization []diarizer.Segment
	if diarize {
		diarization, err = app.diarizationEngine.Diarize(ctx, diarizer.Request{
			AudioPath:   audio.Path,
			Token:       token.Value,
			NumSpeakers: app.config.GetDiarizationSpeakers(),
			Device:      app.device,
		})
		if err != nil {
			return nil, err
		}
		app.zapLogger.Info(fmt.Sprintf("Identified %d speaker(s)", diarizer.CountSpeakers(diarization)),
			zap.String("component", "app"))
	}

	app.logEstimate(ctx, audio.Path)

	recognized, err := app.transcriptionEngine.Transcribe(ctx, audio.Path, app.config.GetWhisperModel())
	if err != nil {
		return nil, err
	}

	timer := app.performanceMonitor.StartStage(performance.StageAlignment, app.device)
	attributed := alignment.Attribute(recognized.Segments, diarization)
	speakerTurns := turns.Aggregate(attributed)
	app.performanceMonitor.EndStage(timer, 0)

	mode := transcript.ModePlain
	if len(diarization) > 0 && len(attributed) > 0 {
		mode = transcript.ModeDiarized
	} else if diarize {
		app.zapLogger.Warn("diarization produced no usable segments, writing plain transcript",
			zap.String("component", "app"),
			zap.Int("diarization_segments", len(diarization)),
			zap.Int("transcription_segments", len(attributed)))
	}

	header := output.Header{
		AudioFile:   audio.Name,
		GeneratedAt: app.now(),
		Diarized:    mode == transcript.ModeDiarized,
	}
	if header.Diarized {
		header.Speakers = alignment.CountSpeakers(attributed)
	}

	timer = app.performanceMonitor.StartStage(performance.StageOutput, app.device)
	body := transcript.Format(mode, recognized.Text, speakerTurns)
	path, err := app.writer.Write(audio.Path, header, body)
	if err != nil {
		app.zapLogger.Error("failed to save transcript", zap.String("component", "app"), zap.Error(err))
		return nil, fmt.Errorf("failed to save transcript: %w", err)
	}
	app.performanceMonitor.EndStage(timer, 0)

	app.performanceMonitor.LogCurrentMetrics()
	app.zapLogger.Debug(app.performanceMonitor.GetPerformanceSummary(), zap.String("component", "app"))

	return &Result{
		OutputPath: path,
		Mode:       mode,
		Speakers:   header.Speakers,
		Segments:   len(attributed),
		Turns:      len(speakerTurns),
		Device:     app.device,
	}, nil
}

// logEstimate reports the audio length and expected processing time.
// A failed probe only costs the estimate.
func (app *Application) logEstimate(ctx context.Context, audioPath string) {
	seconds, err := app.audioProbe.Duration(ctx, audioPath)
	if err != nil {
		app.zapLogger.Debug("could not determine audio duration", zap.String("component", "app"), zap.Error(err))
		return
	}
	app.zapLogger.Info(fmt.Sprintf("Audio duration: %.1f minutes", seconds/60),
		zap.String("component", "app"),
		zap.Duration("estimated_processing_time", processor.EstimateProcessingTime(seconds, app.device)))
}

type availabilityChecker interface {
	IsAvailable(ctx context.Context) bool
}

// checkSidecars warns early when an HTTP backend does not answer its health check
func (app *Application) checkSidecars(ctx context.Context, diarize bool) {
	backends := map[string]any{"transcription": app.speechSource}
	if diarize {
		backends["diarization"] = app.diarizationSource
	}
	for _, name := range []string{"transcription", "diarization"} {
		checker, ok := backends[name].(availabilityChecker)
		if !ok {
			continue
		}
		if !app.sidecarAvailable(ctx, checker) {
			app.zapLogger.Warn("sidecar health check failed",
				zap.String("component", "app"),
				zap.String("backend", name))
		}
	}
}

func (app *Application) sidecarAvailable(ctx context.Context, checker availabilityChecker) bool {
	checkCtx, cancel := context.WithTimeout(ctx, app.healthCheckTimeout)
	defer cancel()
	return checker.IsAvailable(checkCtx)
}
