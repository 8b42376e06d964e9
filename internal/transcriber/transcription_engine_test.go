package transcriber

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"localtranscriber/internal/config"
	"localtranscriber/internal/performance"
)

func TestTranscriptionEngine_Transcribe(t *testing.T) {
	t.Run("should return the source result and record the stage", func(t *testing.T) {
		// Arrange
		core, logs := observer.New(zapcore.InfoLevel)
		logger := zap.New(core)
		monitor := performance.NewPerformanceMonitor(logger)
		var gotPath, gotModel string
		source := SourceFunc(func(ctx context.Context, audioPath, model string) (*Result, error) {
			gotPath, gotModel = audioPath, model
			return &Result{
				Text:     "hi there",
				Segments: []TranscriptionSegment{{Start: 0, End: 1, Text: "hi there"}},
				Duration: 1,
			}, nil
		})
		engine := NewTranscriptionEngine(logger, source, "cpu", monitor)

		// Act
		result, err := engine.Transcribe(context.Background(), "/audio/x.wav", "tiny")

		// Assert
		require.NoError(t, err)
		assert.Equal(t, "hi there", result.Text)
		assert.Equal(t, "/audio/x.wav", gotPath)
		assert.Equal(t, "tiny", gotModel)

		stages := monitor.GetMetrics().Stages
		require.Len(t, stages, 1)
		assert.Equal(t, performance.StageTranscription, stages[0].Name)
		assert.Equal(t, "cpu", stages[0].Device)

		completed := logs.FilterMessage("transcription completed").All()
		require.Len(t, completed, 1)
		assert.Equal(t, int64(1), completed[0].ContextMap()["segments"])
	})

	t.Run("should wrap source errors and keep the inference sentinel", func(t *testing.T) {
		source := SourceFunc(func(ctx context.Context, audioPath, model string) (*Result, error) {
			return nil, errors.Join(ErrInference, errors.New("boom"))
		})
		engine := NewTranscriptionEngine(zap.NewNop(), source, "cpu", nil)

		result, err := engine.Transcribe(context.Background(), "/audio/x.wav", "base")

		assert.Nil(t, result)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInference)
		assert.Contains(t, err.Error(), "failed to transcribe /audio/x.wav")
	})

	t.Run("should mark plain source errors as inference failures", func(t *testing.T) {
		cause := errors.New("model file missing")
		source := SourceFunc(func(ctx context.Context, audioPath, model string) (*Result, error) {
			return nil, cause
		})
		engine := NewTranscriptionEngine(zap.NewNop(), source, "cpu", nil)

		_, err := engine.Transcribe(context.Background(), "/audio/x.wav", "base")

		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInference)
		assert.ErrorIs(t, err, cause)
		assert.Equal(t, "failed to transcribe /audio/x.wav: speech recognition failed: model file missing", err.Error())
	})

	t.Run("should treat a nil result as empty", func(t *testing.T) {
		source := SourceFunc(func(ctx context.Context, audioPath, model string) (*Result, error) {
			return nil, nil
		})
		engine := NewTranscriptionEngine(zap.NewNop(), source, "cpu", nil)

		result, err := engine.Transcribe(context.Background(), "/audio/x.wav", "base")

		require.NoError(t, err)
		assert.Empty(t, result.Segments)
	})

	t.Run("should fail without a source", func(t *testing.T) {
		engine := NewTranscriptionEngine(zap.NewNop(), nil, "cpu", nil)

		_, err := engine.Transcribe(context.Background(), "/audio/x.wav", "base")

		assert.EqualError(t, err, "speech source not initialized")
	})
}

func TestNewSourceFromConfig(t *testing.T) {
	t.Run("should build the local whisper backend by default", func(t *testing.T) {
		source, err := NewSourceFromConfig(zap.NewNop(), config.NewConfiguration(), "cuda")

		require.NoError(t, err)
		model, ok := source.(*WhisperModel)
		require.True(t, ok)
		assert.Equal(t, "cuda", model.device)
	})

	t.Run("should build the sidecar backend", func(t *testing.T) {
		cfg := config.NewConfiguration()
		cfg.Set("transcription.backend", "http")
		cfg.Set("transcription.url", "http://localhost:9999")

		source, err := NewSourceFromConfig(zap.NewNop(), cfg, "cpu")

		require.NoError(t, err)
		client, ok := source.(*WhisperHTTP)
		require.True(t, ok)
		assert.Equal(t, "http://localhost:9999", client.cfg.URL)
	})

	t.Run("should reject unknown backends", func(t *testing.T) {
		cfg := config.NewConfiguration()
		cfg.Set("transcription.backend", "cloud")

		_, err := NewSourceFromConfig(zap.NewNop(), cfg, "cpu")

		assert.EqualError(t, err, "unknown transcription backend: cloud")
	})
}
