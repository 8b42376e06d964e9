package transcriber

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

// WhisperHTTPConfig configures the faster-whisper sidecar client.
type WhisperHTTPConfig struct {
	URL      string
	Language string
	// Timeout bounds one request; 0 means no timeout.
	Timeout time.Duration
}

// WhisperHTTP talks to a faster-whisper sidecar running on the local machine.
type WhisperHTTP struct {
	cfg    WhisperHTTPConfig
	client *http.Client
	logger *zap.Logger
}

// NewWhisperHTTP creates a sidecar-backed speech source.
func NewWhisperHTTP(logger *zap.Logger, cfg WhisperHTTPConfig) *WhisperHTTP {
	cfg.URL = strings.TrimRight(cfg.URL, "/")
	return &WhisperHTTP{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

// IsAvailable checks if the sidecar answers its health endpoint.
func (w *WhisperHTTP) IsAvailable(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.cfg.URL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := w.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// Transcribe uploads the audio file and decodes the sidecar's segments.
func (w *WhisperHTTP) Transcribe(ctx context.Context, audioPath, model string) (*Result, error) {
	audioData, err := os.ReadFile(audioPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio file: %w", err)
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("audio", filepath.Base(audioPath))
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(audioData); err != nil {
		return nil, fmt.Errorf("failed to write audio data: %w", err)
	}
	_ = writer.WriteField("model", model)
	if w.cfg.Language != "" {
		_ = writer.WriteField("language", w.cfg.Language)
	}
	writer.Close()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, w.cfg.URL+"/transcribe", &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())

	w.logger.Debug("sending audio to whisper sidecar",
		zap.String("url", w.cfg.URL),
		zap.Int("audio_bytes", len(audioData)))

	resp, err := w.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: whisper request: %w", ErrInference, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: whisper error (status %d): %s", ErrInference, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read whisper response: %w", ErrInference, err)
	}

	result, err := decodeHelperOutput(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInference, err)
	}
	if result.Duration == 0 && len(result.Segments) > 0 {
		result.Duration = result.Segments[len(result.Segments)-1].End
	}
	return result, nil
}
