package diarizer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// PyannoteHTTPConfig configures the pyannote sidecar client.
type PyannoteHTTPConfig struct {
	BaseURL string
	// Timeout bounds one request; 0 means no timeout.
	Timeout time.Duration
}

// PyannoteHTTP talks to a pyannote sidecar running on the local machine.
type PyannoteHTTP struct {
	cfg    PyannoteHTTPConfig
	client *http.Client
	logger *zap.Logger
}

// NewPyannoteHTTP creates a sidecar-backed diarization source.
func NewPyannoteHTTP(logger *zap.Logger, cfg PyannoteHTTPConfig) *PyannoteHTTP {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &PyannoteHTTP{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

// IsAvailable checks if the sidecar answers its health endpoint.
func (p *PyannoteHTTP) IsAvailable(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.cfg.BaseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// Diarize uploads the audio file and converts the sidecar's segments.
func (p *PyannoteHTTP) Diarize(ctx context.Context, req Request) ([]Segment, error) {
	audioData, err := os.ReadFile(req.AudioPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio file: %w", err)
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("audio", filepath.Base(req.AudioPath))
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(audioData); err != nil {
		return nil, fmt.Errorf("failed to write audio data: %w", err)
	}
	if req.NumSpeakers > 0 {
		_ = writer.WriteField("num_speakers", strconv.Itoa(req.NumSpeakers))
	}
	writer.Close()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.BaseURL+"/diarize", &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())
	if req.Token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.Token)
	}

	p.logger.Debug("sending audio to pyannote sidecar",
		zap.String("url", p.cfg.BaseURL),
		zap.Int("audio_bytes", len(audioData)),
		zap.Int("num_speakers", req.NumSpeakers))

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: diarization request: %w", ErrInference, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: status %d: %s", ErrAuthentication, resp.StatusCode, strings.TrimSpace(string(body)))
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: diarization error (status %d): %s", ErrInference, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var result pyannoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("%w: failed to decode diarization response: %w", ErrInference, err)
	}
	if result.Error != "" {
		return nil, fmt.Errorf("%w: %s", ErrInference, result.Error)
	}

	return toSegments(&result), nil
}

// --- sidecar API types ---

type pyannoteResponse struct {
	Segments    []pyannoteSegment `json:"segments"`
	NumSpeakers int               `json:"num_speakers"`
	Error       string            `json:"error,omitempty"`
}

type pyannoteSegment struct {
	SpeakerID string  `json:"speaker_id"`
	StartTime float64 `json:"start_time"`
	EndTime   float64 `json:"end_time"`
}

func toSegments(resp *pyannoteResponse) []Segment {
	segments := make([]Segment, len(resp.Segments))
	for i, seg := range resp.Segments {
		segments[i] = Segment{
			Start:   seg.StartTime,
			End:     seg.EndTime,
			Speaker: seg.SpeakerID,
		}
	}
	return segments
}
