package processor

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"localtranscriber/internal/helper"
)

// Real-time factors used for the processing estimate
const (
	gpuRealtimeFactor = 0.15
	cpuRealtimeFactor = 1.0
)

// AudioProbe reads audio metadata with ffprobe
type AudioProbe struct {
	ffprobePath string
	logger      *zap.Logger
	run         func(ctx context.Context, name string, args []string) ([]byte, error)
}

// NewAudioProbe creates an AudioProbe. An empty path uses ffprobe from PATH.
func NewAudioProbe(logger *zap.Logger, ffprobePath string) *AudioProbe {
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &AudioProbe{
		ffprobePath: ffprobePath,
		logger:      logger,
		run: func(ctx context.Context, name string, args []string) ([]byte, error) {
			return helper.Run(ctx, name, args)
		},
	}
}

// Duration returns the audio length in seconds
func (a *AudioProbe) Duration(ctx context.Context, audioPath string) (float64, error) {
	args := []string{
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		audioPath,
	}

	out, err := a.run(ctx, a.ffprobePath, args)
	if err != nil {
		var exitErr *helper.ExitError
		if errors.As(err, &exitErr) && containsFFmpegError(exitErr.Stderr) {
			return 0, fmt.Errorf("ffprobe could not read %s: %s", audioPath, helper.LastLines(exitErr.Stderr, 1))
		}
		return 0, fmt.Errorf("failed to run ffprobe: %w", err)
	}

	value := strings.TrimSpace(string(out))
	seconds, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("unexpected ffprobe duration %q: %w", value, err)
	}
	return seconds, nil
}

// EstimateProcessingTime returns the expected transcription time for
// seconds of audio on device
func EstimateProcessingTime(seconds float64, device string) time.Duration {
	factor := cpuRealtimeFactor
	if device != "cpu" {
		factor = gpuRealtimeFactor
	}
	return time.Duration(seconds * factor * float64(time.Second))
}

// containsFFmpegError checks if stderr output contains actual errors vs info
func containsFFmpegError(output string) bool {
	errorIndicators := []string{
		"Error opening",
		"Invalid data",
		"No such file",
		"Permission denied",
		"could not find codec",
	}

	for _, indicator := range errorIndicators {
		if strings.Contains(output, indicator) {
			return true
		}
	}
	return false
}
