package processor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"localtranscriber/internal/helper"
)

func newTestProbe(out string, err error) (*AudioProbe, *[]string) {
	var gotArgs []string
	probe := NewAudioProbe(zap.NewNop(), "")
	probe.run = func(ctx context.Context, name string, args []string) ([]byte, error) {
		gotArgs = append([]string{name}, args...)
		return []byte(out), err
	}
	return probe, &gotArgs
}

func TestAudioProbe_Duration(t *testing.T) {
	t.Run("should parse the duration printed by ffprobe", func(t *testing.T) {
		// Arrange
		probe, args := newTestProbe("1834.512000\n", nil)

		// Act
		seconds, err := probe.Duration(context.Background(), "/rec/call.m4a")

		// Assert
		require.NoError(t, err)
		assert.InDelta(t, 1834.512, seconds, 1e-9)
		assert.Equal(t, "ffprobe", (*args)[0])
		assert.Equal(t, "/rec/call.m4a", (*args)[len(*args)-1])
	})

	t.Run("should explain unreadable input", func(t *testing.T) {
		probe, _ := newTestProbe("", &helper.ExitError{Code: 1, Stderr: "/rec/call.m4a: Invalid data found when processing input\n"})

		_, err := probe.Duration(context.Background(), "/rec/call.m4a")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "ffprobe could not read /rec/call.m4a")
		assert.Contains(t, err.Error(), "Invalid data found")
	})

	t.Run("should wrap other failures", func(t *testing.T) {
		notFound := errors.New(`exec: "ffprobe": executable file not found in $PATH`)
		probe, _ := newTestProbe("", notFound)

		_, err := probe.Duration(context.Background(), "/rec/call.m4a")

		assert.ErrorIs(t, err, notFound)
	})

	t.Run("should reject non-numeric output", func(t *testing.T) {
		probe, _ := newTestProbe("N/A\n", nil)

		_, err := probe.Duration(context.Background(), "/rec/call.m4a")

		assert.ErrorContains(t, err, `unexpected ffprobe duration "N/A"`)
	})
}

func TestEstimateProcessingTime(t *testing.T) {
	assert.Equal(t, 10*time.Minute, EstimateProcessingTime(600, "cpu"))
	assert.Equal(t, 90*time.Second, EstimateProcessingTime(600, "cuda"))
	assert.Zero(t, EstimateProcessingTime(0, "cpu"))
}

func TestContainsFFmpegError(t *testing.T) {
	assert.True(t, containsFFmpegError("x.wav: No such file or directory"))
	assert.False(t, containsFFmpegError("Input #0, wav, from 'x.wav':"))
}
