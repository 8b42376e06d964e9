package output

import (
	"os"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var generatedAt = time.Date(2025, 3, 14, 9, 5, 7, 0, time.UTC)

func TestHeader_String(t *testing.T) {
	t.Run("should render the plain header", func(t *testing.T) {
		header := Header{AudioFile: "call.mp3", GeneratedAt: generatedAt}

		assert.Equal(t, "TRANSCRIPTION\n\nAudio File: call.mp3\nDate: 2025-03-14 09:05:07\n\n---\n\n", header.String())
	})

	t.Run("should include the speaker count when diarized", func(t *testing.T) {
		header := Header{AudioFile: "call.mp3", GeneratedAt: generatedAt, Speakers: 3, Diarized: true}

		assert.Equal(t, "TRANSCRIPTION\n\nAudio File: call.mp3\nDate: 2025-03-14 09:05:07\nSpeakers: 3\n\n---\n\n", header.String())
	})
}

func TestOutputPath(t *testing.T) {
	tests := []struct {
		audio    string
		diarized bool
		expected string
	}{
		{"/rec/call.mp3", false, "/rec/call_transcription.txt"},
		{"/rec/call.mp3", true, "/rec/call_diarized.txt"},
		{"/rec/team.sync.2025.m4a", true, "/rec/team.sync.2025_diarized.txt"},
		{"interview.wav", false, "interview_transcription.txt"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, OutputPath(tt.audio, tt.diarized))
		})
	}
}

func TestWriter_Write(t *testing.T) {
	t.Run("should write header and body beside the audio file", func(t *testing.T) {
		// Arrange
		fs := afero.NewMemMapFs()
		writer := NewWriter(zap.NewNop(), fs)
		header := Header{AudioFile: "call.mp3", GeneratedAt: generatedAt, Speakers: 2, Diarized: true}

		// Act
		path, err := writer.Write("/rec/call.mp3", header, "SPEAKER_00 [0:00]: hi")

		// Assert
		require.NoError(t, err)
		assert.Equal(t, "/rec/call_diarized.txt", path)
		content, err := afero.ReadFile(fs, path)
		require.NoError(t, err)
		assert.Equal(t, header.String()+"SPEAKER_00 [0:00]: hi", string(content))

		exists, err := afero.Exists(fs, path+".tmp")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("should replace an existing transcript", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(fs, "/rec/call_transcription.txt", []byte("old"), 0644))
		writer := NewWriter(zap.NewNop(), fs)

		path, err := writer.Write("/rec/call.mp3", Header{AudioFile: "call.mp3", GeneratedAt: generatedAt}, "New text.")

		require.NoError(t, err)
		content, err := afero.ReadFile(fs, path)
		require.NoError(t, err)
		assert.Contains(t, string(content), "New text.")
		assert.NotContains(t, string(content), "old")
	})

	t.Run("should fail without touching anything on a read-only filesystem", func(t *testing.T) {
		base := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(base, "/rec/call.mp3", []byte("audio"), 0644))
		writer := NewWriter(zap.NewNop(), afero.NewReadOnlyFs(base))

		_, err := writer.Write("/rec/call.mp3", Header{AudioFile: "call.mp3", GeneratedAt: generatedAt}, "text")

		require.Error(t, err)
		assert.ErrorIs(t, err, os.ErrPermission)
		exists, _ := afero.Exists(base, "/rec/call_transcription.txt")
		assert.False(t, exists)
	})
}
