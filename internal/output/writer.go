// Package output persists finished transcripts beside their audio file.
package output

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const (
	diarizedSuffix = "_diarized"
	plainSuffix    = "_transcription"

	dateLayout = "2006-01-02 15:04:05"
)

// Header is the metadata block written above the transcript body
type Header struct {
	AudioFile   string
	GeneratedAt time.Time
	// Speakers is only written for diarized transcripts.
	Speakers int
	Diarized bool
}

// String renders the header including the trailing separator
func (h Header) String() string {
	var b strings.Builder
	b.WriteString("TRANSCRIPTION\n\n")
	fmt.Fprintf(&b, "Audio File: %s\n", h.AudioFile)
	fmt.Fprintf(&b, "Date: %s\n", h.GeneratedAt.Format(dateLayout))
	if h.Diarized {
		fmt.Fprintf(&b, "Speakers: %d\n", h.Speakers)
	}
	b.WriteString("\n---\n\n")
	return b.String()
}

// OutputPath returns the transcript path beside audioPath
func OutputPath(audioPath string, diarized bool) string {
	dir := filepath.Dir(audioPath)
	base := filepath.Base(audioPath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))

	suffix := plainSuffix
	if diarized {
		suffix = diarizedSuffix
	}
	return filepath.Join(dir, stem+suffix+".txt")
}

// Writer writes transcripts through an afero filesystem
type Writer struct {
	fs     afero.Fs
	logger *zap.Logger
}

// NewWriter creates a Writer
func NewWriter(logger *zap.Logger, fs afero.Fs) *Writer {
	return &Writer{fs: fs, logger: logger}
}

// Write stores header and body at OutputPath and returns that path. The
// content goes to a temporary file first and is renamed into place, so an
// existing transcript is never left half-written.
func (w *Writer) Write(audioPath string, header Header, body string) (path string, err error) {
	path = OutputPath(audioPath, header.Diarized)
	tempFile := path + ".tmp"

	out, err := w.fs.Create(tempFile)
	if err != nil {
		return "", fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = w.fs.Remove(tempFile)
		}
	}()

	_, err = out.WriteString(header.String() + body)
	err = multierr.Append(err, out.Close())
	if err != nil {
		return "", fmt.Errorf("failed to write transcript: %w", err)
	}

	if err = w.fs.Rename(tempFile, path); err != nil {
		return "", fmt.Errorf("failed to move transcript to final location: %w", err)
	}

	w.logger.Info("transcript saved",
		zap.String("component", "output"),
		zap.String("path", path),
		zap.Bool("diarized", header.Diarized),
		zap.Int("bytes", len(header.String())+len(body)))

	return path, nil
}
