// Package media validates audio inputs before any model runs.
package media

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/afero"
)

var (
	// ErrInput is the parent of every input validation error.
	ErrInput = errors.New("invalid input")
	// ErrFileNotFound reports a missing audio file.
	ErrFileNotFound = fmt.Errorf("%w: file not found", ErrInput)
	// ErrUnsupportedFormat reports an extension the speech engine cannot read.
	ErrUnsupportedFormat = fmt.Errorf("%w: unsupported file format", ErrInput)
)

// SupportedFormats lists the accepted extensions in display order
var SupportedFormats = []string{".mp3", ".mp4", ".mpeg", ".mpga", ".m4a", ".wav", ".webm", ".ogg", ".flac"}

// AudioFile describes a validated input file
type AudioFile struct {
	Path      string
	Name      string
	Stem      string
	Extension string
	Size      int64
	// MIMEType is sniffed from the content; it is informational only.
	MIMEType string
}

// LooksLikeMedia reports whether the sniffed content is audio or video
func (a *AudioFile) LooksLikeMedia() bool {
	return strings.HasPrefix(a.MIMEType, "audio/") || strings.HasPrefix(a.MIMEType, "video/")
}

// IsSupported reports whether ext (with leading dot, any case) is accepted
func IsSupported(ext string) bool {
	ext = strings.ToLower(ext)
	for _, supported := range SupportedFormats {
		if ext == supported {
			return true
		}
	}
	return false
}

// Validate checks that path exists, is a regular file and has a supported
// extension. The extension check is authoritative; the sniffed MIME type is
// only recorded.
func Validate(fs afero.Fs, path string) (*AudioFile, error) {
	info, err := fs.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrFileNotFound, path)
	}

	name := filepath.Base(path)
	ext := strings.ToLower(filepath.Ext(name))
	if !IsSupported(ext) {
		shown := ext
		if shown == "" {
			shown = "(none)"
		}
		return nil, fmt.Errorf("%w: %s (supported formats: %s)", ErrUnsupportedFormat, shown, strings.Join(SupportedFormats, ", "))
	}

	audio := &AudioFile{
		Path:      path,
		Name:      name,
		Stem:      strings.TrimSuffix(name, filepath.Ext(name)),
		Extension: ext,
		Size:      info.Size(),
	}
	audio.MIMEType = detectMIME(fs, path)
	return audio, nil
}

// detectMIME sniffs the file header, returning "" when the file cannot be read
func detectMIME(fs afero.Fs, path string) string {
	f, err := fs.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()

	mtype, err := mimetype.DetectReader(f)
	if err != nil {
		return ""
	}
	return mtype.String()
}
