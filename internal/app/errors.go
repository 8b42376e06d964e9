package app

import (
	"errors"

	"localtranscriber/internal/credentials"
	"localtranscriber/internal/diarizer"
	"localtranscriber/internal/media"
	"localtranscriber/internal/transcriber"
)

// Errors returned by Run, classified with errors.Is
var (
	ErrInput             = media.ErrInput
	ErrFileNotFound      = media.ErrFileNotFound
	ErrUnsupportedFormat = media.ErrUnsupportedFormat
	ErrMissingToken      = credentials.ErrAuthentication
	ErrRejectedToken     = diarizer.ErrAuthentication
	ErrTranscription     = transcriber.ErrInference
	ErrDiarization       = diarizer.ErrInference
	ErrConfiguration     = errors.New("invalid configuration")
)

// IsAuthenticationError reports whether err is a missing or rejected token
func IsAuthenticationError(err error) bool {
	return errors.Is(err, ErrMissingToken) || errors.Is(err, ErrRejectedToken)
}

// Guidance returns the setup hint shown to the user for err, or "".
func Guidance(err error) string {
	switch {
	case errors.Is(err, ErrMissingToken):
		return credentials.MissingTokenGuidance
	case errors.Is(err, ErrRejectedToken):
		return credentials.RejectedTokenGuidance
	}
	return ""
}
