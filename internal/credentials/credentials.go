// Package credentials finds the HuggingFace token needed by the gated
// diarization pipeline.
package credentials

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// TokenKey is the variable read from the connector env file.
const TokenKey = "HUGGINGFACE_API_TOKEN"

// ErrAuthentication reports that no usable token was found.
var ErrAuthentication = errors.New("huggingface connector not configured")

// MissingTokenGuidance tells the user how to enable diarization.
const MissingTokenGuidance = `To enable speaker diarization:
  1. Set up the HuggingFace connector (HUGGINGFACE_API_TOKEN in the connector .env file)
  2. Accept the pyannote model licenses

Or run without --diarize for basic transcription.`

// RejectedTokenGuidance tells the user what to check after a 401/403.
const RejectedTokenGuidance = `Make sure you have:
  1. Configured the HuggingFace connector
  2. Accepted the pyannote model licenses at:
     - https://huggingface.co/pyannote/speaker-diarization-3.1
     - https://huggingface.co/pyannote/segmentation-3.0`

// Token is a resolved token and where it came from
type Token struct {
	Value  string
	Source string
}

// Resolver looks the token up in the connector file, then in configuration
type Resolver struct {
	fs         afero.Fs
	tokenFile  string
	configured string
	logger     *zap.Logger
}

// NewResolver creates a Resolver. configured is the token supplied through
// config or environment, used when the connector file has none.
func NewResolver(logger *zap.Logger, fs afero.Fs, tokenFile, configured string) *Resolver {
	return &Resolver{
		fs:         fs,
		tokenFile:  tokenFile,
		configured: strings.TrimSpace(configured),
		logger:     logger,
	}
}

// Lookup returns the first non-empty token, or ErrAuthentication.
func (r *Resolver) Lookup() (*Token, error) {
	if r.tokenFile != "" {
		value, err := r.readTokenFile()
		switch {
		case err != nil:
			r.logger.Warn("failed to read connector file",
				zap.String("component", "credentials"),
				zap.String("path", r.tokenFile),
				zap.Error(err))
		case value != "":
			return &Token{Value: value, Source: r.tokenFile}, nil
		}
	}

	if r.configured != "" {
		return &Token{Value: r.configured, Source: "configuration"}, nil
	}

	return nil, fmt.Errorf("%w: no %s in %s or configuration", ErrAuthentication, TokenKey, r.tokenFile)
}

// readTokenFile parses the env file without touching the process environment.
// A missing file yields an empty token.
func (r *Resolver) readTokenFile() (string, error) {
	f, err := r.fs.Open(r.tokenFile)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", err
	}
	defer f.Close()

	values, err := godotenv.Parse(f)
	if err != nil {
		return "", fmt.Errorf("failed to parse %s: %w", r.tokenFile, err)
	}
	return strings.TrimSpace(values[TokenKey]), nil
}
