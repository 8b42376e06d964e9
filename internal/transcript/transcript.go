// Package transcript renders transcription results as readable text.
package transcript

import (
	"fmt"
	"regexp"
	"strings"

	"localtranscriber/internal/turns"
)

// Mode selects how a transcript body is rendered.
type Mode int

const (
	// ModePlain reflows the engine's full text into paragraphs.
	ModePlain Mode = iota
	// ModeDiarized renders one labelled, timestamped line per speaker turn.
	ModeDiarized
)

// String returns the mode name
func (m Mode) String() string {
	switch m {
	case ModePlain:
		return "plain"
	case ModeDiarized:
		return "diarized"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// sentenceBreak matches terminal punctuation, the whitespace after it, and
// the uppercase letter or quote that opens the next sentence. Whitespace
// covers Unicode separators such as NBSP, not only ASCII spaces.
var sentenceBreak = regexp.MustCompile(`([.!?])[\s\v\x{1c}-\x{1f}\x{85}\p{Z}]+(["'A-Z])`)

// FormatPlain inserts a paragraph break after each sentence that is followed
// by whitespace and an uppercase letter or quote.
func FormatPlain(text string) string {
	return sentenceBreak.ReplaceAllString(strings.TrimSpace(text), "$1\n\n$2")
}

// FormatDiarized renders each turn as "<speaker> [<timestamp>]: <text>" with
// a blank line between turns.
func FormatDiarized(speakerTurns []turns.Turn) string {
	lines := make([]string, 0, len(speakerTurns))
	for _, turn := range speakerTurns {
		lines = append(lines, fmt.Sprintf("%s [%s]: %s", turn.Speaker, FormatTimestamp(turn.Start), turn.Text))
	}
	return strings.Join(lines, "\n\n")
}

// Format renders the body for mode. Plain mode uses text, diarized mode uses
// speakerTurns.
func Format(mode Mode, text string, speakerTurns []turns.Turn) string {
	if mode == ModeDiarized {
		return FormatDiarized(speakerTurns)
	}
	return FormatPlain(text)
}
