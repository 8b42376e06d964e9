package transcript

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"localtranscriber/internal/turns"
)

func TestFormatPlain(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "should break after each sentence",
			input:    " Hello there. How are you? I am fine! Thanks. ",
			expected: "Hello there.\n\nHow are you?\n\nI am fine!\n\nThanks.",
		},
		{
			name:     "should break before a quoted sentence",
			input:    `He stopped. "Wait," she said. 'Fine.'`,
			expected: "He stopped.\n\n\"Wait,\" she said.\n\n'Fine.'",
		},
		{
			name:     "should not break before lowercase text",
			input:    "Version 2. the next one. e.g. this",
			expected: "Version 2. the next one. e.g. this",
		},
		{
			name:     "should not break without whitespace",
			input:    "Visit example.Com today.Really",
			expected: "Visit example.Com today.Really",
		},
		{
			name:     "should collapse a whitespace run into the break",
			input:    "First.\n   \tSecond.",
			expected: "First.\n\nSecond.",
		},
		{
			name:     "should break after a non-breaking space",
			input:    "One.\u00a0Next.",
			expected: "One.\n\nNext.",
		},
		{
			name:     "should break after unicode separators",
			input:    "One.\vTwo.\u2003Three.\u2028Four.\u0085Five.",
			expected: "One.\n\nTwo.\n\nThree.\n\nFour.\n\nFive.",
		},
		{
			name:     "should handle empty text",
			input:    "   ",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatPlain(tt.input))
		})
	}
}

func TestFormatDiarized(t *testing.T) {
	t.Run("should render one labelled line per turn", func(t *testing.T) {
		// Arrange
		speakerTurns := []turns.Turn{
			{Speaker: "SPEAKER_00", Start: 0.4, End: 4, Text: "hi there"},
			{Speaker: "SPEAKER_01", Start: 65.7, End: 70, Text: "bye"},
			{Speaker: "SPEAKER_00", Start: 3725, End: 3730, Text: "later"},
		}

		// Act
		body := FormatDiarized(speakerTurns)

		// Assert
		assert.Equal(t, "SPEAKER_00 [0:00]: hi there\n\nSPEAKER_01 [1:05]: bye\n\nSPEAKER_00 [1:02:05]: later", body)
	})

	t.Run("should render nothing for no turns", func(t *testing.T) {
		assert.Equal(t, "", FormatDiarized(nil))
	})

	t.Run("should be byte-identical across calls", func(t *testing.T) {
		speakerTurns := []turns.Turn{
			{Speaker: "A", Start: 1, End: 2, Text: "one"},
			{Speaker: "B", Start: 2, End: 3, Text: "two"},
		}

		assert.Equal(t, FormatDiarized(speakerTurns), FormatDiarized(speakerTurns))
		assert.Equal(t, Format(ModePlain, "A. B.", nil), Format(ModePlain, "A. B.", nil))
	})
}

func TestFormat(t *testing.T) {
	speakerTurns := []turns.Turn{{Speaker: "SPEAKER_00", Start: 0, End: 1, Text: "Hello."}}

	t.Run("should reflow text in plain mode", func(t *testing.T) {
		assert.Equal(t, "Hello.\n\nBye.", Format(ModePlain, "Hello. Bye.", speakerTurns))
	})

	t.Run("should render turns in diarized mode", func(t *testing.T) {
		assert.Equal(t, "SPEAKER_00 [0:00]: Hello.", Format(ModeDiarized, "Hello. Bye.", speakerTurns))
	})

	t.Run("should name modes", func(t *testing.T) {
		assert.Equal(t, "plain", ModePlain.String())
		assert.Equal(t, "diarized", ModeDiarized.String())
	})
}
