package transcript

import (
	"fmt"
	"math"
)

// FormatTimestamp renders seconds as M:SS, or H:MM:SS from one hour up.
// Fractions are truncated, never rounded up; negative input renders as 0:00.
func FormatTimestamp(seconds float64) string {
	if math.IsNaN(seconds) || seconds < 0 {
		seconds = 0
	}
	total := int64(seconds)

	hours := total / 3600
	minutes := (total % 3600) / 60
	secs := total % 60

	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, secs)
	}
	return fmt.Sprintf("%d:%02d", minutes, secs)
}
