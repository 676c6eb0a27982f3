package transcript

import "fmt"

// FormatSRT renders a second offset as an SRT timecode: HH:MM:SS,mmm.
// Negative offsets are clamped to zero. Hours grow past two digits unbounded.
func FormatSRT(seconds float64) string {
	return formatTimecode(seconds, ',')
}

// FormatVTT renders a second offset as a WebVTT timecode: HH:MM:SS.mmm.
// Negative offsets are clamped to zero.
func FormatVTT(seconds float64) string {
	return formatTimecode(seconds, '.')
}

// formatTimecode truncates rather than rounds: the millisecond field is the
// floor of the fractional part.
func formatTimecode(seconds float64, sep byte) string {
	if seconds < 0 {
		seconds = 0
	}
	total := int64(seconds)
	hours := total / 3600
	minutes := (total % 3600) / 60
	secs := total % 60
	millis := int64((seconds - float64(total)) * 1000)
	return fmt.Sprintf("%02d:%02d:%02d%c%03d", hours, minutes, secs, sep, millis)
}
