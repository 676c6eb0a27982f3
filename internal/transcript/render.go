package transcript

import (
	"fmt"
	"strings"

	"github.com/conceptbridge/transcription-api/internal/model"
)

// RenderText returns the raw transcript text.
func RenderText(res *model.TranscriptionResult) string {
	return res.Text
}

// RenderSRT renders the segments as a SubRip document: 1-based sequence
// number, timecode line, text, blank line.
func RenderSRT(res *model.TranscriptionResult) string {
	var b strings.Builder
	for i, seg := range res.Segments {
		fmt.Fprintf(&b, "%d\n%s --> %s\n%s\n\n", i+1, FormatSRT(seg.Start), FormatSRT(seg.End), seg.Text)
	}
	return b.String()
}

// RenderVTT renders the segments as a WebVTT document: WEBVTT header, blank
// line, then one cue per segment.
func RenderVTT(res *model.TranscriptionResult) string {
	var b strings.Builder
	b.WriteString("WEBVTT\n\n")
	for _, seg := range res.Segments {
		fmt.Fprintf(&b, "%s --> %s\n%s\n\n", FormatVTT(seg.Start), FormatVTT(seg.End), seg.Text)
	}
	return b.String()
}
