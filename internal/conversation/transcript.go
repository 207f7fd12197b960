package conversation

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// Transcript layout.
const (
	TranscriptTitle = "易經占卜陳老師 - 對話記錄"
	UserLabel       = "【用戶】"
	BotLabel        = "【陳老師】"
	ruleWidth       = 50
)

// TranscriptFileName returns the export file name for the given day.
func TranscriptFileName(t time.Time) string {
	return fmt.Sprintf("易經占卜對話記錄_%s.txt", t.Format("2006-01-02"))
}

// WriteTranscript writes a plain-text transcript of entries to w.
// Placeholders are skipped; they never represent a settled turn.
func WriteTranscript(w io.Writer, entries []Entry, generated time.Time) error {
	var sb strings.Builder
	heavy := strings.Repeat("=", ruleWidth)
	light := strings.Repeat("-", ruleWidth)

	sb.WriteString(TranscriptTitle + "\n")
	sb.WriteString(heavy + "\n")
	sb.WriteString("下載時間：" + generated.Format("2006/01/02 15:04:05") + "\n")
	sb.WriteString(heavy + "\n\n")

	for _, e := range entries {
		if e.Placeholder {
			continue
		}
		label := BotLabel
		if e.Role == RoleUser {
			label = UserLabel
		}
		sb.WriteString(label + "\n")
		sb.WriteString(strings.TrimSpace(e.Content) + "\n\n")
		sb.WriteString(light + "\n\n")
	}

	if _, err := io.WriteString(w, sb.String()); err != nil {
		return fmt.Errorf("write transcript: %w", err)
	}
	return nil
}

// Transcript returns the transcript as a string.
func Transcript(entries []Entry, generated time.Time) string {
	var sb strings.Builder
	_ = WriteTranscript(&sb, entries, generated)
	return sb.String()
}

// HasTurns reports whether entries contain anything worth exporting.
func HasTurns(entries []Entry) bool {
	for _, e := range entries {
		if !e.Placeholder {
			return true
		}
	}
	return false
}
