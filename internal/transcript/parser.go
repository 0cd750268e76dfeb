// Package transcript parses exported chat logs into ordered messages.
package transcript

import (
	"bufio"
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/mindmesh-ai/companion-hub/internal/model"
)

// ErrEmptyTranscript is returned when no messages could be parsed at all.
// Individual malformed lines are skipped, never fatal.
var ErrEmptyTranscript = errors.New("empty transcript")

// Export line format: "12/03/24, 9:41 PM - Alice: running late, sorry!!"
// System notices ("Alice created group ...") have no "Sender: " segment
// and fall through to the continuation/skip path.
var messageLine = regexp.MustCompile(
	`^(\d{1,2})/(\d{1,2})/(\d{2,4}),\s+(\d{1,2}):(\d{2})\s*([AaPp][Mm])\s+-\s+([^:]+):\s(.*)$`,
)

var mediaMarkers = []string{
	"<media omitted>",
	"<attached:",
	"image omitted",
	"video omitted",
	"audio omitted",
	"sticker omitted",
}

// Parse turns a raw exported chat log into an ordered message sequence.
// Lines that do not match the message format extend the previous message
// (multi-line content) or are skipped when no message precedes them.
func Parse(raw string) ([]model.ChatMessage, error) {
	var messages []model.ChatMessage

	scanner := bufio.NewScanner(strings.NewReader(raw))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		m := messageLine.FindStringSubmatch(line)
		if m == nil {
			// Continuation of a multi-line message; standalone system
			// notices before the first message are dropped.
			if n := len(messages); n > 0 {
				messages[n-1].Content += "\n" + line
				if !messages[n-1].IsMedia {
					messages[n-1].IsMedia = isMedia(messages[n-1].Content)
				}
			}
			continue
		}

		ts, ok := parseTimestamp(m[1], m[2], m[3], m[4], m[5], m[6])
		if !ok {
			continue
		}

		content := m[8]
		messages = append(messages, model.ChatMessage{
			Timestamp: ts,
			Sender:    strings.TrimSpace(m[7]),
			Content:   content,
			IsMedia:   isMedia(content),
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if len(messages) == 0 {
		return nil, ErrEmptyTranscript
	}
	return messages, nil
}

// parseTimestamp normalizes the export's 12-hour clock to 24-hour time.
// 12 AM maps to hour 0 and 12 PM stays 12.
func parseTimestamp(dayS, monthS, yearS, hourS, minuteS, meridiem string) (time.Time, bool) {
	day, _ := strconv.Atoi(dayS)
	month, _ := strconv.Atoi(monthS)
	year, _ := strconv.Atoi(yearS)
	hour, _ := strconv.Atoi(hourS)
	minute, _ := strconv.Atoi(minuteS)

	if year < 100 {
		year += 2000
	}
	if month < 1 || month > 12 || day < 1 || day > 31 || hour < 1 || hour > 12 || minute > 59 {
		return time.Time{}, false
	}

	switch strings.ToUpper(meridiem) {
	case "AM":
		if hour == 12 {
			hour = 0
		}
	case "PM":
		if hour != 12 {
			hour += 12
		}
	}

	return time.Date(year, time.Month(month), day, hour, minute, 0, 0, time.UTC), true
}

// isMedia reports whether content is a media placeholder or carries a URL.
func isMedia(content string) bool {
	lower := strings.ToLower(content)
	for _, marker := range mediaMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return strings.Contains(lower, "http://") || strings.Contains(lower, "https://")
}
