package document

import (
	"bufio"
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// SRT time format: 00:02:16,612 --> 00:02:19,376
var srtTimeRE = regexp.MustCompile(`(\d{2}):(\d{2}):(\d{2}),(\d{3}) --> (\d{2}):(\d{2}):(\d{2}),(\d{3})`)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

func parseSRT(data []byte) (*Document, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if !utf8.Valid(data) {
		return nil, &ParseError{Format: FormatSRT, Msg: "file is not valid UTF-8"}
	}

	var units []Unit
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	current := Unit{}
	state := "index" // possible values: "index", "time", "text"
	var textLines []string
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())

		switch state {
		case "index":
			if line == "" {
				continue
			}
			index, err := strconv.Atoi(line)
			if err != nil {
				return nil, &ParseError{
					Format: FormatSRT,
					Line:   lineNo,
					Msg:    fmt.Sprintf("expected cue index, got %q", line),
					Cause:  err,
				}
			}
			current.Index = index
			state = "time"

		case "time":
			if line == "" {
				return nil, &ParseError{
					Format: FormatSRT,
					Line:   lineNo,
					Msg:    fmt.Sprintf("cue %d is missing its timestamp line", current.Index),
				}
			}
			startTime, endTime, err := parseSRTTime(line)
			if err != nil {
				return nil, &ParseError{
					Format: FormatSRT,
					Line:   lineNo,
					Msg:    err.Error(),
					Cause:  err,
				}
			}
			current.StartTime = startTime
			current.EndTime = endTime
			state = "text"
			textLines = nil

		case "text":
			if line == "" {
				// cue text ends; an empty cue is kept so indices stay aligned
				current.Text = strings.Join(textLines, "\n")
				units = append(units, current)
				current = Unit{}
				state = "index"
				textLines = nil
			} else {
				textLines = append(textLines, line)
			}
		}
	}

	// final cue without a trailing blank separator
	switch state {
	case "text":
		current.Text = strings.Join(textLines, "\n")
		units = append(units, current)
	case "time":
		return nil, &ParseError{
			Format: FormatSRT,
			Line:   lineNo,
			Msg:    fmt.Sprintf("cue %d is missing its timestamp line", current.Index),
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, &ParseError{Format: FormatSRT, Msg: "failed to read input", Cause: err}
	}

	return &Document{
		Units:    units,
		Format:   FormatSRT,
		Language: detectLanguage(units),
	}, nil
}

func parseSRTTime(timeString string) (time.Duration, time.Duration, error) {
	matches := srtTimeRE.FindStringSubmatch(timeString)
	if len(matches) != 9 {
		return 0, 0, fmt.Errorf("invalid time format: %s", timeString)
	}

	parseTime := func(hours, minutes, seconds, milliseconds string) time.Duration {
		h, _ := strconv.Atoi(hours)
		m, _ := strconv.Atoi(minutes)
		s, _ := strconv.Atoi(seconds)
		ms, _ := strconv.Atoi(milliseconds)

		return time.Duration(h)*time.Hour +
			time.Duration(m)*time.Minute +
			time.Duration(s)*time.Second +
			time.Duration(ms)*time.Millisecond
	}

	start := parseTime(matches[1], matches[2], matches[3], matches[4])
	end := parseTime(matches[5], matches[6], matches[7], matches[8])
	return start, end, nil
}

func serializeSRT(doc *Document) []byte {
	var buf bytes.Buffer
	for i, unit := range doc.Units {
		if i > 0 {
			buf.WriteByte('\n')
		}
		fmt.Fprintf(&buf, "%d\n", unit.Index)
		fmt.Fprintf(&buf, "%s --> %s\n", formatDuration(unit.StartTime), formatDuration(unit.EndTime))
		fmt.Fprintf(&buf, "%s\n", unit.Output())
	}
	return buf.Bytes()
}

// formatDuration formats time.Duration to SRT time format
func formatDuration(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60
	milliseconds := int(d.Milliseconds()) % 1000

	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, seconds, milliseconds)
}
