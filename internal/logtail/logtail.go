// Package logtail reads the end of reviewdeck's own log file for the
// in-app diagnostics view.
package logtail

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"
)

// Read returns at most maxLines from the end of the file at path. A missing
// file yields no lines and no error.
func Read(path string, maxLines int) ([]string, error) {
	if maxLines <= 0 {
		return nil, nil
	}
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer file.Close()

	ring := make([]string, maxLines)
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	count := 0
	idx := 0
	for scanner.Scan() {
		ring[idx] = scanner.Text()
		idx = (idx + 1) % maxLines
		if count < maxLines {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}

	lines := make([]string, count)
	if count == maxLines {
		for i := 0; i < count; i++ {
			lines[i] = ring[(idx+i)%maxLines]
		}
	} else {
		copy(lines, ring[:count])
	}
	return lines, nil
}

// Entry is one decoded JSON log line.
type Entry struct {
	Time    time.Time
	Level   string
	Message string
	Fields  map[string]any
}

var reservedKeys = map[string]struct{}{
	"ts": {}, "level": {}, "msg": {}, "caller": {}, "logger": {}, "stacktrace": {},
}

// Parse decodes a JSON log line. ok is false for lines that are not JSON
// objects.
func Parse(line string) (Entry, bool) {
	var raw map[string]any
	if err := json.Unmarshal([]byte(line), &raw); err != nil {
		return Entry{}, false
	}
	entry := Entry{Fields: map[string]any{}}
	if ts, ok := raw["ts"].(string); ok {
		if parsed, err := time.Parse("2006-01-02T15:04:05.000Z0700", ts); err == nil {
			entry.Time = parsed
		}
	}
	entry.Level, _ = raw["level"].(string)
	entry.Message, _ = raw["msg"].(string)
	for k, v := range raw {
		if _, skip := reservedKeys[k]; skip {
			continue
		}
		entry.Fields[k] = v
	}
	return entry, true
}

// Format renders a log line for display: "15:04:05 WARN message key=value".
// Lines that are not JSON are returned unchanged.
func Format(line string) string {
	entry, ok := Parse(line)
	if !ok {
		return line
	}
	var b strings.Builder
	if !entry.Time.IsZero() {
		b.WriteString(entry.Time.Local().Format("15:04:05"))
		b.WriteByte(' ')
	}
	if entry.Level != "" {
		b.WriteString(strings.ToUpper(entry.Level))
		b.WriteByte(' ')
	}
	b.WriteString(entry.Message)

	keys := make([]string, 0, len(entry.Fields))
	for k := range entry.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, entry.Fields[k])
	}
	return b.String()
}
