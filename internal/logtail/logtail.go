package logtail

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/five82/statekit/internal/ringbuf"
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

	ring := ringbuf.New[string](maxLines)
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		ring.Append(scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}
	return ring.Items(), nil
}

// Entry is one structured log record.
type Entry struct {
	Time    time.Time
	Level   string
	Message string
	Attrs   map[string]string
	Raw     string
}

// ReadEntries is Read followed by Parse on every line.
func ReadEntries(path string, maxLines int) ([]Entry, error) {
	lines, err := Read(path, maxLines)
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(lines))
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		entries = append(entries, Parse(line))
	}
	return entries, nil
}

// Parse decodes a line written by slog's JSON handler. Lines that are not
// JSON objects come back with only Raw and Message set.
func Parse(line string) Entry {
	e := Entry{Raw: line, Message: line}
	var fields map[string]any
	if err := json.Unmarshal([]byte(line), &fields); err != nil {
		return e
	}
	if v, ok := fields["time"].(string); ok {
		if ts, err := time.Parse(time.RFC3339Nano, v); err == nil {
			e.Time = ts
		}
	}
	if v, ok := fields["level"].(string); ok {
		e.Level = v
	}
	if v, ok := fields["msg"].(string); ok {
		e.Message = v
	}
	delete(fields, "time")
	delete(fields, "level")
	delete(fields, "msg")
	if len(fields) > 0 {
		e.Attrs = make(map[string]string, len(fields))
		for k, v := range fields {
			e.Attrs[k] = fmt.Sprint(v)
		}
	}
	return e
}

// Format renders e on one line: time, level, message, then attributes in
// key order.
func (e Entry) Format() string {
	var b strings.Builder
	if !e.Time.IsZero() {
		b.WriteString(e.Time.Local().Format("15:04:05"))
		b.WriteByte(' ')
	}
	if e.Level != "" {
		fmt.Fprintf(&b, "%-5s ", e.Level)
	}
	b.WriteString(e.Message)
	for _, k := range slices.Sorted(maps.Keys(e.Attrs)) {
		fmt.Fprintf(&b, " %s=%s", k, e.Attrs[k])
	}
	return b.String()
}
