package dhttrace

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strings"
)

// NormalizeTimestamp zero-pads the clock part of a log timestamp
// ("2024-11-12 9:5:1.7" becomes "2024-11-12 09:05:01.007") so that string
// order equals time order. Timestamps of any other shape are returned
// trimmed but otherwise unchanged.
func NormalizeTimestamp(raw string) Timestamp {
	raw = strings.TrimSpace(raw)

	var date, clock = "", raw
	if i := strings.LastIndexByte(raw, ' '); i >= 0 {
		date, clock = raw[:i+1], raw[i+1:]
	}

	var parts = strings.Split(clock, ":")
	if len(parts) != 3 {
		return Timestamp(raw)
	}

	var secMillis = strings.Split(parts[2], ".")
	if len(secMillis) != 2 {
		return Timestamp(raw)
	}

	return Timestamp(fmt.Sprintf("%s%s:%s:%s.%s",
		date,
		leftPad(parts[0], 2),
		leftPad(parts[1], 2),
		leftPad(secMillis[0], 2),
		leftPad(secMillis[1], 3)))
}

func leftPad(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return strings.Repeat("0", width-len(s)) + s
}

// SortLog normalises the timestamp of every line of a raw log and writes the
// lines back in time order. Lines with equal timestamps keep their relative
// order. Blank lines are dropped.
func SortLog(r io.Reader, w io.Writer) (int, error) {
	var (
		scanner = bufio.NewScanner(r)
		entries []string
	)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	for scanner.Scan() {
		var line = strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var stamp, rest, found = strings.Cut(line, ",")
		if !found {
			return 0, lineError(len(entries)+1, ErrMalformedLine, line)
		}
		entries = append(entries, string(NormalizeTimestamp(stamp))+","+rest)
	}
	if err := scanner.Err(); err != nil {
		return 0, fmt.Errorf("failed to read log: %w", err)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		var a, _, _ = strings.Cut(entries[i], ",")
		var b, _, _ = strings.Cut(entries[j], ",")
		return a < b
	})

	var bw = bufio.NewWriter(w)
	for _, entry := range entries {
		if _, err := bw.WriteString(entry + "\n"); err != nil {
			return 0, fmt.Errorf("failed to write log: %w", err)
		}
	}
	if err := bw.Flush(); err != nil {
		return 0, fmt.Errorf("failed to write log: %w", err)
	}

	return len(entries), nil
}
