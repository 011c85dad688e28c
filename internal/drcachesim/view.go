package drcachesim

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Kind classifies a view record.
type Kind int

const (
	KindUnknown Kind = iota
	KindRead
	KindWrite
	KindIfetch
	KindMarker
)

func (k Kind) String() string {
	switch k {
	case KindRead:
		return "read"
	case KindWrite:
		return "write"
	case KindIfetch:
		return "ifetch"
	case KindMarker:
		return "marker"
	default:
		return "unknown"
	}
}

// Op returns the single letter used in the access CSV, or "" for records
// that are not memory accesses.
func (k Kind) Op() string {
	switch k {
	case KindRead:
		return "R"
	case KindWrite:
		return "W"
	case KindIfetch:
		return "I"
	default:
		return ""
	}
}

// IsAccess reports whether the kind touches memory.
func (k Kind) IsAccess() bool {
	return k == KindRead || k == KindWrite || k == KindIfetch
}

// Record is one line of drcachesim's view output.
type Record struct {
	Line    int
	TID     string
	Kind    Kind
	Size    int
	Address uint64
	// Timestamp is set on timestamp markers only.
	Timestamp    uint64
	HasTimestamp bool
}

const viewHeaderLines = 3

// ReadView streams the records of a view listing to fn. The listing's
// header lines are skipped and reading stops at the "View tool results"
// trailer. Lines with an unrecognised kind are passed through as
// KindUnknown so callers can count them.
func ReadView(r io.Reader, fn func(Record) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		if line <= viewHeaderLines {
			continue
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if fields[0] == "View" {
			return nil
		}
		rec, err := parseViewLine(fields)
		if err != nil {
			return fmt.Errorf("view line %d: %w", line, err)
		}
		rec.Line = line
		if err := fn(rec); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read view output: %w", err)
	}
	return nil
}

// ReadViewFile collects every record of a view listing.
func ReadViewFile(r io.Reader) ([]Record, error) {
	var records []Record
	err := ReadView(r, func(rec Record) error {
		records = append(records, rec)
		return nil
	})
	return records, err
}

func parseViewLine(fields []string) (Record, error) {
	if len(fields) < 4 {
		return Record{Kind: KindUnknown}, nil
	}
	rec := Record{TID: fields[2]}

	switch fields[3] {
	case "<marker:":
		rec.Kind = KindMarker
		if len(fields) >= 6 && fields[4] == "timestamp" {
			ts, err := strconv.ParseUint(strings.TrimSuffix(fields[5], ">"), 10, 64)
			if err != nil {
				return rec, fmt.Errorf("invalid timestamp %q: %w", fields[5], err)
			}
			rec.Timestamp = ts
			rec.HasTimestamp = true
		}
		return rec, nil
	case "read":
		rec.Kind = KindRead
	case "write":
		rec.Kind = KindWrite
	case "ifetch":
		rec.Kind = KindIfetch
	default:
		rec.Kind = KindUnknown
		return rec, nil
	}

	if len(fields) < 8 {
		return rec, fmt.Errorf("truncated %s record", rec.Kind)
	}
	if fields[5] != "byte(s)" {
		return rec, fmt.Errorf("expected %q after size, got %q", "byte(s)", fields[5])
	}
	size, err := strconv.Atoi(fields[4])
	if err != nil {
		return rec, fmt.Errorf("invalid size %q: %w", fields[4], err)
	}
	addr, err := strconv.ParseUint(fields[7], 0, 64)
	if err != nil {
		return rec, fmt.Errorf("invalid address %q: %w", fields[7], err)
	}
	rec.Size = size
	rec.Address = addr
	return rec, nil
}
