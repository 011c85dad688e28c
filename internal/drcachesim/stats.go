package drcachesim

import (
	"math"
	"strconv"
	"strings"
)

// Stats summarises the accesses of a trace.
type Stats struct {
	MinTimestamp uint64
	MaxTimestamp uint64
	HasTimestamp bool

	MinAddress uint64
	MaxAddress uint64
	HasAddress bool

	BytesRead  int64
	BytesWrite int64

	Reads   int64
	Writes  int64
	Ifetchs int64
}

// Add folds one record into the statistics. Instruction fetches always
// widen the address range; IgnoreIfetch only affects the percentages.
func (s *Stats) Add(rec Record) {
	switch {
	case rec.Kind == KindMarker:
		if !rec.HasTimestamp {
			return
		}
		if !s.HasTimestamp || rec.Timestamp < s.MinTimestamp {
			s.MinTimestamp = rec.Timestamp
		}
		if !s.HasTimestamp || rec.Timestamp > s.MaxTimestamp {
			s.MaxTimestamp = rec.Timestamp
		}
		s.HasTimestamp = true
	case rec.Kind.IsAccess():
		if !s.HasAddress || rec.Address < s.MinAddress {
			s.MinAddress = rec.Address
		}
		if !s.HasAddress || rec.Address > s.MaxAddress {
			s.MaxAddress = rec.Address
		}
		s.HasAddress = true
		switch rec.Kind {
		case KindRead:
			s.BytesRead += int64(rec.Size)
			s.Reads++
		case KindWrite:
			s.BytesWrite += int64(rec.Size)
			s.Writes++
		case KindIfetch:
			s.Ifetchs++
		}
	}
}

// CollectStats folds every record.
func CollectStats(records []Record) Stats {
	var s Stats
	for _, rec := range records {
		s.Add(rec)
	}
	return s
}

// AddressSpan is the distance between the lowest and highest address.
func (s Stats) AddressSpan() uint64 {
	if !s.HasAddress {
		return 0
	}
	return s.MaxAddress - s.MinAddress
}

// TimeSpan is the distance between the first and last timestamp marker,
// divided by 1000.
func (s Stats) TimeSpan() float64 {
	if !s.HasTimestamp {
		return 0
	}
	return float64(s.MaxTimestamp-s.MinTimestamp) / 1000
}

// Percentages returns the read, write and instruction fetch shares of all
// requests, rounded to two decimals. With ignoreIfetch set, fetches are
// left out of the total and their share is zero.
func (s Stats) Percentages(ignoreIfetch bool) (read, write, ifetch float64) {
	fetches := s.Ifetchs
	if ignoreIfetch {
		fetches = 0
	}
	total := s.Reads + s.Writes + fetches
	if total == 0 {
		return 0, 0, 0
	}
	pct := func(n int64) float64 {
		return math.Round(10000*float64(n)/float64(total)) / 100
	}
	return pct(s.Reads), pct(s.Writes), pct(fetches)
}

// formatFloat prints f the way the simulator's report has always printed
// numbers: the shortest representation, always with a decimal point.
func formatFloat(f float64) string {
	abs := math.Abs(f)
	if abs != 0 && (abs >= 1e16 || abs < 1e-4) {
		return strconv.FormatFloat(f, 'e', -1, 64)
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
