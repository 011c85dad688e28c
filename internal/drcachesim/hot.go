package drcachesim

import (
	"sort"
)

// HotAddress is an aligned address and the number of accesses touching it.
type HotAddress struct {
	Address uint64 `json:"address"`
	Count   int    `json:"count"`
}

// HotAddressCounter counts accesses per aligned address.
type HotAddressCounter struct {
	Alignment    uint64
	IgnoreIfetch bool
	counts       map[uint64]int
}

// NewHotAddressCounter returns a counter for the given alignment; values
// below one are treated as one.
func NewHotAddressCounter(alignment int, ignoreIfetch bool) *HotAddressCounter {
	if alignment < 1 {
		alignment = 1
	}
	return &HotAddressCounter{
		Alignment:    uint64(alignment),
		IgnoreIfetch: ignoreIfetch,
		counts:       make(map[uint64]int),
	}
}

// Add counts every aligned address from the start of the access through
// the byte just past its end.
func (c *HotAddressCounter) Add(rec Record) {
	if !rec.Kind.IsAccess() {
		return
	}
	if rec.Kind == KindIfetch && c.IgnoreIfetch {
		return
	}
	first := rec.Address / c.Alignment * c.Alignment
	last := (rec.Address + uint64(rec.Size)) / c.Alignment * c.Alignment
	for addr := first; addr <= last; addr += c.Alignment {
		c.counts[addr]++
		if addr+c.Alignment < addr {
			break
		}
	}
}

// Sorted returns every counted address, most accessed first; equal counts
// are ordered by address.
func (c *HotAddressCounter) Sorted() []HotAddress {
	out := make([]HotAddress, 0, len(c.counts))
	for addr, count := range c.counts {
		out = append(out, HotAddress{Address: addr, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Address < out[j].Address
	})
	return out
}

// HotAddresses counts the records and returns at most limit addresses.
// A limit below zero returns all of them.
func HotAddresses(records []Record, alignment int, ignoreIfetch bool, limit int) []HotAddress {
	counter := NewHotAddressCounter(alignment, ignoreIfetch)
	for _, rec := range records {
		counter.Add(rec)
	}
	return truncate(counter.Sorted(), limit)
}

func truncate(hot []HotAddress, limit int) []HotAddress {
	if limit >= 0 && len(hot) > limit {
		return hot[:limit]
	}
	return hot
}
