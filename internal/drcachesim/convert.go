package drcachesim

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"go.uber.org/zap"
)

// ReportOptions controls the access report.
type ReportOptions struct {
	// Alignment is the cache line size used to bucket hot addresses.
	Alignment int `validate:"min=1"`
	// HotCount is the number of hot addresses listed in the header.
	HotCount     int `validate:"min=0"`
	IgnoreIfetch bool
}

// DefaultReportOptions match the wrapper's historical defaults.
func DefaultReportOptions() ReportOptions {
	return ReportOptions{Alignment: 16, HotCount: 10}
}

// Report is the pre-computed part of an access report.
type Report struct {
	Options ReportOptions
	Stats   Stats
	// Hot holds every counted address, most accessed first.
	Hot []HotAddress
}

// Analyze computes statistics and hot addresses for records.
func Analyze(records []Record, opts ReportOptions) *Report {
	stats := CollectStats(records)
	counter := NewHotAddressCounter(opts.Alignment, opts.IgnoreIfetch)
	for _, rec := range records {
		counter.Add(rec)
	}
	return &Report{Options: opts, Stats: stats, Hot: counter.Sorted()}
}

// WriteHeader writes the commented report header: hot addresses followed
// by the statistics block.
func (r *Report) WriteHeader(w io.Writer) error {
	bw := bufio.NewWriter(w)
	s := r.Stats

	fmt.Fprintf(bw, "# cacheline size: %d\n", r.Options.Alignment)
	fmt.Fprintf(bw, "# hot addresses count: %d\n", r.Options.HotCount)
	fmt.Fprintln(bw, "# hot addresses (accesses | address):")
	width := addressDigits(s.MaxAddress)
	for _, hot := range truncate(r.Hot, r.Options.HotCount) {
		fmt.Fprintf(bw, "# %d %0*d\n", hot.Count, width, hot.Address)
	}

	read, write, ifetch := s.Percentages(r.Options.IgnoreIfetch)
	fmt.Fprintf(bw, "# max address: %d\n", s.AddressSpan())
	fmt.Fprintf(bw, "# max timestamp: %s\n", formatFloat(s.TimeSpan()))
	fmt.Fprintf(bw, "# bytes read: %d\n", s.BytesRead)
	fmt.Fprintf(bw, "# bytes write: %d\n", s.BytesWrite)
	fmt.Fprintf(bw, "# read requests: %s%%\n", formatFloat(read))
	fmt.Fprintf(bw, "# write requests: %s%%\n", formatFloat(write))
	if !r.Options.IgnoreIfetch {
		fmt.Fprintf(bw, "# instruction fetch requests: %s%%\n", formatFloat(ifetch))
	}
	return bw.Flush()
}

// WriteHotAddresses writes the full hot address table, one
// "<count> <address>" line per aligned address.
func (r *Report) WriteHotAddresses(w io.Writer) error {
	bw := bufio.NewWriter(w)
	width := addressDigits(r.Stats.MaxAddress)
	for _, hot := range r.Hot {
		fmt.Fprintf(bw, "%d %0*d\n", hot.Count, width, hot.Address)
	}
	return bw.Flush()
}

// AccessWriter emits one CSV line per memory access:
// timestamp,tid,address,size,op. Timestamps are relative to the earliest
// marker and divided by 1000; addresses are relative to the lowest one.
type AccessWriter struct {
	w            *bufio.Writer
	stats        Stats
	ignoreIfetch bool
	current      uint64
	rows         int
}

// NewAccessWriter returns a writer using the report's reference points.
func (r *Report) NewAccessWriter(w io.Writer) *AccessWriter {
	return &AccessWriter{
		w:            bufio.NewWriter(w),
		stats:        r.Stats,
		ignoreIfetch: r.Options.IgnoreIfetch,
		current:      r.Stats.MinTimestamp,
	}
}

// Add writes rec when it is an access; markers advance the clock.
func (a *AccessWriter) Add(rec Record) error {
	if rec.Kind == KindMarker {
		if rec.HasTimestamp {
			a.current = rec.Timestamp
		}
		return nil
	}
	op := rec.Kind.Op()
	if op == "" || (rec.Kind == KindIfetch && a.ignoreIfetch) {
		return nil
	}
	ts := float64(a.current-a.stats.MinTimestamp) / 1000
	_, err := fmt.Fprintf(a.w, "%s,%s,%d,%d,%s\n",
		formatFloat(ts), rec.TID, rec.Address-a.stats.MinAddress, rec.Size, op)
	a.rows++
	return err
}

// Rows is the number of CSV lines written so far.
func (a *AccessWriter) Rows() int {
	return a.rows
}

// Flush writes buffered rows.
func (a *AccessWriter) Flush() error {
	return a.w.Flush()
}

// WriteReport writes the header and the access CSV for records.
func WriteReport(w io.Writer, records []Record, opts ReportOptions) error {
	report := Analyze(records, opts)
	if err := report.WriteHeader(w); err != nil {
		return err
	}
	aw := report.NewAccessWriter(w)
	for _, rec := range records {
		if err := aw.Add(rec); err != nil {
			return err
		}
	}
	return aw.Flush()
}

func addressDigits(max uint64) int {
	if max == 0 {
		return 1
	}
	return len(strconv.FormatUint(max, 10))
}

// AccessResult lists the files produced by MemoryAccesses.
type AccessResult struct {
	ViewPath   string `json:"view_path"`
	TracePath  string `json:"trace_path"`
	HotPath    string `json:"hot_path"`
	Rows       int    `json:"rows"`
	HotCounted int    `json:"hot_counted"`
}

// Progress receives the number of view records processed per pass.
type Progress interface {
	Pass(name string)
	Advance(records int)
	Done()
}

// MemoryAccesses replays the trace through the view tool and converts the
// listing into doctorant_memory_trace_<time>.txt, plus the complete hot
// address table in hot_addresses_<time>.txt. The listing is read twice so
// traces never have to fit in memory.
func (r *Runner) MemoryAccesses(ctx context.Context, opts ParseOptions, report ReportOptions, progress Progress) (*AccessResult, error) {
	opts.Tool = tools[ToolMemoryAccesses]
	viewPath, err := r.Parse(ctx, opts)
	if err != nil {
		return nil, err
	}

	stamp := Timestamp(r.now())
	result := &AccessResult{
		ViewPath:  viewPath,
		TracePath: filepath.Join(opts.OutputPath, fmt.Sprintf("doctorant_memory_trace_%s.txt", stamp)),
		HotPath:   filepath.Join(opts.OutputPath, fmt.Sprintf("hot_addresses_%s.txt", stamp)),
	}

	rep, err := analyzeFile(ctx, viewPath, report, progress)
	if err != nil {
		return nil, err
	}
	result.HotCounted = len(rep.Hot)

	if err := writeFile(result.HotPath, rep.WriteHotAddresses); err != nil {
		return nil, err
	}

	err = writeFile(result.TracePath, func(w io.Writer) error {
		if err := rep.WriteHeader(w); err != nil {
			return err
		}
		aw := rep.NewAccessWriter(w)
		if err := eachViewRecord(ctx, viewPath, "convert", progress, aw.Add); err != nil {
			return err
		}
		result.Rows = aw.Rows()
		return aw.Flush()
	})
	if err != nil {
		return nil, err
	}

	r.logger().Info("converted memory accesses",
		zap.String("trace", result.TracePath),
		zap.Int("rows", result.Rows),
		zap.Int("hot_addresses", result.HotCounted))
	return result, nil
}

func analyzeFile(ctx context.Context, path string, opts ReportOptions, progress Progress) (*Report, error) {
	var stats Stats
	counter := NewHotAddressCounter(opts.Alignment, opts.IgnoreIfetch)
	err := eachViewRecord(ctx, path, "analyze", progress, func(rec Record) error {
		stats.Add(rec)
		counter.Add(rec)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &Report{Options: opts, Stats: stats, Hot: counter.Sorted()}, nil
}

const progressEvery = 100000

func eachViewRecord(ctx context.Context, path, pass string, progress Progress, fn func(Record) error) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open view output: %w", err)
	}
	defer f.Close()

	if progress != nil {
		progress.Pass(pass)
		defer progress.Done()
	}
	seen := 0
	return ReadView(f, func(rec Record) error {
		seen++
		if seen%progressEvery == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
			if progress != nil {
				progress.Advance(progressEvery)
			}
		}
		return fn(rec)
	})
}

func writeFile(path string, fn func(io.Writer) error) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := fn(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}
