package cli

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// traceProgressReporter draws a spinner on stderr while view output is
// analyzed and converted. It stays silent when stderr is not a terminal.
type traceProgressReporter struct {
	enabled bool
	label   string
	pass    string
	count   int
	start   time.Time
	spinner int
	lastLen int
}

func newTraceProgressReporter(label string, asJSON bool) *traceProgressReporter {
	stat, err := os.Stderr.Stat()
	enabled := err == nil && (stat.Mode()&os.ModeCharDevice) != 0 && !asJSON
	return &traceProgressReporter{
		enabled: enabled,
		label:   label,
		start:   time.Now(),
	}
}

func (r *traceProgressReporter) Pass(name string) {
	r.pass = name
	r.count = 0
	r.start = time.Now()
}

func (r *traceProgressReporter) Advance(records int) {
	r.count += records
	if !r.enabled {
		return
	}
	frames := [4]string{"-", "\\", "|", "/"}
	frame := frames[r.spinner%len(frames)]
	r.spinner++
	r.printStatus(fmt.Sprintf("%s %s %s %d records", frame, r.label, r.pass, r.count))
}

func (r *traceProgressReporter) Done() {
	if !r.enabled {
		return
	}
	elapsed := time.Since(r.start).Round(time.Millisecond)
	r.printStatus(fmt.Sprintf("%s %s complete (%d+ records in %s)", r.label, r.pass, r.count, elapsed))
	fmt.Fprintln(os.Stderr)
}

func (r *traceProgressReporter) printStatus(status string) {
	if r.lastLen > len(status) {
		status = status + strings.Repeat(" ", r.lastLen-len(status))
	}
	r.lastLen = len(status)
	fmt.Fprintf(os.Stderr, "\r%s", status)
}
