package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dbiton/DoctorantMemory/internal/fileutil"
	"github.com/dbiton/DoctorantMemory/internal/state"
)

type RunSummary struct {
	Mode       string         `json:"mode"`
	Tool       string         `json:"tool,omitempty"`
	OutputDir  string         `json:"output_dir"`
	TracePath  string         `json:"trace_path,omitempty"`
	Outputs    []state.Output `json:"outputs"`
	Rows       int            `json:"rows,omitempty"`
	HotCounted int            `json:"hot_addresses,omitempty"`
	DurationMS int64          `json:"duration_ms"`
}

type StatusSummary struct {
	Mode       string      `json:"mode"`
	OutputDir  string      `json:"output_dir"`
	Runs       []state.Run `json:"runs"`
	Tracked    int         `json:"tracked"`
	Changed    []string    `json:"changed,omitempty"`
	Missing    []string    `json:"missing,omitempty"`
	Clean      bool        `json:"clean"`
	DurationMS int64       `json:"duration_ms"`
}

type DoctorSummary struct {
	Mode        string   `json:"mode"`
	RootPath    string   `json:"root_path"`
	ConfigFile  string   `json:"config_file,omitempty"`
	Drrun       string   `json:"drrun"`
	DrrunFound  bool     `json:"drrun_found"`
	OutputDir   string   `json:"output_dir"`
	Runs        int      `json:"runs"`
	Healthy     bool     `json:"healthy"`
	Clean       bool     `json:"clean"`
	Problems    []string `json:"problems,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`
}

// PrintRunSummary prints one output path per line, the way scripts consume
// it, or the whole summary as JSON.
func PrintRunSummary(summary RunSummary, asJSON bool) error {
	if asJSON {
		return fileutil.PrintJSON(summary)
	}

	for _, output := range summary.Outputs {
		fmt.Println(filepath.Join(summary.OutputDir, filepath.FromSlash(output.Path)))
	}
	if summary.Rows > 0 || summary.HotCounted > 0 {
		fmt.Printf("%s: rows=%d hot_addresses=%d duration=%dms\n", summary.Mode, summary.Rows, summary.HotCounted, summary.DurationMS)
	}
	return nil
}

func PrintStatus(summary StatusSummary, asJSON bool) error {
	if asJSON {
		return fileutil.PrintJSON(summary)
	}

	fmt.Printf("status: runs=%d tracked=%d changed=%d missing=%d clean=%t\n",
		len(summary.Runs), summary.Tracked, len(summary.Changed), len(summary.Missing), summary.Clean)
	for _, run := range summary.Runs {
		line := fmt.Sprintf("  %s %s %s", shortID(run.ID), run.StartedAt.Format("2006-01-02 15:04:05"), run.Operation)
		if run.Tool != "" {
			line += " tool=" + run.Tool
		}
		line += fmt.Sprintf(" outputs=%d duration=%dms", len(run.Outputs), run.DurationMS)
		if run.Error != "" {
			line += " error=" + run.Error
		}
		fmt.Println(line)
	}
	if len(summary.Changed) > 0 {
		fmt.Printf("changed outputs (%d): %s\n", len(summary.Changed), SummarizePaths(summary.Changed, 8))
	}
	if len(summary.Missing) > 0 {
		fmt.Printf("missing outputs (%d): %s\n", len(summary.Missing), SummarizePaths(summary.Missing, 8))
	}
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func SummarizePaths(paths []string, max int) string {
	if len(paths) <= max {
		return strings.Join(paths, ", ")
	}
	return fmt.Sprintf("%s ... (+%d more)", strings.Join(paths[:max], ", "), len(paths)-max)
}
