package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"

	"github.com/dbiton/DoctorantMemory/internal/drcachesim"
	"github.com/dbiton/DoctorantMemory/internal/state"
)

var reportValidator = validator.New()

func RunParse(cmd *cobra.Command, args []string) error {
	start := time.Now()
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	settings, err := resolveTraceSettings(cmd, cfg.TracePath, cfg.OutputPath)
	if err != nil {
		return err
	}

	toolName := cfg.Parse.Tool
	if flag := cmd.Flag("tool"); flag != nil && flag.Changed {
		toolName = flag.Value.String()
	}
	tool, err := drcachesim.LookupTool(toolName)
	if err != nil {
		return err
	}

	report := cfg.ReportOptions()
	if report.HotCount, err = intOverride(cmd, "hot-addresses", report.HotCount); err != nil {
		return err
	}
	if report.Alignment, err = intOverride(cmd, "alignment", report.Alignment); err != nil {
		return err
	}
	if report.IgnoreIfetch, err = boolOverride(cmd, "ignore-inst", report.IgnoreIfetch); err != nil {
		return err
	}
	if err := reportValidator.Struct(report); err != nil {
		return fmt.Errorf("invalid parse options: %w", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	runner := newRunner(cfg)
	opts := drcachesim.ParseOptions{
		TracePath:    settings.TracePath,
		OutputPath:   settings.OutputPath,
		Tool:         tool,
		ExtraOptions: settings.ExtraOptions,
	}

	run := state.Run{
		Operation: "parse",
		Tool:      tool.Name,
		Args:      []string{settings.TracePath},
		StartedAt: start,
	}
	summary := RunSummary{
		Mode:      "parse",
		Tool:      tool.Name,
		OutputDir: settings.OutputPath,
		TracePath: settings.TracePath,
	}

	var paths []string
	var runErr error
	if tool.Converts {
		progress := newTraceProgressReporter(tool.Name, settings.AsJSON)
		var result *drcachesim.AccessResult
		result, runErr = runner.MemoryAccesses(ctx, opts, report, progress)
		if result != nil {
			paths = []string{result.HotPath, result.ViewPath, result.TracePath}
			summary.Rows = result.Rows
			summary.HotCounted = result.HotCounted
		}
	} else {
		var outputPath string
		outputPath, runErr = runner.Parse(ctx, opts)
		paths = []string{outputPath}
	}

	run.DurationMS = time.Since(start).Milliseconds()
	if runErr != nil {
		run.Error = runErr.Error()
	}
	outputs, err := RecordRun(settings.OutputPath, run, paths...)
	if err != nil {
		return err
	}
	if runErr != nil {
		return runErr
	}

	summary.Outputs = outputs
	summary.DurationMS = run.DurationMS
	return PrintRunSummary(summary, settings.AsJSON)
}
