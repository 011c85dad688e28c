package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dbiton/DoctorantMemory/internal/drcachesim"
	"github.com/dbiton/DoctorantMemory/internal/state"
)

// traceSettings are the config values every trace command resolves
// against its flags.
type traceSettings struct {
	TracePath    string
	OutputPath   string
	ExtraOptions string
	AsJSON       bool
}

func resolveTraceSettings(cmd *cobra.Command, tracePath, outputPath string) (traceSettings, error) {
	var s traceSettings
	var err error
	if s.TracePath, err = stringOverride(cmd, "trace-path", tracePath); err != nil {
		return s, err
	}
	if s.OutputPath, err = stringOverride(cmd, "output-path", outputPath); err != nil {
		return s, err
	}
	if s.ExtraOptions, err = OptionalStringFlag(cmd, "additional-options"); err != nil {
		return s, err
	}
	if s.AsJSON, err = OptionalBoolFlag(cmd, "json", false); err != nil {
		return s, err
	}
	return s, nil
}

func RunGenerate(cmd *cobra.Command, args []string) error {
	start := time.Now()
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	settings, err := resolveTraceSettings(cmd, cfg.TracePath, cfg.OutputPath)
	if err != nil {
		return err
	}

	app, err := OptionalStringFlag(cmd, "app")
	if err != nil {
		return err
	}
	appArgs := args
	if app == "" {
		if len(args) == 0 {
			return fmt.Errorf("generate requires --app or an application path argument")
		}
		app, appArgs = args[0], args[1:]
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	runner := newRunner(cfg)
	outputPath, runErr := runner.Generate(ctx, drcachesim.GenerateOptions{
		App:          app,
		AppArgs:      appArgs,
		TracePath:    settings.TracePath,
		OutputPath:   settings.OutputPath,
		ExtraOptions: settings.ExtraOptions,
	})

	run := state.Run{
		Operation:  "generate",
		Args:       append([]string{app}, appArgs...),
		StartedAt:  start,
		DurationMS: time.Since(start).Milliseconds(),
	}
	if runErr != nil {
		run.Error = runErr.Error()
	}
	outputs, err := RecordRun(settings.OutputPath, run, outputPath)
	if err != nil {
		return err
	}
	if runErr != nil {
		return runErr
	}

	return PrintRunSummary(RunSummary{
		Mode:       "generate",
		OutputDir:  settings.OutputPath,
		TracePath:  settings.TracePath,
		Outputs:    outputs,
		DurationMS: run.DurationMS,
	}, settings.AsJSON)
}
