package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dbiton/DoctorantMemory/internal/fileutil"
)

func RunStatus(cmd *cobra.Command, args []string) error {
	start := time.Now()
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	outputDir, err := stringOverride(cmd, "output-path", cfg.OutputPath)
	if err != nil {
		return err
	}
	asJSON, err := OptionalBoolFlag(cmd, "json", false)
	if err != nil {
		return err
	}

	st, err := loadState(outputDir)
	if err != nil {
		return err
	}
	currentHashes, err := fileutil.ScanOutputHashes(outputDir, st)
	if err != nil {
		return fmt.Errorf("failed to scan outputs: %w", err)
	}

	changed := st.ChangedOutputs(currentHashes)
	missing := st.MissingOutputs(currentHashes)
	summary := StatusSummary{
		Mode:       "status",
		OutputDir:  outputDir,
		Runs:       st.Runs,
		Tracked:    len(st.OutputHashes),
		Changed:    changed,
		Missing:    missing,
		Clean:      len(changed) == 0 && len(missing) == 0,
		DurationMS: time.Since(start).Milliseconds(),
	}
	return PrintStatus(summary, asJSON)
}
