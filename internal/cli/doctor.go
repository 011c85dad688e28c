package cli

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dbiton/DoctorantMemory/internal/config"
	"github.com/dbiton/DoctorantMemory/internal/fileutil"
	"github.com/dbiton/DoctorantMemory/internal/state"
)

func RunDoctor(cmd *cobra.Command, args []string) error {
	rootPath, err := resolveWorkingDirectory()
	if err != nil {
		return err
	}
	asJSON, err := OptionalBoolFlag(cmd, "json", false)
	if err != nil {
		return err
	}

	summary := DoctorSummary{
		Mode:     "doctor",
		RootPath: rootPath,
	}

	configPath, err := OptionalStringFlag(cmd, "config")
	if err != nil {
		return err
	}
	if configPath == "" {
		configPath = config.FileName
	}
	if _, err := os.Stat(configPath); err == nil {
		summary.ConfigFile = configPath
	} else {
		summary.Suggestions = append(summary.Suggestions, "run doctorant init")
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		summary.Problems = append(summary.Problems, err.Error())
		cfg = config.Default()
	} else if err := cfg.Validate(); err != nil {
		summary.Problems = append(summary.Problems, err.Error())
	}

	summary.Drrun = cfg.Drrun
	summary.DrrunFound = drrunAvailable(cfg.Drrun)
	if !summary.DrrunFound {
		summary.Problems = append(summary.Problems, fmt.Sprintf("drrun not found at %s", cfg.Drrun))
		summary.Suggestions = append(summary.Suggestions,
			fmt.Sprintf("unpack DynamoRIO next to the working directory or set %s", config.EnvDrrun))
	}

	summary.OutputDir = cfg.OutputPath
	summary.Clean = true
	if _, err := os.Stat(filepath.Join(state.Dir(cfg.OutputPath), state.StateFile)); err == nil {
		st, err := state.Load(cfg.OutputPath)
		if err != nil {
			summary.Problems = append(summary.Problems, fmt.Sprintf("corrupt state file: %v", err))
			summary.Suggestions = append(summary.Suggestions, "remove "+filepath.Join(state.StateDir, state.StateFile))
			summary.Clean = false
		} else {
			summary.Runs = len(st.Runs)
			current, err := fileutil.ScanOutputHashes(cfg.OutputPath, st)
			if err != nil {
				return fmt.Errorf("failed to scan outputs: %w", err)
			}
			stale := len(st.ChangedOutputs(current)) + len(st.MissingOutputs(current))
			summary.Clean = stale == 0
			if !summary.Clean {
				summary.Suggestions = append(summary.Suggestions, "run doctorant status to list changed outputs")
			}
		}
	}

	sort.Strings(summary.Problems)
	sort.Strings(summary.Suggestions)
	summary.Healthy = len(summary.Problems) == 0

	if asJSON {
		return fileutil.PrintJSON(summary)
	}

	status := "issues"
	if summary.Healthy {
		status = "ok"
	}
	fmt.Printf("doctor: %s\n", status)
	configFile := summary.ConfigFile
	if configFile == "" {
		configFile = "(defaults)"
	}
	fmt.Printf("config: %s\n", configFile)
	fmt.Printf("drrun: %s found=%t\n", summary.Drrun, summary.DrrunFound)
	fmt.Printf("runs: output=%s runs=%d clean=%t\n", summary.OutputDir, summary.Runs, summary.Clean)
	if len(summary.Problems) > 0 {
		fmt.Printf("problems (%d): %s\n", len(summary.Problems), strings.Join(summary.Problems, "; "))
	}
	for _, suggestion := range summary.Suggestions {
		fmt.Printf("next: %s\n", suggestion)
	}
	return nil
}

func drrunAvailable(path string) bool {
	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		return true
	}
	if _, err := os.Stat(path + ".exe"); err == nil {
		return true
	}
	_, err := exec.LookPath(path)
	return err == nil
}
