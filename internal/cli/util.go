package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dbiton/DoctorantMemory/internal/config"
	"github.com/dbiton/DoctorantMemory/internal/drcachesim"
)

func resolveWorkingDirectory() (string, error) {
	rootPath, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to resolve working directory: %w", err)
	}
	return rootPath, nil
}

// loadConfig reads the file named by --config (or ./doctorant.yml).
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, err := OptionalStringFlag(cmd, "config")
	if err != nil {
		return config.Config{}, err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}
	logger.Debug("loaded configuration")
	return cfg, nil
}

// newRunner builds the drcachesim runner; tests swap it for one with a
// fake Exec.
var newRunner = func(cfg config.Config) *drcachesim.Runner {
	return drcachesim.NewRunner(cfg.Drrun, logger)
}
