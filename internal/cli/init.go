package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/dbiton/DoctorantMemory/internal/config"
	"github.com/dbiton/DoctorantMemory/internal/fileutil"
)

func RunInit(cmd *cobra.Command, args []string) error {
	rootPath, err := resolveWorkingDirectory()
	if err != nil {
		return err
	}
	force, err := OptionalBoolFlag(cmd, "force", false)
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(config.Default())
	if err != nil {
		return fmt.Errorf("failed to encode default config: %w", err)
	}
	data = append([]byte("# doctorant settings; command line flags override these.\n"), data...)

	path := filepath.Join(rootPath, config.FileName)
	if force {
		if err := fileutil.WriteIfChanged(path, data); err != nil {
			return fmt.Errorf("failed to write %s: %w", config.FileName, err)
		}
		fmt.Printf("Wrote %s\n", path)
		return nil
	}

	created, err := fileutil.WriteIfMissing(path, data, 0644)
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", config.FileName, err)
	}
	if created {
		fmt.Printf("Wrote %s\n", path)
	} else {
		fmt.Printf("%s already exists; use --force to overwrite\n", path)
	}
	return nil
}
