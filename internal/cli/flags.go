package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dbiton/DoctorantMemory/internal/navtree"
)

func OptionalStringFlag(cmd *cobra.Command, name string) (string, error) {
	if cmd == nil || cmd.Flag(name) == nil {
		return "", nil
	}
	value, err := cmd.Flags().GetString(name)
	if err != nil {
		return "", fmt.Errorf("failed to read --%s flag: %w", name, err)
	}
	return strings.TrimSpace(value), nil
}

func OptionalBoolFlag(cmd *cobra.Command, name string, defaultValue bool) (bool, error) {
	if cmd == nil || cmd.Flag(name) == nil {
		return defaultValue, nil
	}
	value, err := cmd.Flags().GetBool(name)
	if err != nil {
		return false, fmt.Errorf("failed to read --%s flag: %w", name, err)
	}
	return value, nil
}

func OptionalIntFlag(cmd *cobra.Command, name string, defaultValue int) (int, error) {
	if cmd == nil || cmd.Flag(name) == nil {
		return defaultValue, nil
	}
	value, err := cmd.Flags().GetInt(name)
	if err != nil {
		return 0, fmt.Errorf("failed to read --%s flag: %w", name, err)
	}
	return value, nil
}

// stringOverride returns the flag value when it was set explicitly or is
// non-empty, otherwise fallback.
func stringOverride(cmd *cobra.Command, name, fallback string) (string, error) {
	value, err := OptionalStringFlag(cmd, name)
	if err != nil {
		return "", err
	}
	if value == "" {
		return fallback, nil
	}
	return value, nil
}

// intOverride returns the flag value only when the user set it.
func intOverride(cmd *cobra.Command, name string, fallback int) (int, error) {
	if cmd == nil || cmd.Flag(name) == nil || !cmd.Flag(name).Changed {
		return fallback, nil
	}
	return OptionalIntFlag(cmd, name, fallback)
}

// boolOverride returns the flag value only when the user set it, so an
// explicit --flag=false overrides a true fallback.
func boolOverride(cmd *cobra.Command, name string, fallback bool) (bool, error) {
	if cmd == nil || cmd.Flag(name) == nil || !cmd.Flag(name).Changed {
		return fallback, nil
	}
	return OptionalBoolFlag(cmd, name, fallback)
}

func ParseNavFormat(cmd *cobra.Command) (navtree.Format, error) {
	value, err := OptionalStringFlag(cmd, "format")
	if err != nil {
		return "", err
	}
	return navtree.ParseFormat(value)
}
