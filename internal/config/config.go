package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/dbiton/DoctorantMemory/internal/drcachesim"
)

const (
	FileName = "doctorant.yml"

	EnvDrrun  = "DOCTORANT_DRRUN"
	EnvOutput = "DOCTORANT_OUTPUT"
	EnvAddr   = "DOCTORANT_ADDR"
)

// Config holds the settings shared by every command. Flags override it.
type Config struct {
	Drrun      string `yaml:"drrun" validate:"required"`
	TracePath  string `yaml:"trace_path" validate:"required"`
	OutputPath string `yaml:"output_path" validate:"required"`

	Parse ParseConfig `yaml:"parse"`
	Nav   NavConfig   `yaml:"nav"`
}

type ParseConfig struct {
	Tool         string `yaml:"tool" validate:"required"`
	IgnoreIfetch bool   `yaml:"ignore_inst"`
	HotAddresses int    `yaml:"hot_addresses" validate:"min=0"`
	Alignment    int    `yaml:"alignment" validate:"min=1"`
}

type NavConfig struct {
	File    string `yaml:"file"`
	Var     string `yaml:"var"`
	HTMLDir string `yaml:"html_dir"`
	Addr    string `yaml:"addr" validate:"required,hostname_port|startswith=:"`
}

// DefaultDrrun is the drrun launcher inside the DynamoRIO distribution
// unpacked next to the working directory.
func DefaultDrrun() string {
	return defaultDrrun(runtime.GOOS)
}

func defaultDrrun(goos string) string {
	if goos == "windows" {
		return "DynamoRIO-Windows-10.0.0/bin64/drrun"
	}
	return "DynamoRIO-Linux-10.0.0/bin64/drrun"
}

// Default returns the built-in configuration.
func Default() Config {
	report := drcachesim.DefaultReportOptions()
	return Config{
		Drrun:      DefaultDrrun(),
		TracePath:  ".",
		OutputPath: ".",
		Parse: ParseConfig{
			Tool:         drcachesim.ToolCacheSimulator,
			HotAddresses: report.HotCount,
			Alignment:    report.Alignment,
		},
		Nav: NavConfig{
			Addr: ":8080",
		},
	}
}

// Load reads path (doctorant.yml in the working directory when empty) on
// top of the defaults, then applies environment overrides. A missing file
// is not an error unless path was given explicitly.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = FileName
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("unable to parse configuration file %s: %w", path, err)
		}
		cfg.resolveRelative(filepath.Dir(path))
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return cfg, fmt.Errorf("unable to read configuration file: %w", err)
	}

	cfg.Drrun = envOr(EnvDrrun, cfg.Drrun)
	cfg.OutputPath = envOr(EnvOutput, cfg.OutputPath)
	cfg.Nav.Addr = envOr(EnvAddr, cfg.Nav.Addr)
	cfg.Parse.HotAddresses = envInt("DOCTORANT_HOT_ADDRESSES", cfg.Parse.HotAddresses)
	cfg.Parse.Alignment = envInt("DOCTORANT_ALIGNMENT", cfg.Parse.Alignment)

	return cfg, nil
}

// Validate checks field constraints and that the parse tool exists.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if _, err := drcachesim.LookupTool(c.Parse.Tool); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// ReportOptions converts the parse settings.
func (c Config) ReportOptions() drcachesim.ReportOptions {
	return drcachesim.ReportOptions{
		Alignment:    c.Parse.Alignment,
		HotCount:     c.Parse.HotAddresses,
		IgnoreIfetch: c.Parse.IgnoreIfetch,
	}
}

// resolveRelative anchors relative paths from a config file to the file's
// directory.
func (c *Config) resolveRelative(dir string) {
	if dir == "." || dir == "" {
		return
	}
	for _, p := range []*string{&c.TracePath, &c.OutputPath, &c.Nav.File, &c.Nav.HTMLDir} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(dir, *p)
		}
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
