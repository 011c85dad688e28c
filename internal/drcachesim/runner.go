package drcachesim

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ExecFunc runs a command, sending its combined output to out.
type ExecFunc func(ctx context.Context, name string, args []string, out io.Writer) error

// Runner invokes drrun -t drcachesim and captures what it prints.
type Runner struct {
	// DrrunPath is the drrun launcher inside a DynamoRIO or DrMemory
	// distribution.
	DrrunPath string
	Logger    *zap.Logger
	// Exec defaults to running the command with os/exec.
	Exec ExecFunc
	// Now defaults to time.Now; it stamps output file names.
	Now func() time.Time
}

// NewRunner returns a Runner for the given drrun path.
func NewRunner(drrunPath string, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{DrrunPath: drrunPath, Logger: logger}
}

// Timestamp formats t the way output file names are stamped. Colons are
// avoided so the names stay valid on Windows.
func Timestamp(t time.Time) string {
	return t.UTC().Format("15-04-05")
}

// Invoke runs drcachesim with args and writes everything it prints to
// drcachesim_output_<time>.txt inside outDir (the working directory when
// outDir is empty). It returns the path of that file. When outDir is set
// and args carry no -outdir of their own, drcachesim is pointed at outDir
// too.
func (r *Runner) Invoke(ctx context.Context, args []string, outDir string) (string, error) {
	outputPath := fmt.Sprintf("drcachesim_output_%s.txt", Timestamp(r.now()))
	command := []string{"-t", "drcachesim"}
	if outDir != "" {
		if err := os.MkdirAll(outDir, 0755); err != nil {
			return "", fmt.Errorf("failed to create output directory: %w", err)
		}
		if !hasFlag(args, "-outdir") {
			command = append(command, "-outdir", outDir)
		}
		outputPath = filepath.Join(outDir, outputPath)
	}
	command = append(command, args...)

	f, err := os.Create(outputPath)
	if err != nil {
		return "", fmt.Errorf("failed to create drcachesim output file: %w", err)
	}
	defer f.Close()

	logger := r.logger()
	logger.Info("invoking drcachesim",
		zap.String("drrun", r.DrrunPath),
		zap.Strings("args", command),
		zap.String("output", outputPath))

	start := time.Now()
	runErr := r.exec()(ctx, r.DrrunPath, command, f)
	logger.Debug("drcachesim finished",
		zap.Duration("elapsed", time.Since(start)),
		zap.Error(runErr))
	if runErr != nil {
		return outputPath, fmt.Errorf("drcachesim failed (output in %s): %w", outputPath, runErr)
	}
	if err := f.Sync(); err != nil {
		return outputPath, err
	}
	return outputPath, nil
}

// GenerateOptions describes an application run to record.
type GenerateOptions struct {
	App        string
	AppArgs    []string
	TracePath  string
	OutputPath string
	// ExtraOptions are passed to drcachesim verbatim, split on whitespace.
	ExtraOptions string
}

// Generate runs the application under drcachesim in offline mode, writing
// the raw trace into TracePath. It returns the path of the captured output.
func (r *Runner) Generate(ctx context.Context, opts GenerateOptions) (string, error) {
	if strings.TrimSpace(opts.App) == "" {
		return "", fmt.Errorf("generate requires an application path")
	}
	tracePath := opts.TracePath
	if tracePath == "" {
		tracePath = "."
	}
	if err := os.MkdirAll(tracePath, 0755); err != nil {
		return "", fmt.Errorf("failed to create trace directory: %w", err)
	}

	args := strings.Fields(opts.ExtraOptions)
	args = append(args, "-offline", "-outdir", tracePath, "--", opts.App)
	args = append(args, opts.AppArgs...)
	return r.Invoke(ctx, args, opts.OutputPath)
}

// ParseOptions describes a replay of a recorded trace.
type ParseOptions struct {
	TracePath    string
	OutputPath   string
	Tool         Tool
	ExtraOptions string
}

// Parse replays the trace in TracePath through the tool and returns the
// path of the captured output.
func (r *Runner) Parse(ctx context.Context, opts ParseOptions) (string, error) {
	tracePath := opts.TracePath
	if tracePath == "" {
		tracePath = "."
	}
	args := strings.Fields(opts.ExtraOptions)
	args = append(args, "-indir", tracePath)
	args = append(args, opts.Tool.Args...)
	return r.Invoke(ctx, args, opts.OutputPath)
}

func (r *Runner) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

func (r *Runner) logger() *zap.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return zap.NewNop()
}

func (r *Runner) exec() ExecFunc {
	if r.Exec != nil {
		return r.Exec
	}
	return runCommand
}

func runCommand(ctx context.Context, name string, args []string, out io.Writer) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = out
	cmd.Stderr = out
	return cmd.Run()
}

func hasFlag(args []string, flag string) bool {
	for _, arg := range args {
		if arg == "--" {
			return false
		}
		if arg == flag {
			return true
		}
	}
	return false
}
