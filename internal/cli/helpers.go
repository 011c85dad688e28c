package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/dbiton/DoctorantMemory/internal/fileutil"
	"github.com/dbiton/DoctorantMemory/internal/navtree"
	"github.com/dbiton/DoctorantMemory/internal/state"
)

func IsCorruptStateError(err error) bool {
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return true
	}
	var typeErr *json.UnmarshalTypeError
	return errors.As(err, &typeErr)
}

// loadState reads the run state, starting over when the file is corrupt.
func loadState(outputDir string) (*state.State, error) {
	st, err := state.Load(outputDir)
	if err != nil {
		if IsCorruptStateError(err) {
			fmt.Fprintf(os.Stderr, "warning: corrupt state file detected (%v); starting a new run history\n", err)
			return state.NewState(), nil
		}
		return nil, fmt.Errorf("failed to load state: %w", err)
	}
	return st, nil
}

// RecordRun hashes the run's output files and appends the run to the state
// kept in outputDir.
func RecordRun(outputDir string, run state.Run, paths ...string) ([]state.Output, error) {
	outputs, err := fileutil.DescribeOutputs(outputDir, paths...)
	if err != nil {
		return nil, fmt.Errorf("failed to hash outputs: %w", err)
	}
	run.Outputs = outputs

	st, err := loadState(outputDir)
	if err != nil {
		return nil, err
	}
	st.AddRun(run)
	if err := st.Save(outputDir); err != nil {
		return nil, fmt.Errorf("failed to persist state: %w", err)
	}
	logger.Debug("recorded run",
		zap.String("operation", run.Operation),
		zap.Int("outputs", len(outputs)))
	return outputs, nil
}

func ReportNavIssues(issues []navtree.Issue) {
	for _, issue := range issues {
		fmt.Fprintf(os.Stderr, "[%s] %s:%d: %s\n", issue.Severity, issue.Name, issue.Line, issue.Message)
	}
}
