package state

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
)

const (
	StateDir            = ".doctorant"
	StateFile           = "state.json"
	CurrentStateVersion = "1"

	// MaxRuns bounds the run history kept in the state file.
	MaxRuns = 50
)

// Output is one file produced by a run.
type Output struct {
	Path string `json:"path"`
	Hash string `json:"hash"`
	Size int64  `json:"size"`
}

// Run records a single doctorant invocation.
type Run struct {
	ID         string    `json:"id"`
	Operation  string    `json:"operation"`
	Tool       string    `json:"tool,omitempty"`
	Args       []string  `json:"args,omitempty"`
	Outputs    []Output  `json:"outputs,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	DurationMS int64     `json:"duration_ms"`
	Error      string    `json:"error,omitempty"`
}

// State tracks past runs and the hashes of their outputs.
type State struct {
	Version      string            `json:"version"`
	UpdatedAt    time.Time         `json:"updated_at"`
	Runs         []Run             `json:"runs"`
	OutputHashes map[string]string `json:"output_hashes,omitempty"`
}

// NewState creates a new empty state
func NewState() *State {
	return &State{
		Version:      CurrentStateVersion,
		OutputHashes: make(map[string]string),
	}
}

// Dir returns the state directory inside an output directory.
func Dir(outputDir string) string {
	return filepath.Join(outputDir, StateDir)
}

// Load reads the state file kept under outputDir.
func Load(outputDir string) (*State, error) {
	path := filepath.Join(Dir(outputDir), StateFile)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewState(), nil
		}
		return nil, err
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, err
	}

	migrateState(&state)

	return &state, nil
}

// Save writes the state file under outputDir.
func (s *State) Save(outputDir string) error {
	if s.Version == "" {
		s.Version = CurrentStateVersion
	}
	if s.OutputHashes == nil {
		s.OutputHashes = make(map[string]string)
	}

	s.UpdatedAt = time.Now()

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}

	dir := Dir(outputDir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, StateFile), data, 0644)
}

// AddRun appends a run, records its output hashes and trims the history
// to MaxRuns entries, dropping the hashes of outputs no kept run produced. Runs without an ID get a random one.
func (s *State) AddRun(run Run) {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	for _, out := range run.Outputs {
		s.SetOutputHash(out.Path, out.Hash)
	}
	s.Runs = append(s.Runs, run)
	if len(s.Runs) > MaxRuns {
		s.Runs = append([]Run(nil), s.Runs[len(s.Runs)-MaxRuns:]...)
		s.rebuildOutputHashes()
	}
}

// rebuildOutputHashes tracks only the outputs of runs still in the
// history; later runs win for a path written more than once.
func (s *State) rebuildOutputHashes() {
	s.OutputHashes = make(map[string]string)
	for _, run := range s.Runs {
		for _, out := range run.Outputs {
			s.OutputHashes[out.Path] = out.Hash
		}
	}
}

// LastRun returns the most recent run of operation, or any operation when
// operation is empty.
func (s *State) LastRun(operation string) (Run, bool) {
	for i := len(s.Runs) - 1; i >= 0; i-- {
		if operation == "" || s.Runs[i].Operation == operation {
			return s.Runs[i], true
		}
	}
	return Run{}, false
}

// SetOutputHash records the content hash for a generated output file.
func (s *State) SetOutputHash(path, hash string) {
	if s.OutputHashes == nil {
		s.OutputHashes = make(map[string]string)
	}
	s.OutputHashes[path] = hash
}

// GetOutputHash returns the previously stored hash for a generated output file.
func (s *State) GetOutputHash(path string) (string, bool) {
	hash, ok := s.OutputHashes[path]
	return hash, ok
}

// ChangedOutputs returns recorded outputs whose current hash differs from
// the stored one. Outputs missing from currentHashes are reported by
// MissingOutputs instead.
func (s *State) ChangedOutputs(currentHashes map[string]string) []string {
	changed := make([]string, 0)
	for path, stored := range s.OutputHashes {
		current, ok := currentHashes[path]
		if ok && current != stored {
			changed = append(changed, path)
		}
	}
	sort.Strings(changed)
	return changed
}

// MissingOutputs returns recorded outputs that no longer exist.
func (s *State) MissingOutputs(currentHashes map[string]string) []string {
	missing := make([]string, 0)
	for path := range s.OutputHashes {
		if _, ok := currentHashes[path]; !ok {
			missing = append(missing, path)
		}
	}
	sort.Strings(missing)
	return missing
}

func migrateState(s *State) {
	if s.OutputHashes == nil {
		s.OutputHashes = make(map[string]string)
	}

	switch s.Version {
	case "":
		s.Version = CurrentStateVersion
	case CurrentStateVersion:
		// no-op
	default:
		// Keep unknown versions untouched but ensure required maps are initialized.
	}
}
