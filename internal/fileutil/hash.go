package fileutil

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"

	"github.com/dbiton/DoctorantMemory/internal/state"
)

func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}

	return hex.EncodeToString(h.Sum(nil))[:16], nil
}

// DescribeOutputs hashes each file and returns its state entry with the
// path made relative to baseDir where possible. Missing files are skipped.
func DescribeOutputs(baseDir string, paths ...string) ([]state.Output, error) {
	outputs := make([]state.Output, 0, len(paths))
	for _, path := range paths {
		if path == "" {
			continue
		}
		info, err := os.Stat(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, err
		}
		hash, err := HashFile(path)
		if err != nil {
			return nil, err
		}
		outputs = append(outputs, state.Output{
			Path: relativeTo(baseDir, path),
			Hash: hash,
			Size: info.Size(),
		})
	}
	return outputs, nil
}

// ScanOutputHashes hashes every output recorded in st that still exists.
func ScanOutputHashes(baseDir string, st *state.State) (map[string]string, error) {
	hashes := make(map[string]string, len(st.OutputHashes))
	for rel := range st.OutputHashes {
		path := rel
		if !filepath.IsAbs(path) {
			path = filepath.Join(baseDir, rel)
		}
		hash, err := HashFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, err
		}
		hashes[rel] = hash
	}
	return hashes, nil
}

func relativeTo(baseDir, path string) string {
	if baseDir == "" {
		return filepath.ToSlash(path)
	}
	absBase, err := filepath.Abs(baseDir)
	if err != nil {
		return filepath.ToSlash(path)
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	rel, err := filepath.Rel(absBase, absPath)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}
