package navtree

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

type Format string

const (
	FormatJS   Format = "js"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

func ParseFormat(value string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "js", "javascript":
		return FormatJS, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported format %q (supported: js, json, yaml)", value)
	}
}

// FormatForPath picks a format from a file extension, defaulting to js.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJS
	}
}

// Encode writes the tree in the requested format.
func Encode(w io.Writer, tree *Tree, format Format) error {
	switch format {
	case FormatJS:
		return EncodeJS(w, tree)
	case FormatJSON:
		data, err := EncodeJSON(tree)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	case FormatYAML:
		data, err := EncodeYAML(tree)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	default:
		return fmt.Errorf("unsupported format %q", format)
	}
}

// Decode parses data in the given format. name selects a tree from
// navigation scripts declaring several; it is ignored for json and yaml.
func Decode(ctx context.Context, data []byte, format Format, name string) (*Tree, error) {
	switch format {
	case FormatJS:
		return DecodeJSTree(ctx, data, name)
	case FormatJSON:
		return DecodeJSON(data)
	case FormatYAML:
		return DecodeYAML(data)
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
}

// Load reads a tree from disk, choosing the format from the extension.
func Load(ctx context.Context, path, name string) (*Tree, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read navigation tree: %w", err)
	}
	tree, err := Decode(ctx, data, FormatForPath(path), name)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return tree, nil
}
