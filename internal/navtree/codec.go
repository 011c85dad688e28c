package navtree

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// MarshalJSON encodes the node in the same tuple shape the navigation
// script uses: ["title", "link"|null, children|null(, "flags")].
func (n *Node) MarshalJSON() ([]byte, error) {
	tuple := []any{n.Title, nullableString(n.Link), nil}
	switch {
	case n.ChildrenRef != "":
		tuple[2] = n.ChildrenRef
	case !n.IsLeaf():
		tuple[2] = n.Children
	}
	if n.Flags != "" {
		tuple = append(tuple, n.Flags)
	}
	return json.Marshal(tuple)
}

// UnmarshalJSON accepts the tuple shape written by MarshalJSON.
func (n *Node) UnmarshalJSON(data []byte) error {
	var fields []json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("navigation entry: %w", err)
	}
	if len(fields) != 3 && len(fields) != 4 {
		return fmt.Errorf("navigation entry: %w: %d elements, want 3 or 4", ErrNotNavTree, len(fields))
	}

	var title, link, flags *string
	if err := json.Unmarshal(fields[0], &title); err != nil {
		return fmt.Errorf("navigation entry title: %w", err)
	}
	if err := json.Unmarshal(fields[1], &link); err != nil {
		return fmt.Errorf("navigation entry link: %w", err)
	}
	var children []*Node
	var childrenRef string
	switch raw := strings.TrimSpace(string(fields[2])); {
	case raw == "null":
	case strings.HasPrefix(raw, `"`):
		if err := json.Unmarshal(fields[2], &childrenRef); err != nil {
			return fmt.Errorf("navigation entry children: %w", err)
		}
	default:
		if err := json.Unmarshal(fields[2], &children); err != nil {
			return fmt.Errorf("navigation entry children: %w", err)
		}
	}
	if len(fields) == 4 {
		if err := json.Unmarshal(fields[3], &flags); err != nil {
			return fmt.Errorf("navigation entry flags: %w", err)
		}
	}

	*n = Node{Title: derefString(title), Link: derefString(link), ChildrenRef: childrenRef, Flags: derefString(flags)}
	if len(children) > 0 {
		n.Children = children
	}
	return nil
}

type jsonTree struct {
	Name  string  `json:"name"`
	Nodes []*Node `json:"nodes"`
}

// MarshalJSON encodes the tree as {"name": ..., "nodes": [...]}.
func (t *Tree) MarshalJSON() ([]byte, error) {
	nodes := t.Nodes
	if nodes == nil {
		nodes = []*Node{}
	}
	return json.Marshal(jsonTree{Name: t.Name, Nodes: nodes})
}

// UnmarshalJSON decodes the shape written by MarshalJSON.
func (t *Tree) UnmarshalJSON(data []byte) error {
	var wire jsonTree
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	t.Name = wire.Name
	t.Nodes = nil
	if len(wire.Nodes) > 0 {
		t.Nodes = wire.Nodes
	}
	return nil
}

// EncodeJSON returns the indented JSON encoding of the tree.
func EncodeJSON(tree *Tree) ([]byte, error) {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(tree); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeJSON parses the output of EncodeJSON.
func DecodeJSON(data []byte) (*Tree, error) {
	tree := new(Tree)
	if err := json.Unmarshal(data, tree); err != nil {
		return nil, fmt.Errorf("decode json navigation tree: %w", err)
	}
	return tree, nil
}

type yamlNode struct {
	Title       string  `yaml:"title"`
	Link        string  `yaml:"link,omitempty"`
	Flags       string  `yaml:"flags,omitempty"`
	ChildrenRef string  `yaml:"children_ref,omitempty"`
	Children    []*Node `yaml:"children,omitempty"`
}

// MarshalYAML encodes the node as a mapping; YAML readers expect keys rather
// than positional tuples.
func (n *Node) MarshalYAML() (any, error) {
	return yamlNode{Title: n.Title, Link: n.Link, Flags: n.Flags, ChildrenRef: n.ChildrenRef, Children: n.Children}, nil
}

// UnmarshalYAML decodes the mapping written by MarshalYAML.
func (n *Node) UnmarshalYAML(value *yaml.Node) error {
	var wire yamlNode
	if err := value.Decode(&wire); err != nil {
		return err
	}
	*n = Node{Title: wire.Title, Link: wire.Link, Flags: wire.Flags, ChildrenRef: wire.ChildrenRef}
	if len(wire.Children) > 0 {
		n.Children = wire.Children
	}
	return nil
}

type yamlTree struct {
	Name  string  `yaml:"name"`
	Nodes []*Node `yaml:"nodes"`
}

// EncodeYAML returns the YAML encoding of the tree.
func EncodeYAML(tree *Tree) ([]byte, error) {
	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(yamlTree{Name: tree.Name, Nodes: tree.Nodes}); err != nil {
		return nil, err
	}
	if err := encoder.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeYAML parses the output of EncodeYAML.
func DecodeYAML(data []byte) (*Tree, error) {
	var wire yamlTree
	if err := yaml.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("decode yaml navigation tree: %w", err)
	}
	tree := &Tree{Name: wire.Name}
	if len(wire.Nodes) > 0 {
		tree.Nodes = wire.Nodes
	}
	return tree, nil
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
