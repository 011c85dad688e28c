package navtree

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
)

// ErrNotNavTree marks an array declaration whose elements are not
// navigation tuples.
var ErrNotNavTree = errors.New("not a navigation tree")

// File is the decoded content of a navigation script.
type File struct {
	Trees  []*Tree
	Issues []Issue
}

// Issue is a non-fatal problem found while decoding a script, for example a
// NAVTREEINDEX array of plain strings next to the tree itself.
type Issue struct {
	Name     string `json:"name"`
	Line     int    `json:"line"`
	Severity string `json:"severity"` // warning | error
	Message  string `json:"message"`
}

// Tree returns the tree assigned to the named variable.
func (f *File) Tree(name string) (*Tree, bool) {
	for _, tree := range f.Trees {
		if tree.Name == name {
			return tree, true
		}
	}
	return nil, false
}

// First returns the first tree in the script.
func (f *File) First() (*Tree, bool) {
	if len(f.Trees) == 0 {
		return nil, false
	}
	return f.Trees[0], true
}

// SyntaxError reports a script that the JavaScript grammar rejects.
type SyntaxError struct {
	Line   int
	Column int
	Near   string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at line %d, column %d near %q", e.Line, e.Column, e.Near)
}

// DecodeJS parses a navigation script. Every var/let/const declaration whose
// value is an array becomes a Tree; arrays that do not hold navigation
// tuples are reported as issues instead.
func DecodeJS(ctx context.Context, src []byte) (*File, error) {
	p := sitter.NewParser()
	p.SetLanguage(javascript.GetLanguage())

	syntaxTree, err := p.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("parse navigation script: %w", err)
	}
	defer syntaxTree.Close()

	root := syntaxTree.RootNode()
	if root.HasError() {
		return nil, firstSyntaxError(root, src)
	}

	file := &File{Trees: make([]*Tree, 0), Issues: make([]Issue, 0)}
	for i := 0; i < int(root.NamedChildCount()); i++ {
		stmt := root.NamedChild(i)
		switch stmt.Type() {
		case "variable_declaration", "lexical_declaration":
			for j := 0; j < int(stmt.NamedChildCount()); j++ {
				declarator := stmt.NamedChild(j)
				if declarator.Type() != "variable_declarator" {
					continue
				}
				decodeDeclarator(declarator, src, file)
			}
		}
	}
	return file, nil
}

// DecodeJSTree decodes a script and returns the named tree, or the first
// tree when name is empty.
func DecodeJSTree(ctx context.Context, src []byte, name string) (*Tree, error) {
	file, err := DecodeJS(ctx, src)
	if err != nil {
		return nil, err
	}
	if name == "" {
		if tree, ok := file.First(); ok {
			return tree, nil
		}
		return nil, fmt.Errorf("script declares no navigation tree")
	}
	tree, ok := file.Tree(name)
	if !ok {
		return nil, fmt.Errorf("script does not declare navigation tree %q", name)
	}
	return tree, nil
}

func decodeDeclarator(declarator *sitter.Node, src []byte, file *File) {
	nameNode := declarator.ChildByFieldName("name")
	valueNode := declarator.ChildByFieldName("value")
	if nameNode == nil || valueNode == nil || valueNode.Type() != "array" {
		return
	}
	name := nameNode.Content(src)

	nodes, err := decodeNodeList(valueNode, src)
	if err != nil {
		file.Issues = append(file.Issues, Issue{
			Name:     name,
			Line:     int(declarator.StartPoint().Row) + 1,
			Severity: "warning",
			Message:  err.Error(),
		})
		return
	}
	file.Trees = append(file.Trees, &Tree{Name: name, Nodes: nodes})
}

func decodeNodeList(array *sitter.Node, src []byte) ([]*Node, error) {
	elements := namedElements(array)
	if len(elements) == 0 {
		return nil, nil
	}
	nodes := make([]*Node, 0, len(elements))
	for _, element := range elements {
		node, err := decodeTuple(element, src)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, node)
	}
	return nodes, nil
}

func decodeTuple(element *sitter.Node, src []byte) (*Node, error) {
	line := int(element.StartPoint().Row) + 1
	if element.Type() != "array" {
		return nil, fmt.Errorf("line %d: %w: entry is %s, not an array", line, ErrNotNavTree, element.Type())
	}
	fields := namedElements(element)
	if len(fields) != 3 && len(fields) != 4 {
		return nil, fmt.Errorf("line %d: %w: entry has %d elements, want 3 or 4", line, ErrNotNavTree, len(fields))
	}

	title, err := stringOrNull(fields[0], src)
	if err != nil {
		return nil, fmt.Errorf("line %d: title: %w", line, err)
	}
	link, err := stringOrNull(fields[1], src)
	if err != nil {
		return nil, fmt.Errorf("line %d: link: %w", line, err)
	}

	node := &Node{Title: title, Link: link}
	switch fields[2].Type() {
	case "null":
	case "string":
		ref, err := UnquoteJS(fields[2].Content(src))
		if err != nil {
			return nil, fmt.Errorf("line %d: children: %w", line, err)
		}
		node.ChildrenRef = ref
	case "array":
		children, err := decodeNodeList(fields[2], src)
		if err != nil {
			return nil, err
		}
		node.Children = children
	default:
		return nil, fmt.Errorf("line %d: %w: children are %s", line, ErrNotNavTree, fields[2].Type())
	}

	if len(fields) == 4 {
		flags, err := stringOrNull(fields[3], src)
		if err != nil {
			return nil, fmt.Errorf("line %d: flags: %w", line, err)
		}
		node.Flags = flags
	}
	return node, nil
}

// namedElements returns the named children of an array, skipping comments.
func namedElements(array *sitter.Node) []*sitter.Node {
	out := make([]*sitter.Node, 0, array.NamedChildCount())
	for i := 0; i < int(array.NamedChildCount()); i++ {
		child := array.NamedChild(i)
		if child.Type() == "comment" {
			continue
		}
		out = append(out, child)
	}
	return out
}

func stringOrNull(node *sitter.Node, src []byte) (string, error) {
	switch node.Type() {
	case "null":
		return "", nil
	case "string":
		return UnquoteJS(node.Content(src))
	default:
		return "", fmt.Errorf("%w: expected string or null, got %s", ErrNotNavTree, node.Type())
	}
}

func firstSyntaxError(root *sitter.Node, src []byte) error {
	var found *sitter.Node
	var search func(n *sitter.Node)
	search = func(n *sitter.Node) {
		if found != nil {
			return
		}
		if n.Type() == "ERROR" || n.IsMissing() {
			found = n
			return
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			search(n.Child(i))
		}
	}
	search(root)
	if found == nil {
		found = root
	}

	near := strings.TrimSpace(found.Content(src))
	if len(near) > 40 {
		near = near[:40]
	}
	if found.IsMissing() {
		near = "missing " + found.Type()
	}
	return &SyntaxError{
		Line:   int(found.StartPoint().Row) + 1,
		Column: int(found.StartPoint().Column) + 1,
		Near:   near,
	}
}

// UnquoteJS decodes a single- or double-quoted JavaScript string literal.
func UnquoteJS(raw string) (string, error) {
	if len(raw) < 2 {
		return "", fmt.Errorf("invalid string literal %q", raw)
	}
	quote := raw[0]
	if (quote != '"' && quote != '\'') || raw[len(raw)-1] != quote {
		return "", fmt.Errorf("invalid string literal %q", raw)
	}
	body := raw[1 : len(raw)-1]
	if !strings.ContainsRune(body, '\\') {
		return body, nil
	}

	var sb strings.Builder
	sb.Grow(len(body))
	for i := 0; i < len(body); i++ {
		c := body[i]
		if c != '\\' {
			sb.WriteByte(c)
			continue
		}
		i++
		if i >= len(body) {
			return "", fmt.Errorf("unterminated escape in %q", raw)
		}
		switch esc := body[i]; esc {
		case 'n':
			sb.WriteByte('\n')
		case 't':
			sb.WriteByte('\t')
		case 'r':
			sb.WriteByte('\r')
		case 'b':
			sb.WriteByte('\b')
		case 'f':
			sb.WriteByte('\f')
		case 'v':
			sb.WriteByte('\v')
		case '0':
			sb.WriteByte(0)
		case '\n':
			// line continuation
		case '\r':
			if i+1 < len(body) && body[i+1] == '\n' {
				i++
			}
		case 'x':
			if i+2 >= len(body) {
				return "", fmt.Errorf("short \\x escape in %q", raw)
			}
			v, err := strconv.ParseUint(body[i+1:i+3], 16, 8)
			if err != nil {
				return "", fmt.Errorf("bad \\x escape in %q", raw)
			}
			sb.WriteRune(rune(v))
			i += 2
		case 'u':
			r, width, err := decodeUnicodeEscape(body[i+1:])
			if err != nil {
				return "", fmt.Errorf("%w in %q", err, raw)
			}
			i += width
			if utf16High(r) {
				if low, lowWidth, ok := lowSurrogate(body[i+1:]); ok {
					r = 0x10000 + (r-0xd800)<<10 + (low - 0xdc00)
					i += lowWidth
				}
			}
			if !utf8.ValidRune(r) {
				r = utf8.RuneError
			}
			sb.WriteRune(r)
		default:
			sb.WriteByte(esc)
		}
	}
	return sb.String(), nil
}

func decodeUnicodeEscape(s string) (rune, int, error) {
	if strings.HasPrefix(s, "{") {
		end := strings.IndexByte(s, '}')
		if end < 2 {
			return 0, 0, fmt.Errorf("bad \\u{} escape")
		}
		v, err := strconv.ParseUint(s[1:end], 16, 32)
		if err != nil {
			return 0, 0, fmt.Errorf("bad \\u{} escape")
		}
		return rune(v), end + 1, nil
	}
	if len(s) < 4 {
		return 0, 0, fmt.Errorf("short \\u escape")
	}
	v, err := strconv.ParseUint(s[:4], 16, 16)
	if err != nil {
		return 0, 0, fmt.Errorf("bad \\u escape")
	}
	return rune(v), 4, nil
}

func utf16High(r rune) bool {
	return r >= 0xd800 && r < 0xdc00
}

func lowSurrogate(s string) (rune, int, bool) {
	if len(s) < 6 || s[0] != '\\' || s[1] != 'u' {
		return 0, 0, false
	}
	v, err := strconv.ParseUint(s[2:6], 16, 16)
	if err != nil || v < 0xdc00 || v >= 0xe000 {
		return 0, 0, false
	}
	return rune(v), 6, true
}
