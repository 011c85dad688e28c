package navtree

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

// MarkdownOptions controls how FromMarkdown assigns titles and anchors.
type MarkdownOptions struct {
	// Page is the generated HTML file every link points into, e.g.
	// "page_arm_port.html". Required.
	Page string
	// Title of the page node. When empty the first level-1 heading is used
	// as the page node.
	Title string
	// VarName of the resulting tree. Defaults to the page file name without
	// its extension.
	VarName string
	// FirstAnchor is the number of the first generated autotoc_md anchor.
	FirstAnchor int
	// MaxLevel drops headings deeper than this level from the outline. They
	// still consume an anchor number. Zero keeps every level.
	MaxLevel int
}

var nonIdentChars = regexp.MustCompile(`[^A-Za-z0-9_$]`)

// FromMarkdown builds a navigation tree from the headings of a Markdown
// page. The page itself is the single top-level node; headings nest under it
// by level. Each heading links to page#autotoc_mdN, numbered in document
// order from FirstAnchor, unless it carries an explicit {#id} attribute.
func FromMarkdown(src []byte, opts MarkdownOptions) (*Tree, error) {
	if strings.TrimSpace(opts.Page) == "" {
		return nil, fmt.Errorf("markdown outline: page file is required")
	}
	varName := opts.VarName
	if varName == "" {
		varName = defaultVarName(opts.Page)
	}
	if !IsIdentifier(varName) {
		return nil, fmt.Errorf("markdown outline: invalid variable name %q", varName)
	}

	md := goldmark.New(goldmark.WithParserOptions(parser.WithAttribute()))
	doc := md.Parser().Parse(text.NewReader(src))

	page := &Node{Title: strings.TrimSpace(opts.Title), Link: opts.Page}
	type stackEntry struct {
		node  *Node
		level int
	}
	stack := []stackEntry{{node: page, level: 0}}
	anchor := opts.FirstAnchor

	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		heading, ok := n.(*ast.Heading)
		if !ok {
			continue
		}
		title := strings.TrimSpace(string(heading.Text(src)))

		if page.Title == "" && heading.Level == 1 {
			page.Title = title
			continue
		}

		link := opts.Page
		if id, ok := heading.AttributeString("id"); ok {
			link += "#" + attributeText(id)
		} else {
			link += fmt.Sprintf("#autotoc_md%d", anchor)
			anchor++
		}
		if opts.MaxLevel > 0 && heading.Level > opts.MaxLevel {
			continue
		}

		node := &Node{Title: title, Link: link}
		for len(stack) > 1 && stack[len(stack)-1].level >= heading.Level {
			stack = stack[:len(stack)-1]
		}
		parent := stack[len(stack)-1].node
		parent.Children = append(parent.Children, node)
		stack = append(stack, stackEntry{node: node, level: heading.Level})
	}

	if page.Title == "" {
		return nil, fmt.Errorf("markdown outline: no title given and no level-1 heading found")
	}
	return &Tree{Name: varName, Nodes: []*Node{page}}, nil
}

func attributeText(value any) string {
	switch v := value.(type) {
	case []byte:
		return string(v)
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

func defaultVarName(page string) string {
	base := strings.TrimSuffix(filepath.Base(page), filepath.Ext(page))
	name := nonIdentChars.ReplaceAllString(base, "_")
	if name == "" || (name[0] >= '0' && name[0] <= '9') {
		name = "_" + name
	}
	return name
}
