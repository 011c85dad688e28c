package navtree

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

const topLevelIndent = "    "

// EncodeJS writes the tree in the layout Doxygen uses for navigation
// scripts:
//
//	var page_design_docs =
//	[
//	    [ "ARM Port", "page_arm_port.html", [
//	      [ "Leaf", "page_arm_port.html#autotoc_md105", null ]
//	    ] ]
//	];
func EncodeJS(w io.Writer, tree *Tree) error {
	if tree == nil {
		return fmt.Errorf("encode js: tree is nil")
	}
	if !IsIdentifier(tree.Name) {
		return fmt.Errorf("encode js: invalid variable name %q", tree.Name)
	}

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "var %s =\n[\n", tree.Name)
	writeJSNodes(bw, tree.Nodes, topLevelIndent)
	bw.WriteString("\n];\n")
	return bw.Flush()
}

// EncodeJSString is EncodeJS into a string.
func EncodeJSString(tree *Tree) (string, error) {
	var sb strings.Builder
	if err := EncodeJS(&sb, tree); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func writeJSNodes(w *bufio.Writer, nodes []*Node, indent string) {
	for i, node := range nodes {
		if i > 0 {
			w.WriteString(",\n")
		}
		w.WriteString(indent)
		w.WriteString("[ ")
		w.WriteString(QuoteJS(node.Title))
		w.WriteString(", ")
		w.WriteString(linkLiteral(node.Link))
		w.WriteString(", ")
		switch {
		case node.ChildrenRef != "":
			w.WriteString(QuoteJS(node.ChildrenRef))
		case node.IsLeaf():
			w.WriteString("null")
		default:
			w.WriteString("[\n")
			writeJSNodes(w, node.Children, indent+"  ")
			w.WriteString("\n")
			w.WriteString(indent)
			w.WriteString("]")
		}
		if node.Flags != "" {
			w.WriteString(", ")
			w.WriteString(QuoteJS(node.Flags))
		}
		w.WriteString(" ]")
	}
}

func linkLiteral(link string) string {
	if link == "" {
		return "null"
	}
	return QuoteJS(link)
}

// QuoteJS returns s as a double-quoted JavaScript string literal. Printable
// characters, including non-ASCII ones, are written as is; bytes that are not
// valid UTF-8 become U+FFFD.
func QuoteJS(s string) string {
	var sb strings.Builder
	sb.Grow(len(s) + 2)
	sb.WriteByte('"')
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size == 1 {
			sb.WriteRune(utf8.RuneError)
			i++
			continue
		}
		i += size
		switch r {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		case '\b':
			sb.WriteString(`\b`)
		case '\f':
			sb.WriteString(`\f`)
		case '\v':
			sb.WriteString(`\v`)
		case '\u2028', '\u2029':
			fmt.Fprintf(&sb, `\u%04x`, r)
		default:
			if r < 0x20 || r == 0x7f {
				fmt.Fprintf(&sb, `\x%02x`, r)
				continue
			}
			sb.WriteRune(r)
		}
	}
	sb.WriteByte('"')
	return sb.String()
}
