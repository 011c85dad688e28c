package navtree

import (
	"fmt"
	"io"

	"github.com/ddddddO/gtree"
)

// RenderOptions controls the text outline.
type RenderOptions struct {
	ShowLinks bool
}

// Render writes the tree as an indented outline rooted at the tree name.
func Render(w io.Writer, tree *Tree, opts RenderOptions) error {
	if tree == nil {
		return fmt.Errorf("render: tree is nil")
	}
	root := gtree.NewRoot(tree.Name)
	addOutline(root, tree.Nodes, opts)
	if err := gtree.OutputProgrammably(w, root); err != nil {
		return fmt.Errorf("render navigation tree: %w", err)
	}
	return nil
}

func addOutline(parent *gtree.Node, nodes []*Node, opts RenderOptions) {
	for _, node := range nodes {
		label := node.Title
		if opts.ShowLinks && node.Link != "" {
			label = fmt.Sprintf("%s (%s)", node.Title, node.Link)
		}
		addOutline(parent.Add(label), node.Children, opts)
	}
}
