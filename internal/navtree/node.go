package navtree

import "strings"

// Node is one entry of a Doxygen navigation tree: a title, a link target and
// the ordered entries nested below it.
type Node struct {
	Title    string  `validate:"required"`
	Link     string  // empty encodes as null
	Children []*Node // nil for leaves
	// ChildrenRef names a separate script holding the children, the way
	// Doxygen splits large trees for lazy loading.
	ChildrenRef string
	Flags       string // optional fourth tuple element
}

// Tree is a named, ordered list of top-level nodes. Name is the JavaScript
// variable the tree is assigned to in the generated script.
type Tree struct {
	Name  string  `validate:"required,jsident"`
	Nodes []*Node `validate:"required,min=1"`
}

// IsLeaf reports whether the node has no children, inline or referenced.
func (n *Node) IsLeaf() bool {
	return len(n.Children) == 0 && n.ChildrenRef == ""
}

// Clone returns a deep copy of the node.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	out := &Node{
		Title:       n.Title,
		Link:        n.Link,
		ChildrenRef: n.ChildrenRef,
		Flags:       n.Flags,
	}
	out.Children = cloneNodes(n.Children)
	return out
}

// Clone returns a deep copy of the tree.
func (t *Tree) Clone() *Tree {
	if t == nil {
		return nil
	}
	return &Tree{Name: t.Name, Nodes: cloneNodes(t.Nodes)}
}

func cloneNodes(nodes []*Node) []*Node {
	if len(nodes) == 0 {
		return nil
	}
	out := make([]*Node, 0, len(nodes))
	for _, child := range nodes {
		out = append(out, child.Clone())
	}
	return out
}

// Equal reports whether two node lists have identical titles, links, flags
// and nesting. A nil and an empty child list compare equal.
func Equal(a, b []*Node) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] == nil || b[i] == nil {
			if a[i] != b[i] {
				return false
			}
			continue
		}
		if a[i].Title != b[i].Title || a[i].Link != b[i].Link || a[i].Flags != b[i].Flags || a[i].ChildrenRef != b[i].ChildrenRef {
			return false
		}
		if !Equal(a[i].Children, b[i].Children) {
			return false
		}
	}
	return true
}

// Visit describes one step of a walk.
type Visit struct {
	Node  *Node
	Depth int      // 0 for top-level nodes
	Path  []string // titles from the top-level node down to Node
}

// PathString joins the visit path with " > ".
func (v Visit) PathString() string {
	return strings.Join(v.Path, " > ")
}

// Walk visits nodes depth first in document order. Returning false from fn
// skips the children of the current node.
func Walk(nodes []*Node, fn func(Visit) bool) {
	walk(nodes, 0, nil, fn)
}

func walk(nodes []*Node, depth int, path []string, fn func(Visit) bool) {
	for _, node := range nodes {
		if node == nil {
			continue
		}
		nodePath := make([]string, len(path)+1)
		copy(nodePath, path)
		nodePath[len(path)] = node.Title
		if !fn(Visit{Node: node, Depth: depth, Path: nodePath}) {
			continue
		}
		walk(node.Children, depth+1, nodePath, fn)
	}
}

// Find returns the first node (in document order) with the given title.
func Find(nodes []*Node, title string) (*Node, bool) {
	var found *Node
	Walk(nodes, func(v Visit) bool {
		if found != nil {
			return false
		}
		if v.Node.Title == title {
			found = v.Node
			return false
		}
		return true
	})
	return found, found != nil
}

// FindLink returns the first node whose link equals link.
func FindLink(nodes []*Node, link string) (*Node, bool) {
	var found *Node
	Walk(nodes, func(v Visit) bool {
		if found != nil {
			return false
		}
		if v.Node.Link == link {
			found = v.Node
			return false
		}
		return true
	})
	return found, found != nil
}

// Lookup follows a path of titles from the top level down.
func Lookup(nodes []*Node, path []string) (*Node, bool) {
	if len(path) == 0 {
		return nil, false
	}
	var current *Node
	level := nodes
	for _, title := range path {
		current = nil
		for _, node := range level {
			if node != nil && node.Title == title {
				current = node
				break
			}
		}
		if current == nil {
			return nil, false
		}
		level = current.Children
	}
	return current, true
}

// Count returns the number of nodes in the list, including descendants.
func Count(nodes []*Node) int {
	total := 0
	Walk(nodes, func(Visit) bool {
		total++
		return true
	})
	return total
}

// Depth returns the number of levels in the list; zero for an empty list.
func Depth(nodes []*Node) int {
	deepest := 0
	Walk(nodes, func(v Visit) bool {
		if v.Depth+1 > deepest {
			deepest = v.Depth + 1
		}
		return true
	})
	return deepest
}

// Leaves returns the leaf nodes in document order.
func Leaves(nodes []*Node) []*Node {
	out := make([]*Node, 0)
	Walk(nodes, func(v Visit) bool {
		if v.Node.IsLeaf() {
			out = append(out, v.Node)
		}
		return true
	})
	return out
}
