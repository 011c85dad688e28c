package navtree

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDesignDocsShape(t *testing.T) {
	tree := DesignDocs()

	require.Equal(t, "page_design_docs", tree.Name)
	require.Len(t, tree.Nodes, 1)
	assert.Equal(t, "ARM Port", tree.Nodes[0].Title)
	assert.Equal(t, "page_arm_port.html", tree.Nodes[0].Link)

	assert.Equal(t, 5, Depth(tree.Nodes))
	assert.Equal(t, 14, Count(tree.Nodes))

	spine := []string{
		"ARM Port",
		"ARM Port Design Document",
		"Pattern Mode",
		"Instrumentation to compare a memory value to an immediate",
	}
	parent, ok := Lookup(tree.Nodes, spine)
	require.True(t, ok, "expected spine %v to resolve", spine)

	leaves := Leaves(tree.Nodes)
	require.Len(t, leaves, 10)
	assert.Equal(t, parent.Children, leaves)
	assert.Equal(t, "Thumb mode: can repeat single byte", leaves[0].Title)
	assert.Equal(t, "For 2 spills, have drreg use ldm or ldrd?", leaves[9].Title)

	for i, leaf := range leaves {
		assert.Nil(t, leaf.Children, "leaf %d should use a nil child list", i)
	}
}

func TestDesignDocsAnchorsAreSequential(t *testing.T) {
	tree := DesignDocs()

	want := 102
	Walk(tree.Nodes, func(v Visit) bool {
		if v.Depth == 0 {
			return true
		}
		assert.Equal(t, "page_arm_port.html#autotoc_md"+strconv.Itoa(want), v.Node.Link, v.PathString())
		want++
		return true
	})
	assert.Equal(t, 115, want)
}

func TestDesignDocsReturnsIndependentCopies(t *testing.T) {
	first := DesignDocs()
	first.Nodes[0].Title = "changed"
	first.Nodes[0].Children = nil

	second := DesignDocs()
	assert.Equal(t, "ARM Port", second.Nodes[0].Title)
	assert.Equal(t, 14, Count(second.Nodes))
}

func TestDesignDocsValidates(t *testing.T) {
	require.NoError(t, Validate(DesignDocs()))
}

func TestFindAndFindLink(t *testing.T) {
	nodes := DesignDocs().Nodes

	node, ok := Find(nodes, "Pattern Mode")
	require.True(t, ok)
	assert.Equal(t, "page_arm_port.html#autotoc_md103", node.Link)

	node, ok = FindLink(nodes, "page_arm_port.html#autotoc_md110")
	require.True(t, ok)
	assert.Equal(t, "Load immed from TLS slot", node.Title)

	_, ok = Find(nodes, "Shadow Memory")
	assert.False(t, ok)
}

func TestWalkCanSkipChildren(t *testing.T) {
	visited := 0
	Walk(DesignDocs().Nodes, func(v Visit) bool {
		visited++
		return v.Depth < 1
	})
	assert.Equal(t, 2, visited)
}

func TestCloneAndEqual(t *testing.T) {
	tree := DesignDocs()
	clone := tree.Clone()
	require.True(t, Equal(tree.Nodes, clone.Nodes))

	clone.Nodes[0].Children[0].Children[0].Title = "Other Mode"
	assert.False(t, Equal(tree.Nodes, clone.Nodes))
	assert.Equal(t, "Pattern Mode", tree.Nodes[0].Children[0].Children[0].Title)
}
