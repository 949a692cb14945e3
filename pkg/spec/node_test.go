package spec

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func sampleTree() *Node {
	return &Node{
		Kind:  KindSection,
		Title: "Specs",
		Children: []*Node{
			{ID: "a", Kind: KindSection, Title: "A", Children: []*Node{
				{ID: "a/b", Kind: KindDocument, Title: "B"},
				{ID: "a/c", Kind: KindDocument, Title: "C"},
			}},
			{ID: "empty", Kind: KindSection, Title: "Index only"},
			{ID: "top", Kind: KindDocument, Title: "Top"},
		},
	}
}

func TestLeaves_SkipsSections(t *testing.T) {
	root := sampleTree()

	assert.Equal(t, []string{"a/b", "a/c", "top"}, root.LeafIDs())
}

func TestIDs_ExcludesRoot(t *testing.T) {
	root := sampleTree()

	assert.Equal(t, []string{"a", "a/b", "a/c", "empty", "top"}, root.IDs())
}

func TestFind(t *testing.T) {
	root := sampleTree()

	node := root.Find("a/c")
	if assert.NotNil(t, node) {
		assert.Equal(t, "C", node.Title)
	}
	assert.Nil(t, root.Find("missing"))
}

func TestPathTo(t *testing.T) {
	root := sampleTree()

	path := root.PathTo("a/b")
	if assert.Len(t, path, 2) {
		assert.Equal(t, "a", path[0].ID)
		assert.Equal(t, "a/b", path[1].ID)
	}
	assert.Len(t, root.PathTo("top"), 1)
	assert.Nil(t, root.PathTo("nope"))
}

func TestWalk_StopsDescent(t *testing.T) {
	root := sampleTree()

	var visited []string
	root.Walk(func(node *Node, depth int) bool {
		visited = append(visited, node.ID)
		return node.ID != "a"
	})

	assert.Equal(t, []string{"", "a", "empty", "top"}, visited)
}

func TestSegments_RoundTrip(t *testing.T) {
	cases := []string{"a", "a/b", "deep/er/path/spec"}
	for _, id := range cases {
		assert.Equal(t, id, JoinID(Segments(id)...))
	}
	assert.Nil(t, Segments(""))
	assert.Equal(t, "a/b", JoinID("", "a", "", "b"))
}
