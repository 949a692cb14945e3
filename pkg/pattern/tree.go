package pattern

// Tree is a spec hierarchy annotated with per-node coverage.
type Tree struct {
	Label string     `json:"label"`
	Roots []TreeNode `json:"roots"`
}

// TreeNode is one node of a Tree. Leaves carry a Status and their spec id
// as Name; sections carry an empty Status and a Detail such as "3/4".
type TreeNode struct {
	Name     string     `json:"name"`
	Status   Status     `json:"status,omitempty"`
	Detail   string     `json:"detail,omitempty"`
	Children []TreeNode `json:"children,omitempty"`
}

func (t *Tree) Type() PatternType { return PatternTypeTree }

// IsSection reports whether the node groups other nodes.
func (n TreeNode) IsSection() bool { return n.Status == "" }

// Size counts every node in the tree.
func (t *Tree) Size() int {
	var count func([]TreeNode) int
	count = func(nodes []TreeNode) int {
		n := len(nodes)
		for _, c := range nodes {
			n += count(c.Children)
		}
		return n
	}
	return count(t.Roots)
}
