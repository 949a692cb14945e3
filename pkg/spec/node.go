// Package spec defines the normalized in-memory tree of collected specifications.
package spec

import "strings"

// Separator joins path segments inside a spec id, regardless of host OS.
const Separator = "/"

// Kind distinguishes coverage targets from the directories that group them.
type Kind string

const (
	KindDocument Kind = "document" // leaf spec, a coverage target
	KindSection  Kind = "section"  // directory, never a coverage target
)

// Node is one collected specification or section.
type Node struct {
	ID       string  // relative path, "/"-separated, extension stripped; "" for root
	Title    string  // human-readable title
	Kind     Kind    // document or section
	Link     string  // optional URL to the rendered spec
	Path     string  // source path on disk (display only)
	Children []*Node // ordered lexicographically by ID
}

// IsLeaf reports whether n is a coverage target. Empty sections are not leaves.
func (n *Node) IsLeaf() bool {
	return n.Kind == KindDocument
}

// Walk visits n and its descendants depth-first in child order.
// Returning false from fn stops descent below that node.
func (n *Node) Walk(fn func(node *Node, depth int) bool) {
	n.walk(fn, 0)
}

func (n *Node) walk(fn func(node *Node, depth int) bool, depth int) {
	if !fn(n, depth) {
		return
	}
	for _, c := range n.Children {
		c.walk(fn, depth+1)
	}
}

// Leaves returns all document nodes in tree order.
func (n *Node) Leaves() []*Node {
	var leaves []*Node
	n.Walk(func(node *Node, _ int) bool {
		if node.IsLeaf() {
			leaves = append(leaves, node)
		}
		return true
	})
	return leaves
}

// LeafIDs returns the ids of all document nodes in tree order.
func (n *Node) LeafIDs() []string {
	leaves := n.Leaves()
	ids := make([]string, 0, len(leaves))
	for _, l := range leaves {
		ids = append(ids, l.ID)
	}
	return ids
}

// IDs returns the id of every non-root node in tree order, duplicates included.
func (n *Node) IDs() []string {
	var ids []string
	n.Walk(func(node *Node, depth int) bool {
		if depth > 0 {
			ids = append(ids, node.ID)
		}
		return true
	})
	return ids
}

// Find returns the node with the given id, or nil.
func (n *Node) Find(id string) *Node {
	var found *Node
	n.Walk(func(node *Node, _ int) bool {
		if found != nil {
			return false
		}
		if node.ID == id {
			found = node
			return false
		}
		return true
	})
	return found
}

// PathTo returns the chain of nodes from the root's child down to the node
// with the given id, excluding the root itself. Nil if the id is unknown.
func (n *Node) PathTo(id string) []*Node {
	for _, c := range n.Children {
		if c.ID == id {
			return []*Node{c}
		}
		if rest := c.PathTo(id); rest != nil {
			return append([]*Node{c}, rest...)
		}
	}
	return nil
}

// Segments splits a spec id into its path segments.
func Segments(id string) []string {
	if id == "" {
		return nil
	}
	return strings.Split(id, Separator)
}

// JoinID joins path segments into a spec id.
func JoinID(segments ...string) string {
	var parts []string
	for _, s := range segments {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, Separator)
}
