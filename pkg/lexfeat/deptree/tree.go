// Package deptree builds navigable dependency trees from annotated sentences.
package deptree

import (
	"github.com/cognicore/lexfeat/pkg/lexfeat/corpus"
	"github.com/cognicore/lexfeat/pkg/lexfeat/textutil"
)

// MemoKey is the Sentence memo key the tree is cached under.
const MemoKey = "deptree"

// Node is one token of the tree.
type Node struct {
	Index    int // 0-based token index
	Word     string
	Lemma    string
	POS      string
	Label    string // relation to the parent
	Parent   int    // parent token index, -1 for a root
	Children []int
}

// Tree is the dependency tree of one sentence. A malformed parse may have
// several roots.
type Tree struct {
	Nodes []Node
	Roots []int
}

// Build constructs the tree of s.
func Build(s *corpus.Sentence) *Tree {
	n := s.Len()
	t := &Tree{Nodes: make([]Node, n)}
	words := textutil.CleanSymbols(s.Words)

	for i := 0; i < n; i++ {
		t.Nodes[i] = Node{
			Index:  i,
			Word:   words[i],
			Lemma:  at(s.Lemmas, i),
			POS:    at(s.Poses, i),
			Label:  at(s.DepLabels, i),
			Parent: -1,
		}
	}
	for i := 0; i < n; i++ {
		gov := 0
		if i < len(s.DepParents) {
			gov = s.DepParents[i]
		}
		p := gov - 1
		if p < 0 || p >= n || p == i {
			t.Roots = append(t.Roots, i)
			continue
		}
		t.Nodes[i].Parent = p
		t.Nodes[p].Children = append(t.Nodes[p].Children, i)
	}
	return t
}

// For returns the tree of s, building it on first use and caching it on the
// sentence so later callers share it.
func For(s *corpus.Sentence) *Tree {
	return s.Memo(MemoKey, func() any { return Build(s) }).(*Tree)
}

func at(xs []string, i int) string {
	if i < len(xs) {
		return xs[i]
	}
	return ""
}

// Len returns the number of nodes.
func (t *Tree) Len() int {
	return len(t.Nodes)
}

// Ancestors returns the chain of parents of i, nearest first. Cycles in a
// malformed parse are cut at the first repeated node.
func (t *Tree) Ancestors(i int) []int {
	var out []int
	seen := map[int]bool{i: true}
	for p := t.Nodes[i].Parent; p >= 0 && !seen[p]; p = t.Nodes[p].Parent {
		out = append(out, p)
		seen[p] = true
	}
	return out
}

// Head returns the token of span whose parent lies outside the span; with
// several candidates the shallowest wins, then the leftmost.
func (t *Tree) Head(span []int) int {
	if len(span) == 0 {
		return -1
	}
	in := make(map[int]bool, len(span))
	for _, i := range span {
		in[i] = true
	}

	head, best := span[0], -1
	for _, i := range span {
		if p := t.Nodes[i].Parent; p >= 0 && in[p] {
			continue
		}
		d := len(t.Ancestors(i))
		if best < 0 || d < best {
			head, best = i, d
		}
	}
	return head
}

// Path returns the node indexes from a up to the lowest common ancestor and
// down to b, both ends included. ok is false when a and b share no ancestor.
func (t *Tree) Path(a, b int) (path []int, ok bool) {
	up := append([]int{a}, t.Ancestors(a)...)
	pos := make(map[int]int, len(up))
	for i, n := range up {
		pos[n] = i
	}

	down := []int{b}
	for _, n := range append([]int{b}, t.Ancestors(b)...) {
		if i, found := pos[n]; found {
			path = append(path, up[:i+1]...)
			for j := len(down) - 2; j >= 0; j-- {
				path = append(path, down[j])
			}
			return path, true
		}
		down = append(down, t.Nodes[n].Parent)
	}
	return nil, false
}
