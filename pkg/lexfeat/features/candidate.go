package features

import (
	"github.com/cognicore/lexfeat/pkg/lexfeat/corpus"
	"github.com/cognicore/lexfeat/pkg/lexfeat/deptree"
)

// Span is an inclusive range of word indexes within a sentence.
type Span struct {
	Start int
	End   int
}

// Len returns the number of words covered.
func (s Span) Len() int {
	if s.End < s.Start {
		return 0
	}
	return s.End - s.Start + 1
}

// Idxs lists the word indexes covered by the span.
func (s Span) Idxs() []int {
	out := make([]int, 0, s.Len())
	for i := s.Start; i <= s.End; i++ {
		out = append(out, i)
	}
	return out
}

// Mention is an arity-1 candidate: one word span in a sentence.
type Mention interface {
	Sentence() *corpus.Sentence
	Span() Span
}

// Relation is an arity-2 candidate: two word spans in the same sentence.
type Relation interface {
	Sentence() *corpus.Sentence
	Spans() (e1, e2 Span)
}

// LegacyCandidate is the older candidate shape carrying explicit index lists
// and, when one was computed upstream, its own tree.
type LegacyCandidate interface {
	Sentence() *corpus.Sentence
	Idxs() []int
	E1Idxs() []int
	E2Idxs() []int
	Root() *deptree.Tree // nil when no tree is available
}
