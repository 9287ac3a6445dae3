package features

import (
	"github.com/cognicore/lexfeat/pkg/lexfeat/corpus"
	"github.com/cognicore/lexfeat/pkg/lexfeat/deptree"
)

// EntityGenerator emits raw feature names for one span of a sentence. tree may
// be nil for generators that do not look at the parse.
type EntityGenerator interface {
	EntityFeatures(s *corpus.Sentence, tree *deptree.Tree, idxs []int) []string
}

// EntityFunc adapts a function to EntityGenerator.
type EntityFunc func(s *corpus.Sentence, tree *deptree.Tree, idxs []int) []string

func (f EntityFunc) EntityFeatures(s *corpus.Sentence, tree *deptree.Tree, idxs []int) []string {
	return f(s, tree, idxs)
}

// RelationGenerator emits raw feature names for a pair of spans sharing a tree.
type RelationGenerator interface {
	RelationFeatures(s *corpus.Sentence, tree *deptree.Tree, e1, e2 []int) []string
}

// RelationFunc adapts a function to RelationGenerator.
type RelationFunc func(s *corpus.Sentence, tree *deptree.Tree, e1, e2 []int) []string

func (f RelationFunc) RelationFeatures(s *corpus.Sentence, tree *deptree.Tree, e1, e2 []int) []string {
	return f(s, tree, e1, e2)
}
