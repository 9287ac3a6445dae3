package features

import (
	"fmt"
	"iter"

	"github.com/cognicore/lexfeat/pkg/lexfeat/deptree"
	"github.com/cognicore/lexfeat/pkg/lexfeat/internalerr"
)

type relationContexts struct {
	rel RelationGenerator
}

// NewRelationFeaturizer builds an arity-2 featurizer over rel, tagged TDL. A
// nil rel yields a featurizer whose every call fails with ErrUnsupportedArity.
func NewRelationFeaturizer(rel RelationGenerator, opts ...Option) *Featurizer[Relation] {
	return newFeaturizer[Relation](relationContexts{rel: rel}, opts)
}

func (relationContexts) arity() int { return 2 }

func (relationContexts) preprocess(cands []Relation) {
	for _, c := range cands {
		deptree.For(c.Sentence())
	}
}

func (r relationContexts) match(cands []Relation) ([]iter.Seq2[int, Feature], error) {
	if r.rel == nil {
		return nil, fmt.Errorf("relation featurizer: %w: no relation generator for arity 2",
			internalerr.ErrUnsupportedArity)
	}
	tree := stream(NamespaceTree, cands, func(c Relation) []string {
		s := c.Sentence()
		e1, e2 := c.Spans()
		return r.rel.RelationFeatures(s, deptree.For(s), e1.Idxs(), e2.Idxs())
	})
	return []iter.Seq2[int, Feature]{tree}, nil
}
