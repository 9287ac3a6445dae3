package features

import (
	"fmt"
	"iter"

	"github.com/cognicore/lexfeat/pkg/lexfeat/deptree"
	"github.com/cognicore/lexfeat/pkg/lexfeat/internalerr"
)

type mentionContexts struct {
	generic EntityGenerator
	tree    EntityGenerator
}

// NewMentionFeaturizer combines a surface-level generator, tagged DDLIB, with
// a tree-based one, tagged TDL.
func NewMentionFeaturizer(generic, tree EntityGenerator, opts ...Option) (*Featurizer[Mention], error) {
	if generic == nil || tree == nil {
		return nil, fmt.Errorf("mention featurizer: %w: both generators are required", internalerr.ErrInvalidConfig)
	}
	return newFeaturizer[Mention](mentionContexts{generic: generic, tree: tree}, opts), nil
}

func (mentionContexts) arity() int { return 1 }

func (mentionContexts) preprocess(cands []Mention) {
	for _, c := range cands {
		deptree.For(c.Sentence())
	}
}

func (m mentionContexts) match(cands []Mention) ([]iter.Seq2[int, Feature], error) {
	generic := stream(NamespaceGeneric, cands, func(c Mention) []string {
		s := c.Sentence()
		return m.generic.EntityFeatures(s, deptree.For(s), c.Span().Idxs())
	})
	tree := stream(NamespaceTree, cands, func(c Mention) []string {
		s := c.Sentence()
		return m.tree.EntityFeatures(s, deptree.For(s), c.Span().Idxs())
	})
	return []iter.Seq2[int, Feature]{generic, tree}, nil
}
