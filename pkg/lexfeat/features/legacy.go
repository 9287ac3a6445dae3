package features

import (
	"fmt"
	"iter"

	"github.com/cognicore/lexfeat/pkg/lexfeat/internalerr"
)

// LegacyGenerators are the families used by the legacy featurizer.
type LegacyGenerators struct {
	Generic  EntityGenerator   // DDLIB, always used for arity 1
	Entity   EntityGenerator   // TDLIB, arity 1, needs candidate trees
	Relation RelationGenerator // TDLIB, arity 2, needs candidate trees
}

type legacyContexts struct {
	n    int
	gens LegacyGenerators
}

// NewLegacyFeaturizer serves candidates that carry their own trees. Tree
// features are produced only when the first candidate of a call has a tree;
// candidates without one contribute no tree features. Arities other than 1
// and 2 fail on use.
func NewLegacyFeaturizer(arity int, gens LegacyGenerators, opts ...Option) *Featurizer[LegacyCandidate] {
	return newFeaturizer[LegacyCandidate](legacyContexts{n: arity, gens: gens}, opts)
}

func (l legacyContexts) arity() int { return l.n }

func (legacyContexts) preprocess([]LegacyCandidate) {}

func (l legacyContexts) match(cands []LegacyCandidate) ([]iter.Seq2[int, Feature], error) {
	hasTree := len(cands) > 0 && cands[0].Root() != nil

	switch l.n {
	case 1:
		var streams []iter.Seq2[int, Feature]
		if l.gens.Generic != nil {
			streams = append(streams, stream(NamespaceGeneric, cands, func(c LegacyCandidate) []string {
				return l.gens.Generic.EntityFeatures(c.Sentence(), c.Root(), c.Idxs())
			}))
		}
		if hasTree && l.gens.Entity != nil {
			streams = append(streams, stream(NamespaceLegacyTree, cands, func(c LegacyCandidate) []string {
				if c.Root() == nil {
					return nil
				}
				return l.gens.Entity.EntityFeatures(c.Sentence(), c.Root(), c.Idxs())
			}))
		}
		return streams, nil
	case 2:
		if l.gens.Relation == nil {
			return nil, fmt.Errorf("legacy featurizer: %w: no relation generator for arity 2",
				internalerr.ErrUnsupportedArity)
		}
		if !hasTree {
			return nil, nil
		}
		return []iter.Seq2[int, Feature]{
			stream(NamespaceLegacyTree, cands, func(c LegacyCandidate) []string {
				if c.Root() == nil {
					return nil
				}
				return l.gens.Relation.RelationFeatures(c.Sentence(), c.Root(), c.E1Idxs(), c.E2Idxs())
			}),
		}, nil
	}
	return nil, fmt.Errorf("legacy featurizer: %w: %d", internalerr.ErrUnsupportedArity, l.n)
}
