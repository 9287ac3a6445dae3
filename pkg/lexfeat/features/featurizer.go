// Package features turns annotated candidates into a binary sparse matrix
// over a learned feature vocabulary.
package features

import (
	"fmt"
	"iter"
	"math"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/cognicore/lexfeat/pkg/lexfeat/internalerr"
)

// DefaultTopFeatures is used when TopFeatures is asked for zero or fewer.
const DefaultTopFeatures = 100

// contexts is the per-variant strategy behind a Featurizer. match must fail
// before any stream is consumed when the variant cannot serve the candidates.
type contexts[C any] interface {
	arity() int
	preprocess(cands []C)
	match(cands []C) ([]iter.Seq2[int, Feature], error)
}

// Featurizer learns a feature vocabulary from candidates of type C. Fitting
// swaps the index atomically, so Transform may run concurrently with it and
// sees either the old or the new vocabulary.
type Featurizer[C any] struct {
	ctx    contexts[C]
	logger *zap.Logger

	mu    sync.RWMutex
	index *Index
}

// Option configures a Featurizer.
type Option func(*options)

type options struct {
	logger *zap.Logger
}

// WithLogger sets the logger used for fit summaries.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

func newFeaturizer[C any](ctx contexts[C], opts []Option) *Featurizer[C] {
	o := options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	return &Featurizer[C]{ctx: ctx, logger: o.logger}
}

// Arity is the number of spans each candidate carries.
func (f *Featurizer[C]) Arity() int {
	return f.ctx.arity()
}

// Index returns the fitted vocabulary, or nil before the first fit.
func (f *Featurizer[C]) Index() *Index {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.index
}

func (f *Featurizer[C]) generate(cands []C) ([]iter.Seq2[int, Feature], error) {
	streams, err := f.ctx.match(cands)
	if err != nil {
		return nil, err
	}
	f.ctx.preprocess(cands)
	return streams, nil
}

// FitTransform learns a fresh vocabulary from cands and returns their matrix.
// Columns are numbered in first-seen order over the generator streams.
func (f *Featurizer[C]) FitTransform(cands []C) (*Matrix, error) {
	streams, err := f.generate(cands)
	if err != nil {
		return nil, err
	}

	b := newIndexBuilder()
	rows := make([][]int, len(cands))
	for _, st := range streams {
		for i, feat := range st {
			rows[i] = append(rows[i], b.add(feat))
		}
	}
	index := b.build()
	m := newMatrix(rows, index.Len())

	f.mu.Lock()
	f.index = index
	f.mu.Unlock()

	f.logger.Debug("featurizer fitted",
		zap.Int("candidates", len(cands)),
		zap.Int("features", index.Len()),
		zap.Int("nnz", m.NNZ()))
	return m, nil
}

// Transform encodes cands against the fitted vocabulary. Features never seen
// during fitting are dropped, so the width always matches the vocabulary.
func (f *Featurizer[C]) Transform(cands []C) (*Matrix, error) {
	index := f.Index()
	if index == nil {
		return nil, fmt.Errorf("transform: %w", internalerr.ErrNotFitted)
	}
	streams, err := f.generate(cands)
	if err != nil {
		return nil, err
	}

	rows := make([][]int, len(cands))
	dropped := 0
	for _, st := range streams {
		for i, feat := range st {
			j, ok := index.Column(feat)
			if !ok {
				dropped++
				continue
			}
			rows[i] = append(rows[i], j)
		}
	}
	if dropped > 0 {
		f.logger.Debug("unseen features dropped", zap.Int("count", dropped))
	}
	return newMatrix(rows, index.Len()), nil
}

// FeaturesFor lists the composed feature names generated for one candidate,
// in generation order. It does not need a fitted vocabulary.
func (f *Featurizer[C]) FeaturesFor(c C) ([]string, error) {
	streams, err := f.generate([]C{c})
	if err != nil {
		return nil, err
	}
	var out []string
	for _, st := range streams {
		for _, feat := range st {
			out = append(out, feat.String())
		}
	}
	return out, nil
}

// WeightedFeature pairs a vocabulary entry with a model weight.
type WeightedFeature struct {
	Column int
	Name   string
	Weight float64
}

// TopFeatures ranks the vocabulary by absolute weight, largest first, and
// returns at most nMax entries. Ties keep column order; NaN weights are
// rejected.
func (f *Featurizer[C]) TopFeatures(weights []float64, nMax int) ([]WeightedFeature, error) {
	index := f.Index()
	if index == nil {
		return nil, fmt.Errorf("top features: %w", internalerr.ErrNotFitted)
	}
	if len(weights) != index.Len() {
		return nil, fmt.Errorf("top features: %w: %d weights for %d features",
			internalerr.ErrInvalidInput, len(weights), index.Len())
	}
	for j, w := range weights {
		if math.IsNaN(w) {
			return nil, fmt.Errorf("top features: %w: weight %d is NaN", internalerr.ErrInvalidInput, j)
		}
	}
	if nMax <= 0 {
		nMax = DefaultTopFeatures
	}

	ranked := make([]WeightedFeature, len(weights))
	for j, w := range weights {
		ranked[j] = WeightedFeature{Column: j, Name: index.Name(j), Weight: w}
	}
	sort.SliceStable(ranked, func(a, b int) bool {
		return abs(ranked[a].Weight) > abs(ranked[b].Weight)
	})
	if nMax < len(ranked) {
		ranked = ranked[:nMax]
	}
	return ranked, nil
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

// stream yields (row, feature) pairs for every candidate, tagging the names
// produced by gen with ns.
func stream[C any](ns Namespace, cands []C, gen func(C) []string) iter.Seq2[int, Feature] {
	return func(yield func(int, Feature) bool) {
		for i, c := range cands {
			for _, name := range gen(c) {
				if !yield(i, Feature{Namespace: ns, Name: name}) {
					return
				}
			}
		}
	}
}
