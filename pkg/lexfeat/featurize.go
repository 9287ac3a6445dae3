package lexfeat

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/cognicore/lexfeat/pkg/lexfeat/candidate"
	"github.com/cognicore/lexfeat/pkg/lexfeat/corpus"
	"github.com/cognicore/lexfeat/pkg/lexfeat/features"
	"github.com/cognicore/lexfeat/pkg/lexfeat/features/generators"
	"github.com/cognicore/lexfeat/pkg/lexfeat/internalerr"
	"github.com/cognicore/lexfeat/pkg/lexfeat/store"
)

// FeatureSet is the result of Featurize: one matrix row per stored span
// (arity 1) or relation (arity 2).
type FeatureSet struct {
	Arity  int
	RowIDs []int64 // span or relation id of each row
	Matrix *features.Matrix
	Index  *features.Index
}

// Featurize fits a featurizer with the built-in generators over every stored
// span (arity 1) or relation (arity 2).
func (e *Engine) Featurize(ctx context.Context, arity int) (*FeatureSet, error) {
	loader := newSentenceLoader(e.store)
	switch arity {
	case 1:
		return e.featurizeMentions(ctx, loader)
	case 2:
		return e.featurizeRelations(ctx, loader)
	}
	return nil, fmt.Errorf("featurize: %w: %d", internalerr.ErrUnsupportedArity, arity)
}

func (e *Engine) featurizeMentions(ctx context.Context, loader *sentenceLoader) (*FeatureSet, error) {
	spans, err := e.store.Spans(ctx)
	if err != nil {
		return nil, err
	}
	fs := &FeatureSet{Arity: 1}
	cands := make([]features.Mention, 0, len(spans))
	for _, sp := range spans {
		m, err := loader.mention(ctx, sp)
		if err != nil {
			return nil, err
		}
		cands = append(cands, m)
		fs.RowIDs = append(fs.RowIDs, sp.ID)
	}

	f, err := features.NewMentionFeaturizer(generators.Generic{}, generators.TreeEntity{},
		features.WithLogger(e.logger))
	if err != nil {
		return nil, err
	}
	if fs.Matrix, err = f.FitTransform(cands); err != nil {
		return nil, err
	}
	fs.Index = f.Index()
	return fs, nil
}

func (e *Engine) featurizeRelations(ctx context.Context, loader *sentenceLoader) (*FeatureSet, error) {
	rels, err := e.store.Relations(ctx)
	if err != nil {
		return nil, err
	}
	fs := &FeatureSet{Arity: 2}
	cands := make([]features.Relation, 0, len(rels))
	for _, r := range rels {
		a, err := e.store.GetSpan(ctx, r.Span1)
		if err != nil {
			return nil, err
		}
		b, err := e.store.GetSpan(ctx, r.Span2)
		if err != nil {
			return nil, err
		}
		if a.SentenceID != b.SentenceID {
			e.logger.Warn("relation spans two sentences, skipped", zap.Int64("relation", r.ID))
			continue
		}
		m1, err := loader.mention(ctx, a)
		if err != nil {
			return nil, err
		}
		m2, err := loader.mention(ctx, b)
		if err != nil {
			return nil, err
		}
		cands = append(cands, candidate.Relation{Sent: m1.Sent, E1: m1.Range, E2: m2.Range})
		fs.RowIDs = append(fs.RowIDs, r.ID)
	}

	f := features.NewRelationFeaturizer(generators.TreeRelation{}, features.WithLogger(e.logger))
	if fs.Matrix, err = f.FitTransform(cands); err != nil {
		return nil, err
	}
	fs.Index = f.Index()
	return fs, nil
}

// WriteIndex writes "column<TAB>feature" lines.
func (fs *FeatureSet) WriteIndex(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for j, name := range fs.Index.Names() {
		if _, err := fmt.Fprintf(bw, "%d\t%s\n", j, name); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteMatrix writes the set cells as "row_id<TAB>column" lines.
func (fs *FeatureSet) WriteMatrix(w io.Writer) error {
	bw := bufio.NewWriter(w)
	var err error
	fs.Matrix.DoNonZero(func(i, j int) {
		if err == nil {
			_, err = fmt.Fprintf(bw, "%d\t%d\n", fs.RowIDs[i], j)
		}
	})
	if err != nil {
		return err
	}
	return bw.Flush()
}

// sentenceLoader hands out one *corpus.Sentence per stored sentence so
// candidates on the same sentence share its cached tree.
type sentenceLoader struct {
	st    store.Store
	sents map[string]*corpus.Sentence
	docs  map[int64]store.Doc
}

func newSentenceLoader(st store.Store) *sentenceLoader {
	return &sentenceLoader{
		st:    st,
		sents: make(map[string]*corpus.Sentence),
		docs:  make(map[int64]store.Doc),
	}
}

func (l *sentenceLoader) sentence(ctx context.Context, id string) (*corpus.Sentence, error) {
	if s, ok := l.sents[id]; ok {
		return s, nil
	}
	stored, err := l.st.GetSentence(ctx, id)
	if err != nil {
		return nil, err
	}
	doc, ok := l.docs[stored.DocID]
	if !ok {
		if doc, err = l.st.GetDoc(ctx, stored.DocID); err != nil {
			return nil, err
		}
		l.docs[stored.DocID] = doc
	}
	s := stored.Corpus(doc)
	l.sents[id] = s
	return s, nil
}

func (l *sentenceLoader) mention(ctx context.Context, sp store.Span) (candidate.Mention, error) {
	s, err := l.sentence(ctx, sp.SentenceID)
	if err != nil {
		return candidate.Mention{}, err
	}
	r, err := candidate.SpanFromChars(s, sp.CharStart, sp.CharEnd)
	if err != nil {
		return candidate.Mention{}, fmt.Errorf("span %d: %w", sp.ID, err)
	}
	return candidate.Mention{Sent: s, Range: r}, nil
}
