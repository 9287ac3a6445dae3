package memstore

import (
	"context"
	"crypto/rand"
	"fmt"
	"slices"
	"sync"

	"github.com/oklog/ulid/v2"

	"github.com/cognicore/lexfeat/pkg/lexfeat/internalerr"
	"github.com/cognicore/lexfeat/pkg/lexfeat/store"
)

type docKey struct {
	file     string
	position int
}

// Store is an in-memory implementation of store.Store for tests.
type Store struct {
	mu        sync.RWMutex
	nextDoc   int64
	nextSpan  int64
	nextRel   int64
	docs      map[int64]store.Doc
	keyIndex  map[docKey]int64
	sentences map[string]store.Sentence
	sentOrder []string
	spans     map[int64]store.Span
	spanOrder []int64
	relations []store.Relation
	entropy   *ulid.MonotonicEntropy
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		nextDoc:   1,
		nextSpan:  1,
		nextRel:   1,
		docs:      make(map[int64]store.Doc),
		keyIndex:  make(map[docKey]int64),
		sentences: make(map[string]store.Sentence),
		spans:     make(map[int64]store.Span),
		entropy:   ulid.Monotonic(rand.Reader, 0),
	}
}

// Close implements store.Store.
func (s *Store) Close() error { return nil }

// UpsertDoc inserts or updates a document, keyed by file and position.
func (s *Store) UpsertDoc(ctx context.Context, d store.Doc) (int64, error) {
	if d.File == "" {
		return 0, fmt.Errorf("upsert doc: %w: file is required", internalerr.ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	k := docKey{d.File, d.Position}
	id, ok := s.keyIndex[k]
	if !ok {
		id = s.nextDoc
		s.nextDoc++
		s.keyIndex[k] = id
	} else {
		s.dropSentences(id)
	}
	d.ID = id
	s.docs[id] = d
	return id, nil
}

// dropSentences removes the sentences of doc id with their spans and
// relations. Callers hold the write lock.
func (s *Store) dropSentences(id int64) {
	gone := make(map[string]bool)
	s.sentOrder = slices.DeleteFunc(s.sentOrder, func(sid string) bool {
		if s.sentences[sid].DocID == id {
			gone[sid] = true
			delete(s.sentences, sid)
			return true
		}
		return false
	})
	goneSpans := make(map[int64]bool)
	s.spanOrder = slices.DeleteFunc(s.spanOrder, func(spid int64) bool {
		if gone[s.spans[spid].SentenceID] {
			goneSpans[spid] = true
			delete(s.spans, spid)
			return true
		}
		return false
	})
	s.relations = slices.DeleteFunc(s.relations, func(r store.Relation) bool {
		return goneSpans[r.Span1] || goneSpans[r.Span2]
	})
}

// GetDoc returns a document by ID.
func (s *Store) GetDoc(ctx context.Context, id int64) (store.Doc, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if doc, ok := s.docs[id]; ok {
		return doc, nil
	}
	return store.Doc{}, fmt.Errorf("doc %d: %w", id, internalerr.ErrNotFound)
}

// GetDocByKey returns a document by file and position.
func (s *Store) GetDocByKey(ctx context.Context, file string, position int) (store.Doc, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if id, ok := s.keyIndex[docKey{file, position}]; ok {
		return s.docs[id], true, nil
	}
	return store.Doc{}, false, nil
}

// Docs lists documents in insertion order.
func (s *Store) Docs(ctx context.Context) ([]store.Doc, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]store.Doc, 0, len(s.docs))
	for id := int64(1); id < s.nextDoc; id++ {
		if d, ok := s.docs[id]; ok {
			out = append(out, d)
		}
	}
	return out, nil
}

// AddSentence stores a sentence under a fresh ULID.
func (s *Store) AddSentence(ctx context.Context, sent store.Sentence) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.docs[sent.DocID]; !ok {
		return "", fmt.Errorf("add sentence: doc %d: %w", sent.DocID, internalerr.ErrNotFound)
	}
	sent.ID = ulid.MustNew(ulid.Now(), s.entropy).String()
	s.sentences[sent.ID] = copySentence(sent)
	s.sentOrder = append(s.sentOrder, sent.ID)
	return sent.ID, nil
}

// GetSentence returns a sentence by ID.
func (s *Store) GetSentence(ctx context.Context, id string) (store.Sentence, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if sent, ok := s.sentences[id]; ok {
		return copySentence(sent), nil
	}
	return store.Sentence{}, fmt.Errorf("sentence %s: %w", id, internalerr.ErrNotFound)
}

// SentencesByDoc lists the sentences of a document by position.
func (s *Store) SentencesByDoc(ctx context.Context, docID int64) ([]store.Sentence, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []store.Sentence
	for _, id := range s.sentOrder {
		if sent := s.sentences[id]; sent.DocID == docID {
			out = append(out, copySentence(sent))
		}
	}
	slices.SortStableFunc(out, func(a, b store.Sentence) int { return a.Position - b.Position })
	return out, nil
}

// AddSpan stores a span on an existing sentence.
func (s *Store) AddSpan(ctx context.Context, sp store.Span) (int64, error) {
	if sp.CharEnd <= sp.CharStart {
		return 0, fmt.Errorf("add span: %w: empty range [%d,%d)", internalerr.ErrInvalidInput, sp.CharStart, sp.CharEnd)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sentences[sp.SentenceID]; !ok {
		return 0, fmt.Errorf("add span: sentence %s: %w", sp.SentenceID, internalerr.ErrNotFound)
	}
	sp.ID = s.nextSpan
	s.nextSpan++
	s.spans[sp.ID] = sp
	s.spanOrder = append(s.spanOrder, sp.ID)
	return sp.ID, nil
}

// GetSpan returns a span by ID.
func (s *Store) GetSpan(ctx context.Context, id int64) (store.Span, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if sp, ok := s.spans[id]; ok {
		return sp, nil
	}
	return store.Span{}, fmt.Errorf("span %d: %w", id, internalerr.ErrNotFound)
}

// Spans lists spans in insertion order.
func (s *Store) Spans(ctx context.Context) ([]store.Span, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]store.Span, 0, len(s.spanOrder))
	for _, id := range s.spanOrder {
		out = append(out, s.spans[id])
	}
	return out, nil
}

// AddRelation links two existing spans.
func (s *Store) AddRelation(ctx context.Context, r store.Relation) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range []int64{r.Span1, r.Span2} {
		if _, ok := s.spans[id]; !ok {
			return 0, fmt.Errorf("add relation: span %d: %w", id, internalerr.ErrNotFound)
		}
	}
	r.ID = s.nextRel
	s.nextRel++
	s.relations = append(s.relations, r)
	return r.ID, nil
}

// Relations lists relations in insertion order.
func (s *Store) Relations(ctx context.Context) ([]store.Relation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Clone(s.relations), nil
}

func copySentence(s store.Sentence) store.Sentence {
	s.Words = slices.Clone(s.Words)
	s.Lemmas = slices.Clone(s.Lemmas)
	s.Poses = slices.Clone(s.Poses)
	s.DepParents = slices.Clone(s.DepParents)
	s.DepLabels = slices.Clone(s.DepLabels)
	s.TokenIdxs = slices.Clone(s.TokenIdxs)
	return s
}
