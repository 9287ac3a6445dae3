package memstore

import (
	"context"
	"errors"
	"testing"

	"github.com/cognicore/lexfeat/pkg/lexfeat/internalerr"
	"github.com/cognicore/lexfeat/pkg/lexfeat/store"
)

var _ store.Store = (*Store)(nil)

func TestUpsertDocKeyedByFileAndPosition(t *testing.T) {
	ctx := context.Background()
	s := New()

	a, _ := s.UpsertDoc(ctx, store.Doc{File: "f.xml", Position: 0, Text: "one"})
	b, _ := s.UpsertDoc(ctx, store.Doc{File: "f.xml", Position: 1, Text: "two"})
	again, _ := s.UpsertDoc(ctx, store.Doc{File: "f.xml", Position: 0, Text: "uno"})

	if a == b {
		t.Fatal("distinct positions share an id")
	}
	if again != a {
		t.Fatalf("re-upsert id = %d, want %d", again, a)
	}
	doc, err := s.GetDoc(ctx, a)
	if err != nil || doc.Text != "uno" {
		t.Fatalf("GetDoc = %+v, %v", doc, err)
	}
	docs, _ := s.Docs(ctx)
	if len(docs) != 2 || docs[0].ID != a || docs[1].ID != b {
		t.Fatalf("Docs = %+v", docs)
	}
}

func TestMissingRows(t *testing.T) {
	ctx := context.Background()
	s := New()

	if _, err := s.GetDoc(ctx, 1); !errors.Is(err, internalerr.ErrNotFound) {
		t.Errorf("GetDoc err = %v", err)
	}
	if _, err := s.GetSentence(ctx, "x"); !errors.Is(err, internalerr.ErrNotFound) {
		t.Errorf("GetSentence err = %v", err)
	}
	if _, err := s.GetSpan(ctx, 1); !errors.Is(err, internalerr.ErrNotFound) {
		t.Errorf("GetSpan err = %v", err)
	}
	if _, err := s.AddSentence(ctx, store.Sentence{DocID: 9}); !errors.Is(err, internalerr.ErrNotFound) {
		t.Errorf("AddSentence err = %v", err)
	}
	if _, err := s.AddRelation(ctx, store.Relation{Span1: 1, Span2: 2}); !errors.Is(err, internalerr.ErrNotFound) {
		t.Errorf("AddRelation err = %v", err)
	}
}

func TestReUpsertDropsDerivedRows(t *testing.T) {
	ctx := context.Background()
	s := New()

	keep, _ := s.UpsertDoc(ctx, store.Doc{File: "keep.txt"})
	keepSent, _ := s.AddSentence(ctx, store.Sentence{DocID: keep, Words: []string{"a"}})
	keepSpan, _ := s.AddSpan(ctx, store.Span{SentenceID: keepSent, CharStart: 0, CharEnd: 1})

	doc, _ := s.UpsertDoc(ctx, store.Doc{File: "a.txt"})
	sent, _ := s.AddSentence(ctx, store.Sentence{DocID: doc, Words: []string{"b"}})
	sp, _ := s.AddSpan(ctx, store.Span{SentenceID: sent, CharStart: 0, CharEnd: 1})
	if _, err := s.AddRelation(ctx, store.Relation{Span1: keepSpan, Span2: sp}); err != nil {
		t.Fatal(err)
	}

	if _, err := s.UpsertDoc(ctx, store.Doc{File: "a.txt"}); err != nil {
		t.Fatal(err)
	}

	if sents, _ := s.SentencesByDoc(ctx, doc); len(sents) != 0 {
		t.Errorf("sentences left: %d", len(sents))
	}
	if spans, _ := s.Spans(ctx); len(spans) != 1 || spans[0].ID != keepSpan {
		t.Errorf("spans = %+v", spans)
	}
	if rels, _ := s.Relations(ctx); len(rels) != 0 {
		t.Errorf("relations = %+v", rels)
	}
	if _, err := s.GetSentence(ctx, keepSent); err != nil {
		t.Errorf("unrelated sentence dropped: %v", err)
	}
}

func TestSentenceCopiesAreIndependent(t *testing.T) {
	ctx := context.Background()
	s := New()

	doc, _ := s.UpsertDoc(ctx, store.Doc{File: "a.txt"})
	words := []string{"a", "b"}
	id, _ := s.AddSentence(ctx, store.Sentence{DocID: doc, Words: words})
	words[0] = "mutated"

	got, _ := s.GetSentence(ctx, id)
	if got.Words[0] != "a" {
		t.Fatalf("stored sentence aliases caller slice: %v", got.Words)
	}
}
