package store

import (
	"context"

	"github.com/cognicore/lexfeat/pkg/lexfeat/corpus"
)

// Store persists parsed documents, their annotated sentences and the spans
// and relations marked on them.
type Store interface {
	Close() error

	// Docs. UpsertDoc is keyed by File and Position; re-upserting a document
	// drops its sentences along with their spans and relations.
	UpsertDoc(ctx context.Context, d Doc) (int64, error)
	GetDoc(ctx context.Context, id int64) (Doc, error)
	GetDocByKey(ctx context.Context, file string, position int) (Doc, bool, error)
	Docs(ctx context.Context) ([]Doc, error)

	// Sentences
	AddSentence(ctx context.Context, s Sentence) (string, error)
	GetSentence(ctx context.Context, id string) (Sentence, error)
	SentencesByDoc(ctx context.Context, docID int64) ([]Sentence, error)

	// Spans & relations
	AddSpan(ctx context.Context, sp Span) (int64, error)
	GetSpan(ctx context.Context, id int64) (Span, error)
	Spans(ctx context.Context) ([]Span, error)
	AddRelation(ctx context.Context, r Relation) (int64, error)
	Relations(ctx context.Context) ([]Relation, error)
}

// Doc represents a stored document
type Doc struct {
	ID         int64
	File       string // source path; together with Position the document key
	Position   int
	ExternalID string // id found in the source markup, if any
	Name       string
	Text       string
}

// Sentence is the stored form of an annotated sentence.
type Sentence struct {
	ID         string // ULID
	DocID      int64
	Position   int
	Text       string
	Words      []string
	Lemmas     []string
	Poses      []string
	DepParents []int
	DepLabels  []string
	TokenIdxs  []int
}

// Span is a labelled character range of a sentence. Offsets are document
// relative, end exclusive.
type Span struct {
	ID         int64
	SentenceID string
	CharStart  int
	CharEnd    int
	Label      string
}

// Relation links two spans.
type Relation struct {
	ID    int64
	Span1 int64
	Span2 int64
	Label string
}

// DocFrom builds the stored form of a parsed document. The stored File is the
// resolved source path when the parser recorded one.
func DocFrom(d corpus.Document) Doc {
	file := d.Path
	if file == "" {
		file = d.File
	}
	return Doc{
		File:       file,
		Position:   d.Position,
		ExternalID: d.ID,
		Name:       d.Name(),
		Text:       d.Text,
	}
}

// SentenceFrom builds the stored form of s for document docID.
func SentenceFrom(docID int64, s *corpus.Sentence) Sentence {
	return Sentence{
		DocID:      docID,
		Position:   s.SentID,
		Text:       s.Text,
		Words:      s.Words,
		Lemmas:     s.Lemmas,
		Poses:      s.Poses,
		DepParents: s.DepParents,
		DepLabels:  s.DepLabels,
		TokenIdxs:  s.TokenIdxs,
	}
}

// Corpus rebuilds the in-memory sentence, tagging it with its document.
func (s Sentence) Corpus(doc Doc) *corpus.Sentence {
	return &corpus.Sentence{
		Words:      s.Words,
		Lemmas:     s.Lemmas,
		Poses:      s.Poses,
		DepParents: s.DepParents,
		DepLabels:  s.DepLabels,
		SentID:     s.Position,
		DocID:      doc.ExternalID,
		Text:       s.Text,
		TokenIdxs:  s.TokenIdxs,
		DocName:    doc.Name,
	}
}
