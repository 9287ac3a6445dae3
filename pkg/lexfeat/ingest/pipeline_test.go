package ingest

import (
	"context"
	"errors"
	"iter"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cognicore/lexfeat/pkg/lexfeat/corpus"
	"github.com/cognicore/lexfeat/pkg/lexfeat/docparse"
	"github.com/cognicore/lexfeat/pkg/lexfeat/internalerr"
)

// splitAnnotator makes one sentence per "."-terminated chunk, one token per word.
type splitAnnotator struct {
	calls int
}

func (a *splitAnnotator) Parse(ctx context.Context, text, docID, docName string) iter.Seq2[*corpus.Sentence, error] {
	a.calls++
	return func(yield func(*corpus.Sentence, error) bool) {
		for i, chunk := range strings.SplitAfter(text, ".") {
			words := strings.Fields(chunk)
			if len(words) == 0 {
				continue
			}
			s := &corpus.Sentence{Words: words, SentID: i, DocID: docID, DocName: docName, Text: strings.TrimSpace(chunk)}
			if !yield(s, nil) {
				return
			}
		}
	}
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestPipelineAllDocuments(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", "Aspirin reduces fever. It works.")
	writeFile(t, dir, "b.txt", "   ")

	p := NewPipeline(docparse.TextParser{}, &splitAnnotator{})
	files, err := p.Files(dir)
	if err != nil || len(files) != 2 {
		t.Fatalf("Files = %v, %v", files, err)
	}

	var names []string
	for doc, err := range p.All(dir) {
		if err != nil {
			t.Fatalf("All: %v", err)
		}
		names = append(names, doc.File)
	}
	if len(names) != 2 || names[0] != "a.txt" || names[1] != "b.txt" {
		t.Fatalf("docs = %v", names)
	}
}

func TestPipelineSentences(t *testing.T) {
	ann := &splitAnnotator{}
	p := NewPipeline(docparse.TextParser{}, ann)

	doc := corpus.Document{File: "a.txt", Text: "Aspirin reduces fever. It works."}
	var got []string
	for s, err := range p.Sentences(context.Background(), doc) {
		if err != nil {
			t.Fatal(err)
		}
		if s.DocName != "a.txt" {
			t.Errorf("doc name = %q", s.DocName)
		}
		got = append(got, s.Text)
	}
	if len(got) != 2 || got[1] != "It works." {
		t.Fatalf("sentences = %q", got)
	}

	for range p.Sentences(context.Background(), corpus.Document{File: "b.txt", Text: "\n\t"}) {
		t.Fatal("blank document produced a sentence")
	}
	if ann.calls != 1 {
		t.Fatalf("annotator called %d times, want 1", ann.calls)
	}
}

func TestPipelineMissingSource(t *testing.T) {
	p := NewPipeline(docparse.TextParser{}, &splitAnnotator{})
	for _, err := range p.All(filepath.Join(t.TempDir(), "*.nothing")) {
		if !errors.Is(err, internalerr.ErrSourceNotFound) {
			t.Fatalf("err = %v", err)
		}
		return
	}
	t.Fatal("no error reported")
}
