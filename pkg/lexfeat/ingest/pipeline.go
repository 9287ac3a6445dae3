// Package ingest chains source resolution, document parsing and annotation
// into lazy per-file and per-document sequences.
package ingest

import (
	"context"
	"iter"

	"github.com/cognicore/lexfeat/pkg/lexfeat/corpus"
	"github.com/cognicore/lexfeat/pkg/lexfeat/source"
)

// FileParser reads the documents of a single file.
type FileParser interface {
	ParseFile(path string) iter.Seq2[corpus.Document, error]
}

// Annotator splits text into annotated sentences.
type Annotator interface {
	Parse(ctx context.Context, text, docID, docName string) iter.Seq2[*corpus.Sentence, error]
}

// Pipeline orchestrates the ingestion flow:
// path → files → documents → sentences
type Pipeline struct {
	parser    FileParser
	annotator Annotator
}

// NewPipeline creates an ingestion pipeline with the given components
func NewPipeline(parser FileParser, annotator Annotator) *Pipeline {
	return &Pipeline{parser: parser, annotator: annotator}
}

// Files resolves a file, directory or glob into the files to parse.
func (p *Pipeline) Files(path string) ([]string, error) {
	return source.Resolve(path)
}

// Documents parses one file.
func (p *Pipeline) Documents(file string) iter.Seq2[corpus.Document, error] {
	return p.parser.ParseFile(file)
}

// All chains Documents over every file of path.
func (p *Pipeline) All(path string) iter.Seq2[corpus.Document, error] {
	return func(yield func(corpus.Document, error) bool) {
		files, err := p.Files(path)
		if err != nil {
			yield(corpus.Document{}, err)
			return
		}
		for _, f := range files {
			for doc, err := range p.Documents(f) {
				if !yield(doc, err) {
					return
				}
			}
		}
	}
}

// Sentences annotates doc. Blank documents yield nothing.
func (p *Pipeline) Sentences(ctx context.Context, doc corpus.Document) iter.Seq2[*corpus.Sentence, error] {
	if doc.Blank() {
		return func(func(*corpus.Sentence, error) bool) {}
	}
	return p.annotator.Parse(ctx, doc.Text, doc.ID, doc.Name())
}
