// Package docparse turns files into corpus documents.
package docparse

import (
	"fmt"
	"iter"
	"strings"

	"github.com/cognicore/lexfeat/pkg/lexfeat/corpus"
	"github.com/cognicore/lexfeat/pkg/lexfeat/internalerr"
	"github.com/cognicore/lexfeat/pkg/lexfeat/source"
)

// Parser produces documents from a file, a directory or a glob pattern.
//
// The returned sequence is lazy: files are read one at a time as the caller
// ranges over it. A failing file is reported as an error element; ranging may
// continue with the next file. Re-invoking Parse starts over.
type Parser interface {
	Parse(path string) iter.Seq2[corpus.Document, error]

	// ParseFile reads the documents of a single file.
	ParseFile(file string) iter.Seq2[corpus.Document, error]
}

// Kinds accepted by ForKind.
const (
	KindText = "text"
	KindHTML = "html"
	KindXML  = "xml"
)

// ForKind builds the parser registered under kind. xml is only used for KindXML.
func ForKind(kind string, xml XMLOptions) (Parser, error) {
	switch strings.ToLower(kind) {
	case KindText, "":
		return TextParser{}, nil
	case KindHTML:
		return HTMLParser{}, nil
	case KindXML:
		return NewXMLParser(xml)
	}
	return nil, fmt.Errorf("parser kind %q: %w", kind, internalerr.ErrInvalidConfig)
}

// parseAll resolves path and feeds each file to parseFile.
func parseAll(path string, parseFile func(string) iter.Seq2[corpus.Document, error]) iter.Seq2[corpus.Document, error] {
	return func(yield func(corpus.Document, error) bool) {
		files, err := source.Resolve(path)
		if err != nil {
			yield(corpus.Document{}, err)
			return
		}
		for _, fp := range files {
			for doc, err := range parseFile(fp) {
				if !yield(doc, err) {
					return
				}
			}
		}
	}
}
