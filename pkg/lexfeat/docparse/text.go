package docparse

import (
	"fmt"
	"iter"
	"os"
	"path/filepath"

	"github.com/cognicore/lexfeat/pkg/lexfeat/corpus"
)

// TextParser reads one document per file, verbatim.
type TextParser struct{}

func (p TextParser) Parse(path string) iter.Seq2[corpus.Document, error] {
	return parseAll(path, p.ParseFile)
}

// ParseFile yields the single document held by fp.
func (TextParser) ParseFile(fp string) iter.Seq2[corpus.Document, error] {
	return func(yield func(corpus.Document, error) bool) {
		data, err := os.ReadFile(fp)
		if err != nil {
			yield(corpus.Document{}, fmt.Errorf("read file %s: %w", fp, err))
			return
		}
		yield(corpus.Document{
			File:    filepath.Base(fp),
			Path:    fp,
			Text:    string(data),
			Attribs: map[string]any{},
		}, nil)
	}
}
