package docparse

import (
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"
	"go.uber.org/zap"

	"github.com/cognicore/lexfeat/pkg/lexfeat/corpus"
	"github.com/cognicore/lexfeat/pkg/lexfeat/internalerr"
)

// RootAttrib is the Attribs key holding the matched *xmlquery.Node when
// XMLOptions.KeepTree is set.
const RootAttrib = "root"

// Default XPath selectors.
const (
	DefaultDocumentSelector = ".//document"
	DefaultTextSelector     = "./text/text()"
	DefaultIDSelector       = "./id/text()"
)

// XMLOptions configures an XMLParser.
type XMLOptions struct {
	Document string // selects each document subtree
	Text     string // evaluated per document; matches are joined with "\n"
	ID       string // evaluated per document; first match wins
	KeepTree bool   // store the matched subtree under RootAttrib

	// Check optionally rejects an extracted document. Rejected documents are
	// skipped like any other per-document failure.
	Check func(corpus.Document) error

	Logger *zap.Logger
}

// XMLParser yields one document per Document-selector match in each file.
type XMLParser struct {
	doc, text, id *xpath.Expr
	keepTree      bool
	check         func(corpus.Document) error
	logger        *zap.Logger
}

// NewXMLParser compiles the selectors. Empty selectors fall back to the defaults.
func NewXMLParser(opts XMLOptions) (*XMLParser, error) {
	compile := func(expr, def string) (*xpath.Expr, error) {
		if strings.TrimSpace(expr) == "" {
			expr = def
		}
		e, err := xpath.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("xpath %q: %w: %v", expr, internalerr.ErrInvalidConfig, err)
		}
		return e, nil
	}

	doc, err := compile(opts.Document, DefaultDocumentSelector)
	if err != nil {
		return nil, err
	}
	text, err := compile(opts.Text, DefaultTextSelector)
	if err != nil {
		return nil, err
	}
	id, err := compile(opts.ID, DefaultIDSelector)
	if err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &XMLParser{
		doc:      doc,
		text:     text,
		id:       id,
		keepTree: opts.KeepTree,
		check:    opts.Check,
		logger:   logger,
	}, nil
}

func (p *XMLParser) Parse(path string) iter.Seq2[corpus.Document, error] {
	return parseAll(path, p.ParseFile)
}

// ParseFile yields the documents matched in fp. A document whose extraction
// fails is logged and skipped; the rest of the file is still processed.
func (p *XMLParser) ParseFile(fp string) iter.Seq2[corpus.Document, error] {
	return func(yield func(corpus.Document, error) bool) {
		f, err := os.Open(fp)
		if err != nil {
			yield(corpus.Document{}, fmt.Errorf("open %s: %w", fp, err))
			return
		}
		defer f.Close()

		root, err := xmlquery.Parse(f)
		if err != nil {
			yield(corpus.Document{}, fmt.Errorf("parse xml %s: %w: %v", fp, internalerr.ErrMarkupParse, err))
			return
		}

		name := filepath.Base(fp)
		for i, node := range xmlquery.QuerySelectorAll(root, p.doc) {
			doc, err := p.extract(node, fp, name, i)
			if err != nil {
				p.logger.Warn("skipping document",
					zap.String("file", name),
					zap.Int("index", i),
					zap.String("id", doc.ID),
					zap.Error(err))
				continue
			}
			if !yield(doc, nil) {
				return
			}
		}
	}
}

// extract builds the document for one matched subtree. The returned document
// carries whatever id was recovered even when err is set.
func (p *XMLParser) extract(node *xmlquery.Node, path, file string, pos int) (doc corpus.Document, err error) {
	doc = corpus.Document{File: file, Path: path, Position: pos, Attribs: map[string]any{}}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", internalerr.ErrMarkupParse, r)
		}
	}()

	if ids := xmlquery.QuerySelectorAll(node, p.id); len(ids) > 0 {
		doc.ID = ids[0].InnerText()
	}

	var parts []string
	for _, n := range xmlquery.QuerySelectorAll(node, p.text) {
		if n == nil {
			continue
		}
		parts = append(parts, n.InnerText())
	}
	doc.Text = strings.Join(parts, "\n")

	if p.keepTree {
		doc.Attribs[RootAttrib] = node
	}

	if p.check != nil {
		if err := p.check(doc); err != nil {
			return doc, err
		}
	}
	return doc, nil
}

// XMLRoot returns the subtree kept for doc, if any.
func XMLRoot(doc corpus.Document) (*xmlquery.Node, bool) {
	n, ok := doc.Attribs[RootAttrib].(*xmlquery.Node)
	return n, ok
}
