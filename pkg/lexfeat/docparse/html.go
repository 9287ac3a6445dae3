package docparse

import (
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/cognicore/lexfeat/pkg/lexfeat/corpus"
	"github.com/cognicore/lexfeat/pkg/lexfeat/internalerr"
	"github.com/cognicore/lexfeat/pkg/lexfeat/textutil"
)

// HTMLParser extracts the visible text of one HTML document per file.
type HTMLParser struct{}

func (p HTMLParser) Parse(path string) iter.Seq2[corpus.Document, error] {
	return parseAll(path, p.ParseFile)
}

// ParseFile yields the visible text of fp as a single document.
func (HTMLParser) ParseFile(fp string) iter.Seq2[corpus.Document, error] {
	return func(yield func(corpus.Document, error) bool) {
		f, err := os.Open(fp)
		if err != nil {
			yield(corpus.Document{}, fmt.Errorf("open %s: %w", fp, err))
			return
		}
		defer f.Close()

		root, err := html.Parse(f)
		if err != nil {
			yield(corpus.Document{}, fmt.Errorf("parse html %s: %w: %v", fp, internalerr.ErrMarkupParse, err))
			return
		}

		yield(corpus.Document{
			File:    filepath.Base(fp),
			Path:    fp,
			Text:    VisibleText(root),
			Attribs: map[string]any{},
		}, nil)
	}
}

// VisibleText joins the text nodes of an HTML tree with single spaces, leaving
// out text sitting directly in style, script, title, head or the document root.
// Non-ASCII code points are dropped.
func VisibleText(root *html.Node) string {
	var parts []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode && n.Data != "\n" && visible(n) {
			parts = append(parts, textutil.StripNonASCII(n.Data))
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return strings.Join(parts, " ")
}

func visible(n *html.Node) bool {
	p := n.Parent
	if p == nil || p.Type == html.DocumentNode {
		return false
	}
	switch p.DataAtom {
	case atom.Style, atom.Script, atom.Title, atom.Head:
		return false
	}
	return true
}
