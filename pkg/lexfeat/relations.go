package lexfeat

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cognicore/lexfeat/pkg/lexfeat/candidate"
	"github.com/cognicore/lexfeat/pkg/lexfeat/internalerr"
	"github.com/cognicore/lexfeat/pkg/lexfeat/store"
)

// AddMention marks the document range [start, end) of the document stored
// under file and position. file is the stored source path, or its base name
// when that names a single stored document. The range must lie inside one
// sentence.
func (e *Engine) AddMention(ctx context.Context, file string, position, start, end int, label string) (int64, error) {
	doc, err := e.findDoc(ctx, file, position)
	if err != nil {
		return 0, err
	}
	sents, err := e.store.SentencesByDoc(ctx, doc.ID)
	if err != nil {
		return 0, err
	}
	for _, s := range sents {
		sent := s.Corpus(doc)
		from, to := candidate.SentenceChars(sent)
		if start < from || end > to {
			continue
		}
		if _, err := candidate.SpanFromChars(sent, start, end); err != nil {
			continue
		}
		return e.store.AddSpan(ctx, store.Span{SentenceID: s.ID, CharStart: start, CharEnd: end, Label: label})
	}
	return 0, fmt.Errorf("doc %s:%d range [%d,%d): %w: no single sentence covers it",
		file, position, start, end, internalerr.ErrInvalidInput)
}

// findDoc looks file up as a stored path first, then as a base name.
func (e *Engine) findDoc(ctx context.Context, file string, position int) (store.Doc, error) {
	doc, found, err := e.store.GetDocByKey(ctx, file, position)
	if err != nil || found {
		return doc, err
	}
	if abs, err := filepath.Abs(file); err == nil && abs != file {
		if doc, found, err = e.store.GetDocByKey(ctx, abs, position); err != nil || found {
			return doc, err
		}
	}

	docs, err := e.store.Docs(ctx)
	if err != nil {
		return store.Doc{}, err
	}
	var matches []store.Doc
	for _, d := range docs {
		if d.Position == position && filepath.Base(d.File) == file {
			matches = append(matches, d)
		}
	}
	switch len(matches) {
	case 0:
		return store.Doc{}, fmt.Errorf("doc %s:%d: %w", file, position, internalerr.ErrNotFound)
	case 1:
		return matches[0], nil
	}
	return store.Doc{}, fmt.Errorf("doc %s:%d: %w: %d stored documents share that name, give the path",
		file, position, internalerr.ErrInvalidInput, len(matches))
}

// Relate links two stored spans.
func (e *Engine) Relate(ctx context.Context, span1, span2 int64, label string) (int64, error) {
	return e.store.AddRelation(ctx, store.Relation{Span1: span1, Span2: span2, Label: label})
}

// ImportRelations reads tab-separated lines
//
//	file  position  start1  end1  start2  end2  [label]
//
// and stores each as two mentions and a relation. Blank lines and lines
// starting with # are ignored. It returns the number of relations added.
func (e *Engine) ImportRelations(ctx context.Context, r io.Reader) (int, error) {
	sc := bufio.NewScanner(r)
	n, lineNo := 0, 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 6 {
			return n, fmt.Errorf("line %d: %w: want at least 6 fields, got %d", lineNo, internalerr.ErrInvalidInput, len(fields))
		}
		nums := make([]int, 5)
		for i := range nums {
			v, err := strconv.Atoi(strings.TrimSpace(fields[i+1]))
			if err != nil {
				return n, fmt.Errorf("line %d field %d: %w: %v", lineNo, i+2, internalerr.ErrInvalidInput, err)
			}
			nums[i] = v
		}
		label := ""
		if len(fields) > 6 {
			label = strings.TrimSpace(fields[6])
		}

		s1, err := e.AddMention(ctx, fields[0], nums[0], nums[1], nums[2], label)
		if err != nil {
			return n, fmt.Errorf("line %d: %w", lineNo, err)
		}
		s2, err := e.AddMention(ctx, fields[0], nums[0], nums[3], nums[4], label)
		if err != nil {
			return n, fmt.Errorf("line %d: %w", lineNo, err)
		}
		if _, err := e.Relate(ctx, s1, s2, label); err != nil {
			return n, fmt.Errorf("line %d: %w", lineNo, err)
		}
		n++
	}
	return n, sc.Err()
}

// ExportRelations writes one line per stored relation:
//
//	doc:pos:span:start:end<TAB>doc:pos:span:start:end
//
// doc is the stored document id, pos the sentence position and end the
// offset of the last character, inclusive.
func (e *Engine) ExportRelations(ctx context.Context, w io.Writer) (int, error) {
	rels, err := e.store.Relations(ctx)
	if err != nil {
		return 0, err
	}
	bw := bufio.NewWriter(w)
	for i, r := range rels {
		if err := ctx.Err(); err != nil {
			return i, err
		}
		a, err := e.spanRef(ctx, r.Span1)
		if err != nil {
			return i, err
		}
		b, err := e.spanRef(ctx, r.Span2)
		if err != nil {
			return i, err
		}
		if _, err := fmt.Fprintf(bw, "%s\t%s\n", a, b); err != nil {
			return i, err
		}
	}
	return len(rels), bw.Flush()
}

func (e *Engine) spanRef(ctx context.Context, id int64) (string, error) {
	sp, err := e.store.GetSpan(ctx, id)
	if err != nil {
		return "", err
	}
	s, err := e.store.GetSentence(ctx, sp.SentenceID)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d:%d:span:%d:%d", s.DocID, s.Position, sp.CharStart, sp.CharEnd-1), nil
}
