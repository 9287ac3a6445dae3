// Package candidate provides concrete mention and relation candidates for the
// featurizers.
package candidate

import (
	"fmt"
	"unicode/utf16"

	"github.com/cognicore/lexfeat/pkg/lexfeat/corpus"
	"github.com/cognicore/lexfeat/pkg/lexfeat/deptree"
	"github.com/cognicore/lexfeat/pkg/lexfeat/features"
	"github.com/cognicore/lexfeat/pkg/lexfeat/internalerr"
	"github.com/cognicore/lexfeat/pkg/lexfeat/textutil"
)

// Mention is a single word span.
type Mention struct {
	Sent  *corpus.Sentence
	Range features.Span
}

var _ features.Mention = Mention{}

func (m Mention) Sentence() *corpus.Sentence { return m.Sent }
func (m Mention) Span() features.Span        { return m.Range }

// Relation is an ordered pair of word spans in one sentence.
type Relation struct {
	Sent   *corpus.Sentence
	E1, E2 features.Span
}

var _ features.Relation = Relation{}

func (r Relation) Sentence() *corpus.Sentence              { return r.Sent }
func (r Relation) Spans() (features.Span, features.Span) { return r.E1, r.E2 }

// Legacy carries explicit index lists. Tree may be nil.
type Legacy struct {
	Sent    *corpus.Sentence
	Indexes []int
	E1, E2  []int
	Tree    *deptree.Tree
}

var _ features.LegacyCandidate = Legacy{}

func (l Legacy) Sentence() *corpus.Sentence { return l.Sent }
func (l Legacy) Idxs() []int                { return l.Indexes }
func (l Legacy) E1Idxs() []int              { return l.E1 }
func (l Legacy) E2Idxs() []int              { return l.E2 }
func (l Legacy) Root() *deptree.Tree        { return l.Tree }

// LegacyFromMention converts a mention, attaching the sentence tree.
func LegacyFromMention(m Mention) Legacy {
	return Legacy{Sent: m.Sent, Indexes: m.Range.Idxs(), Tree: deptree.For(m.Sent)}
}

// LegacyFromRelation converts a relation, attaching the sentence tree. Indexes
// covers both spans.
func LegacyFromRelation(r Relation) Legacy {
	e1, e2 := r.E1.Idxs(), r.E2.Idxs()
	return Legacy{
		Sent:    r.Sent,
		Indexes: append(append([]int(nil), e1...), e2...),
		E1:      e1,
		E2:      e2,
		Tree:    deptree.For(r.Sent),
	}
}

// SpanFromChars maps the character range [start, end) of the document to the
// words of s it touches. Offsets use the same units as s.TokenIdxs.
func SpanFromChars(s *corpus.Sentence, start, end int) (features.Span, error) {
	if start >= end {
		return features.Span{}, fmt.Errorf("char span [%d,%d): %w: empty range", start, end, internalerr.ErrInvalidInput)
	}
	first, last := -1, -1
	for i, off := range s.TokenIdxs {
		if off >= end {
			break
		}
		if tokenEnd(s, i) > start {
			if first < 0 {
				first = i
			}
			last = i
		}
	}
	if first < 0 {
		return features.Span{}, fmt.Errorf("char span [%d,%d) in sentence %d: %w: no token overlaps",
			start, end, s.SentID, internalerr.ErrInvalidInput)
	}
	return features.Span{Start: first, End: last}, nil
}

// CharsFromSpan is the inverse of SpanFromChars: the document range covered
// by the words of sp.
func CharsFromSpan(s *corpus.Sentence, sp features.Span) (start, end int, err error) {
	if sp.Start < 0 || sp.End >= len(s.TokenIdxs) || sp.End < sp.Start {
		return 0, 0, fmt.Errorf("word span %d..%d in sentence %d: %w", sp.Start, sp.End, s.SentID, internalerr.ErrInvalidInput)
	}
	return s.TokenIdxs[sp.Start], tokenEnd(s, sp.End), nil
}

// SentenceChars returns the document range [start, end) covered by s.
func SentenceChars(s *corpus.Sentence) (start, end int) {
	if len(s.TokenIdxs) == 0 {
		return 0, 0
	}
	return s.TokenIdxs[0], s.TokenIdxs[0] + utf16Len(s.Text)
}

// tokenEnd is where token i stops. The last token ends with the sentence
// text; others end at the next token or after their own word, whichever is
// first.
func tokenEnd(s *corpus.Sentence, i int) int {
	if i+1 >= len(s.TokenIdxs) {
		return s.TokenIdxs[0] + utf16Len(s.Text)
	}
	end := s.TokenIdxs[i+1]
	if i < len(s.Words) {
		end = min(end, s.TokenIdxs[i]+utf16Len(textutil.CleanSymbol(s.Words[i])))
	}
	return end
}

func utf16Len(text string) int {
	n := 0
	for _, r := range text {
		n += utf16.RuneLen(r)
	}
	return n
}
