package annotate

import (
	"fmt"
	"unicode/utf16"

	"github.com/cognicore/lexfeat/pkg/lexfeat/corpus"
	"github.com/cognicore/lexfeat/pkg/lexfeat/textutil"
)

// response is the JSON output of the annotation server.
type response struct {
	Sentences []block `json:"sentences"`
}

// block is one sentence of the response.
type block struct {
	Index        int     `json:"index"`
	Tokens       []token `json:"tokens"`
	Dependencies []edge  `json:"basic-dependencies"`
}

type token struct {
	Index int    `json:"index"`
	Word  string `json:"word"`
	Lemma string `json:"lemma"`
	POS   string `json:"pos"`
	Begin int    `json:"characterOffsetBegin"`
	End   int    `json:"characterOffsetEnd"`
}

// edge is a dependency arc. Governor and Dependent are 1-based token indexes;
// governor 0 is the root.
type edge struct {
	Label     string `json:"dep"`
	Governor  int    `json:"governor"`
	Dependent int    `json:"dependent"`
}

// source is the document text indexed the way the server counts offsets
// (UTF-16 code units).
type source []uint16

func newSource(text string) source {
	return utf16.Encode([]rune(text))
}

func (s source) slice(begin, end int) (string, error) {
	if begin < 0 || end > len(s) || begin > end {
		return "", fmt.Errorf("offsets [%d,%d) outside document of length %d", begin, end, len(s))
	}
	return string(utf16.Decode(s[begin:end])), nil
}

// sentence rebuilds the block at position pos. Dependency edges arrive in any
// order and are re-sorted by dependent so index i describes token i.
func (b block) sentence(src source, pos int) (*corpus.Sentence, error) {
	n := len(b.Tokens)
	if n == 0 {
		return nil, fmt.Errorf("sentence %d: no tokens", pos)
	}
	if len(b.Dependencies) != n {
		return nil, fmt.Errorf("sentence %d: %d dependency edges for %d tokens", pos, len(b.Dependencies), n)
	}

	s := &corpus.Sentence{
		Words:     make([]string, n),
		Lemmas:    make([]string, n),
		Poses:     make([]string, n),
		TokenIdxs: make([]int, n),
		SentID:    pos,
	}
	for i, tok := range b.Tokens {
		s.Words[i] = tok.Word
		s.Lemmas[i] = tok.Lemma
		s.Poses[i] = tok.POS
		s.TokenIdxs[i] = tok.Begin
	}

	parents := make([]int, n)
	labels := make([]string, n)
	order := make([]int, n)
	for i, e := range b.Dependencies {
		parents[i] = e.Governor
		labels[i] = e.Label
		order[i] = e.Dependent
	}
	s.DepParents = textutil.SortOn(parents, order)
	s.DepLabels = textutil.SortOn(labels, order)

	text, err := src.slice(b.Tokens[0].Begin, b.Tokens[n-1].End)
	if err != nil {
		return nil, fmt.Errorf("sentence %d: %w", pos, err)
	}
	s.Text = text

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}
