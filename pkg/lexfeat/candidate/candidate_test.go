package candidate

import (
	"errors"
	"slices"
	"testing"

	"github.com/cognicore/lexfeat/pkg/lexfeat/corpus"
	"github.com/cognicore/lexfeat/pkg/lexfeat/features"
	"github.com/cognicore/lexfeat/pkg/lexfeat/internalerr"
)

// Second sentence of "Hi. Aspirin (ASA) reduces fever."
func sentence() *corpus.Sentence {
	return &corpus.Sentence{
		Words:      []string{"Aspirin", "-LRB-", "ASA", "-RRB-", "reduces", "fever", "."},
		Lemmas:     []string{"aspirin", "-lrb-", "asa", "-rrb-", "reduce", "fever", "."},
		Poses:      []string{"NN", "-LRB-", "NN", "-RRB-", "VBZ", "NN", "."},
		DepParents: []int{5, 3, 1, 3, 0, 5, 5},
		DepLabels:  []string{"nsubj", "punct", "appos", "punct", "root", "obj", "punct"},
		SentID:     1,
		Text:       "Aspirin (ASA) reduces fever.",
		TokenIdxs:  []int{4, 12, 13, 16, 18, 26, 31},
	}
}

func TestSpanFromChars(t *testing.T) {
	s := sentence()
	tests := []struct {
		name       string
		start, end int
		want       features.Span
	}{
		{"single word", 4, 11, features.Span{Start: 0, End: 0}},
		{"inside brackets", 13, 16, features.Span{Start: 2, End: 2}},
		{"partial word", 20, 22, features.Span{Start: 4, End: 4}},
		{"across words", 18, 31, features.Span{Start: 4, End: 5}},
		{"last token", 31, 32, features.Span{Start: 6, End: 6}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SpanFromChars(s, tt.start, tt.end)
			if err != nil {
				t.Fatalf("SpanFromChars: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestSpanFromCharsOutside(t *testing.T) {
	s := sentence()
	for _, r := range [][2]int{{0, 3}, {11, 12}, {32, 40}, {10, 10}} {
		if _, err := SpanFromChars(s, r[0], r[1]); !errors.Is(err, internalerr.ErrInvalidInput) {
			t.Errorf("[%d,%d): err = %v, want ErrInvalidInput", r[0], r[1], err)
		}
	}
}

func TestCharsFromSpan(t *testing.T) {
	s := sentence()
	start, end, err := CharsFromSpan(s, features.Span{Start: 1, End: 3})
	if err != nil {
		t.Fatal(err)
	}
	if start != 12 || end != 17 {
		t.Fatalf("chars = [%d,%d), want [12,17)", start, end)
	}
	if _, _, err := CharsFromSpan(s, features.Span{Start: 5, End: 9}); !errors.Is(err, internalerr.ErrInvalidInput) {
		t.Fatalf("err = %v", err)
	}

	back, err := SpanFromChars(s, start, end)
	if err != nil || back != (features.Span{Start: 1, End: 3}) {
		t.Fatalf("round trip = %+v, %v", back, err)
	}
}

func TestLegacyConversion(t *testing.T) {
	s := sentence()
	m := LegacyFromMention(Mention{Sent: s, Range: features.Span{Start: 4, End: 5}})
	if !slices.Equal(m.Idxs(), []int{4, 5}) || m.Root() == nil {
		t.Fatalf("mention legacy = %+v", m)
	}

	r := LegacyFromRelation(Relation{Sent: s, E1: features.Span{Start: 0, End: 0}, E2: features.Span{Start: 5, End: 5}})
	if !slices.Equal(r.E1Idxs(), []int{0}) || !slices.Equal(r.E2Idxs(), []int{5}) {
		t.Fatalf("relation legacy = %+v", r)
	}
	if !slices.Equal(r.Idxs(), []int{0, 5}) {
		t.Fatalf("idxs = %v", r.Idxs())
	}
	if r.Root() != m.Root() {
		t.Fatal("tree not shared through the sentence memo")
	}
}
