// Package generators holds the built-in feature generator families.
package generators

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cognicore/lexfeat/pkg/lexfeat/corpus"
	"github.com/cognicore/lexfeat/pkg/lexfeat/deptree"
	"github.com/cognicore/lexfeat/pkg/lexfeat/features"
	"github.com/cognicore/lexfeat/pkg/lexfeat/textutil"
)

// DefaultWindow is the number of context words taken on each side of a span.
const DefaultWindow = 3

// Generic produces surface features of a span: its word, lemma and tag
// sequences, nearby words, its length and whether it is a number.
type Generic struct {
	Window int
}

var _ features.EntityGenerator = Generic{}

// EntityFeatures ignores tree.
// Indexes outside the sentence are dropped.
func (g Generic) EntityFeatures(s *corpus.Sentence, _ *deptree.Tree, idxs []int) []string {
	idxs = inRange(idxs, len(s.Words))
	if len(idxs) == 0 {
		return nil
	}
	window := g.Window
	if window <= 0 {
		window = DefaultWindow
	}
	words := textutil.CleanSymbols(s.Words)

	out := []string{
		"WORD_SEQ_[" + join(words, idxs) + "]",
		"LEMMA_SEQ_[" + join(s.Lemmas, idxs) + "]",
		"POS_SEQ_[" + join(s.Poses, idxs) + "]",
		"LENGTH_" + strconv.Itoa(len(idxs)),
	}

	first, last := idxs[0], idxs[len(idxs)-1]
	for k := 1; k <= window; k++ {
		if i := first - k; i >= 0 {
			out = append(out, fmt.Sprintf("W_LEFT_%d_[%s]", k, words[i]))
		}
		if i := last + k; i < len(words) {
			out = append(out, fmt.Sprintf("W_RIGHT_%d_[%s]", k, words[i]))
		}
	}

	if allNumeric(words, idxs) {
		out = append(out, "NUM")
	}
	return out
}

func inRange(idxs []int, n int) []int {
	out := make([]int, 0, len(idxs))
	for _, i := range idxs {
		if i >= 0 && i < n {
			out = append(out, i)
		}
	}
	return out
}

func join(xs []string, idxs []int) string {
	parts := make([]string, 0, len(idxs))
	for _, i := range idxs {
		if i < len(xs) {
			parts = append(parts, xs[i])
		}
	}
	return strings.Join(parts, " ")
}

func allNumeric(words []string, idxs []int) bool {
	for _, i := range idxs {
		w := strings.ReplaceAll(words[i], ",", "")
		if !strings.ContainsAny(w, "0123456789") {
			return false
		}
		if _, err := strconv.ParseFloat(w, 64); err != nil {
			return false
		}
	}
	return true
}
