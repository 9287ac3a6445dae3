package generators

import (
	"strconv"
	"strings"

	"github.com/cognicore/lexfeat/pkg/lexfeat/corpus"
	"github.com/cognicore/lexfeat/pkg/lexfeat/deptree"
	"github.com/cognicore/lexfeat/pkg/lexfeat/features"
)

// TreeEntity produces features from a span's place in the dependency tree.
type TreeEntity struct{}

var _ features.EntityGenerator = TreeEntity{}

func (TreeEntity) EntityFeatures(_ *corpus.Sentence, tree *deptree.Tree, idxs []int) []string {
	if tree == nil || len(idxs) == 0 {
		return nil
	}
	h := tree.Head(idxs)
	head := tree.Nodes[h]

	out := []string{"HEAD_LABEL_[" + head.Label + "]", "HEAD_POS_[" + head.POS + "]"}
	if head.Parent >= 0 {
		parent := tree.Nodes[head.Parent]
		out = append(out,
			"PARENT_LEMMA_["+parent.Lemma+"]",
			"PARENT_EDGE_["+head.Label+"->"+parent.Lemma+"]")
	} else {
		out = append(out, "IS_ROOT")
	}

	in := make(map[int]bool, len(idxs))
	for _, i := range idxs {
		in[i] = true
	}
	for _, c := range head.Children {
		if !in[c] {
			out = append(out, "CHILD_LABEL_["+tree.Nodes[c].Label+"]")
		}
	}
	return out
}

// TreeRelation produces features from the dependency path joining the heads
// of two spans.
type TreeRelation struct{}

var _ features.RelationGenerator = TreeRelation{}

func (TreeRelation) RelationFeatures(_ *corpus.Sentence, tree *deptree.Tree, e1, e2 []int) []string {
	if tree == nil || len(e1) == 0 || len(e2) == 0 {
		return nil
	}
	a, b := tree.Head(e1), tree.Head(e2)
	path, ok := tree.Path(a, b)
	if !ok {
		return []string{"NO_PATH"}
	}

	// Edges are named by the lower node of each step.
	var labels, lemmas []string
	for k := 0; k+1 < len(path); k++ {
		x, y := path[k], path[k+1]
		if tree.Nodes[x].Parent == y {
			labels = append(labels, tree.Nodes[x].Label+"<")
		} else {
			labels = append(labels, ">"+tree.Nodes[y].Label)
		}
	}
	for _, n := range path[1 : len(path)-1] {
		lemmas = append(lemmas, tree.Nodes[n].Lemma)
	}

	out := []string{
		"PATH_LABELS_[" + strings.Join(labels, " ") + "]",
		"PATH_LEN_" + strconv.Itoa(len(path)-1),
	}
	if len(lemmas) > 0 {
		out = append(out, "PATH_LEMMAS_["+strings.Join(lemmas, " ")+"]")
	}
	return out
}
