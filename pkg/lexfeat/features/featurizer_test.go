package features

import (
	"errors"
	"math"
	"slices"
	"sync"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/cognicore/lexfeat/pkg/lexfeat/corpus"
	"github.com/cognicore/lexfeat/pkg/lexfeat/deptree"
	"github.com/cognicore/lexfeat/pkg/lexfeat/internalerr"
)

type testMention struct {
	sent *corpus.Sentence
	span Span
}

func (m testMention) Sentence() *corpus.Sentence { return m.sent }
func (m testMention) Span() Span                 { return m.span }

type testRelation struct {
	sent   *corpus.Sentence
	e1, e2 Span
}

func (r testRelation) Sentence() *corpus.Sentence { return r.sent }
func (r testRelation) Spans() (Span, Span)        { return r.e1, r.e2 }

type testLegacy struct {
	sent   *corpus.Sentence
	idxs   []int
	e1, e2 []int
	root   *deptree.Tree
}

func (l testLegacy) Sentence() *corpus.Sentence { return l.sent }
func (l testLegacy) Idxs() []int                { return l.idxs }
func (l testLegacy) E1Idxs() []int              { return l.e1 }
func (l testLegacy) E2Idxs() []int              { return l.e2 }
func (l testLegacy) Root() *deptree.Tree        { return l.root }

// "Aspirin reduces fever in 3 days"
func sampleSentence() *corpus.Sentence {
	return &corpus.Sentence{
		Words:      []string{"Aspirin", "reduces", "fever", "in", "3", "days"},
		Lemmas:     []string{"aspirin", "reduce", "fever", "in", "3", "day"},
		Poses:      []string{"NN", "VBZ", "NN", "IN", "CD", "NNS"},
		DepParents: []int{2, 0, 2, 6, 6, 2},
		DepLabels:  []string{"nsubj", "root", "dobj", "case", "nummod", "obl"},
		TokenIdxs:  []int{0, 8, 16, 22, 25, 27},
	}
}

// wordGen emits one feature per word in the span.
var wordGen = EntityFunc(func(s *corpus.Sentence, _ *deptree.Tree, idxs []int) []string {
	var out []string
	for _, i := range idxs {
		out = append(out, "W_"+s.Words[i])
	}
	return out
})

// labelGen emits the dependency label of each token in the span.
var labelGen = EntityFunc(func(_ *corpus.Sentence, tree *deptree.Tree, idxs []int) []string {
	var out []string
	for _, i := range idxs {
		out = append(out, "L_"+tree.Nodes[i].Label)
	}
	return out
})

func numGen(_ *corpus.Sentence, _ *deptree.Tree, _ []int) []string { return []string{"NUM"} }

func TestFitTransformThenTransformIdentical(t *testing.T) {
	s := sampleSentence()
	cands := []Mention{
		testMention{s, Span{0, 0}},
		testMention{s, Span{2, 2}},
		testMention{s, Span{4, 5}},
	}
	f, err := NewMentionFeaturizer(wordGen, labelGen)
	if err != nil {
		t.Fatalf("NewMentionFeaturizer: %v", err)
	}

	fitted, err := f.FitTransform(cands)
	if err != nil {
		t.Fatalf("FitTransform: %v", err)
	}
	again, err := f.Transform(cands)
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	if !fitted.Equal(again) {
		t.Fatal("transform differs from fit_transform on the same candidates")
	}
	if !mat.Equal(fitted, again) {
		t.Fatal("gonum view differs")
	}

	r, c := fitted.Dims()
	if r != 3 || c != f.Index().Len() {
		t.Fatalf("dims = %dx%d, want 3x%d", r, c, f.Index().Len())
	}
}

func TestColumnsInFirstSeenOrder(t *testing.T) {
	s := sampleSentence()
	cands := []Mention{
		testMention{s, Span{0, 1}},
		testMention{s, Span{1, 2}},
	}
	f, _ := NewMentionFeaturizer(wordGen, labelGen)
	m, err := f.FitTransform(cands)
	if err != nil {
		t.Fatalf("FitTransform: %v", err)
	}

	want := []string{
		"DDLIB_W_Aspirin", "DDLIB_W_reduces", "DDLIB_W_fever",
		"TDL_L_nsubj", "TDL_L_root", "TDL_L_dobj",
	}
	if got := f.Index().Names(); !slices.Equal(got, want) {
		t.Fatalf("names = %v, want %v", got, want)
	}
	if !slices.Equal(m.Row(0), []int{0, 1, 3, 4}) {
		t.Errorf("row 0 = %v", m.Row(0))
	}
	if !slices.Equal(m.Row(1), []int{1, 2, 4, 5}) {
		t.Errorf("row 1 = %v", m.Row(1))
	}
}

func TestRepeatedFeaturesDoNotAccumulate(t *testing.T) {
	s := sampleSentence()
	twice := EntityFunc(func(*corpus.Sentence, *deptree.Tree, []int) []string {
		return []string{"X", "X", "X"}
	})
	f, _ := NewMentionFeaturizer(twice, twice)
	m, err := f.FitTransform([]Mention{testMention{s, Span{0, 0}}})
	if err != nil {
		t.Fatalf("FitTransform: %v", err)
	}
	if m.NNZ() != 2 {
		t.Fatalf("nnz = %d, want 2", m.NNZ())
	}
	m.DoNonZero(func(i, j int) {
		if m.At(i, j) != 1 {
			t.Errorf("cell (%d,%d) = %v", i, j, m.At(i, j))
		}
	})
}

func TestNamespacesKeepCollidingNamesApart(t *testing.T) {
	s := sampleSentence()
	f, _ := NewMentionFeaturizer(EntityFunc(numGen), EntityFunc(numGen))
	m, err := f.FitTransform([]Mention{testMention{s, Span{4, 4}}})
	if err != nil {
		t.Fatalf("FitTransform: %v", err)
	}
	if got := f.Index().Names(); !slices.Equal(got, []string{"DDLIB_NUM", "TDL_NUM"}) {
		t.Fatalf("names = %v", got)
	}
	if m.NNZ() != 2 {
		t.Fatalf("nnz = %d, want 2", m.NNZ())
	}
	a, _ := f.Index().Column(Feature{NamespaceGeneric, "NUM"})
	b, _ := f.Index().Column(Feature{NamespaceTree, "NUM"})
	if a == b {
		t.Fatal("colliding names share a column")
	}
}

func TestTransformDropsUnseenFeatures(t *testing.T) {
	s := sampleSentence()
	f, _ := NewMentionFeaturizer(wordGen, labelGen)
	if _, err := f.FitTransform([]Mention{testMention{s, Span{0, 0}}}); err != nil {
		t.Fatalf("FitTransform: %v", err)
	}
	width := f.Index().Len()

	m, err := f.Transform([]Mention{testMention{s, Span{5, 5}}, testMention{s, Span{0, 0}}})
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	r, c := m.Dims()
	if r != 2 || c != width {
		t.Fatalf("dims = %dx%d, want 2x%d", r, c, width)
	}
	if len(m.Row(0)) != 0 {
		t.Errorf("unseen candidate has columns %v", m.Row(0))
	}
	if len(m.Row(1)) != width {
		t.Errorf("seen candidate has %d columns, want %d", len(m.Row(1)), width)
	}
}

func TestTransformBeforeFit(t *testing.T) {
	f, _ := NewMentionFeaturizer(wordGen, labelGen)
	_, err := f.Transform([]Mention{testMention{sampleSentence(), Span{0, 0}}})
	if !errors.Is(err, internalerr.ErrNotFitted) {
		t.Fatalf("err = %v, want ErrNotFitted", err)
	}
}

func TestRefitReplacesVocabulary(t *testing.T) {
	s := sampleSentence()
	f, _ := NewMentionFeaturizer(wordGen, labelGen)
	if _, err := f.FitTransform([]Mention{testMention{s, Span{0, 2}}}); err != nil {
		t.Fatal(err)
	}
	if _, err := f.FitTransform([]Mention{testMention{s, Span{3, 3}}}); err != nil {
		t.Fatal(err)
	}
	if got := f.Index().Names(); !slices.Equal(got, []string{"DDLIB_W_in", "TDL_L_case"}) {
		t.Fatalf("names after refit = %v", got)
	}
}

func TestFeaturesForIgnoresVocabulary(t *testing.T) {
	s := sampleSentence()
	f, _ := NewMentionFeaturizer(wordGen, labelGen)
	got, err := f.FeaturesFor(testMention{s, Span{2, 2}})
	if err != nil {
		t.Fatalf("FeaturesFor: %v", err)
	}
	if !slices.Equal(got, []string{"DDLIB_W_fever", "TDL_L_dobj"}) {
		t.Fatalf("features = %v", got)
	}
	if f.Index() != nil {
		t.Fatal("FeaturesFor fitted the featurizer")
	}
}

func TestTreeBuiltOncePerSentence(t *testing.T) {
	s := sampleSentence()
	var calls int
	var mu sync.Mutex
	probe := EntityFunc(func(_ *corpus.Sentence, tree *deptree.Tree, _ []int) []string {
		mu.Lock()
		defer mu.Unlock()
		calls++
		if tree == nil {
			t.Error("tree generator got nil tree")
		}
		return nil
	})
	f, _ := NewMentionFeaturizer(wordGen, probe)
	cands := []Mention{testMention{s, Span{0, 0}}, testMention{s, Span{1, 1}}}
	if _, err := f.FitTransform(cands); err != nil {
		t.Fatal(err)
	}
	cached, ok := s.Cached(deptree.MemoKey)
	if !ok {
		t.Fatal("tree not cached on sentence")
	}
	if _, err := f.Transform(cands); err != nil {
		t.Fatal(err)
	}
	again, _ := s.Cached(deptree.MemoKey)
	if cached != again {
		t.Fatal("tree rebuilt on second call")
	}
	if calls != 4 {
		t.Fatalf("tree generator called %d times, want 4", calls)
	}
}

func TestMentionFeaturizerRequiresGenerators(t *testing.T) {
	if _, err := NewMentionFeaturizer(wordGen, nil); !errors.Is(err, internalerr.ErrInvalidConfig) {
		t.Fatalf("err = %v, want ErrInvalidConfig", err)
	}
}

func TestRelationFeaturizer(t *testing.T) {
	s := sampleSentence()
	pair := RelationFunc(func(s *corpus.Sentence, _ *deptree.Tree, e1, e2 []int) []string {
		return []string{"PAIR_" + s.Words[e1[0]] + "_" + s.Words[e2[0]]}
	})
	f := NewRelationFeaturizer(pair)
	if f.Arity() != 2 {
		t.Fatalf("arity = %d", f.Arity())
	}
	m, err := f.FitTransform([]Relation{testRelation{s, Span{0, 0}, Span{2, 2}}})
	if err != nil {
		t.Fatalf("FitTransform: %v", err)
	}
	if got := f.Index().Names(); !slices.Equal(got, []string{"TDL_PAIR_Aspirin_fever"}) {
		t.Fatalf("names = %v", got)
	}
	if m.At(0, 0) != 1 {
		t.Fatal("cell not set")
	}
}

func TestRelationFeaturizerWithoutGenerator(t *testing.T) {
	s := sampleSentence()
	f := NewRelationFeaturizer(nil)
	cands := []Relation{
		testRelation{s, Span{0, 0}, Span{2, 2}},
		testRelation{s, Span{2, 2}, Span{5, 5}},
	}
	m, err := f.FitTransform(cands)
	if !errors.Is(err, internalerr.ErrUnsupportedArity) {
		t.Fatalf("err = %v, want ErrUnsupportedArity", err)
	}
	if m != nil {
		t.Fatal("partial matrix returned")
	}
	if f.Index() != nil {
		t.Fatal("index built on failure")
	}
	if _, ok := s.Cached(deptree.MemoKey); ok {
		t.Fatal("preprocessing ran before the arity check")
	}
	if _, err := f.FeaturesFor(cands[0]); !errors.Is(err, internalerr.ErrUnsupportedArity) {
		t.Fatalf("FeaturesFor err = %v", err)
	}
}

func TestLegacyFeaturizer(t *testing.T) {
	s := sampleSentence()
	tree := deptree.Build(s)
	gens := LegacyGenerators{
		Generic: wordGen,
		Entity:  labelGen,
		Relation: RelationFunc(func(_ *corpus.Sentence, tree *deptree.Tree, e1, e2 []int) []string {
			return []string{"PATH_" + tree.Nodes[e1[0]].Label + "_" + tree.Nodes[e2[0]].Label}
		}),
	}

	t.Run("unary with root", func(t *testing.T) {
		f := NewLegacyFeaturizer(1, gens)
		if _, err := f.FitTransform([]LegacyCandidate{testLegacy{sent: s, idxs: []int{2}, root: tree}}); err != nil {
			t.Fatal(err)
		}
		if got := f.Index().Names(); !slices.Equal(got, []string{"DDLIB_W_fever", "TDLIB_L_dobj"}) {
			t.Fatalf("names = %v", got)
		}
	})

	t.Run("unary without root keeps generic family", func(t *testing.T) {
		f := NewLegacyFeaturizer(1, gens)
		if _, err := f.FitTransform([]LegacyCandidate{testLegacy{sent: s, idxs: []int{2}}}); err != nil {
			t.Fatal(err)
		}
		if got := f.Index().Names(); !slices.Equal(got, []string{"DDLIB_W_fever"}) {
			t.Fatalf("names = %v", got)
		}
	})

	t.Run("binary", func(t *testing.T) {
		f := NewLegacyFeaturizer(2, gens)
		m, err := f.FitTransform([]LegacyCandidate{testLegacy{sent: s, e1: []int{0}, e2: []int{2}, root: tree}})
		if err != nil {
			t.Fatal(err)
		}
		if got := f.Index().Names(); !slices.Equal(got, []string{"TDLIB_PATH_nsubj_dobj"}) {
			t.Fatalf("names = %v", got)
		}
		if m.NNZ() != 1 {
			t.Fatalf("nnz = %d", m.NNZ())
		}
	})

	t.Run("binary without root", func(t *testing.T) {
		f := NewLegacyFeaturizer(2, gens)
		m, err := f.FitTransform([]LegacyCandidate{testLegacy{sent: s, e1: []int{0}, e2: []int{2}}})
		if err != nil {
			t.Fatal(err)
		}
		if r, c := m.Dims(); r != 1 || c != 0 {
			t.Fatalf("dims = %dx%d, want 1x0", r, c)
		}
	})

	t.Run("unsupported arity", func(t *testing.T) {
		f := NewLegacyFeaturizer(3, gens)
		_, err := f.FitTransform([]LegacyCandidate{testLegacy{sent: s, idxs: []int{0}, root: tree}})
		if !errors.Is(err, internalerr.ErrUnsupportedArity) {
			t.Fatalf("err = %v", err)
		}
	})
}

func TestTopFeatures(t *testing.T) {
	s := sampleSentence()
	f, _ := NewMentionFeaturizer(wordGen, labelGen)
	if _, err := f.FitTransform([]Mention{testMention{s, Span{0, 1}}}); err != nil {
		t.Fatal(err)
	}
	// columns: W_Aspirin, W_reduces, L_nsubj, L_root
	weights := []float64{0.5, -2, 0.5, 1}

	top, err := f.TopFeatures(weights, 3)
	if err != nil {
		t.Fatalf("TopFeatures: %v", err)
	}
	var names []string
	for _, wf := range top {
		names = append(names, wf.Name)
	}
	want := []string{"DDLIB_W_reduces", "TDL_L_root", "DDLIB_W_Aspirin"}
	if !slices.Equal(names, want) {
		t.Fatalf("top = %v, want %v", names, want)
	}
	for i := 1; i < len(top); i++ {
		if abs(top[i].Weight) > abs(top[i-1].Weight) {
			t.Fatalf("not sorted by |w|: %v", top)
		}
	}

	all, _ := f.TopFeatures(weights, 50)
	if len(all) != 4 {
		t.Fatalf("len = %d, want full vocabulary", len(all))
	}
	def, _ := f.TopFeatures(weights, 0)
	if len(def) != 4 {
		t.Fatalf("default nMax returned %d", len(def))
	}

	if _, err := f.TopFeatures([]float64{1}, 3); !errors.Is(err, internalerr.ErrInvalidInput) {
		t.Fatalf("mismatch err = %v", err)
	}
	if _, err := f.TopFeatures([]float64{1, math.NaN(), 0, 2}, 3); !errors.Is(err, internalerr.ErrInvalidInput) {
		t.Fatalf("NaN weight err = %v", err)
	}
}

func TestMatrixTranspose(t *testing.T) {
	m := newMatrix([][]int{{2, 0}, {1}}, 3)
	want := mat.NewDense(3, 2, []float64{
		1, 0,
		0, 1,
		1, 0,
	})
	if !mat.Equal(m.T(), want) {
		t.Fatalf("transpose = %v", mat.Formatted(m.T()))
	}
	if !mat.Equal(m.Dense(), m) {
		t.Fatal("dense copy differs")
	}
}

func TestConcurrentTransform(t *testing.T) {
	s := sampleSentence()
	f, _ := NewMentionFeaturizer(wordGen, labelGen)
	cands := []Mention{testMention{s, Span{0, 5}}}
	want, err := f.FitTransform(cands)
	if err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	errs := make(chan string, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := f.Transform(cands)
			if err != nil || !got.Equal(want) {
				errs <- "concurrent transform mismatch"
			}
		}()
	}
	wg.Wait()
	close(errs)
	for e := range errs {
		t.Error(e)
	}
}
