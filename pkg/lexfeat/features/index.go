package features

// Namespace tags the generator family a feature came from.
type Namespace string

// Families used by the built-in featurizers.
const (
	NamespaceGeneric    Namespace = "DDLIB"
	NamespaceTree       Namespace = "TDL"
	NamespaceLegacyTree Namespace = "TDLIB"
)

// Feature is a generated feature name tagged with its family. Two features
// are the same column only if both parts match.
type Feature struct {
	Namespace Namespace
	Name      string
}

// String composes the column name, e.g. "DDLIB_WORD_SEQ_[cat]".
func (f Feature) String() string {
	if f.Namespace == "" {
		return f.Name
	}
	return string(f.Namespace) + "_" + f.Name
}

// Index maps features to matrix columns in first-seen order. An Index is
// never modified once built.
type Index struct {
	cols   map[Feature]int
	feats  []Feature
	byName map[string]int
}

type indexBuilder struct {
	cols  map[Feature]int
	feats []Feature
}

func newIndexBuilder() *indexBuilder {
	return &indexBuilder{cols: make(map[Feature]int)}
}

// add returns the column of f, assigning the next one on first sight.
func (b *indexBuilder) add(f Feature) int {
	if j, ok := b.cols[f]; ok {
		return j
	}
	j := len(b.feats)
	b.cols[f] = j
	b.feats = append(b.feats, f)
	return j
}

func (b *indexBuilder) build() *Index {
	byName := make(map[string]int, len(b.feats))
	for j, f := range b.feats {
		name := f.String()
		if _, dup := byName[name]; !dup {
			byName[name] = j
		}
	}
	return &Index{cols: b.cols, feats: b.feats, byName: byName}
}

// Len returns the vocabulary size.
func (x *Index) Len() int {
	return len(x.feats)
}

// Column returns the column of f.
func (x *Index) Column(f Feature) (int, bool) {
	j, ok := x.cols[f]
	return j, ok
}

// Lookup returns the column of a composed name. If two families compose to
// the same string, the earlier column is returned.
func (x *Index) Lookup(name string) (int, bool) {
	j, ok := x.byName[name]
	return j, ok
}

// Feature returns the feature at column j.
func (x *Index) Feature(j int) Feature {
	return x.feats[j]
}

// Name returns the composed name of column j.
func (x *Index) Name(j int) string {
	return x.feats[j].String()
}

// Names returns all composed names in column order.
func (x *Index) Names() []string {
	out := make([]string, len(x.feats))
	for j, f := range x.feats {
		out[j] = f.String()
	}
	return out
}
