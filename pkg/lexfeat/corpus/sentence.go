package corpus

import (
	"fmt"
	"sync"
)

// Sentence is one dependency-annotated sentence of a document. All per-token
// slices are aligned by token index.
type Sentence struct {
	Words  []string
	Lemmas []string
	Poses  []string

	// DepParents[i] is the 1-based governor of token i (0 is the root);
	// DepLabels[i] is the relation label of that edge.
	DepParents []int
	DepLabels  []string

	SentID    int // 0-based position within the document
	DocID     string
	Text      string
	TokenIdxs []int // character offset of each token in the document
	DocName   string

	mu   sync.Mutex
	memo map[string]any
}

// Len returns the token count.
func (s *Sentence) Len() int {
	return len(s.Words)
}

// Validate checks that every per-token slice has the same length.
func (s *Sentence) Validate() error {
	n := len(s.Words)
	lens := []struct {
		field string
		n     int
	}{
		{"lemmas", len(s.Lemmas)},
		{"poses", len(s.Poses)},
		{"dep_parents", len(s.DepParents)},
		{"dep_labels", len(s.DepLabels)},
		{"token_idxs", len(s.TokenIdxs)},
	}
	for _, l := range lens {
		if l.n != n {
			return fmt.Errorf("sentence %d: %s has %d entries, want %d", s.SentID, l.field, l.n, n)
		}
	}
	for i, p := range s.DepParents {
		if p < 0 || p > n {
			return fmt.Errorf("sentence %d: token %d has governor %d outside [0,%d]", s.SentID, i, p, n)
		}
	}
	return nil
}

// Memo returns the value cached under key, computing it with build on first use.
// Safe for concurrent use; build runs at most once per key.
func (s *Sentence) Memo(key string, build func() any) any {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.memo == nil {
		s.memo = make(map[string]any)
	}
	if v, ok := s.memo[key]; ok {
		return v
	}
	v := build()
	s.memo[key] = v
	return v
}

// Cached returns the value stored under key without computing it.
func (s *Sentence) Cached(key string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.memo[key]
	return v, ok
}
