package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cognicore/lexfeat/pkg/lexfeat/store"
	"github.com/cognicore/lexfeat/pkg/lexfeat/store/sqlite"
)

func seedDB(t *testing.T) string {
	t.Helper()
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "lexfeat.db")

	st, err := sqlite.OpenSQLite(ctx, dbPath)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer st.Close()

	docID, err := st.UpsertDoc(ctx, store.Doc{File: "a.txt", Name: "a.txt", Text: "Aspirin reduces fever."})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	_, err = st.AddSentence(ctx, store.Sentence{
		DocID:      docID,
		Text:       "Aspirin reduces fever.",
		Words:      []string{"Aspirin", "reduces", "fever", "."},
		Lemmas:     []string{"aspirin", "reduce", "fever", "."},
		Poses:      []string{"NN", "VBZ", "NN", "."},
		DepParents: []int{2, 0, 2, 2},
		DepLabels:  []string{"nsubj", "root", "dobj", "punct"},
		TokenIdxs:  []int{0, 8, 16, 21},
	})
	if err != nil {
		t.Fatalf("add sentence: %v", err)
	}
	return dbPath
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	err := newApp(UI{Out: &out, Err: &errOut}).RunContext(context.Background(), append([]string{"lexfeat"}, args...))
	return out.String(), err
}

func TestMarkExportFeaturize(t *testing.T) {
	t.Chdir(t.TempDir())
	db := seedDB(t)

	marks := filepath.Join(t.TempDir(), "marks.tsv")
	if err := os.WriteFile(marks, []byte("a.txt\t0\t0\t7\t16\t21\ttreats\n"), 0644); err != nil {
		t.Fatal(err)
	}

	out, err := run(t, "--db", db, "mark", marks)
	if err != nil {
		t.Fatalf("mark: %v", err)
	}
	if !strings.Contains(out, "1 relations imported") {
		t.Fatalf("mark output = %q", out)
	}

	out, err = run(t, "--db", db, "export")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if want := "1:0:span:0:6\t1:0:span:16:20\n"; out != want {
		t.Fatalf("export = %q, want %q", out, want)
	}

	index := filepath.Join(t.TempDir(), "index.tsv")
	matrix := filepath.Join(t.TempDir(), "matrix.tsv")
	out, err = run(t, "--db", db, "featurize", "--arity", "2", "--index", index, "--matrix", matrix)
	if err != nil {
		t.Fatalf("featurize: %v", err)
	}
	if !strings.HasPrefix(out, "1 rows,") {
		t.Fatalf("featurize output = %q", out)
	}

	data, err := os.ReadFile(index)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "\tTDL_PATH_LEN_2\n") {
		t.Fatalf("index missing path length:\n%s", data)
	}
	if data, err = os.ReadFile(matrix); err != nil || len(data) == 0 {
		t.Fatalf("matrix = %q, err %v", data, err)
	}
}

func TestFeaturizeRejectsArity(t *testing.T) {
	t.Chdir(t.TempDir())
	db := seedDB(t)
	if _, err := run(t, "--db", db, "featurize", "--arity", "3"); err == nil {
		t.Fatal("expected error for arity 3")
	}
}
