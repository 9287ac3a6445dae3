package sqlite

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"

	"github.com/cognicore/lexfeat/pkg/lexfeat/internalerr"
	"github.com/cognicore/lexfeat/pkg/lexfeat/store"
)

// sqliteStore implements the Store interface using SQLite
type sqliteStore struct {
	db *sql.DB

	idMu    sync.Mutex
	entropy *ulid.MonotonicEntropy
}

// OpenSQLite opens a SQLite database with WAL mode enabled.
func OpenSQLite(ctx context.Context, path string) (store.Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// Pragmas are per connection.
	db.SetMaxOpenConns(1)

	// Enable WAL mode for better concurrency
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}

	// Enable foreign keys
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, err
	}

	// Initialize schema
	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &sqliteStore{
		db:      db,
		entropy: ulid.Monotonic(rand.Reader, 0),
	}, nil
}

// Close closes the database connection
func (s *sqliteStore) Close() error {
	return s.db.Close()
}

// initSchema creates tables if they don't exist
func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS docs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	file TEXT NOT NULL,
	position INTEGER NOT NULL,
	external_id TEXT,
	name TEXT,
	text TEXT,
	UNIQUE(file, position)
);

CREATE TABLE IF NOT EXISTS sentences (
	id TEXT PRIMARY KEY,
	doc_id INTEGER NOT NULL,
	position INTEGER NOT NULL,
	text TEXT,
	words TEXT NOT NULL,
	lemmas TEXT NOT NULL,
	poses TEXT NOT NULL,
	dep_parents TEXT NOT NULL,
	dep_labels TEXT NOT NULL,
	token_idxs TEXT NOT NULL,
	UNIQUE(doc_id, position),
	FOREIGN KEY(doc_id) REFERENCES docs(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS spans (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	sentence_id TEXT NOT NULL,
	char_start INTEGER NOT NULL,
	char_end INTEGER NOT NULL,
	label TEXT,
	FOREIGN KEY(sentence_id) REFERENCES sentences(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS relations (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	span1_id INTEGER NOT NULL,
	span2_id INTEGER NOT NULL,
	label TEXT,
	FOREIGN KEY(span1_id) REFERENCES spans(id) ON DELETE CASCADE,
	FOREIGN KEY(span2_id) REFERENCES spans(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_sentences_doc ON sentences(doc_id, position);
CREATE INDEX IF NOT EXISTS idx_spans_sentence ON spans(sentence_id);
`

	_, err := db.ExecContext(ctx, schema)
	return err
}

// UpsertDoc inserts or updates a document and clears its sentences.
func (s *sqliteStore) UpsertDoc(ctx context.Context, d store.Doc) (int64, error) {
	if d.File == "" {
		return 0, fmt.Errorf("upsert doc: %w: file is required", internalerr.ErrInvalidInput)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	const stmt = `
INSERT INTO docs (file, position, external_id, name, text)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(file, position) DO UPDATE SET
	external_id=excluded.external_id,
	name=excluded.name,
	text=excluded.text
RETURNING id;
`

	var docID int64
	err = tx.QueryRowContext(ctx, stmt, d.File, d.Position, d.ExternalID, d.Name, d.Text).Scan(&docID)
	if err != nil {
		return 0, err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM sentences WHERE doc_id=?`, docID); err != nil {
		return 0, err
	}

	return docID, tx.Commit()
}

// GetDoc retrieves a document by ID
func (s *sqliteStore) GetDoc(ctx context.Context, id int64) (store.Doc, error) {
	return s.loadDoc(ctx, `SELECT id, file, position, external_id, name, text FROM docs WHERE id = ?`, id)
}

// GetDocByKey retrieves a document by file and position
func (s *sqliteStore) GetDocByKey(ctx context.Context, file string, position int) (store.Doc, bool, error) {
	doc, err := s.loadDoc(ctx,
		`SELECT id, file, position, external_id, name, text FROM docs WHERE file = ? AND position = ?`,
		file, position)
	if errors.Is(err, internalerr.ErrNotFound) {
		return store.Doc{}, false, nil
	}
	if err != nil {
		return store.Doc{}, false, err
	}
	return doc, true, nil
}

// Docs lists all documents in insertion order.
func (s *sqliteStore) Docs(ctx context.Context) ([]store.Doc, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, file, position, external_id, name, text FROM docs ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []store.Doc
	for rows.Next() {
		doc, err := scanDoc(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// AddSentence stores s under a fresh ULID.
func (s *sqliteStore) AddSentence(ctx context.Context, sent store.Sentence) (string, error) {
	cols, err := encodeTokens(sent)
	if err != nil {
		return "", err
	}
	id := s.newID()

	_, err = s.db.ExecContext(ctx, `
INSERT INTO sentences (id, doc_id, position, text, words, lemmas, poses, dep_parents, dep_labels, token_idxs)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
`, append([]any{id, sent.DocID, sent.Position, sent.Text}, cols...)...)
	if err != nil {
		return "", fmt.Errorf("add sentence %d of doc %d: %w", sent.Position, sent.DocID, err)
	}
	return id, nil
}

// GetSentence retrieves a sentence by ID
func (s *sqliteStore) GetSentence(ctx context.Context, id string) (store.Sentence, error) {
	row := s.db.QueryRowContext(ctx, sentenceSelect+` WHERE id = ?`, id)
	sent, err := scanSentence(row)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Sentence{}, fmt.Errorf("sentence %s: %w", id, internalerr.ErrNotFound)
	}
	return sent, err
}

// SentencesByDoc lists the sentences of a document in order.
func (s *sqliteStore) SentencesByDoc(ctx context.Context, docID int64) ([]store.Sentence, error) {
	rows, err := s.db.QueryContext(ctx, sentenceSelect+` WHERE doc_id = ? ORDER BY position`, docID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.Sentence
	for rows.Next() {
		sent, err := scanSentence(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sent)
	}
	return out, rows.Err()
}

// AddSpan stores a span; its sentence must exist.
func (s *sqliteStore) AddSpan(ctx context.Context, sp store.Span) (int64, error) {
	if sp.CharEnd <= sp.CharStart {
		return 0, fmt.Errorf("add span: %w: empty range [%d,%d)", internalerr.ErrInvalidInput, sp.CharStart, sp.CharEnd)
	}
	var id int64
	err := s.db.QueryRowContext(ctx, `
INSERT INTO spans (sentence_id, char_start, char_end, label)
VALUES (?, ?, ?, ?)
RETURNING id;
`, sp.SentenceID, sp.CharStart, sp.CharEnd, sp.Label).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("add span on sentence %s: %w", sp.SentenceID, err)
	}
	return id, nil
}

// GetSpan retrieves a span by ID
func (s *sqliteStore) GetSpan(ctx context.Context, id int64) (store.Span, error) {
	var sp store.Span
	err := s.db.QueryRowContext(ctx,
		`SELECT id, sentence_id, char_start, char_end, label FROM spans WHERE id = ?`, id,
	).Scan(&sp.ID, &sp.SentenceID, &sp.CharStart, &sp.CharEnd, &sp.Label)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Span{}, fmt.Errorf("span %d: %w", id, internalerr.ErrNotFound)
	}
	return sp, err
}

// Spans lists every span in insertion order.
func (s *sqliteStore) Spans(ctx context.Context) ([]store.Span, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, sentence_id, char_start, char_end, label FROM spans ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.Span
	for rows.Next() {
		var sp store.Span
		if err := rows.Scan(&sp.ID, &sp.SentenceID, &sp.CharStart, &sp.CharEnd, &sp.Label); err != nil {
			return nil, err
		}
		out = append(out, sp)
	}
	return out, rows.Err()
}

// AddRelation links two existing spans.
func (s *sqliteStore) AddRelation(ctx context.Context, r store.Relation) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `
INSERT INTO relations (span1_id, span2_id, label)
VALUES (?, ?, ?)
RETURNING id;
`, r.Span1, r.Span2, r.Label).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("add relation %d-%d: %w", r.Span1, r.Span2, err)
	}
	return id, nil
}

// Relations lists every relation in insertion order.
func (s *sqliteStore) Relations(ctx context.Context) ([]store.Relation, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, span1_id, span2_id, label FROM relations ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.Relation
	for rows.Next() {
		var r store.Relation
		if err := rows.Scan(&r.ID, &r.Span1, &r.Span2, &r.Label); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *sqliteStore) newID() string {
	s.idMu.Lock()
	defer s.idMu.Unlock()
	return ulid.MustNew(ulid.Now(), s.entropy).String()
}

type scanner interface {
	Scan(dest ...any) error
}

func (s *sqliteStore) loadDoc(ctx context.Context, query string, args ...any) (store.Doc, error) {
	doc, err := scanDoc(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return store.Doc{}, fmt.Errorf("doc: %w", internalerr.ErrNotFound)
	}
	return doc, err
}

func scanDoc(row scanner) (store.Doc, error) {
	var (
		doc        store.Doc
		externalID sql.NullString
		name       sql.NullString
		text       sql.NullString
	)
	if err := row.Scan(&doc.ID, &doc.File, &doc.Position, &externalID, &name, &text); err != nil {
		return store.Doc{}, err
	}
	doc.ExternalID = externalID.String
	doc.Name = name.String
	doc.Text = text.String
	return doc, nil
}

const sentenceSelect = `
SELECT id, doc_id, position, text, words, lemmas, poses, dep_parents, dep_labels, token_idxs
FROM sentences`

func scanSentence(row scanner) (store.Sentence, error) {
	var (
		sent store.Sentence
		text sql.NullString
		raw  [6]string
	)
	err := row.Scan(&sent.ID, &sent.DocID, &sent.Position, &text,
		&raw[0], &raw[1], &raw[2], &raw[3], &raw[4], &raw[5])
	if err != nil {
		return store.Sentence{}, err
	}
	sent.Text = text.String

	targets := []any{&sent.Words, &sent.Lemmas, &sent.Poses, &sent.DepParents, &sent.DepLabels, &sent.TokenIdxs}
	for i, dst := range targets {
		if err := json.Unmarshal([]byte(raw[i]), dst); err != nil {
			return store.Sentence{}, fmt.Errorf("sentence %s: decode column %d: %w", sent.ID, i, err)
		}
	}
	return sent, nil
}

// encodeTokens serializes the per-token arrays as JSON columns.
func encodeTokens(sent store.Sentence) ([]any, error) {
	values := []any{
		nonNil(sent.Words), nonNil(sent.Lemmas), nonNil(sent.Poses),
		nonNil(sent.DepParents), nonNil(sent.DepLabels), nonNil(sent.TokenIdxs),
	}
	cols := make([]any, len(values))
	for i, v := range values {
		b, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		cols[i] = string(b)
	}
	return cols, nil
}

func nonNil[T any](xs []T) []T {
	if xs == nil {
		return []T{}
	}
	return xs
}
