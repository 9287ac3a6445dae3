// Package lexfeat ties parsing, annotation, storage and featurization
// together.
package lexfeat

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/cognicore/lexfeat/pkg/lexfeat/corpus"
	"github.com/cognicore/lexfeat/pkg/lexfeat/ingest"
	"github.com/cognicore/lexfeat/pkg/lexfeat/internalerr"
	"github.com/cognicore/lexfeat/pkg/lexfeat/store"
)

// Engine is the main facade over a corpus store
type Engine struct {
	store        store.Store
	pipeline     *ingest.Pipeline
	skipOversize bool
	onFile       func(file string, done, total int)
	logger       *zap.Logger
}

// Options configures an Engine
type Options struct {
	Store    store.Store
	Pipeline *ingest.Pipeline // only needed by Ingest

	// SkipOversize logs and skips documents the annotation service rejects
	// as too long or too slow instead of aborting the run.
	SkipOversize bool

	// OnFile is called after each source file is ingested.
	OnFile func(file string, done, total int)

	Logger *zap.Logger
}

// New creates an Engine with the given dependencies
func New(opts Options) *Engine {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		store:        opts.Store,
		pipeline:     opts.Pipeline,
		skipOversize: opts.SkipOversize,
		onFile:       opts.OnFile,
		logger:       logger,
	}
}

// Close cleanly shuts down the Engine
func (e *Engine) Close() error {
	return e.store.Close()
}

// Store exposes the underlying store.
func (e *Engine) Store() store.Store {
	return e.store
}

// IngestStats summarizes an Ingest run.
type IngestStats struct {
	Files     int
	Docs      int
	Sentences int
	Skipped   int
}

// Ingest parses every document under path, annotates it and stores the
// document with its sentences. A document is stored only once all of its
// sentences were annotated.
func (e *Engine) Ingest(ctx context.Context, path string) (IngestStats, error) {
	var stats IngestStats
	if e.pipeline == nil {
		return stats, fmt.Errorf("ingest: %w: no pipeline configured", internalerr.ErrInvalidConfig)
	}
	files, err := e.pipeline.Files(path)
	if err != nil {
		return stats, err
	}

	for i, file := range files {
		for doc, err := range e.pipeline.Documents(file) {
			if err != nil {
				return stats, fmt.Errorf("parse %s: %w", file, err)
			}
			if err := ctx.Err(); err != nil {
				return stats, err
			}

			n, err := e.ingestDoc(ctx, doc)
			if err != nil {
				if e.skipOversize && internalerr.IsTerminal(err) {
					e.logger.Warn("document skipped",
						zap.String("file", doc.File),
						zap.String("doc", doc.Name()),
						zap.Error(err))
					stats.Skipped++
					continue
				}
				return stats, err
			}
			stats.Docs++
			stats.Sentences += n
		}
		stats.Files++
		if e.onFile != nil {
			e.onFile(file, i+1, len(files))
		}
	}

	e.logger.Info("ingest finished",
		zap.Int("files", stats.Files),
		zap.Int("docs", stats.Docs),
		zap.Int("sentences", stats.Sentences),
		zap.Int("skipped", stats.Skipped))
	return stats, nil
}

func (e *Engine) ingestDoc(ctx context.Context, doc corpus.Document) (int, error) {
	var sents []*corpus.Sentence
	for s, err := range e.pipeline.Sentences(ctx, doc) {
		if err != nil {
			var de *internalerr.DocumentError
			if !errors.As(err, &de) {
				err = &internalerr.DocumentError{DocID: doc.ID, DocName: doc.Name(), Err: err}
			}
			return 0, err
		}
		sents = append(sents, s)
	}

	docID, err := e.store.UpsertDoc(ctx, store.DocFrom(doc))
	if err != nil {
		return 0, fmt.Errorf("store doc %s: %w", doc.Name(), err)
	}
	for _, s := range sents {
		if _, err := e.store.AddSentence(ctx, store.SentenceFrom(docID, s)); err != nil {
			return 0, fmt.Errorf("store doc %s: %w", doc.Name(), err)
		}
	}
	e.logger.Debug("document ingested",
		zap.String("doc", doc.Name()),
		zap.Int64("id", docID),
		zap.Int("sentences", len(sents)))
	return len(sents), nil
}
