// Package vectordb persists embedded text chunks in a chromem-go collection
// and answers similarity queries against it.
package vectordb

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	chromem "github.com/philippgille/chromem-go"
	"github.com/phuslu/log"

	"github.com/ziadkadry99/docchat/internal/embeddings"
	"github.com/ziadkadry99/docchat/internal/progress"
)

const (
	// StoreFile is the name of the persisted index inside the index dir.
	StoreFile      = "chromem.gob.gz"
	collectionName = "documents"
)

// Index is a vector index persisted under a single directory. The file is
// written with no locking; one process should own it at a time.
type Index struct {
	dir       string
	embedder  embeddings.Embedder
	embedFunc chromem.EmbeddingFunc
	reporter  progress.Reporter
	now       func() time.Time
}

// Option customises an Index.
type Option func(*Index)

// WithReporter reports embedding progress during Rebuild and Upsert.
func WithReporter(r progress.Reporter) Option {
	return func(ix *Index) { ix.reporter = r }
}

// Open returns the index stored in dir. Nothing is read until the first
// query; a missing store is reported by Retrieve.
func Open(dir string, embedder embeddings.Embedder, opts ...Option) *Index {
	ix := &Index{
		dir:       dir,
		embedder:  embedder,
		embedFunc: embeddings.ToChromemFunc(embedder),
		reporter:  progress.Nop{},
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(ix)
	}
	return ix
}

// Path is the location of the persisted store.
func (ix *Index) Path() string {
	return filepath.Join(ix.dir, StoreFile)
}

// Exists reports whether a persisted store is present.
func (ix *Index) Exists() bool {
	fi, err := os.Stat(ix.Path())
	return err == nil && !fi.IsDir()
}

// Rebuild replaces the whole index with the given chunks and returns the
// number of entries written. The previous store is only replaced once the
// new one has been written.
func (ix *Index) Rebuild(ctx context.Context, chunks []string, source string) (int, error) {
	db := chromem.NewDB()
	col, err := db.CreateCollection(collectionName, nil, ix.embedFunc)
	if err != nil {
		return 0, fmt.Errorf("create collection: %w", err)
	}

	docs, err := ix.embedChunks(ctx, chunks, source)
	if err != nil {
		return 0, err
	}
	if err := addDocuments(ctx, col, docs); err != nil {
		return 0, err
	}
	if err := ix.persist(db); err != nil {
		return 0, err
	}

	log.Info().
		Str("path", ix.Path()).
		Str("embedder", ix.embedder.Name()).
		Int("chunks", col.Count()).
		Msg("vector index built")
	return col.Count(), nil
}

// Upsert adds chunks to the existing index, creating it when missing, and
// returns the new entry count.
func (ix *Index) Upsert(ctx context.Context, chunks []string, source string) (int, error) {
	db, col, err := ix.load()
	// An empty store decodes without a document map, so start fresh.
	if errors.Is(err, ErrIndexNotFound) || (err == nil && col.Count() == 0) {
		db = chromem.NewDB()
		col, err = db.CreateCollection(collectionName, nil, ix.embedFunc)
	}
	if err != nil {
		return 0, err
	}

	docs, err := ix.embedChunks(ctx, chunks, source)
	if err != nil {
		return 0, err
	}
	if err := addDocuments(ctx, col, docs); err != nil {
		return 0, err
	}
	if err := ix.persist(db); err != nil {
		return 0, err
	}

	log.Info().
		Str("path", ix.Path()).
		Int("added", len(docs)).
		Int("chunks", col.Count()).
		Msg("vector index updated")
	return col.Count(), nil
}

// Retrieve returns the k chunks most similar to query, best first. k <= 0
// means DefaultTopK; k is clamped to the number of entries.
func (ix *Index) Retrieve(ctx context.Context, query string, k int) ([]SearchResult, error) {
	if k <= 0 {
		k = DefaultTopK
	}
	_, col, err := ix.load()
	if err != nil {
		return nil, err
	}

	count := col.Count()
	if count == 0 {
		return nil, nil
	}
	if k > count {
		k = count
	}

	results, err := col.Query(ctx, query, k, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("chromem query: %w", err)
	}

	out := make([]SearchResult, len(results))
	for i, r := range results {
		meta := mapToMetadata(r.Metadata)
		if meta.Embedder != "" && meta.Embedder != ix.embedder.Name() {
			log.Warn().
				Str("stored", meta.Embedder).
				Str("current", ix.embedder.Name()).
				Msg("index was built with a different embedder; results may be poor")
		}
		out[i] = SearchResult{
			Document:   Document{ID: r.ID, Content: r.Content, Metadata: meta},
			Similarity: r.Similarity,
		}
	}
	return out, nil
}

// Count returns the number of entries in the persisted store.
func (ix *Index) Count() (int, error) {
	_, col, err := ix.load()
	if err != nil {
		return 0, err
	}
	return col.Count(), nil
}

// embedChunks computes the vector of each chunk one at a time.
func (ix *Index) embedChunks(ctx context.Context, chunks []string, source string) ([]chromem.Document, error) {
	now := ix.now()
	docs := make([]chromem.Document, 0, len(chunks))

	ix.reporter.Start(len(chunks))
	defer ix.reporter.Finish()

	for i, text := range chunks {
		vecs, err := ix.embedder.Embed(ctx, []string{text})
		if err != nil {
			return nil, fmt.Errorf("embedding chunk %d: %w", i, err)
		}
		if len(vecs) != 1 {
			return nil, fmt.Errorf("embedding chunk %d: got %d vectors", i, len(vecs))
		}
		docs = append(docs, chromem.Document{
			ID:      uuid.NewString(),
			Content: text,
			Metadata: metadataToMap(DocumentMetadata{
				Source:     source,
				ChunkIndex: i,
				Embedder:   ix.embedder.Name(),
				CreatedAt:  now,
			}),
			Embedding: vecs[0],
		})
		ix.reporter.Update(i+1, fmt.Sprintf("Embedding chunk %d/%d", i+1, len(chunks)))
	}
	return docs, nil
}

func addDocuments(ctx context.Context, col *chromem.Collection, docs []chromem.Document) error {
	if len(docs) == 0 {
		return nil
	}
	if err := col.AddDocuments(ctx, docs, 1); err != nil {
		return fmt.Errorf("add documents: %w", err)
	}
	return nil
}

// persist writes the DB to a temp file and renames it over the store.
func (ix *Index) persist(db *chromem.DB) error {
	if err := os.MkdirAll(ix.dir, 0o755); err != nil {
		return fmt.Errorf("create index dir: %w", err)
	}
	tmp := ix.Path() + ".tmp"
	if err := db.ExportToFile(tmp, true, ""); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("export index: %w", err)
	}
	if err := os.Rename(tmp, ix.Path()); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace index: %w", err)
	}
	return nil
}

func (ix *Index) load() (*chromem.DB, *chromem.Collection, error) {
	if _, err := os.Stat(ix.Path()); errors.Is(err, fs.ErrNotExist) {
		return nil, nil, &IndexNotFoundError{Path: ix.Path()}
	}
	db := chromem.NewDB()
	if err := db.ImportFromFile(ix.Path(), ""); err != nil {
		return nil, nil, fmt.Errorf("import index: %w", err)
	}
	col := db.GetCollection(collectionName, ix.embedFunc)
	if col == nil {
		return nil, nil, fmt.Errorf("collection %q not found in %s", collectionName, ix.Path())
	}
	return db, col, nil
}

func metadataToMap(m DocumentMetadata) map[string]string {
	return map[string]string{
		"source":      m.Source,
		"chunk_index": strconv.Itoa(m.ChunkIndex),
		"embedder":    m.Embedder,
		"created_at":  m.CreatedAt.Format(time.RFC3339),
	}
}

func mapToMetadata(m map[string]string) DocumentMetadata {
	idx, _ := strconv.Atoi(m["chunk_index"])
	created, _ := time.Parse(time.RFC3339, m["created_at"])
	return DocumentMetadata{
		Source:     m["source"],
		ChunkIndex: idx,
		Embedder:   m["embedder"],
		CreatedAt:  created,
	}
}
