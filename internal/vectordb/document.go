package vectordb

import (
	"errors"
	"fmt"
	"time"
)

// DefaultTopK is the number of chunks retrieved when the caller passes k <= 0.
const DefaultTopK = 4

// ErrIndexNotFound matches every *IndexNotFoundError via errors.Is.
var ErrIndexNotFound = errors.New("index not found")

// IndexNotFoundError is returned when a query runs before any document has
// been processed.
type IndexNotFoundError struct {
	Path string
}

func (e *IndexNotFoundError) Error() string {
	return fmt.Sprintf("no vector index at %s: process a file first", e.Path)
}

// Is reports whether target is ErrIndexNotFound.
func (e *IndexNotFoundError) Is(target error) bool { return target == ErrIndexNotFound }

// Document is one stored chunk.
type Document struct {
	ID       string
	Content  string
	Metadata DocumentMetadata
}

// DocumentMetadata is stored alongside each chunk.
type DocumentMetadata struct {
	Source     string // file name(s) the chunk was extracted from
	ChunkIndex int
	Embedder   string // name of the embedder that produced the vector
	CreatedAt  time.Time
}

// SearchResult pairs a document with its similarity score.
type SearchResult struct {
	Document   Document
	Similarity float32
}

// Contents returns the text of each result, in rank order.
func Contents(results []SearchResult) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.Document.Content
	}
	return out
}
