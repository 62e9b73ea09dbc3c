package vectordb

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// mockEmbedder returns deterministic embeddings based on text content.
// It produces a simple hash-based vector for reproducible tests.
type mockEmbedder struct {
	dims  int
	name  string
	calls int
}

func newMockEmbedder(dims int) *mockEmbedder {
	return &mockEmbedder{dims: dims, name: "mock"}
}

func (m *mockEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	m.calls++
	results := make([][]float32, len(texts))
	for i, text := range texts {
		results[i] = m.deterministicVector(text)
	}
	return results, nil
}

func (m *mockEmbedder) Dimensions() int { return m.dims }
func (m *mockEmbedder) Name() string    { return m.name }

// deterministicVector produces a normalized vector from text.
// Similar texts will produce similar vectors because shared characters contribute
// to the same positions in the vector.
func (m *mockEmbedder) deterministicVector(text string) []float32 {
	vec := make([]float32, m.dims)
	for i, ch := range text {
		idx := (int(ch) + i) % m.dims
		vec[idx] += 1.0
	}
	// Normalize
	var norm float64
	for _, v := range vec {
		norm += float64(v * v)
	}
	norm = math.Sqrt(norm)
	if norm > 0 {
		for i := range vec {
			vec[i] = float32(float64(vec[i]) / norm)
		}
	}
	return vec
}

func TestRetrieve_MissingIndex(t *testing.T) {
	ix := Open(filepath.Join(t.TempDir(), "doc_index"), newMockEmbedder(32))
	if ix.Exists() {
		t.Fatal("Exists() = true for empty dir")
	}
	_, err := ix.Retrieve(context.Background(), "anything", 4)
	if !errors.Is(err, ErrIndexNotFound) {
		t.Fatalf("expected ErrIndexNotFound, got %v", err)
	}
	var nf *IndexNotFoundError
	if !errors.As(err, &nf) || !strings.Contains(nf.Error(), "process a file first") {
		t.Errorf("unexpected error: %v", err)
	}
	if _, err := ix.Count(); !errors.Is(err, ErrIndexNotFound) {
		t.Errorf("Count() error = %v", err)
	}
}

func TestRebuild_SingleChunk(t *testing.T) {
	ctx := context.Background()
	text := strings.Repeat("Ceci est un test de vectorisation. ", 20)
	ix := Open(filepath.Join(t.TempDir(), "doc_index"), newMockEmbedder(32))

	n, err := ix.Rebuild(ctx, []string{text}, "test.pdf")
	if err != nil {
		t.Fatalf("Rebuild: %v", err)
	}
	if n != 1 {
		t.Errorf("Rebuild returned %d, want 1", n)
	}
	if !ix.Exists() {
		t.Fatal("store file not written")
	}

	results, err := ix.Retrieve(ctx, "test de vectorisation", 4)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("Retrieve returned %d results, want 1 (k clamped)", len(results))
	}
	if results[0].Document.Content != text {
		t.Error("retrieved content differs from indexed chunk")
	}
	if results[0].Document.Metadata.Source != "test.pdf" || results[0].Document.Metadata.Embedder != "mock" {
		t.Errorf("metadata = %+v", results[0].Document.Metadata)
	}
}

func TestRetrieve_RanksAndLimits(t *testing.T) {
	ctx := context.Background()
	ix := Open(t.TempDir(), newMockEmbedder(64))
	chunks := []string{
		"The authentication module handles user login and session management",
		"Database connection pool configuration and initialization",
		"HTTP router setup and middleware chain for the REST API",
		"Quarterly revenue grew by twelve percent",
		"The cat sat on the mat",
	}
	if _, err := ix.Rebuild(ctx, chunks, "mixed.docx"); err != nil {
		t.Fatalf("Rebuild: %v", err)
	}

	results, err := ix.Retrieve(ctx, chunks[1], 2)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].Document.Content != chunks[1] {
		t.Errorf("best match = %q", results[0].Document.Content)
	}
	if results[0].Similarity < results[1].Similarity {
		t.Error("results not sorted by similarity")
	}

	def, err := ix.Retrieve(ctx, "router", 0)
	if err != nil {
		t.Fatalf("Retrieve default k: %v", err)
	}
	if len(def) != DefaultTopK {
		t.Errorf("default k returned %d results", len(def))
	}
}

func TestRebuild_Idempotent(t *testing.T) {
	ctx := context.Background()
	ix := Open(t.TempDir(), newMockEmbedder(32))
	chunks := []string{"alpha beta gamma", "delta epsilon", "zeta eta theta"}

	for i := 0; i < 2; i++ {
		n, err := ix.Rebuild(ctx, chunks, "a.pdf")
		if err != nil {
			t.Fatalf("Rebuild %d: %v", i, err)
		}
		if n != len(chunks) {
			t.Errorf("Rebuild %d returned %d", i, n)
		}
	}

	count, err := ix.Count()
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != len(chunks) {
		t.Errorf("Count = %d after two rebuilds, want %d", count, len(chunks))
	}
}

func TestRebuild_ReplacesPreviousContent(t *testing.T) {
	ctx := context.Background()
	ix := Open(t.TempDir(), newMockEmbedder(32))
	if _, err := ix.Rebuild(ctx, []string{"old one", "old two"}, "old.pdf"); err != nil {
		t.Fatal(err)
	}
	if _, err := ix.Rebuild(ctx, []string{"new content"}, "new.pdf"); err != nil {
		t.Fatal(err)
	}
	results, err := ix.Retrieve(ctx, "old one", 4)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].Document.Content != "new content" {
		t.Errorf("results = %+v", results)
	}
}

func TestRebuild_EmptyChunks(t *testing.T) {
	ctx := context.Background()
	ix := Open(t.TempDir(), newMockEmbedder(32))
	n, err := ix.Rebuild(ctx, nil, "empty.pdf")
	if err != nil {
		t.Fatalf("Rebuild: %v", err)
	}
	if n != 0 {
		t.Errorf("Rebuild returned %d", n)
	}
	results, err := ix.Retrieve(ctx, "anything", 4)
	if err != nil || len(results) != 0 {
		t.Errorf("Retrieve on empty index = %v, %v", results, err)
	}
}

func TestUpsert_Appends(t *testing.T) {
	ctx := context.Background()
	ix := Open(t.TempDir(), newMockEmbedder(32))

	n, err := ix.Upsert(ctx, []string{"first"}, "a.pdf")
	if err != nil || n != 1 {
		t.Fatalf("Upsert on missing index = %d, %v", n, err)
	}
	n, err = ix.Upsert(ctx, []string{"second", "third"}, "b.pdf")
	if err != nil || n != 3 {
		t.Fatalf("Upsert = %d, %v", n, err)
	}
}

func TestPersistedIndexReloadsWithoutText(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	emb := newMockEmbedder(32)
	if _, err := Open(dir, emb).Rebuild(ctx, []string{"persisted chunk"}, "p.pdf"); err != nil {
		t.Fatal(err)
	}

	// A fresh Index over the same dir sees the data.
	reopened := Open(dir, newMockEmbedder(32))
	results, err := reopened.Retrieve(ctx, "persisted chunk", 1)
	if err != nil {
		t.Fatalf("Retrieve after reopen: %v", err)
	}
	if len(results) != 1 || results[0].Document.Content != "persisted chunk" {
		t.Errorf("results = %+v", results)
	}
	if _, err := os.Stat(filepath.Join(dir, StoreFile+".tmp")); !os.IsNotExist(err) {
		t.Error("temp file left behind")
	}
}

func TestRebuild_EmbedsEachChunkOnce(t *testing.T) {
	emb := newMockEmbedder(16)
	ix := Open(t.TempDir(), emb)
	if _, err := ix.Rebuild(context.Background(), []string{"a b", "c d", "e f"}, "x.pdf"); err != nil {
		t.Fatal(err)
	}
	if emb.calls != 3 {
		t.Errorf("embedder called %d times, want 3", emb.calls)
	}
}

func TestFormatResults(t *testing.T) {
	if FormatResults(nil) != "No results found." {
		t.Error("empty results should render a fixed message")
	}
	out := FormatResults([]SearchResult{{
		Document:   Document{Content: "hello", Metadata: DocumentMetadata{Source: "a.pdf", ChunkIndex: 2}},
		Similarity: 0.5,
	}})
	for _, want := range []string{"Found 1 result(s)", "Source: a.pdf (chunk 2)", "hello", "Similarity: 50.0%"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if got := Contents([]SearchResult{{Document: Document{Content: "x"}}}); len(got) != 1 || got[0] != "x" {
		t.Errorf("Contents = %v", got)
	}
}

func TestUpsert_AfterEmptyRebuild(t *testing.T) {
	ctx := context.Background()
	ix := Open(t.TempDir(), newMockEmbedder(32))
	if _, err := ix.Rebuild(ctx, nil, "empty.pdf"); err != nil {
		t.Fatal(err)
	}
	n, err := ix.Upsert(ctx, []string{"late addition"}, "b.pdf")
	if err != nil || n != 1 {
		t.Fatalf("Upsert = %d, %v", n, err)
	}
}
