// Package chunker splits extracted text into overlapping, size-bounded
// segments for embedding.
package chunker

import "github.com/phuslu/log"

const (
	DefaultChunkSize = 10000
	DefaultOverlap   = 1000
)

// separators are tried in order when looking for a place to end a chunk.
var separators = []string{"\n\n", "\n", ". ", "! ", "? ", " "}

// Chunk is one segment of the source text.
type Chunk struct {
	Index int
	Text  string
}

// Chunker splits text. Sizes are counted in characters (runes).
type Chunker struct {
	size    int
	overlap int
}

// Option configures a Chunker.
type Option func(*Chunker)

// WithChunkSize sets the maximum chunk length. Non-positive values are ignored.
func WithChunkSize(n int) Option {
	return func(c *Chunker) {
		if n > 0 {
			c.size = n
		}
	}
}

// WithOverlap sets how many characters consecutive chunks share.
// Negative values are ignored.
func WithOverlap(n int) Option {
	return func(c *Chunker) {
		if n >= 0 {
			c.overlap = n
		}
	}
}

// New creates a Chunker. An overlap that is not smaller than the chunk
// size is reduced to a quarter of the size.
func New(opts ...Option) *Chunker {
	c := &Chunker{size: DefaultChunkSize, overlap: DefaultOverlap}
	for _, opt := range opts {
		opt(c)
	}
	if c.overlap >= c.size {
		log.Warn().Int("size", c.size).Int("overlap", c.overlap).Msg("chunk overlap not smaller than size, using size/4")
		c.overlap = c.size / 4
	}
	return c
}

// Size returns the maximum chunk length.
func (c *Chunker) Size() int { return c.size }

// Overlap returns the number of characters shared by consecutive chunks.
func (c *Chunker) Overlap() int { return c.overlap }

// Split cuts text into chunks of at most Size characters. Each chunk after
// the first begins with the last Overlap characters of its predecessor, so
// dropping that prefix from every later chunk and concatenating yields the
// original text. Text no longer than Size is returned as a single chunk;
// empty text yields nil.
func (c *Chunker) Split(text string) []Chunk {
	runes := []rune(text)
	n := len(runes)
	if n == 0 {
		return nil
	}

	var chunks []Chunk
	start := 0
	for {
		if n-start <= c.size {
			chunks = append(chunks, Chunk{Index: len(chunks), Text: string(runes[start:])})
			return chunks
		}
		end := c.cutPoint(runes, start)
		chunks = append(chunks, Chunk{Index: len(chunks), Text: string(runes[start:end])})
		start = end - c.overlap
	}
}

// cutPoint returns the exclusive end of the chunk beginning at start. The
// end always lies in (start+overlap, start+size] so every step advances.
func (c *Chunker) cutPoint(runes []rune, start int) int {
	limit := start + c.size
	floor := start + c.overlap
	for _, sep := range separators {
		if end := lastSeparatorEnd(runes, sep, floor, limit); end > 0 {
			return end
		}
	}
	return limit
}

// lastSeparatorEnd finds the last occurrence of sep whose end falls in
// (floor, limit] and returns that end, or -1.
func lastSeparatorEnd(runes []rune, sep string, floor, limit int) int {
	s := []rune(sep)
	for end := limit; end > floor; end-- {
		begin := end - len(s)
		if begin < 0 {
			break
		}
		match := true
		for i, r := range s {
			if runes[begin+i] != r {
				match = false
				break
			}
		}
		if match {
			return end
		}
	}
	return -1
}

// Texts returns the text of each chunk.
func Texts(chunks []Chunk) []string {
	out := make([]string, len(chunks))
	for i, ch := range chunks {
		out[i] = ch.Text
	}
	return out
}
