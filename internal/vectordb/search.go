package vectordb

import (
	"fmt"
	"strings"
)

// FormatResults renders results as plain text, best match first, for
// callers that hand retrieval output to a person or an agent verbatim.
func FormatResults(results []SearchResult) string {
	if len(results) == 0 {
		return "No results found."
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d result(s):\n", len(results))
	for i, r := range results {
		fmt.Fprintf(&sb, "\n--- Result %d ---\n", i+1)
		if src := r.Document.Metadata.Source; src != "" {
			fmt.Fprintf(&sb, "Source: %s (chunk %d)\n", src, r.Document.Metadata.ChunkIndex)
		}
		fmt.Fprintf(&sb, "Similarity: %.1f%%\n\n", r.Similarity*100)
		sb.WriteString(r.Document.Content)
		sb.WriteString("\n")
	}
	return sb.String()
}
