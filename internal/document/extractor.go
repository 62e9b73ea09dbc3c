// Package document turns uploaded PDF and DOCX files into plain text,
// stages CSV files for the tabular path and discovers document files on disk.
package document

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/phuslu/log"
)

// Extractor concatenates the text of a batch of documents of one type.
type Extractor struct {
	tempDir string
}

// NewExtractor creates an extractor. tempDir holds scratch files for PDF
// processing; empty means os.TempDir().
func NewExtractor(tempDir string) *Extractor {
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	return &Extractor{tempDir: tempDir}
}

// Extract returns the text of every document, in list order. PDF pages and
// DOCX paragraphs are joined without separators. An empty list yields "".
// Any failure aborts the whole batch.
func (e *Extractor) Extract(ctx context.Context, docs []Document) (string, error) {
	if len(docs) == 0 {
		return "", nil
	}

	kind := docs[0].Type
	var sb strings.Builder
	for _, doc := range docs {
		if doc.Type != kind {
			return "", fmt.Errorf("mixed document types in one batch: %s and %s", kind, doc.Type)
		}
		if err := ctx.Err(); err != nil {
			return "", err
		}

		var (
			text string
			err  error
		)
		switch doc.Type {
		case TypePDF:
			text, err = e.ExtractPDF(ctx, doc)
		case TypeDOCX:
			text, err = ExtractDOCX(doc)
		case TypeCSV:
			return "", fmt.Errorf("%s: csv documents are staged for the tabular agent, not extracted", doc.Name)
		default:
			return "", fmt.Errorf("%s: unsupported document type %q", doc.Name, doc.Type)
		}
		if err != nil {
			return "", err
		}
		sb.WriteString(text)
	}

	log.Info().
		Str("type", string(kind)).
		Int("files", len(docs)).
		Int("chars", sb.Len()).
		Msg("extracted document text")

	return sb.String(), nil
}
