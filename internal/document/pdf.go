package document

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/phuslu/log"
)

// pageContentRe matches the per-page files written by pdfcpu's content
// extraction, e.g. "input_Content_page_3.txt".
var pageContentRe = regexp.MustCompile(`Content_page_(\d+)`)

// ExtractPDF returns the text of every page of a PDF, in page order, with
// no separators between pages.
func (e *Extractor) ExtractPDF(ctx context.Context, doc Document) (string, error) {
	workDir, err := os.MkdirTemp(e.tempDir, "docchat-pdf-*")
	if err != nil {
		return "", fmt.Errorf("creating pdf work dir: %w", err)
	}
	defer os.RemoveAll(workDir)

	inFile := filepath.Join(workDir, "input.pdf")
	if err := os.WriteFile(inFile, doc.Data, 0o600); err != nil {
		return "", fmt.Errorf("writing temp pdf: %w", err)
	}

	pdfCtx, err := api.ReadContextFile(inFile)
	if err != nil {
		return "", &ExtractionError{Name: doc.Name, Err: err}
	}
	pageCount := pdfCtx.PageCount

	outDir := filepath.Join(workDir, "pages")
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", fmt.Errorf("creating pdf page dir: %w", err)
	}

	conf := model.NewDefaultConfiguration()
	if err := api.ExtractContentFile(inFile, outDir, nil, conf); err != nil {
		return "", &ExtractionError{Name: doc.Name, Err: err}
	}

	streams, err := readPageStreams(outDir)
	if err != nil {
		return "", &ExtractionError{Name: doc.Name, Err: err}
	}

	var sb strings.Builder
	for page := 1; page <= pageCount; page++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		if stream, ok := streams[page]; ok {
			sb.WriteString(decodeContentText(stream))
		}
	}

	log.Debug().
		Str("file", doc.Name).
		Int("pages", pageCount).
		Int("chars", sb.Len()).
		Msg("extracted pdf")

	return sb.String(), nil
}

// readPageStreams loads the extracted content stream of each page, keyed
// by 1-based page number.
func readPageStreams(dir string) (map[int][]byte, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	streams := make(map[int][]byte, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		m := pageContentRe.FindStringSubmatch(entry.Name())
		if m == nil {
			continue
		}
		page, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		// A page with several content streams is written as several files.
		streams[page] = append(streams[page], data...)
	}
	return streams, nil
}
