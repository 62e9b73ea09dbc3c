package document

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

const (
	docxBodyPart  = "word/document.xml"
	wordNamespace = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
)

// ExtractDOCX returns the text of the body paragraphs of a DOCX file in
// document order. Paragraphs are concatenated without separators and
// paragraphs nested inside tables are skipped.
func ExtractDOCX(doc Document) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(doc.Data), int64(len(doc.Data)))
	if err != nil {
		return "", &ExtractionError{Name: doc.Name, Err: err}
	}

	var part *zip.File
	for _, f := range zr.File {
		if f.Name == docxBodyPart {
			part = f
			break
		}
	}
	if part == nil {
		return "", &ExtractionError{Name: doc.Name, Err: fmt.Errorf("missing %s", docxBodyPart)}
	}

	rc, err := part.Open()
	if err != nil {
		return "", &ExtractionError{Name: doc.Name, Err: err}
	}
	defer rc.Close()

	text, err := paragraphText(rc)
	if err != nil {
		return "", &ExtractionError{Name: doc.Name, Err: err}
	}
	return text, nil
}

func paragraphText(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)
	var sb strings.Builder
	tableDepth := 0
	inText := false

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("parsing %s: %w", docxBodyPart, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Space != wordNamespace {
				continue
			}
			switch t.Name.Local {
			case "tbl":
				tableDepth++
			case "t":
				inText = tableDepth == 0
			case "tab":
				if tableDepth == 0 {
					sb.WriteByte('\t')
				}
			case "br", "cr":
				if tableDepth == 0 {
					sb.WriteByte('\n')
				}
			}
		case xml.EndElement:
			if t.Name.Space != wordNamespace {
				continue
			}
			switch t.Name.Local {
			case "tbl":
				if tableDepth > 0 {
					tableDepth--
				}
			case "t":
				inText = false
			}
		case xml.CharData:
			if inText {
				sb.Write(t)
			}
		}
	}
	return sb.String(), nil
}
