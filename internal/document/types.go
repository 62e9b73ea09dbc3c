package document

import (
	"path/filepath"
	"strings"
)

// FileType is the declared type of an uploaded document.
type FileType string

const (
	TypePDF  FileType = "pdf"
	TypeDOCX FileType = "docx"
	TypeCSV  FileType = "csv"
)

// SupportedTypes lists the accepted document types in display order.
var SupportedTypes = []FileType{TypePDF, TypeDOCX, TypeCSV}

// Document is one uploaded file: raw bytes plus its declared type.
type Document struct {
	Name string
	Type FileType
	Data []byte
}

// TypeFromName returns the file type implied by a filename's extension.
// ok is false for unsupported extensions.
func TypeFromName(name string) (t FileType, ok bool) {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
	for _, st := range SupportedTypes {
		if ext == string(st) {
			return st, true
		}
	}
	return "", false
}
