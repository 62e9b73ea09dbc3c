package document

import (
	"fmt"
	"os"
	"path/filepath"
)

// StageCSV writes a CSV upload into dir so the tabular agent can read it
// from disk. The staged path is returned.
func StageCSV(dir string, doc Document) (string, error) {
	if doc.Type != TypeCSV {
		return "", fmt.Errorf("staging %s: not a csv file", doc.Name)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating staging dir: %w", err)
	}
	path := filepath.Join(dir, filepath.Base(doc.Name))
	if err := os.WriteFile(path, doc.Data, 0o644); err != nil {
		return "", fmt.Errorf("staging %s: %w", doc.Name, err)
	}
	return path, nil
}
