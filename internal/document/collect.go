package document

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultMaxFileSize is the largest upload Collect will pick up (50 MB).
const DefaultMaxFileSize int64 = 50 << 20

// skippedDirs are never descended into.
var skippedDirs = []string{
	".git",
	".docchat",
	"node_modules",
	"vendor",
	"__pycache__",
	".venv",
	".idea",
	".vscode",
}

// FileInfo describes a supported document found on disk.
type FileInfo struct {
	Path    string
	RelPath string
	Size    int64
	Type    FileType
}

// CollectConfig controls Collect.
type CollectConfig struct {
	RootDir     string
	Include     []string // doublestar patterns; empty means every supported file
	Exclude     []string
	MaxFileSize int64 // 0 means DefaultMaxFileSize
}

// Collect walks RootDir and returns every PDF, DOCX, or CSV file that
// passes the include/exclude filters, in lexical path order.
func Collect(cfg CollectConfig) ([]FileInfo, error) {
	root, err := filepath.Abs(cfg.RootDir)
	if err != nil {
		return nil, fmt.Errorf("collect: resolve root: %w", err)
	}
	maxSize := cfg.MaxFileSize
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}

	var files []FileInfo
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return nil
		}
		if d.IsDir() {
			if path != root && isSkippedDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		ft, ok := TypeFromName(d.Name())
		if !ok {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if len(cfg.Include) > 0 && !MatchesAny(rel, cfg.Include) {
			return nil
		}
		if MatchesAny(rel, cfg.Exclude) {
			return nil
		}

		info, err := d.Info()
		if err != nil || info.Size() > maxSize {
			return nil
		}

		files = append(files, FileInfo{
			Path:    path,
			RelPath: rel,
			Size:    info.Size(),
			Type:    ft,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("collect: traversal: %w", err)
	}
	return files, nil
}

// MatchesAny reports whether relPath, or its base name, matches one of
// the doublestar patterns.
func MatchesAny(relPath string, patterns []string) bool {
	normalized := filepath.ToSlash(relPath)
	base := filepath.Base(normalized)
	for _, pattern := range patterns {
		pattern = filepath.ToSlash(pattern)
		if ok, err := doublestar.Match(pattern, normalized); err == nil && ok {
			return true
		}
		if ok, err := doublestar.Match(pattern, base); err == nil && ok {
			return true
		}
	}
	return false
}

func isSkippedDir(name string) bool {
	for _, skip := range skippedDirs {
		if strings.EqualFold(name, skip) {
			return true
		}
	}
	return false
}

// Load reads a file from disk into a Document, deriving its type from
// the extension. An unsupported extension leaves Type empty; rejecting it
// is left to the caller's validation.
func Load(path string) (Document, error) {
	ft, _ := TypeFromName(path)
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("reading %s: %w", path, err)
	}
	return Document{Name: filepath.Base(path), Type: ft, Data: data}, nil
}

// HashBytes returns the SHA-256 hex digest of data.
func HashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
