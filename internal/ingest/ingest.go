/*
Package ingest loads a directory of text documents for indexing.

Documents are .txt, .md, or .markdown files. A file that cannot be
decoded as UTF-8 text is skipped with a warning rather than aborting the
load, so one bad file never blocks the rest of the corpus.
*/
package ingest

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"log/slog"
)

// Document is a single source file, immutable once indexed.
type Document struct {
	// DocID is the slugged relative path, stable across loads.
	DocID string `json:"doc_id"`

	// Title is the first markdown heading, or the filename stem.
	Title string `json:"title"`

	// SourcePath is the path the document was read from.
	SourcePath string `json:"source_path"`

	// Text is the full decoded document text.
	Text string `json:"text"`

	// ModifiedAt is the file modification time at load.
	ModifiedAt time.Time `json:"modified_at"`
}

// indexableExtensions are the file types loaded from the docs directory.
var indexableExtensions = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
}

// LoadDir loads all indexable documents under dir, sorted by DocID.
// Undecodable files are skipped with a warning; an unreadable directory
// is an error.
func LoadDir(dir string) ([]Document, error) {
	var docs []Document

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !indexableExtensions[strings.ToLower(filepath.Ext(path))] {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			slog.Warn("skipping unreadable document", "path", path, "error", err)
			return nil
		}
		if !utf8.Valid(data) {
			slog.Warn("skipping undecodable document", "path", path)
			return nil
		}

		info, err := d.Info()
		if err != nil {
			slog.Warn("skipping document without file info", "path", path, "error", err)
			return nil
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			rel = filepath.Base(path)
		}

		text := string(data)
		docs = append(docs, Document{
			DocID:      DocID(rel),
			Title:      titleOf(rel, text),
			SourcePath: path,
			Text:       text,
			ModifiedAt: info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk docs dir: %w", err)
	}

	sort.Slice(docs, func(i, j int) bool { return docs[i].DocID < docs[j].DocID })
	return docs, nil
}

// DocID derives a stable document identifier from a relative path.
func DocID(relPath string) string {
	id := filepath.ToSlash(relPath)
	id = strings.TrimSuffix(id, filepath.Ext(id))
	return strings.ReplaceAll(id, " ", "_")
}

// titleOf returns the first markdown heading, or the filename stem.
func titleOf(relPath, text string) string {
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#") {
			title := strings.TrimSpace(strings.TrimLeft(trimmed, "#"))
			if title != "" {
				return title
			}
		}
	}
	base := filepath.Base(relPath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Fingerprint derives a hash of the document set under dir from sorted
// relpath|size|mtime lines. It detects added, removed, resized, and
// touched files without reading file contents.
func Fingerprint(dir string) (string, error) {
	var lines []string

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !indexableExtensions[strings.ToLower(filepath.Ext(path))] {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			rel = filepath.Base(path)
		}
		lines = append(lines, fmt.Sprintf("%s|%d|%d", filepath.ToSlash(rel), info.Size(), info.ModTime().Unix()))
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to fingerprint docs dir: %w", err)
	}

	sort.Strings(lines)
	sum := sha256.Sum256([]byte(strings.Join(lines, "\n")))
	return hex.EncodeToString(sum[:]), nil
}
