// Package store persists extraction results as files on disk and, when a
// database is configured, as Postgres rows.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"filing_tables/pkg/core/extract"
	"filing_tables/pkg/core/table"
)

// FileStore writes FinalJson<N>.json documents and json<N>.json staging dumps.
type FileStore struct {
	outputDir  string
	stagingDir string
	markdown   bool
}

// NewFileStore creates the output directory and, when stagingDir is set, the
// staging directory. With markdown set, staging also writes a json<N>.md
// preview of each cleaned table.
func NewFileStore(outputDir, stagingDir string, markdown bool) (*FileStore, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output dir: %w", err)
	}
	if stagingDir != "" {
		if err := os.MkdirAll(stagingDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create staging dir: %w", err)
		}
	}
	return &FileStore{outputDir: outputDir, stagingDir: stagingDir, markdown: markdown}, nil
}

// DocumentPath returns where the document of table index is written.
func (s *FileStore) DocumentPath(index int) string {
	return filepath.Join(s.outputDir, fmt.Sprintf("FinalJson%d.json", index))
}

// StagingPath returns where the cleaned dump of table index is written.
func (s *FileStore) StagingPath(index int) string {
	return filepath.Join(s.stagingDir, fmt.Sprintf("json%d.json", index))
}

// WriteDocument writes one document, indented by four spaces.
func (s *FileStore) WriteDocument(_ context.Context, _ string, doc *extract.Document) error {
	data, err := json.MarshalIndent(doc, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to marshal table %d: %w", doc.Table, err)
	}
	return os.WriteFile(s.DocumentPath(doc.Table), append(data, '\n'), 0644)
}

// WriteStaging dumps a cleaned table. A preview that does not parse back is
// logged and skipped; the JSON dump is what matters.
func (s *FileStore) WriteStaging(t *table.Table) error {
	if s.stagingDir == "" {
		return nil
	}

	data, err := table.EncodeColumns(t)
	if err != nil {
		return fmt.Errorf("failed to encode table %d: %w", t.Index, err)
	}
	if err := os.WriteFile(s.StagingPath(t.Index), data, 0644); err != nil {
		return err
	}

	if !s.markdown || len(t.Columns) == 0 {
		return nil
	}
	md := table.RenderMarkdown(t)
	if err := table.CheckMarkdown(md, t.NumRows()); err != nil {
		log.Printf("[FileStore] Table %d: skipping preview: %v", t.Index, err)
		return nil
	}
	path := filepath.Join(s.stagingDir, fmt.Sprintf("json%d.md", t.Index))
	return os.WriteFile(path, []byte(md), 0644)
}

// ClearDir removes everything inside dir but keeps dir itself. A missing
// directory is not an error.
func ClearDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		log.Printf("[FileStore] The folder %s does not exist.", dir)
		return nil
	}
	if err != nil {
		return err
	}

	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		if err := os.RemoveAll(path); err != nil {
			return fmt.Errorf("failed to remove %s: %w", path, err)
		}
		if entry.IsDir() {
			log.Printf("[FileStore] Deleted folder and its contents: %s", path)
		} else {
			log.Printf("[FileStore] Deleted file: %s", path)
		}
	}
	return nil
}
