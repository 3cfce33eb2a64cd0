package audit

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/mrlokans/locallibrary/internal/entities"
)

// Archive is the document written for one batch of expired events.
type Archive struct {
	ArchivedAt time.Time             `json:"archived_at"`
	Cutoff     time.Time             `json:"cutoff"`
	Count      int                   `json:"count"`
	Events     []entities.AuditEvent `json:"events"`
}

// ArchiveWriter stores archives as indented JSON files in Dir.
type ArchiveWriter struct {
	Dir string
}

func NewArchiveWriter(dir string) *ArchiveWriter {
	return &ArchiveWriter{Dir: dir}
}

// Write creates Dir when missing and returns the new file's base name,
// audit-<date>-<uuid>.json.
func (w *ArchiveWriter) Write(archive Archive) (string, error) {
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create archive dir: %w", err)
	}
	body, err := json.MarshalIndent(archive, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode archive: %w", err)
	}

	name := fmt.Sprintf("audit-%s-%s.json", archive.ArchivedAt.UTC().Format("20060102"), uuid.NewString())
	path := filepath.Join(w.Dir, name)
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return "", fmt.Errorf("write archive: %w", err)
	}
	slog.Info("wrote audit archive", "path", path, "events", archive.Count)
	return name, nil
}
