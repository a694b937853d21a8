package db

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/david/grant-agent/internal/models"
)

// ScriptVariable is the global the dashboard reads grants from.
const ScriptVariable = "window.grantsData"

// FileBackend stores grants as a script-embedded JSON array
// (`window.grantsData = [...];`) so a static dashboard can load it directly.
type FileBackend struct {
	Path      string
	BackupDir string
	Now       func() time.Time
}

func NewFileBackend(path string) *FileBackend {
	return &FileBackend{
		Path:      path,
		BackupDir: filepath.Join(filepath.Dir(path), "backups"),
		Now:       time.Now,
	}
}

// LoadAll reads the grants file. A missing file or malformed content yields
// an empty collection; other read errors are returned.
func (b *FileBackend) LoadAll(ctx context.Context) ([]models.GrantRecord, error) {
	data, err := os.ReadFile(b.Path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Printf("Grants file %s not found, starting with an empty collection", b.Path)
			return []models.GrantRecord{}, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", b.Path, err)
	}

	records, err := DecodeScript(data)
	if err != nil {
		log.Printf("⚠️ Could not parse %s, starting with an empty collection: %v", b.Path, err)
		return []models.GrantRecord{}, nil
	}
	return records, nil
}

// SaveAll writes the collection, first copying the previous file aside if no
// backup exists yet for today.
func (b *FileBackend) SaveAll(ctx context.Context, records []models.GrantRecord) error {
	if err := os.MkdirAll(filepath.Dir(b.Path), 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	if err := b.backupOncePerDay(); err != nil {
		return err
	}

	payload, err := EncodeScript(records)
	if err != nil {
		return err
	}

	tmp := b.Path + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, b.Path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", b.Path, err)
	}

	log.Printf("✅ Saved %d grants to %s", len(records), b.Path)
	return nil
}

// BackupPath is where today's backup of the grants file lives.
func (b *FileBackend) BackupPath() string {
	now := time.Now
	if b.Now != nil {
		now = b.Now
	}
	base := strings.TrimSuffix(filepath.Base(b.Path), filepath.Ext(b.Path))
	return filepath.Join(b.BackupDir, fmt.Sprintf("%s_%s%s", base, now().Format(models.DateLayout), filepath.Ext(b.Path)))
}

func (b *FileBackend) backupOncePerDay() error {
	dst := b.BackupPath()
	if _, err := os.Stat(dst); err == nil {
		return nil
	}

	src, err := os.Open(b.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to open %s for backup: %w", b.Path, err)
	}
	defer src.Close()

	if err := os.MkdirAll(b.BackupDir, 0o755); err != nil {
		return fmt.Errorf("failed to create backup directory: %w", err)
	}

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create backup %s: %w", dst, err)
	}
	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		return fmt.Errorf("failed to copy backup: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("failed to close backup: %w", err)
	}

	log.Printf("Backed up previous grants to %s", dst)
	return nil
}

// DecodeScript parses `window.grantsData = [...];`, or a bare JSON array.
func DecodeScript(data []byte) ([]models.GrantRecord, error) {
	s := strings.TrimSpace(string(data))
	if strings.HasPrefix(s, ScriptVariable) {
		s = strings.TrimSpace(strings.TrimPrefix(s, ScriptVariable))
		s = strings.TrimSpace(strings.TrimPrefix(s, "="))
	}
	s = strings.TrimSpace(strings.TrimSuffix(s, ";"))

	if s == "" {
		return []models.GrantRecord{}, nil
	}

	var records []models.GrantRecord
	if err := json.Unmarshal([]byte(s), &records); err != nil {
		return nil, fmt.Errorf("invalid grants JSON: %w", err)
	}
	if records == nil {
		records = []models.GrantRecord{}
	}
	return records, nil
}

// EncodeScript renders records in the dashboard's script format.
func EncodeScript(records []models.GrantRecord) ([]byte, error) {
	if records == nil {
		records = []models.GrantRecord{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return nil, fmt.Errorf("failed to encode grants: %w", err)
	}

	out := make([]byte, 0, buf.Len()+len(ScriptVariable)+4)
	out = append(out, ScriptVariable+" = "...)
	out = append(out, bytes.TrimRight(buf.Bytes(), "\n")...)
	out = append(out, ";\n"...)
	return out, nil
}
