package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jas0n325/captone-ui-sub006/pkg/domain"
)

// record is the on-disk layout of a terminal's settings.
type record struct {
	TerminalID        string    `json:"terminalId"`
	TransactionNumber int64     `json:"transactionNumber"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// Store implements ports.SettingsStore using the local filesystem.
// Each terminal's settings live in one JSON file in BasePath.
type Store struct {
	BasePath string
}

// New creates a new Store with the given base path.
// If basePath is empty, it defaults to ".pos/settings".
func New(basePath string) *Store {
	if basePath == "" {
		basePath = filepath.Join(".pos", "settings")
	}
	return &Store{BasePath: basePath}
}

func (s *Store) path(terminalID string) (string, error) {
	if terminalID == "" {
		return "", fmt.Errorf("terminalID cannot be empty")
	}
	if strings.ContainsAny(terminalID, `/\`) || terminalID == "." || terminalID == ".." {
		return "", fmt.Errorf("invalid terminalID %q", terminalID)
	}
	return filepath.Join(s.BasePath, terminalID+".json"), nil
}

// SaveTransactionNumber writes the settings file atomically.
// It writes to a temporary file first, syncs via fsync, and then renames it to the destination.
func (s *Store) SaveTransactionNumber(ctx context.Context, terminalID string, number int64) error {
	destPath, err := s.path(terminalID)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(s.BasePath, 0o755); err != nil {
		return fmt.Errorf("failed to ensure settings directory: %w", err)
	}

	data, err := json.MarshalIndent(record{
		TerminalID:        terminalID,
		TransactionNumber: number,
		UpdatedAt:         time.Now().UTC(),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	// Same directory keeps the rename on one filesystem.
	tmpFile, err := os.CreateTemp(s.BasePath, "tmp-"+terminalID+"-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}
	// Windows cannot rename an open file.
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	// On Windows, os.Rename fails if dest exists.
	if _, err := os.Stat(destPath); err == nil {
		if err := os.Remove(destPath); err != nil {
			return fmt.Errorf("failed to remove existing settings file for overwrite: %w", err)
		}
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// LoadTransactionNumber reads the terminal's settings file.
func (s *Store) LoadTransactionNumber(ctx context.Context, terminalID string) (int64, error) {
	filePath, err := s.path(terminalID)
	if err != nil {
		return 0, err
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, domain.ErrSettingNotFound
		}
		return 0, fmt.Errorf("failed to read settings file: %w", err)
	}

	var r record
	if err := json.Unmarshal(data, &r); err != nil {
		return 0, fmt.Errorf("failed to unmarshal settings: %w", err)
	}
	return r.TransactionNumber, nil
}

// Delete removes the settings file.
func (s *Store) Delete(ctx context.Context, terminalID string) error {
	filePath, err := s.path(terminalID)
	if err != nil {
		return err
	}
	if err := os.Remove(filePath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete settings file: %w", err)
	}
	return nil
}

// List returns every terminal with a settings file.
func (s *Store) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.BasePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list settings: %w", err)
	}

	ids := []string{}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ".json" || strings.HasPrefix(name, "tmp-") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, ".json"))
	}
	sort.Strings(ids)
	return ids, nil
}
