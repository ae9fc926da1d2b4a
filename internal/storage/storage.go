// Package storage provides the digest archive sink. Every digest card
// that is sent (or fails to send) is archived as JSON so deliveries can
// be audited and replayed.
package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/OfficeDev/microsoft-teams-apps-sharenow/internal/config"
	"go.uber.org/zap"
)

// Storage defines the interface for archive storage operations
type Storage interface {
	// Save writes the object at the given archive path, overwriting any
	// previous object at that path. Returns the number of bytes written.
	Save(ctx context.Context, archivePath string, contentType string, data io.Reader) (int64, error)
	Open(ctx context.Context, archivePath string) (io.ReadCloser, error)
	Delete(ctx context.Context, archivePath string) error
}

// NewStorage creates a new storage instance based on configuration.
// For local mode, archives are stored on the local filesystem.
// For cloud/azure mode, archives are stored in Azure Blob Storage.
func NewStorage(cfg *config.StorageConfig, logger *zap.Logger) (Storage, error) {
	switch cfg.Mode {
	case "local":
		return NewLocalStorage(cfg.LocalBasePath)
	case "cloud", "azure":
		if cfg.CloudConnectionString == "" {
			return nil, fmt.Errorf("cloud connection string required for azure storage")
		}
		return NewAzureBlobStorage(cfg.CloudConnectionString, cfg.CloudContainer, logger)
	default:
		return nil, fmt.Errorf("unsupported storage mode: %s", cfg.Mode)
	}
}

// DigestArchivePath builds the archive path for one digest delivery.
// Paths are deterministic per team and run date so a re-run of the same
// day overwrites rather than duplicates.
func DigestArchivePath(teamID, frequency, runDate string) string {
	return filepath.ToSlash(filepath.Join("digests", frequency, runDate, teamID+".json"))
}

// LocalStorage implements Storage for the local filesystem
type LocalStorage struct {
	basePath string
}

// NewLocalStorage creates a new local storage instance
func NewLocalStorage(basePath string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	return &LocalStorage{
		basePath: basePath,
	}, nil
}

// Save writes an archive object to local storage
func (s *LocalStorage) Save(ctx context.Context, archivePath string, contentType string, data io.Reader) (int64, error) {
	fullPath := filepath.Join(s.basePath, filepath.FromSlash(archivePath))

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return 0, fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return 0, fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	size, err := io.Copy(file, data)
	if err != nil {
		os.Remove(fullPath) // Cleanup on error
		return 0, fmt.Errorf("failed to write file: %w", err)
	}

	return size, nil
}

// Open reads an archive object from local storage
func (s *LocalStorage) Open(ctx context.Context, archivePath string) (io.ReadCloser, error) {
	fullPath := filepath.Join(s.basePath, filepath.FromSlash(archivePath))

	file, err := os.Open(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("archive not found: %s", archivePath)
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	return file, nil
}

// Delete removes an archive object from local storage
func (s *LocalStorage) Delete(ctx context.Context, archivePath string) error {
	fullPath := filepath.Join(s.basePath, filepath.FromSlash(archivePath))

	if err := os.Remove(fullPath); err != nil {
		if os.IsNotExist(err) {
			return nil // Already deleted
		}
		return fmt.Errorf("failed to delete file: %w", err)
	}

	return nil
}
