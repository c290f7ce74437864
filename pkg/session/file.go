package session

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/matzehuels/dialoguegraph/pkg/errors"
)

// FileStore is a file-based dialogue store for CLI applications.
// Dialogues are stored as JSON files in a data directory.
type FileStore struct {
	mu      sync.RWMutex
	baseDir string
}

// NewFileStore creates a new file-based store.
// If baseDir is empty, defaults to ~/.local/share/dialoguegraph/dialogues/
func NewFileStore(baseDir string) (*FileStore, error) {
	if baseDir == "" {
		dir, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		baseDir = dir
	}
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, fmt.Errorf("create dialogue dir: %w", err)
	}
	return &FileStore{baseDir: baseDir}, nil
}

// DefaultDir returns the XDG data directory for saved dialogues.
func DefaultDir() (string, error) {
	if dataHome := os.Getenv("XDG_DATA_HOME"); dataHome != "" {
		return filepath.Join(dataHome, "dialoguegraph", "dialogues"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".local", "share", "dialoguegraph", "dialogues"), nil
}

func (s *FileStore) dialoguePath(id string) (string, error) {
	if err := errors.ValidateStoreID(id); err != nil {
		return "", err
	}
	return filepath.Join(s.baseDir, id+".json"), nil
}

func (s *FileStore) Get(ctx context.Context, id string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	path, err := s.dialoguePath(id)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, notFound(id)
		}
		return nil, fmt.Errorf("read dialogue file: %w", err)
	}
	return decode(data)
}

func (s *FileStore) Put(ctx context.Context, sess *Session) error {
	if err := touch(sess); err != nil {
		return err
	}
	data, err := encode(sess)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	path, err := s.dialoguePath(sess.ID)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write dialogue file: %w", err)
	}
	return nil
}

func (s *FileStore) List(ctx context.Context) ([]Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil, fmt.Errorf("read dialogue dir: %w", err)
	}

	out := []Summary{}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.baseDir, entry.Name()))
		if err != nil {
			continue
		}
		sess, err := decode(data)
		if err != nil || sess.ID != strings.TrimSuffix(entry.Name(), ".json") {
			continue
		}
		out = append(out, sess.Summary())
	}
	sortSummaries(out)
	return out, nil
}

func (s *FileStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path, err := s.dialoguePath(id)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return notFound(id)
		}
		return fmt.Errorf("remove dialogue file: %w", err)
	}
	return nil
}

func (s *FileStore) Close() error { return nil }

// Path returns the base directory for dialogue files.
func (s *FileStore) Path() string {
	return s.baseDir
}

var _ Store = (*FileStore)(nil)
