package collection

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"platehub/pkg/models"
)

// Document names used by every SnapshotStore.
const (
	DocumentGames       = "games"
	DocumentPreferences = "preferences"
)

// SnapshotStore persists the two tracker documents. Each Save replaces the
// whole document; a missing document loads as empty.
type SnapshotStore interface {
	LoadGames(ctx context.Context) ([]models.CollectionGame, error)
	SaveGames(ctx context.Context, games []models.CollectionGame) error
	LoadPreferences(ctx context.Context) (models.Preferences, error)
	SavePreferences(ctx context.Context, prefs models.Preferences) error
}

// FileStore keeps games.json and preferences.json in Dir.
type FileStore struct {
	Dir string
}

func NewFileStore(dir string) *FileStore {
	return &FileStore{Dir: dir}
}

func (s *FileStore) path(doc string) string {
	return filepath.Join(s.Dir, doc+".json")
}

func (s *FileStore) LoadGames(ctx context.Context) ([]models.CollectionGame, error) {
	var games []models.CollectionGame
	if err := s.read(DocumentGames, &games); err != nil {
		return nil, err
	}
	return games, nil
}

func (s *FileStore) SaveGames(ctx context.Context, games []models.CollectionGame) error {
	if games == nil {
		games = []models.CollectionGame{}
	}
	return s.write(DocumentGames, games)
}

func (s *FileStore) LoadPreferences(ctx context.Context) (models.Preferences, error) {
	var prefs models.Preferences
	if err := s.read(DocumentPreferences, &prefs); err != nil {
		return models.Preferences{}, err
	}
	return prefs, nil
}

func (s *FileStore) SavePreferences(ctx context.Context, prefs models.Preferences) error {
	return s.write(DocumentPreferences, prefs)
}

func (s *FileStore) read(doc string, v any) error {
	b, err := os.ReadFile(s.path(doc))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s snapshot: %w", doc, err)
	}
	if len(b) == 0 {
		return nil
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("decode %s snapshot: %w", doc, err)
	}
	return nil
}

// write replaces the document through a temp file and rename, so a crash
// leaves either the old or the new snapshot.
func (s *FileStore) write(doc string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s snapshot: %w", doc, err)
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	tmp, err := os.CreateTemp(s.Dir, "."+doc+"-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp %s snapshot: %w", doc, err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write %s snapshot: %w", doc, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync %s snapshot: %w", doc, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s snapshot: %w", doc, err)
	}
	if err := os.Rename(tmpName, s.path(doc)); err != nil {
		return fmt.Errorf("replace %s snapshot: %w", doc, err)
	}
	return nil
}
