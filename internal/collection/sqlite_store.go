package collection

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"platehub/pkg/models"
)

// SQLiteStore keeps one row per document in the snapshots table, scoped to
// OwnerID.
type SQLiteStore struct {
	DB      *sql.DB
	OwnerID string
}

func NewSQLiteStore(db *sql.DB, ownerID string) *SQLiteStore {
	return &SQLiteStore{DB: db, OwnerID: ownerID}
}

func (s *SQLiteStore) LoadGames(ctx context.Context) ([]models.CollectionGame, error) {
	var games []models.CollectionGame
	if err := s.load(ctx, DocumentGames, &games); err != nil {
		return nil, err
	}
	return games, nil
}

func (s *SQLiteStore) SaveGames(ctx context.Context, games []models.CollectionGame) error {
	if games == nil {
		games = []models.CollectionGame{}
	}
	return s.save(ctx, DocumentGames, games)
}

func (s *SQLiteStore) LoadPreferences(ctx context.Context) (models.Preferences, error) {
	var prefs models.Preferences
	if err := s.load(ctx, DocumentPreferences, &prefs); err != nil {
		return models.Preferences{}, err
	}
	return prefs, nil
}

func (s *SQLiteStore) SavePreferences(ctx context.Context, prefs models.Preferences) error {
	return s.save(ctx, DocumentPreferences, prefs)
}

func (s *SQLiteStore) load(ctx context.Context, doc string, v any) error {
	var body string
	err := s.DB.QueryRowContext(ctx, `
		SELECT body FROM snapshots
		WHERE owner_id = ? AND document = ?
	`, s.OwnerID, doc).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load %s snapshot: %w", doc, err)
	}
	if err := json.Unmarshal([]byte(body), v); err != nil {
		return fmt.Errorf("decode %s snapshot: %w", doc, err)
	}
	return nil
}

func (s *SQLiteStore) save(ctx context.Context, doc string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s snapshot: %w", doc, err)
	}
	_, err = s.DB.ExecContext(ctx, `
		INSERT INTO snapshots (owner_id, document, body, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(owner_id, document) DO UPDATE SET
			body = excluded.body,
			updated_at = CURRENT_TIMESTAMP
	`, s.OwnerID, doc, string(b))
	if err != nil {
		return fmt.Errorf("save %s snapshot: %w", doc, err)
	}
	return nil
}
