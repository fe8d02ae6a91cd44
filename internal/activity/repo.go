package activity

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"platehub/pkg/models"
)

const (
	ActionCollect = "collect"
	ActionReplace = "replace"
	ActionRemove  = "remove"
)

// Repo is the append-only log of collection changes per player and game.
type Repo struct {
	DB *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

func (r *Repo) Add(ctx context.Context, entry models.ActivityEntry) error {
	if entry.At.IsZero() {
		entry.At = time.Now().UTC()
	}

	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO collection_activity (player_id, game_id, action, region, title, at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, entry.PlayerID, entry.GameID, entry.Action, entry.Region, entry.Title, entry.At)
	if err != nil {
		return fmt.Errorf("insert activity: %w", err)
	}
	return nil
}

// List returns the newest entries first.
func (r *Repo) List(ctx context.Context, playerID, gameID string, limit, offset int) ([]models.ActivityEntry, int, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	var total int
	if err := r.DB.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM collection_activity
		WHERE player_id = ? AND game_id = ?
	`, playerID, gameID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count activity: %w", err)
	}

	rows, err := r.DB.QueryContext(ctx, `
		SELECT player_id, game_id, action, region, title, at
		FROM collection_activity
		WHERE player_id = ? AND game_id = ?
		ORDER BY at DESC, id DESC
		LIMIT ? OFFSET ?
	`, playerID, gameID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list activity: %w", err)
	}
	defer rows.Close()

	out := make([]models.ActivityEntry, 0, limit)
	for rows.Next() {
		var e models.ActivityEntry
		if err := rows.Scan(&e.PlayerID, &e.GameID, &e.Action, &e.Region, &e.Title, &e.At); err != nil {
			return nil, 0, fmt.Errorf("scan activity: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("rows activity: %w", err)
	}

	return out, total, nil
}

// DeleteGame drops the history of a deleted game.
func (r *Repo) DeleteGame(ctx context.Context, playerID, gameID string) error {
	_, err := r.DB.ExecContext(ctx, `
		DELETE FROM collection_activity WHERE player_id = ? AND game_id = ?
	`, playerID, gameID)
	if err != nil {
		return fmt.Errorf("delete activity: %w", err)
	}
	return nil
}
