package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

type Player struct {
	ID           string
	Handle       string
	PasswordHash string
	TokenVersion int
	CreatedAt    time.Time
}

var ErrPlayerNotFound = errors.New("player not found")

type Repo struct {
	DB *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

func (r *Repo) CreatePlayer(ctx context.Context, p Player) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO players (id, handle, password_hash)
		VALUES (?, ?, ?)
	`, p.ID, p.Handle, p.PasswordHash)
	if err != nil {
		return fmt.Errorf("create player: %w", err)
	}
	return nil
}

func (r *Repo) scanOne(row *sql.Row, what string) (*Player, error) {
	var p Player
	if err := row.Scan(&p.ID, &p.Handle, &p.PasswordHash, &p.TokenVersion, &p.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get by %s: %w", what, err)
	}
	return &p, nil
}

// GetByHandle matches case-insensitively.
func (r *Repo) GetByHandle(ctx context.Context, handle string) (*Player, error) {
	handle = strings.ToLower(strings.TrimSpace(handle))
	row := r.DB.QueryRowContext(ctx, `
		SELECT id, handle, password_hash, token_version, created_at
		FROM players
		WHERE LOWER(handle) = ?
	`, handle)
	return r.scanOne(row, "handle")
}

func (r *Repo) GetByID(ctx context.Context, id string) (*Player, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT id, handle, password_hash, token_version, created_at
		FROM players
		WHERE id = ?
	`, id)
	return r.scanOne(row, "id")
}

func (r *Repo) GetTokenVersion(ctx context.Context, id string) (int, error) {
	var version int
	err := r.DB.QueryRowContext(ctx, `
		SELECT token_version FROM players WHERE id = ?
	`, id).Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrPlayerNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("get token version: %w", err)
	}
	return version, nil
}

func (r *Repo) UpdatePasswordAndBumpTokenVersion(ctx context.Context, id string, passwordHash string) error {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE players
		SET password_hash = ?, token_version = token_version + 1
		WHERE id = ?
	`, passwordHash, id)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return requireOne(res, "update password")
}

func (r *Repo) BumpTokenVersion(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE players
		SET token_version = token_version + 1
		WHERE id = ?
	`, id)
	if err != nil {
		return fmt.Errorf("bump token version: %w", err)
	}
	return requireOne(res, "bump token version")
}

func requireOne(res sql.Result, op string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows: %w", op, err)
	}
	if affected == 0 {
		return fmt.Errorf("%s: %w", op, ErrPlayerNotFound)
	}
	return nil
}
