package sync

import (
	"time"

	"platehub/pkg/models"
)

const (
	EventGameCreated    = "game.created"
	EventGameDeleted    = "game.deleted"
	EventPlateCollected = "plate.collected"
	EventPlateRemoved   = "plate.removed"
)

type CollectionEvent struct {
	Type     string            `json:"type"`
	PlayerID string            `json:"player_id"`
	GameID   string            `json:"game_id"`
	Region   string            `json:"region,omitempty"`
	Title    string            `json:"title,omitempty"`
	Outcome  string            `json:"outcome,omitempty"`  // "collected", "already_present", "removed"
	Replaced string            `json:"replaced,omitempty"` // title displaced in one_per_region games
	Stats    *models.GameStats `json:"stats,omitempty"`
	At       time.Time         `json:"at"`
}
