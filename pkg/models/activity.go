package models

import "time"

type ActivityEntry struct {
	PlayerID string    `json:"player_id"`
	GameID   string    `json:"game_id"`
	Action   string    `json:"action"` // "collect", "replace" or "remove"
	Region   string    `json:"region"`
	Title    string    `json:"title"`
	At       time.Time `json:"at"`
}
