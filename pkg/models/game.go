package models

import (
	"strings"
	"time"
)

// GameMode selects the dedup rule of a game.
type GameMode string

const (
	// ModeOnePerRegion keeps at most one plate per region; collecting another
	// plate for the same region replaces the previous one.
	ModeOnePerRegion GameMode = "one_per_region"
	// ModeUnlimited keeps every distinct (region, title) pair.
	ModeUnlimited GameMode = "unlimited"
)

// ParseGameMode accepts a few spellings and returns "" for unknown input.
func ParseGameMode(s string) GameMode {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "one_per_region", "one-per-region", "one per region", "oneperregion", "one_per_state", "single":
		return ModeOnePerRegion
	case "unlimited", "multi", "all":
		return ModeUnlimited
	default:
		return ""
	}
}

// CollectionGame is the persisted form of a game.
type CollectionGame struct {
	ID           string            `json:"id"`
	Name         string            `json:"name,omitempty"`
	Mode         GameMode          `json:"mode"`
	CreatedAt    time.Time         `json:"created_at"`
	LastActiveAt time.Time         `json:"last_active_at"`
	Plates       []CollectedRecord `json:"plates"`
}

// CollectedRecord is a plate logged into a game. Category and Rarity are
// copied from the catalog when the plate is collected.
type CollectedRecord struct {
	Region      string    `json:"region"`
	Title       string    `json:"title"`
	Image       string    `json:"image"`
	CollectedAt time.Time `json:"collected_at"`
	Category    string    `json:"category,omitempty"`
	Rarity      string    `json:"rarity,omitempty"`
}

// Key returns the identity of the collected plate.
func (c CollectedRecord) Key() PlateKey {
	return NewPlateKey(c.Region, c.Title)
}

// GameStats are the derived counts of a game.
type GameStats struct {
	GameID          string `json:"game_id"`
	TotalCount      int    `json:"total_count"`
	DistinctRegions int    `json:"distinct_regions"`
	Score           int    `json:"score"`
	RegionGoal      int    `json:"region_goal"`
	Complete        bool   `json:"complete"`
}
