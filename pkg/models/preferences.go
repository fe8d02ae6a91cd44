package models

// Preferences are the small per-player settings persisted next to the games.
type Preferences struct {
	RecentRegions []string `json:"recent_regions"`
	DefaultMode   GameMode `json:"default_mode"`
}
