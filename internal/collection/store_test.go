package collection

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"platehub/pkg/database"
	"platehub/pkg/models"
)

func sampleGames() []models.CollectionGame {
	at := time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)
	return []models.CollectionGame{{
		ID:           "g1",
		Name:         "road trip",
		Mode:         models.ModeOnePerRegion,
		CreatedAt:    at,
		LastActiveAt: at,
		Plates: []models.CollectedRecord{
			{Region: "CA", Title: "Sequoia", Image: "ca.png", CollectedAt: at, Rarity: "rare"},
		},
	}}
}

func TestFileStoreMissingFilesLoadEmpty(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), "not-yet"))
	games, err := s.LoadGames(context.Background())
	require.NoError(t, err)
	assert.Empty(t, games)

	prefs, err := s.LoadPreferences(context.Background())
	require.NoError(t, err)
	assert.Empty(t, prefs.RecentRegions)
}

func TestFileStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s := NewFileStore(dir)

	require.NoError(t, s.SaveGames(ctx, sampleGames()))
	require.NoError(t, s.SavePreferences(ctx, models.Preferences{RecentRegions: []string{"CA"}, DefaultMode: models.ModeUnlimited}))

	games, err := s.LoadGames(ctx)
	require.NoError(t, err)
	require.Len(t, games, 1)
	assert.Equal(t, "Sequoia", games[0].Plates[0].Title)
	assert.True(t, games[0].CreatedAt.Equal(sampleGames()[0].CreatedAt))

	prefs, err := s.LoadPreferences(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"CA"}, prefs.RecentRegions)
	assert.Equal(t, models.ModeUnlimited, prefs.DefaultMode)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t, []string{"games.json", "preferences.json"}, names)
}

func TestFileStoreCorruptSnapshot(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "games.json"), []byte("{not json"), 0o644))

	_, err := NewFileStore(dir).LoadGames(context.Background())
	assert.Error(t, err)

	_, err = Open(context.Background(), NewFileStore(dir), DefaultConfig())
	assert.Error(t, err)
}

func TestSQLiteStoreScopesByOwner(t *testing.T) {
	ctx := context.Background()
	db, err := database.OpenMigrated(database.Config{Path: filepath.Join(t.TempDir(), "snap.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	alice := NewSQLiteStore(db, "alice")
	bob := NewSQLiteStore(db, "bob")

	require.NoError(t, alice.SaveGames(ctx, sampleGames()))
	require.NoError(t, alice.SaveGames(ctx, sampleGames()))
	require.NoError(t, alice.SavePreferences(ctx, models.Preferences{RecentRegions: []string{"CA"}}))

	games, err := alice.LoadGames(ctx)
	require.NoError(t, err)
	assert.Len(t, games, 1)

	games, err = bob.LoadGames(ctx)
	require.NoError(t, err)
	assert.Empty(t, games)

	prefs, err := bob.LoadPreferences(ctx)
	require.NoError(t, err)
	assert.Empty(t, prefs.RecentRegions)
}

func TestRegistryCachesPerOwner(t *testing.T) {
	ctx := context.Background()
	db, err := database.OpenMigrated(database.Config{Path: filepath.Join(t.TempDir(), "reg.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	reg := NewRegistry(SQLiteOpener(db, DefaultConfig()))

	a1, err := reg.Get(ctx, "alice")
	require.NoError(t, err)
	a2, err := reg.Get(ctx, "alice")
	require.NoError(t, err)
	assert.Same(t, a1, a2)

	g, err := a1.CreateGame(ctx, "", "mine")
	require.NoError(t, err)

	b, err := reg.Get(ctx, "bob")
	require.NoError(t, err)
	assert.Empty(t, b.Games())
	assert.Equal(t, 2, reg.Len())

	reg.Forget("alice")
	a3, err := reg.Get(ctx, "alice")
	require.NoError(t, err)
	assert.NotSame(t, a1, a3)
	got, err := a3.Game(g.ID)
	require.NoError(t, err)
	assert.Equal(t, "mine", got.Name)
}
