package collection

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"platehub/pkg/models"
	"platehub/pkg/utils"
)

const maxRecentRegions = 3

type Config struct {
	MaxGames    int
	RegionGoal  int
	DefaultMode models.GameMode
}

func DefaultConfig() Config {
	return Config{
		MaxGames:    5,
		RegionGoal:  51, // 50 states + DC
		DefaultMode: models.ModeOnePerRegion,
	}
}

func ConfigFrom(cfg utils.CollectionConfig) Config {
	out := DefaultConfig()
	if cfg.MaxGames > 0 {
		out.MaxGames = cfg.MaxGames
	}
	if cfg.RegionGoal > 0 {
		out.RegionGoal = cfg.RegionGoal
	}
	if m := models.ParseGameMode(cfg.DefaultMode); m != "" {
		out.DefaultMode = m
	}
	return out
}

type CollectOutcome string

const (
	Collected      CollectOutcome = "collected"
	AlreadyPresent CollectOutcome = "already_present"
)

type RemoveOutcome string

const (
	Removed  RemoveOutcome = "removed"
	NotFound RemoveOutcome = "not_found"
)

type CollectResult struct {
	Outcome  CollectOutcome          `json:"outcome"`
	Record   models.CollectedRecord  `json:"record"`
	Replaced *models.CollectedRecord `json:"replaced,omitempty"`
	Stats    models.GameStats        `json:"stats"` // taken under the same lock as the collect
}

type RemoveResult struct {
	Outcome RemoveOutcome           `json:"outcome"`
	Record  *models.CollectedRecord `json:"record,omitempty"` // the stored record, nil when not found
}

// Recorder receives tracker counters. internal/metrics implements it.
type Recorder interface {
	GameCreated()
	GameDeleted()
	Collected(outcome CollectOutcome, replaced bool)
	Removed(outcome RemoveOutcome)
	PersistFailed(document string)
}

type nopRecorder struct{}

func (nopRecorder) GameCreated()                   {}
func (nopRecorder) GameDeleted()                   {}
func (nopRecorder) Collected(CollectOutcome, bool) {}
func (nopRecorder) Removed(RemoveOutcome)          {}
func (nopRecorder) PersistFailed(string)           {}

type Option func(*Tracker)

func WithLogger(l *slog.Logger) Option {
	return func(t *Tracker) {
		if l != nil {
			t.log = l
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

func WithIDGenerator(newID func() string) Option {
	return func(t *Tracker) { t.newID = newID }
}

func WithRecorder(r Recorder) Option {
	return func(t *Tracker) {
		if r != nil {
			t.rec = r
		}
	}
}

type game struct {
	meta   models.CollectionGame // Plates is always nil here
	plates map[models.PlateKey]models.CollectedRecord
}

// Tracker owns one player's games and preferences. Every mutation holds the
// mutex until its snapshot has been written, so snapshots are never
// interleaved. A failed write is logged; memory stays authoritative.
type Tracker struct {
	mu    sync.Mutex
	store SnapshotStore
	cfg   Config
	games map[string]*game
	order []string
	prefs models.Preferences

	log   *slog.Logger
	rec   Recorder
	now   func() time.Time
	newID func() string
}

// Open loads both snapshot documents and returns a ready tracker.
func Open(ctx context.Context, store SnapshotStore, cfg Config, opts ...Option) (*Tracker, error) {
	t := &Tracker{
		store: store,
		cfg:   cfg,
		games: make(map[string]*game),
		log:   utils.DiscardLogger(),
		rec:   nopRecorder{},
		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.NewString,
	}
	if t.cfg.MaxGames <= 0 {
		t.cfg.MaxGames = DefaultConfig().MaxGames
	}
	if t.cfg.RegionGoal <= 0 {
		t.cfg.RegionGoal = DefaultConfig().RegionGoal
	}
	if t.cfg.DefaultMode == "" {
		t.cfg.DefaultMode = models.ModeOnePerRegion
	}
	for _, opt := range opts {
		opt(t)
	}

	saved, err := store.LoadGames(ctx)
	if err != nil {
		return nil, err
	}
	for _, sg := range saved {
		t.restore(sg)
	}

	prefs, err := store.LoadPreferences(ctx)
	if err != nil {
		return nil, err
	}
	t.prefs = prefs
	if len(t.prefs.RecentRegions) > maxRecentRegions {
		t.prefs.RecentRegions = t.prefs.RecentRegions[:maxRecentRegions]
	}

	t.log.Debug("collection loaded", "games", len(t.order), "recent", t.prefs.RecentRegions)
	return t, nil
}

func (t *Tracker) restore(sg models.CollectionGame) {
	if sg.ID == "" {
		sg.ID = t.newID()
	}
	if _, dup := t.games[sg.ID]; dup {
		t.log.Warn("duplicate game id in snapshot", "game_id", sg.ID)
		return
	}
	if models.ParseGameMode(string(sg.Mode)) == "" {
		sg.Mode = t.cfg.DefaultMode
	}
	g := &game{plates: make(map[models.PlateKey]models.CollectedRecord, len(sg.Plates))}
	for _, p := range sg.Plates {
		g.insert(sg.Mode, p)
	}
	sg.Plates = nil
	g.meta = sg
	t.games[sg.ID] = g
	t.order = append(t.order, sg.ID)
}

// insert applies the dedup rule of mode and returns the displaced record, if any.
func (g *game) insert(mode models.GameMode, rec models.CollectedRecord) *models.CollectedRecord {
	key := rec.Key()
	var replaced *models.CollectedRecord
	if mode == models.ModeOnePerRegion {
		for k, existing := range g.plates {
			if k.Region == key.Region && k != key {
				prev := existing
				replaced = &prev
				delete(g.plates, k)
				break
			}
		}
	}
	g.plates[key] = rec
	return replaced
}

func (g *game) snapshot() models.CollectionGame {
	out := g.meta
	out.Plates = make([]models.CollectedRecord, 0, len(g.plates))
	for _, p := range g.plates {
		out.Plates = append(out.Plates, p)
	}
	sort.Slice(out.Plates, func(i, j int) bool {
		a, b := out.Plates[i], out.Plates[j]
		if !a.CollectedAt.Equal(b.CollectedAt) {
			return a.CollectedAt.Before(b.CollectedAt)
		}
		return a.Key().String() < b.Key().String()
	})
	return out
}

func (t *Tracker) Config() Config { return t.cfg }

func (t *Tracker) CreateGame(ctx context.Context, mode models.GameMode, name string) (models.CollectionGame, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if mode == "" {
		mode = t.prefs.DefaultMode
		if mode == "" {
			mode = t.cfg.DefaultMode
		}
	}
	mode = models.ParseGameMode(string(mode))
	if mode == "" {
		return models.CollectionGame{}, ErrInvalidMode
	}
	if len(t.order) >= t.cfg.MaxGames {
		return models.CollectionGame{}, &CapacityError{Max: t.cfg.MaxGames}
	}

	name = strings.TrimSpace(name)
	if name != "" {
		for _, id := range t.order {
			if strings.EqualFold(t.games[id].meta.Name, name) {
				return models.CollectionGame{}, &DuplicateError{Name: name}
			}
		}
	}

	now := t.now()
	g := &game{
		meta: models.CollectionGame{
			ID:           t.newID(),
			Name:         name,
			Mode:         mode,
			CreatedAt:    now,
			LastActiveAt: now,
		},
		plates: make(map[models.PlateKey]models.CollectedRecord),
	}
	t.games[g.meta.ID] = g
	t.order = append(t.order, g.meta.ID)
	t.rec.GameCreated()
	t.log.Info("game created", "game_id", g.meta.ID, "mode", mode, "name", name)

	t.persistGamesLocked(ctx)
	return g.snapshot(), nil
}

func (t *Tracker) DeleteGame(ctx context.Context, id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.games[id]; !ok {
		return ErrGameNotFound
	}
	delete(t.games, id)
	for i, gid := range t.order {
		if gid == id {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
	t.rec.GameDeleted()
	t.log.Info("game deleted", "game_id", id)

	t.persistGamesLocked(ctx)
	return nil
}

// Games returns every game in creation order.
func (t *Tracker) Games() []models.CollectionGame {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]models.CollectionGame, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, t.games[id].snapshot())
	}
	return out
}

func (t *Tracker) Game(id string) (models.CollectionGame, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	g, ok := t.games[id]
	if !ok {
		return models.CollectionGame{}, ErrGameNotFound
	}
	return g.snapshot(), nil
}

// Collect logs a plate into a game. Category and rarity are copied from rec so
// later catalog edits do not rewrite history.
func (t *Tracker) Collect(ctx context.Context, gameID string, rec models.PlateRecord) (CollectResult, error) {
	region := models.NormalizeRegion(rec.Region)
	title := strings.TrimSpace(rec.Title)
	if region == "" || title == "" {
		return CollectResult{}, ErrInvalidRecord
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	g, ok := t.games[gameID]
	if !ok {
		return CollectResult{}, ErrGameNotFound
	}

	now := t.now()
	t.touchRecentLocked(region)
	g.meta.LastActiveAt = now

	var res CollectResult
	if existing, dup := g.plates[models.NewPlateKey(region, title)]; dup {
		res = CollectResult{Outcome: AlreadyPresent, Record: existing}
	} else {
		cr := models.CollectedRecord{
			Region:      region,
			Title:       title,
			Image:       rec.Image,
			CollectedAt: now,
			Category:    rec.Category,
			Rarity:      rec.Rarity,
		}
		res = CollectResult{Outcome: Collected, Record: cr, Replaced: g.insert(g.meta.Mode, cr)}
	}
	res.Stats = t.statsLocked(gameID, g)
	t.rec.Collected(res.Outcome, res.Replaced != nil)
	t.log.Debug("plate collected", "game_id", gameID, "region", region, "title", title, "outcome", res.Outcome)

	t.persistGamesLocked(ctx)
	t.persistPrefsLocked(ctx)
	return res, nil
}

func (t *Tracker) Remove(ctx context.Context, gameID, region, title string) (RemoveOutcome, error) {
	res, err := t.RemovePlate(ctx, gameID, region, title)
	return res.Outcome, err
}

// RemovePlate is Remove that also returns the record as it was stored, so
// callers report its canonical region and title.
func (t *Tracker) RemovePlate(ctx context.Context, gameID, region, title string) (RemoveResult, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	g, ok := t.games[gameID]
	if !ok {
		return RemoveResult{}, ErrGameNotFound
	}

	key := models.NewPlateKey(region, title)
	stored, ok := g.plates[key]
	if !ok {
		t.rec.Removed(NotFound)
		return RemoveResult{Outcome: NotFound}, nil
	}
	delete(g.plates, key)
	g.meta.LastActiveAt = t.now()
	t.rec.Removed(Removed)

	t.persistGamesLocked(ctx)
	return RemoveResult{Outcome: Removed, Record: &stored}, nil
}

func (t *Tracker) Stats(gameID string) (models.GameStats, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	g, ok := t.games[gameID]
	if !ok {
		return models.GameStats{}, ErrGameNotFound
	}
	return t.statsLocked(gameID, g), nil
}

func (t *Tracker) statsLocked(gameID string, g *game) models.GameStats {
	regions := make(map[string]struct{})
	score := 0
	for k, p := range g.plates {
		regions[k.Region] = struct{}{}
		score += RarityWeight(p.Rarity)
	}
	return models.GameStats{
		GameID:          gameID,
		TotalCount:      len(g.plates),
		DistinctRegions: len(regions),
		Score:           score,
		RegionGoal:      t.cfg.RegionGoal,
		Complete:        len(regions) >= t.cfg.RegionGoal,
	}
}

func (t *Tracker) Preferences() models.Preferences {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.preferencesLocked()
}

func (t *Tracker) preferencesLocked() models.Preferences {
	p := t.prefs
	p.RecentRegions = append([]string{}, t.prefs.RecentRegions...)
	if p.DefaultMode == "" {
		p.DefaultMode = t.cfg.DefaultMode
	}
	return p
}

// RecentRegions is most recent first, at most three entries.
func (t *Tracker) RecentRegions() []string {
	return t.Preferences().RecentRegions
}

func (t *Tracker) SetDefaultMode(ctx context.Context, mode models.GameMode) error {
	mode = models.ParseGameMode(string(mode))
	if mode == "" {
		return ErrInvalidMode
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.prefs.DefaultMode = mode
	t.persistPrefsLocked(ctx)
	return nil
}

func (t *Tracker) touchRecentLocked(region string) {
	recent := make([]string, 0, maxRecentRegions)
	recent = append(recent, region)
	for _, r := range t.prefs.RecentRegions {
		if r == region {
			continue
		}
		if len(recent) == maxRecentRegions {
			break
		}
		recent = append(recent, r)
	}
	t.prefs.RecentRegions = recent
}

func (t *Tracker) persistGamesLocked(ctx context.Context) {
	games := make([]models.CollectionGame, 0, len(t.order))
	for _, id := range t.order {
		games = append(games, t.games[id].snapshot())
	}
	if err := t.store.SaveGames(ctx, games); err != nil {
		t.rec.PersistFailed(DocumentGames)
		t.log.Error("save games snapshot failed", "error", err)
	}
}

func (t *Tracker) persistPrefsLocked(ctx context.Context) {
	if err := t.store.SavePreferences(ctx, t.preferencesLocked()); err != nil {
		t.rec.PersistFailed(DocumentPreferences)
		t.log.Error("save preferences snapshot failed", "error", err)
	}
}
