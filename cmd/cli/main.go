package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"platehub/internal/catalog"
	"platehub/internal/collection"
	"platehub/pkg/models"
	"platehub/pkg/utils"
)

// app carries what every subcommand needs. Catalog and tracker are opened on
// first use so commands that need neither stay fast.
type app struct {
	configPath  string
	catalogPath string
	dataDir     string
	jsonOut     bool

	cfg utils.Config
	log *slog.Logger

	store   *catalog.Store
	tracker *collection.Tracker
}

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand(&app{}).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCommand(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "platehub",
		Short:         "Browse the plate catalog and track spotting games",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd.ErrOrStderr())
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", os.Getenv("PLATEHUB_CONFIG"), "path to platehub.yaml")
	flags.StringVar(&a.catalogPath, "catalog", "", "catalog CSV (overrides catalog.path)")
	flags.StringVar(&a.dataDir, "data-dir", "", "collection directory (overrides collection.data_dir)")
	flags.BoolVar(&a.jsonOut, "json", false, "print JSON instead of text")

	root.AddCommand(
		catalogCommand(a),
		gameCommand(a),
		prefsCommand(a),
		exportCommand(a),
	)
	return root
}

func (a *app) init(stderr io.Writer) error {
	cfg, err := utils.LoadConfig(a.configPath)
	if err != nil {
		return err
	}
	if a.catalogPath != "" {
		cfg.Catalog.Path = a.catalogPath
		cfg.Catalog.MirrorURL = ""
	}
	if a.dataDir != "" {
		cfg.Collection.DataDir = a.dataDir
	}
	a.cfg = cfg
	a.log = utils.NewLogger(cfg.Logging, stderr)
	return nil
}

func (a *app) catalog(ctx context.Context) (*catalog.Store, error) {
	if a.store != nil {
		return a.store, nil
	}
	store, report, err := catalog.LoadSources(ctx, a.log.With("component", "catalog"), catalog.SourcesFromConfig(a.cfg.Catalog)...)
	if err != nil {
		return nil, err
	}
	if n := report.Skipped(); n > 0 {
		a.log.Warn("catalog rows skipped", "count", n)
	}
	a.store = store
	return store, nil
}

func (a *app) collection(ctx context.Context) (*collection.Tracker, error) {
	if a.tracker != nil {
		return a.tracker, nil
	}
	t, err := collection.Open(ctx, collection.NewFileStore(a.cfg.Collection.DataDir), collection.ConfigFrom(a.cfg.Collection),
		collection.WithLogger(a.log.With("component", "collection")))
	if err != nil {
		return nil, fmt.Errorf("open collection in %s: %w", filepath.Clean(a.cfg.Collection.DataDir), err)
	}
	a.tracker = t
	return t, nil
}

// resolveGame accepts a game id, a unique id prefix or a game name.
func (a *app) resolveGame(t *collection.Tracker, ref string) (models.CollectionGame, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return models.CollectionGame{}, errors.New("game reference required")
	}
	var matches []models.CollectionGame
	for _, g := range t.Games() {
		if g.ID == ref || (g.Name != "" && strings.EqualFold(g.Name, ref)) {
			return g, nil
		}
		if strings.HasPrefix(g.ID, ref) {
			matches = append(matches, g)
		}
	}
	switch len(matches) {
	case 0:
		return models.CollectionGame{}, fmt.Errorf("%w: %s", collection.ErrGameNotFound, ref)
	case 1:
		return matches[0], nil
	default:
		return models.CollectionGame{}, fmt.Errorf("game reference %q is ambiguous", ref)
	}
}

func (a *app) printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func gameLabel(g models.CollectionGame) string {
	if g.Name != "" {
		return g.Name
	}
	return g.ID[:min(8, len(g.ID))]
}
