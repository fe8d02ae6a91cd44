package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"platehub/pkg/models"
	"platehub/pkg/utils"
)

// Source is one place a catalog CSV can be read from (a local file, a mirror).
type Source interface {
	Name() string
	Open(ctx context.Context) (io.ReadCloser, error)
}

type FileSource struct {
	Path string
}

func (s FileSource) Name() string { return "file:" + s.Path }

func (s FileSource) Open(ctx context.Context) (io.ReadCloser, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("open catalog %s: %w", s.Path, err)
	}
	return f, nil
}

// HTTPSource fetches a catalog CSV from a mirror server.
type HTTPSource struct {
	URL    string
	Client *http.Client
}

func NewHTTPSource(url string, timeout time.Duration) *HTTPSource {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPSource{URL: url, Client: &http.Client{Timeout: timeout}}
}

func (s *HTTPSource) Name() string { return "http:" + s.URL }

func (s *HTTPSource) Open(ctx context.Context) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("mirror: build request: %w", err)
	}
	req.Header.Set("Accept", "text/csv")

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("mirror: get %s: %w", s.URL, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("mirror: get %s: status %d", s.URL, resp.StatusCode)
	}
	return resp.Body, nil
}

// LoadSource reads and parses a single source.
func LoadSource(ctx context.Context, src Source) (*LoadResult, error) {
	rc, err := src.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return Load(rc)
}

// Report summarises a multi-source load.
type Report struct {
	Sources map[string]*LoadResult
	Failed  map[string]error
}

// Skipped is the total number of rows dropped across sources.
func (r Report) Skipped() int {
	n := 0
	for _, res := range r.Sources {
		n += len(res.Skipped)
	}
	return n
}

// LoadSources reads every source and merges them into one store. The first
// source to mention a plate wins; later sources only fill enhanced fields the
// earlier one left empty. A broken source is logged and skipped.
func LoadSources(ctx context.Context, log *slog.Logger, sources ...Source) (*Store, Report, error) {
	if log == nil {
		log = slog.Default()
	}
	report := Report{
		Sources: make(map[string]*LoadResult),
		Failed:  make(map[string]error),
	}

	var merged []models.PlateRecord
	index := make(map[models.PlateKey]int)

	for _, src := range sources {
		res, err := LoadSource(ctx, src)
		if err != nil {
			log.Warn("catalog source failed", "source", src.Name(), "error", err)
			report.Failed[src.Name()] = err
			continue
		}
		report.Sources[src.Name()] = res
		for _, rowErr := range res.Skipped {
			log.Debug("catalog row skipped", "source", src.Name(), "line", rowErr.Line, "reason", rowErr.Reason)
		}
		log.Info("catalog source loaded",
			"source", src.Name(),
			"schema", res.Schema,
			"records", len(res.Records),
			"skipped", len(res.Skipped),
			"fallbacks", res.Fallbacks)

		for _, rec := range res.Records {
			key := rec.Key()
			if i, ok := index[key]; ok {
				merged[i] = mergeRecord(merged[i], rec)
				continue
			}
			index[key] = len(merged)
			merged = append(merged, rec)
		}
	}

	if len(merged) == 0 {
		errs := make([]error, 0, len(report.Failed))
		for _, err := range report.Failed {
			errs = append(errs, err)
		}
		return nil, report, &ParseError{Reason: "no plates loaded from any source", Err: errors.Join(errs...)}
	}
	return NewStore(merged), report, nil
}

func mergeRecord(base, incoming models.PlateRecord) models.PlateRecord {
	fill := func(dst *string, v string) {
		if *dst == "" && v != "" {
			*dst = v
		}
	}
	fill(&base.BackgroundColor, incoming.BackgroundColor)
	fill(&base.TextColor, incoming.TextColor)
	fill(&base.Category, incoming.Category)
	fill(&base.Rarity, incoming.Rarity)
	fill(&base.Layout, incoming.Layout)
	fill(&base.Notes, incoming.Notes)
	fill(&base.Source, incoming.Source)
	if len(base.VisualElements) == 0 && len(incoming.VisualElements) > 0 {
		base.VisualElements = append([]string(nil), incoming.VisualElements...)
	}
	if base.Confidence == nil && incoming.Confidence != nil {
		c := *incoming.Confidence
		base.Confidence = &c
	}
	return base
}

// SourcesFromConfig returns the configured local file, followed by the
// mirror when one is set.
func SourcesFromConfig(cfg utils.CatalogConfig) []Source {
	var out []Source
	if cfg.Path != "" {
		out = append(out, FileSource{Path: cfg.Path})
	}
	if cfg.MirrorURL != "" {
		out = append(out, NewHTTPSource(cfg.MirrorURL, cfg.Timeout))
	}
	return out
}
