package catalog

import (
	"sort"
	"strings"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"

	"platehub/pkg/models"
)

const searchThreshold = 0.82

// Store is an immutable, in-memory plate catalog. It is safe for concurrent
// readers. Filters are linear scans; a catalog is a few thousand rows.
type Store struct {
	records []models.PlateRecord
	byKey   map[models.PlateKey]int
}

type ListQuery struct {
	Region   string
	Category string
	Q        string // fuzzy title search
	Limit    int
	Offset   int
}

type RegionCount struct {
	Region string `json:"region"`
	Count  int    `json:"count"`
}

type SearchHit struct {
	Record models.PlateRecord `json:"record"`
	Score  float64            `json:"score"`
}

// NewStore copies records into a new store. Later duplicates of a
// (region, title) key are dropped.
func NewStore(records []models.PlateRecord) *Store {
	s := &Store{
		records: make([]models.PlateRecord, 0, len(records)),
		byKey:   make(map[models.PlateKey]int, len(records)),
	}
	for _, r := range records {
		key := r.Key()
		if _, ok := s.byKey[key]; ok {
			continue
		}
		s.byKey[key] = len(s.records)
		s.records = append(s.records, r)
	}
	return s
}

func (s *Store) Len() int { return len(s.records) }

func (s *Store) All() []models.PlateRecord {
	return append([]models.PlateRecord(nil), s.records...)
}

func (s *Store) Lookup(region, title string) (models.PlateRecord, bool) {
	idx, ok := s.byKey[models.NewPlateKey(region, title)]
	if !ok {
		return models.PlateRecord{}, false
	}
	return s.records[idx], true
}

func (s *Store) ByRegion(region string) []models.PlateRecord {
	region = models.NormalizeRegion(region)
	return s.filter(func(r models.PlateRecord) bool { return r.Region == region })
}

// ByCategory matches case-insensitively. An empty category selects records
// that have none.
func (s *Store) ByCategory(category string) []models.PlateRecord {
	category = strings.TrimSpace(category)
	return s.filter(func(r models.PlateRecord) bool { return strings.EqualFold(r.Category, category) })
}

func (s *Store) filter(keep func(models.PlateRecord) bool) []models.PlateRecord {
	var out []models.PlateRecord
	for _, r := range s.records {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

// Regions returns every region code with its plate count, sorted by code.
func (s *Store) Regions() []RegionCount {
	counts := make(map[string]int)
	for _, r := range s.records {
		counts[r.Region]++
	}
	out := make([]RegionCount, 0, len(counts))
	for region, n := range counts {
		out = append(out, RegionCount{Region: region, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Region < out[j].Region })
	return out
}

func (s *Store) Categories() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, r := range s.records {
		c := strings.TrimSpace(r.Category)
		if c == "" {
			continue
		}
		k := strings.ToLower(c)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// Search ranks titles against query with Jaro-Winkler similarity. A title
// containing the query scores 1. limit <= 0 returns every hit.
func (s *Store) Search(query string, limit int) []SearchHit {
	return search(s.records, query, limit)
}

func search(records []models.PlateRecord, query string, limit int) []SearchHit {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil
	}

	jw := metrics.NewJaroWinkler()
	var hits []SearchHit
	for _, r := range records {
		title := strings.ToLower(r.Title)
		score := 1.0
		if !strings.Contains(title, query) {
			score = strutil.Similarity(query, title, jw)
		}
		if score >= searchThreshold {
			hits = append(hits, SearchHit{Record: r, Score: score})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].Record.Title < hits[j].Record.Title
	})
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits
}

// List applies every filter in q and returns one page plus the total match
// count. Region and category filters are exact; Q ranks by similarity.
func (s *Store) List(q ListQuery) ([]models.PlateRecord, int) {
	region := models.NormalizeRegion(q.Region)
	category := strings.TrimSpace(q.Category)

	matched := s.filter(func(r models.PlateRecord) bool {
		if region != "" && r.Region != region {
			return false
		}
		if category != "" && !strings.EqualFold(r.Category, category) {
			return false
		}
		return true
	})

	if strings.TrimSpace(q.Q) != "" {
		hits := search(matched, q.Q, 0)
		matched = make([]models.PlateRecord, 0, len(hits))
		for _, h := range hits {
			matched = append(matched, h.Record)
		}
	}

	limit := q.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}

	total := len(matched)
	if offset >= total {
		return []models.PlateRecord{}, total
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return matched[offset:end], total
}
