package metrics

import (
	"fmt"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"platehub/internal/collection"
)

// CollectionMetrics implements collection.Recorder and counts the sync
// events and image cache trims around it.
type CollectionMetrics struct {
	gamesCreated    prometheus.Counter
	gamesDeleted    prometheus.Counter
	collects        *prometheus.CounterVec
	removes         *prometheus.CounterVec
	persistFailures *prometheus.CounterVec
	events          *prometheus.CounterVec
	imageEvictions  prometheus.Counter
	catalogPlates   prometheus.Gauge
}

var _ collection.Recorder = (*CollectionMetrics)(nil)

func NewCollectionMetrics(registry *prometheus.Registry) (*CollectionMetrics, error) {
	m := &CollectionMetrics{}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register collection metrics: %w", err)
	}
	return m, nil
}

func (m *CollectionMetrics) initMetrics() {
	m.gamesCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "platehub_games_created_total",
		Help: "Total number of games created.",
	})
	m.gamesDeleted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "platehub_games_deleted_total",
		Help: "Total number of games deleted.",
	})
	m.collects = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "platehub_collect_total",
		Help: "Collect calls by outcome and whether a plate was replaced.",
	}, []string{"outcome", "replaced"})
	m.removes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "platehub_remove_total",
		Help: "Remove calls by outcome.",
	}, []string{"outcome"})
	m.persistFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "platehub_snapshot_write_failures_total",
		Help: "Snapshot writes that failed, by document.",
	}, []string{"document"})
	m.events = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "platehub_sync_events_total",
		Help: "Events broadcast to sync subscribers, by type.",
	}, []string{"type"})
	m.imageEvictions = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "platehub_image_cache_evictions_total",
		Help: "Images evicted from the cache under memory pressure.",
	})
	m.catalogPlates = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "platehub_catalog_plates",
		Help: "Number of plates in the loaded catalog.",
	})
}

func (m *CollectionMetrics) GameCreated() { m.gamesCreated.Inc() }
func (m *CollectionMetrics) GameDeleted() { m.gamesDeleted.Inc() }

func (m *CollectionMetrics) Collected(outcome collection.CollectOutcome, replaced bool) {
	m.collects.WithLabelValues(string(outcome), strconv.FormatBool(replaced)).Inc()
}

func (m *CollectionMetrics) Removed(outcome collection.RemoveOutcome) {
	m.removes.WithLabelValues(string(outcome)).Inc()
}

func (m *CollectionMetrics) PersistFailed(document string) {
	m.persistFailures.WithLabelValues(document).Inc()
}

func (m *CollectionMetrics) EventBroadcast(eventType string) {
	m.events.WithLabelValues(eventType).Inc()
}

func (m *CollectionMetrics) ImagesEvicted(n int) {
	m.imageEvictions.Add(float64(n))
}

func (m *CollectionMetrics) SetCatalogPlates(n int) {
	m.catalogPlates.Set(float64(n))
}

// Collect implements the prometheus.Collector interface.
func (m *CollectionMetrics) Collect(ch chan<- prometheus.Metric) {
	m.gamesCreated.Collect(ch)
	m.gamesDeleted.Collect(ch)
	m.collects.Collect(ch)
	m.removes.Collect(ch)
	m.persistFailures.Collect(ch)
	m.events.Collect(ch)
	m.imageEvictions.Collect(ch)
	m.catalogPlates.Collect(ch)
}

// Describe implements the prometheus.Collector interface.
func (m *CollectionMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.gamesCreated.Describe(ch)
	m.gamesDeleted.Describe(ch)
	m.collects.Describe(ch)
	m.removes.Describe(ch)
	m.persistFailures.Describe(ch)
	m.events.Describe(ch)
	m.imageEvictions.Describe(ch)
	m.catalogPlates.Describe(ch)
}
