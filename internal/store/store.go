package store

import (
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"

	"github.com/rpromhub/rpromhub/internal/target"
)

// MetricName is the gauge every tracked branch is exported under.
const MetricName = "github_repo_branch_age_days"

const metricHelp = "how long has the branch not been updated"

// Format is the exposition format Render writes.
var Format = expfmt.NewFormat(expfmt.TypeTextPlain)

// Entry is the last successful observation for one target.
type Entry struct {
	Target    target.Target
	Value     float64
	UpdatedAt time.Time
}

// Store is a thread-safe set of branch-age gauges keyed by target.
// Entries are created or overwritten by Set and never removed.
//
// Store implements prometheus.Collector; Render gathers it through a private
// registry so nothing else ends up in the exposition.
type Store struct {
	mu   sync.RWMutex
	data map[target.Target]*Entry
	now  func() time.Time // injectable for deterministic tests

	desc     *prometheus.Desc
	registry *prometheus.Registry
}

// New returns an empty Store registered on its own registry.
func New() *Store {
	s := &Store{
		data: make(map[target.Target]*Entry),
		now:  time.Now,
		desc: prometheus.NewDesc(MetricName, metricHelp, []string{"owner", "repo", "branch"}, nil),
	}
	s.registry = prometheus.NewRegistry()
	s.registry.MustRegister(s)
	return s
}

// Set stores or replaces the value for t. Concurrent writers to the same
// target race; the last one wins.
func (s *Store) Set(t target.Target, value float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[t] = &Entry{
		Target:    t,
		Value:     value,
		UpdatedAt: s.now(),
	}
}

// Get returns a copy of the entry for t and whether it exists.
func (s *Store) Get(t target.Target) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.data[t]
	if !ok {
		return Entry{}, false
	}
	return *e, true
}

// Len returns the number of entries held.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

// Describe implements prometheus.Collector.
func (s *Store) Describe(ch chan<- *prometheus.Desc) {
	ch <- s.desc
}

// Collect implements prometheus.Collector. The read lock covers only the copy.
// An entry whose labels cannot be exported, such as invalid UTF-8, is logged
// and left out of the exposition.
func (s *Store) Collect(ch chan<- prometheus.Metric) {
	s.mu.RLock()
	entries := make([]Entry, 0, len(s.data))
	for _, e := range s.data {
		entries = append(entries, *e)
	}
	s.mu.RUnlock()

	for _, e := range entries {
		m, err := prometheus.NewConstMetric(s.desc, prometheus.GaugeValue, e.Value,
			e.Target.Owner, e.Target.Repo, e.Target.Branch)
		if err != nil {
			slog.Warn("store: skipping entry", "target", e.Target.String(), "err", err)
			continue
		}
		ch <- m
	}
}

// Gather returns the current entries as metric families. An empty store
// yields no families.
func (s *Store) Gather() ([]*dto.MetricFamily, error) {
	return s.registry.Gather()
}

// Render writes every entry to w in the text exposition format.
func (s *Store) Render(w io.Writer) error {
	mfs, err := s.Gather()
	if err != nil {
		return fmt.Errorf("store: gather: %w", err)
	}
	enc := expfmt.NewEncoder(w, Format)
	for _, mf := range mfs {
		if err := enc.Encode(mf); err != nil {
			return fmt.Errorf("store: encode %s: %w", mf.GetName(), err)
		}
	}
	if closer, ok := enc.(expfmt.Closer); ok {
		if err := closer.Close(); err != nil {
			return fmt.Errorf("store: close encoder: %w", err)
		}
	}
	return nil
}
