package repository

import (
	"sort"
	"sync"
	"time"

	customerrors "github.com/dobprotocol/doblink/internal/errors"
	"github.com/dobprotocol/doblink/internal/models"
)

// MemoryStore is the in-memory implementation of WidgetRepository and
// EventRepository: a widget map and an append-only event slice behind one
// mutex, mirroring the storage the first backend iteration ran on. It
// doubles as the test double for the services.
//
// The store mutex is held across counter folds, which serializes
// concurrent events on the same widget.
type MemoryStore struct {
	mu      sync.RWMutex
	widgets map[string]*models.Widget
	events  []models.AnalyticsEvent
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{widgets: make(map[string]*models.Widget)}
}

// --- WidgetRepository ---

func (s *MemoryStore) Create(widget *models.Widget) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *widget
	s.widgets[widget.Hash] = &cp
	return nil
}

func (s *MemoryStore) GetByHash(hash string) (*models.Widget, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	w, ok := s.widgets[hash]
	if !ok {
		return nil, customerrors.ErrWidgetNotFound
	}
	cp := *w
	return &cp, nil
}

func (s *MemoryStore) List(scopeID string) ([]models.Widget, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	widgets := make([]models.Widget, 0, len(s.widgets))
	for _, w := range s.widgets {
		if scopeID != "" && w.ScopeID != scopeID {
			continue
		}
		widgets = append(widgets, *w)
	}
	sort.Slice(widgets, func(i, j int) bool {
		return widgets[i].CreatedAt.After(widgets[j].CreatedAt)
	})
	return widgets, nil
}

func (s *MemoryStore) Update(widget *models.Widget) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.widgets[widget.Hash]
	if !ok {
		return customerrors.ErrWidgetNotFound
	}
	cp := *widget
	cp.CreatedAt = existing.CreatedAt
	s.widgets[widget.Hash] = &cp
	return nil
}

func (s *MemoryStore) Delete(hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.widgets[hash]; !ok {
		return customerrors.ErrWidgetNotFound
	}
	delete(s.widgets, hash)
	// Cascade: drop the deleted widget's events from the log.
	kept := s.events[:0]
	for _, e := range s.events {
		if e.WidgetHash != hash {
			kept = append(kept, e)
		}
	}
	s.events = kept
	return nil
}

func (s *MemoryStore) ApplyEventCounters(hash, eventType string, amount float64, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.widgets[hash]
	if !ok {
		return customerrors.ErrWidgetNotFound
	}
	w.ApplyEvent(&models.AnalyticsEvent{EventType: eventType, Amount: amount}, now)
	return nil
}

// --- EventRepository ---

func (s *MemoryStore) Append(event *models.AnalyticsEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, *event)
	return nil
}

func (s *MemoryStore) Query(filter EventFilter) ([]models.AnalyticsEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.AnalyticsEvent
	for _, e := range s.events {
		if filter.WidgetHash != "" && e.WidgetHash != filter.WidgetHash {
			continue
		}
		if filter.EventType != "" && e.EventType != filter.EventType {
			continue
		}
		if filter.From != nil && e.Timestamp.Before(*filter.From) {
			continue
		}
		if filter.To != nil && e.Timestamp.After(*filter.To) {
			continue
		}
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out, nil
}

func (s *MemoryStore) CountByWidget(hash string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var count int64
	for _, e := range s.events {
		if e.WidgetHash == hash {
			count++
		}
	}
	return count, nil
}

func (s *MemoryStore) DistinctDomains(since time.Time) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[string]struct{})
	var domains []string
	for _, e := range s.events {
		if e.Domain == "" || e.Timestamp.Before(since) {
			continue
		}
		if _, ok := seen[e.Domain]; ok {
			continue
		}
		seen[e.Domain] = struct{}{}
		domains = append(domains, e.Domain)
	}
	return domains, nil
}

// MemoryPoolRepository is the in-memory implementation of PoolRepository.
// Pools live apart from the widget/event store because widgets reference
// their scope only by id: there is no cross-cascade to coordinate.
type MemoryPoolRepository struct {
	mu      sync.RWMutex
	pools   map[string]*models.LiquidityPool
	metrics []models.TokenMetric
}

// NewMemoryPoolRepository returns an empty in-memory pool repository.
func NewMemoryPoolRepository() *MemoryPoolRepository {
	return &MemoryPoolRepository{pools: make(map[string]*models.LiquidityPool)}
}

func (s *MemoryPoolRepository) Create(pool *models.LiquidityPool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *pool
	s.pools[pool.ID] = &cp
	return nil
}

func (s *MemoryPoolRepository) GetByID(id string) (*models.LiquidityPool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.pools[id]
	if !ok {
		return nil, customerrors.ErrPoolNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *MemoryPoolRepository) List() ([]models.LiquidityPool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pools := make([]models.LiquidityPool, 0, len(s.pools))
	for _, p := range s.pools {
		pools = append(pools, *p)
	}
	sort.Slice(pools, func(i, j int) bool {
		return pools[i].CreatedAt.After(pools[j].CreatedAt)
	})
	return pools, nil
}

func (s *MemoryPoolRepository) Update(pool *models.LiquidityPool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.pools[pool.ID]
	if !ok {
		return customerrors.ErrPoolNotFound
	}
	cp := *pool
	cp.CreatedAt = existing.CreatedAt
	s.pools[pool.ID] = &cp
	return nil
}

func (s *MemoryPoolRepository) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.pools[id]; !ok {
		return customerrors.ErrPoolNotFound
	}
	delete(s.pools, id)
	kept := s.metrics[:0]
	for _, m := range s.metrics {
		if m.LPID != id {
			kept = append(kept, m)
		}
	}
	s.metrics = kept
	return nil
}

func (s *MemoryPoolRepository) AppendMetric(metric *models.TokenMetric) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metrics = append(s.metrics, *metric)
	return nil
}

func (s *MemoryPoolRepository) LatestMetric(lpID string) (*models.TokenMetric, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var latest *models.TokenMetric
	for i := range s.metrics {
		m := &s.metrics[i]
		if m.LPID != lpID {
			continue
		}
		if latest == nil || m.Timestamp.After(latest.Timestamp) {
			latest = m
		}
	}
	if latest == nil {
		return nil, customerrors.ErrPoolNotFound
	}
	cp := *latest
	return &cp, nil
}
