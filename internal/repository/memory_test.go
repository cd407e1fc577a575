package repository

import (
	"errors"
	"testing"
	"time"

	customerrors "github.com/dobprotocol/doblink/internal/errors"
	"github.com/dobprotocol/doblink/internal/models"
)

func TestMemoryStoreDeleteCascadesEvents(t *testing.T) {
	store := NewMemoryStore()

	if err := store.Create(&models.Widget{Hash: "dob-1-aaaaaa", TokenID: "SOL", ScopeID: "pool-1"}); err != nil {
		t.Fatalf("failed to create widget: %v", err)
	}
	if err := store.Create(&models.Widget{Hash: "dob-2-bbbbbb", TokenID: "SOL", ScopeID: "pool-1"}); err != nil {
		t.Fatalf("failed to create widget: %v", err)
	}

	now := time.Now()
	for _, e := range []models.AnalyticsEvent{
		{ID: "e1", WidgetHash: "dob-1-aaaaaa", EventType: models.EventTypeView, Timestamp: now},
		{ID: "e2", WidgetHash: "dob-1-aaaaaa", EventType: models.EventTypeSale, Timestamp: now},
		{ID: "e3", WidgetHash: "dob-2-bbbbbb", EventType: models.EventTypeView, Timestamp: now},
	} {
		e := e
		if err := store.Append(&e); err != nil {
			t.Fatalf("failed to append event: %v", err)
		}
	}

	if err := store.Delete("dob-1-aaaaaa"); err != nil {
		t.Fatalf("failed to delete widget: %v", err)
	}

	count, err := store.CountByWidget("dob-1-aaaaaa")
	if err != nil {
		t.Fatalf("failed to count events: %v", err)
	}
	if count != 0 {
		t.Errorf("deleted widget still has %d events", count)
	}
	count, err = store.CountByWidget("dob-2-bbbbbb")
	if err != nil {
		t.Fatalf("failed to count events: %v", err)
	}
	if count != 1 {
		t.Errorf("unrelated widget lost events: have %d, want 1", count)
	}
}

func TestMemoryStoreGetReturnsCopy(t *testing.T) {
	store := NewMemoryStore()
	if err := store.Create(&models.Widget{Hash: "dob-1-aaaaaa", TokenID: "SOL", ScopeID: "pool-1"}); err != nil {
		t.Fatalf("failed to create widget: %v", err)
	}

	w, err := store.GetByHash("dob-1-aaaaaa")
	if err != nil {
		t.Fatalf("failed to get widget: %v", err)
	}
	w.Views = 999

	again, err := store.GetByHash("dob-1-aaaaaa")
	if err != nil {
		t.Fatalf("failed to get widget: %v", err)
	}
	if again.Views != 0 {
		t.Error("mutating a returned widget leaked into the store")
	}
}

func TestMemoryStoreDistinctDomains(t *testing.T) {
	store := NewMemoryStore()
	now := time.Now()

	for _, e := range []models.AnalyticsEvent{
		{ID: "e1", WidgetHash: "h", EventType: models.EventTypeView, Domain: "a.example.com", Timestamp: now},
		{ID: "e2", WidgetHash: "h", EventType: models.EventTypeView, Domain: "a.example.com", Timestamp: now},
		{ID: "e3", WidgetHash: "h", EventType: models.EventTypeView, Domain: "b.example.com", Timestamp: now},
		{ID: "e4", WidgetHash: "h", EventType: models.EventTypeView, Domain: "", Timestamp: now},
		{ID: "e5", WidgetHash: "h", EventType: models.EventTypeView, Domain: "old.example.com", Timestamp: now.Add(-48 * time.Hour)},
	} {
		e := e
		if err := store.Append(&e); err != nil {
			t.Fatalf("failed to append event: %v", err)
		}
	}

	domains, err := store.DistinctDomains(now.Add(-24 * time.Hour))
	if err != nil {
		t.Fatalf("failed to list domains: %v", err)
	}
	if len(domains) != 2 {
		t.Fatalf("got %d domains %v; want 2", len(domains), domains)
	}
	seen := map[string]bool{}
	for _, d := range domains {
		seen[d] = true
	}
	if !seen["a.example.com"] || !seen["b.example.com"] {
		t.Errorf("unexpected domain set: %v", domains)
	}
}

func TestMemoryPoolRepository(t *testing.T) {
	repo := NewMemoryPoolRepository()

	pool := &models.LiquidityPool{ID: "p1", Name: "Solar Farm Alpha", TokenSymbol: "SOLA"}
	if err := repo.Create(pool); err != nil {
		t.Fatalf("failed to create pool: %v", err)
	}

	earlier := time.Now().Add(-time.Hour)
	later := time.Now()
	if err := repo.AppendMetric(&models.TokenMetric{ID: "m1", LPID: "p1", PriceUSD: 1.0, Timestamp: earlier}); err != nil {
		t.Fatalf("failed to append metric: %v", err)
	}
	if err := repo.AppendMetric(&models.TokenMetric{ID: "m2", LPID: "p1", PriceUSD: 1.5, Timestamp: later}); err != nil {
		t.Fatalf("failed to append metric: %v", err)
	}

	latest, err := repo.LatestMetric("p1")
	if err != nil {
		t.Fatalf("failed to get latest metric: %v", err)
	}
	if latest.ID != "m2" {
		t.Errorf("latest metric = %q; want m2", latest.ID)
	}

	if err := repo.Delete("p1"); err != nil {
		t.Fatalf("failed to delete pool: %v", err)
	}
	if _, err := repo.GetByID("p1"); !errors.Is(err, customerrors.ErrPoolNotFound) {
		t.Errorf("expected ErrPoolNotFound after delete, got %v", err)
	}
	if _, err := repo.LatestMetric("p1"); !errors.Is(err, customerrors.ErrPoolNotFound) {
		t.Errorf("expected ErrPoolNotFound for metrics after delete, got %v", err)
	}
}
