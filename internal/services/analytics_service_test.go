package services_test

import (
	"errors"
	"math"
	"testing"
	"time"

	customerrors "github.com/dobprotocol/doblink/internal/errors"
	"github.com/dobprotocol/doblink/internal/models"
	"github.com/dobprotocol/doblink/internal/repository"
	"github.com/dobprotocol/doblink/internal/services"
)

func newAnalyticsFixture(t *testing.T) (*repository.MemoryStore, *services.WidgetService, *services.AnalyticsService) {
	t.Helper()
	store := repository.NewMemoryStore()
	widgetSvc := newWidgetService(store, nil)
	analyticsSvc := services.NewAnalyticsService(store, store)
	return store, widgetSvc, analyticsSvc
}

func mustCreateWidget(t *testing.T, svc *services.WidgetService, tokenID, scopeID string) *models.Widget {
	t.Helper()
	widget, err := svc.Create(services.CreateWidgetParams{TokenID: tokenID, ScopeID: scopeID})
	if err != nil {
		t.Fatalf("failed to create widget: %v", err)
	}
	return widget
}

func mustRecord(t *testing.T, svc *services.AnalyticsService, msg models.EventMessage) {
	t.Helper()
	if _, err := svc.Record(msg); err != nil {
		t.Fatalf("failed to record %s event: %v", msg.EventType, err)
	}
}

func TestEventFold(t *testing.T) {
	_, widgetSvc, analyticsSvc := newAnalyticsFixture(t)
	widget := mustCreateWidget(t, widgetSvc, "SOL", "pool-1")

	for _, msg := range []models.EventMessage{
		{WidgetHash: widget.Hash, EventType: models.EventTypeView, Domain: "a.example.com"},
		{WidgetHash: widget.Hash, EventType: models.EventTypeView, Domain: "a.example.com"},
		{WidgetHash: widget.Hash, EventType: models.EventTypeView, Domain: "b.example.com"},
		{WidgetHash: widget.Hash, EventType: models.EventTypeSale, Domain: "a.example.com", Amount: 10},
		{WidgetHash: widget.Hash, EventType: models.EventTypeSale, Domain: "b.example.com", Amount: 5},
	} {
		mustRecord(t, analyticsSvc, msg)
	}

	updated, err := widgetSvc.Get(widget.Hash)
	if err != nil {
		t.Fatalf("failed to fetch widget: %v", err)
	}
	if updated.Views != 3 {
		t.Errorf("views = %d; want 3", updated.Views)
	}
	if updated.TokensSold != 2 {
		t.Errorf("tokensSold = %d; want 2", updated.TokensSold)
	}
	if updated.Revenue != 15 {
		t.Errorf("revenue = %f; want 15", updated.Revenue)
	}
	want := 2.0 / 3.0 * 100
	if math.Abs(updated.Conversions-want) > 1e-9 {
		t.Errorf("conversions = %f; want %f", updated.Conversions, want)
	}
}

func TestLogOnlyEventsLeaveCountersAlone(t *testing.T) {
	_, widgetSvc, analyticsSvc := newAnalyticsFixture(t)
	widget := mustCreateWidget(t, widgetSvc, "SOL", "pool-1")

	mustRecord(t, analyticsSvc, models.EventMessage{WidgetHash: widget.Hash, EventType: models.EventTypeEmbed, Domain: "a.example.com"})
	mustRecord(t, analyticsSvc, models.EventMessage{WidgetHash: widget.Hash, EventType: models.EventTypeWalletConnect, Domain: "a.example.com"})

	updated, err := widgetSvc.Get(widget.Hash)
	if err != nil {
		t.Fatalf("failed to fetch widget: %v", err)
	}
	if updated.Views != 0 || updated.TokensSold != 0 || updated.Revenue != 0 {
		t.Errorf("log-only events moved counters: views=%d sold=%d revenue=%f",
			updated.Views, updated.TokensSold, updated.Revenue)
	}
	if !updated.LastUpdated.After(widget.LastUpdated) && !updated.LastUpdated.Equal(widget.LastUpdated) {
		t.Error("lastUpdated did not advance on log-only event")
	}

	events, err := analyticsSvc.Query(widget.Hash, "", nil, nil)
	if err != nil {
		t.Fatalf("failed to query events: %v", err)
	}
	if len(events) != 2 {
		t.Errorf("event log has %d entries; want 2", len(events))
	}
}

func TestSaleWithNoViewsReportsZeroConversions(t *testing.T) {
	_, widgetSvc, analyticsSvc := newAnalyticsFixture(t)
	widget := mustCreateWidget(t, widgetSvc, "SOL", "pool-1")

	mustRecord(t, analyticsSvc, models.EventMessage{WidgetHash: widget.Hash, EventType: models.EventTypeSale, Domain: "a.example.com", Amount: 50})

	updated, err := widgetSvc.Get(widget.Hash)
	if err != nil {
		t.Fatalf("failed to fetch widget: %v", err)
	}
	if updated.Conversions != 0 {
		t.Errorf("conversions = %f; want 0 when there are no views", updated.Conversions)
	}
	if updated.TokensSold != 1 || updated.Revenue != 50 {
		t.Errorf("sale counters wrong: sold=%d revenue=%f", updated.TokensSold, updated.Revenue)
	}
}

func TestReplayedEventDoubleCounts(t *testing.T) {
	_, widgetSvc, analyticsSvc := newAnalyticsFixture(t)
	widget := mustCreateWidget(t, widgetSvc, "SOL", "pool-1")

	ts := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	msg := models.EventMessage{WidgetHash: widget.Hash, EventType: models.EventTypeView, Domain: "a.example.com", Timestamp: ts}
	mustRecord(t, analyticsSvc, msg)
	mustRecord(t, analyticsSvc, msg)

	updated, err := widgetSvc.Get(widget.Hash)
	if err != nil {
		t.Fatalf("failed to fetch widget: %v", err)
	}
	if updated.Views != 2 {
		t.Errorf("views = %d; want 2 (no dedupe in the fold)", updated.Views)
	}
}

func TestOrphanEventIsStored(t *testing.T) {
	_, _, analyticsSvc := newAnalyticsFixture(t)

	event, err := analyticsSvc.Record(models.EventMessage{
		WidgetHash: "dob-nosuch-aaaaaa",
		EventType:  models.EventTypeView,
		Domain:     "a.example.com",
	})
	if !errors.Is(err, customerrors.ErrWidgetNotFound) {
		t.Fatalf("expected ErrWidgetNotFound for orphan event, got %v", err)
	}
	if event == nil {
		t.Fatal("orphan event was not returned")
	}

	events, queryErr := analyticsSvc.Query("dob-nosuch-aaaaaa", "", nil, nil)
	if queryErr != nil {
		t.Fatalf("failed to query events: %v", queryErr)
	}
	if len(events) != 1 {
		t.Fatalf("orphan event not in the log: got %d entries", len(events))
	}
	if events[0].ID != event.ID {
		t.Errorf("stored event id %q does not match returned id %q", events[0].ID, event.ID)
	}
}

func TestRecordRejectsUnknownEventType(t *testing.T) {
	_, widgetSvc, analyticsSvc := newAnalyticsFixture(t)
	widget := mustCreateWidget(t, widgetSvc, "SOL", "pool-1")

	_, err := analyticsSvc.Record(models.EventMessage{WidgetHash: widget.Hash, EventType: "purchase", Domain: "a.example.com"})
	if !errors.Is(err, customerrors.ErrInvalidEventType) {
		t.Errorf("expected ErrInvalidEventType, got %v", err)
	}
}

func TestDeleteThenRecordDoesNotResurrectCounters(t *testing.T) {
	_, widgetSvc, analyticsSvc := newAnalyticsFixture(t)
	widget := mustCreateWidget(t, widgetSvc, "SOL", "pool-1")
	mustRecord(t, analyticsSvc, models.EventMessage{WidgetHash: widget.Hash, EventType: models.EventTypeView, Domain: "a.example.com"})

	if err := widgetSvc.Delete(widget.Hash); err != nil {
		t.Fatalf("failed to delete widget: %v", err)
	}

	_, err := analyticsSvc.Record(models.EventMessage{WidgetHash: widget.Hash, EventType: models.EventTypeView, Domain: "a.example.com"})
	if !errors.Is(err, customerrors.ErrWidgetNotFound) {
		t.Fatalf("expected ErrWidgetNotFound after delete, got %v", err)
	}
	if _, getErr := widgetSvc.Get(widget.Hash); !errors.Is(getErr, customerrors.ErrWidgetNotFound) {
		t.Errorf("deleted widget came back: %v", getErr)
	}

	// The post-delete event stays in the log even though the widget and
	// its earlier events are gone.
	events, queryErr := analyticsSvc.Query(widget.Hash, "", nil, nil)
	if queryErr != nil {
		t.Fatalf("failed to query events: %v", queryErr)
	}
	if len(events) != 1 {
		t.Errorf("event log has %d entries after delete+record; want 1", len(events))
	}
}

func TestWidgetStats(t *testing.T) {
	_, widgetSvc, analyticsSvc := newAnalyticsFixture(t)
	widget := mustCreateWidget(t, widgetSvc, "SOL", "pool-1")

	mustRecord(t, analyticsSvc, models.EventMessage{WidgetHash: widget.Hash, EventType: models.EventTypeView, Domain: "a.example.com"})
	mustRecord(t, analyticsSvc, models.EventMessage{WidgetHash: widget.Hash, EventType: models.EventTypeEmbed, Domain: "a.example.com"})

	stats, total, err := analyticsSvc.WidgetStats(widget.Hash)
	if err != nil {
		t.Fatalf("failed to get stats: %v", err)
	}
	if total != 2 {
		t.Errorf("totalEvents = %d; want 2", total)
	}
	if stats.Views != 1 {
		t.Errorf("views = %d; want 1", stats.Views)
	}
}

func TestRollupScopeIsolation(t *testing.T) {
	_, widgetSvc, analyticsSvc := newAnalyticsFixture(t)
	w1 := mustCreateWidget(t, widgetSvc, "SOL", "pool-1")
	w2 := mustCreateWidget(t, widgetSvc, "SOL", "pool-1")
	w3 := mustCreateWidget(t, widgetSvc, "WND", "pool-2")

	mustRecord(t, analyticsSvc, models.EventMessage{WidgetHash: w1.Hash, EventType: models.EventTypeView, Domain: "a.example.com"})
	mustRecord(t, analyticsSvc, models.EventMessage{WidgetHash: w2.Hash, EventType: models.EventTypeSale, Domain: "a.example.com", Amount: 10})
	mustRecord(t, analyticsSvc, models.EventMessage{WidgetHash: w3.Hash, EventType: models.EventTypeView, Domain: "b.example.com"})

	// Pause one widget so activeLinks diverges from the widget count.
	inactive := false
	if _, err := widgetSvc.Update(w2.Hash, services.UpdateWidgetParams{IsActive: &inactive}); err != nil {
		t.Fatalf("failed to pause widget: %v", err)
	}

	scope1, err := analyticsSvc.Rollup("pool-1")
	if err != nil {
		t.Fatalf("failed to compute scope rollup: %v", err)
	}
	if scope1.Widgets != 2 || scope1.ActiveLinks != 1 {
		t.Errorf("scope rollup widgets=%d activeLinks=%d; want 2 and 1", scope1.Widgets, scope1.ActiveLinks)
	}
	if scope1.Views != 1 || scope1.TokensSold != 1 || scope1.Revenue != 10 {
		t.Errorf("scope rollup views=%d sold=%d revenue=%f; want 1, 1, 10", scope1.Views, scope1.TokensSold, scope1.Revenue)
	}

	scope2, err := analyticsSvc.Rollup("pool-2")
	if err != nil {
		t.Fatalf("failed to compute scope rollup: %v", err)
	}
	if scope2.Views != 1 || scope2.TokensSold != 0 {
		t.Errorf("scope-2 rollup leaked counters: views=%d sold=%d", scope2.Views, scope2.TokensSold)
	}

	global, err := analyticsSvc.Rollup("")
	if err != nil {
		t.Fatalf("failed to compute global rollup: %v", err)
	}
	if global.Views != scope1.Views+scope2.Views {
		t.Errorf("global views = %d; want %d", global.Views, scope1.Views+scope2.Views)
	}
	if global.Widgets != 3 {
		t.Errorf("global widgets = %d; want 3", global.Widgets)
	}
}

func TestQueryFilters(t *testing.T) {
	_, widgetSvc, analyticsSvc := newAnalyticsFixture(t)
	widget := mustCreateWidget(t, widgetSvc, "SOL", "pool-1")

	day1 := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	day2 := time.Date(2025, 3, 2, 10, 0, 0, 0, time.UTC)
	day3 := time.Date(2025, 3, 3, 10, 0, 0, 0, time.UTC)

	// Inserted out of order on purpose.
	mustRecord(t, analyticsSvc, models.EventMessage{WidgetHash: widget.Hash, EventType: models.EventTypeView, Domain: "a.example.com", Timestamp: day3})
	mustRecord(t, analyticsSvc, models.EventMessage{WidgetHash: widget.Hash, EventType: models.EventTypeSale, Domain: "a.example.com", Amount: 5, Timestamp: day1})
	mustRecord(t, analyticsSvc, models.EventMessage{WidgetHash: widget.Hash, EventType: models.EventTypeView, Domain: "a.example.com", Timestamp: day2})

	all, err := analyticsSvc.Query(widget.Hash, "", nil, nil)
	if err != nil {
		t.Fatalf("failed to query events: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("got %d events; want 3", len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i].Timestamp.Before(all[i-1].Timestamp) {
			t.Fatalf("events not in ascending timestamp order at index %d", i)
		}
	}

	views, err := analyticsSvc.Query(widget.Hash, models.EventTypeView, nil, nil)
	if err != nil {
		t.Fatalf("failed to query views: %v", err)
	}
	if len(views) != 2 {
		t.Errorf("got %d view events; want 2", len(views))
	}

	// Bounds are inclusive on both ends.
	bounded, err := analyticsSvc.Query(widget.Hash, "", &day1, &day2)
	if err != nil {
		t.Fatalf("failed to query bounded events: %v", err)
	}
	if len(bounded) != 2 {
		t.Errorf("got %d events in [day1, day2]; want 2", len(bounded))
	}

	_, err = analyticsSvc.Query(widget.Hash, "purchase", nil, nil)
	if !errors.Is(err, customerrors.ErrInvalidEventType) {
		t.Errorf("expected ErrInvalidEventType, got %v", err)
	}
}
