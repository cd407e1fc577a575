package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	customerrors "github.com/dobprotocol/doblink/internal/errors"
	"github.com/dobprotocol/doblink/internal/models"
	"github.com/dobprotocol/doblink/internal/repository"
)

// ScopeRollup is the aggregate of widget counters over one scope, or over
// every widget when ScopeID is empty. It is derived on every call and
// never stored. ActiveLinks counts the widgets in scope with IsActive set.
type ScopeRollup struct {
	ScopeID     string  `json:"scopeId,omitempty"`
	Widgets     int     `json:"widgets"`
	ActiveLinks int64   `json:"activeLinks"`
	Views       int64   `json:"views"`
	TokensSold  int64   `json:"tokensSold"`
	Revenue     float64 `json:"revenue"`
}

// AnalyticsService folds analytics events into widget counters and answers
// event queries and rollups.
type AnalyticsService struct {
	widgetRepo repository.WidgetRepository
	eventRepo  repository.EventRepository
}

// NewAnalyticsService creates and returns a new instance of AnalyticsService.
func NewAnalyticsService(widgetRepo repository.WidgetRepository, eventRepo repository.EventRepository) *AnalyticsService {
	return &AnalyticsService{widgetRepo: widgetRepo, eventRepo: eventRepo}
}

// Record appends an analytics event to the log and, when the referenced
// widget exists, folds it into the widget's counters. The event log is the
// source of truth: an event for an unknown hash is still stored, and the
// returned error is ErrWidgetNotFound alongside the stored event so the
// caller can surface the orphan. Replaying an identical event double
// counts; deduplication is the transport's responsibility.
//
// Ingestion is deliberately independent of the widget's IsActive flag:
// pausing a widget only stops the embed from rendering.
func (s *AnalyticsService) Record(msg models.EventMessage) (*models.AnalyticsEvent, error) {
	if !validEventType(msg.EventType) {
		return nil, customerrors.ErrInvalidEventType
	}
	ts := msg.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	event := &models.AnalyticsEvent{
		ID:         uuid.New().String(),
		WidgetHash: msg.WidgetHash,
		EventType:  msg.EventType,
		Domain:     msg.Domain,
		UserAgent:  msg.UserAgent,
		Amount:     msg.Amount,
		Currency:   msg.Currency,
		Timestamp:  ts,
	}
	if err := s.eventRepo.Append(event); err != nil {
		return nil, customerrors.ErrEventRecordingFailed{WidgetHash: msg.WidgetHash, Reason: err.Error()}
	}

	err := s.widgetRepo.ApplyEventCounters(msg.WidgetHash, msg.EventType, msg.Amount, time.Now())
	if err != nil {
		if errors.Is(err, customerrors.ErrWidgetNotFound) {
			// Event kept, counters skipped.
			return event, customerrors.ErrWidgetNotFound
		}
		return event, fmt.Errorf("failed to update widget counters: %w", err)
	}
	return event, nil
}

// Query returns the events for a widget matching the supplied optional
// predicates (conjunction, inclusive date bounds), in ascending timestamp
// order.
func (s *AnalyticsService) Query(widgetHash, eventType string, from, to *time.Time) ([]models.AnalyticsEvent, error) {
	if eventType != "" && !validEventType(eventType) {
		return nil, customerrors.ErrInvalidEventType
	}
	return s.eventRepo.Query(repository.EventFilter{
		WidgetHash: widgetHash,
		EventType:  eventType,
		From:       from,
		To:         to,
	})
}

// WidgetStats returns a widget together with its total event count.
func (s *AnalyticsService) WidgetStats(hash string) (*models.Widget, int64, error) {
	widget, err := s.widgetRepo.GetByHash(hash)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.eventRepo.CountByWidget(hash)
	if err != nil {
		return nil, 0, err
	}
	return widget, total, nil
}

// Rollup sums widget counters over a scope, or globally when scopeID is
// empty. It is a pure function of current widget state, recomputed on
// every call.
func (s *AnalyticsService) Rollup(scopeID string) (ScopeRollup, error) {
	widgets, err := s.widgetRepo.List(scopeID)
	if err != nil {
		return ScopeRollup{}, err
	}
	rollup := ScopeRollup{ScopeID: scopeID, Widgets: len(widgets)}
	for _, w := range widgets {
		if w.IsActive {
			rollup.ActiveLinks++
		}
		rollup.Views += w.Views
		rollup.TokensSold += w.TokensSold
		rollup.Revenue += w.Revenue
	}
	return rollup, nil
}

func validEventType(t string) bool {
	switch t {
	case models.EventTypeView, models.EventTypeEmbed, models.EventTypeSale, models.EventTypeWalletConnect:
		return true
	}
	return false
}
