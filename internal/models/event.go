package models

import "time"

// Event types tracked by the analytics pipeline.
const (
	EventTypeView          = "view"
	EventTypeEmbed         = "embed"
	EventTypeSale          = "sale"
	EventTypeWalletConnect = "wallet_connect"
)

// AnalyticsEvent is an immutable record of a widget interaction, stored in
// the widget_analytics table. The widget reference is weak: an event is
// accepted and kept even when no widget with that hash exists, so the log
// stays the source of truth for orphaned hashes. Rows referencing a widget
// are removed when that widget is deleted.
type AnalyticsEvent struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id"`
	WidgetHash string    `gorm:"index;not null;size:64" json:"widgetHash"`
	EventType  string    `gorm:"size:16;not null" json:"eventType"`
	Domain     string    `gorm:"size:255" json:"domain"`
	UserAgent  string    `gorm:"size:255" json:"userAgent,omitempty"`
	Amount     float64   `json:"amount,omitempty"`
	Currency   string    `gorm:"size:8" json:"currency,omitempty"`
	Timestamp  time.Time `gorm:"index" json:"timestamp"`
}

// TableName overrides GORM's default pluralized name.
func (AnalyticsEvent) TableName() string {
	return "widget_analytics"
}

// EventMessage is the lightweight form of an analytics event passed through
// the worker channel. It carries only what the workers need to build and
// persist an AnalyticsEvent.
type EventMessage struct {
	WidgetHash string
	EventType  string
	Domain     string
	UserAgent  string
	Amount     float64
	Currency   string
	Timestamp  time.Time
}
