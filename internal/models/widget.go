package models

import "time"

// Theme and position values accepted for a widget. Anything else is
// rejected at the API boundary.
const (
	ThemeLight = "light"
	ThemeDark  = "dark"

	PositionBottomRight = "bottom-right"
	PositionBottomLeft  = "bottom-left"
	PositionTopRight    = "top-right"
	PositionTopLeft     = "top-left"
)

// Widget represents an embeddable investment widget tied to a token and an
// owning scope (a project or a liquidity pool). The hash is minted once at
// creation and never changes; embed artifacts are derived from it.
type Widget struct {
	Hash    string `gorm:"primaryKey;size:64" json:"hash"`
	TokenID string `gorm:"not null;size:64" json:"tokenId"`
	ScopeID string `gorm:"index;not null;size:64" json:"scopeId"`

	Theme             string `gorm:"size:16;default:dark" json:"theme"`
	Position          string `gorm:"size:16;default:bottom-right" json:"position"`
	CustomStyles      string `gorm:"type:text" json:"customStyles,omitempty"`
	PreferredCurrency string `gorm:"size:8" json:"preferredCurrency,omitempty"`

	// EmbedURL and EmbedCode are derived from Hash whenever the record is
	// written; they are never mutated independently.
	EmbedURL  string `gorm:"type:text" json:"embedUrl"`
	EmbedCode string `gorm:"type:text" json:"embedCode"`

	IsActive bool `gorm:"default:true" json:"isActive"`

	// Counters are mutated only through the analytics fold.
	Views       int64   `gorm:"default:0" json:"views"`
	TokensSold  int64   `gorm:"default:0" json:"tokensSold"`
	Revenue     float64 `gorm:"default:0" json:"revenue"`
	Conversions float64 `gorm:"default:0" json:"conversions"`

	CreatedAt   time.Time `gorm:"autoCreateTime" json:"createdAt"`
	LastUpdated time.Time `json:"lastUpdated"`
}

// ApplyEvent folds a single analytics event into the widget's counters.
// Only view and sale events move counters; embed and wallet_connect are
// kept in the event log alone. Replaying the same event double-counts:
// the fold has no dedupe, at-most-once delivery is the transport's job.
// Ingestion does not look at IsActive; pausing a widget only stops the
// embed from rendering client-side.
func (w *Widget) ApplyEvent(e *AnalyticsEvent, now time.Time) {
	switch e.EventType {
	case EventTypeView:
		w.Views++
	case EventTypeSale:
		w.TokensSold++
		w.Revenue += e.Amount
	default:
		w.LastUpdated = now
		return
	}
	if w.Views > 0 {
		w.Conversions = float64(w.TokensSold) / float64(w.Views) * 100
	} else {
		// A sale with no prior view would divide by zero; report 0
		// instead of Inf.
		w.Conversions = 0
	}
	w.LastUpdated = now
}
