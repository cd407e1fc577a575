package repository

import (
	"fmt"
	"time"

	"github.com/dobprotocol/doblink/internal/models"
	"gorm.io/gorm"
)

// EventFilter regroupe les prédicats optionnels d'une requête analytics.
// Les prédicats fournis sont combinés en conjonction; les bornes de dates
// sont inclusives.
type EventFilter struct {
	WidgetHash string
	EventType  string
	From       *time.Time
	To         *time.Time
}

// EventRepository est une interface qui définit les méthodes d'accès au
// journal d'événements (append-only).
type EventRepository interface {
	Append(event *models.AnalyticsEvent) error
	Query(filter EventFilter) ([]models.AnalyticsEvent, error)
	CountByWidget(hash string) (int64, error)
	DistinctDomains(since time.Time) ([]string, error)
}

// GormEventRepository est l'implémentation de EventRepository utilisant GORM.
type GormEventRepository struct {
	db *gorm.DB
}

// NewEventRepository crée et retourne une nouvelle instance de GormEventRepository.
func NewEventRepository(db *gorm.DB) *GormEventRepository {
	return &GormEventRepository{db: db}
}

// Append insère un nouvel événement dans le journal. Les événements ne sont
// jamais modifiés après coup.
func (r *GormEventRepository) Append(event *models.AnalyticsEvent) error {
	if err := r.db.Create(event).Error; err != nil {
		return fmt.Errorf("failed to append analytics event: %w", err)
	}
	return nil
}

// Query retourne les événements correspondant au filtre, ordonnés par
// timestamp croissant pour que les consommateurs (graphiques) soient
// déterministes.
func (r *GormEventRepository) Query(filter EventFilter) ([]models.AnalyticsEvent, error) {
	q := r.db.Model(&models.AnalyticsEvent{}).Order("timestamp ASC")
	if filter.WidgetHash != "" {
		q = q.Where("widget_hash = ?", filter.WidgetHash)
	}
	if filter.EventType != "" {
		q = q.Where("event_type = ?", filter.EventType)
	}
	if filter.From != nil {
		q = q.Where("timestamp >= ?", *filter.From)
	}
	if filter.To != nil {
		q = q.Where("timestamp <= ?", *filter.To)
	}
	var events []models.AnalyticsEvent
	if err := q.Find(&events).Error; err != nil {
		return nil, fmt.Errorf("failed to query analytics events: %w", err)
	}
	return events, nil
}

// CountByWidget compte le nombre total d'événements pour un hash donné.
func (r *GormEventRepository) CountByWidget(hash string) (int64, error) {
	var count int64
	if err := r.db.Model(&models.AnalyticsEvent{}).Where("widget_hash = ?", hash).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count events for widget %s: %w", hash, err)
	}
	return count, nil
}

// DistinctDomains retourne les domaines distincts vus dans le journal
// depuis l'instant donné. Utilisé par le moniteur de domaines d'embed.
func (r *GormEventRepository) DistinctDomains(since time.Time) ([]string, error) {
	var domains []string
	err := r.db.Model(&models.AnalyticsEvent{}).
		Where("timestamp >= ? AND domain <> ''", since).
		Distinct("domain").
		Pluck("domain", &domains).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list event domains: %w", err)
	}
	return domains, nil
}
