package repository

import (
	"errors"
	"fmt"
	"time"

	customerrors "github.com/dobprotocol/doblink/internal/errors"
	"github.com/dobprotocol/doblink/internal/models"
	"gorm.io/gorm"
)

// WidgetRepository est une interface qui définit les méthodes d'accès aux données
type WidgetRepository interface {
	Create(widget *models.Widget) error
	GetByHash(hash string) (*models.Widget, error)
	List(scopeID string) ([]models.Widget, error)
	Update(widget *models.Widget) error
	Delete(hash string) error
	ApplyEventCounters(hash, eventType string, amount float64, now time.Time) error
}

// GormWidgetRepository est l'implémentation de WidgetRepository utilisant GORM.
type GormWidgetRepository struct {
	db *gorm.DB
}

// NewWidgetRepository crée et retourne une nouvelle instance de GormWidgetRepository.
func NewWidgetRepository(db *gorm.DB) *GormWidgetRepository {
	return &GormWidgetRepository{db: db}
}

// Create insère un nouveau widget dans la base de données.
func (r *GormWidgetRepository) Create(widget *models.Widget) error {
	if err := r.db.Create(widget).Error; err != nil {
		return fmt.Errorf("failed to create widget: %w", err)
	}
	return nil
}

// GetByHash récupère un widget de la base de données en utilisant son hash.
func (r *GormWidgetRepository) GetByHash(hash string) (*models.Widget, error) {
	var widget models.Widget
	if err := r.db.Where("hash = ?", hash).First(&widget).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, customerrors.ErrWidgetNotFound
		}
		return nil, fmt.Errorf("failed to get widget %s: %w", hash, err)
	}
	return &widget, nil
}

// List récupère tous les widgets, optionnellement filtrés par scope,
// ordonnés par date de création décroissante.
func (r *GormWidgetRepository) List(scopeID string) ([]models.Widget, error) {
	var widgets []models.Widget
	q := r.db.Order("created_at DESC")
	if scopeID != "" {
		q = q.Where("scope_id = ?", scopeID)
	}
	if err := q.Find(&widgets).Error; err != nil {
		return nil, fmt.Errorf("failed to list widgets: %w", err)
	}
	return widgets, nil
}

// Update écrit la configuration complète d'un widget existant.
func (r *GormWidgetRepository) Update(widget *models.Widget) error {
	res := r.db.Model(&models.Widget{}).Where("hash = ?", widget.Hash).
		Select("*").Omit("hash", "created_at").Updates(widget)
	if res.Error != nil {
		return fmt.Errorf("failed to update widget %s: %w", widget.Hash, res.Error)
	}
	if res.RowsAffected == 0 {
		return customerrors.ErrWidgetNotFound
	}
	return nil
}

// Delete supprime un widget et, en cascade, ses événements analytics.
func (r *GormWidgetRepository) Delete(hash string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Where("hash = ?", hash).Delete(&models.Widget{})
		if res.Error != nil {
			return fmt.Errorf("failed to delete widget %s: %w", hash, res.Error)
		}
		if res.RowsAffected == 0 {
			return customerrors.ErrWidgetNotFound
		}
		if err := tx.Where("widget_hash = ?", hash).Delete(&models.AnalyticsEvent{}).Error; err != nil {
			return fmt.Errorf("failed to delete analytics for widget %s: %w", hash, err)
		}
		return nil
	})
}

// ApplyEventCounters replie un événement dans les compteurs du widget en un
// seul UPDATE atomique: les incréments et le recalcul des conversions se
// font côté SQL, ce qui sérialise les événements concurrents sur la même
// ligne sans verrou applicatif.
func (r *GormWidgetRepository) ApplyEventCounters(hash, eventType string, amount float64, now time.Time) error {
	var cols map[string]interface{}
	switch eventType {
	case models.EventTypeView:
		cols = map[string]interface{}{
			"views":        gorm.Expr("views + 1"),
			"conversions":  gorm.Expr("tokens_sold * 100.0 / (views + 1)"),
			"last_updated": now,
		}
	case models.EventTypeSale:
		cols = map[string]interface{}{
			"tokens_sold":  gorm.Expr("tokens_sold + 1"),
			"revenue":      gorm.Expr("revenue + ?", amount),
			"conversions":  gorm.Expr("CASE WHEN views > 0 THEN (tokens_sold + 1) * 100.0 / views ELSE 0 END"),
			"last_updated": now,
		}
	default:
		// embed and wallet_connect live only in the event log.
		cols = map[string]interface{}{"last_updated": now}
	}

	res := r.db.Model(&models.Widget{}).Where("hash = ?", hash).UpdateColumns(cols)
	if res.Error != nil {
		return fmt.Errorf("failed to apply %s event to widget %s: %w", eventType, hash, res.Error)
	}
	if res.RowsAffected == 0 {
		return customerrors.ErrWidgetNotFound
	}
	return nil
}
