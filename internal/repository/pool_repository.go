package repository

import (
	"errors"
	"fmt"

	customerrors "github.com/dobprotocol/doblink/internal/errors"
	"github.com/dobprotocol/doblink/internal/models"
	"gorm.io/gorm"
)

// PoolRepository est une interface qui définit les méthodes d'accès aux
// liquidity pools et à leurs métriques de token.
type PoolRepository interface {
	Create(pool *models.LiquidityPool) error
	GetByID(id string) (*models.LiquidityPool, error)
	List() ([]models.LiquidityPool, error)
	Update(pool *models.LiquidityPool) error
	Delete(id string) error
	AppendMetric(metric *models.TokenMetric) error
	LatestMetric(lpID string) (*models.TokenMetric, error)
}

// GormPoolRepository est l'implémentation de PoolRepository utilisant GORM.
type GormPoolRepository struct {
	db *gorm.DB
}

// NewPoolRepository crée et retourne une nouvelle instance de GormPoolRepository.
func NewPoolRepository(db *gorm.DB) *GormPoolRepository {
	return &GormPoolRepository{db: db}
}

// Create insère un nouveau pool dans la base de données.
func (r *GormPoolRepository) Create(pool *models.LiquidityPool) error {
	if err := r.db.Create(pool).Error; err != nil {
		return fmt.Errorf("failed to create pool: %w", err)
	}
	return nil
}

// GetByID récupère un pool par son identifiant.
func (r *GormPoolRepository) GetByID(id string) (*models.LiquidityPool, error) {
	var pool models.LiquidityPool
	if err := r.db.Where("id = ?", id).First(&pool).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, customerrors.ErrPoolNotFound
		}
		return nil, fmt.Errorf("failed to get pool %s: %w", id, err)
	}
	return &pool, nil
}

// List récupère tous les pools, les plus récents d'abord.
func (r *GormPoolRepository) List() ([]models.LiquidityPool, error) {
	var pools []models.LiquidityPool
	if err := r.db.Order("created_at DESC").Find(&pools).Error; err != nil {
		return nil, fmt.Errorf("failed to list pools: %w", err)
	}
	return pools, nil
}

// Update écrit la configuration complète d'un pool existant.
func (r *GormPoolRepository) Update(pool *models.LiquidityPool) error {
	res := r.db.Model(&models.LiquidityPool{}).Where("id = ?", pool.ID).
		Select("*").Omit("id", "created_at").Updates(pool)
	if res.Error != nil {
		return fmt.Errorf("failed to update pool %s: %w", pool.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return customerrors.ErrPoolNotFound
	}
	return nil
}

// Delete supprime un pool et, en cascade, ses métriques de token.
func (r *GormPoolRepository) Delete(id string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ?", id).Delete(&models.LiquidityPool{})
		if res.Error != nil {
			return fmt.Errorf("failed to delete pool %s: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			return customerrors.ErrPoolNotFound
		}
		if err := tx.Where("lp_id = ?", id).Delete(&models.TokenMetric{}).Error; err != nil {
			return fmt.Errorf("failed to delete metrics for pool %s: %w", id, err)
		}
		return nil
	})
}

// AppendMetric insère un snapshot de métriques pour un pool.
func (r *GormPoolRepository) AppendMetric(metric *models.TokenMetric) error {
	if err := r.db.Create(metric).Error; err != nil {
		return fmt.Errorf("failed to append token metric: %w", err)
	}
	return nil
}

// LatestMetric retourne le snapshot le plus récent pour un pool.
func (r *GormPoolRepository) LatestMetric(lpID string) (*models.TokenMetric, error) {
	var metric models.TokenMetric
	err := r.db.Where("lp_id = ?", lpID).Order("timestamp DESC").First(&metric).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, customerrors.ErrPoolNotFound
		}
		return nil, fmt.Errorf("failed to get latest metric for pool %s: %w", lpID, err)
	}
	return &metric, nil
}
