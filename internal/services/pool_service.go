package services

import (
	"time"

	"github.com/google/uuid"

	"github.com/dobprotocol/doblink/internal/models"
	"github.com/dobprotocol/doblink/internal/repository"
)

// PoolService manages liquidity pools and their token metric snapshots.
// Pools are the owning scopes widgets are created against; the link is a
// weak reference by id, so pool lifecycle never touches widgets.
type PoolService struct {
	poolRepo repository.PoolRepository
}

// NewPoolService creates and returns a new instance of PoolService.
func NewPoolService(poolRepo repository.PoolRepository) *PoolService {
	return &PoolService{poolRepo: poolRepo}
}

// Create assigns the pool an id and persists it.
func (s *PoolService) Create(pool *models.LiquidityPool) (*models.LiquidityPool, error) {
	pool.ID = uuid.New().String()
	if pool.Status == "" {
		pool.Status = models.PoolStatusActive
	}
	now := time.Now()
	pool.CreatedAt = now
	pool.UpdatedAt = now
	if err := s.poolRepo.Create(pool); err != nil {
		return nil, err
	}
	return pool, nil
}

// Get retrieves a pool by id.
func (s *PoolService) Get(id string) (*models.LiquidityPool, error) {
	return s.poolRepo.GetByID(id)
}

// List retrieves all pools.
func (s *PoolService) List() ([]models.LiquidityPool, error) {
	return s.poolRepo.List()
}

// Update writes new configuration to an existing pool.
func (s *PoolService) Update(pool *models.LiquidityPool) (*models.LiquidityPool, error) {
	pool.UpdatedAt = time.Now()
	if err := s.poolRepo.Update(pool); err != nil {
		return nil, err
	}
	return pool, nil
}

// Delete removes a pool; its token metrics are removed with it.
func (s *PoolService) Delete(id string) error {
	return s.poolRepo.Delete(id)
}

// RecordMetric appends a token metric snapshot for a pool. The pool must
// exist; metrics for unknown pools are rejected rather than orphaned.
func (s *PoolService) RecordMetric(metric *models.TokenMetric) (*models.TokenMetric, error) {
	if _, err := s.poolRepo.GetByID(metric.LPID); err != nil {
		return nil, err
	}
	metric.ID = uuid.New().String()
	if metric.Timestamp.IsZero() {
		metric.Timestamp = time.Now()
	}
	if err := s.poolRepo.AppendMetric(metric); err != nil {
		return nil, err
	}
	return metric, nil
}

// LatestMetric returns the most recent snapshot for a pool.
func (s *PoolService) LatestMetric(lpID string) (*models.TokenMetric, error) {
	return s.poolRepo.LatestMetric(lpID)
}
