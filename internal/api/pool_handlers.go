package api

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	customerrors "github.com/dobprotocol/doblink/internal/errors"
	"github.com/dobprotocol/doblink/internal/models"
	"github.com/dobprotocol/doblink/internal/services"
)

// CreatePoolRequest is the JSON body for registering a liquidity pool.
type CreatePoolRequest struct {
	Name           string  `json:"name" binding:"required"`
	Description    string  `json:"description"`
	TokenSymbol    string  `json:"tokenSymbol" binding:"required"`
	TokenAddress   string  `json:"tokenAddress" binding:"required"`
	LPAddress      string  `json:"lpAddress" binding:"required"`
	Network        string  `json:"network" binding:"required"`
	WalletAddress  string  `json:"walletAddress" binding:"required"`
	Status         string  `json:"status" binding:"omitempty,oneof=active paused inactive"`
	TotalLiquidity float64 `json:"totalLiquidity" binding:"omitempty,gte=0"`
	APY            float64 `json:"apy"`
	MinInvestment  float64 `json:"minInvestment" binding:"omitempty,gte=0"`
	MaxInvestment  float64 `json:"maxInvestment" binding:"omitempty,gte=0"`
}

// RecordMetricRequest is the JSON body for appending a token metric
// snapshot to a pool.
type RecordMetricRequest struct {
	PriceUSD          float64 `json:"priceUsd" binding:"required,gt=0"`
	MarketCap         float64 `json:"marketCap" binding:"omitempty,gte=0"`
	Volume24h         float64 `json:"volume24h" binding:"omitempty,gte=0"`
	CirculatingSupply float64 `json:"circulatingSupply" binding:"omitempty,gte=0"`
	TotalSupply       float64 `json:"totalSupply" binding:"omitempty,gte=0"`
	PriceChange24h    float64 `json:"priceChange24h"`
	VolumeChange24h   float64 `json:"volumeChange24h"`
}

// CreatePoolHandler registers a new liquidity pool.
func CreatePoolHandler(poolService *services.PoolService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreatePoolRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
			return
		}
		pool, err := poolService.Create(&models.LiquidityPool{
			Name:           req.Name,
			Description:    req.Description,
			TokenSymbol:    req.TokenSymbol,
			TokenAddress:   req.TokenAddress,
			LPAddress:      req.LPAddress,
			Network:        req.Network,
			WalletAddress:  req.WalletAddress,
			Status:         req.Status,
			TotalLiquidity: req.TotalLiquidity,
			APY:            req.APY,
			MinInvestment:  req.MinInvestment,
			MaxInvestment:  req.MaxInvestment,
		})
		if err != nil {
			log.Printf("Error creating pool: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create pool"})
			return
		}
		c.JSON(http.StatusCreated, gin.H{"success": true, "pool": pool})
	}
}

// ListPoolsHandler returns all registered pools.
func ListPoolsHandler(poolService *services.PoolService) gin.HandlerFunc {
	return func(c *gin.Context) {
		pools, err := poolService.List()
		if err != nil {
			log.Printf("Error listing pools: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "pools": pools})
	}
}

// GetPoolHandler returns a single pool by id.
func GetPoolHandler(poolService *services.PoolService) gin.HandlerFunc {
	return func(c *gin.Context) {
		pool, err := poolService.Get(c.Param("id"))
		if err != nil {
			if errors.Is(err, customerrors.ErrPoolNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Pool not found"})
				return
			}
			log.Printf("Error retrieving pool %s: %v", c.Param("id"), err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "pool": pool})
	}
}

// UpdatePoolHandler writes new configuration to an existing pool.
func UpdatePoolHandler(poolService *services.PoolService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreatePoolRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
			return
		}
		pool, err := poolService.Update(&models.LiquidityPool{
			ID:             c.Param("id"),
			Name:           req.Name,
			Description:    req.Description,
			TokenSymbol:    req.TokenSymbol,
			TokenAddress:   req.TokenAddress,
			LPAddress:      req.LPAddress,
			Network:        req.Network,
			WalletAddress:  req.WalletAddress,
			Status:         req.Status,
			TotalLiquidity: req.TotalLiquidity,
			APY:            req.APY,
			MinInvestment:  req.MinInvestment,
			MaxInvestment:  req.MaxInvestment,
		})
		if err != nil {
			if errors.Is(err, customerrors.ErrPoolNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Pool not found"})
				return
			}
			log.Printf("Error updating pool %s: %v", c.Param("id"), err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "pool": pool})
	}
}

// DeletePoolHandler removes a pool and its metric snapshots.
func DeletePoolHandler(poolService *services.PoolService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := poolService.Delete(c.Param("id")); err != nil {
			if errors.Is(err, customerrors.ErrPoolNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Pool not found"})
				return
			}
			log.Printf("Error deleting pool %s: %v", c.Param("id"), err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Pool deleted successfully"})
	}
}

// RecordMetricHandler appends a token metric snapshot for a pool.
func RecordMetricHandler(poolService *services.PoolService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RecordMetricRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
			return
		}
		metric, err := poolService.RecordMetric(&models.TokenMetric{
			LPID:              c.Param("id"),
			PriceUSD:          req.PriceUSD,
			MarketCap:         req.MarketCap,
			Volume24h:         req.Volume24h,
			CirculatingSupply: req.CirculatingSupply,
			TotalSupply:       req.TotalSupply,
			PriceChange24h:    req.PriceChange24h,
			VolumeChange24h:   req.VolumeChange24h,
		})
		if err != nil {
			if errors.Is(err, customerrors.ErrPoolNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Pool not found"})
				return
			}
			log.Printf("Error recording metric for pool %s: %v", c.Param("id"), err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}
		c.JSON(http.StatusCreated, gin.H{"success": true, "metric": metric})
	}
}

// LatestMetricHandler returns the most recent metric snapshot for a pool.
func LatestMetricHandler(poolService *services.PoolService) gin.HandlerFunc {
	return func(c *gin.Context) {
		metric, err := poolService.LatestMetric(c.Param("id"))
		if err != nil {
			if errors.Is(err, customerrors.ErrPoolNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "No metrics found for pool"})
				return
			}
			log.Printf("Error retrieving latest metric for pool %s: %v", c.Param("id"), err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "metric": metric})
	}
}
