package models

import "time"

// Pool statuses.
const (
	PoolStatusActive   = "active"
	PoolStatusPaused   = "paused"
	PoolStatusInactive = "inactive"
)

// LiquidityPool is an owning scope for widgets: a tokenized asset pool that
// widgets sell access to.
type LiquidityPool struct {
	ID             string  `gorm:"primaryKey;size:36" json:"id"`
	Name           string  `gorm:"not null;size:255" json:"name"`
	Description    string  `gorm:"type:text" json:"description,omitempty"`
	TokenSymbol    string  `gorm:"not null;size:16" json:"tokenSymbol"`
	TokenAddress   string  `gorm:"not null;size:128" json:"tokenAddress"`
	LPAddress      string  `gorm:"not null;size:128" json:"lpAddress"`
	Network        string  `gorm:"not null;size:32" json:"network"`
	WalletAddress  string  `gorm:"not null;size:128" json:"walletAddress"`
	Status         string  `gorm:"size:16;default:active" json:"status"`
	TotalLiquidity float64 `json:"totalLiquidity,omitempty"`
	APY            float64 `json:"apy,omitempty"`
	MinInvestment  float64 `json:"minInvestment,omitempty"`
	MaxInvestment  float64 `json:"maxInvestment,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

// TokenMetric is a point-in-time market snapshot for a pool's token.
// Rows are append-only; dashboards read the latest one per pool.
type TokenMetric struct {
	ID                string    `gorm:"primaryKey;size:36" json:"id"`
	LPID              string    `gorm:"index;not null;size:36" json:"lpId"`
	PriceUSD          float64   `json:"priceUsd"`
	MarketCap         float64   `json:"marketCap,omitempty"`
	Volume24h         float64   `json:"volume24h,omitempty"`
	CirculatingSupply float64   `json:"circulatingSupply,omitempty"`
	TotalSupply       float64   `json:"totalSupply,omitempty"`
	PriceChange24h    float64   `json:"priceChange24h,omitempty"`
	VolumeChange24h   float64   `json:"volumeChange24h,omitempty"`
	Timestamp         time.Time `gorm:"index" json:"timestamp"`
}
