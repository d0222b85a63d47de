package models

import (
	"time"
)

// SearchCache stores a serialized estimation result keyed by query hash
type SearchCache struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	QueryHash string    `gorm:"size:64;not null;uniqueIndex" json:"query_hash"`
	Result    string    `gorm:"type:text;not null" json:"result"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
}

func (SearchCache) TableName() string {
	return "search_cache"
}

// GeocodeCache stores resolved coordinates for a locality address
type GeocodeCache struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Address   string    `gorm:"size:500;not null;uniqueIndex" json:"address"`
	Lat       float64   `gorm:"type:decimal(9,6);not null" json:"lat"`
	Lng       float64   `gorm:"type:decimal(9,6);not null" json:"lng"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
}

func (GeocodeCache) TableName() string {
	return "geocode_cache"
}
