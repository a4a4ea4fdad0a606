// models/pack.go
package models

import (
	"time"
)

// PackDefinition describes a purchasable pack: price, size and which part of
// the pool it draws from. An empty RarityFilter means the whole pool.
type PackDefinition struct {
	ID           string       `gorm:"primaryKey;type:uuid" json:"id"`
	Name         string       `gorm:"not null" json:"name"`
	Price        int64        `gorm:"not null" json:"price"`
	CardsPerPack int          `gorm:"not null" json:"cards_per_pack"`
	RarityFilter []CardRarity `gorm:"serializer:json" json:"rarity_filter"`
	IsActive     bool         `gorm:"not null;default:true" json:"is_active"`
	CreatedAt    time.Time    `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time    `gorm:"autoUpdateTime" json:"updated_at"`
}
