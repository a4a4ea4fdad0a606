// models/card.go
package models

import (
	"time"
)

// CardRarity is the base rarity tier of a card.
type CardRarity string

const (
	RarityUncommon  CardRarity = "uncommon"
	RarityRare      CardRarity = "rare"
	RarityEpic      CardRarity = "epic"
	RarityLegendary CardRarity = "legendary"
)

// CardFinish is the rarity-of-presentation tier, independent of base rarity.
type CardFinish string

const (
	FinishNormal     CardFinish = "normal"
	FinishHolo       CardFinish = "holo"
	FinishPrismatic  CardFinish = "prismatic"
	FinishDarkMatter CardFinish = "darkMatter"
)

// PoolEntry is a character template cards are minted from.
// Managed by admins; referenced by cards and buy orders.
type PoolEntry struct {
	ID            string     `gorm:"primaryKey;type:uuid" json:"id"`
	CharacterName string     `gorm:"not null" json:"character_name"`
	ActorName     string     `gorm:"not null" json:"actor_name"`
	MovieTitle    string     `gorm:"not null" json:"movie_title"`
	Rarity        CardRarity `gorm:"type:varchar(32);not null;index" json:"rarity"`
	ImageURL      string     `json:"image_url"`
	CreatedAt     time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

// Card is an owned collectible. Ownership moves through trades, marketplace
// sales and buy-order fulfillment; the row is deleted only by quicksell or
// admin removal.
type Card struct {
	ID          string     `gorm:"primaryKey;type:uuid" json:"id"`
	UserID      string     `gorm:"type:uuid;not null;index" json:"user_id"` // current owner
	PoolEntryID string     `gorm:"type:uuid;not null;index" json:"pool_entry_id"`
	Rarity      CardRarity `gorm:"type:varchar(32);not null" json:"rarity"`
	Finish      CardFinish `gorm:"type:varchar(32);not null;default:'normal'" json:"finish"`

	// Denormalized from the pool entry so cards render without a join.
	CharacterName string `gorm:"not null" json:"character_name"`
	ActorName     string `gorm:"not null" json:"actor_name"`
	MovieTitle    string `gorm:"not null" json:"movie_title"`
	ImageURL      string `json:"image_url"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// IsFoil reports whether the card has any special finish.
func (c *Card) IsFoil() bool {
	return c.Finish != FinishNormal
}
