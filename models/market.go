// models/market.go
package models

import (
	"time"
)

// Listing is a card offered for sale at a fixed price.
// The unique index on card_id enforces at most one active listing per card;
// the row is deleted on purchase or delist.
type Listing struct {
	ID           string    `gorm:"primaryKey;type:uuid" json:"id"`
	CardID       string    `gorm:"type:uuid;not null;uniqueIndex" json:"card_id"`
	SellerUserID string    `gorm:"type:uuid;not null;index" json:"seller_user_id"`
	AskingPrice  int64     `gorm:"not null" json:"asking_price"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// BuyOrder is a standing request to acquire any card matching a pool entry.
// Funds are not reserved — sufficiency is re-checked at fulfillment time.
type BuyOrder struct {
	ID              string    `gorm:"primaryKey;type:uuid" json:"id"`
	RequesterUserID string    `gorm:"type:uuid;not null;index" json:"requester_user_id"`
	PoolEntryID     string    `gorm:"type:uuid;not null;index" json:"pool_entry_id"`
	OfferPrice      int64     `gorm:"not null;default:0" json:"offer_price"` // may be 0
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TradeStatus tracks the one-way lifecycle of a trade offer.
type TradeStatus string

const (
	TradePending  TradeStatus = "pending"
	TradeAccepted TradeStatus = "accepted"
	TradeDenied   TradeStatus = "denied"
)

// TradeOffer is a bilateral proposal: cards and/or credits both directions.
// Each side's contribution must be non-empty. Status transitions are one-way
// (pending → accepted|denied) and terminal once non-pending; a pending offer
// may also be cancelled (deleted) by its initiator.
type TradeOffer struct {
	ID                 string      `gorm:"primaryKey;type:uuid" json:"id"`
	InitiatorUserID    string      `gorm:"type:uuid;not null;index" json:"initiator_user_id"`
	CounterpartyUserID string      `gorm:"type:uuid;not null;index" json:"counterparty_user_id"`
	OfferedCardIDs     []string    `gorm:"type:text;serializer:json" json:"offered_card_ids"`
	RequestedCardIDs   []string    `gorm:"type:text;serializer:json" json:"requested_card_ids"`
	OfferedCredits     int64       `gorm:"not null;default:0" json:"offered_credits"`
	RequestedCredits   int64       `gorm:"not null;default:0" json:"requested_credits"`
	Status             TradeStatus `gorm:"type:varchar(16);not null;default:'pending';index" json:"status"`
	CreatedAt          time.Time   `gorm:"autoCreateTime" json:"created_at"`
	ResolvedAt         *time.Time  `json:"resolved_at,omitempty"`
}
