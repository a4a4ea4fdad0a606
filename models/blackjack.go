// models/blackjack.go
package models

import (
	"time"
)

// BlackjackStatus is the state of a hand in progress.
type BlackjackStatus string

const (
	BlackjackPlayerTurn BlackjackStatus = "player_turn"
	BlackjackDealerTurn BlackjackStatus = "dealer_turn"
	BlackjackResolved   BlackjackStatus = "resolved"
)

// Blackjack results reported to the player.
const (
	BlackjackResultWin       = "win"
	BlackjackResultLose      = "lose"
	BlackjackResultPush      = "push"
	BlackjackResultBlackjack = "blackjack"
)

// BlackjackSession is a hand in progress, one per user at most.
// The unique index on user_id is what enforces single-active-session: a
// second deal hits the constraint instead of racing a read. The row is
// deleted the moment the hand resolves.
type BlackjackSession struct {
	ID         string          `gorm:"primaryKey;type:uuid" json:"id"`
	UserID     string          `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	Deck       []string        `gorm:"serializer:json" json:"-"` // remaining shoe, never exposed
	PlayerHand []string        `gorm:"serializer:json" json:"player_hand"`
	DealerHand []string        `gorm:"serializer:json" json:"dealer_hand"`
	Bet        int64           `gorm:"not null" json:"bet"`
	Status     BlackjackStatus `gorm:"type:varchar(16);not null" json:"status"`
	CreatedAt  time.Time       `gorm:"autoCreateTime" json:"created_at"`
}
