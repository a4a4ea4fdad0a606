// models/odds.go
package models

import (
	"time"
)

// MatchupStatus tracks a two-sided betting matchup.
type MatchupStatus string

const (
	MatchupOpen     MatchupStatus = "open"
	MatchupResolved MatchupStatus = "resolved"
)

// Matchup sides.
const (
	SideA = "a"
	SideB = "b"
)

// OddsMatchup is a two-sided betting market with decimal odds per side.
// Resolution draws the winner proportionally to the normalized implied
// probabilities (1/oddsA, 1/oddsB).
type OddsMatchup struct {
	ID          string        `gorm:"primaryKey;type:uuid" json:"id"`
	Label       string        `gorm:"not null" json:"label"`
	SideALabel  string        `gorm:"not null" json:"side_a_label"`
	SideBLabel  string        `gorm:"not null" json:"side_b_label"`
	OddsA       float64       `gorm:"not null" json:"odds_a"` // decimal odds, > 1
	OddsB       float64       `gorm:"not null" json:"odds_b"`
	Status      MatchupStatus `gorm:"type:varchar(16);not null;default:'open';index" json:"status"`
	WinningSide string        `gorm:"type:varchar(4)" json:"winning_side,omitempty"`
	CreatedAt   time.Time     `gorm:"autoCreateTime" json:"created_at"`
	ResolvedAt  *time.Time    `json:"resolved_at,omitempty"`
}

// OddsBet is a single stake on one side of a matchup. Settled at matchup
// resolution: winners get floor(amount × side odds), losers forfeit the stake
// already debited at placement.
type OddsBet struct {
	ID        string    `gorm:"primaryKey;type:uuid" json:"id"`
	MatchupID string    `gorm:"type:uuid;not null;index" json:"matchup_id"`
	UserID    string    `gorm:"type:uuid;not null;index" json:"user_id"`
	Side      string    `gorm:"type:varchar(4);not null" json:"side"`
	Amount    int64     `gorm:"not null" json:"amount"`
	Payout    int64     `gorm:"not null;default:0" json:"payout"`
	Settled   bool      `gorm:"not null;default:false" json:"settled"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}
