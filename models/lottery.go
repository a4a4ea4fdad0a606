// models/lottery.go
package models

import (
	"time"
)

// LotteryDraw is one weekly draw, keyed by the ISO date of its period end.
// Resolution is lazy and idempotent: the first observer after the period
// elapses runs the draw; everyone after that reads the stored result.
type LotteryDraw struct {
	ID           string     `gorm:"primaryKey;type:varchar(10)" json:"draw_id"` // e.g. "2026-08-30"
	StartingPool int64      `gorm:"not null" json:"starting_pool"`
	Resolved     bool       `gorm:"not null;default:false;index" json:"resolved"`
	PrizePool    int64      `gorm:"not null;default:0" json:"prize_pool"` // set at resolution
	WinnerUserID *string    `gorm:"type:uuid" json:"winner_user_id,omitempty"`
	WinnerName   string     `json:"winner_name,omitempty"`
	DrawnAt      *time.Time `json:"drawn_at,omitempty"`
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

// LotteryTicket is one purchased ticket. A user may hold many per draw; the
// winner is drawn uniformly over the flattened ticket multiset.
type LotteryTicket struct {
	ID        string    `gorm:"primaryKey;type:uuid" json:"id"`
	DrawID    string    `gorm:"type:varchar(10);not null;index" json:"draw_id"`
	UserID    string    `gorm:"type:uuid;not null;index" json:"user_id"`
	UserName  string    `gorm:"not null" json:"user_name"`
	Price     int64     `gorm:"not null" json:"price"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}
