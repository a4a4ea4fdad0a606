// models/activity.go
package models

import (
	"time"
)

// Activity event types fanned out after successful settlements.
const (
	ActivityCasinoWin    = "casino_win"
	ActivityPackOpened   = "pack_opened"
	ActivityMarketSale   = "market_sale"
	ActivityTradeDone    = "trade_completed"
	ActivityLotteryWin   = "lottery_win"
	ActivityQuestClaimed = "quest_claimed"
)

// ActivityEvent is a feed row written fire-and-forget after a settlement
// commits — never inside the settling transaction. DeliveredAt is the cursor
// for the webhook worker.
type ActivityEvent struct {
	ID          string     `gorm:"primaryKey;type:uuid" json:"id"`
	UserID      string     `gorm:"type:uuid;not null;index" json:"user_id"`
	Type        string     `gorm:"type:varchar(32);not null;index" json:"type"`
	Message     string     `gorm:"not null" json:"message"`
	Amount      int64      `json:"amount,omitempty"`
	RefID       string     `json:"ref_id,omitempty"` // card/trade/draw the event refers to
	CreatedAt   time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
	DeliveredAt *time.Time `gorm:"index" json:"-"`
}
