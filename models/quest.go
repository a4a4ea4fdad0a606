// models/quest.go
package models

import (
	"time"
)

// Quest counter keys. Settlement paths bump these; definitions (target,
// reward) live in services.QuestCatalog.
const (
	QuestCasinoGames    = "casino_games_played"
	QuestPacksOpened    = "packs_opened"
	QuestTradesComplete = "trades_completed"
	QuestMarketSales    = "market_sales"
	QuestLotteryTickets = "lottery_tickets"
)

// QuestProgress is one deterministic counter per (user, quest key).
type QuestProgress struct {
	ID        string     `gorm:"primaryKey;type:uuid" json:"id"`
	UserID    string     `gorm:"type:uuid;not null;uniqueIndex:idx_user_quest" json:"user_id"`
	QuestKey  string     `gorm:"type:varchar(64);not null;uniqueIndex:idx_user_quest" json:"quest_key"`
	Count     int64      `gorm:"not null;default:0" json:"count"`
	ClaimedAt *time.Time `json:"claimed_at,omitempty"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}
