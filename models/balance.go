// models/balance.go
package models

import (
	"time"
)

// Currency identifies one of the club's spendable resources.
type Currency string

const (
	CurrencyCredits  Currency = "credits"  // primary spendable
	CurrencyStardust Currency = "stardust" // secondary, quest rewards
	CurrencyPrisms   Currency = "prisms"   // crafting material
)

// ValidCurrency reports whether c is one of the known currencies.
func ValidCurrency(c Currency) bool {
	switch c {
	case CurrencyCredits, CurrencyStardust, CurrencyPrisms:
		return true
	}
	return false
}

// UserBalance holds the current balance for one (user, currency) pair.
// Mutated only through the ledger service — never written directly.
// Unknown users get a zero row on first read (get-or-default).
type UserBalance struct {
	ID        string    `gorm:"primaryKey;type:uuid" json:"id"`
	UserID    string    `gorm:"type:uuid;not null;index;uniqueIndex:idx_user_currency" json:"user_id"`
	Currency  Currency  `gorm:"type:varchar(32);not null;uniqueIndex:idx_user_currency" json:"currency"`
	Balance   int64     `gorm:"not null;default:0" json:"balance"` // invariant: >= 0
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// Ledger reason taxonomy. Every mutation carries exactly one of these.
const (
	ReasonSlotsBet         = "casino_slots_bet"
	ReasonSlotsWin         = "casino_slots_win"
	ReasonScratchBuy       = "casino_scratch_buy"
	ReasonScratchWin       = "casino_scratch_win"
	ReasonRouletteBet      = "casino_roulette_bet"
	ReasonRouletteWin      = "casino_roulette_win"
	ReasonBlackjackBet     = "casino_blackjack_bet"
	ReasonBlackjackWin     = "casino_blackjack_win"
	ReasonBlackjackPush    = "casino_blackjack_push"
	ReasonOddsBet          = "odds_bet"
	ReasonOddsWin          = "odds_win"
	ReasonLotteryTicket    = "lottery_ticket"
	ReasonLotteryWin       = "lottery_win"
	ReasonMarketplaceSale  = "marketplace_sale"
	ReasonMarketplaceBuy   = "marketplace_purchase"
	ReasonBuyOrderPayment  = "buy_order_payment"
	ReasonBuyOrderPayout   = "buy_order_payout"
	ReasonTrade            = "trade"
	ReasonPackPurchase     = "pack_purchase"
	ReasonQuicksell        = "quicksell"
	ReasonQuestReward      = "quest_reward"
	ReasonAdminGrant       = "admin_grant"
)

// LedgerMeta is the fixed metadata shape a ledger entry may carry.
// One struct instead of an open map so each reason's payload is checked at
// compile time; unused fields stay empty and are omitted from JSON.
type LedgerMeta struct {
	Bet          int64  `json:"bet,omitempty"`
	Counterparty string `json:"counterparty,omitempty"`
	CardID       string `json:"card_id,omitempty"`
	ListingID    string `json:"listing_id,omitempty"`
	OrderID      string `json:"order_id,omitempty"`
	TradeID      string `json:"trade_id,omitempty"`
	PackID       string `json:"pack_id,omitempty"`
	DrawID       string `json:"draw_id,omitempty"`
	MatchupID    string `json:"matchup_id,omitempty"`
	QuestKey     string `json:"quest_key,omitempty"`
	Note         string `json:"note,omitempty"`
}

// LedgerEntry is an immutable, append-only record of a single balance change.
// Invariant: for every (user, currency), the sum of entry amounts equals the
// current balance.
type LedgerEntry struct {
	ID        string     `gorm:"primaryKey;type:uuid" json:"id"`
	UserID    string     `gorm:"type:uuid;not null;index" json:"user_id"`
	Currency  Currency   `gorm:"type:varchar(32);not null;index" json:"currency"`
	Amount    int64      `gorm:"not null" json:"amount"` // positive = credit, negative = debit
	Reason    string     `gorm:"type:varchar(64);not null;index" json:"reason"`
	Metadata  LedgerMeta `gorm:"serializer:json" json:"metadata"`
	CreatedAt time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
}
