// services/casino_config.go
package services

import (
	"fmt"

	"movie-club-system/models"
)

// CasinoConfig carries every tunable the outcome engines read. Supplied
// externally (defaults below, env overrides possible later) and validated at
// startup — engines assume a valid config.
type CasinoConfig struct {
	// Slots
	SlotSymbols     []string
	SlotPaytable    map[string]float64 // three-of-a-kind multiplier per symbol
	SlotPay2oak     float64            // any two-of-a-kind multiplier
	SlotMinBet      int64
	SlotMaxBet      int64
	SlotAllowedBets []int64 // discrete bet amounts; empty = any within bounds

	// Scratch-off
	ScratchSymbols    []string
	ScratchWinDenom   map[string]int64   // 1-in-N win chance per symbol
	ScratchPaytable   map[string]float64 // multiplier of ticket cost
	ScratchPanels     int
	ScratchCost       int64
	ScratchDailyLimit int64

	// Roulette
	RouletteColorPayout    int64
	RouletteStraightPayout int64
	RouletteMinBet         int64
	RouletteMaxBet         int64

	// Blackjack
	BlackjackMinBet int64
	BlackjackMaxBet int64

	// Lottery
	LotteryTicketPrice  int64
	LotteryStartingPool int64
	LotteryPoolCap      int64

	// Pack economy
	RarityWeights map[models.CardRarity]int64
	FinishWeights map[models.CardFinish]int64
}

// DefaultCasinoConfig mirrors the club's reference configuration.
func DefaultCasinoConfig() CasinoConfig {
	return CasinoConfig{
		SlotSymbols: []string{"7", "bar", "bell", "cherry", "lemon", "star"},
		SlotPaytable: map[string]float64{
			"7":      43,
			"bar":    20,
			"bell":   12,
			"star":   8,
			"cherry": 5,
			"lemon":  3,
		},
		SlotPay2oak:     0.25,
		SlotMinBet:      5,
		SlotMaxBet:      100,
		SlotAllowedBets: []int64{5, 10, 25, 50, 100},

		ScratchSymbols: []string{"ticket", "reel", "clap", "star", "crown", "gem"},
		ScratchWinDenom: map[string]int64{
			"ticket": 6,
			"reel":   10,
			"clap":   16,
			"star":   28,
			"crown":  60,
			"gem":    150,
		},
		ScratchPaytable: map[string]float64{
			"ticket": 1,
			"reel":   2,
			"clap":   4,
			"star":   10,
			"crown":  25,
			"gem":    100,
		},
		ScratchPanels:     12,
		ScratchCost:       10,
		ScratchDailyLimit: 10,

		RouletteColorPayout:    2,
		RouletteStraightPayout: 36,
		RouletteMinBet:         5,
		RouletteMaxBet:         200,

		BlackjackMinBet: 10,
		BlackjackMaxBet: 500,

		LotteryTicketPrice:  25,
		LotteryStartingPool: 500,
		LotteryPoolCap:      10000,

		RarityWeights: map[models.CardRarity]int64{
			models.RarityUncommon:  60,
			models.RarityRare:      27,
			models.RarityEpic:      10,
			models.RarityLegendary: 3,
		},
		FinishWeights: map[models.CardFinish]int64{
			models.FinishNormal:     88,
			models.FinishHolo:       8,
			models.FinishPrismatic:  3,
			models.FinishDarkMatter: 1,
		},
	}
}

// Validate normalizes and sanity-checks the config. Inverted bet bounds are
// swapped rather than rejected; structural problems are errors.
func (c *CasinoConfig) Validate() error {
	if c.SlotMinBet > c.SlotMaxBet {
		c.SlotMinBet, c.SlotMaxBet = c.SlotMaxBet, c.SlotMinBet
	}
	if c.RouletteMinBet > c.RouletteMaxBet {
		c.RouletteMinBet, c.RouletteMaxBet = c.RouletteMaxBet, c.RouletteMinBet
	}
	if c.BlackjackMinBet > c.BlackjackMaxBet {
		c.BlackjackMinBet, c.BlackjackMaxBet = c.BlackjackMaxBet, c.BlackjackMinBet
	}

	if len(c.SlotSymbols) < 2 {
		return fmt.Errorf("slots need at least 2 symbols, got %d", len(c.SlotSymbols))
	}
	for _, s := range c.SlotSymbols {
		if c.SlotPaytable[s] <= 0 {
			return fmt.Errorf("slot symbol %q missing a positive paytable entry", s)
		}
	}

	// The losing-ticket layout (2 of every symbol) only guarantees no
	// 3-of-a-kind when 2×symbols fills the card exactly.
	if 2*len(c.ScratchSymbols) != c.ScratchPanels {
		return fmt.Errorf("scratch config invalid: %d symbols × 2 must equal %d panels",
			len(c.ScratchSymbols), c.ScratchPanels)
	}
	for _, s := range c.ScratchSymbols {
		if c.ScratchWinDenom[s] < 1 {
			return fmt.Errorf("scratch symbol %q needs a win denominator >= 1", s)
		}
		if c.ScratchPaytable[s] <= 0 {
			return fmt.Errorf("scratch symbol %q missing a positive paytable entry", s)
		}
	}
	if c.ScratchCost <= 0 || c.ScratchDailyLimit <= 0 {
		return fmt.Errorf("scratch cost and daily limit must be positive")
	}

	if c.LotteryTicketPrice <= 0 {
		return fmt.Errorf("lottery ticket price must be positive")
	}
	if c.LotteryPoolCap < c.LotteryStartingPool {
		return fmt.Errorf("lottery pool cap %d below starting pool %d", c.LotteryPoolCap, c.LotteryStartingPool)
	}

	if len(c.RarityWeights) == 0 || len(c.FinishWeights) == 0 {
		return fmt.Errorf("rarity and finish weights are required")
	}
	return nil
}

// betAllowed checks a bet against bounds and the discrete allow-list.
func betAllowed(bet, min, max int64, allowed []int64) bool {
	if bet < min || bet > max {
		return false
	}
	if len(allowed) == 0 {
		return true
	}
	for _, a := range allowed {
		if bet == a {
			return true
		}
	}
	return false
}
