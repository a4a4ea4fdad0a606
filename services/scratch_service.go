// services/scratch_service.go
package services

import (
	"context"
	"fmt"
	"math"
	"time"

	"movie-club-system/models"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// DailyLimiter counts per-user per-day ticket purchases. Keys carry the UTC
// date, so a new day starts a fresh counter.
type DailyLimiter interface {
	Incr(ctx context.Context, key string) (int64, error)
	Decr(ctx context.Context, key string) error
}

// RedisDailyLimiter backs the limiter with redis INCR; the key expires a bit
// after the UTC day it belongs to ends.
type RedisDailyLimiter struct {
	Client *redis.Client
}

func NewRedisDailyLimiter(client *redis.Client) *RedisDailyLimiter {
	return &RedisDailyLimiter{Client: client}
}

func (l *RedisDailyLimiter) Incr(ctx context.Context, key string) (int64, error) {
	count, err := l.Client.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if count == 1 {
		midnight := time.Now().UTC().Truncate(24 * time.Hour).Add(25 * time.Hour)
		_ = l.Client.ExpireAt(ctx, key, midnight).Err()
	}
	return count, nil
}

func (l *RedisDailyLimiter) Decr(ctx context.Context, key string) error {
	return l.Client.Decr(ctx, key).Err()
}

// ScratchService sells and resolves 12-panel scratch-off tickets.
type ScratchService struct {
	DB      *gorm.DB
	Ledger  *LedgerService
	Quests  *QuestService
	Limiter DailyLimiter
	RNG     Rand
	Cfg     CasinoConfig
}

func NewScratchService(db *gorm.DB, ledger *LedgerService, quests *QuestService, limiter DailyLimiter, rng Rand, cfg CasinoConfig) *ScratchService {
	return &ScratchService{DB: db, Ledger: ledger, Quests: quests, Limiter: limiter, RNG: rng, Cfg: cfg}
}

type ScratchResult struct {
	Panels     []string `json:"panels"`
	Payout     int64    `json:"payout"`
	Won        bool     `json:"won"`
	NewBalance int64    `json:"new_balance"`
}

// BuildScratchTicket lays out one ticket. One uniform draw decides win or
// loss: if it lands inside the combined win mass (sum of 1/N over symbols)
// the winning symbol is picked proportionally to its own 1/N share and placed
// 3 times among 9 random fillers; otherwise the card gets exactly 2 of every
// symbol, which can never produce a 3-match.
func BuildScratchTicket(rng Rand, cfg CasinoConfig) (panels []string, winner string, won bool) {
	roll := rng.Float64()
	for _, sym := range cfg.ScratchSymbols {
		share := 1.0 / float64(cfg.ScratchWinDenom[sym])
		if roll < share {
			winner = sym
			won = true
			break
		}
		roll -= share
	}

	panels = make([]string, 0, cfg.ScratchPanels)
	if won {
		for i := 0; i < 3; i++ {
			panels = append(panels, winner)
		}
		for len(panels) < cfg.ScratchPanels {
			panels = append(panels, cfg.ScratchSymbols[rng.Intn(len(cfg.ScratchSymbols))])
		}
	} else {
		for _, sym := range cfg.ScratchSymbols {
			panels = append(panels, sym, sym)
		}
	}
	rng.Shuffle(len(panels), func(i, j int) {
		panels[i], panels[j] = panels[j], panels[i]
	})
	return panels, winner, won
}

// ScratchPayout scans the revealed panels after the fact: every symbol
// appearing 3+ times is a candidate, and the ticket pays the best one. This
// covers the filler path incidentally stacking a second 3-match.
func ScratchPayout(panels []string, cost int64, paytable map[string]float64) (payout int64, won bool) {
	counts := make(map[string]int, len(panels))
	for _, p := range panels {
		counts[p]++
	}
	for sym, n := range counts {
		if n >= 3 {
			if candidate := int64(math.Floor(paytable[sym] * float64(cost))); candidate > payout {
				payout = candidate
			}
			won = true
		}
	}
	return payout, won
}

// BuyTicket sells one ticket, subject to the per-day limit.
func (s *ScratchService) BuyTicket(ctx context.Context, userID string) (*ScratchResult, error) {
	key := fmt.Sprintf("scratch:%s:%s", userID, time.Now().UTC().Format("2006-01-02"))
	count, err := s.Limiter.Incr(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("daily limit check failed: %w", err)
	}
	if count > s.Cfg.ScratchDailyLimit {
		return nil, fmt.Errorf("daily scratch limit of %d reached: %w", s.Cfg.ScratchDailyLimit, ErrConflict)
	}

	panels, _, _ := BuildScratchTicket(s.RNG, s.Cfg)
	payout, won := ScratchPayout(panels, s.Cfg.ScratchCost, s.Cfg.ScratchPaytable)

	res := &ScratchResult{Panels: panels, Payout: payout, Won: won}
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		newBal, err := s.Ledger.DebitTx(tx, userID, models.CurrencyCredits, s.Cfg.ScratchCost, models.ReasonScratchBuy, models.LedgerMeta{})
		if err != nil {
			return err
		}
		if payout > 0 {
			newBal, err = s.Ledger.CreditTx(tx, userID, models.CurrencyCredits, payout, models.ReasonScratchWin, models.LedgerMeta{Bet: s.Cfg.ScratchCost})
			if err != nil {
				return err
			}
		}
		res.NewBalance = newBal
		return nil
	})
	if err != nil {
		// Give the daily slot back — the ticket never sold.
		_ = s.Limiter.Decr(ctx, key)
		return nil, err
	}

	s.Quests.Bump(userID, models.QuestCasinoGames, 1)
	return res, nil
}
