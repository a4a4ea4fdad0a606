// services/lottery_service.go
package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"movie-club-system/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LotteryService sells tickets into a weekly draw and resolves draws lazily:
// the first observer after a period elapses runs the draw inside a locked
// transaction, everyone after that reads the stored winner. A gocron sweep
// (services/scheduler.go) resolves draws nobody is watching.
type LotteryService struct {
	DB       *gorm.DB
	Ledger   *LedgerService
	Quests   *QuestService
	Activity *ActivityService
	RNG      Rand
	Cfg      CasinoConfig
}

func NewLotteryService(db *gorm.DB, ledger *LedgerService, quests *QuestService, activity *ActivityService, rng Rand, cfg CasinoConfig) *LotteryService {
	return &LotteryService{DB: db, Ledger: ledger, Quests: quests, Activity: activity, RNG: rng, Cfg: cfg}
}

// drawPeriodEnd returns the end of the weekly period containing t: the next
// Sunday 00:00 UTC strictly after t. The draw ID is that date.
func drawPeriodEnd(t time.Time) time.Time {
	t = t.UTC()
	days := (7 - int(t.Weekday())) % 7
	if days == 0 {
		days = 7
	}
	return t.Truncate(24 * time.Hour).AddDate(0, 0, days)
}

func drawIDFor(t time.Time) string {
	return drawPeriodEnd(t).Format("2006-01-02")
}

type LotteryPurchaseResult struct {
	Purchased  int    `json:"purchased"`
	TotalCost  int64  `json:"total_cost"`
	NewBalance int64  `json:"new_balance"`
	MyTickets  int64  `json:"my_tickets"`
	PrizePool  int64  `json:"prize_pool"`
	DrawID     string `json:"draw_id"`
	NextDrawAt string `json:"next_draw_at"`
}

// poolFor computes the running prize pool, capped.
func (s *LotteryService) poolFor(ticketCount int64, startingPool int64) int64 {
	pool := ticketCount*s.Cfg.LotteryTicketPrice + startingPool
	if pool > s.Cfg.LotteryPoolCap {
		pool = s.Cfg.LotteryPoolCap
	}
	return pool
}

// ensureDrawTx fetches the locked draw row for the given ID, creating it on
// first touch.
func (s *LotteryService) ensureDrawTx(tx *gorm.DB, drawID string) (*models.LotteryDraw, error) {
	draw := models.LotteryDraw{ID: drawID, StartingPool: s.Cfg.LotteryStartingPool}
	if err := tx.Where("id = ?", drawID).FirstOrCreate(&draw).Error; err != nil {
		return nil, fmt.Errorf("failed to ensure draw row: %w", err)
	}
	var locked models.LotteryDraw
	if err := forUpdate(tx).Where("id = ?", drawID).First(&locked).Error; err != nil {
		return nil, fmt.Errorf("failed to lock draw row: %w", err)
	}
	return &locked, nil
}

// BuyTickets purchases count tickets in the current period.
func (s *LotteryService) BuyTickets(userID, userName string, count int) (*LotteryPurchaseResult, error) {
	if count < 1 || count > 100 {
		return nil, fmt.Errorf("ticket count must be between 1 and 100: %w", ErrInvalidInput)
	}

	now := time.Now()
	drawID := drawIDFor(now)
	totalCost := int64(count) * s.Cfg.LotteryTicketPrice
	res := &LotteryPurchaseResult{
		Purchased:  count,
		TotalCost:  totalCost,
		DrawID:     drawID,
		NextDrawAt: drawPeriodEnd(now).Format(time.RFC3339),
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		draw, err := s.ensureDrawTx(tx, drawID)
		if err != nil {
			return err
		}

		var sold int64
		if err := tx.Model(&models.LotteryTicket{}).Where("draw_id = ?", drawID).Count(&sold).Error; err != nil {
			return fmt.Errorf("failed to count tickets: %w", err)
		}
		if s.poolFor(sold, draw.StartingPool) >= s.Cfg.LotteryPoolCap {
			return fmt.Errorf("prize pool is at its cap, no more tickets this week: %w", ErrConflict)
		}

		newBal, err := s.Ledger.DebitTx(tx, userID, models.CurrencyCredits, totalCost, models.ReasonLotteryTicket, models.LedgerMeta{DrawID: drawID})
		if err != nil {
			return err
		}

		tickets := make([]models.LotteryTicket, 0, count)
		for i := 0; i < count; i++ {
			tickets = append(tickets, models.LotteryTicket{
				ID:       uuid.NewString(),
				DrawID:   drawID,
				UserID:   userID,
				UserName: userName,
				Price:    s.Cfg.LotteryTicketPrice,
			})
		}
		if err := tx.Create(&tickets).Error; err != nil {
			return fmt.Errorf("failed to create tickets: %w", err)
		}

		var mine int64
		if err := tx.Model(&models.LotteryTicket{}).
			Where("draw_id = ? AND user_id = ?", drawID, userID).Count(&mine).Error; err != nil {
			return fmt.Errorf("failed to count own tickets: %w", err)
		}
		res.NewBalance = newBal
		res.MyTickets = mine
		res.PrizePool = s.poolFor(sold+int64(count), draw.StartingPool)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Quests.Bump(userID, models.QuestLotteryTickets, int64(count))
	return res, nil
}

// ResolveDraw runs the draw for a past period. Idempotent: the resolved flag
// is re-checked under the row lock, so the second caller — concurrent or
// later — gets the stored result and no re-randomization happens.
func (s *LotteryService) ResolveDraw(drawID string) (*models.LotteryDraw, error) {
	end, err := time.Parse("2006-01-02", drawID)
	if err != nil {
		return nil, fmt.Errorf("malformed draw id %q: %w", drawID, ErrInvalidInput)
	}
	if time.Now().UTC().Before(end) {
		return nil, fmt.Errorf("draw %s has not closed yet: %w", drawID, ErrConflict)
	}

	var result *models.LotteryDraw
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		draw, err := s.ensureDrawTx(tx, drawID)
		if err != nil {
			return err
		}
		if draw.Resolved {
			result = draw
			return nil
		}

		var tickets []models.LotteryTicket
		if err := tx.Where("draw_id = ?", drawID).Order("created_at").Find(&tickets).Error; err != nil {
			return fmt.Errorf("failed to load tickets: %w", err)
		}

		now := time.Now()
		draw.Resolved = true
		draw.DrawnAt = &now

		if len(tickets) == 0 {
			// Nobody played: the seed money rolls into the next period.
			draw.PrizePool = 0
			next, err := s.ensureDrawTx(tx, drawIDFor(end.Add(time.Hour)))
			if err != nil {
				return err
			}
			if err := tx.Model(&models.LotteryDraw{}).Where("id = ?", next.ID).
				Update("starting_pool", next.StartingPool+draw.StartingPool).Error; err != nil {
				return fmt.Errorf("failed to roll over pool: %w", err)
			}
		} else {
			// Uniform over the flattened ticket multiset = weighted by
			// tickets held.
			winner := tickets[s.RNG.Intn(len(tickets))]
			draw.PrizePool = s.poolFor(int64(len(tickets)), draw.StartingPool)
			draw.WinnerUserID = &winner.UserID
			draw.WinnerName = winner.UserName

			if _, err := s.Ledger.CreditTx(tx, winner.UserID, models.CurrencyCredits, draw.PrizePool,
				models.ReasonLotteryWin, models.LedgerMeta{DrawID: drawID}); err != nil {
				return err
			}
		}

		if err := tx.Save(draw).Error; err != nil {
			return fmt.Errorf("failed to store draw result: %w", err)
		}
		result = draw
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.WinnerUserID != nil && result.DrawnAt != nil && time.Since(*result.DrawnAt) < time.Minute {
		s.Activity.Record(*result.WinnerUserID, models.ActivityLotteryWin,
			fmt.Sprintf("%s won the weekly lottery (%d credits)", result.WinnerName, result.PrizePool),
			result.PrizePool, result.ID)
	}
	return result, nil
}

// ResolveDue resolves every unresolved draw whose period has elapsed.
func (s *LotteryService) ResolveDue() {
	var due []models.LotteryDraw
	cutoff := time.Now().UTC().Format("2006-01-02")
	if err := s.DB.Where("resolved = ? AND id <= ?", false, cutoff).Find(&due).Error; err != nil {
		log.Printf("[Lottery] failed to list due draws: %v", err)
		return
	}
	for _, d := range due {
		if _, err := s.ResolveDraw(d.ID); err != nil && !errors.Is(err, ErrConflict) {
			log.Printf("[Lottery] failed to resolve draw %s: %v", d.ID, err)
		}
	}
}

type LotteryStatus struct {
	DrawID     string              `json:"draw_id"`
	NextDrawAt string              `json:"next_draw_at"`
	PrizePool  int64               `json:"prize_pool"`
	PoolCap    int64               `json:"pool_cap"`
	MyTickets  int64               `json:"my_tickets"`
	TotalSold  int64               `json:"total_sold"`
	LastDraw   *models.LotteryDraw `json:"last_draw,omitempty"`
}

// GetCurrent reports the open draw. Reading it is also the lazy trigger that
// settles any past period.
func (s *LotteryService) GetCurrent(userID string) (*LotteryStatus, error) {
	s.ResolveDue()

	now := time.Now()
	drawID := drawIDFor(now)
	status := &LotteryStatus{
		DrawID:     drawID,
		NextDrawAt: drawPeriodEnd(now).Format(time.RFC3339),
		PoolCap:    s.Cfg.LotteryPoolCap,
	}

	startingPool := s.Cfg.LotteryStartingPool
	var draw models.LotteryDraw
	if err := s.DB.Where("id = ?", drawID).First(&draw).Error; err == nil {
		startingPool = draw.StartingPool
	}

	if err := s.DB.Model(&models.LotteryTicket{}).Where("draw_id = ?", drawID).
		Count(&status.TotalSold).Error; err != nil {
		return nil, fmt.Errorf("failed to count tickets: %w", err)
	}
	if err := s.DB.Model(&models.LotteryTicket{}).Where("draw_id = ? AND user_id = ?", drawID, userID).
		Count(&status.MyTickets).Error; err != nil {
		return nil, fmt.Errorf("failed to count own tickets: %w", err)
	}
	status.PrizePool = s.poolFor(status.TotalSold, startingPool)

	var last models.LotteryDraw
	if err := s.DB.Where("resolved = ?", true).Order("id DESC").First(&last).Error; err == nil {
		status.LastDraw = &last
	}
	return status, nil
}
