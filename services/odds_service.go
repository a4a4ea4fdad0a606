// services/odds_service.go
package services

import (
	"errors"
	"fmt"
	"math"
	"time"

	"movie-club-system/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OddsService runs two-sided betting matchups (e.g. "which submission wins
// this week") and the theme wheel's fairness contract.
type OddsService struct {
	DB       *gorm.DB
	Ledger   *LedgerService
	Activity *ActivityService
	RNG      Rand
}

func NewOddsService(db *gorm.DB, ledger *LedgerService, activity *ActivityService, rng Rand) *OddsService {
	return &OddsService{DB: db, Ledger: ledger, Activity: activity, RNG: rng}
}

// PickSide draws the winning side from decimal odds: implied probabilities
// 1/oddsA and 1/oddsB, normalized to sum to 1.
func PickSide(rng Rand, oddsA, oddsB float64) string {
	pA := 1 / oddsA
	pB := 1 / oddsB
	if rng.Float64() < pA/(pA+pB) {
		return models.SideA
	}
	return models.SideB
}

// CreateMatchup opens a matchup for betting. Admin-facing.
func (s *OddsService) CreateMatchup(label, sideA, sideB string, oddsA, oddsB float64) (*models.OddsMatchup, error) {
	if label == "" || sideA == "" || sideB == "" {
		return nil, fmt.Errorf("matchup labels are required: %w", ErrInvalidInput)
	}
	if oddsA <= 1 || oddsB <= 1 {
		return nil, fmt.Errorf("decimal odds must be greater than 1: %w", ErrInvalidInput)
	}
	m := models.OddsMatchup{
		ID:         uuid.NewString(),
		Label:      label,
		SideALabel: sideA,
		SideBLabel: sideB,
		OddsA:      oddsA,
		OddsB:      oddsB,
		Status:     models.MatchupOpen,
	}
	if err := s.DB.Create(&m).Error; err != nil {
		return nil, fmt.Errorf("failed to create matchup: %w", err)
	}
	return &m, nil
}

// PlaceBet stakes credits on one side of an open matchup.
func (s *OddsService) PlaceBet(userID, matchupID, side string, amount int64) (newBalance int64, err error) {
	if side != models.SideA && side != models.SideB {
		return 0, fmt.Errorf("side must be %q or %q: %w", models.SideA, models.SideB, ErrInvalidInput)
	}
	if amount <= 0 {
		return 0, fmt.Errorf("bet amount must be positive: %w", ErrInvalidInput)
	}

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		var m models.OddsMatchup
		if err := forUpdate(tx).Where("id = ?", matchupID).First(&m).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("matchup does not exist: %w", ErrNotFound)
			}
			return fmt.Errorf("failed to load matchup: %w", err)
		}
		if m.Status != models.MatchupOpen {
			return fmt.Errorf("matchup is no longer open: %w", ErrConflict)
		}

		newBalance, err = s.Ledger.DebitTx(tx, userID, models.CurrencyCredits, amount,
			models.ReasonOddsBet, models.LedgerMeta{MatchupID: matchupID, Bet: amount})
		if err != nil {
			return err
		}

		bet := models.OddsBet{
			ID:        uuid.NewString(),
			MatchupID: matchupID,
			UserID:    userID,
			Side:      side,
			Amount:    amount,
		}
		if err := tx.Create(&bet).Error; err != nil {
			return fmt.Errorf("failed to create bet: %w", err)
		}
		return nil
	})
	return newBalance, err
}

// ResolveMatchup draws the winner and settles every bet in one transaction.
// Winners are paid floor(stake × side odds); losers already paid at
// placement. Idempotent via the status check under the row lock.
func (s *OddsService) ResolveMatchup(matchupID string) (*models.OddsMatchup, error) {
	var result *models.OddsMatchup
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var m models.OddsMatchup
		if err := forUpdate(tx).Where("id = ?", matchupID).First(&m).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("matchup does not exist: %w", ErrNotFound)
			}
			return fmt.Errorf("failed to load matchup: %w", err)
		}
		if m.Status != models.MatchupOpen {
			return fmt.Errorf("matchup already resolved: %w", ErrConflict)
		}

		winning := PickSide(s.RNG, m.OddsA, m.OddsB)
		winOdds := m.OddsA
		if winning == models.SideB {
			winOdds = m.OddsB
		}

		var bets []models.OddsBet
		if err := tx.Where("matchup_id = ? AND settled = ?", matchupID, false).Find(&bets).Error; err != nil {
			return fmt.Errorf("failed to load bets: %w", err)
		}
		for i := range bets {
			bet := &bets[i]
			bet.Settled = true
			if bet.Side == winning {
				bet.Payout = int64(math.Floor(float64(bet.Amount) * winOdds))
				if bet.Payout > 0 {
					if _, err := s.Ledger.CreditTx(tx, bet.UserID, models.CurrencyCredits, bet.Payout,
						models.ReasonOddsWin, models.LedgerMeta{MatchupID: matchupID, Bet: bet.Amount}); err != nil {
						return err
					}
				}
			}
			if err := tx.Save(bet).Error; err != nil {
				return fmt.Errorf("failed to settle bet: %w", err)
			}
		}

		now := time.Now()
		m.Status = models.MatchupResolved
		m.WinningSide = winning
		m.ResolvedAt = &now
		if err := tx.Save(&m).Error; err != nil {
			return fmt.Errorf("failed to store resolution: %w", err)
		}
		result = &m
		return nil
	})
	return result, err
}

// --- Theme wheel ---

// WheelOption is one segment of the theme wheel.
type WheelOption struct {
	Label  string `json:"label"`
	Weight int64  `json:"weight"`
}

// SpinWheel picks a segment proportionally to its weight. Only the fairness
// contract lives here; the client animates the spin however it likes.
func (s *OddsService) SpinWheel(options []WheelOption) (int, error) {
	if len(options) == 0 {
		return 0, fmt.Errorf("wheel needs at least one option: %w", ErrInvalidInput)
	}
	var total int64
	weights := make([]int64, len(options))
	for i, o := range options {
		if o.Weight <= 0 {
			return 0, fmt.Errorf("wheel option %q needs a positive weight: %w", o.Label, ErrInvalidInput)
		}
		weights[i] = o.Weight
		total += o.Weight
	}
	return weightedIndex(s.RNG, weights, total), nil
}
