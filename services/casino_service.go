// services/casino_service.go
package services

import (
	"fmt"
	"math"
	"strconv"

	"movie-club-system/models"

	"gorm.io/gorm"
)

// CasinoService runs the slots and roulette engines end to end: validate bet,
// debit, draw, credit — bet and payout inside one DB transaction so a crash
// mid-spin can't eat a stake.
type CasinoService struct {
	DB       *gorm.DB
	Ledger   *LedgerService
	Quests   *QuestService
	Activity *ActivityService
	RNG      Rand
	Cfg      CasinoConfig
}

func NewCasinoService(db *gorm.DB, ledger *LedgerService, quests *QuestService, activity *ActivityService, rng Rand, cfg CasinoConfig) *CasinoService {
	return &CasinoService{DB: db, Ledger: ledger, Quests: quests, Activity: activity, RNG: rng, Cfg: cfg}
}

// --- Slots ---

type SlotsResult struct {
	Symbols    [3]string `json:"symbols"`
	Payout     int64     `json:"payout"`
	Won        bool      `json:"won"` // distinct from payout==0: a 2-oak on a tiny bet can floor to 0
	NewBalance int64     `json:"new_balance"`
}

// DrawSlotSymbols draws 3 independent symbols, each uniform over the set.
func DrawSlotSymbols(rng Rand, symbols []string) [3]string {
	var out [3]string
	for i := range out {
		out[i] = symbols[rng.Intn(len(symbols))]
	}
	return out
}

// SlotsPayout maps drawn symbols to a payout. Three-of-a-kind pays the
// symbol's paytable multiplier, any two-of-a-kind pays the flat 2-oak
// multiplier, else nothing. Fractional payouts floor to integer credits.
func SlotsPayout(symbols [3]string, bet int64, paytable map[string]float64, pay2oak float64) (payout int64, won bool) {
	if symbols[0] == symbols[1] && symbols[1] == symbols[2] {
		return int64(math.Floor(paytable[symbols[0]] * float64(bet))), true
	}
	if symbols[0] == symbols[1] || symbols[1] == symbols[2] || symbols[0] == symbols[2] {
		return int64(math.Floor(pay2oak * float64(bet))), true
	}
	return 0, false
}

// SpinSlots plays one paid spin for the user.
func (s *CasinoService) SpinSlots(userID string, bet int64) (*SlotsResult, error) {
	if !betAllowed(bet, s.Cfg.SlotMinBet, s.Cfg.SlotMaxBet, s.Cfg.SlotAllowedBets) {
		return nil, fmt.Errorf("bet %d not allowed for slots: %w", bet, ErrInvalidInput)
	}

	symbols := DrawSlotSymbols(s.RNG, s.Cfg.SlotSymbols)
	payout, won := SlotsPayout(symbols, bet, s.Cfg.SlotPaytable, s.Cfg.SlotPay2oak)

	res := &SlotsResult{Symbols: symbols, Payout: payout, Won: won}
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		newBal, err := s.Ledger.DebitTx(tx, userID, models.CurrencyCredits, bet, models.ReasonSlotsBet, models.LedgerMeta{Bet: bet})
		if err != nil {
			return err
		}
		if payout > 0 {
			newBal, err = s.Ledger.CreditTx(tx, userID, models.CurrencyCredits, payout, models.ReasonSlotsWin, models.LedgerMeta{Bet: bet})
			if err != nil {
				return err
			}
		}
		res.NewBalance = newBal
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Quests.Bump(userID, models.QuestCasinoGames, 1)
	if won && payout > 0 {
		s.Activity.Record(userID, models.ActivityCasinoWin,
			fmt.Sprintf("won %d credits on slots", payout), payout, "")
	}
	return res, nil
}

// --- Roulette ---

// European single-zero wheel. 0 is neither color.
var rouletteRed = map[int]bool{
	1: true, 3: true, 5: true, 7: true, 9: true, 12: true, 14: true, 16: true,
	18: true, 19: true, 21: true, 23: true, 25: true, 27: true, 30: true,
	32: true, 34: true, 36: true,
}

type RouletteResult struct {
	Result     int    `json:"result"`
	Color      string `json:"color"` // red, black or green (zero)
	Payout     int64  `json:"payout"`
	Won        bool   `json:"won"`
	NewBalance int64  `json:"new_balance"`
}

// RouletteColor names the color of a pocket.
func RouletteColor(n int) string {
	if n == 0 {
		return "green"
	}
	if rouletteRed[n] {
		return "red"
	}
	return "black"
}

// RoulettePayout resolves a color or straight-number selection against the
// drawn pocket. selection is "red", "black" or a number "0".."36".
func RoulettePayout(selection string, result int, bet, colorPayout, straightPayout int64) (payout int64, won bool, err error) {
	switch selection {
	case "red", "black":
		if result != 0 && RouletteColor(result) == selection {
			return bet * colorPayout, true, nil
		}
		return 0, false, nil
	default:
		n, convErr := strconv.Atoi(selection)
		if convErr != nil || n < 0 || n > 36 {
			return 0, false, fmt.Errorf("selection must be red, black or 0-36: %w", ErrInvalidInput)
		}
		if n == result {
			return bet * straightPayout, true, nil
		}
		return 0, false, nil
	}
}

// SpinRoulette plays one paid spin.
func (s *CasinoService) SpinRoulette(userID string, bet int64, selection string) (*RouletteResult, error) {
	if bet < s.Cfg.RouletteMinBet || bet > s.Cfg.RouletteMaxBet {
		return nil, fmt.Errorf("bet %d outside roulette bounds: %w", bet, ErrInvalidInput)
	}
	// Reject a malformed selection before touching shared state.
	if _, _, err := RoulettePayout(selection, 0, bet, s.Cfg.RouletteColorPayout, s.Cfg.RouletteStraightPayout); err != nil {
		return nil, err
	}

	result := s.RNG.Intn(37)
	payout, won, err := RoulettePayout(selection, result, bet, s.Cfg.RouletteColorPayout, s.Cfg.RouletteStraightPayout)
	if err != nil {
		return nil, err
	}

	res := &RouletteResult{Result: result, Color: RouletteColor(result), Payout: payout, Won: won}
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		newBal, err := s.Ledger.DebitTx(tx, userID, models.CurrencyCredits, bet, models.ReasonRouletteBet, models.LedgerMeta{Bet: bet})
		if err != nil {
			return err
		}
		if payout > 0 {
			newBal, err = s.Ledger.CreditTx(tx, userID, models.CurrencyCredits, payout, models.ReasonRouletteWin, models.LedgerMeta{Bet: bet})
			if err != nil {
				return err
			}
		}
		res.NewBalance = newBal
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Quests.Bump(userID, models.QuestCasinoGames, 1)
	if won {
		s.Activity.Record(userID, models.ActivityCasinoWin,
			fmt.Sprintf("won %d credits on roulette (%d %s)", payout, result, res.Color), payout, "")
	}
	return res, nil
}
