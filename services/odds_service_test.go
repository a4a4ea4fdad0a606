// services/odds_service_test.go
package services

import (
	"errors"
	"testing"

	"movie-club-system/models"

	"gorm.io/gorm"
)

func newOddsHarness(t *testing.T, rng Rand) (*OddsService, *LedgerService, *gorm.DB) {
	t.Helper()
	db := testDB(t)
	ledger := NewLedgerService(db)
	activity := NewActivityService(db)
	odds := NewOddsService(db, ledger, activity, rng)
	return odds, ledger, db
}

func TestCreateMatchupValidation(t *testing.T) {
	odds, _, _ := newOddsHarness(t, &stubRand{})

	if _, err := odds.CreateMatchup("", "Alien", "Blade Runner", 1.8, 2.1); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("empty label err=%v, want ErrInvalidInput", err)
	}
	if _, err := odds.CreateMatchup("Sci-fi night", "Alien", "Blade Runner", 1.0, 2.1); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("odds of 1.0 err=%v, want ErrInvalidInput", err)
	}
	m, err := odds.CreateMatchup("Sci-fi night", "Alien", "Blade Runner", 1.8, 2.1)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if m.Status != models.MatchupOpen {
		t.Errorf("status = %s, want open", m.Status)
	}
}

func TestPlaceBet(t *testing.T) {
	odds, ledger, db := newOddsHarness(t, &stubRand{})
	seedCredits(t, ledger, sellerID, 100)
	m, err := odds.CreateMatchup("Sci-fi night", "Alien", "Blade Runner", 1.8, 2.1)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := odds.PlaceBet(sellerID, m.ID, "c", 10); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("bad side err=%v, want ErrInvalidInput", err)
	}
	if _, err := odds.PlaceBet(sellerID, m.ID, models.SideA, 0); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("zero stake err=%v, want ErrInvalidInput", err)
	}
	if _, err := odds.PlaceBet(sellerID, "no-such-matchup", models.SideA, 10); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown matchup err=%v, want ErrNotFound", err)
	}
	if _, err := odds.PlaceBet(buyerID, m.ID, models.SideA, 10); !errors.Is(err, ErrInsufficientFunds) {
		t.Errorf("broke bettor err=%v, want ErrInsufficientFunds", err)
	}

	newBal, err := odds.PlaceBet(sellerID, m.ID, models.SideA, 40)
	if err != nil {
		t.Fatalf("bet: %v", err)
	}
	if newBal != 60 {
		t.Errorf("balance = %d, want 60", newBal)
	}
	var n int64
	db.Model(&models.OddsBet{}).Where("matchup_id = ? AND user_id = ?", m.ID, sellerID).Count(&n)
	if n != 1 {
		t.Errorf("bet rows = %d, want 1", n)
	}
}

func TestResolveMatchupSettlement(t *testing.T) {
	// Float64 script: 0 → side a wins.
	odds, ledger, db := newOddsHarness(t, &stubRand{floats: []float64{0}})
	seedCredits(t, ledger, sellerID, 100)
	seedCredits(t, ledger, buyerID, 100)
	m, err := odds.CreateMatchup("Sci-fi night", "Alien", "Blade Runner", 1.8, 2.1)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := odds.PlaceBet(sellerID, m.ID, models.SideA, 50); err != nil {
		t.Fatalf("bet a: %v", err)
	}
	if _, err := odds.PlaceBet(buyerID, m.ID, models.SideB, 50); err != nil {
		t.Fatalf("bet b: %v", err)
	}

	resolved, err := odds.ResolveMatchup(m.ID)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if resolved.WinningSide != models.SideA || resolved.Status != models.MatchupResolved {
		t.Fatalf("winner = %s status = %s, want side a resolved", resolved.WinningSide, resolved.Status)
	}
	// Winner gets floor(50 × 1.8) = 90 back on a 50 balance; loser keeps 50.
	if bal := mustBalance(t, ledger, sellerID); bal != 140 {
		t.Errorf("winner balance = %d, want 140", bal)
	}
	if bal := mustBalance(t, ledger, buyerID); bal != 50 {
		t.Errorf("loser balance = %d, want 50", bal)
	}
	var unsettled int64
	db.Model(&models.OddsBet{}).Where("matchup_id = ? AND settled = ?", m.ID, false).Count(&unsettled)
	if unsettled != 0 {
		t.Errorf("unsettled bets = %d, want 0", unsettled)
	}
	assertReconciled(t, ledger, sellerID, models.CurrencyCredits)
	assertReconciled(t, ledger, buyerID, models.CurrencyCredits)

	if _, err := odds.ResolveMatchup(m.ID); !errors.Is(err, ErrConflict) {
		t.Errorf("second resolve err=%v, want ErrConflict", err)
	}
	if _, err := odds.PlaceBet(sellerID, m.ID, models.SideA, 10); !errors.Is(err, ErrConflict) {
		t.Errorf("bet on resolved matchup err=%v, want ErrConflict", err)
	}
}

func TestSpinWheel(t *testing.T) {
	odds, _, _ := newOddsHarness(t, &stubRand{floats: []float64{0.9}})

	if _, err := odds.SpinWheel(nil); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("empty wheel err=%v, want ErrInvalidInput", err)
	}
	if _, err := odds.SpinWheel([]WheelOption{{Label: "Noir", Weight: 0}}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("zero weight err=%v, want ErrInvalidInput", err)
	}

	// Weights 1/1/2, roll 0.9 → cumulative 0.25, 0.5, 1.0 → last segment.
	idx, err := odds.SpinWheel([]WheelOption{
		{Label: "Noir", Weight: 1},
		{Label: "Western", Weight: 1},
		{Label: "Musical", Weight: 2},
	})
	if err != nil {
		t.Fatalf("spin: %v", err)
	}
	if idx != 2 {
		t.Errorf("index = %d, want 2", idx)
	}
}
