// services/casino_service_test.go
package services

import (
	"context"
	"errors"
	"testing"

	"movie-club-system/models"
)

func newCasinoHarness(t *testing.T, rng Rand) (*CasinoService, *LedgerService, *QuestService) {
	t.Helper()
	db := testDB(t)
	ledger := NewLedgerService(db)
	quests := NewQuestService(db, ledger)
	activity := NewActivityService(db)
	casino := NewCasinoService(db, ledger, quests, activity, rng, DefaultCasinoConfig())
	return casino, ledger, quests
}

func questCount(t *testing.T, quests *QuestService, userID, key string) int64 {
	t.Helper()
	views, err := quests.GetAll(userID)
	if err != nil {
		t.Fatalf("quest views: %v", err)
	}
	for _, v := range views {
		if v.Key == key {
			return v.Count
		}
	}
	return 0
}

func TestSpinSlotsJackpotSettlement(t *testing.T) {
	// Three Intn draws of 0 map to "7","7","7".
	casino, ledger, quests := newCasinoHarness(t, &stubRand{ints: []int{0, 0, 0}})
	user := "11111111-1111-1111-1111-111111111111"
	seedCredits(t, ledger, user, 100)

	res, err := casino.SpinSlots(user, 10)
	if err != nil {
		t.Fatalf("spin: %v", err)
	}
	if res.Symbols != [3]string{"7", "7", "7"} {
		t.Fatalf("symbols = %v, want triple 7", res.Symbols)
	}
	if !res.Won || res.Payout != 430 {
		t.Errorf("payout=%d won=%v, want 430 true", res.Payout, res.Won)
	}
	if res.NewBalance != 520 {
		t.Errorf("new balance = %d, want 520", res.NewBalance)
	}
	if n := questCount(t, quests, user, models.QuestCasinoGames); n != 1 {
		t.Errorf("casino quest count = %d, want 1", n)
	}
	assertReconciled(t, ledger, user, models.CurrencyCredits)
}

func TestSpinSlotsRejectsBadBet(t *testing.T) {
	casino, ledger, _ := newCasinoHarness(t, &stubRand{})
	user := "11111111-1111-1111-1111-111111111111"
	seedCredits(t, ledger, user, 100)

	if _, err := casino.SpinSlots(user, 7); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("off-list bet err=%v, want ErrInvalidInput", err)
	}
	if bal := mustBalance(t, ledger, user); bal != 100 {
		t.Errorf("balance after rejected bet = %d, want 100", bal)
	}
}

func TestSpinSlotsInsufficientFunds(t *testing.T) {
	casino, ledger, quests := newCasinoHarness(t, &stubRand{ints: []int{0, 1, 2}})
	user := "11111111-1111-1111-1111-111111111111"

	if _, err := casino.SpinSlots(user, 10); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("broke spin err=%v, want ErrInsufficientFunds", err)
	}
	if n := questCount(t, quests, user, models.QuestCasinoGames); n != 0 {
		t.Errorf("failed spin bumped quest to %d, want 0", n)
	}
	assertReconciled(t, ledger, user, models.CurrencyCredits)
}

func TestSpinRouletteStraightHit(t *testing.T) {
	casino, ledger, _ := newCasinoHarness(t, &stubRand{ints: []int{14}})
	user := "11111111-1111-1111-1111-111111111111"
	seedCredits(t, ledger, user, 100)

	res, err := casino.SpinRoulette(user, 10, "14")
	if err != nil {
		t.Fatalf("spin: %v", err)
	}
	if res.Result != 14 || !res.Won || res.Payout != 360 {
		t.Errorf("result=%d payout=%d won=%v, want 14 360 true", res.Result, res.Payout, res.Won)
	}
	if res.NewBalance != 450 {
		t.Errorf("new balance = %d, want 450", res.NewBalance)
	}
	assertReconciled(t, ledger, user, models.CurrencyCredits)
}

func TestSpinRouletteColorLossOnZero(t *testing.T) {
	casino, ledger, _ := newCasinoHarness(t, &stubRand{ints: []int{0}})
	user := "11111111-1111-1111-1111-111111111111"
	seedCredits(t, ledger, user, 100)

	res, err := casino.SpinRoulette(user, 10, "red")
	if err != nil {
		t.Fatalf("spin: %v", err)
	}
	if res.Won || res.Payout != 0 || res.Color != "green" {
		t.Errorf("zero pocket: payout=%d won=%v color=%s, want 0 false green", res.Payout, res.Won, res.Color)
	}
	if res.NewBalance != 90 {
		t.Errorf("new balance = %d, want 90", res.NewBalance)
	}
}

func TestSpinRouletteRejectsMalformedSelectionBeforeDebit(t *testing.T) {
	casino, ledger, _ := newCasinoHarness(t, &stubRand{ints: []int{5}})
	user := "11111111-1111-1111-1111-111111111111"
	seedCredits(t, ledger, user, 100)

	if _, err := casino.SpinRoulette(user, 10, "oops"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("bad selection err=%v, want ErrInvalidInput", err)
	}
	if bal := mustBalance(t, ledger, user); bal != 100 {
		t.Errorf("balance after rejected selection = %d, want 100", bal)
	}
}

func TestScratchBuySettlement(t *testing.T) {
	db := testDB(t)
	ledger := NewLedgerService(db)
	quests := NewQuestService(db, ledger)
	limiter := newFakeLimiter()
	// Losing roll.
	scratch := NewScratchService(db, ledger, quests, limiter, &stubRand{floats: []float64{0.999}}, DefaultCasinoConfig())
	user := "11111111-1111-1111-1111-111111111111"
	seedCredits(t, ledger, user, 50)

	res, err := scratch.BuyTicket(context.Background(), user)
	if err != nil {
		t.Fatalf("buy: %v", err)
	}
	if res.Won || res.Payout != 0 {
		t.Errorf("losing ticket: payout=%d won=%v", res.Payout, res.Won)
	}
	if res.NewBalance != 40 {
		t.Errorf("new balance = %d, want 40", res.NewBalance)
	}
	if n := questCount(t, quests, user, models.QuestCasinoGames); n != 1 {
		t.Errorf("quest count = %d, want 1", n)
	}
	assertReconciled(t, ledger, user, models.CurrencyCredits)
}

func TestScratchDailyLimit(t *testing.T) {
	db := testDB(t)
	ledger := NewLedgerService(db)
	quests := NewQuestService(db, ledger)
	limiter := newFakeLimiter()
	cfg := DefaultCasinoConfig()
	cfg.ScratchDailyLimit = 2
	scratch := NewScratchService(db, ledger, quests, limiter, &stubRand{floats: []float64{0.999, 0.999, 0.999}}, cfg)
	user := "11111111-1111-1111-1111-111111111111"
	seedCredits(t, ledger, user, 100)

	for i := 0; i < 2; i++ {
		if _, err := scratch.BuyTicket(context.Background(), user); err != nil {
			t.Fatalf("buy %d: %v", i+1, err)
		}
	}
	if _, err := scratch.BuyTicket(context.Background(), user); !errors.Is(err, ErrConflict) {
		t.Fatalf("third ticket err=%v, want ErrConflict", err)
	}
	if bal := mustBalance(t, ledger, user); bal != 80 {
		t.Errorf("balance = %d, want 80 (two tickets sold)", bal)
	}
}

func TestScratchRefundsDailySlotOnFailedDebit(t *testing.T) {
	db := testDB(t)
	ledger := NewLedgerService(db)
	quests := NewQuestService(db, ledger)
	limiter := newFakeLimiter()
	scratch := NewScratchService(db, ledger, quests, limiter, &stubRand{floats: []float64{0.999}}, DefaultCasinoConfig())
	user := "11111111-1111-1111-1111-111111111111"

	if _, err := scratch.BuyTicket(context.Background(), user); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("broke buy err=%v, want ErrInsufficientFunds", err)
	}
	for key, n := range limiter.counts {
		if n != 0 {
			t.Errorf("limiter slot %s = %d after failed sale, want 0", key, n)
		}
	}
}
