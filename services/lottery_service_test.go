// services/lottery_service_test.go
package services

import (
	"errors"
	"testing"
	"time"

	"movie-club-system/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// pastDrawID is a Sunday long gone, so ResolveDraw treats it as closed.
const pastDrawID = "2020-01-05"

func newLotteryHarness(t *testing.T, rng Rand, cfg CasinoConfig) (*LotteryService, *LedgerService, *QuestService, *gorm.DB) {
	t.Helper()
	db := testDB(t)
	ledger := NewLedgerService(db)
	quests := NewQuestService(db, ledger)
	activity := NewActivityService(db)
	lottery := NewLotteryService(db, ledger, quests, activity, rng, cfg)
	return lottery, ledger, quests, db
}

func seedTickets(t *testing.T, db *gorm.DB, drawID, userID, userName string, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		ticket := models.LotteryTicket{
			ID:       uuid.NewString(),
			DrawID:   drawID,
			UserID:   userID,
			UserName: userName,
			Price:    25,
		}
		if err := db.Create(&ticket).Error; err != nil {
			t.Fatalf("seed ticket: %v", err)
		}
	}
}

func TestDrawPeriodEnd(t *testing.T) {
	// Wednesday → the coming Sunday.
	wed := time.Date(2026, 8, 26, 15, 0, 0, 0, time.UTC)
	if got := drawIDFor(wed); got != "2026-08-30" {
		t.Errorf("drawIDFor(wednesday) = %s, want 2026-08-30", got)
	}
	// Sunday itself belongs to the period ending the FOLLOWING Sunday.
	sun := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)
	if got := drawIDFor(sun); got != "2026-09-06" {
		t.Errorf("drawIDFor(sunday) = %s, want 2026-09-06", got)
	}
}

func TestLotteryBuyTickets(t *testing.T) {
	lottery, ledger, quests, _ := newLotteryHarness(t, &stubRand{}, DefaultCasinoConfig())
	seedCredits(t, ledger, sellerID, 100)

	res, err := lottery.BuyTickets(sellerID, "seller", 3)
	if err != nil {
		t.Fatalf("buy: %v", err)
	}
	if res.TotalCost != 75 || res.NewBalance != 25 {
		t.Errorf("cost=%d balance=%d, want 75 25", res.TotalCost, res.NewBalance)
	}
	if res.MyTickets != 3 {
		t.Errorf("my tickets = %d, want 3", res.MyTickets)
	}
	// 3 tickets at 25 on top of the 500 seed.
	if res.PrizePool != 575 {
		t.Errorf("prize pool = %d, want 575", res.PrizePool)
	}
	if got := questCount(t, quests, sellerID, models.QuestLotteryTickets); got != 3 {
		t.Errorf("lottery quest progress = %d, want 3", got)
	}
	assertReconciled(t, ledger, sellerID, models.CurrencyCredits)
}

func TestLotteryBuyTicketsValidation(t *testing.T) {
	lottery, ledger, _, _ := newLotteryHarness(t, &stubRand{}, DefaultCasinoConfig())
	seedCredits(t, ledger, sellerID, 10000)

	if _, err := lottery.BuyTickets(sellerID, "seller", 0); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("count 0 err=%v, want ErrInvalidInput", err)
	}
	if _, err := lottery.BuyTickets(sellerID, "seller", 101); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("count 101 err=%v, want ErrInvalidInput", err)
	}
	if _, err := lottery.BuyTickets(buyerID, "buyer", 1); !errors.Is(err, ErrInsufficientFunds) {
		t.Errorf("broke buyer err=%v, want ErrInsufficientFunds", err)
	}
}

func TestLotteryPoolCapStopsSales(t *testing.T) {
	cfg := DefaultCasinoConfig()
	cfg.LotteryPoolCap = cfg.LotteryStartingPool // cap met before a single sale
	lottery, ledger, _, _ := newLotteryHarness(t, &stubRand{}, cfg)
	seedCredits(t, ledger, sellerID, 100)

	if _, err := lottery.BuyTickets(sellerID, "seller", 1); !errors.Is(err, ErrConflict) {
		t.Fatalf("buy at cap err=%v, want ErrConflict", err)
	}
	if bal := mustBalance(t, ledger, sellerID); bal != 100 {
		t.Errorf("balance = %d after refused sale, want 100", bal)
	}
}

func TestLotteryResolveDrawPaysWinnerOnce(t *testing.T) {
	lottery, ledger, _, db := newLotteryHarness(t, &stubRand{ints: []int{1}}, DefaultCasinoConfig())
	seedTickets(t, db, pastDrawID, sellerID, "seller", 3)

	draw, err := lottery.ResolveDraw(pastDrawID)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !draw.Resolved || draw.WinnerUserID == nil || *draw.WinnerUserID != sellerID {
		t.Fatalf("draw = %+v, want resolved with winner %s", draw, sellerID)
	}
	// 3 tickets at 25 plus the 500 seed.
	if draw.PrizePool != 575 {
		t.Errorf("prize pool = %d, want 575", draw.PrizePool)
	}
	if bal := mustBalance(t, ledger, sellerID); bal != 575 {
		t.Errorf("winner balance = %d, want 575", bal)
	}

	// Resolving again returns the stored result without paying twice.
	again, err := lottery.ResolveDraw(pastDrawID)
	if err != nil {
		t.Fatalf("second resolve: %v", err)
	}
	if again.WinnerUserID == nil || *again.WinnerUserID != sellerID {
		t.Error("second resolve lost the stored winner")
	}
	if bal := mustBalance(t, ledger, sellerID); bal != 575 {
		t.Errorf("winner balance = %d after repeat resolve, want 575", bal)
	}
	assertReconciled(t, ledger, sellerID, models.CurrencyCredits)
}

func TestLotteryResolveRefusesOpenDraw(t *testing.T) {
	lottery, _, _, _ := newLotteryHarness(t, &stubRand{}, DefaultCasinoConfig())
	future := drawIDFor(time.Now())
	if _, err := lottery.ResolveDraw(future); !errors.Is(err, ErrConflict) {
		t.Errorf("resolving the open draw err=%v, want ErrConflict", err)
	}
	if _, err := lottery.ResolveDraw("not-a-date"); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("malformed draw id err=%v, want ErrInvalidInput", err)
	}
}

func TestLotteryWinnerlessDrawRollsOver(t *testing.T) {
	lottery, _, _, db := newLotteryHarness(t, &stubRand{}, DefaultCasinoConfig())

	draw, err := lottery.ResolveDraw(pastDrawID)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !draw.Resolved || draw.WinnerUserID != nil || draw.PrizePool != 0 {
		t.Fatalf("draw = %+v, want resolved with no winner and empty pool", draw)
	}

	var next models.LotteryDraw
	if err := db.First(&next, "id = ?", "2020-01-12").Error; err != nil {
		t.Fatalf("load next draw: %v", err)
	}
	// Its own 500 seed plus the 500 nobody won.
	if next.StartingPool != 1000 {
		t.Errorf("next starting pool = %d, want 1000", next.StartingPool)
	}
}
