// services/testutil_test.go
package services

import (
	"context"
	"testing"

	"movie-club-system/models"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// stubRand feeds scripted values to the engines. Past the script it falls
// back to fixed mid-range values; Shuffle is a no-op so layouts stay in
// construction order.
type stubRand struct {
	floats []float64
	ints   []int
}

func (s *stubRand) Float64() float64 {
	if len(s.floats) > 0 {
		v := s.floats[0]
		s.floats = s.floats[1:]
		return v
	}
	return 0.5
}

func (s *stubRand) Intn(n int) int {
	if len(s.ints) > 0 {
		v := s.ints[0]
		s.ints = s.ints[1:]
		return v % n
	}
	return 0
}

func (s *stubRand) Shuffle(n int, swap func(i, j int)) {}

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	if err := db.AutoMigrate(
		&models.UserBalance{},
		&models.LedgerEntry{},
		&models.PoolEntry{},
		&models.Card{},
		&models.Listing{},
		&models.BuyOrder{},
		&models.TradeOffer{},
		&models.BlackjackSession{},
		&models.LotteryDraw{},
		&models.LotteryTicket{},
		&models.PackDefinition{},
		&models.OddsMatchup{},
		&models.OddsBet{},
		&models.QuestProgress{},
		&models.ActivityEvent{},
	); err != nil {
		t.Fatalf("failed to migrate test db: %v", err)
	}
	return db
}

// fakeLimiter counts in memory.
type fakeLimiter struct {
	counts map[string]int64
}

func newFakeLimiter() *fakeLimiter {
	return &fakeLimiter{counts: map[string]int64{}}
}

func (f *fakeLimiter) Incr(_ context.Context, key string) (int64, error) {
	f.counts[key]++
	return f.counts[key], nil
}

func (f *fakeLimiter) Decr(_ context.Context, key string) error {
	f.counts[key]--
	return nil
}

// fakeLocks always grants.
type fakeLocks struct{}

func (fakeLocks) Acquire(_ context.Context, _ string) (string, bool, error) {
	return "tok", true, nil
}

func (fakeLocks) Release(_ context.Context, _, _ string) error { return nil }

func seedCredits(t *testing.T, ledger *LedgerService, userID string, amount int64) {
	t.Helper()
	if _, err := ledger.Credit(userID, models.CurrencyCredits, amount, models.ReasonAdminGrant, models.LedgerMeta{}); err != nil {
		t.Fatalf("failed to seed credits for %s: %v", userID, err)
	}
}

func mustBalance(t *testing.T, ledger *LedgerService, userID string) int64 {
	t.Helper()
	bal, err := ledger.GetBalance(userID, models.CurrencyCredits)
	if err != nil {
		t.Fatalf("failed to read balance: %v", err)
	}
	return bal
}

func seedPoolEntry(t *testing.T, db *gorm.DB, name string, rarity models.CardRarity) *models.PoolEntry {
	t.Helper()
	entry := models.PoolEntry{
		ID:            uuid.NewString(),
		CharacterName: name,
		ActorName:     "Test Actor",
		MovieTitle:    "Test Movie",
		Rarity:        rarity,
	}
	if err := db.Create(&entry).Error; err != nil {
		t.Fatalf("failed to seed pool entry: %v", err)
	}
	return &entry
}

func mintTestCard(t *testing.T, db *gorm.DB, userID string, entry *models.PoolEntry, finish models.CardFinish) *models.Card {
	t.Helper()
	card := models.Card{
		ID:            uuid.NewString(),
		UserID:        userID,
		PoolEntryID:   entry.ID,
		Rarity:        entry.Rarity,
		Finish:        finish,
		CharacterName: entry.CharacterName,
		ActorName:     entry.ActorName,
		MovieTitle:    entry.MovieTitle,
	}
	if err := db.Create(&card).Error; err != nil {
		t.Fatalf("failed to mint test card: %v", err)
	}
	return &card
}

func assertReconciled(t *testing.T, ledger *LedgerService, userID string, currency models.Currency) {
	t.Helper()
	entrySum, balance, ok, err := ledger.Reconcile(userID, currency)
	if err != nil {
		t.Fatalf("reconcile failed: %v", err)
	}
	if !ok {
		t.Fatalf("ledger out of balance for %s/%s: entries=%d balance=%d", userID, currency, entrySum, balance)
	}
}
