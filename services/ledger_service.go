// services/ledger_service.go
package services

import (
	"fmt"
	"log"

	"movie-club-system/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LedgerService owns every balance mutation. Balances are only ever written
// here, always together with an append-only ledger entry in the same DB
// transaction, so the reconciliation invariant (sum of entries == balance)
// holds after any sequence of operations.
type LedgerService struct {
	DB *gorm.DB
}

func NewLedgerService(db *gorm.DB) *LedgerService {
	return &LedgerService{DB: db}
}

// ensureBalanceTx fetches the locked balance row for (user, currency),
// creating a zero row first if the user has never been seen (get-or-default).
func (s *LedgerService) ensureBalanceTx(tx *gorm.DB, userID string, currency models.Currency) (*models.UserBalance, error) {
	// Struct conditions, and the ID only via Attrs: gorm folds a non-zero
	// primary key on the dest into the query, which would miss the existing
	// row, and string conditions would not carry into the created record.
	var bal models.UserBalance
	if err := tx.Where(models.UserBalance{UserID: userID, Currency: currency}).
		Attrs(models.UserBalance{ID: uuid.NewString()}).
		FirstOrCreate(&bal).Error; err != nil {
		return nil, fmt.Errorf("failed to ensure balance row: %w", err)
	}
	// Re-read under lock: FirstOrCreate's read is not locked.
	var locked models.UserBalance
	if err := forUpdate(tx).Where("user_id = ? AND currency = ?", userID, currency).
		First(&locked).Error; err != nil {
		return nil, fmt.Errorf("failed to lock balance row: %w", err)
	}
	return &locked, nil
}

// CreditTx appends a positive ledger entry and raises the balance, inside the
// caller's transaction. Settlement paths use this to keep multi-party
// transfers atomic.
func (s *LedgerService) CreditTx(tx *gorm.DB, userID string, currency models.Currency, amount int64, reason string, meta models.LedgerMeta) (int64, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("credit amount must be a positive integer, got %d: %w", amount, ErrInvalidInput)
	}
	bal, err := s.ensureBalanceTx(tx, userID, currency)
	if err != nil {
		return 0, err
	}
	newBalance := bal.Balance + amount
	if err := tx.Model(&models.UserBalance{}).Where("id = ?", bal.ID).
		Update("balance", newBalance).Error; err != nil {
		return 0, fmt.Errorf("failed to apply credit: %w", err)
	}
	entry := models.LedgerEntry{
		ID:       uuid.NewString(),
		UserID:   userID,
		Currency: currency,
		Amount:   amount,
		Reason:   reason,
		Metadata: meta,
	}
	if err := tx.Create(&entry).Error; err != nil {
		return 0, fmt.Errorf("failed to append ledger entry: %w", err)
	}
	return newBalance, nil
}

// DebitTx appends a negative ledger entry and lowers the balance. The funds
// check happens on the locked row, so a concurrent debit cannot double-spend;
// on insufficient funds nothing is written.
func (s *LedgerService) DebitTx(tx *gorm.DB, userID string, currency models.Currency, amount int64, reason string, meta models.LedgerMeta) (int64, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("debit amount must be a positive integer, got %d: %w", amount, ErrInvalidInput)
	}
	bal, err := s.ensureBalanceTx(tx, userID, currency)
	if err != nil {
		return 0, err
	}
	if bal.Balance < amount {
		return 0, fmt.Errorf("need %d %s, have %d: %w", amount, currency, bal.Balance, ErrInsufficientFunds)
	}
	newBalance := bal.Balance - amount
	if err := tx.Model(&models.UserBalance{}).Where("id = ?", bal.ID).
		Update("balance", newBalance).Error; err != nil {
		return 0, fmt.Errorf("failed to apply debit: %w", err)
	}
	entry := models.LedgerEntry{
		ID:       uuid.NewString(),
		UserID:   userID,
		Currency: currency,
		Amount:   -amount,
		Reason:   reason,
		Metadata: meta,
	}
	if err := tx.Create(&entry).Error; err != nil {
		return 0, fmt.Errorf("failed to append ledger entry: %w", err)
	}
	return newBalance, nil
}

// Credit applies a standalone credit in its own transaction.
func (s *LedgerService) Credit(userID string, currency models.Currency, amount int64, reason string, meta models.LedgerMeta) (int64, error) {
	var newBalance int64
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		newBalance, err = s.CreditTx(tx, userID, currency, amount, reason, meta)
		return err
	})
	return newBalance, err
}

// Debit applies a standalone debit in its own transaction.
func (s *LedgerService) Debit(userID string, currency models.Currency, amount int64, reason string, meta models.LedgerMeta) (int64, error) {
	var newBalance int64
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		newBalance, err = s.DebitTx(tx, userID, currency, amount, reason, meta)
		return err
	})
	return newBalance, err
}

// GetBalanceTx reads the balance inside the caller's transaction, so a
// settlement can report it without grabbing a second pool connection.
func (s *LedgerService) GetBalanceTx(tx *gorm.DB, userID string, currency models.Currency) (int64, error) {
	bal, err := s.ensureBalanceTx(tx, userID, currency)
	if err != nil {
		return 0, err
	}
	return bal.Balance, nil
}

// GetBalance reads the committed balance, creating the zero row for unknown
// users so first reads never error.
func (s *LedgerService) GetBalance(userID string, currency models.Currency) (int64, error) {
	if !models.ValidCurrency(currency) {
		return 0, fmt.Errorf("unknown currency %q: %w", currency, ErrInvalidInput)
	}
	var bal models.UserBalance
	if err := s.DB.Where(models.UserBalance{UserID: userID, Currency: currency}).
		Attrs(models.UserBalance{ID: uuid.NewString()}).
		FirstOrCreate(&bal).Error; err != nil {
		return 0, fmt.Errorf("failed to read balance: %w", err)
	}
	return bal.Balance, nil
}

// GetHistory returns the newest ledger entries for a user, all currencies.
func (s *LedgerService) GetHistory(userID string, limit int) ([]models.LedgerEntry, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var entries []models.LedgerEntry
	if err := s.DB.Where("user_id = ?", userID).
		Order("created_at DESC").Limit(limit).Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("failed to load ledger history: %w", err)
	}
	return entries, nil
}

// Reconcile verifies the balance invariant for one (user, currency).
// Admin-facing; logs and reports a mismatch rather than repairing it.
func (s *LedgerService) Reconcile(userID string, currency models.Currency) (entrySum, balance int64, ok bool, err error) {
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		bal, lockErr := s.ensureBalanceTx(tx, userID, currency)
		if lockErr != nil {
			return lockErr
		}
		balance = bal.Balance
		row := tx.Model(&models.LedgerEntry{}).
			Where("user_id = ? AND currency = ?", userID, currency).
			Select("COALESCE(SUM(amount), 0)").Row()
		return row.Scan(&entrySum)
	})
	if err != nil {
		return 0, 0, false, fmt.Errorf("reconcile failed: %w", err)
	}
	ok = entrySum == balance
	if !ok {
		log.Printf("🚨 [LEDGER] reconciliation mismatch for %s/%s: entries=%d balance=%d", userID, currency, entrySum, balance)
	}
	return entrySum, balance, ok, nil
}
