// services/trade_service.go
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

// TradeService handles bilateral offers: cards and/or credits both ways.
// Accept is a full settlement — everything is re-validated under locks at
// commit time and all transfers land in one transaction or none do.
type TradeService struct {
	DB       *gorm.DB
	Ledger   *LedgerService
	Quests   *QuestService
	Activity *ActivityService
}

func NewTradeService(db *gorm.DB, ledger *LedgerService, quests *QuestService, activity *ActivityService) *TradeService {
	return &TradeService{DB: db, Ledger: ledger, Quests: quests, Activity: activity}
}

// Create opens a pending offer. Card ownership and listing state are checked
// now for a sane UX, and checked again at accept — the snapshot is never
// trusted at commit time.
func (s *TradeService) Create(initiatorID, counterpartyID string, offeredCardIDs, requestedCardIDs []string, offeredCredits, requestedCredits int64) (*models.TradeOffer, error) {
	if initiatorID == counterpartyID {
		return nil, fmt.Errorf("cannot trade with yourself: %w", ErrInvalidInput)
	}
	if offeredCredits < 0 || requestedCredits < 0 {
		return nil, fmt.Errorf("credit amounts cannot be negative: %w", ErrInvalidInput)
	}
	if len(offeredCardIDs) == 0 && offeredCredits == 0 {
		return nil, fmt.Errorf("your side of the trade is empty: %w", ErrInvalidInput)
	}
	if len(requestedCardIDs) == 0 && requestedCredits == 0 {
		return nil, fmt.Errorf("the requested side of the trade is empty: %w", ErrInvalidInput)
	}

	var trade *models.TradeOffer
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := s.checkSide(tx, offeredCardIDs, initiatorID); err != nil {
			return err
		}
		if err := s.checkSide(tx, requestedCardIDs, counterpartyID); err != nil {
			return err
		}
		t := models.TradeOffer{
			ID:                 uuid.NewString(),
			InitiatorUserID:    initiatorID,
			CounterpartyUserID: counterpartyID,
			OfferedCardIDs:     offeredCardIDs,
			RequestedCardIDs:   requestedCardIDs,
			OfferedCredits:     offeredCredits,
			RequestedCredits:   requestedCredits,
			Status:             models.TradePending,
		}
		if err := tx.Create(&t).Error; err != nil {
			return fmt.Errorf("failed to create trade: %w", err)
		}
		trade = &t
		return nil
	})
	return trade, err
}

// checkSide verifies every card exists, belongs to owner and is not listed.
func (s *TradeService) checkSide(tx *gorm.DB, cardIDs []string, ownerID string) error {
	for _, id := range cardIDs {
		card, err := lockCard(tx, id)
		if err != nil {
			return err
		}
		if card.UserID != ownerID {
			return fmt.Errorf("card %s is not owned by its side of the trade: %w", id, ErrConflict)
		}
		listed, err := cardIsListed(tx, id)
		if err != nil {
			return err
		}
		if listed {
			return fmt.Errorf("card %s is listed on the marketplace: %w", id, ErrConflict)
		}
	}
	return nil
}

// lockPending loads a trade under lock and requires pending status.
func (s *TradeService) lockPending(tx *gorm.DB, tradeID string) (*models.TradeOffer, error) {
	var t models.TradeOffer
	if err := forUpdate(tx).Where("id = ?", tradeID).First(&t).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("trade does not exist: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load trade: %w", err)
	}
	if t.Status != models.TradePending {
		return nil, fmt.Errorf("trade is already %s: %w", t.Status, ErrConflict)
	}
	return &t, nil
}

// collectSide re-validates one side's cards at commit time. Cards that no
// longer exist are silently dropped (a quicksell or admin removal may have
// raced the trade); a surviving card in the wrong hands or on the
// marketplace aborts the settlement.
func (s *TradeService) collectSide(tx *gorm.DB, cardIDs []string, ownerID string) ([]*models.Card, error) {
	kept := make([]*models.Card, 0, len(cardIDs))
	for _, id := range cardIDs {
		card, err := lockCard(tx, id)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if card.UserID != ownerID {
			return nil, fmt.Errorf("card %s changed hands since the offer: %w", id, ErrConflict)
		}
		listed, err := cardIsListed(tx, id)
		if err != nil {
			return nil, err
		}
		if listed {
			return nil, fmt.Errorf("card %s is listed on the marketplace: %w", id, ErrConflict)
		}
		kept = append(kept, card)
	}
	return kept, nil
}

// Accept settles the trade. Counterparty only, pending only.
func (s *TradeService) Accept(tradeID, userID string) error {
	var initiator, counterparty string
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		t, err := s.lockPending(tx, tradeID)
		if err != nil {
			return err
		}
		if t.CounterpartyUserID != userID {
			return fmt.Errorf("only the receiving side can accept: %w", ErrConflict)
		}

		offered, err := s.collectSide(tx, t.OfferedCardIDs, t.InitiatorUserID)
		if err != nil {
			return err
		}
		requested, err := s.collectSide(tx, t.RequestedCardIDs, t.CounterpartyUserID)
		if err != nil {
			return err
		}
		// Tolerating vanished cards must not turn the trade into a no-op.
		if len(offered) == 0 && len(requested) == 0 && t.OfferedCredits == 0 && t.RequestedCredits == 0 {
			return fmt.Errorf("nothing left to trade: %w", ErrConflict)
		}

		meta := models.LedgerMeta{TradeID: t.ID}
		if t.OfferedCredits > 0 {
			meta.Counterparty = t.CounterpartyUserID
			if _, err := s.Ledger.DebitTx(tx, t.InitiatorUserID, models.CurrencyCredits, t.OfferedCredits, models.ReasonTrade, meta); err != nil {
				return err
			}
			meta.Counterparty = t.InitiatorUserID
			if _, err := s.Ledger.CreditTx(tx, t.CounterpartyUserID, models.CurrencyCredits, t.OfferedCredits, models.ReasonTrade, meta); err != nil {
				return err
			}
		}
		if t.RequestedCredits > 0 {
			meta.Counterparty = t.InitiatorUserID
			if _, err := s.Ledger.DebitTx(tx, t.CounterpartyUserID, models.CurrencyCredits, t.RequestedCredits, models.ReasonTrade, meta); err != nil {
				return err
			}
			meta.Counterparty = t.CounterpartyUserID
			if _, err := s.Ledger.CreditTx(tx, t.InitiatorUserID, models.CurrencyCredits, t.RequestedCredits, models.ReasonTrade, meta); err != nil {
				return err
			}
		}

		for _, card := range offered {
			if err := tx.Model(&models.Card{}).Where("id = ?", card.ID).
				Update("user_id", t.CounterpartyUserID).Error; err != nil {
				return fmt.Errorf("failed to transfer card %s: %w", card.ID, err)
			}
		}
		for _, card := range requested {
			if err := tx.Model(&models.Card{}).Where("id = ?", card.ID).
				Update("user_id", t.InitiatorUserID).Error; err != nil {
				return fmt.Errorf("failed to transfer card %s: %w", card.ID, err)
			}
		}

		now := time.Now()
		t.Status = models.TradeAccepted
		t.ResolvedAt = &now
		if err := tx.Save(t).Error; err != nil {
			return fmt.Errorf("failed to store acceptance: %w", err)
		}
		initiator = t.InitiatorUserID
		counterparty = t.CounterpartyUserID
		return nil
	})
	if err != nil {
		return err
	}

	s.Quests.Bump(initiator, models.QuestTradesComplete, 1)
	s.Quests.Bump(counterparty, models.QuestTradesComplete, 1)
	s.Activity.Record(initiator, models.ActivityTradeDone, "trade completed", 0, tradeID)
	s.Activity.Record(counterparty, models.ActivityTradeDone, "trade completed", 0, tradeID)
	return nil
}

// Deny rejects the offer. Counterparty only, pending only, no transfers.
func (s *TradeService) Deny(tradeID, userID string) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		t, err := s.lockPending(tx, tradeID)
		if err != nil {
			return err
		}
		if t.CounterpartyUserID != userID {
			return fmt.Errorf("only the receiving side can deny: %w", ErrConflict)
		}
		now := time.Now()
		t.Status = models.TradeDenied
		t.ResolvedAt = &now
		if err := tx.Save(t).Error; err != nil {
			return fmt.Errorf("failed to store denial: %w", err)
		}
		return nil
	})
}

// Cancel withdraws a pending offer. Initiator only; the row is removed.
func (s *TradeService) Cancel(tradeID, userID string) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		t, err := s.lockPending(tx, tradeID)
		if err != nil {
			return err
		}
		if t.InitiatorUserID != userID {
			return fmt.Errorf("only the offering side can cancel: %w", ErrConflict)
		}
		if err := tx.Delete(&models.TradeOffer{}, "id = ?", t.ID).Error; err != nil {
			return fmt.Errorf("failed to cancel trade: %w", err)
		}
		return nil
	})
}

// ListFor returns a user's trades, both directions, newest first.
func (s *TradeService) ListFor(userID string, limit int) ([]models.TradeOffer, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var trades []models.TradeOffer
	if err := s.DB.Where("initiator_user_id = ? OR counterparty_user_id = ?", userID, userID).
		Order("created_at DESC").Limit(limit).Find(&trades).Error; err != nil {
		return nil, fmt.Errorf("failed to load trades: %w", err)
	}
	return trades, nil
}

// ExpireStale denies pending offers older than maxAge. Run from the
// scheduler so dead offers don't pin cards forever.
func (s *TradeService) ExpireStale(maxAge time.Duration) {
	cutoff := time.Now().Add(-maxAge)
	res := s.DB.Model(&models.TradeOffer{}).
		Where("status = ? AND created_at < ?", models.TradePending, cutoff).
		Updates(map[string]interface{}{"status": models.TradeDenied, "resolved_at": time.Now()})
	if res.Error != nil {
		log.Printf("[Trades] failed to expire stale offers: %v", res.Error)
		return
	}
	if res.RowsAffected > 0 {
		log.Printf("🧹 [Trades] expired %d stale pending offer(s)", res.RowsAffected)
	}
}
