// services/marketplace_service.go
package services

import (
	"errors"
	"fmt"

	"movie-club-system/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MarketplaceService settles listings, buy orders and quicksells. Every
// commit follows the same shape: re-validate every referenced entity under
// row locks at the instant of commit, abort with zero side effects on any
// failure, otherwise apply every transfer inside the one transaction.
type MarketplaceService struct {
	DB       *gorm.DB
	Ledger   *LedgerService
	Quests   *QuestService
	Activity *ActivityService
}

func NewMarketplaceService(db *gorm.DB, ledger *LedgerService, quests *QuestService, activity *ActivityService) *MarketplaceService {
	return &MarketplaceService{DB: db, Ledger: ledger, Quests: quests, Activity: activity}
}

// lockCard loads a card under a row lock, mapping absence to ErrNotFound.
func lockCard(tx *gorm.DB, cardID string) (*models.Card, error) {
	var card models.Card
	if err := forUpdate(tx).Where("id = ?", cardID).First(&card).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("card no longer exists: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load card: %w", err)
	}
	return &card, nil
}

// cardIsListed reports whether a card currently has an active listing.
func cardIsListed(tx *gorm.DB, cardID string) (bool, error) {
	var n int64
	if err := tx.Model(&models.Listing{}).Where("card_id = ?", cardID).Count(&n).Error; err != nil {
		return false, fmt.Errorf("failed to check listing state: %w", err)
	}
	return n > 0, nil
}

// cardInPendingTrade reports whether a card sits on either side of a pending
// trade offer. The card ID slices are stored as JSON; a quoted-substring
// match is exact because card IDs are uuids.
func cardInPendingTrade(tx *gorm.DB, cardID string) (bool, error) {
	needle := "%\"" + cardID + "\"%"
	var n int64
	if err := tx.Model(&models.TradeOffer{}).
		Where("status = ?", models.TradePending).
		Where("offered_card_ids LIKE ? OR requested_card_ids LIKE ?", needle, needle).
		Count(&n).Error; err != nil {
		return false, fmt.Errorf("failed to check trade state: %w", err)
	}
	return n > 0, nil
}

// CreateListing puts a card up for sale.
func (s *MarketplaceService) CreateListing(sellerID, cardID string, askingPrice int64) (*models.Listing, error) {
	if askingPrice <= 0 {
		return nil, fmt.Errorf("asking price must be positive: %w", ErrInvalidInput)
	}
	var listing *models.Listing
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		card, err := lockCard(tx, cardID)
		if err != nil {
			return err
		}
		if card.UserID != sellerID {
			return fmt.Errorf("card is not yours to sell: %w", ErrConflict)
		}
		listed, err := cardIsListed(tx, cardID)
		if err != nil {
			return err
		}
		if listed {
			return fmt.Errorf("card is already listed: %w", ErrConflict)
		}
		inTrade, err := cardInPendingTrade(tx, cardID)
		if err != nil {
			return err
		}
		if inTrade {
			return fmt.Errorf("card is part of a pending trade: %w", ErrConflict)
		}
		l := models.Listing{
			ID:           uuid.NewString(),
			CardID:       cardID,
			SellerUserID: sellerID,
			AskingPrice:  askingPrice,
		}
		if err := tx.Create(&l).Error; err != nil {
			// Unique card_id index closes the race two creates could win.
			return fmt.Errorf("card is already listed: %w", ErrConflict)
		}
		listing = &l
		return nil
	})
	return listing, err
}

// Delist removes the seller's own listing. No transfers.
func (s *MarketplaceService) Delist(sellerID, listingID string) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		var l models.Listing
		if err := forUpdate(tx).Where("id = ?", listingID).First(&l).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("listing does not exist: %w", ErrNotFound)
			}
			return fmt.Errorf("failed to load listing: %w", err)
		}
		if l.SellerUserID != sellerID {
			return fmt.Errorf("listing is not yours: %w", ErrConflict)
		}
		if err := tx.Delete(&models.Listing{}, "id = ?", l.ID).Error; err != nil {
			return fmt.Errorf("failed to delist: %w", err)
		}
		return nil
	})
}

// Buy settles a marketplace purchase: debit buyer, credit seller, reassign
// the card, delete the listing — all or nothing.
func (s *MarketplaceService) Buy(buyerID, listingID string) (*models.Card, error) {
	var bought *models.Card
	var seller string
	var price int64

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var l models.Listing
		if err := forUpdate(tx).Where("id = ?", listingID).First(&l).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("listing no longer exists: %w", ErrNotFound)
			}
			return fmt.Errorf("failed to load listing: %w", err)
		}
		if l.SellerUserID == buyerID {
			return fmt.Errorf("cannot buy your own listing: %w", ErrConflict)
		}

		card, err := lockCard(tx, l.CardID)
		if err != nil {
			return err
		}
		// A card that moved out from under a stale listing is a conflict,
		// not a sale.
		if card.UserID != l.SellerUserID {
			return fmt.Errorf("card changed hands since it was listed: %w", ErrConflict)
		}

		if _, err := s.Ledger.DebitTx(tx, buyerID, models.CurrencyCredits, l.AskingPrice,
			models.ReasonMarketplaceBuy, models.LedgerMeta{ListingID: l.ID, CardID: card.ID, Counterparty: l.SellerUserID}); err != nil {
			return err
		}
		if _, err := s.Ledger.CreditTx(tx, l.SellerUserID, models.CurrencyCredits, l.AskingPrice,
			models.ReasonMarketplaceSale, models.LedgerMeta{ListingID: l.ID, CardID: card.ID, Counterparty: buyerID}); err != nil {
			return err
		}

		if err := tx.Model(&models.Card{}).Where("id = ?", card.ID).
			Update("user_id", buyerID).Error; err != nil {
			return fmt.Errorf("failed to transfer card: %w", err)
		}
		if err := tx.Delete(&models.Listing{}, "id = ?", l.ID).Error; err != nil {
			return fmt.Errorf("failed to remove listing: %w", err)
		}

		card.UserID = buyerID
		bought = card
		seller = l.SellerUserID
		price = l.AskingPrice
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Quests.Bump(seller, models.QuestMarketSales, 1)
	s.Activity.Record(seller, models.ActivityMarketSale,
		fmt.Sprintf("sold %s for %d credits", bought.CharacterName, price), price, bought.ID)
	return bought, nil
}

// CreateBuyOrder registers a standing request for any card of a pool entry.
// Funds are checked now for a sane UX but re-checked at fulfillment — time
// may pass and credits may be spent in between.
func (s *MarketplaceService) CreateBuyOrder(requesterID, poolEntryID string, offerPrice int64) (*models.BuyOrder, error) {
	if offerPrice < 0 {
		return nil, fmt.Errorf("offer price cannot be negative: %w", ErrInvalidInput)
	}
	var entry models.PoolEntry
	if err := s.DB.Where("id = ?", poolEntryID).First(&entry).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("character does not exist: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load pool entry: %w", err)
	}
	if offerPrice > 0 {
		bal, err := s.Ledger.GetBalance(requesterID, models.CurrencyCredits)
		if err != nil {
			return nil, err
		}
		if bal < offerPrice {
			return nil, fmt.Errorf("need %d credits to back this order, have %d: %w", offerPrice, bal, ErrInsufficientFunds)
		}
	}
	order := models.BuyOrder{
		ID:              uuid.NewString(),
		RequesterUserID: requesterID,
		PoolEntryID:     poolEntryID,
		OfferPrice:      offerPrice,
	}
	if err := s.DB.Create(&order).Error; err != nil {
		return nil, fmt.Errorf("failed to create buy order: %w", err)
	}
	return &order, nil
}

// CancelBuyOrder removes the requester's own order.
func (s *MarketplaceService) CancelBuyOrder(requesterID, orderID string) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		var order models.BuyOrder
		if err := forUpdate(tx).Where("id = ?", orderID).First(&order).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("buy order does not exist: %w", ErrNotFound)
			}
			return fmt.Errorf("failed to load buy order: %w", err)
		}
		if order.RequesterUserID != requesterID {
			return fmt.Errorf("buy order is not yours: %w", ErrConflict)
		}
		if err := tx.Delete(&models.BuyOrder{}, "id = ?", order.ID).Error; err != nil {
			return fmt.Errorf("failed to cancel buy order: %w", err)
		}
		return nil
	})
}

// FulfillBuyOrder hands a matching card to the requester in exchange for the
// offered price (which may be 0). The requester's funds are re-checked here,
// at commit time.
func (s *MarketplaceService) FulfillBuyOrder(fulfillerID, orderID, cardID string) error {
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var order models.BuyOrder
		if err := forUpdate(tx).Where("id = ?", orderID).First(&order).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("buy order no longer exists: %w", ErrNotFound)
			}
			return fmt.Errorf("failed to load buy order: %w", err)
		}
		if order.RequesterUserID == fulfillerID {
			return fmt.Errorf("cannot fulfill your own buy order: %w", ErrConflict)
		}

		card, err := lockCard(tx, cardID)
		if err != nil {
			return err
		}
		if card.UserID != fulfillerID {
			return fmt.Errorf("card is not yours: %w", ErrConflict)
		}
		if card.PoolEntryID != order.PoolEntryID {
			return fmt.Errorf("card does not match the requested character: %w", ErrInvalidInput)
		}
		listed, err := cardIsListed(tx, card.ID)
		if err != nil {
			return err
		}
		if listed {
			return fmt.Errorf("card is listed on the marketplace, delist it first: %w", ErrConflict)
		}

		if order.OfferPrice > 0 {
			if _, err := s.Ledger.DebitTx(tx, order.RequesterUserID, models.CurrencyCredits, order.OfferPrice,
				models.ReasonBuyOrderPayment, models.LedgerMeta{OrderID: order.ID, CardID: card.ID, Counterparty: fulfillerID}); err != nil {
				return err
			}
			if _, err := s.Ledger.CreditTx(tx, fulfillerID, models.CurrencyCredits, order.OfferPrice,
				models.ReasonBuyOrderPayout, models.LedgerMeta{OrderID: order.ID, CardID: card.ID, Counterparty: order.RequesterUserID}); err != nil {
				return err
			}
		}

		if err := tx.Model(&models.Card{}).Where("id = ?", card.ID).
			Update("user_id", order.RequesterUserID).Error; err != nil {
			return fmt.Errorf("failed to transfer card: %w", err)
		}
		if err := tx.Delete(&models.BuyOrder{}, "id = ?", order.ID).Error; err != nil {
			return fmt.Errorf("failed to close buy order: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.Quests.Bump(fulfillerID, models.QuestMarketSales, 1)
	return nil
}

// Quicksell table: base price by rarity, multiplied up for special finishes.
var quicksellBase = map[models.CardRarity]int64{
	models.RarityUncommon:  10,
	models.RarityRare:      40,
	models.RarityEpic:      150,
	models.RarityLegendary: 600,
}

var quicksellFinishMult = map[models.CardFinish]int64{
	models.FinishNormal:     1,
	models.FinishHolo:       2,
	models.FinishPrismatic:  4,
	models.FinishDarkMatter: 10,
}

// QuicksellValue prices a card for instant conversion to credits.
func QuicksellValue(rarity models.CardRarity, finish models.CardFinish) int64 {
	return quicksellBase[rarity] * quicksellFinishMult[finish]
}

// Quicksell converts an owned, unlisted card into credits and deletes it.
func (s *MarketplaceService) Quicksell(userID, cardID string) (value int64, newBalance int64, err error) {
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		card, err := lockCard(tx, cardID)
		if err != nil {
			return err
		}
		if card.UserID != userID {
			return fmt.Errorf("card is not yours: %w", ErrConflict)
		}
		listed, err := cardIsListed(tx, card.ID)
		if err != nil {
			return err
		}
		if listed {
			return fmt.Errorf("card is listed on the marketplace, delist it first: %w", ErrConflict)
		}

		value = QuicksellValue(card.Rarity, card.Finish)
		if err := tx.Delete(&models.Card{}, "id = ?", card.ID).Error; err != nil {
			return fmt.Errorf("failed to remove card: %w", err)
		}
		newBalance, err = s.Ledger.CreditTx(tx, userID, models.CurrencyCredits, value,
			models.ReasonQuicksell, models.LedgerMeta{CardID: card.ID})
		return err
	})
	return value, newBalance, err
}

// ListListings returns the open marketplace, newest first.
func (s *MarketplaceService) ListListings(limit int) ([]models.Listing, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var listings []models.Listing
	if err := s.DB.Order("created_at DESC").Limit(limit).Find(&listings).Error; err != nil {
		return nil, fmt.Errorf("failed to load listings: %w", err)
	}
	return listings, nil
}

// ListBuyOrders returns open buy orders, newest first.
func (s *MarketplaceService) ListBuyOrders(limit int) ([]models.BuyOrder, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var orders []models.BuyOrder
	if err := s.DB.Order("created_at DESC").Limit(limit).Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to load buy orders: %w", err)
	}
	return orders, nil
}
