// services/pack_service.go
package services

import (
	"errors"
	"fmt"

	"movie-club-system/models"
	"movie-club-system/utils"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gorm.io/gorm"
)

// PackService sells and opens packs: debit the price, draw N cards from the
// filtered pool weighted by rarity tier, roll each card's finish, mint the
// rows. The weighted-choice engine and the ledger compose here.
type PackService struct {
	DB       *gorm.DB
	Ledger   *LedgerService
	Quests   *QuestService
	Activity *ActivityService
	RNG      Rand
	Cfg      CasinoConfig
}

func NewPackService(db *gorm.DB, ledger *LedgerService, quests *QuestService, activity *ActivityService, rng Rand, cfg CasinoConfig) *PackService {
	return &PackService{DB: db, Ledger: ledger, Quests: quests, Activity: activity, RNG: rng, Cfg: cfg}
}

// DrawRarity picks a rarity tier from the weighted table, restricted to the
// tiers present in eligible.
func DrawRarity(rng Rand, weights map[models.CardRarity]int64, eligible []models.CardRarity) models.CardRarity {
	var total int64
	ws := make([]int64, len(eligible))
	for i, r := range eligible {
		ws[i] = weights[r]
		total += weights[r]
	}
	if total == 0 {
		return eligible[rng.Intn(len(eligible))]
	}
	return eligible[weightedIndex(rng, ws, total)]
}

// DrawFinish rolls the presentation tier.
func DrawFinish(rng Rand, weights map[models.CardFinish]int64) models.CardFinish {
	order := []models.CardFinish{models.FinishNormal, models.FinishHolo, models.FinishPrismatic, models.FinishDarkMatter}
	var total int64
	ws := make([]int64, len(order))
	for i, f := range order {
		ws[i] = weights[f]
		total += weights[f]
	}
	return order[weightedIndex(rng, ws, total)]
}

// mintCard creates one card from a pool entry.
func (s *PackService) mintCard(tx *gorm.DB, userID string, entry *models.PoolEntry, finish models.CardFinish) (*models.Card, error) {
	imageURL := entry.ImageURL
	if imageURL == "" {
		imageURL = utils.CardArtURL(entry.CharacterName)
	}
	card := models.Card{
		ID:            uuid.NewString(),
		UserID:        userID,
		PoolEntryID:   entry.ID,
		Rarity:        entry.Rarity,
		Finish:        finish,
		CharacterName: entry.CharacterName,
		ActorName:     entry.ActorName,
		MovieTitle:    entry.MovieTitle,
		ImageURL:      imageURL,
	}
	if err := tx.Create(&card).Error; err != nil {
		return nil, fmt.Errorf("failed to mint card: %w", err)
	}
	return &card, nil
}

type PackOpenResult struct {
	Cards      []models.Card `json:"cards"`
	NewBalance int64         `json:"new_balance"`
}

// OpenPack buys and opens a pack in one settlement.
func (s *PackService) OpenPack(userID, packID string) (*PackOpenResult, error) {
	var def models.PackDefinition
	if err := s.DB.Where("id = ? AND is_active = ?", packID, true).First(&def).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("pack does not exist: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load pack: %w", err)
	}

	// Group the eligible pool by rarity up front; the draw needs to know
	// which tiers actually have entries.
	rarities := def.RarityFilter
	if len(rarities) == 0 {
		rarities = []models.CardRarity{models.RarityUncommon, models.RarityRare, models.RarityEpic, models.RarityLegendary}
	}
	var pool []models.PoolEntry
	if err := s.DB.Where("rarity IN ?", rarities).Find(&pool).Error; err != nil {
		return nil, fmt.Errorf("failed to load card pool: %w", err)
	}
	byRarity := make(map[models.CardRarity][]models.PoolEntry)
	for _, e := range pool {
		byRarity[e.Rarity] = append(byRarity[e.Rarity], e)
	}
	eligible := make([]models.CardRarity, 0, len(byRarity))
	for _, r := range rarities {
		if len(byRarity[r]) > 0 {
			eligible = append(eligible, r)
		}
	}
	if len(eligible) == 0 {
		return nil, fmt.Errorf("card pool is empty for this pack: %w", ErrConflict)
	}

	res := &PackOpenResult{}
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		newBal, err := s.Ledger.DebitTx(tx, userID, models.CurrencyCredits, def.Price,
			models.ReasonPackPurchase, models.LedgerMeta{PackID: def.ID})
		if err != nil {
			return err
		}
		res.NewBalance = newBal

		for i := 0; i < def.CardsPerPack; i++ {
			rarity := DrawRarity(s.RNG, s.Cfg.RarityWeights, eligible)
			entries := byRarity[rarity]
			entry := entries[s.RNG.Intn(len(entries))]
			finish := DrawFinish(s.RNG, s.Cfg.FinishWeights)

			card, err := s.mintCard(tx, userID, &entry, finish)
			if err != nil {
				return err
			}
			res.Cards = append(res.Cards, *card)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Quests.Bump(userID, models.QuestPacksOpened, 1)
	best := bestPull(res.Cards)
	s.Activity.Record(userID, models.ActivityPackOpened,
		fmt.Sprintf("opened %s and pulled a %s %s", def.Name, best.Rarity, best.CharacterName), 0, best.ID)
	return res, nil
}

// bestPull picks the flashiest card for the feed message.
func bestPull(cards []models.Card) models.Card {
	rank := map[models.CardRarity]int{
		models.RarityUncommon:  0,
		models.RarityRare:      1,
		models.RarityEpic:      2,
		models.RarityLegendary: 3,
	}
	best := cards[0]
	for _, c := range cards[1:] {
		if rank[c.Rarity] > rank[best.Rarity] {
			best = c
		}
	}
	return best
}

// ListPacks returns the active pack catalog.
func (s *PackService) ListPacks() ([]models.PackDefinition, error) {
	var defs []models.PackDefinition
	if err := s.DB.Where("is_active = ?", true).Order("price").Find(&defs).Error; err != nil {
		return nil, fmt.Errorf("failed to load packs: %w", err)
	}
	return defs, nil
}

// ListCards returns a user's collection.
func (s *PackService) ListCards(userID string) ([]models.Card, error) {
	var cards []models.Card
	if err := s.DB.Where("user_id = ?", userID).Order("created_at DESC").Find(&cards).Error; err != nil {
		return nil, fmt.Errorf("failed to load cards: %w", err)
	}
	return cards, nil
}

// CreatePoolEntry adds a character to the draw pool. Admin-facing.
func (s *PackService) CreatePoolEntry(characterName, actorName, movieTitle string, rarity models.CardRarity) (*models.PoolEntry, error) {
	if characterName == "" || movieTitle == "" {
		return nil, fmt.Errorf("character and movie are required: %w", ErrInvalidInput)
	}
	switch rarity {
	case models.RarityUncommon, models.RarityRare, models.RarityEpic, models.RarityLegendary:
	default:
		return nil, fmt.Errorf("unknown rarity %q: %w", rarity, ErrInvalidInput)
	}
	// Names come from free-form admin input; normalize the casing once here.
	caser := cases.Title(language.English)
	entry := models.PoolEntry{
		ID:            uuid.NewString(),
		CharacterName: caser.String(characterName),
		ActorName:     caser.String(actorName),
		MovieTitle:    movieTitle,
		Rarity:        rarity,
	}
	if err := s.DB.Create(&entry).Error; err != nil {
		return nil, fmt.Errorf("failed to create pool entry: %w", err)
	}
	return &entry, nil
}

// GetPoolEntry loads one pool entry.
func (s *PackService) GetPoolEntry(poolEntryID string) (*models.PoolEntry, error) {
	var entry models.PoolEntry
	if err := s.DB.Where("id = ?", poolEntryID).First(&entry).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("character does not exist: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load pool entry: %w", err)
	}
	return &entry, nil
}

// SetPoolArt stores an uploaded art URL on a pool entry.
func (s *PackService) SetPoolArt(poolEntryID, imageURL string) error {
	res := s.DB.Model(&models.PoolEntry{}).Where("id = ?", poolEntryID).Update("image_url", imageURL)
	if res.Error != nil {
		return fmt.Errorf("failed to set pool art: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("character does not exist: %w", ErrNotFound)
	}
	return nil
}

// GrantCard mints a card outside the pack flow. Admin-facing.
func (s *PackService) GrantCard(userID, poolEntryID string, finish models.CardFinish) (*models.Card, error) {
	var entry models.PoolEntry
	if err := s.DB.Where("id = ?", poolEntryID).First(&entry).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("character does not exist: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load pool entry: %w", err)
	}
	var card *models.Card
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		card, err = s.mintCard(tx, userID, &entry, finish)
		return err
	})
	return card, err
}
