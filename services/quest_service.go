// services/quest_service.go
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

// QuestDef describes one quest: the counter it watches, the target and the
// stardust paid on claim.
type QuestDef struct {
	Key    string `json:"key"`
	Title  string `json:"title"`
	Target int64  `json:"target"`
	Reward int64  `json:"reward"` // stardust
}

// QuestCatalog is the fixed quest set. Settlement paths bump the counters;
// the catalog decides when they're claimable.
var QuestCatalog = []QuestDef{
	{Key: models.QuestCasinoGames, Title: "High Roller", Target: 25, Reward: 50},
	{Key: models.QuestPacksOpened, Title: "Collector", Target: 10, Reward: 40},
	{Key: models.QuestTradesComplete, Title: "Dealmaker", Target: 5, Reward: 60},
	{Key: models.QuestMarketSales, Title: "Merchant", Target: 5, Reward: 60},
	{Key: models.QuestLotteryTickets, Title: "Dreamer", Target: 20, Reward: 30},
}

func questDef(key string) (QuestDef, bool) {
	for _, d := range QuestCatalog {
		if d.Key == key {
			return d, true
		}
	}
	return QuestDef{}, false
}

// QuestService keeps deterministic per-user progress counters. It observes
// settlements — it is never part of their transactions, so a quest hiccup
// can't roll back a sale.
type QuestService struct {
	DB     *gorm.DB
	Ledger *LedgerService
}

func NewQuestService(db *gorm.DB, ledger *LedgerService) *QuestService {
	return &QuestService{DB: db, Ledger: ledger}
}

// Bump advances a counter by n. Called once per observed settlement event;
// errors are logged, not propagated, to keep the observer fire-and-forget.
func (s *QuestService) Bump(userID, questKey string, n int64) {
	if n <= 0 {
		return
	}
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		// Struct conditions, ID only via Attrs: a non-zero primary key on
		// the dest would become a query condition and never find the row.
		var prog models.QuestProgress
		if err := tx.Where(models.QuestProgress{UserID: userID, QuestKey: questKey}).
			Attrs(models.QuestProgress{ID: uuid.NewString()}).
			FirstOrCreate(&prog).Error; err != nil {
			return err
		}
		return tx.Model(&models.QuestProgress{}).Where("id = ?", prog.ID).
			Update("count", gorm.Expr("count + ?", n)).Error
	})
	if err != nil {
		log.Printf("[Quests] failed to bump %s for %s: %v", questKey, userID, err)
	}
}

// QuestView is one quest with the user's progress attached.
type QuestView struct {
	QuestDef
	Count     int64      `json:"count"`
	Claimable bool       `json:"claimable"`
	ClaimedAt *time.Time `json:"claimed_at,omitempty"`
}

// GetAll returns the catalog with the user's counters.
func (s *QuestService) GetAll(userID string) ([]QuestView, error) {
	var rows []models.QuestProgress
	if err := s.DB.Where("user_id = ?", userID).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load quest progress: %w", err)
	}
	byKey := make(map[string]models.QuestProgress, len(rows))
	for _, r := range rows {
		byKey[r.QuestKey] = r
	}

	views := make([]QuestView, 0, len(QuestCatalog))
	for _, d := range QuestCatalog {
		v := QuestView{QuestDef: d}
		if r, ok := byKey[d.Key]; ok {
			v.Count = r.Count
			v.ClaimedAt = r.ClaimedAt
			v.Claimable = r.ClaimedAt == nil && r.Count >= d.Target
		}
		views = append(views, v)
	}
	return views, nil
}

// Claim pays out a completed quest in stardust. One claim per quest.
func (s *QuestService) Claim(userID, questKey string) (reward int64, newBalance int64, err error) {
	def, ok := questDef(questKey)
	if !ok {
		return 0, 0, fmt.Errorf("unknown quest %q: %w", questKey, ErrNotFound)
	}

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		var prog models.QuestProgress
		if err := forUpdate(tx).Where("user_id = ? AND quest_key = ?", userID, questKey).
			First(&prog).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("no progress on this quest yet: %w", ErrConflict)
			}
			return fmt.Errorf("failed to load quest progress: %w", err)
		}
		if prog.ClaimedAt != nil {
			return fmt.Errorf("quest already claimed: %w", ErrConflict)
		}
		if prog.Count < def.Target {
			return fmt.Errorf("quest not complete (%d/%d): %w", prog.Count, def.Target, ErrConflict)
		}

		now := time.Now()
		if err := tx.Model(&models.QuestProgress{}).Where("id = ?", prog.ID).
			Update("claimed_at", now).Error; err != nil {
			return fmt.Errorf("failed to mark quest claimed: %w", err)
		}
		newBalance, err = s.Ledger.CreditTx(tx, userID, models.CurrencyStardust, def.Reward,
			models.ReasonQuestReward, models.LedgerMeta{QuestKey: questKey})
		return err
	})
	if err != nil {
		return 0, 0, err
	}
	return def.Reward, newBalance, nil
}
