// services/blackjack_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"math"

	"movie-club-system/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var bjRanks = []string{"A", "2", "3", "4", "5", "6", "7", "8", "9", "10", "J", "Q", "K"}
var bjSuits = []string{"♠", "♥", "♦", "♣"}

// NewDeck builds a freshly shuffled 52-card shoe.
func NewDeck(rng Rand) []string {
	deck := make([]string, 0, 52)
	for _, s := range bjSuits {
		for _, r := range bjRanks {
			deck = append(deck, r+s)
		}
	}
	rng.Shuffle(len(deck), func(i, j int) {
		deck[i], deck[j] = deck[j], deck[i]
	})
	return deck
}

func cardRank(card string) string {
	runes := []rune(card)
	return string(runes[:len(runes)-1])
}

// HandValue totals a hand: aces count 11 and drop to 1 one at a time while
// the total is over 21, face cards count 10.
func HandValue(hand []string) int {
	total := 0
	aces := 0
	for _, c := range hand {
		switch r := cardRank(c); r {
		case "A":
			total += 11
			aces++
		case "K", "Q", "J", "10":
			total += 10
		default:
			// Single digit rank.
			total += int(r[0] - '0')
		}
	}
	for total > 21 && aces > 0 {
		total -= 10
		aces--
	}
	return total
}

// BlackjackService advances the per-user hand state machine:
// player_turn → dealer_turn → resolved. The session row is deleted the moment
// a hand resolves; the unique user_id index rejects a second concurrent deal.
type BlackjackService struct {
	DB       *gorm.DB
	Ledger   *LedgerService
	Quests   *QuestService
	Activity *ActivityService
	Locks    LockManager
	RNG      Rand
	Cfg      CasinoConfig
}

func NewBlackjackService(db *gorm.DB, ledger *LedgerService, quests *QuestService, activity *ActivityService, locks LockManager, rng Rand, cfg CasinoConfig) *BlackjackService {
	return &BlackjackService{DB: db, Ledger: ledger, Quests: quests, Activity: activity, Locks: locks, RNG: rng, Cfg: cfg}
}

// BlackjackView is what the player sees. The dealer's hole card stays masked
// (and out of the dealer value) until the hand resolves.
type BlackjackView struct {
	Active      bool     `json:"active"`
	PlayerHand  []string `json:"player_hand"`
	DealerHand  []string `json:"dealer_hand"`
	PlayerValue int      `json:"player_value"`
	DealerValue int      `json:"dealer_value"`
	Bet         int64    `json:"bet,omitempty"`
	Result      string   `json:"result,omitempty"`
	Payout      int64    `json:"payout"`
	NewBalance  int64    `json:"new_balance"`
}

const holeCard = "🂠"

func maskedView(sess *models.BlackjackSession, newBalance int64) *BlackjackView {
	up := sess.DealerHand[:1]
	return &BlackjackView{
		Active:      true,
		PlayerHand:  append([]string(nil), sess.PlayerHand...),
		DealerHand:  []string{up[0], holeCard},
		PlayerValue: HandValue(sess.PlayerHand),
		DealerValue: HandValue(up),
		Bet:         sess.Bet,
		NewBalance:  newBalance,
	}
}

func resolvedView(player, dealer []string, result string, payout, newBalance int64) *BlackjackView {
	return &BlackjackView{
		PlayerHand:  player,
		DealerHand:  dealer,
		PlayerValue: HandValue(player),
		DealerValue: HandValue(dealer),
		Result:      result,
		Payout:      payout,
		NewBalance:  newBalance,
	}
}

func (s *BlackjackService) withUserLock(ctx context.Context, userID string, fn func() (*BlackjackView, error)) (*BlackjackView, error) {
	key := "bj:" + userID
	token, ok, err := s.Locks.Acquire(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire blackjack lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("another blackjack action is in flight: %w", ErrConflict)
	}
	defer func() { _ = s.Locks.Release(ctx, key, token) }()
	return fn()
}

// Deal starts a hand: debits the bet, deals 2+2 and either hands control to
// the player or auto-resolves a natural 21.
func (s *BlackjackService) Deal(ctx context.Context, userID string, bet int64) (*BlackjackView, error) {
	if bet%2 != 0 {
		return nil, fmt.Errorf("bet must be even: %w", ErrInvalidInput)
	}
	if bet < s.Cfg.BlackjackMinBet || bet > s.Cfg.BlackjackMaxBet {
		return nil, fmt.Errorf("bet %d outside blackjack bounds: %w", bet, ErrInvalidInput)
	}

	return s.withUserLock(ctx, userID, func() (*BlackjackView, error) {
		var view *BlackjackView
		err := s.DB.Transaction(func(tx *gorm.DB) error {
			var existing models.BlackjackSession
			err := forUpdate(tx).Where("user_id = ?", userID).First(&existing).Error
			if err == nil {
				return fmt.Errorf("you have an active hand, hit or stand first: %w", ErrConflict)
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("failed to check for active hand: %w", err)
			}

			newBal, err := s.Ledger.DebitTx(tx, userID, models.CurrencyCredits, bet, models.ReasonBlackjackBet, models.LedgerMeta{Bet: bet})
			if err != nil {
				return err
			}

			deck := NewDeck(s.RNG)
			player := []string{deck[0], deck[2]}
			dealer := []string{deck[1], deck[3]}
			deck = deck[4:]

			if HandValue(player) == 21 {
				// Natural blackjack resolves before a session ever exists.
				if HandValue(dealer) == 21 {
					newBal, err = s.Ledger.CreditTx(tx, userID, models.CurrencyCredits, bet, models.ReasonBlackjackPush, models.LedgerMeta{Bet: bet})
					if err != nil {
						return err
					}
					view = resolvedView(player, dealer, models.BlackjackResultPush, bet, newBal)
					return nil
				}
				payout := int64(math.Floor(float64(bet) * 2.5))
				newBal, err = s.Ledger.CreditTx(tx, userID, models.CurrencyCredits, payout, models.ReasonBlackjackWin, models.LedgerMeta{Bet: bet})
				if err != nil {
					return err
				}
				view = resolvedView(player, dealer, models.BlackjackResultBlackjack, payout, newBal)
				return nil
			}

			sess := models.BlackjackSession{
				ID:         uuid.NewString(),
				UserID:     userID,
				Deck:       deck,
				PlayerHand: player,
				DealerHand: dealer,
				Bet:        bet,
				Status:     models.BlackjackPlayerTurn,
			}
			if err := tx.Create(&sess).Error; err != nil {
				// Unique user_id index: a concurrent deal won the race.
				return fmt.Errorf("you have an active hand, hit or stand first: %w", ErrConflict)
			}
			view = maskedView(&sess, newBal)
			return nil
		})
		if err != nil {
			return nil, err
		}
		if view.Result != "" {
			s.afterResolve(userID, view)
		}
		return view, nil
	})
}

// Hit draws one card for the player. A bust resolves the hand immediately
// with no dealer play.
func (s *BlackjackService) Hit(ctx context.Context, userID string) (*BlackjackView, error) {
	return s.withUserLock(ctx, userID, func() (*BlackjackView, error) {
		var view *BlackjackView
		err := s.DB.Transaction(func(tx *gorm.DB) error {
			sess, err := s.activeSession(tx, userID)
			if err != nil {
				return err
			}

			sess.PlayerHand = append(sess.PlayerHand, sess.Deck[0])
			sess.Deck = sess.Deck[1:]

			if HandValue(sess.PlayerHand) > 21 {
				if err := tx.Delete(&models.BlackjackSession{}, "id = ?", sess.ID).Error; err != nil {
					return fmt.Errorf("failed to close busted hand: %w", err)
				}
				bal, err := s.Ledger.GetBalanceTx(tx, userID, models.CurrencyCredits)
				if err != nil {
					return err
				}
				view = resolvedView(sess.PlayerHand, sess.DealerHand, models.BlackjackResultLose, 0, bal)
				return nil
			}

			if err := tx.Save(sess).Error; err != nil {
				return fmt.Errorf("failed to persist hit: %w", err)
			}
			bal, err := s.Ledger.GetBalanceTx(tx, userID, models.CurrencyCredits)
			if err != nil {
				return err
			}
			view = maskedView(sess, bal)
			return nil
		})
		if err != nil {
			return nil, err
		}
		if view.Result != "" {
			s.afterResolve(userID, view)
		}
		return view, nil
	})
}

// Stand hands the deck to the dealer, who draws to the fixed rule (hit below
// 17, stand at 17+), then settles the comparison.
func (s *BlackjackService) Stand(ctx context.Context, userID string) (*BlackjackView, error) {
	return s.withUserLock(ctx, userID, func() (*BlackjackView, error) {
		var view *BlackjackView
		err := s.DB.Transaction(func(tx *gorm.DB) error {
			sess, err := s.activeSession(tx, userID)
			if err != nil {
				return err
			}

			sess.Status = models.BlackjackDealerTurn
			for HandValue(sess.DealerHand) < 17 {
				sess.DealerHand = append(sess.DealerHand, sess.Deck[0])
				sess.Deck = sess.Deck[1:]
			}

			playerTotal := HandValue(sess.PlayerHand)
			dealerTotal := HandValue(sess.DealerHand)

			result := models.BlackjackResultLose
			var payout int64
			switch {
			case dealerTotal > 21 || playerTotal > dealerTotal:
				result = models.BlackjackResultWin
				payout = sess.Bet * 2
			case playerTotal == dealerTotal:
				result = models.BlackjackResultPush
				payout = sess.Bet
			}

			if err := tx.Delete(&models.BlackjackSession{}, "id = ?", sess.ID).Error; err != nil {
				return fmt.Errorf("failed to close hand: %w", err)
			}

			bal := int64(0)
			if payout > 0 {
				reason := models.ReasonBlackjackWin
				if result == models.BlackjackResultPush {
					reason = models.ReasonBlackjackPush
				}
				bal, err = s.Ledger.CreditTx(tx, userID, models.CurrencyCredits, payout, reason, models.LedgerMeta{Bet: sess.Bet})
				if err != nil {
					return err
				}
			} else {
				bal, err = s.Ledger.GetBalanceTx(tx, userID, models.CurrencyCredits)
				if err != nil {
					return err
				}
			}
			view = resolvedView(sess.PlayerHand, sess.DealerHand, result, payout, bal)
			return nil
		})
		if err != nil {
			return nil, err
		}
		s.afterResolve(userID, view)
		return view, nil
	})
}

// GetSession returns the masked state of an active hand, or Active=false.
func (s *BlackjackService) GetSession(userID string) (*BlackjackView, error) {
	var sess models.BlackjackSession
	err := s.DB.Where("user_id = ?", userID).First(&sess).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &BlackjackView{Active: false}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load hand: %w", err)
	}
	bal, err := s.Ledger.GetBalance(userID, models.CurrencyCredits)
	if err != nil {
		return nil, err
	}
	return maskedView(&sess, bal), nil
}

func (s *BlackjackService) activeSession(tx *gorm.DB, userID string) (*models.BlackjackSession, error) {
	var sess models.BlackjackSession
	err := forUpdate(tx).Where("user_id = ?", userID).First(&sess).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("no active hand, deal first: %w", ErrConflict)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load hand: %w", err)
	}
	if sess.Status != models.BlackjackPlayerTurn {
		return nil, fmt.Errorf("hand is not awaiting a player action: %w", ErrConflict)
	}
	return &sess, nil
}

func (s *BlackjackService) afterResolve(userID string, view *BlackjackView) {
	s.Quests.Bump(userID, models.QuestCasinoGames, 1)
	if view.Result == models.BlackjackResultWin || view.Result == models.BlackjackResultBlackjack {
		s.Activity.Record(userID, models.ActivityCasinoWin,
			fmt.Sprintf("won %d credits at blackjack", view.Payout), view.Payout, "")
	}
}
