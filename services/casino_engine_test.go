// services/casino_engine_test.go
package services

import (
	"errors"
	"testing"

	"movie-club-system/models"
)

func TestHandValue(t *testing.T) {
	cases := []struct {
		hand []string
		want int
	}{
		{[]string{"A♠", "A♥", "9♦"}, 21},
		{[]string{"K♠", "Q♥"}, 20},
		{[]string{"A♠", "K♥"}, 21},
		{[]string{"A♠", "A♥", "A♦", "8♣"}, 21},
		{[]string{"7♠", "8♥", "9♦"}, 24},
		{[]string{"A♠", "9♥"}, 20},
		{[]string{"A♠", "9♥", "5♦"}, 15},
		{[]string{"10♠", "J♥", "A♦"}, 21},
	}
	for _, c := range cases {
		if got := HandValue(c.hand); got != c.want {
			t.Errorf("HandValue(%v) = %d, want %d", c.hand, got, c.want)
		}
	}
}

func TestNewDeckIsComplete(t *testing.T) {
	deck := NewDeck(&stubRand{})
	if len(deck) != 52 {
		t.Fatalf("deck has %d cards, want 52", len(deck))
	}
	seen := make(map[string]bool, 52)
	for _, c := range deck {
		if seen[c] {
			t.Fatalf("duplicate card %q in deck", c)
		}
		seen[c] = true
	}
}

func TestSlotsPayout(t *testing.T) {
	cfg := DefaultCasinoConfig()

	payout, won := SlotsPayout([3]string{"7", "7", "7"}, 10, cfg.SlotPaytable, cfg.SlotPay2oak)
	if !won || payout != 430 {
		t.Errorf("triple 7 on bet 10: got payout=%d won=%v, want 430 true", payout, won)
	}

	payout, won = SlotsPayout([3]string{"bar", "bar", "cherry"}, 10, cfg.SlotPaytable, cfg.SlotPay2oak)
	if !won || payout != 2 {
		t.Errorf("two-of-a-kind on bet 10: got payout=%d won=%v, want 2 true", payout, won)
	}

	// Won with payout 0: the 2-oak multiplier floors away on a tiny stake.
	payout, won = SlotsPayout([3]string{"bell", "lemon", "bell"}, 3, cfg.SlotPaytable, cfg.SlotPay2oak)
	if !won || payout != 0 {
		t.Errorf("2-oak on bet 3: got payout=%d won=%v, want 0 true", payout, won)
	}

	payout, won = SlotsPayout([3]string{"7", "bar", "bell"}, 100, cfg.SlotPaytable, cfg.SlotPay2oak)
	if won || payout != 0 {
		t.Errorf("mixed symbols: got payout=%d won=%v, want 0 false", payout, won)
	}
}

func TestDrawSlotSymbols(t *testing.T) {
	rng := &stubRand{ints: []int{0, 2, 5}}
	got := DrawSlotSymbols(rng, []string{"7", "bar", "bell", "cherry", "lemon", "star"})
	want := [3]string{"7", "bell", "star"}
	if got != want {
		t.Errorf("DrawSlotSymbols = %v, want %v", got, want)
	}
}

func TestRouletteColor(t *testing.T) {
	if c := RouletteColor(0); c != "green" {
		t.Errorf("color of 0 = %q, want green", c)
	}
	if c := RouletteColor(1); c != "red" {
		t.Errorf("color of 1 = %q, want red", c)
	}
	if c := RouletteColor(2); c != "black" {
		t.Errorf("color of 2 = %q, want black", c)
	}
}

func TestRoulettePayout(t *testing.T) {
	payout, won, err := RoulettePayout("red", 7, 10, 2, 36)
	if err != nil || !won || payout != 20 {
		t.Errorf("red on red 7: payout=%d won=%v err=%v, want 20 true nil", payout, won, err)
	}

	// Zero loses every color bet.
	payout, won, err = RoulettePayout("red", 0, 10, 2, 36)
	if err != nil || won || payout != 0 {
		t.Errorf("red on zero: payout=%d won=%v err=%v, want 0 false nil", payout, won, err)
	}

	payout, won, err = RoulettePayout("14", 14, 10, 2, 36)
	if err != nil || !won || payout != 360 {
		t.Errorf("straight 14 hit: payout=%d won=%v err=%v, want 360 true nil", payout, won, err)
	}

	payout, won, err = RoulettePayout("0", 0, 10, 2, 36)
	if err != nil || !won || payout != 360 {
		t.Errorf("straight zero hit: payout=%d won=%v err=%v, want 360 true nil", payout, won, err)
	}

	if _, _, err := RoulettePayout("99", 5, 10, 2, 36); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("selection 99: err=%v, want ErrInvalidInput", err)
	}
	if _, _, err := RoulettePayout("purple", 5, 10, 2, 36); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("selection purple: err=%v, want ErrInvalidInput", err)
	}
}

func TestScratchPayout(t *testing.T) {
	cfg := DefaultCasinoConfig()

	panels := []string{"gem", "gem", "gem", "reel", "reel", "clap", "clap", "star", "star", "crown", "crown", "ticket"}
	payout, won := ScratchPayout(panels, cfg.ScratchCost, cfg.ScratchPaytable)
	if !won || payout != 1000 {
		t.Errorf("triple gem at cost 10: payout=%d won=%v, want 1000 true", payout, won)
	}

	// Two qualifying symbols pay the better one.
	panels = []string{"ticket", "ticket", "ticket", "star", "star", "star", "reel", "reel", "clap", "clap", "crown", "gem"}
	payout, won = ScratchPayout(panels, cfg.ScratchCost, cfg.ScratchPaytable)
	if !won || payout != 100 {
		t.Errorf("ticket+star triples: payout=%d won=%v, want 100 true", payout, won)
	}

	panels = []string{"ticket", "ticket", "reel", "reel", "clap", "clap", "star", "star", "crown", "crown", "gem", "gem"}
	payout, won = ScratchPayout(panels, cfg.ScratchCost, cfg.ScratchPaytable)
	if won || payout != 0 {
		t.Errorf("pairs only: payout=%d won=%v, want 0 false", payout, won)
	}
}

func TestBuildScratchTicketLoserNeverMatches(t *testing.T) {
	cfg := DefaultCasinoConfig()
	// A roll past the combined win mass always loses.
	rng := &stubRand{floats: []float64{0.999}}
	panels, _, won := BuildScratchTicket(rng, cfg)
	if won {
		t.Fatal("roll 0.999 should lose")
	}
	if len(panels) != cfg.ScratchPanels {
		t.Fatalf("ticket has %d panels, want %d", len(panels), cfg.ScratchPanels)
	}
	if _, matched := ScratchPayout(panels, cfg.ScratchCost, cfg.ScratchPaytable); matched {
		t.Errorf("losing ticket contains a 3-match: %v", panels)
	}
}

func TestBuildScratchTicketWinner(t *testing.T) {
	cfg := DefaultCasinoConfig()
	// Roll 0 lands in the first symbol's share.
	rng := &stubRand{floats: []float64{0}}
	panels, winner, won := BuildScratchTicket(rng, cfg)
	if !won || winner != cfg.ScratchSymbols[0] {
		t.Fatalf("roll 0: won=%v winner=%q, want true %q", won, winner, cfg.ScratchSymbols[0])
	}
	n := 0
	for _, p := range panels {
		if p == winner {
			n++
		}
	}
	if n < 3 {
		t.Errorf("winning ticket holds %d copies of %q, want >= 3", n, winner)
	}
}

func TestCasinoConfigValidate(t *testing.T) {
	cfg := DefaultCasinoConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config rejected: %v", err)
	}

	bad := DefaultCasinoConfig()
	bad.ScratchPanels = 11
	if err := bad.Validate(); err == nil {
		t.Error("panel/symbol mismatch accepted, want error")
	}

	swapped := DefaultCasinoConfig()
	swapped.SlotMinBet, swapped.SlotMaxBet = swapped.SlotMaxBet, swapped.SlotMinBet
	if err := swapped.Validate(); err != nil {
		t.Fatalf("inverted bounds rejected: %v", err)
	}
	if swapped.SlotMinBet > swapped.SlotMaxBet {
		t.Error("inverted slot bounds were not swapped back")
	}
}

func TestBetAllowed(t *testing.T) {
	allowed := []int64{5, 10, 25}
	if !betAllowed(10, 5, 100, allowed) {
		t.Error("10 should be allowed")
	}
	if betAllowed(7, 5, 100, allowed) {
		t.Error("7 is not in the allow-list")
	}
	if betAllowed(200, 5, 100, nil) {
		t.Error("200 is over the max")
	}
	if !betAllowed(42, 5, 100, nil) {
		t.Error("42 within bounds and no allow-list should pass")
	}
}

func TestWeightedIndex(t *testing.T) {
	weights := []int64{1, 1, 2}
	cases := []struct {
		roll float64
		want int
	}{
		{0.0, 0},
		{0.3, 1},
		{0.9, 2},
	}
	for _, c := range cases {
		rng := &stubRand{floats: []float64{c.roll}}
		if got := weightedIndex(rng, weights, 4); got != c.want {
			t.Errorf("weightedIndex(roll=%v) = %d, want %d", c.roll, got, c.want)
		}
	}
}

func TestPickSide(t *testing.T) {
	// Even odds split the unit interval in half.
	if side := PickSide(&stubRand{floats: []float64{0.4}}, 2, 2); side != models.SideA {
		t.Errorf("roll 0.4 at even odds = %q, want side a", side)
	}
	if side := PickSide(&stubRand{floats: []float64{0.6}}, 2, 2); side != models.SideB {
		t.Errorf("roll 0.6 at even odds = %q, want side b", side)
	}
	// A heavy favorite on side A claims most of the interval.
	if side := PickSide(&stubRand{floats: []float64{0.7}}, 1.2, 5); side != models.SideA {
		t.Errorf("roll 0.7 with favorite a = %q, want side a", side)
	}
}

func TestDrawRarityAndFinish(t *testing.T) {
	cfg := DefaultCasinoConfig()
	eligible := []models.CardRarity{models.RarityUncommon, models.RarityRare, models.RarityEpic, models.RarityLegendary}

	// Roll 0 lands in the heaviest leading tier.
	if r := DrawRarity(&stubRand{floats: []float64{0}}, cfg.RarityWeights, eligible); r != models.RarityUncommon {
		t.Errorf("roll 0 = %q, want uncommon", r)
	}
	// Roll at the very top lands in the last tier.
	if r := DrawRarity(&stubRand{floats: []float64{0.999}}, cfg.RarityWeights, eligible); r != models.RarityLegendary {
		t.Errorf("roll 0.999 = %q, want legendary", r)
	}
	if f := DrawFinish(&stubRand{floats: []float64{0}}, cfg.FinishWeights); f != models.FinishNormal {
		t.Errorf("roll 0 = %q, want normal finish", f)
	}
	if f := DrawFinish(&stubRand{floats: []float64{0.999}}, cfg.FinishWeights); f != models.FinishDarkMatter {
		t.Errorf("roll 0.999 = %q, want darkMatter finish", f)
	}
}
