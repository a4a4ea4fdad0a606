// handlers/casino_routes.go
package handlers

import (
	"movie-club-system/middleware"
	"movie-club-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupCasinoRoutes(app *fiber.App,
	casino *services.CasinoService,
	scratch *services.ScratchService,
	blackjack *services.BlackjackService,
	lottery *services.LotteryService,
	odds *services.OddsService,
) {
	secured := app.Group("/", middleware.UserContextMiddleware())

	secured.Post("/casino/slots/spin", func(c *fiber.Ctx) error {
		type Req struct {
			Bet int64 `json:"bet"`
		}
		var req Req
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid JSON", "cause": err.Error(),
			})
		}
		res, err := casino.SpinSlots(userID(c), req.Bet)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(res)
	})

	secured.Post("/casino/roulette/spin", func(c *fiber.Ctx) error {
		type Req struct {
			Bet       int64  `json:"bet"`
			Selection string `json:"selection"` // "red", "black" or "0".."36"
		}
		var req Req
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid JSON", "cause": err.Error(),
			})
		}
		res, err := casino.SpinRoulette(userID(c), req.Bet, req.Selection)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(res)
	})

	secured.Post("/casino/scratch/buy", func(c *fiber.Ctx) error {
		res, err := scratch.BuyTicket(c.Context(), userID(c))
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(res)
	})

	// Blackjack is one endpoint, the action field drives the state machine.
	secured.Post("/casino/blackjack", func(c *fiber.Ctx) error {
		type Req struct {
			Action string `json:"action"` // deal, hit, stand
			Bet    int64  `json:"bet"`    // deal only
		}
		var req Req
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid JSON", "cause": err.Error(),
			})
		}

		var view *services.BlackjackView
		var err error
		switch req.Action {
		case "deal":
			view, err = blackjack.Deal(c.Context(), userID(c), req.Bet)
		case "hit":
			view, err = blackjack.Hit(c.Context(), userID(c))
		case "stand":
			view, err = blackjack.Stand(c.Context(), userID(c))
		default:
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "action must be deal, hit or stand",
			})
		}
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(view)
	})

	secured.Get("/casino/blackjack", func(c *fiber.Ctx) error {
		view, err := blackjack.GetSession(userID(c))
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(view)
	})

	secured.Post("/lottery/tickets", func(c *fiber.Ctx) error {
		type Req struct {
			Count int `json:"count"`
		}
		var req Req
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid JSON", "cause": err.Error(),
			})
		}
		res, err := lottery.BuyTickets(userID(c), c.Get("X-User-Name"), req.Count)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(res)
	})

	secured.Get("/lottery/current", func(c *fiber.Ctx) error {
		status, err := lottery.GetCurrent(userID(c))
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(status)
	})

	secured.Post("/odds/bets", func(c *fiber.Ctx) error {
		type Req struct {
			MatchupID string `json:"matchup_id"`
			Side      string `json:"side"` // "a" or "b"
			Amount    int64  `json:"amount"`
		}
		var req Req
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid JSON", "cause": err.Error(),
			})
		}
		newBalance, err := odds.PlaceBet(userID(c), req.MatchupID, req.Side, req.Amount)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(fiber.Map{"new_balance": newBalance})
	})

	secured.Post("/wheel/spin", func(c *fiber.Ctx) error {
		type Req struct {
			Options []services.WheelOption `json:"options"`
		}
		var req Req
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid JSON", "cause": err.Error(),
			})
		}
		idx, err := odds.SpinWheel(req.Options)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(fiber.Map{
			"index":  idx,
			"winner": req.Options[idx].Label,
		})
	})

	// Admin: matchup lifecycle.
	admin := app.Group("/admin", middleware.UserContextMiddleware(), middleware.AdminOnlyMiddleware())

	admin.Post("/odds/matchups", func(c *fiber.Ctx) error {
		type Req struct {
			Label string  `json:"label"`
			SideA string  `json:"side_a"`
			SideB string  `json:"side_b"`
			OddsA float64 `json:"odds_a"`
			OddsB float64 `json:"odds_b"`
		}
		var req Req
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid JSON", "cause": err.Error(),
			})
		}
		m, err := odds.CreateMatchup(req.Label, req.SideA, req.SideB, req.OddsA, req.OddsB)
		if err != nil {
			return fail(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(m)
	})

	admin.Post("/odds/resolve", func(c *fiber.Ctx) error {
		type Req struct {
			MatchupID string `json:"matchup_id"`
		}
		var req Req
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid JSON", "cause": err.Error(),
			})
		}
		m, err := odds.ResolveMatchup(req.MatchupID)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(m)
	})
}
