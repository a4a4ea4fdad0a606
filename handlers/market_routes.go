// handlers/market_routes.go
package handlers

import (
	"strconv"

	"movie-club-system/middleware"
	"movie-club-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupMarketRoutes(app *fiber.App,
	market *services.MarketplaceService,
	trades *services.TradeService,
	packs *services.PackService,
) {
	secured := app.Group("/", middleware.UserContextMiddleware())

	// --- Marketplace listings ---

	secured.Get("/market/listings", func(c *fiber.Ctx) error {
		limit, _ := strconv.Atoi(c.Query("limit", "50"))
		listings, err := market.ListListings(limit)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(listings)
	})

	secured.Post("/market/listings", func(c *fiber.Ctx) error {
		type Req struct {
			CardID string `json:"card_id"`
			Price  int64  `json:"price"`
		}
		var req Req
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid JSON", "cause": err.Error(),
			})
		}
		listing, err := market.CreateListing(userID(c), req.CardID, req.Price)
		if err != nil {
			return fail(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(listing)
	})

	secured.Delete("/market/listings/:id", func(c *fiber.Ctx) error {
		if err := market.Delist(userID(c), c.Params("id")); err != nil {
			return fail(c, err)
		}
		return c.JSON(fiber.Map{"message": "listing removed"})
	})

	secured.Post("/market/listings/:id/buy", func(c *fiber.Ctx) error {
		card, err := market.Buy(userID(c), c.Params("id"))
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(card)
	})

	// --- Buy orders ---

	secured.Get("/market/orders", func(c *fiber.Ctx) error {
		limit, _ := strconv.Atoi(c.Query("limit", "50"))
		orders, err := market.ListBuyOrders(limit)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(orders)
	})

	secured.Post("/market/orders", func(c *fiber.Ctx) error {
		type Req struct {
			PoolEntryID string `json:"pool_entry_id"`
			Price       int64  `json:"price"`
		}
		var req Req
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid JSON", "cause": err.Error(),
			})
		}
		order, err := market.CreateBuyOrder(userID(c), req.PoolEntryID, req.Price)
		if err != nil {
			return fail(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(order)
	})

	secured.Delete("/market/orders/:id", func(c *fiber.Ctx) error {
		if err := market.CancelBuyOrder(userID(c), c.Params("id")); err != nil {
			return fail(c, err)
		}
		return c.JSON(fiber.Map{"message": "buy order cancelled"})
	})

	secured.Post("/market/orders/:id/fulfill", func(c *fiber.Ctx) error {
		type Req struct {
			CardID string `json:"card_id"`
		}
		var req Req
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid JSON", "cause": err.Error(),
			})
		}
		if err := market.FulfillBuyOrder(userID(c), c.Params("id"), req.CardID); err != nil {
			return fail(c, err)
		}
		return c.JSON(fiber.Map{"message": "buy order fulfilled"})
	})

	// --- Trades ---

	secured.Get("/trades", func(c *fiber.Ctx) error {
		limit, _ := strconv.Atoi(c.Query("limit", "50"))
		offers, err := trades.ListFor(userID(c), limit)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(offers)
	})

	secured.Post("/trades", func(c *fiber.Ctx) error {
		type Req struct {
			CounterpartyID   string   `json:"counterparty_id"`
			OfferedCardIDs   []string `json:"offered_card_ids"`
			RequestedCardIDs []string `json:"requested_card_ids"`
			OfferedCredits   int64    `json:"offered_credits"`
			RequestedCredits int64    `json:"requested_credits"`
		}
		var req Req
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid JSON", "cause": err.Error(),
			})
		}
		offer, err := trades.Create(userID(c), req.CounterpartyID,
			req.OfferedCardIDs, req.RequestedCardIDs,
			req.OfferedCredits, req.RequestedCredits)
		if err != nil {
			return fail(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(offer)
	})

	secured.Post("/trades/:id/accept", func(c *fiber.Ctx) error {
		if err := trades.Accept(c.Params("id"), userID(c)); err != nil {
			return fail(c, err)
		}
		return c.JSON(fiber.Map{"message": "trade accepted"})
	})

	secured.Post("/trades/:id/deny", func(c *fiber.Ctx) error {
		if err := trades.Deny(c.Params("id"), userID(c)); err != nil {
			return fail(c, err)
		}
		return c.JSON(fiber.Map{"message": "trade denied"})
	})

	secured.Post("/trades/:id/cancel", func(c *fiber.Ctx) error {
		if err := trades.Cancel(c.Params("id"), userID(c)); err != nil {
			return fail(c, err)
		}
		return c.JSON(fiber.Map{"message": "trade cancelled"})
	})

	// --- Packs and cards ---

	secured.Get("/packs", func(c *fiber.Ctx) error {
		defs, err := packs.ListPacks()
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(defs)
	})

	secured.Post("/packs/:id/open", func(c *fiber.Ctx) error {
		res, err := packs.OpenPack(userID(c), c.Params("id"))
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(res)
	})

	secured.Get("/cards", func(c *fiber.Ctx) error {
		cards, err := packs.ListCards(userID(c))
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(cards)
	})

	secured.Post("/cards/:id/quicksell", func(c *fiber.Ctx) error {
		value, newBalance, err := market.Quicksell(userID(c), c.Params("id"))
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(fiber.Map{
			"value":       value,
			"new_balance": newBalance,
		})
	})
}
