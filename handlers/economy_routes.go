// handlers/economy_routes.go
package handlers

import (
	"strconv"

	"movie-club-system/middleware"
	"movie-club-system/models"
	"movie-club-system/services"
	"movie-club-system/utils"

	"github.com/gofiber/fiber/v2"
)

func SetupEconomyRoutes(app *fiber.App,
	ledger *services.LedgerService,
	quests *services.QuestService,
	activity *services.ActivityService,
	packs *services.PackService,
	authClient *services.AuthServiceClient,
) {
	secured := app.Group("/", middleware.UserContextMiddleware())

	secured.Get("/economy/balance", func(c *fiber.Ctx) error {
		uid := userID(c)
		out := fiber.Map{}
		for _, cur := range []models.Currency{models.CurrencyCredits, models.CurrencyStardust, models.CurrencyPrisms} {
			bal, err := ledger.GetBalance(uid, cur)
			if err != nil {
				return fail(c, err)
			}
			out[string(cur)] = bal
		}
		return c.JSON(out)
	})

	secured.Get("/economy/ledger", func(c *fiber.Ctx) error {
		limit, _ := strconv.Atoi(c.Query("limit", "50"))
		entries, err := ledger.GetHistory(userID(c), limit)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(entries)
	})

	secured.Get("/quests", func(c *fiber.Ctx) error {
		views, err := quests.GetAll(userID(c))
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(views)
	})

	secured.Post("/quests/:key/claim", func(c *fiber.Ctx) error {
		reward, newBalance, err := quests.Claim(userID(c), c.Params("key"))
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(fiber.Map{
			"reward":      reward,
			"new_balance": newBalance,
		})
	})

	secured.Get("/activity", func(c *fiber.Ctx) error {
		limit, _ := strconv.Atoi(c.Query("limit", "50"))
		events, err := activity.Recent(userID(c), limit)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(events)
	})

	// EventSource cannot set headers — the stream authenticates via query token.
	app.Get("/activity/stream", middleware.SSEAuthMiddleware(authClient), activity.StreamSSE)

	// Admin: ledger tools, pool management, manual grants.
	admin := app.Group("/admin", middleware.UserContextMiddleware(), middleware.AdminOnlyMiddleware())

	admin.Post("/economy/reconcile", func(c *fiber.Ctx) error {
		type Req struct {
			UserID   string `json:"user_id"`
			Currency string `json:"currency"`
		}
		var req Req
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid JSON", "cause": err.Error(),
			})
		}
		entrySum, balance, ok, err := ledger.Reconcile(req.UserID, models.Currency(req.Currency))
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(fiber.Map{
			"entry_sum": entrySum,
			"balance":   balance,
			"ok":        ok,
		})
	})

	admin.Post("/economy/grant", func(c *fiber.Ctx) error {
		type Req struct {
			UserID   string `json:"user_id"`
			Currency string `json:"currency"`
			Amount   int64  `json:"amount"`
			Note     string `json:"note"`
		}
		var req Req
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid JSON", "cause": err.Error(),
			})
		}
		newBalance, err := ledger.Credit(req.UserID, models.Currency(req.Currency), req.Amount,
			models.ReasonAdminGrant, models.LedgerMeta{Note: req.Note})
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(fiber.Map{"new_balance": newBalance})
	})

	admin.Post("/pool", func(c *fiber.Ctx) error {
		type Req struct {
			CharacterName string `json:"character_name"`
			ActorName     string `json:"actor_name"`
			MovieTitle    string `json:"movie_title"`
			Rarity        string `json:"rarity"`
		}
		var req Req
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid JSON", "cause": err.Error(),
			})
		}
		entry, err := packs.CreatePoolEntry(req.CharacterName, req.ActorName, req.MovieTitle, models.CardRarity(req.Rarity))
		if err != nil {
			return fail(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(entry)
	})

	admin.Post("/pool/:id/art", func(c *fiber.Ctx) error {
		fileHeader, err := c.FormFile("art")
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "art file is required", "cause": err.Error(),
			})
		}
		entry, err := packs.GetPoolEntry(c.Params("id"))
		if err != nil {
			return fail(c, err)
		}
		url, err := utils.UploadFileToR2(fileHeader, utils.CardArtKey(entry.CharacterName))
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "upload failed", "cause": err.Error(),
			})
		}
		if err := packs.SetPoolArt(c.Params("id"), url); err != nil {
			return fail(c, err)
		}
		return c.JSON(fiber.Map{"image_url": url})
	})

	admin.Post("/grant", func(c *fiber.Ctx) error {
		type Req struct {
			UserID      string `json:"user_id"`
			PoolEntryID string `json:"pool_entry_id"`
			Finish      string `json:"finish"`
		}
		var req Req
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid JSON", "cause": err.Error(),
			})
		}
		finish := models.CardFinish(req.Finish)
		if finish == "" {
			finish = models.FinishNormal
		}
		card, err := packs.GrantCard(req.UserID, req.PoolEntryID, finish)
		if err != nil {
			return fail(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(card)
	})
}
