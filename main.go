package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"movie-club-system/handlers"
	"movie-club-system/middleware"
	"movie-club-system/models"
	"movie-club-system/services"
	"movie-club-system/utils"
	"movie-club-system/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}

	app := fiber.New(fiber.Config{
		BodyLimit: 20 * 1024 * 1024, // 20MB — card art uploads only
	})

	// 🔐❗ GLOBAL: Only Gateway requests allowed — no exceptions
	app.Use(middleware.GatewayAuthMiddleware())

	allowedOriginsEnv := os.Getenv("ALLOWED_ORIGINS")
	if allowedOriginsEnv == "" {
		log.Println("⚠️  ALLOWED_ORIGINS environment variable not set, using default: http://localhost:3000")
		allowedOriginsEnv = "http://localhost:3000"
	}
	allowedOriginsList := strings.Split(allowedOriginsEnv, ",")
	for i, origin := range allowedOriginsList {
		allowedOriginsList[i] = strings.TrimSpace(origin)
	}
	allowedOriginsString := strings.Join(allowedOriginsList, ",")

	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOriginsString,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH,HEAD",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, User-Agent, Cache-Control, X-Session-Token, X-Service-Token",
		ExposeHeaders:    "Content-Length, Content-Type, Authorization, X-Request-ID",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}

	if err := utils.InitR2(); err != nil {
		log.Fatal("failed to initialize R2 client:", err)
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	if err := db.AutoMigrate(
		&models.UserBalance{},
		&models.LedgerEntry{},
		&models.PoolEntry{},
		&models.Card{},
		&models.Listing{},
		&models.BuyOrder{},
		&models.TradeOffer{},
		&models.BlackjackSession{},
		&models.LotteryDraw{},
		&models.LotteryTicket{},
		&models.PackDefinition{},
		&models.OddsMatchup{},
		&models.OddsBet{},
		&models.QuestProgress{},
		&models.ActivityEvent{},
	); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		redisURL = "redis://localhost:6379/0"
	}
	redisOpts, err := redis.ParseURL(redisURL)
	if err != nil {
		log.Fatal("invalid REDIS_URL:", err)
	}
	redisClient := redis.NewClient(redisOpts)
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		log.Fatal("failed to connect to redis:", err)
	}

	cfg := services.DefaultCasinoConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatal("invalid casino config:", err)
	}

	rng := services.NewRand()
	locks := services.NewRedisLock(redisClient, 10*time.Second, 3, 100*time.Millisecond)
	limiter := services.NewRedisDailyLimiter(redisClient)

	ledger := services.NewLedgerService(db)
	activity := services.NewActivityService(db)
	quests := services.NewQuestService(db, ledger)
	casino := services.NewCasinoService(db, ledger, quests, activity, rng, cfg)
	scratch := services.NewScratchService(db, ledger, quests, limiter, rng, cfg)
	blackjack := services.NewBlackjackService(db, ledger, quests, activity, locks, rng, cfg)
	lottery := services.NewLotteryService(db, ledger, quests, activity, rng, cfg)
	odds := services.NewOddsService(db, ledger, activity, rng)
	market := services.NewMarketplaceService(db, ledger, quests, activity)
	trades := services.NewTradeService(db, ledger, quests, activity)
	packs := services.NewPackService(db, ledger, quests, activity, rng, cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	authServiceURL := os.Getenv("AUTH_SERVICE_URL")
	if authServiceURL == "" {
		log.Fatal("AUTH_SERVICE_URL environment variable not set")
	}
	authClient := services.NewAuthServiceClient(authServiceURL, os.Getenv("CLUB_SERVICE_TOKEN"))

	webhookClient := workers.NewWebhookClient(db)
	go workers.PollActivity(ctx, webhookClient, 10*time.Second)

	services.StartSchedulers(lottery, trades)

	handlers.SetupCasinoRoutes(app, casino, scratch, blackjack, lottery, odds)
	handlers.SetupMarketRoutes(app, market, trades, packs)
	handlers.SetupEconomyRoutes(app, ledger, quests, activity, packs, authClient)

	go func() {
		if err := app.Listen(":5200"); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Println("✅ Server running on http://localhost:5200")
	log.Println("✅ Activity webhook worker running (every 10s)")
	log.Println("✅ GatewayAuthMiddleware enforced globally — all requests must come from Gateway")
	log.Printf("✅ CORS configured for origins: %s", allowedOriginsString)

	<-ctx.Done()
	log.Println("Shutting down server...")
}
