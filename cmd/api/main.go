package main

import (
	"context"
	"errors"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Dhyan-17/Finance-Tracker/internal/admin"
	"github.com/Dhyan-17/Finance-Tracker/internal/analytics"
	"github.com/Dhyan-17/Finance-Tracker/internal/assistant"
	"github.com/Dhyan-17/Finance-Tracker/internal/auth"
	"github.com/Dhyan-17/Finance-Tracker/internal/bank"
	"github.com/Dhyan-17/Finance-Tracker/internal/budget"
	"github.com/Dhyan-17/Finance-Tracker/internal/fraud"
	"github.com/Dhyan-17/Finance-Tracker/internal/goal"
	"github.com/Dhyan-17/Finance-Tracker/internal/invest"
	"github.com/Dhyan-17/Finance-Tracker/internal/ledger"
	"github.com/Dhyan-17/Finance-Tracker/internal/market"
	"github.com/Dhyan-17/Finance-Tracker/internal/notify"
	"github.com/Dhyan-17/Finance-Tracker/internal/reports"
	"github.com/Dhyan-17/Finance-Tracker/internal/router"
)

func main() {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	// Fails fast if JWT_SECRET is missing; every protected route needs it.
	_ = auth.MustJWTSecret()

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		log.Fatalf("error creating pgx pool: %v", err)
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		log.Fatalf("error pinging database: %v", err)
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			message := "internal server error"

			var fiberErr *fiber.Error
			if errors.As(err, &fiberErr) {
				code = fiberErr.Code
				message = fiberErr.Message
			}

			return c.Status(code).JSON(fiber.Map{"error": message})
		},
	})

	app.Use(router.CorsMiddleware())
	app.Use(requestLogger())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"ok": true})
	})
	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"ok": true})
	})

	fraudSvc := fraud.NewService(pool)
	cache := analytics.NewCache(pool)
	ledgerSvc := ledger.NewService(pool, fraudSvc, cache)
	marketSvc := market.NewService(pool)
	investSvc := invest.NewService(pool, ledgerSvc)
	bankSvc := bank.NewService(pool, ledgerSvc)
	budgetSvc := budget.NewService(pool)
	goalSvc := goal.NewService(pool, ledgerSvc)
	assistantSvc := assistant.NewService(pool, ledgerSvc, cache, budgetSvc, investSvc, goalSvc)

	r := &router.Router{
		AuthHandler:      auth.NewHandler(pool, ledgerSvc),
		LedgerHandler:    ledger.NewHandler(ledgerSvc),
		BankHandler:      bank.NewHandler(bankSvc),
		BudgetHandler:    budget.NewHandler(budgetSvc),
		GoalHandler:      goal.NewHandler(goalSvc),
		MarketHandler:    market.NewHandler(marketSvc),
		InvestHandler:    invest.NewHandler(investSvc, marketSvc),
		AnalyticsHandler: analytics.NewHandler(cache),
		AssistantHandler: assistant.NewHandler(assistantSvc),
		NotifyHandler:    notify.NewHandler(pool),
		ReportsHandler:   reports.NewHandler(pool),
		AdminHandler:     admin.NewHandler(pool, fraudSvc, marketSvc),
		AuthMW:           auth.Middleware(pool),
		AdminMW:          admin.RequireAdminAPIKey(),
	}
	r.RegisterRoutes(app)

	if tick := parseTick(os.Getenv("MARKET_TICK_SECONDS")); tick > 0 {
		go runMarketTicker(ctx, marketSvc, tick)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Println("Listening on port", port)
	log.Fatal(app.Listen(":" + port))
}

// runMarketTicker moves prices on a fixed interval so the simulated market
// stays alive without an admin poking it.
func runMarketTicker(ctx context.Context, svc *market.Service, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			tickCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
			moved, err := svc.SimulateTick(tickCtx)
			cancel()
			if err != nil {
				log.Printf("market tick: %v", err)
				continue
			}
			log.Printf("market tick: moved %d assets", len(moved))
		}
	}
}

func parseTick(v string) time.Duration {
	secs, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

func requestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		status := c.Response().StatusCode()
		log.Printf("%s %s %d %s", c.Method(), c.Path(), status, time.Since(start))
		return err
	}
}
