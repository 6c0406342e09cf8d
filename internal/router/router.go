package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Dhyan-17/Finance-Tracker/internal/admin"
	"github.com/Dhyan-17/Finance-Tracker/internal/analytics"
	"github.com/Dhyan-17/Finance-Tracker/internal/assistant"
	"github.com/Dhyan-17/Finance-Tracker/internal/auth"
	"github.com/Dhyan-17/Finance-Tracker/internal/bank"
	"github.com/Dhyan-17/Finance-Tracker/internal/budget"
	"github.com/Dhyan-17/Finance-Tracker/internal/goal"
	"github.com/Dhyan-17/Finance-Tracker/internal/invest"
	"github.com/Dhyan-17/Finance-Tracker/internal/ledger"
	"github.com/Dhyan-17/Finance-Tracker/internal/market"
	"github.com/Dhyan-17/Finance-Tracker/internal/notify"
	"github.com/Dhyan-17/Finance-Tracker/internal/reports"
)

type Router struct {
	AuthHandler      *auth.Handler
	LedgerHandler    *ledger.Handler
	BankHandler      *bank.Handler
	BudgetHandler    *budget.Handler
	GoalHandler      *goal.Handler
	MarketHandler    *market.Handler
	InvestHandler    *invest.Handler
	AnalyticsHandler *analytics.Handler
	AssistantHandler *assistant.Handler
	NotifyHandler    *notify.Handler
	ReportsHandler   *reports.Handler
	AdminHandler     *admin.Handler
	AuthMW           fiber.Handler
	AdminMW          fiber.Handler
}

func (r *Router) RegisterRoutes(app *fiber.App) {
	writeLimit := RateLimitWrite()

	app.Post("/api/auth/signup", RateLimitAuth(), r.AuthHandler.Signup)
	app.Post("/api/auth/login", RateLimitAuth(), r.AuthHandler.Login)
	app.Get("/api/me", r.AuthMW, r.AuthHandler.Me)

	// Ledger
	app.Get("/api/accounts", r.AuthMW, r.LedgerHandler.ListAccounts)
	app.Post("/api/accounts/manual", r.AuthMW, writeLimit, r.LedgerHandler.CreateManualAccount)
	app.Post("/api/accounts/:id/close", r.AuthMW, writeLimit, r.LedgerHandler.CloseAccount)
	app.Post("/api/transactions/income", r.AuthMW, writeLimit, r.LedgerHandler.AddIncome)
	app.Post("/api/transactions/expense", r.AuthMW, writeLimit, r.LedgerHandler.AddExpense)
	app.Post("/api/transfers", r.AuthMW, writeLimit, r.LedgerHandler.DoTransfer)
	app.Get("/api/transactions", r.AuthMW, r.LedgerHandler.ListTransactions)

	// Banks
	app.Get("/api/banks", r.BankHandler.ListBanks)
	app.Post("/api/accounts/bank", r.AuthMW, writeLimit, r.BankHandler.LinkAccount)

	// Budgets
	app.Post("/api/budgets", r.AuthMW, writeLimit, r.BudgetHandler.SetBudget)
	app.Get("/api/budgets", r.AuthMW, r.BudgetHandler.ListBudgets)
	app.Delete("/api/budgets/:id", r.AuthMW, writeLimit, r.BudgetHandler.DeleteBudget)

	// Goals
	app.Post("/api/goals", r.AuthMW, writeLimit, r.GoalHandler.CreateGoal)
	app.Get("/api/goals", r.AuthMW, r.GoalHandler.ListGoals)
	app.Post("/api/goals/:id/contribute", r.AuthMW, writeLimit, r.GoalHandler.Contribute)
	app.Post("/api/goals/:id/status", r.AuthMW, writeLimit, r.GoalHandler.SetGoalStatus)
	app.Post("/api/goals/:id/cancel", r.AuthMW, writeLimit, r.GoalHandler.CancelGoal)

	// Market
	app.Get("/api/market/assets", r.AuthMW, r.MarketHandler.ListAssets)
	app.Get("/api/market/assets/:symbol", r.AuthMW, r.MarketHandler.GetAsset)
	app.Get("/api/market/assets/:symbol/history", r.AuthMW, r.MarketHandler.GetPriceHistory)

	// Investments
	app.Post("/api/invest/buy", r.AuthMW, writeLimit, r.InvestHandler.Buy)
	app.Post("/api/invest/sell", r.AuthMW, writeLimit, r.InvestHandler.Sell)
	app.Get("/api/invest/portfolio", r.AuthMW, r.InvestHandler.GetPortfolio)
	app.Get("/api/invest/orders", r.AuthMW, r.InvestHandler.ListOrders)

	// Analytics
	app.Get("/api/analytics/net-worth", r.AuthMW, r.AnalyticsHandler.GetNetWorth)
	app.Get("/api/analytics/summary", r.AuthMW, r.AnalyticsHandler.GetMonthSummary)
	app.Get("/api/analytics/categories", r.AuthMW, r.AnalyticsHandler.GetCategoryBreakdown)

	// Assistant
	app.Post("/api/assistant/query", r.AuthMW, writeLimit, r.AssistantHandler.Ask)
	app.Get("/api/assistant/history", r.AuthMW, r.AssistantHandler.GetHistory)

	// Notifications
	app.Get("/api/notifications", r.AuthMW, r.NotifyHandler.ListNotifications)
	app.Post("/api/notifications/:id/read", r.AuthMW, r.NotifyHandler.MarkNotificationRead)

	// Reports
	app.Get("/api/reports/statement.pdf", r.AuthMW, r.ReportsHandler.StatementPDF)

	// Admin console (separate key, not JWT)
	app.Get("/api/admin/overview", r.AdminMW, r.AdminHandler.Overview)
	app.Get("/api/admin/users", r.AdminMW, r.AdminHandler.ListUsers)
	app.Post("/api/admin/users/:id/status", r.AdminMW, r.AdminHandler.SetUserStatus)
	app.Get("/api/admin/fraud/flags", r.AdminMW, r.AdminHandler.ListFlags)
	app.Post("/api/admin/fraud/flags/:id/review", r.AdminMW, r.AdminHandler.ReviewFlag)
	app.Get("/api/admin/fraud/rules", r.AdminMW, r.AdminHandler.ListRules)
	app.Post("/api/admin/fraud/rules", r.AdminMW, r.AdminHandler.CreateRule)
	app.Post("/api/admin/fraud/rules/:id/active", r.AdminMW, r.AdminHandler.SetRuleActive)
	app.Post("/api/admin/market/assets", r.AdminMW, r.AdminHandler.CreateAsset)
	app.Post("/api/admin/market/assets/:id/price", r.AdminMW, r.AdminHandler.UpdateAssetPrice)
	app.Post("/api/admin/market/assets/:id/active", r.AdminMW, r.AdminHandler.SetAssetActive)
	app.Post("/api/admin/market/tick", r.AdminMW, r.AdminHandler.SimulateTick)
	app.Get("/api/admin/audit", r.AdminMW, r.AdminHandler.ListAuditLogs)
}
