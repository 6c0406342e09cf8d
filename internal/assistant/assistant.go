package assistant

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Dhyan-17/Finance-Tracker/internal/analytics"
	"github.com/Dhyan-17/Finance-Tracker/internal/budget"
	"github.com/Dhyan-17/Finance-Tracker/internal/goal"
	"github.com/Dhyan-17/Finance-Tracker/internal/invest"
	"github.com/Dhyan-17/Finance-Tracker/internal/ledger"
	"github.com/Dhyan-17/Finance-Tracker/internal/money"
)

// Result is what every intent handler returns. NavigateTo, when set, tells
// the client which screen completes the action (the assistant never moves
// money itself).
type Result struct {
	Success    bool   `json:"success"`
	Intent     Intent `json:"intent"`
	Message    string `json:"message"`
	Data       any    `json:"data,omitempty"`
	NavigateTo string `json:"navigate_to,omitempty"`
}

type handlerFunc func(ctx context.Context, userUID, query string) (Result, error)

// Service answers natural-language finance queries by classifying them into
// the closed intent set and dispatching over a fixed handler map built at
// construction. Every intent has a handler; there is no dynamic fallthrough.
type Service struct {
	Pool      *pgxpool.Pool
	Ledger    *ledger.Service
	Analytics *analytics.Cache
	Budgets   *budget.Service
	Invest    *invest.Service
	Goals     *goal.Service

	handlers map[Intent]handlerFunc
}

func NewService(pool *pgxpool.Pool, l *ledger.Service, a *analytics.Cache, b *budget.Service, inv *invest.Service, g *goal.Service) *Service {
	s := &Service{Pool: pool, Ledger: l, Analytics: a, Budgets: b, Invest: inv, Goals: g}
	s.handlers = map[Intent]handlerFunc{
		IntentBalance:    s.handleBalance,
		IntentSpending:   s.handleSpending,
		IntentIncome:     s.handleIncome,
		IntentExpense:    s.handleExpense,
		IntentBudget:     s.handleBudget,
		IntentInvestment: s.handleInvestment,
		IntentGoal:       s.handleGoal,
		IntentTransfer:   s.handleTransfer,
		IntentSearch:     s.handleSearch,
		IntentTip:        s.handleTip,
		IntentInsight:    s.handleInsight,
		IntentHelp:       s.handleHelp,
	}
	return s
}

// Process classifies the query, runs its handler and records the exchange.
func (s *Service) Process(ctx context.Context, userUID, query string) (Result, error) {
	intent := Classify(query)
	res, err := s.handlers[intent](ctx, userUID, query)
	if err != nil {
		return Result{}, err
	}
	res.Intent = intent

	if _, err := s.Pool.Exec(ctx, `
		INSERT INTO ai_messages (user_id, query, intent, response)
		SELECT id, $2, $3, $4 FROM users WHERE public_id = $1::uuid`,
		userUID, query, string(intent), res.Message); err != nil {
		log.Printf("assistant: store message: %v", err)
	}
	return res, nil
}

// History returns the user's recent exchanges, newest first.
func (s *Service) History(ctx context.Context, userUID string, limit int) ([]Message, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	rows, err := s.Pool.Query(ctx, `
		SELECT m.query, m.intent, m.response, m.created_at
		FROM ai_messages m
		JOIN users u ON u.id = m.user_id
		WHERE u.public_id = $1::uuid
		ORDER BY m.created_at DESC
		LIMIT $2`, userUID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Message, 0, limit)
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.Query, &m.Intent, &m.Response, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

type Message struct {
	Query     string    `json:"query"`
	Intent    string    `json:"intent"`
	Response  string    `json:"response"`
	CreatedAt time.Time `json:"created_at"`
}

func (s *Service) handleBalance(ctx context.Context, userUID, _ string) (Result, error) {
	nw, err := s.Analytics.NetWorthOf(ctx, userUID)
	if err != nil {
		return Result{}, err
	}
	wallet, err := s.Ledger.WalletOf(ctx, userUID)
	if err != nil {
		return Result{}, err
	}
	return Result{
		Success: true,
		Message: fmt.Sprintf("Your wallet balance is %s. Net worth including investments: %s.",
			money.PaiseToRupeesString(wallet.Balance), money.PaiseToRupeesString(nw.NetWorth)),
		Data: nw,
	}, nil
}

func (s *Service) handleSpending(ctx context.Context, userUID, _ string) (Result, error) {
	month := time.Now().Format("2006-01")
	sum, err := s.Analytics.MonthSummary(ctx, userUID, month)
	if err != nil {
		return Result{}, err
	}
	return Result{
		Success: true,
		Message: fmt.Sprintf("This month: %s in, %s out, net %s.",
			money.PaiseToRupeesString(sum.TotalIncome),
			money.PaiseToRupeesString(sum.TotalExpense),
			money.PaiseToRupeesString(sum.Net)),
		Data: sum,
	}, nil
}

func (s *Service) handleIncome(ctx context.Context, userUID, _ string) (Result, error) {
	sum, err := s.Analytics.MonthSummary(ctx, userUID, time.Now().Format("2006-01"))
	if err != nil {
		return Result{}, err
	}
	return Result{
		Success: true,
		Message: fmt.Sprintf("You earned %s this month.", money.PaiseToRupeesString(sum.TotalIncome)),
		Data:    sum,
	}, nil
}

func (s *Service) handleExpense(ctx context.Context, userUID, query string) (Result, error) {
	breakdown, err := s.Analytics.CategoryBreakdown(ctx, userUID, time.Now().Format("2006-01"))
	if err != nil {
		return Result{}, err
	}
	n := topN(query, 5)
	if len(breakdown) > n {
		breakdown = breakdown[:n]
	}
	if len(breakdown) == 0 {
		return Result{Success: true, Message: "No expenses recorded this month."}, nil
	}

	var b strings.Builder
	b.WriteString("Top spending this month: ")
	for i, cat := range breakdown {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s %s", cat.Category, money.PaiseToRupeesString(cat.Total))
	}
	return Result{Success: true, Message: b.String(), Data: breakdown}, nil
}

func (s *Service) handleBudget(ctx context.Context, userUID, _ string) (Result, error) {
	now := time.Now()
	budgets, err := s.Budgets.ForMonth(ctx, userUID, now.Year(), int(now.Month()))
	if err != nil {
		return Result{}, err
	}
	if len(budgets) == 0 {
		return Result{
			Success:    true,
			Message:    "You have no budgets set for this month.",
			NavigateTo: "/budgets",
		}, nil
	}

	exceeded := 0
	for _, b := range budgets {
		if b.Status == budget.StatusExceeded {
			exceeded++
		}
	}
	msg := fmt.Sprintf("You have %d budgets this month.", len(budgets))
	if exceeded > 0 {
		msg = fmt.Sprintf("%s %d exceeded the limit.", msg, exceeded)
	}
	return Result{Success: true, Message: msg, Data: budgets, NavigateTo: "/budgets"}, nil
}

func (s *Service) handleInvestment(ctx context.Context, userUID, _ string) (Result, error) {
	p, err := s.Invest.PortfolioOf(ctx, userUID)
	if err != nil {
		return Result{}, err
	}
	if len(p.Holdings) == 0 {
		return Result{
			Success:    true,
			Message:    "You have no investments yet.",
			NavigateTo: "/investments",
		}, nil
	}
	return Result{
		Success: true,
		Message: fmt.Sprintf("Portfolio worth %s on %s invested (%+.2f%%).",
			money.PaiseToRupeesString(p.CurrentValue),
			money.PaiseToRupeesString(p.TotalInvested),
			p.ProfitLossPercent),
		Data:       p,
		NavigateTo: "/investments",
	}, nil
}

func (s *Service) handleGoal(ctx context.Context, userUID, _ string) (Result, error) {
	goals, err := s.Goals.Goals(ctx, userUID)
	if err != nil {
		return Result{}, err
	}
	active := 0
	for _, g := range goals {
		if g.Status == goal.StatusActive {
			active++
		}
	}
	if active == 0 {
		return Result{Success: true, Message: "No active savings goals.", NavigateTo: "/goals"}, nil
	}
	return Result{
		Success:    true,
		Message:    fmt.Sprintf("You have %d active savings goals.", active),
		Data:       goals,
		NavigateTo: "/goals",
	}, nil
}

func (s *Service) handleTransfer(_ context.Context, _, _ string) (Result, error) {
	return Result{
		Success:    true,
		Message:    "Opening transfers. Review the details before you confirm.",
		NavigateTo: "/transfer",
	}, nil
}

func (s *Service) handleSearch(ctx context.Context, userUID, query string) (Result, error) {
	items, err := s.Ledger.Transactions(ctx, userUID, "", topN(query, 10))
	if err != nil {
		return Result{}, err
	}
	return Result{
		Success: true,
		Message: fmt.Sprintf("Here are your last %d transactions.", len(items)),
		Data:    items,
	}, nil
}

var tips = []string{
	"Keep fixed expenses under 50% of your income.",
	"Park 3 to 6 months of expenses in an emergency fund before investing.",
	"Review your subscriptions quarterly; small leaks sink budgets.",
	"Automate savings on payday so spending comes from what is left.",
	"Diversify: one asset should not carry your whole portfolio.",
}

func (s *Service) handleTip(_ context.Context, _, _ string) (Result, error) {
	tip := tips[time.Now().UnixNano()%int64(len(tips))]
	return Result{Success: true, Message: tip}, nil
}

func (s *Service) handleInsight(ctx context.Context, userUID, _ string) (Result, error) {
	month := time.Now().Format("2006-01")
	sum, err := s.Analytics.MonthSummary(ctx, userUID, month)
	if err != nil {
		return Result{}, err
	}
	var msg string
	switch {
	case sum.TotalIncome == 0 && sum.TotalExpense == 0:
		msg = "Not enough activity this month to analyze yet."
	case sum.Net < 0:
		msg = fmt.Sprintf("You are spending %s more than you earn this month. Consider trimming your top category.",
			money.PaiseToRupeesString(-sum.Net))
	default:
		rate := 0.0
		if sum.TotalIncome > 0 {
			rate = float64(sum.Net) / float64(sum.TotalIncome) * 100
		}
		msg = fmt.Sprintf("You are saving %.0f%% of your income this month. Keep it up.", rate)
	}
	return Result{Success: true, Message: msg, Data: sum}, nil
}

func (s *Service) handleHelp(_ context.Context, _, _ string) (Result, error) {
	return Result{
		Success: true,
		Message: "Try: 'show my balance', 'top 5 expenses', 'show budgets', " +
			"'list my investments', 'show goals', 'give me a tip', or 'analyze my spending'.",
	}, nil
}
