package fraud

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Dhyan-17/Finance-Tracker/internal/money"
	"github.com/Dhyan-17/Finance-Tracker/internal/notify"
)

// Rule types.
const (
	TypeAmount    = "AMOUNT"    // compare the transaction amount itself
	TypeFrequency = "FREQUENCY" // compare the trailing-hour transaction count
	TypeVelocity  = "VELOCITY"  // compare the trailing-day amount sum
)

// Comparators.
const (
	CmpGTE = "GTE"
	CmpLTE = "LTE"
	CmpEQ  = "EQ"
)

// Severities.
const (
	SeverityLow      = "LOW"
	SeverityMedium   = "MEDIUM"
	SeverityHigh     = "HIGH"
	SeverityCritical = "CRITICAL"
)

// Flag statuses.
const (
	StatusPending   = "PENDING"
	StatusReviewed  = "REVIEWED"
	StatusCleared   = "CLEARED"
	StatusConfirmed = "CONFIRMED"
)

type Rule struct {
	ID          int64  `json:"id"`
	Name        string `json:"rule_name"`
	Type        string `json:"rule_type"`
	Comparator  string `json:"comparator"`
	Threshold   int64  `json:"threshold_value"`
	Severity    string `json:"severity"`
	Description string `json:"description"`
	IsActive    bool   `json:"is_active"`
}

// Event is the transaction the evaluator scores, together with the trailing
// history stats it compares against.
type Event struct {
	UserID        int64
	Amount        int64 // magnitude, paise
	Kind          string
	ReferenceType string
	ReferenceID   int64
}

type Stats struct {
	HourCount int64 // user's transactions within the trailing hour
	DaySum    int64 // sum of the user's transaction magnitudes within the trailing day
}

type Flag struct {
	RuleName    string
	Severity    string
	Description string
}

func compare(value, threshold int64, cmp string) bool {
	switch cmp {
	case CmpGTE:
		return value >= threshold
	case CmpLTE:
		return value <= threshold
	case CmpEQ:
		return value == threshold
	}
	return false
}

// EvaluateRules is the stateless core: it scores one event against the
// active rules and returns every flag raised. Rules are independent — a
// single event may breach several of them.
func EvaluateRules(rules []Rule, ev Event, stats Stats) []Flag {
	var flags []Flag
	for _, r := range rules {
		if !r.IsActive {
			continue
		}

		var breached bool
		var desc string
		switch r.Type {
		case TypeAmount:
			breached = compare(ev.Amount, r.Threshold, r.Comparator)
			desc = fmt.Sprintf("Transaction of %s breaches rule %q", money.PaiseToRupeesString(ev.Amount), r.Name)
		case TypeFrequency:
			breached = compare(stats.HourCount, r.Threshold, r.Comparator)
			desc = fmt.Sprintf("%d transactions in the last hour breach rule %q", stats.HourCount, r.Name)
		case TypeVelocity:
			breached = compare(stats.DaySum, r.Threshold, r.Comparator)
			desc = fmt.Sprintf("%s moved in the last day breaches rule %q", money.PaiseToRupeesString(stats.DaySum), r.Name)
		default:
			continue
		}

		if breached {
			flags = append(flags, Flag{RuleName: r.Name, Severity: r.Severity, Description: desc})
		}
	}
	return flags
}

// Service wraps the pure evaluator with rule loading, history stats and flag
// persistence.
type Service struct {
	Pool *pgxpool.Pool
}

func NewService(pool *pgxpool.Pool) *Service {
	return &Service{Pool: pool}
}

func (s *Service) activeRules(ctx context.Context) ([]Rule, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT id, rule_name, rule_type, comparator, threshold_value, severity, COALESCE(description,''), is_active
		FROM fraud_rules
		WHERE is_active = TRUE
		ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Rule
	for rows.Next() {
		var r Rule
		if err := rows.Scan(&r.ID, &r.Name, &r.Type, &r.Comparator, &r.Threshold, &r.Severity, &r.Description, &r.IsActive); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Service) trailingStats(ctx context.Context, userID int64) (Stats, error) {
	var st Stats
	err := s.Pool.QueryRow(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE created_at >= NOW() - INTERVAL '1 hour'),
			COALESCE(SUM(ABS(amount)) FILTER (WHERE created_at >= NOW() - INTERVAL '1 day'), 0)
		FROM transactions
		WHERE user_id = $1 AND created_at >= NOW() - INTERVAL '1 day'`, userID).Scan(&st.HourCount, &st.DaySum)
	return st, err
}

// CheckTransaction evaluates an already-committed transaction. It never
// returns an error: the triggering write must not fail because flagging
// did. Everything that goes wrong is logged and dropped.
func (s *Service) CheckTransaction(ctx context.Context, ev Event) {
	// Bound the work so a slow evaluator cannot hold the request hostage.
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rules, err := s.activeRules(ctx)
	if err != nil {
		log.Printf("fraud: load rules: %v", err)
		return
	}
	if len(rules) == 0 {
		return
	}

	stats, err := s.trailingStats(ctx, ev.UserID)
	if err != nil {
		log.Printf("fraud: trailing stats for user %d: %v", ev.UserID, err)
		return
	}

	for _, f := range EvaluateRules(rules, ev, stats) {
		_, err := s.Pool.Exec(ctx, `
			INSERT INTO fraud_flags (rule_name, user_id, reference_type, reference_id, amount, severity, description)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			f.RuleName, ev.UserID, ev.ReferenceType, ev.ReferenceID, ev.Amount, f.Severity, f.Description)
		if err != nil {
			log.Printf("fraud: insert flag %q for user %d: %v", f.RuleName, ev.UserID, err)
			continue
		}

		if f.Severity == SeverityHigh || f.Severity == SeverityCritical {
			if err := notify.Push(ctx, s.Pool, ev.UserID, "Security alert: "+f.RuleName, f.Description, notify.KindWarning); err != nil {
				log.Printf("fraud: notify user %d: %v", ev.UserID, err)
			}
		}
	}
}
