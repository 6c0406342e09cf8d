package fraud

import (
	"context"
	"errors"
	"time"
)

var ErrFlagClosed = errors.New("flag already in a terminal state")

type FlagRecord struct {
	ID            int64     `json:"-"`
	PublicID      string    `json:"id"`
	RuleName      string    `json:"rule_name"`
	UserID        int64     `json:"-"`
	UserEmail     string    `json:"user_email"`
	ReferenceType *string   `json:"reference_type,omitempty"`
	ReferenceID   *int64    `json:"-"`
	Amount        int64     `json:"amount"`
	Severity      string    `json:"severity"`
	Description   *string   `json:"description,omitempty"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
}

// Flags lists fraud flags for the admin console, optionally filtered by
// status.
func (s *Service) Flags(ctx context.Context, status string, limit int) ([]FlagRecord, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := s.Pool.Query(ctx, `
		SELECT f.id, f.public_id::text, f.rule_name, f.user_id, u.email,
		       f.reference_type, f.reference_id, f.amount, f.severity, f.description, f.status, f.created_at
		FROM fraud_flags f
		JOIN users u ON u.id = f.user_id
		WHERE ($1 = '' OR f.status = $1)
		ORDER BY f.created_at DESC
		LIMIT $2`, status, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]FlagRecord, 0, limit)
	for rows.Next() {
		var f FlagRecord
		if err := rows.Scan(&f.ID, &f.PublicID, &f.RuleName, &f.UserID, &f.UserEmail,
			&f.ReferenceType, &f.ReferenceID, &f.Amount, &f.Severity, &f.Description, &f.Status, &f.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// Review moves a flag out of PENDING. CLEARED and CONFIRMED are terminal;
// a closed flag cannot be reopened or re-reviewed.
func (s *Service) Review(ctx context.Context, flagUID, newStatus string, reviewerID int64) error {
	switch newStatus {
	case StatusReviewed, StatusCleared, StatusConfirmed:
	default:
		return errors.New("invalid review status")
	}

	tag, err := s.Pool.Exec(ctx, `
		UPDATE fraud_flags
		SET status = $2, reviewed_by = $3
		WHERE public_id = $1::uuid AND status NOT IN ('CLEARED', 'CONFIRMED')`,
		flagUID, newStatus, reviewerID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrFlagClosed
	}
	return nil
}

// CreateRule registers a new heuristic rule.
func (s *Service) CreateRule(ctx context.Context, r Rule) (int64, error) {
	var id int64
	err := s.Pool.QueryRow(ctx, `
		INSERT INTO fraud_rules (rule_name, rule_type, comparator, threshold_value, severity, description, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, TRUE)
		RETURNING id`,
		r.Name, r.Type, r.Comparator, r.Threshold, r.Severity, r.Description).Scan(&id)
	return id, err
}

// SetRuleActive toggles a rule without deleting its history.
func (s *Service) SetRuleActive(ctx context.Context, ruleID int64, active bool) error {
	_, err := s.Pool.Exec(ctx, `UPDATE fraud_rules SET is_active = $2 WHERE id = $1`, ruleID, active)
	return err
}

// Rules lists all rules, active or not, for the admin console.
func (s *Service) Rules(ctx context.Context) ([]Rule, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT id, rule_name, rule_type, comparator, threshold_value, severity, COALESCE(description,''), is_active
		FROM fraud_rules
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
