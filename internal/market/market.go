package market

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrAssetNotFound = errors.New("asset not found")
	ErrInvalidPrice  = errors.New("price must be greater than zero")
)

// Asset types.
const (
	TypeCrypto = "CRYPTO"
	TypeStock  = "STOCK"
	TypeIndex  = "INDEX"
	TypeGold   = "GOLD"
)

type Asset struct {
	ID                int64     `json:"id"`
	Symbol            string    `json:"symbol"`
	Name              string    `json:"name"`
	AssetType         string    `json:"asset_type"`
	CurrentPrice      int64     `json:"current_price"` // paise per unit
	PreviousPrice     int64     `json:"previous_price"`
	DayChangePercent  float64   `json:"day_change_percent"`
	VolatilityPercent float64   `json:"volatility_percent"`
	IsActive          bool      `json:"is_active"`
	LastUpdated       time.Time `json:"last_updated"`
}

type PricePoint struct {
	Price      int64     `json:"price"`
	RecordedAt time.Time `json:"recorded_at"`
}

// Service owns the global asset table. Price mutation happens only here;
// user transactions never touch asset rows.
type Service struct {
	Pool *pgxpool.Pool
}

func NewService(pool *pgxpool.Pool) *Service {
	return &Service{Pool: pool}
}

// Assets lists market assets, optionally by type.
func (s *Service) Assets(ctx context.Context, assetType string, activeOnly bool) ([]Asset, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT id, symbol, name, asset_type, current_price, previous_price,
		       day_change_percent, volatility_percent, is_active, last_updated
		FROM market_assets
		WHERE ($1 = '' OR asset_type = $1)
		  AND ($2 = FALSE OR is_active = TRUE)
		ORDER BY symbol`, assetType, activeOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Asset, 0)
	for rows.Next() {
		var a Asset
		if err := rows.Scan(&a.ID, &a.Symbol, &a.Name, &a.AssetType, &a.CurrentPrice, &a.PreviousPrice,
			&a.DayChangePercent, &a.VolatilityPercent, &a.IsActive, &a.LastUpdated); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// AssetBySymbol loads one asset.
func (s *Service) AssetBySymbol(ctx context.Context, symbol string) (Asset, error) {
	var a Asset
	err := s.Pool.QueryRow(ctx, `
		SELECT id, symbol, name, asset_type, current_price, previous_price,
		       day_change_percent, volatility_percent, is_active, last_updated
		FROM market_assets WHERE symbol = $1`, symbol).
		Scan(&a.ID, &a.Symbol, &a.Name, &a.AssetType, &a.CurrentPrice, &a.PreviousPrice,
			&a.DayChangePercent, &a.VolatilityPercent, &a.IsActive, &a.LastUpdated)
	if errors.Is(err, pgx.ErrNoRows) {
		return Asset{}, ErrAssetNotFound
	}
	return a, err
}

// CreateAsset registers a new market asset (admin only).
func (s *Service) CreateAsset(ctx context.Context, a Asset) (int64, error) {
	if a.CurrentPrice <= 0 {
		return 0, ErrInvalidPrice
	}
	var id int64
	err := s.Pool.QueryRow(ctx, `
		INSERT INTO market_assets (symbol, name, asset_type, current_price, volatility_percent)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		a.Symbol, a.Name, a.AssetType, a.CurrentPrice, a.VolatilityPercent).Scan(&id)
	return id, err
}

// UpdatePrice applies a new price to an asset and revalues every holding
// that references it, as one unit. Re-running with the same price yields
// identical derived fields.
func (s *Service) UpdatePrice(ctx context.Context, assetID int64, newPrice int64) error {
	if newPrice <= 0 {
		return ErrInvalidPrice
	}

	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var oldPrice int64
	err = tx.QueryRow(ctx, `SELECT current_price FROM market_assets WHERE id = $1 FOR UPDATE`, assetID).Scan(&oldPrice)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrAssetNotFound
	}
	if err != nil {
		return err
	}

	changePercent := 0.0
	if oldPrice > 0 {
		changePercent = (float64(newPrice) - float64(oldPrice)) / float64(oldPrice) * 100
	}

	if _, err := tx.Exec(ctx, `
		UPDATE market_assets
		SET previous_price = current_price,
		    current_price = $2,
		    day_change_percent = $3,
		    last_updated = NOW()
		WHERE id = $1`, assetID, newPrice, changePercent); err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO market_price_history (asset_id, price) VALUES ($1, $2)`, assetID, newPrice); err != nil {
		return err
	}

	// Derived fields only; profit_loss_percent is 0 when nothing was
	// invested.
	if _, err := tx.Exec(ctx, `
		UPDATE holdings
		SET current_value = FLOOR(units_owned * $2)::bigint,
		    profit_loss = FLOOR(units_owned * $2)::bigint - invested_amount,
		    profit_loss_percent = CASE WHEN invested_amount > 0
		        THEN (FLOOR(units_owned * $2)::bigint - invested_amount)::double precision / invested_amount * 100
		        ELSE 0 END
		WHERE asset_id = $1`, assetID, newPrice); err != nil {
		return err
	}

	// Holders' cached net worth is now wrong; mark it stale in the same
	// unit as the revaluation.
	if _, err := tx.Exec(ctx, `
		UPDATE analytics_cache SET stale = TRUE
		WHERE user_id IN (SELECT user_id FROM holdings WHERE asset_id = $1)`, assetID); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// SimulateTick moves every active asset with a random walk scaled by its
// volatility, with a slight upward bias (markets tend to grow). Each moved
// asset goes through the same UpdatePrice path as a manual change.
func (s *Service) SimulateTick(ctx context.Context) ([]Asset, error) {
	assets, err := s.Assets(ctx, "", true)
	if err != nil {
		return nil, err
	}

	moved := make([]Asset, 0, len(assets))
	for _, a := range assets {
		newPrice := simulatePriceMovement(a.CurrentPrice, a.VolatilityPercent)
		if newPrice == a.CurrentPrice {
			continue
		}
		if err := s.UpdatePrice(ctx, a.ID, newPrice); err != nil {
			return moved, err
		}
		a.PreviousPrice = a.CurrentPrice
		a.CurrentPrice = newPrice
		moved = append(moved, a)
	}
	return moved, nil
}

// simulatePriceMovement: random walk, 60/40 upward bias, magnitude bounded
// by the asset's volatility, floored at 1 paise.
func simulatePriceMovement(currentPrice int64, volatility float64) int64 {
	direction := 1.0
	if rand.Float64() >= 0.6 {
		direction = -1.0
	}

	maxChange := volatility / 100
	change := rand.Float64() * maxChange * direction

	newPrice := int64(float64(currentPrice) * (1 + change))
	if newPrice < 1 {
		newPrice = 1
	}
	return newPrice
}

// PriceHistory lists recorded prices for an asset, newest first.
func (s *Service) PriceHistory(ctx context.Context, assetID int64, days int) ([]PricePoint, error) {
	if days <= 0 || days > 365 {
		days = 30
	}
	rows, err := s.Pool.Query(ctx, `
		SELECT price, recorded_at
		FROM market_price_history
		WHERE asset_id = $1 AND recorded_at >= NOW() - ($2 || ' days')::interval
		ORDER BY recorded_at DESC`, assetID, days)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]PricePoint, 0)
	for rows.Next() {
		var p PricePoint
		if err := rows.Scan(&p.Price, &p.RecordedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// SetActive enables or disables trading on an asset. Holdings of an
// inactive asset keep their last valuation.
func (s *Service) SetActive(ctx context.Context, assetID int64, active bool) error {
	tag, err := s.Pool.Exec(ctx, `UPDATE market_assets SET is_active = $2 WHERE id = $1`, assetID, active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAssetNotFound
	}
	return nil
}
