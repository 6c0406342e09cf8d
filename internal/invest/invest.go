package invest

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/Dhyan-17/Finance-Tracker/internal/ledger"
)

// Order types.
const (
	OrderBuy  = "BUY"
	OrderSell = "SELL"
)

type Holding struct {
	ID                int64     `json:"-"`
	PublicID          string    `json:"id"`
	AssetID           int64     `json:"-"`
	Symbol            string    `json:"symbol"`
	AssetName         string    `json:"asset_name"`
	UnitsOwned        string    `json:"units_owned"`
	BuyPrice          int64     `json:"buy_price"`
	InvestedAmount    int64     `json:"invested_amount"`
	CurrentValue      int64     `json:"current_value"`
	ProfitLoss        int64     `json:"profit_loss"`
	ProfitLossPercent float64   `json:"profit_loss_percent"`
	CreatedAt         time.Time `json:"created_at"`
}

type Order struct {
	PublicID     string    `json:"id"`
	Symbol       string    `json:"symbol"`
	OrderType    string    `json:"order_type"`
	Units        string    `json:"units"`
	PricePerUnit int64     `json:"price_per_unit"`
	TotalAmount  int64     `json:"total_amount"`
	CreatedAt    time.Time `json:"created_at"`
}

type Portfolio struct {
	Holdings          []Holding `json:"holdings"`
	TotalInvested     int64     `json:"total_invested"`
	CurrentValue      int64     `json:"current_value"`
	TotalProfitLoss   int64     `json:"total_profit_loss"`
	ProfitLossPercent float64   `json:"profit_loss_percent"`
}

// Service composes holdings and orders with the ledger: the debit or credit
// leg of every trade lives in the same unit as the holding mutation.
type Service struct {
	Pool   *pgxpool.Pool
	Ledger *ledger.Service
}

func NewService(pool *pgxpool.Pool, l *ledger.Service) *Service {
	return &Service{Pool: pool, Ledger: l}
}

type lockedAsset struct {
	ID           int64
	Symbol       string
	CurrentPrice int64
	IsActive     bool
}

func lockAsset(ctx context.Context, tx pgx.Tx, assetID int64) (lockedAsset, error) {
	var a lockedAsset
	err := tx.QueryRow(ctx, `
		SELECT id, symbol, current_price, is_active
		FROM market_assets WHERE id = $1
		FOR UPDATE`, assetID).Scan(&a.ID, &a.Symbol, &a.CurrentPrice, &a.IsActive)
	if errors.Is(err, pgx.ErrNoRows) {
		return lockedAsset{}, ledger.ErrNotFound
	}
	return a, err
}

// Buy converts an account debit into asset units at the current price.
// Debit, order row and holding upsert are one unit; a repeated buy of the
// same asset averages the cost basis.
func (s *Service) Buy(ctx context.Context, userUID, accountUID string, assetID, amountSpent int64) (Order, error) {
	if amountSpent <= 0 {
		return Order{}, ledger.ErrInvalidAmount
	}

	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Order{}, err
	}
	defer tx.Rollback(ctx)

	asset, err := lockAsset(ctx, tx, assetID)
	if err != nil {
		return Order{}, err
	}
	if !asset.IsActive {
		return Order{}, ledger.ErrAssetInactive
	}

	account, err := ledger.LockAccount(ctx, tx, accountUID, userUID)
	if err != nil {
		return Order{}, err
	}

	units := unitsFor(amountSpent, asset.CurrentPrice)
	if units.IsZero() {
		return Order{}, ledger.ErrAmountTooSmall
	}

	order := Order{
		Symbol:       asset.Symbol,
		OrderType:    OrderBuy,
		Units:        units.String(),
		PricePerUnit: asset.CurrentPrice,
		TotalAmount:  amountSpent,
	}
	var orderID int64
	err = tx.QueryRow(ctx, `
		INSERT INTO investment_orders (user_id, asset_id, order_type, units, price_per_unit, total_amount, account_id)
		VALUES ($1, $2, $3, $4::numeric, $5, $6, $7)
		RETURNING id, public_id::text, created_at`,
		account.UserID, asset.ID, OrderBuy, units.String(), asset.CurrentPrice, amountSpent, account.ID,
	).Scan(&orderID, &order.PublicID, &order.CreatedAt)
	if err != nil {
		return Order{}, err
	}

	ref := &ledger.Reference{Type: "investment_order", ID: orderID}
	note := "Buy " + asset.Symbol
	txn, err := s.Ledger.DebitTx(ctx, tx, account, amountSpent, ledger.KindInvestment, nil, &note, ref, nil)
	if err != nil {
		return Order{}, err
	}

	if err := s.upsertHolding(ctx, tx, account.UserID, asset, units, amountSpent); err != nil {
		return Order{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Order{}, err
	}

	s.Ledger.AfterWrite(ctx, txn)
	return order, nil
}

func (s *Service) upsertHolding(ctx context.Context, tx pgx.Tx, userID int64, asset lockedAsset, units decimal.Decimal, amountSpent int64) error {
	var (
		holdingID int64
		unitsStr  string
		invested  int64
	)
	err := tx.QueryRow(ctx, `
		SELECT id, units_owned::text, invested_amount
		FROM holdings
		WHERE user_id = $1 AND asset_id = $2
		FOR UPDATE`, userID, asset.ID).Scan(&holdingID, &unitsStr, &invested)

	switch {
	case errors.Is(err, pgx.ErrNoRows):
		value := proceedsOf(units, asset.CurrentPrice)
		_, err = tx.Exec(ctx, `
			INSERT INTO holdings (user_id, asset_id, units_owned, buy_price, invested_amount, current_value, profit_loss, profit_loss_percent)
			VALUES ($1, $2, $3::numeric, $4, $5, $6, $7, $8)`,
			userID, asset.ID, units.String(), averageCost(amountSpent, units), amountSpent,
			value, value-amountSpent, plPercent(value-amountSpent, amountSpent))
		return err
	case err != nil:
		return err
	}

	owned, err := decimal.NewFromString(unitsStr)
	if err != nil {
		return err
	}
	totalUnits := owned.Add(units)
	totalInvested := invested + amountSpent
	value := proceedsOf(totalUnits, asset.CurrentPrice)

	_, err = tx.Exec(ctx, `
		UPDATE holdings
		SET units_owned = $2::numeric,
		    buy_price = $3,
		    invested_amount = $4,
		    current_value = $5,
		    profit_loss = $6,
		    profit_loss_percent = $7
		WHERE id = $1`,
		holdingID, totalUnits.String(), averageCost(totalInvested, totalUnits), totalInvested,
		value, value-totalInvested, plPercent(value-totalInvested, totalInvested))
	return err
}

// Sell liquidates units at the current price and credits the proceeds to
// the destination account. Partial sells keep the holding open with a
// proportionally reduced cost basis; a full sell zeroes it.
func (s *Service) Sell(ctx context.Context, userUID, accountUID string, assetID int64, unitsStr string) (Order, error) {
	unitsToSell, err := decimal.NewFromString(unitsStr)
	if err != nil || unitsToSell.LessThanOrEqual(decimal.Zero) {
		return Order{}, ledger.ErrInvalidAmount
	}

	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Order{}, err
	}
	defer tx.Rollback(ctx)

	asset, err := lockAsset(ctx, tx, assetID)
	if err != nil {
		return Order{}, err
	}

	// Same lock order as Buy: asset, account, holding.
	account, err := ledger.LockAccount(ctx, tx, accountUID, userUID)
	if err != nil {
		return Order{}, err
	}

	var (
		holdingID int64
		ownedStr  string
		invested  int64
		userID    int64
	)
	err = tx.QueryRow(ctx, `
		SELECT h.id, h.units_owned::text, h.invested_amount, h.user_id
		FROM holdings h
		JOIN users u ON u.id = h.user_id
		WHERE u.public_id = $1::uuid AND h.asset_id = $2
		FOR UPDATE OF h`, userUID, assetID).Scan(&holdingID, &ownedStr, &invested, &userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, ledger.ErrNotFound
	}
	if err != nil {
		return Order{}, err
	}

	owned, err := decimal.NewFromString(ownedStr)
	if err != nil {
		return Order{}, err
	}
	if unitsToSell.GreaterThan(owned) {
		return Order{}, ledger.ErrInsufficientUnits
	}

	proceeds := proceedsOf(unitsToSell, asset.CurrentPrice)
	_, remainingInvested := splitInvested(invested, unitsToSell, owned)
	remainingUnits := owned.Sub(unitsToSell)
	remainingValue := proceedsOf(remainingUnits, asset.CurrentPrice)

	order := Order{
		Symbol:       asset.Symbol,
		OrderType:    OrderSell,
		Units:        unitsToSell.String(),
		PricePerUnit: asset.CurrentPrice,
		TotalAmount:  proceeds,
	}
	var orderID int64
	err = tx.QueryRow(ctx, `
		INSERT INTO investment_orders (user_id, asset_id, order_type, units, price_per_unit, total_amount, account_id)
		VALUES ($1, $2, $3, $4::numeric, $5, $6, $7)
		RETURNING id, public_id::text, created_at`,
		userID, asset.ID, OrderSell, unitsToSell.String(), asset.CurrentPrice, proceeds, account.ID,
	).Scan(&orderID, &order.PublicID, &order.CreatedAt)
	if err != nil {
		return Order{}, err
	}

	ref := &ledger.Reference{Type: "investment_order", ID: orderID}
	note := "Sell " + asset.Symbol
	txn, err := s.Ledger.CreditTx(ctx, tx, account, proceeds, ledger.KindInvestment, nil, &note, ref, nil)
	if err != nil {
		return Order{}, err
	}

	_, err = tx.Exec(ctx, `
		UPDATE holdings
		SET units_owned = $2::numeric,
		    invested_amount = $3,
		    buy_price = $4,
		    current_value = $5,
		    profit_loss = $6,
		    profit_loss_percent = $7
		WHERE id = $1`,
		holdingID, remainingUnits.String(), remainingInvested,
		averageCost(remainingInvested, remainingUnits),
		remainingValue, remainingValue-remainingInvested, plPercent(remainingValue-remainingInvested, remainingInvested))
	if err != nil {
		return Order{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Order{}, err
	}

	s.Ledger.AfterWrite(ctx, txn)
	return order, nil
}

func plPercent(profitLoss, invested int64) float64 {
	if invested <= 0 {
		return 0
	}
	return float64(profitLoss) / float64(invested) * 100
}

// PortfolioOf lists a user's open holdings with portfolio totals.
func (s *Service) PortfolioOf(ctx context.Context, userUID string) (Portfolio, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT h.id, h.public_id::text, h.asset_id, ma.symbol, ma.name,
		       h.units_owned::text, h.buy_price, h.invested_amount,
		       h.current_value, h.profit_loss, h.profit_loss_percent, h.created_at
		FROM holdings h
		JOIN market_assets ma ON ma.id = h.asset_id
		JOIN users u ON u.id = h.user_id
		WHERE u.public_id = $1::uuid AND h.units_owned > 0
		ORDER BY h.current_value DESC`, userUID)
	if err != nil {
		return Portfolio{}, err
	}
	defer rows.Close()

	p := Portfolio{Holdings: make([]Holding, 0)}
	for rows.Next() {
		var h Holding
		if err := rows.Scan(&h.ID, &h.PublicID, &h.AssetID, &h.Symbol, &h.AssetName,
			&h.UnitsOwned, &h.BuyPrice, &h.InvestedAmount,
			&h.CurrentValue, &h.ProfitLoss, &h.ProfitLossPercent, &h.CreatedAt); err != nil {
			return Portfolio{}, err
		}
		p.Holdings = append(p.Holdings, h)
		p.TotalInvested += h.InvestedAmount
		p.CurrentValue += h.CurrentValue
	}
	if err := rows.Err(); err != nil {
		return Portfolio{}, err
	}

	p.TotalProfitLoss = p.CurrentValue - p.TotalInvested
	p.ProfitLossPercent = plPercent(p.TotalProfitLoss, p.TotalInvested)
	return p, nil
}

// Orders lists a user's trade history, newest first.
func (s *Service) Orders(ctx context.Context, userUID string, limit int) ([]Order, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := s.Pool.Query(ctx, `
		SELECT o.public_id::text, ma.symbol, o.order_type, o.units::text, o.price_per_unit, o.total_amount, o.created_at
		FROM investment_orders o
		JOIN market_assets ma ON ma.id = o.asset_id
		JOIN users u ON u.id = o.user_id
		WHERE u.public_id = $1::uuid
		ORDER BY o.created_at DESC
		LIMIT $2`, userUID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Order, 0, limit)
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.PublicID, &o.Symbol, &o.OrderType, &o.Units, &o.PricePerUnit, &o.TotalAmount, &o.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}
