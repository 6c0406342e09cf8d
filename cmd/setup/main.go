package main

import (
	"context"
	"database/sql"
	"log"
	"os"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"golang.org/x/crypto/bcrypt"
)

// Applies the schema and seeds the reference data the app cannot run
// without: banks, market assets, fraud rules and the first admin user.
// Idempotent; safe to run on every deploy.
func main() {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		log.Fatalf("error opening database: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("error pinging database: %v", err)
	}

	sqlBytes, err := os.ReadFile("migrations/migrations.sql")
	if err != nil {
		log.Fatalf("error reading migrations file: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	log.Println("Applying migrations...")
	if _, err := db.ExecContext(ctx, string(sqlBytes)); err != nil {
		log.Fatalf("error applying migrations: %v", err)
	}

	log.Println("Seeding banks...")
	if err := seedBanks(ctx, db); err != nil {
		log.Fatalf("error seeding banks: %v", err)
	}

	log.Println("Seeding market assets...")
	if err := seedAssets(ctx, db); err != nil {
		log.Fatalf("error seeding assets: %v", err)
	}

	log.Println("Seeding fraud rules...")
	if err := seedFraudRules(ctx, db); err != nil {
		log.Fatalf("error seeding fraud rules: %v", err)
	}

	log.Println("Ensuring admin user...")
	if err := seedAdmin(ctx, db); err != nil {
		log.Fatalf("error seeding admin: %v", err)
	}

	log.Println("Setup complete")
}

func seedBanks(ctx context.Context, db *sql.DB) error {
	banks := []struct {
		name, ifsc string
	}{
		{"State Bank of India", "SBIN"},
		{"HDFC Bank", "HDFC"},
		{"ICICI Bank", "ICIC"},
		{"Axis Bank", "UTIB"},
		{"Kotak Mahindra Bank", "KKBK"},
		{"Punjab National Bank", "PUNB"},
	}
	for _, b := range banks {
		if _, err := db.ExecContext(ctx, `
			INSERT INTO banks (name, ifsc_root) VALUES ($1, $2)
			ON CONFLICT (name) DO NOTHING`, b.name, b.ifsc); err != nil {
			return err
		}
	}
	return nil
}

func seedAssets(ctx context.Context, db *sql.DB) error {
	// Prices are paise per unit.
	assets := []struct {
		symbol, name, assetType string
		price                   int64
		volatility              float64
	}{
		{"BTC", "Bitcoin", "CRYPTO", 520000000000, 5.0},
		{"ETH", "Ethereum", "CRYPTO", 28000000000, 6.0},
		{"NIFTY50", "Nifty 50 Index Fund", "INDEX", 2450000, 1.2},
		{"SENSEX", "Sensex Index Fund", "INDEX", 8050000, 1.2},
		{"RELIANCE", "Reliance Industries", "STOCK", 295000, 2.0},
		{"TCS", "Tata Consultancy Services", "STOCK", 415000, 1.8},
		{"GOLD", "Digital Gold (per gram)", "GOLD", 725000, 0.8},
	}
	for _, a := range assets {
		if _, err := db.ExecContext(ctx, `
			INSERT INTO market_assets (symbol, name, asset_type, current_price, volatility_percent)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (symbol) DO NOTHING`,
			a.symbol, a.name, a.assetType, a.price, a.volatility); err != nil {
			return err
		}
	}
	return nil
}

func seedFraudRules(ctx context.Context, db *sql.DB) error {
	rules := []struct {
		name, ruleType, cmp string
		threshold           int64
		severity, desc      string
	}{
		{"large-transaction", "AMOUNT", "GTE", 10000000, "HIGH", "Single transaction of 1,00,000.00 or more"},
		{"very-large-transaction", "AMOUNT", "GTE", 50000000, "CRITICAL", "Single transaction of 5,00,000.00 or more"},
		{"rapid-fire", "FREQUENCY", "GTE", 20, "MEDIUM", "20 or more transactions within one hour"},
		{"daily-velocity", "VELOCITY", "GTE", 100000000, "HIGH", "10,00,000.00 or more moved within one day"},
	}
	for _, r := range rules {
		if _, err := db.ExecContext(ctx, `
			INSERT INTO fraud_rules (rule_name, rule_type, comparator, threshold_value, severity, description)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (rule_name) DO NOTHING`,
			r.name, r.ruleType, r.cmp, r.threshold, r.severity, r.desc); err != nil {
			return err
		}
	}
	return nil
}

func seedAdmin(ctx context.Context, db *sql.DB) error {
	email := strings.ToLower(strings.TrimSpace(os.Getenv("ADMIN_EMAIL")))
	password := os.Getenv("ADMIN_PASSWORD")
	if email == "" || password == "" {
		log.Println("ADMIN_EMAIL / ADMIN_PASSWORD not set, skipping admin seed")
		return nil
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	var userID int64
	err = db.QueryRowContext(ctx, `
		INSERT INTO users (email, password_hash, full_name, role)
		VALUES ($1, $2, 'Administrator', 'ADMIN')
		ON CONFLICT (email) DO UPDATE SET role = 'ADMIN'
		RETURNING id`, email, string(hashed)).Scan(&userID)
	if err != nil {
		return err
	}

	// Admins get a wallet too; every user row has one.
	_, err = db.ExecContext(ctx, `
		INSERT INTO accounts (user_id, kind, name)
		SELECT $1, 'WALLET', 'Wallet'
		WHERE NOT EXISTS (SELECT 1 FROM accounts WHERE user_id = $1 AND kind = 'WALLET')`, userID)
	return err
}
