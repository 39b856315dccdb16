package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"loyalty-subscription-core/internal/config"
	pg "loyalty-subscription-core/internal/infra/db/postgres"
	"loyalty-subscription-core/internal/infra/web"
)

// Creates the schema and, unless it already has data, a small demo dataset:
// one place with a staff operator, one subscriber, one subscription with a
// finite visit quota and one without. Prints demo JWTs for manual testing.
const schema = `
CREATE TABLE IF NOT EXISTS places (
    id          TEXT PRIMARY KEY,
    name        TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS subscribers (
    id          TEXT PRIMARY KEY,
    name        TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS subscriptions (
    id               TEXT PRIMARY KEY,
    place_id         TEXT NOT NULL REFERENCES places(id),
    name             TEXT NOT NULL,
    benefits         TEXT NOT NULL DEFAULT '',
    price_cents      BIGINT NOT NULL,
    visits_per_month INT NULL,
    billing_period   TEXT NOT NULL DEFAULT 'monthly',
    created_at       TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS user_subscriptions (
    id               TEXT PRIMARY KEY,
    subscriber_id    TEXT NOT NULL REFERENCES subscribers(id),
    subscription_id  TEXT NOT NULL REFERENCES subscriptions(id),
    place_id         TEXT NOT NULL REFERENCES places(id),
    status           TEXT NOT NULL DEFAULT 'active',
    start_date       TIMESTAMPTZ NOT NULL,
    end_date         TIMESTAMPTZ NOT NULL,
    remaining_visits INT NULL CHECK (remaining_visits >= 0),
    is_active        BOOLEAN NOT NULL DEFAULT TRUE,
    created_at       TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS validation_codes (
    id                   TEXT PRIMARY KEY,
    code                 TEXT NOT NULL,
    user_subscription_id TEXT NOT NULL REFERENCES user_subscriptions(id),
    issued_at            TIMESTAMPTZ NOT NULL,
    expires_at           TIMESTAMPTZ NOT NULL,
    consumed             BOOLEAN NOT NULL DEFAULT FALSE,
    consumed_at          TIMESTAMPTZ NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS validation_codes_code_key ON validation_codes (code);
CREATE INDEX IF NOT EXISTS validation_codes_expires_at_idx ON validation_codes (expires_at);

CREATE TABLE IF NOT EXISTS validation_records (
    id                     TEXT PRIMARY KEY,
    subscriber_id          TEXT NOT NULL,
    subscription_id        TEXT NOT NULL,
    subscription_name      TEXT NOT NULL,
    place_id               TEXT NOT NULL,
    place_name             TEXT NOT NULL,
    operator_id            TEXT NOT NULL,
    remaining_visits_after INT NULL,
    status                 TEXT NOT NULL,
    start_date             TIMESTAMPTZ NOT NULL,
    end_date               TIMESTAMPTZ NOT NULL,
    created_at             TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS validation_records_subscriber_idx ON validation_records (subscriber_id, created_at DESC);
CREATE INDEX IF NOT EXISTS validation_records_subscription_idx ON validation_records (subscription_id);
`

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, false)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 4)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	if _, err := pool.Exec(ctx, schema); err != nil {
		log.Fatalf("create schema: %v", err)
	}
	fmt.Println("schema up to date")

	var count int
	if err := pool.QueryRow(ctx, `SELECT COUNT(*) FROM places;`).Scan(&count); err != nil {
		log.Fatalf("count places: %v", err)
	}
	if count > 0 {
		fmt.Printf("%d places already present. No changes.\n", count)
		return
	}

	placeID := uuid.NewString()
	subscriberID := uuid.NewString()
	limitedSubID := uuid.NewString()
	unlimitedSubID := uuid.NewString()
	now := time.Now()

	batchSQL := []struct {
		q    string
		args []interface{}
	}{
		{`INSERT INTO places (id, name) VALUES ($1, $2);`,
			[]interface{}{placeID, "Cafe Central"}},
		{`INSERT INTO subscribers (id, name) VALUES ($1, $2);`,
			[]interface{}{subscriberID, "Dana Ortiz"}},
		{`INSERT INTO subscriptions (id, place_id, name, benefits, price_cents, visits_per_month, billing_period)
		  VALUES ($1, $2, $3, $4, $5, $6, $7);`,
			[]interface{}{limitedSubID, placeID, "Lunch Club", "One lunch per visit", int64(2900), 8, "monthly"}},
		{`INSERT INTO subscriptions (id, place_id, name, benefits, price_cents, visits_per_month, billing_period)
		  VALUES ($1, $2, $3, $4, $5, NULL, $6);`,
			[]interface{}{unlimitedSubID, placeID, "Coffee Flat Rate", "Unlimited filter coffee", int64(1900), "monthly"}},
		{`INSERT INTO user_subscriptions (id, subscriber_id, subscription_id, place_id, status, start_date, end_date, remaining_visits, is_active)
		  VALUES ($1, $2, $3, $4, 'active', $5, $6, $7, TRUE);`,
			[]interface{}{uuid.NewString(), subscriberID, limitedSubID, placeID, now, now.AddDate(0, 1, 0), 8}},
		{`INSERT INTO user_subscriptions (id, subscriber_id, subscription_id, place_id, status, start_date, end_date, remaining_visits, is_active)
		  VALUES ($1, $2, $3, $4, 'active', $5, $6, NULL, TRUE);`,
			[]interface{}{uuid.NewString(), subscriberID, unlimitedSubID, placeID, now, now.AddDate(0, 1, 0)}},
	}
	for _, s := range batchSQL {
		if _, err := pool.Exec(ctx, s.q, s.args...); err != nil {
			log.Fatalf("seed: %v", err)
		}
	}
	fmt.Printf("seeded: place=%s subscriber=%s\n", placeID, subscriberID)

	// Demo tokens for poking the API by hand.
	auth := web.NewAuthManager(cfg.Auth.JWTSecret, 24*time.Hour)
	subscriberToken, err := auth.MintSubscriber(subscriberID)
	if err != nil {
		log.Fatalf("mint subscriber token: %v", err)
	}
	operatorToken, err := auth.MintOperator(uuid.NewString(), placeID, "staff")
	if err != nil {
		log.Fatalf("mint operator token: %v", err)
	}
	fmt.Printf("subscriber token: %s\n", subscriberToken)
	fmt.Printf("operator token:   %s\n", operatorToken)
}
