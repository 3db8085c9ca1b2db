package db

import (
	"fmt"

	"github.com/jmoiron/sqlx"
)

const schema = `
CREATE TABLE IF NOT EXISTS kitchen_bookings (
	id BIGSERIAL PRIMARY KEY,
	location_id BIGINT NOT NULL,
	manager_id BIGINT NOT NULL,
	chef_id BIGINT NOT NULL,
	status TEXT NOT NULL DEFAULT 'pending',
	booking_date DATE NOT NULL,
	start_time TEXT NOT NULL,
	end_time TEXT NOT NULL,
	timezone TEXT NOT NULL DEFAULT 'UTC',
	total_price_cents BIGINT,
	payment_intent_id TEXT NOT NULL DEFAULT '',
	captured_amount_cents BIGINT NOT NULL DEFAULT 0,
	charge_id TEXT NOT NULL DEFAULT '',
	decision_claimed_at TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS storage_items (
	id BIGSERIAL PRIMARY KEY,
	booking_id BIGINT NOT NULL REFERENCES kitchen_bookings (id),
	storage_booking_id BIGINT NOT NULL UNIQUE,
	name TEXT NOT NULL,
	storage_type TEXT NOT NULL,
	status TEXT NOT NULL DEFAULT 'pending',
	total_price_cents BIGINT,
	start_date DATE,
	end_date DATE,
	payment_intent_id TEXT NOT NULL DEFAULT '',
	captured_amount_cents BIGINT NOT NULL DEFAULT 0,
	charge_id TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS equipment_items (
	id BIGSERIAL PRIMARY KEY,
	booking_id BIGINT NOT NULL REFERENCES kitchen_bookings (id),
	name TEXT NOT NULL,
	total_price_cents BIGINT
);
`

func InitializeDatabaseSchema(db *sqlx.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("could not initialize database schema: %w", err)
	}
	return nil
}
