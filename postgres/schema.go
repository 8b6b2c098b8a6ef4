package postgres

import "github.com/jmoiron/sqlx"

func createTables(db *sqlx.DB) error {
	var schema = `
	CREATE TABLE IF NOT EXISTS accounts (
	id uuid DEFAULT uuid_generate_v4() PRIMARY KEY,
	number text NOT NULL UNIQUE,
	holder text NOT NULL,
	type text NOT NULL,
	balance NUMERIC(18, 4) DEFAULT 0 NOT NULL CHECK (balance >= 0),
	active boolean DEFAULT true NOT NULL,
	updated_at timestamptz DEFAULT now() NOT NULL
	);

	CREATE TABLE IF NOT EXISTS transactions (
	id bigserial PRIMARY KEY,
	account_id uuid NOT NULL REFERENCES accounts (id),
	direction text NOT NULL,
	amount NUMERIC(18, 4) NOT NULL CHECK (amount > 0),
	counterparty_id uuid,
	created_at timestamptz DEFAULT now() NOT NULL,
	description text DEFAULT '' NOT NULL,
	actor text DEFAULT '' NOT NULL
	);

	CREATE INDEX IF NOT EXISTS transactions_account_created_at_idx
	ON transactions (account_id, created_at);

	CREATE TABLE IF NOT EXISTS fraud_alerts (
	id uuid DEFAULT uuid_generate_v4() PRIMARY KEY,
	account_id uuid NOT NULL,
	transaction_id bigint,
	type text NOT NULL,
	message text NOT NULL,
	created_at timestamptz DEFAULT now() NOT NULL,
	resolved boolean DEFAULT false NOT NULL
	);

	CREATE TABLE IF NOT EXISTS transfer_records (
	id uuid DEFAULT uuid_generate_v4() PRIMARY KEY,
	source_id uuid NOT NULL,
	destination_id uuid NOT NULL,
	amount NUMERIC(18, 4) NOT NULL,
	created_at timestamptz DEFAULT now() NOT NULL,
	status text NOT NULL,
	message text DEFAULT '' NOT NULL
	);
	`
	_, err := db.Exec(schema)
	if err != nil {
		return err
	}
	return nil
}
