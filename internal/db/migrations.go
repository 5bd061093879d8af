package db

import (
	"fmt"

	"gorm.io/gorm"
)

var migrationStatements = []string{
	`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	`CREATE EXTENSION IF NOT EXISTS "pgcrypto";`,
	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'order_status') THEN
			CREATE TYPE order_status AS ENUM ('pending', 'accepted', 'in_progress', 'completed', 'cancelled');
		END IF;
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'payment_status') THEN
			CREATE TYPE payment_status AS ENUM ('pending', 'paid', 'refunded');
		END IF;
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'compliance_status') THEN
			CREATE TYPE compliance_status AS ENUM ('compliant', 'warning', 'overdue');
		END IF;
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'transaction_type') THEN
			CREATE TYPE transaction_type AS ENUM ('order_payment', 'commission', 'payout');
		END IF;
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'transaction_status') THEN
			CREATE TYPE transaction_status AS ENUM ('pending', 'completed');
		END IF;
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'request_initiator') THEN
			CREATE TYPE request_initiator AS ENUM ('driver', 'agency');
		END IF;
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'agency_request_status') THEN
			CREATE TYPE agency_request_status AS ENUM ('pending', 'accepted', 'rejected', 'cancelled');
		END IF;
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'notification_type') THEN
			CREATE TYPE notification_type AS ENUM ('order', 'compliance', 'payment', 'system');
		END IF;
	END
	$$;`,
	`CREATE TABLE IF NOT EXISTS profiles (
		user_id UUID PRIMARY KEY,
		full_name VARCHAR(255) NOT NULL,
		phone VARCHAR(32),
		role VARCHAR(16) NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE TABLE IF NOT EXISTS agencies (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		user_id UUID NOT NULL UNIQUE REFERENCES profiles(user_id) ON DELETE CASCADE,
		name VARCHAR(255) NOT NULL,
		city VARCHAR(64) NOT NULL,
		compliance_target INT NOT NULL DEFAULT 80,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE TABLE IF NOT EXISTS drivers (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		user_id UUID NOT NULL UNIQUE REFERENCES profiles(user_id) ON DELETE CASCADE,
		vehicle_type VARCHAR(32) NOT NULL,
		platforms TEXT[] NOT NULL DEFAULT '{}',
		city VARCHAR(64) NOT NULL,
		last_cleaning_date TIMESTAMPTZ,
		total_cleanings INT NOT NULL DEFAULT 0,
		compliance_status compliance_status NOT NULL DEFAULT 'overdue',
		agency_id UUID REFERENCES agencies(id) ON DELETE SET NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_drivers_agency_id ON drivers (agency_id);`,
	`CREATE INDEX IF NOT EXISTS idx_drivers_city ON drivers (city);`,
	`CREATE TABLE IF NOT EXISTS facilities (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		user_id UUID NOT NULL UNIQUE REFERENCES profiles(user_id) ON DELETE CASCADE,
		name VARCHAR(255) NOT NULL,
		city VARCHAR(64) NOT NULL,
		commission_rate NUMERIC(4,3) NOT NULL,
		rating NUMERIC(2,1) NOT NULL DEFAULT 0,
		total_orders INT NOT NULL DEFAULT 0,
		active BOOLEAN NOT NULL DEFAULT TRUE,
		payment_account_id VARCHAR(255),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE TABLE IF NOT EXISTS facility_services (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		facility_id UUID NOT NULL REFERENCES facilities(id) ON DELETE CASCADE,
		service_type VARCHAR(64) NOT NULL,
		price_cents BIGINT NOT NULL,
		duration_min INT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_facility_services_facility_id ON facility_services (facility_id);`,
	`CREATE TABLE IF NOT EXISTS orders (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		order_number VARCHAR(32) NOT NULL UNIQUE,
		driver_id UUID NOT NULL REFERENCES drivers(id) ON DELETE RESTRICT,
		facility_id UUID NOT NULL REFERENCES facilities(id) ON DELETE RESTRICT,
		base_price_cents BIGINT NOT NULL,
		commission_cents BIGINT NOT NULL,
		total_price_cents BIGINT NOT NULL,
		currency VARCHAR(3) NOT NULL,
		status order_status NOT NULL DEFAULT 'pending',
		payment_status payment_status NOT NULL DEFAULT 'pending',
		payment_intent_id VARCHAR(255),
		accepted_at TIMESTAMPTZ,
		started_at TIMESTAMPTZ,
		completed_at TIMESTAMPTZ,
		cancelled_at TIMESTAMPTZ,
		cancellation_reason TEXT,
		rating INT CHECK (rating BETWEEN 1 AND 5),
		review TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_orders_driver_id ON orders (driver_id);`,
	`CREATE INDEX IF NOT EXISTS idx_orders_facility_id ON orders (facility_id);`,
	`CREATE INDEX IF NOT EXISTS idx_orders_status ON orders (status);`,
	`CREATE INDEX IF NOT EXISTS idx_orders_payment_intent_id ON orders (payment_intent_id);`,
	`CREATE INDEX IF NOT EXISTS idx_orders_created_at ON orders (created_at);`,
	`CREATE TABLE IF NOT EXISTS transactions (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		order_id UUID NOT NULL REFERENCES orders(id) ON DELETE RESTRICT,
		facility_id UUID NOT NULL REFERENCES facilities(id) ON DELETE RESTRICT,
		type transaction_type NOT NULL,
		amount_cents BIGINT NOT NULL,
		status transaction_status NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_transactions_order_id ON transactions (order_id);`,
	`CREATE INDEX IF NOT EXISTS idx_transactions_facility_id ON transactions (facility_id);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uniq_transactions_order_type ON transactions (order_id, type);`,
	`CREATE TABLE IF NOT EXISTS agency_requests (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		driver_id UUID NOT NULL REFERENCES drivers(id) ON DELETE CASCADE,
		agency_id UUID NOT NULL REFERENCES agencies(id) ON DELETE CASCADE,
		initiated_by request_initiator NOT NULL,
		status agency_request_status NOT NULL DEFAULT 'pending',
		message TEXT,
		responded_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_agency_requests_driver_id ON agency_requests (driver_id);`,
	`CREATE INDEX IF NOT EXISTS idx_agency_requests_agency_id ON agency_requests (agency_id);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uniq_agency_request_pending
		ON agency_requests (driver_id, agency_id)
		WHERE status = 'pending';`,
	`CREATE TABLE IF NOT EXISTS notifications (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		user_id UUID NOT NULL REFERENCES profiles(user_id) ON DELETE CASCADE,
		title VARCHAR(255) NOT NULL,
		message TEXT NOT NULL,
		type notification_type NOT NULL,
		data JSONB NOT NULL DEFAULT '{}',
		read BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_notifications_user_id ON notifications (user_id, created_at DESC);`,
	`CREATE TABLE IF NOT EXISTS order_status_log (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		order_id UUID NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
		old_status order_status,
		new_status order_status NOT NULL,
		note TEXT,
		changed_by UUID,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_order_status_log_order_id ON order_status_log (order_id);`,
	`CREATE OR REPLACE FUNCTION set_row_updated_at()
	RETURNS TRIGGER AS $$
	BEGIN
		NEW.updated_at = NOW();
		RETURN NEW;
	END;
	$$ LANGUAGE plpgsql;`,
	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_trigger WHERE tgname = 'trg_orders_updated_at') THEN
			CREATE TRIGGER trg_orders_updated_at
				BEFORE UPDATE ON orders
				FOR EACH ROW
				EXECUTE PROCEDURE set_row_updated_at();
		END IF;
		IF NOT EXISTS (SELECT 1 FROM pg_trigger WHERE tgname = 'trg_drivers_updated_at') THEN
			CREATE TRIGGER trg_drivers_updated_at
				BEFORE UPDATE ON drivers
				FOR EACH ROW
				EXECUTE PROCEDURE set_row_updated_at();
		END IF;
		IF NOT EXISTS (SELECT 1 FROM pg_trigger WHERE tgname = 'trg_facilities_updated_at') THEN
			CREATE TRIGGER trg_facilities_updated_at
				BEFORE UPDATE ON facilities
				FOR EACH ROW
				EXECUTE PROCEDURE set_row_updated_at();
		END IF;
		IF NOT EXISTS (SELECT 1 FROM pg_trigger WHERE tgname = 'trg_agencies_updated_at') THEN
			CREATE TRIGGER trg_agencies_updated_at
				BEFORE UPDATE ON agencies
				FOR EACH ROW
				EXECUTE PROCEDURE set_row_updated_at();
		END IF;
		IF NOT EXISTS (SELECT 1 FROM pg_trigger WHERE tgname = 'trg_agency_requests_updated_at') THEN
			CREATE TRIGGER trg_agency_requests_updated_at
				BEFORE UPDATE ON agency_requests
				FOR EACH ROW
				EXECUTE PROCEDURE set_row_updated_at();
		END IF;
	END
	$$;`,
}

func runMigrations(db *gorm.DB) error {
	for i, stmt := range migrationStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
