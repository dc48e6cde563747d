package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vendalivre/vendalivre-backend/pkg/migrate"
)

func TestMigrationsDirValidates(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("migrations dir failed validation: %v", err)
	}
}

func TestTransactionsMigrationHasFanOutBackstop(t *testing.T) {
	content := readMigration(t, "*_create_transactions.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS transactions",
		"CREATE UNIQUE INDEX idx_transactions_order_type ON transactions (order_id, type)",
		"DROP TABLE IF EXISTS transactions",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestOrdersMigrationConstraints(t *testing.T) {
	content := readMigration(t, "*_create_orders.sql")

	checks := []string{
		"CREATE TYPE order_status AS ENUM ('pending', 'paid', 'failed', 'refunded', 'chargeback')",
		"amount_cents BIGINT NOT NULL CHECK (amount_cents > 0)",
		"fee_percent INTEGER NOT NULL CHECK (fee_percent >= 0 AND fee_percent <= 100)",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestEnrollmentsMigrationUniqueGrant(t *testing.T) {
	content := readMigration(t, "*_create_enrollments.sql")
	if !strings.Contains(content, "CREATE UNIQUE INDEX idx_enrollments_user_product ON enrollments (user_id, product_id)") {
		t.Errorf("enrollments must be unique per (user_id, product_id)")
	}
}

func readMigration(t *testing.T, pattern string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", pattern))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no migration matches %q", pattern)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	return string(data)
}
