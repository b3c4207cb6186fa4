package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/paytrack/paytrack-backend/pkg/migrate"
)

func readMigration(t *testing.T, suffix string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", "*_"+suffix+".sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("expected one %s migration, found %d", suffix, len(matches))
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	return string(data)
}

func TestMigrationsContainConstraints(t *testing.T) {
	cases := map[string][]string{
		"create_users": {
			"CREATE TABLE IF NOT EXISTS users",
			"CONSTRAINT users_phone_key UNIQUE (phone)",
			"CHECK (role IN ('Vendor', 'Supplier'))",
			"DROP TABLE IF EXISTS users",
		},
		"create_orders": {
			"CREATE TABLE IF NOT EXISTS orders",
			"total_amount NUMERIC(12,2) NOT NULL",
			"CHECK (total_amount > 0)",
			"CHECK (status IN ('pending', 'accepted', 'rejected'))",
			"FOREIGN KEY (supplier_id) REFERENCES users(id)",
			"DROP TABLE IF EXISTS orders",
		},
		"create_payments": {
			"CREATE TABLE IF NOT EXISTS payments",
			"CHECK (amount > 0)",
			"CHECK (status IN ('pending', 'confirmed'))",
			"confirmed_at TIMESTAMPTZ NULL",
			"DROP TABLE IF EXISTS payments",
		},
		"create_notifications": {
			"metadata JSONB NOT NULL",
			"is_read BOOLEAN NOT NULL DEFAULT false",
			"CHECK (category IN ('payment', 'order'))",
			"ON notifications (user_id, created_at DESC)",
			"DROP TABLE IF EXISTS notifications",
		},
	}

	for suffix, checks := range cases {
		content := readMigration(t, suffix)
		for _, sub := range checks {
			if !strings.Contains(content, sub) {
				t.Errorf("%s: missing expected statement %q", suffix, sub)
			}
		}
	}
}

func TestNotificationsRecipientIsNotAForeignKey(t *testing.T) {
	content := readMigration(t, "create_notifications")
	if strings.Contains(content, "REFERENCES users") {
		t.Fatal("notifications.user_id must accept recipients without a users row")
	}
}

func TestValidateDirAcceptsRepoMigrations(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("ValidateDir: %v", err)
	}
}

func TestValidateDirRejectsBadNames(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "bad-name.sql"), []byte("-- +goose Up\n-- +goose Down\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := migrate.ValidateDir(dir); err == nil {
		t.Fatal("expected invalid filename error")
	}
}

func TestValidateDirRejectsEmpty(t *testing.T) {
	if err := migrate.ValidateDir(t.TempDir()); err == nil {
		t.Fatal("expected error for empty migration dir")
	}
}

func TestCreateSQLMigration(t *testing.T) {
	dir := t.TempDir()
	path, err := migrate.CreateSQLMigration(dir, "Add Payment Notes!")
	if err != nil {
		t.Fatalf("CreateSQLMigration: %v", err)
	}
	if !strings.HasSuffix(path, "_add_payment_notes.sql") {
		t.Fatalf("unexpected filename %s", path)
	}
	if err := migrate.ValidateDir(dir); err != nil {
		t.Fatalf("generated migration should validate: %v", err)
	}
	if _, err := migrate.CreateSQLMigration(dir, "!!!"); err == nil {
		t.Fatal("expected error for name that sanitizes to empty")
	}
}
