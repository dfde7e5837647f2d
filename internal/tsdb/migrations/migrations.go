// Package migrations embeds the numbered SQL migration files that establish
// the tables internal/tsdb writes to (§6 "Persistent state layout"):
// raw-payload, normalised row, alert events, alert rules, and notifications
// DLQ tables, tracked via a `_migrations(filename UNIQUE)` table. Migrations
// are applied idempotently with github.com/rubenv/sql-migrate, the library
// ashita-ai-akashi's manifest and the pack's heroiclabs-nakama both carry for
// this exact purpose.
package migrations

import (
	"database/sql"
	"embed"
	"fmt"
	"net/http"

	migrate "github.com/rubenv/sql-migrate"
)

//go:embed *.sql
var filesystem embed.FS

func source() migrate.MigrationSource {
	return &migrate.HttpFileSystemMigrationSource{FileSystem: http.FS(filesystem)}
}

// Apply runs every pending migration against db, tracked in a `_migrations`
// table, and returns the number newly applied.
func Apply(db *sql.DB) (int, error) {
	migrate.SetTable("_migrations")
	n, err := migrate.Exec(db, "postgres", source(), migrate.Up)
	if err != nil {
		return 0, fmt.Errorf("migrations: apply: %w", err)
	}
	return n, nil
}
