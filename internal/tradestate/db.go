package tradestate

import (
	"database/sql"
	"embed"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Driver selects the database/sql driver name and goose dialect. Postgres
// is the only supported trade-plane store: the embedded migrations and
// every PostgresStore query use Postgres-only syntax (JSONB, TIMESTAMPTZ,
// BIGSERIAL, $N placeholders, SELECT ... FOR UPDATE), so there is nothing
// else for Driver to legitimately name. Tests and --local-store convenience
// mode use the in-process MemoryStore instead of a second SQL dialect.
type Driver string

const (
	DriverPostgres Driver = "postgres"
)

// Connect opens dsn under driver and verifies connectivity.
func Connect(driver Driver, dsn string) (*sql.DB, error) {
	db, err := sql.Open(string(driver), dsn)
	if err != nil {
		return nil, fmt.Errorf("tradestate: sql.Open: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("tradestate: db.Ping: %w", err)
	}
	return db, nil
}

// RunMigrations applies every embedded migration to db.
func RunMigrations(db *sql.DB, driver Driver) error {
	goose.SetBaseFS(migrationsFS)
	if err := goose.SetDialect(string(DriverPostgres)); err != nil {
		return err
	}
	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("tradestate: goose up: %w", err)
	}
	return nil
}
