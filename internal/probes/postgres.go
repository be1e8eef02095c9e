// internal/probes/postgres.go
package probes

import (
	"context"
	"database/sql"

	_ "github.com/lib/pq"
)

// PostgresProbe pings a Postgres database.
type PostgresProbe struct {
	name string
	db   *sql.DB
}

// NewPostgresProbe opens a connection pool for dsn. Open does not dial; the
// first Probe call does.
func NewPostgresProbe(name, dsn string) (*PostgresProbe, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(2)
	return &PostgresProbe{name: name, db: db}, nil
}

func (p *PostgresProbe) Name() string { return p.name }

func (p *PostgresProbe) Probe(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

// Close releases the connection pool.
func (p *PostgresProbe) Close() error {
	return p.db.Close()
}
