package sqlrun

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

// Open opens a new Postgres connection for dsn and wraps it as a bun.DB,
// the same pgdriver/pgdialect pairing the durable notebook storage
// collaborator uses.
func Open(dsn string) (*bun.DB, error) {
	connector := pgdriver.NewConnector(
		pgdriver.WithDSN(dsn),
		pgdriver.WithTimeout(5*time.Second),
		pgdriver.WithDialTimeout(5*time.Second),
		pgdriver.WithReadTimeout(5*time.Second),
		pgdriver.WithWriteTimeout(5*time.Second),
	)
	sqldb := sql.OpenDB(connector)
	if err := sqldb.Ping(); err != nil {
		sqldb.Close()
		return nil, fmt.Errorf("connect: %w", err)
	}
	return bun.NewDB(sqldb, pgdialect.New()), nil
}
