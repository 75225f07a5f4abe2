package schema

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Inspector asks Postgres directly about the probe table. It only reads the
// catalog; it never creates or alters anything.
type Inspector struct {
	db     *sql.DB
	Schema string
}

// Open connects through the pgx database/sql driver and pings once.
func Open(ctx context.Context, dsn string) (*Inspector, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	ctxPing, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctxPing); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return NewInspector(db), nil
}

func NewInspector(db *sql.DB) *Inspector {
	return &Inspector{db: db, Schema: "public"}
}

func (i *Inspector) Close() error {
	return i.db.Close()
}

const tableExistsSQL = `SELECT table_name FROM information_schema.tables WHERE table_schema = $1 AND table_name = $2`

// TableExists reports whether table is present in the inspector's schema.
func (i *Inspector) TableExists(ctx context.Context, table string) (bool, error) {
	var name string
	err := i.db.QueryRowContext(ctx, tableExistsSQL, i.Schema, table).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("lookup table %s.%s: %w", i.Schema, table, err)
	}
	return true, nil
}
