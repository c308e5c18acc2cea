// HistoryDB caches raw history series of periods whose UTC fetch window has closed.
// Those series no longer change on the host, so reloads can skip the request.
// Computed results are never stored here.
package historydb

import (
	"database/sql"
	"embed"
	"fmt"
	"time"

	"github.com/NotCoffee418/dbmigrator"
	"go.uber.org/zap"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

type Store struct {
	db     *sql.DB
	now    func() time.Time
	logger *zap.Logger
}

// Open creates or opens the cache database at path and applies migrations.
func Open(path string, logger *zap.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history cache: %w", err)
	}
	// sqlite allows one writer at a time
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to history cache %s: %w", path, err)
	}

	dbmigrator.SetDatabaseType(dbmigrator.SQLite)
	<-dbmigrator.MigrateUpCh(
		db,
		migrationFS,
		"migrations",
	)

	logger.Info("history cache ready", zap.String("path", path))
	return &Store{db: db, now: time.Now, logger: logger}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
