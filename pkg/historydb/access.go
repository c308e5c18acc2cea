package historydb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/NotCoffee418/energy_monitor/pkg/types"
)

// Get returns the cached series of an entity for exactly this period.
// ok is false when nothing was cached.
func (s *Store) Get(ctx context.Context, entityID string, period types.Period) (types.Series, bool, error) {
	var header cachedSeries
	err := s.db.QueryRowContext(ctx,
		"SELECT entity_id, period_start, period_end, fetched_at FROM cached_series "+
			"WHERE entity_id = ? AND period_start = ? AND period_end = ?",
		entityID, period.Start.String(), period.End.String(),
	).Scan(&header.EntityID, &header.PeriodStart, &header.PeriodEnd, &header.FetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cached series: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT position, state, timestamp FROM cached_samples "+
			"WHERE entity_id = ? AND period_start = ? AND period_end = ? "+
			"ORDER BY position",
		entityID, period.Start.String(), period.End.String(),
	)
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cached samples: %w", err)
	}
	defer rows.Close()

	series := types.Series{}
	for rows.Next() {
		var row cachedSample
		if err := rows.Scan(&row.Position, &row.State, &row.Timestamp); err != nil {
			return nil, false, fmt.Errorf("failed to scan cached sample: %w", err)
		}
		series = append(series, types.Sample{
			State:     row.State,
			Timestamp: time.Unix(0, row.Timestamp).UTC(),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, false, err
	}
	return series, true, nil
}

// Put replaces the cached series of an entity for this period.
func (s *Store) Put(ctx context.Context, entityID string, period types.Period, series types.Series) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	start, end := period.Start.String(), period.End.String()
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM cached_samples WHERE entity_id = ? AND period_start = ? AND period_end = ?",
		entityID, start, end,
	); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx,
		"INSERT OR REPLACE INTO cached_series (entity_id, period_start, period_end, fetched_at) "+
			"VALUES (?, ?, ?, ?)",
		entityID, start, end, s.now().Unix(),
	); err != nil {
		return err
	}

	for i, sample := range series {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO cached_samples (entity_id, period_start, period_end, position, state, timestamp) "+
				"VALUES (?, ?, ?, ?, ?, ?)",
			entityID, start, end, i, sample.State, sample.Timestamp.UnixNano(),
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Prune drops cached series fetched before the cutoff and returns how many were removed.
func (s *Store) Prune(ctx context.Context, fetchedBefore time.Time) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	cutoff := fetchedBefore.Unix()
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM cached_samples WHERE (entity_id, period_start, period_end) IN "+
			"(SELECT entity_id, period_start, period_end FROM cached_series WHERE fetched_at < ?)",
		cutoff,
	); err != nil {
		return 0, err
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM cached_series WHERE fetched_at < ?", cutoff)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return n, tx.Commit()
}
