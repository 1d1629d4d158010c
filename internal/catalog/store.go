package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/playperu/geogamer/internal/geogamer"
)

// Store keeps levels as JSONB documents in the levels table.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Levels(ctx context.Context) ([]geogamer.LevelInfo, error) {
	levels, err := s.All(ctx)
	if err != nil {
		return nil, err
	}
	infos := make([]geogamer.LevelInfo, 0, len(levels))
	for _, l := range levels {
		infos = append(infos, l.Info())
	}
	return infos, nil
}

// All loads every level, rounds included, ordered by id.
func (s *Store) All(ctx context.Context) ([]geogamer.Level, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT json(data) FROM levels ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying levels: %w", err)
	}
	defer rows.Close()

	var levels []geogamer.Level
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var l geogamer.Level
		if err := json.Unmarshal([]byte(data), &l); err != nil {
			return nil, fmt.Errorf("decoding level: %w", err)
		}
		levels = append(levels, l)
	}
	return levels, rows.Err()
}

func (s *Store) Level(ctx context.Context, id int) (geogamer.Level, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT json(data) FROM levels WHERE id = ?`, id,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return geogamer.Level{}, ErrNotFound
	}
	if err != nil {
		return geogamer.Level{}, err
	}
	var l geogamer.Level
	if err := json.Unmarshal([]byte(data), &l); err != nil {
		return geogamer.Level{}, fmt.Errorf("decoding level %d: %w", id, err)
	}
	return l, nil
}

func (s *Store) LastLevelID(ctx context.Context) (int, error) {
	var last sql.NullInt64
	if err := s.db.QueryRowContext(ctx, `SELECT MAX(id) FROM levels`).Scan(&last); err != nil {
		return 0, err
	}
	return int(last.Int64), nil
}

// Put inserts or replaces a level.
func (s *Store) Put(ctx context.Context, l geogamer.Level) error {
	if err := Validate(l); err != nil {
		return err
	}
	data, err := json.Marshal(l)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO levels (id, name, data) VALUES (?, ?, jsonb(?))
		 ON CONFLICT(id) DO UPDATE SET name = excluded.name, data = excluded.data`,
		l.ID, l.Name, string(data),
	)
	return err
}

func (s *Store) Delete(ctx context.Context, id int) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM levels WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Import stores levels in one transaction.
func (s *Store) Import(ctx context.Context, levels []geogamer.Level) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, l := range levels {
		if err := Validate(l); err != nil {
			return fmt.Errorf("level %d: %w", l.ID, err)
		}
		data, err := json.Marshal(l)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO levels (id, name, data) VALUES (?, ?, jsonb(?))
			 ON CONFLICT(id) DO UPDATE SET name = excluded.name, data = excluded.data`,
			l.ID, l.Name, string(data),
		); err != nil {
			return fmt.Errorf("storing level %d: %w", l.ID, err)
		}
	}
	return tx.Commit()
}

// Seed imports the embedded catalog when the table is empty.
// Idempotent: does nothing if levels already exist.
func (s *Store) Seed(ctx context.Context, logger *slog.Logger) error {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM levels`).Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	levels, err := Embedded()
	if err != nil {
		return err
	}
	if err := s.Import(ctx, levels); err != nil {
		return fmt.Errorf("seeding levels: %w", err)
	}
	logger.Info("level catalog seeded", "levels", len(levels))
	return nil
}
