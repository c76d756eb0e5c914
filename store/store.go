// Package store persists computed vibrational level tables in a sqlite
// database, so parameter sweeps can be resumed and gathered without
// recomputing finished runs.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	diven "github.com/FuffiKFuffiK/DivEn"
)

const (
	tableLevels = "levels"

	timeout = 3 * time.Second
)

type Store struct {
	Path string

	db *sql.DB
}

func Open(dbPath string) (*Store, error) {
	s := &Store{Path: dbPath}
	var err error
	s.db, err = sql.Open("sqlite3", fmt.Sprintf("file:%s", dbPath))
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	if err := s.prepare(); err != nil {
		s.db.Close()
		return nil, errors.Wrap(err, "")
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) prepare() error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	sqlStr := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (run TEXT, idx INTEGER, v TEXT, e REAL, PRIMARY KEY (run, idx)) STRICT`, tableLevels)
	if _, err := s.db.ExecContext(ctx, sqlStr); err != nil {
		return errors.Wrap(err, "")
	}
	return nil
}

// Put replaces the levels stored under run.
func (s *Store) Put(ctx context.Context, run string, levels []diven.Level) error {
	sqlStr := fmt.Sprintf(`DELETE FROM %s WHERE run=?`, tableLevels)
	if _, err := s.db.ExecContext(ctx, sqlStr, run); err != nil {
		return errors.Wrap(err, "")
	}

	sqlStr = fmt.Sprintf(`INSERT OR REPLACE INTO %s (run, idx, v, e) VALUES (?, ?, ?, ?)`, tableLevels)
	for i, l := range levels {
		args := []any{run, i, formatV(l.V), l.E}
		if _, err := s.db.ExecContext(ctx, sqlStr, args...); err != nil {
			return errors.Wrap(err, fmt.Sprintf("%s %#v", sqlStr, args))
		}
	}
	return nil
}

// Get returns the levels stored under run in level order, or sql.ErrNoRows
// when the run is unknown.
func (s *Store) Get(ctx context.Context, run string) ([]diven.Level, error) {
	sqlStr := fmt.Sprintf(`SELECT v, e FROM %s WHERE run=? ORDER BY idx`, tableLevels)
	rows, err := s.db.QueryContext(ctx, sqlStr, run)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	defer rows.Close()

	levels := make([]diven.Level, 0)
	for rows.Next() {
		var vStr string
		var l diven.Level
		if err := rows.Scan(&vStr, &l.E); err != nil {
			return nil, errors.Wrap(err, "")
		}
		if l.V, err = parseV(vStr); err != nil {
			return nil, errors.Wrap(err, fmt.Sprintf("run %s", run))
		}
		levels = append(levels, l)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "")
	}
	if len(levels) == 0 {
		return nil, errors.Wrap(sql.ErrNoRows, fmt.Sprintf("run %s", run))
	}
	return levels, nil
}

// Runs lists the stored run labels.
func (s *Store) Runs(ctx context.Context) ([]string, error) {
	sqlStr := fmt.Sprintf(`SELECT DISTINCT run FROM %s ORDER BY run`, tableLevels)
	rows, err := s.db.QueryContext(ctx, sqlStr)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	defer rows.Close()

	var runs []string
	for rows.Next() {
		var r string
		if err := rows.Scan(&r); err != nil {
			return nil, errors.Wrap(err, "")
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "")
	}
	return runs, nil
}

func formatV(v []int) string {
	ss := make([]string, len(v))
	for i, q := range v {
		ss[i] = strconv.Itoa(q)
	}
	return strings.Join(ss, " ")
}

func parseV(s string) ([]int, error) {
	fields := strings.Fields(s)
	v := make([]int, len(fields))
	for i, f := range fields {
		var err error
		if v[i], err = strconv.Atoi(f); err != nil {
			return nil, errors.Wrap(err, fmt.Sprintf("%#v", s))
		}
	}
	return v, nil
}
