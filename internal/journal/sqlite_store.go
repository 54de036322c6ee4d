package journal

import (
	"database/sql"
	"errors"
	"time"

	"github.com/tohenk/go-work/pkg/api"
)

// SQLiteStore is a Store backed by SQLite.
//
// It expects an *sql.DB that uses a SQLite driver (for example,
// "modernc.org/sqlite"). The caller is responsible for importing
// the driver, e.g.:
//
//	import _ "modernc.org/sqlite"
type SQLiteStore struct {
	db *sql.DB
}

// Ensure SQLiteStore implements Store.
var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore initializes the required schema in the given database and
// returns a new SQLiteStore.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			status TEXT NOT NULL,
			steps INTEGER NOT NULL,
			current_step INTEGER NOT NULL,
			output BLOB,
			error TEXT,
			started_at INTEGER NOT NULL,
			finished_at INTEGER NOT NULL
		);`,
	)
	return err
}

func (s *SQLiteStore) SaveRun(rec *api.RunRecord) error {
	output, err := EncodeValue(rec.Output)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(`
		INSERT INTO runs (id, status, steps, current_step, output, error, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID,
		string(rec.Status),
		rec.Steps,
		rec.CurrentStep,
		output,
		rec.Err,
		rec.StartedAt.UnixNano(),
		rec.FinishedAt.UnixNano(),
	)
	return err
}

func (s *SQLiteStore) UpdateRun(rec *api.RunRecord) error {
	output, err := EncodeValue(rec.Output)
	if err != nil {
		return err
	}

	res, err := s.db.Exec(`
		UPDATE runs
		SET status = ?, steps = ?, current_step = ?, output = ?, error = ?, started_at = ?, finished_at = ?
		WHERE id = ?`,
		string(rec.Status),
		rec.Steps,
		rec.CurrentStep,
		output,
		rec.Err,
		rec.StartedAt.UnixNano(),
		rec.FinishedAt.UnixNano(),
		rec.ID,
	)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrRunNotFound
	}
	return nil
}

func (s *SQLiteStore) GetRun(id string) (*api.RunRecord, error) {
	row := s.db.QueryRow(`
		SELECT id, status, steps, current_step, output, error, started_at, finished_at
		FROM runs WHERE id = ?`, id)

	rec, err := scanRun(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRunNotFound
		}
		return nil, err
	}
	return rec, nil
}

func (s *SQLiteStore) ListRuns(filter Filter) ([]*api.RunRecord, error) {
	query := `
		SELECT id, status, steps, current_step, output, error, started_at, finished_at
		FROM runs`
	args := []any{}

	if filter.Status != "" {
		query += ` WHERE status = ?`
		args = append(args, string(filter.Status))
	}
	query += ` ORDER BY started_at ASC`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*api.RunRecord
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, rec)
	}
	return result, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*api.RunRecord, error) {
	var (
		rec        api.RunRecord
		status     string
		output     []byte
		startedAt  int64
		finishedAt int64
	)

	err := row.Scan(&rec.ID, &status, &rec.Steps, &rec.CurrentStep, &output, &rec.Err, &startedAt, &finishedAt)
	if err != nil {
		return nil, err
	}

	rec.Status = api.Status(status)
	rec.StartedAt = time.Unix(0, startedAt)
	rec.FinishedAt = time.Unix(0, finishedAt)

	rec.Output, err = DecodeValue(output)
	if err != nil {
		return nil, err
	}

	return &rec, nil
}
