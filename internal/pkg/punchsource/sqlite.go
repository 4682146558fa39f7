package punchsource

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/pkg/utils"
	_ "github.com/mattn/go-sqlite3"
)

// SQLiteSource reads the export database a fingerprint device writes. The
// export keeps one row per punch in punch_logs.
type SQLiteSource struct {
	db *sql.DB
}

func OpenSQLite(path string) (*SQLiteSource, error) {
	db, err := sql.Open("sqlite3", path+"?mode=ro&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open punch export: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open punch export: %w", err)
	}
	return &SQLiteSource{db: db}, nil
}

// NewSQLiteSource wraps an already opened export database.
func NewSQLiteSource(db *sql.DB) *SQLiteSource {
	return &SQLiteSource{db: db}
}

func (s *SQLiteSource) Close() error {
	return s.db.Close()
}

func (s *SQLiteSource) Fetch(ctx context.Context, from, to time.Time) ([]attendance.SourceRow, error) {
	query := `
		SELECT user_id, log_date, log_time, direction
		FROM punch_logs
		WHERE log_date BETWEEN ? AND ?
		ORDER BY log_date, log_time
	`
	rows, err := s.db.QueryContext(ctx, query, from.Format(utils.DateLayout), to.Format(utils.DateLayout))
	if err != nil {
		return nil, fmt.Errorf("failed to query punch export: %w", err)
	}
	defer rows.Close()

	var out []attendance.SourceRow
	for rows.Next() {
		var r attendance.SourceRow
		if err := rows.Scan(&r.ExternalUserID, &r.LogDate, &r.LogTime, &r.Direction); err != nil {
			return nil, fmt.Errorf("failed to scan punch: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read punch export: %w", err)
	}
	return out, nil
}
