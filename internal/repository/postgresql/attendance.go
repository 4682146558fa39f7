package postgresql

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cmlabs-hris/hris-attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-engine/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type rawPunchRepository struct {
	db *database.DB
}

func NewRawPunchRepository(db *database.DB) attendance.RawPunchRepository {
	return &rawPunchRepository{db: db}
}

// InsertBatch implements attendance.RawPunchRepository.
func (r *rawPunchRepository) InsertBatch(ctx context.Context, punches []attendance.RawPunch) (int, error) {
	if len(punches) == 0 {
		return 0, nil
	}
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO raw_punches (external_user_id, log_date, log_time, direction, processed)
		VALUES ($1, $2, $3, $4, FALSE)
		ON CONFLICT (external_user_id, log_date, log_time, direction) DO NOTHING
	`

	batch := &pgx.Batch{}
	for _, p := range punches {
		batch.Queue(query, p.ExternalUserID, p.LogDate, p.LogTime, p.Direction)
	}

	var results pgx.BatchResults
	switch tx := q.(type) {
	case pgx.Tx:
		results = tx.SendBatch(ctx, batch)
	default:
		results = r.db.SendBatch(ctx, batch)
	}
	defer results.Close()

	inserted := 0
	for range punches {
		tag, err := results.Exec()
		if err != nil {
			return inserted, fmt.Errorf("failed to insert raw punch: %w", err)
		}
		inserted += int(tag.RowsAffected())
	}
	return inserted, nil
}

// ListUnprocessed implements attendance.RawPunchRepository.
func (r *rawPunchRepository) ListUnprocessed(ctx context.Context) ([]attendance.RawPunch, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, external_user_id, log_date, log_time, direction, processed, created_at
		FROM raw_punches
		WHERE NOT processed
		ORDER BY log_date, log_time
	`

	rows, err := q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list raw punches: %w", err)
	}
	defer rows.Close()

	var punches []attendance.RawPunch
	for rows.Next() {
		var p attendance.RawPunch
		if err := rows.Scan(&p.ID, &p.ExternalUserID, &p.LogDate, &p.LogTime, &p.Direction, &p.Processed, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan raw punch: %w", err)
		}
		punches = append(punches, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating raw punches: %w", err)
	}
	return punches, nil
}

// MarkProcessed implements attendance.RawPunchRepository.
func (r *rawPunchRepository) MarkProcessed(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	q := GetQuerier(ctx, r.db)

	if _, err := q.Exec(ctx, `UPDATE raw_punches SET processed = TRUE WHERE id = ANY($1)`, ids); err != nil {
		return fmt.Errorf("failed to mark raw punches processed: %w", err)
	}
	return nil
}

// DeleteProcessed implements attendance.RawPunchRepository.
func (r *rawPunchRepository) DeleteProcessed(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	q := GetQuerier(ctx, r.db)

	if _, err := q.Exec(ctx, `DELETE FROM raw_punches WHERE id = ANY($1) AND processed`, ids); err != nil {
		return fmt.Errorf("failed to delete raw punches: %w", err)
	}
	return nil
}

type attendanceRepository struct {
	db *database.DB
}

func NewAttendanceRepository(db *database.DB) attendance.AttendanceRepository {
	return &attendanceRepository{db: db}
}

const attendanceColumns = `
	id, employee_id, log_date, time_in, time_out, work_minutes, ot_minutes,
	status, source, ot_settled_at, created_at, updated_at
`

func scanAttendance(row pgx.Row) (attendance.Attendance, error) {
	var att attendance.Attendance
	err := row.Scan(
		&att.ID, &att.EmployeeID, &att.LogDate, &att.TimeIn, &att.TimeOut, &att.WorkMinutes, &att.OTMinutes,
		&att.Status, &att.Source, &att.OTSettledAt, &att.CreatedAt, &att.UpdatedAt,
	)
	return att, err
}

func (a *attendanceRepository) getByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time, lock bool) (*attendance.Attendance, error) {
	q := GetQuerier(ctx, a.db)

	query := `SELECT ` + attendanceColumns + `
		FROM attendances
		WHERE employee_id = $1 AND log_date = $2`
	if lock {
		query = forUpdate(ctx, query)
	}

	att, err := scanAttendance(q.QueryRow(ctx, query, employeeID, date))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get attendance by employee and date: %w", err)
	}
	return &att, nil
}

// GetByEmployeeAndDate implements attendance.AttendanceRepository.
func (a *attendanceRepository) GetByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) (*attendance.Attendance, error) {
	return a.getByEmployeeAndDate(ctx, employeeID, date, false)
}

// GetByEmployeeAndDateForUpdate implements attendance.AttendanceRepository.
func (a *attendanceRepository) GetByEmployeeAndDateForUpdate(ctx context.Context, employeeID string, date time.Time) (*attendance.Attendance, error) {
	return a.getByEmployeeAndDate(ctx, employeeID, date, true)
}

// Upsert implements attendance.AttendanceRepository.
func (a *attendanceRepository) Upsert(ctx context.Context, att attendance.Attendance) (attendance.Attendance, error) {
	q := GetQuerier(ctx, a.db)

	query := `
		INSERT INTO attendances (
			employee_id, log_date, time_in, time_out, work_minutes, ot_minutes,
			status, source, ot_settled_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (employee_id, log_date) DO UPDATE SET
			time_in = EXCLUDED.time_in,
			time_out = EXCLUDED.time_out,
			work_minutes = EXCLUDED.work_minutes,
			ot_minutes = EXCLUDED.ot_minutes,
			status = EXCLUDED.status,
			source = EXCLUDED.source,
			ot_settled_at = EXCLUDED.ot_settled_at,
			updated_at = NOW()
		RETURNING ` + attendanceColumns

	saved, err := scanAttendance(q.QueryRow(ctx, query,
		att.EmployeeID,
		att.LogDate,
		att.TimeIn,
		att.TimeOut,
		att.WorkMinutes,
		att.OTMinutes,
		att.Status,
		att.Source,
		att.OTSettledAt,
	))
	if err != nil {
		return attendance.Attendance{}, fmt.Errorf("failed to upsert attendance: %w", err)
	}
	return saved, nil
}

// List implements attendance.AttendanceRepository.
func (a *attendanceRepository) List(ctx context.Context, filter attendance.AttendanceFilter) ([]attendance.Attendance, error) {
	q := GetQuerier(ctx, a.db)

	whereClauses := []string{}
	args := []interface{}{}
	argIdx := 1

	if filter.EmployeeID != "" {
		whereClauses = append(whereClauses, fmt.Sprintf("employee_id = $%d", argIdx))
		args = append(args, filter.EmployeeID)
		argIdx++
	}
	if filter.From != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("log_date >= $%d", argIdx))
		args = append(args, *filter.From)
		argIdx++
	}
	if filter.To != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("log_date <= $%d", argIdx))
		args = append(args, *filter.To)
		argIdx++
	}

	query := `SELECT ` + attendanceColumns + ` FROM attendances`
	if len(whereClauses) > 0 {
		query += " WHERE " + strings.Join(whereClauses, " AND ")
	}
	query += " ORDER BY log_date DESC, employee_id"

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendances: %w", err)
	}
	defer rows.Close()

	var out []attendance.Attendance
	for rows.Next() {
		att, err := scanAttendance(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attendance: %w", err)
		}
		out = append(out, att)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating attendances: %w", err)
	}
	return out, nil
}

// ListUnsettledOvertime implements attendance.AttendanceRepository.
func (a *attendanceRepository) ListUnsettledOvertime(ctx context.Context, onOrBefore time.Time) ([]attendance.Attendance, error) {
	q := GetQuerier(ctx, a.db)

	query := `SELECT ` + attendanceColumns + `
		FROM attendances
		WHERE ot_minutes > 0
		  AND ot_settled_at IS NULL
		  AND log_date <= $1
		ORDER BY log_date, employee_id`

	rows, err := q.Query(ctx, query, onOrBefore)
	if err != nil {
		return nil, fmt.Errorf("failed to list unsettled overtime: %w", err)
	}
	defer rows.Close()

	var out []attendance.Attendance
	for rows.Next() {
		att, err := scanAttendance(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attendance: %w", err)
		}
		out = append(out, att)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating attendances: %w", err)
	}
	return out, nil
}

// SettleOvertime implements attendance.AttendanceRepository.
func (a *attendanceRepository) SettleOvertime(ctx context.Context, id string, at time.Time) error {
	q := GetQuerier(ctx, a.db)

	query := `
		UPDATE attendances
		SET ot_minutes = 0, ot_settled_at = $2, updated_at = NOW()
		WHERE id = $1
	`

	tag, err := q.Exec(ctx, query, id, at)
	if err != nil {
		return fmt.Errorf("failed to settle overtime: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return attendance.ErrAttendanceNotFound
	}
	return nil
}
