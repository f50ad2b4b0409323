package attendance

import (
	"context"
	"database/sql"
	"strconv"

	"facetrack/internal/model"
)

// Repository persists attendance records in Postgres. Records are written
// once and never mutated or deleted.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Insert writes one attendance record.
func (r *Repository) Insert(ctx context.Context, rec model.AttendanceRecord) error {
	if rec.Status == "" {
		rec.Status = model.StatusPresent
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO attendance_records (employee_id, date, time, status)
		VALUES ($1, $2, $3, $4)
	`, rec.EmployeeID, rec.Date, rec.Time, rec.Status)
	return err
}

// List returns records, newest first, optionally filtered by employee.
func (r *Repository) List(ctx context.Context, employeeID string, limit, offset int) ([]model.AttendanceRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	query := `SELECT employee_id, date, time, status FROM attendance_records`
	args := []any{}
	if employeeID != "" {
		query += ` WHERE employee_id = $1`
		args = append(args, employeeID)
	}
	query += ` ORDER BY id DESC LIMIT $` + strconv.Itoa(len(args)+1) + ` OFFSET $` + strconv.Itoa(len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []model.AttendanceRecord
	for rows.Next() {
		var rec model.AttendanceRecord
		if err := rows.Scan(&rec.EmployeeID, &rec.Date, &rec.Time, &rec.Status); err != nil {
			return nil, err
		}
		res = append(res, rec)
	}
	return res, rows.Err()
}
