package employee

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"facetrack/internal/model"
)

// scanBatch is the page size for full-table scans.
const scanBatch = 100

// Repository persists employees and admins in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new employee record.
func (r *Repository) Create(ctx context.Context, e model.Employee) error {
	if e.EmployeeID == "" {
		return errors.New("employee id required")
	}
	tasks, err := json.Marshal(e.Tasks)
	if err != nil {
		return err
	}
	if e.Tasks == nil {
		tasks = []byte("[]")
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO employees (employee_id, name, role, image_path, tasks, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, e.EmployeeID, e.Name, e.Role, e.ImagePath, tasks, e.CreatedAt)
	return err
}

// Get returns a single employee, or nil when none exists.
func (r *Repository) Get(ctx context.Context, employeeID string) (*model.Employee, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT employee_id, name, role, image_path, tasks, created_at
		FROM employees WHERE employee_id = $1
	`, employeeID)
	e, err := scanEmployee(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return e, nil
}

// Delete removes an employee by id. Deleting a nonexistent id is not an
// error. Attendance records are not cascaded.
func (r *Repository) Delete(ctx context.Context, employeeID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM employees WHERE employee_id = $1`, employeeID)
	return err
}

// List returns every employee, scanning in fixed-size pages until the table
// is exhausted. Order follows creation time.
func (r *Repository) List(ctx context.Context) ([]model.Employee, error) {
	var all []model.Employee
	for offset := 0; ; offset += scanBatch {
		rows, err := r.db.QueryContext(ctx, `
			SELECT employee_id, name, role, image_path, tasks, created_at
			FROM employees
			ORDER BY created_at, employee_id
			LIMIT $1 OFFSET $2
		`, scanBatch, offset)
		if err != nil {
			return nil, err
		}
		n := 0
		for rows.Next() {
			e, err := scanEmployee(rows)
			if err != nil {
				rows.Close()
				return nil, err
			}
			all = append(all, *e)
			n++
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, err
		}
		rows.Close()
		if n < scanBatch {
			return all, nil
		}
	}
}

// AddTask appends one task to the employee's list. The append happens at the
// store level in a single statement; ordering is preserved. A missing
// employee leaves the table untouched.
func (r *Repository) AddTask(ctx context.Context, employeeID, task string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE employees
		SET tasks = tasks || to_jsonb($2::text)
		WHERE employee_id = $1
	`, employeeID, task)
	return err
}

// RemoveTask deletes the first task equal to the given value, inside one
// transaction so concurrent appends are not lost.
func (r *Repository) RemoveTask(ctx context.Context, employeeID, task string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var raw []byte
	err = tx.QueryRowContext(ctx,
		`SELECT tasks FROM employees WHERE employee_id = $1 FOR UPDATE`, employeeID,
	).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		return err
	}

	var tasks []string
	if err := json.Unmarshal(raw, &tasks); err != nil {
		return fmt.Errorf("decode tasks: %w", err)
	}

	updated, removed := removeFirst(tasks, task)
	if !removed {
		return tx.Commit()
	}

	out, err := json.Marshal(updated)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE employees SET tasks = $2 WHERE employee_id = $1`, employeeID, out,
	); err != nil {
		return err
	}
	return tx.Commit()
}

// ListAdmins returns every admin, paginated the same way as List.
func (r *Repository) ListAdmins(ctx context.Context) ([]model.Admin, error) {
	var all []model.Admin
	for offset := 0; ; offset += scanBatch {
		rows, err := r.db.QueryContext(ctx, `
			SELECT admin_id, name, image_path
			FROM admins
			ORDER BY created_at, admin_id
			LIMIT $1 OFFSET $2
		`, scanBatch, offset)
		if err != nil {
			return nil, err
		}
		n := 0
		for rows.Next() {
			var a model.Admin
			if err := rows.Scan(&a.AdminID, &a.Name, &a.ImagePath); err != nil {
				rows.Close()
				return nil, err
			}
			all = append(all, a)
			n++
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, err
		}
		rows.Close()
		if n < scanBatch {
			return all, nil
		}
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEmployee(row rowScanner) (*model.Employee, error) {
	var e model.Employee
	var raw []byte
	if err := row.Scan(&e.EmployeeID, &e.Name, &e.Role, &e.ImagePath, &raw, &e.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, &e.Tasks); err != nil {
		return nil, fmt.Errorf("decode tasks: %w", err)
	}
	if e.Tasks == nil {
		e.Tasks = []string{}
	}
	return &e, nil
}

// removeFirst drops the first element equal to val, preserving order.
func removeFirst(tasks []string, val string) ([]string, bool) {
	for i, t := range tasks {
		if t == val {
			out := make([]string, 0, len(tasks)-1)
			out = append(out, tasks[:i]...)
			return append(out, tasks[i+1:]...), true
		}
	}
	return tasks, false
}
