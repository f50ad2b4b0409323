package model

import "time"

// Display defaults for optional employee fields.
const (
	DefaultName = "Unknown"
	DefaultRole = "Not Assigned"
)

// StatusPresent is the only attendance status written in the current scope.
const StatusPresent = "Present"

// Employee is a registered employee with a stored reference photo.
type Employee struct {
	EmployeeID string    `json:"employee_id"`
	Name       *string   `json:"name,omitempty"`
	Role       *string   `json:"role,omitempty"`
	ImagePath  string    `json:"image_path"` // public URL of the reference photo
	Tasks      []string  `json:"tasks"`      // ordered, append-only except remove-by-value
	CreatedAt  time.Time `json:"created_at"`
}

// DisplayName returns the employee name or the documented default.
func (e Employee) DisplayName() string {
	if e.Name != nil && *e.Name != "" {
		return *e.Name
	}
	return DefaultName
}

// DisplayRole returns the employee role or the documented default.
func (e Employee) DisplayRole() string {
	if e.Role != nil && *e.Role != "" {
		return *e.Role
	}
	return DefaultRole
}

// Admin is a face-login principal for the dashboard. Read-only to this
// system; rows are seeded out of band.
type Admin struct {
	AdminID   string  `json:"admin_id"`
	Name      *string `json:"name,omitempty"`
	ImagePath string  `json:"image_path"`
}

// AttendanceRecord is one "Present" mark. Written once, never mutated.
// Multiple records per employee per day are allowed.
type AttendanceRecord struct {
	EmployeeID string `json:"employee_id"`
	Date       string `json:"date"` // 2006-01-02, local clock at capture time
	Time       string `json:"time"` // 15:04:05, local clock at capture time
	Status     string `json:"status"`
}

// AttendanceView is the success payload of the attendance workflow.
type AttendanceView struct {
	EmployeeID string   `json:"employee_id"`
	ImageURL   string   `json:"image_url"`
	Tasks      []string `json:"tasks"`
	Name       string   `json:"name"`
	Role       string   `json:"role"`
}
