package admin

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"facetrack/internal/attendance"
	"facetrack/internal/metrics"
	"facetrack/internal/model"
)

// ErrNotAuthorized is returned when no admin matches the captured frame.
var ErrNotAuthorized = errors.New("admin not recognized")

// Directory covers the employee and admin record operations the dashboard
// needs. Implemented by employee.Repository.
type Directory interface {
	List(ctx context.Context) ([]model.Employee, error)
	Create(ctx context.Context, e model.Employee) error
	Delete(ctx context.Context, employeeID string) error
	AddTask(ctx context.Context, employeeID, task string) error
	RemoveTask(ctx context.Context, employeeID, task string) error
	ListAdmins(ctx context.Context) ([]model.Admin, error)
}

// Service runs the admin face-login and dashboard workflows.
type Service struct {
	camera    attendance.Camera
	store     attendance.Uploader
	directory Directory
	faces     attendance.Comparer

	folder      string // object-store namespace for admin login snapshots
	deviceIndex int
	threshold   float64
	now         func() time.Time
}

// NewService creates the admin workflows with collaborators injected.
func NewService(camera attendance.Camera, store attendance.Uploader, directory Directory, faces attendance.Comparer, folder string, deviceIndex int, threshold float64) *Service {
	return &Service{
		camera:      camera,
		store:       store,
		directory:   directory,
		faces:       faces,
		folder:      folder,
		deviceIndex: deviceIndex,
		threshold:   threshold,
		now:         time.Now,
	}
}

// Login captures a frame and compares it against every admin reference
// photo. On the first match it returns the current full employee list for
// the dashboard; otherwise ErrNotAuthorized.
func (s *Service) Login(ctx context.Context) ([]model.Employee, error) {
	frame, contentType, err := s.camera.Capture(ctx, s.deviceIndex)
	if err != nil {
		metrics.CaptureAttempts.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.CaptureAttempts.WithLabelValues("ok").Inc()

	key := s.folder + "admin_" + s.now().Format("20060102_150405") + ".jpg"
	frameURL, err := s.store.Put(ctx, key, frame, contentType)
	if err != nil {
		return nil, fmt.Errorf("store login frame: %w", err)
	}

	admins, err := s.directory.ListAdmins(ctx)
	if err != nil {
		return nil, fmt.Errorf("list admins: %w", err)
	}

	for _, adm := range admins {
		metrics.ComparisonCalls.Inc()
		res, err := s.faces.Compare(ctx, adm.ImagePath, frameURL, s.threshold)
		if err != nil {
			return nil, fmt.Errorf("face comparison: %w", err)
		}
		if res.Matched() {
			log.Printf("admin %s authenticated", adm.AdminID)
			return s.directory.List(ctx)
		}
	}

	return nil, ErrNotAuthorized
}

// Dashboard action names.
const (
	ActionAddEmployee    = "add_employee"
	ActionRemoveEmployee = "remove_employee"
	ActionAddTask        = "add_task"
	ActionRemoveTask     = "remove_task"
)

// ActionRequest carries one dashboard action and its fields.
type ActionRequest struct {
	Action     string
	Name       string
	Role       string
	EmployeeID string
	Task       string

	// Upload for add_employee.
	Image            []byte
	ImageFilename    string
	ImageContentType string
}

// Outcome reports how an action was handled. A malformed or incomplete
// action is skipped, not failed; the request still completes.
type Outcome struct {
	Action  string `json:"action,omitempty"`
	Skipped bool   `json:"skipped"`
	Reason  string `json:"reason,omitempty"`
}

var allowedExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
}

func allowedFile(filename string) bool {
	return allowedExtensions[strings.ToLower(path.Ext(filename))]
}

// HandleAction performs one dashboard action. Store failures are real
// errors; validation failures degrade to a skipped outcome.
func (s *Service) HandleAction(ctx context.Context, req ActionRequest) (Outcome, error) {
	out, err := s.handle(ctx, req)
	label := "ok"
	if out.Skipped {
		label = "skipped"
	}
	if err != nil {
		label = "error"
	}
	metrics.DashboardActions.WithLabelValues(out.Action, label).Inc()
	return out, err
}

func (s *Service) handle(ctx context.Context, req ActionRequest) (Outcome, error) {
	switch req.Action {
	case ActionAddEmployee:
		return s.addEmployee(ctx, req)

	case ActionRemoveEmployee:
		if req.EmployeeID == "" {
			return skipped(req.Action, "employee_id required"), nil
		}
		return Outcome{Action: req.Action}, s.directory.Delete(ctx, req.EmployeeID)

	case ActionAddTask:
		if req.EmployeeID == "" || req.Task == "" {
			return skipped(req.Action, "employee_id and task required"), nil
		}
		return Outcome{Action: req.Action}, s.directory.AddTask(ctx, req.EmployeeID, req.Task)

	case ActionRemoveTask:
		if req.EmployeeID == "" || req.Task == "" {
			return skipped(req.Action, "employee_id and task required"), nil
		}
		return Outcome{Action: req.Action}, s.directory.RemoveTask(ctx, req.EmployeeID, req.Task)

	default:
		return skipped(req.Action, "unknown action"), nil
	}
}

func (s *Service) addEmployee(ctx context.Context, req ActionRequest) (Outcome, error) {
	if len(req.Image) == 0 || !allowedFile(req.ImageFilename) {
		return skipped(req.Action, "image with png/jpg/jpeg extension required"), nil
	}

	ext := strings.ToLower(path.Ext(req.ImageFilename))
	imageKey := uuid.NewString() + ext
	imageURL, err := s.store.Put(ctx, imageKey, req.Image, req.ImageContentType)
	if err != nil {
		return Outcome{Action: req.Action}, fmt.Errorf("store reference image: %w", err)
	}

	emp := model.Employee{
		EmployeeID: uuid.NewString(),
		ImagePath:  imageURL,
		Tasks:      []string{},
	}
	if req.Name != "" {
		emp.Name = &req.Name
	}
	if req.Role != "" {
		emp.Role = &req.Role
	}
	if err := s.directory.Create(ctx, emp); err != nil {
		return Outcome{Action: req.Action}, fmt.Errorf("create employee: %w", err)
	}
	return Outcome{Action: req.Action}, nil
}

// ListEmployees re-fetches the full employee list for display.
func (s *Service) ListEmployees(ctx context.Context) ([]model.Employee, error) {
	return s.directory.List(ctx)
}

func skipped(action, reason string) Outcome {
	return Outcome{Action: action, Skipped: true, Reason: reason}
}
