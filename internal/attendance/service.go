package attendance

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"facetrack/internal/faceclient"
	"facetrack/internal/metrics"
	"facetrack/internal/model"
)

// ErrNotRecognized is returned when no employee matches the captured frame.
// It is an expected business outcome, not a server failure.
var ErrNotRecognized = errors.New("face not recognized")

// Camera provides a single captured frame.
type Camera interface {
	Capture(ctx context.Context, deviceIndex int) (data []byte, contentType string, err error)
}

// Uploader stores an image and returns its public URL.
type Uploader interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

// Directory enumerates employee records.
type Directory interface {
	List(ctx context.Context) ([]model.Employee, error)
}

// Comparer answers whether two stored images depict the same face.
type Comparer interface {
	Compare(ctx context.Context, sourceURL, targetURL string, threshold float64) (*faceclient.CompareResult, error)
}

// Recorder writes attendance records.
type Recorder interface {
	Insert(ctx context.Context, rec model.AttendanceRecord) error
}

// Service runs the attendance workflow: capture a frame, store it, compare
// it against every employee's reference photo in scan order, and mark the
// first match present.
type Service struct {
	camera    Camera
	store     Uploader
	directory Directory
	faces     Comparer
	records   Recorder

	folder      string // object-store namespace for attendance snapshots
	deviceIndex int
	threshold   float64
	now         func() time.Time
}

// NewService creates the workflow with its collaborators injected.
func NewService(camera Camera, store Uploader, directory Directory, faces Comparer, records Recorder, folder string, deviceIndex int, threshold float64) *Service {
	return &Service{
		camera:      camera,
		store:       store,
		directory:   directory,
		faces:       faces,
		records:     records,
		folder:      folder,
		deviceIndex: deviceIndex,
		threshold:   threshold,
		now:         time.Now,
	}
}

// Record captures one frame and marks the first matching employee present.
// Camera and comparison-service failures are terminal; ErrNotRecognized is
// returned when the full scan finds no match.
func (s *Service) Record(ctx context.Context) (*model.AttendanceView, error) {
	frame, contentType, err := s.camera.Capture(ctx, s.deviceIndex)
	if err != nil {
		metrics.CaptureAttempts.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.CaptureAttempts.WithLabelValues("ok").Inc()

	now := s.now()
	key := s.folder + now.Format("20060102_150405") + ".jpg"
	frameURL, err := s.store.Put(ctx, key, frame, contentType)
	if err != nil {
		return nil, fmt.Errorf("store captured frame: %w", err)
	}

	employees, err := s.directory.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}

	for _, emp := range employees {
		metrics.ComparisonCalls.Inc()
		res, err := s.faces.Compare(ctx, emp.ImagePath, frameURL, s.threshold)
		if err != nil {
			// A comparison-service error aborts the whole scan; remaining
			// employees are not tried.
			metrics.AttendanceOutcomes.WithLabelValues("error").Inc()
			return nil, fmt.Errorf("face comparison: %w", err)
		}
		if !res.Matched() {
			continue
		}

		rec := model.AttendanceRecord{
			EmployeeID: emp.EmployeeID,
			Date:       now.Format("2006-01-02"),
			Time:       now.Format("15:04:05"),
			Status:     model.StatusPresent,
		}
		if err := s.records.Insert(ctx, rec); err != nil {
			return nil, fmt.Errorf("write attendance record: %w", err)
		}
		log.Printf("attendance recorded for %s", emp.EmployeeID)
		metrics.AttendanceOutcomes.WithLabelValues("recognized").Inc()

		tasks := emp.Tasks
		if tasks == nil {
			tasks = []string{}
		}
		return &model.AttendanceView{
			EmployeeID: emp.EmployeeID,
			ImageURL:   emp.ImagePath,
			Tasks:      tasks,
			Name:       emp.DisplayName(),
			Role:       emp.DisplayRole(),
		}, nil
	}

	metrics.AttendanceOutcomes.WithLabelValues("not_recognized").Inc()
	return nil, ErrNotRecognized
}
