package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ComparisonCalls counts calls made to the face comparison service.
	ComparisonCalls = promauto.NewCounter(prometheus.CounterOpts{
		Name: "facetrack_comparison_calls_total",
		Help: "Calls made to the face comparison service.",
	})

	// CaptureAttempts counts camera captures by result.
	CaptureAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "facetrack_capture_attempts_total",
		Help: "Camera capture attempts by result.",
	}, []string{"result"})

	// AttendanceOutcomes counts attendance workflow outcomes.
	AttendanceOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "facetrack_attendance_outcomes_total",
		Help: "Attendance workflow outcomes (recognized, not_recognized, error).",
	}, []string{"outcome"})

	// DashboardActions counts admin dashboard actions by action and outcome.
	DashboardActions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "facetrack_dashboard_actions_total",
		Help: "Admin dashboard actions by action and outcome.",
	}, []string{"action", "outcome"})
)
