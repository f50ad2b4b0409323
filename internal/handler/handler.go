package handler

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"facetrack/internal/admin"
	"facetrack/internal/attendance"
	"facetrack/internal/auth"
	"facetrack/internal/capture"
	"facetrack/internal/model"
)

// AttendanceService runs the attendance workflow.
type AttendanceService interface {
	Record(ctx context.Context) (*model.AttendanceView, error)
}

// AdminService runs admin login and dashboard actions.
type AdminService interface {
	Login(ctx context.Context) ([]model.Employee, error)
	HandleAction(ctx context.Context, req admin.ActionRequest) (admin.Outcome, error)
	ListEmployees(ctx context.Context) ([]model.Employee, error)
}

// AttendanceLister lists recorded attendance for the management API.
type AttendanceLister interface {
	List(ctx context.Context, employeeID string, limit, offset int) ([]model.AttendanceRecord, error)
}

// SessionConfig carries what's needed to mint admin session tokens.
type SessionConfig struct {
	Issuer     string
	SigningKey string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

type Handler struct {
	att     AttendanceService
	admin   AdminService
	records AttendanceLister
	session SessionConfig
}

func New(att AttendanceService, adm AdminService, records AttendanceLister, session SessionConfig) *Handler {
	return &Handler{att: att, admin: adm, records: records, session: session}
}

// ---------- Attendance ----------

// Capture runs the attendance workflow: one frame, one scan, first match
// marked present.
func (h *Handler) Capture(c *gin.Context) {
	view, err := h.att.Record(c.Request.Context())
	if err != nil {
		switch {
		case errors.Is(err, capture.ErrDeviceUnavailable):
			c.JSON(http.StatusInternalServerError, gin.H{"error": "unable to access the camera"})
		case errors.Is(err, capture.ErrCaptureFailed):
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to capture an image"})
		case errors.Is(err, attendance.ErrNotRecognized):
			c.JSON(http.StatusNotFound, gin.H{"error": "face not recognized"})
		default:
			log.Printf("attendance workflow failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "error during face comparison"})
		}
		return
	}
	c.JSON(http.StatusOK, view)
}

// ---------- Admin login ----------

// AdminLogin authenticates by face and returns the dashboard payload plus a
// session token pair for the management API.
func (h *Handler) AdminLogin(c *gin.Context) {
	employees, err := h.admin.Login(c.Request.Context())
	if err != nil {
		switch {
		case errors.Is(err, capture.ErrDeviceUnavailable):
			c.JSON(http.StatusInternalServerError, gin.H{"error": "unable to access the camera"})
		case errors.Is(err, capture.ErrCaptureFailed):
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to capture an image"})
		case errors.Is(err, admin.ErrNotAuthorized):
			c.JSON(http.StatusForbidden, gin.H{"error": "admin not recognized"})
		default:
			log.Printf("admin login failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "admin login failed"})
		}
		return
	}

	tokens, err := auth.IssueSession("admin", h.session.Issuer, h.session.SigningKey, h.session.AccessTTL, h.session.RefreshTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token issue failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"employees":     employees,
		"access_token":  tokens.AccessToken,
		"refresh_token": tokens.RefreshToken,
		"expires_at":    tokens.AccessExp.Unix(),
	})
}

// ---------- Admin dashboard ----------

// AdminDashboard handles one optional action, then always re-lists
// employees. Malformed actions are skipped, never hard errors.
func (h *Handler) AdminDashboard(c *gin.Context) {
	var outcome *admin.Outcome

	if c.Request.Method == http.MethodPost {
		req := admin.ActionRequest{
			Action:     c.PostForm("action"),
			Name:       c.PostForm("name"),
			Role:       c.PostForm("role"),
			EmployeeID: c.PostForm("employee_id"),
			Task:       c.PostForm("task"),
		}

		if file, header, err := c.Request.FormFile("employee_image"); err == nil {
			data, rerr := io.ReadAll(file)
			file.Close()
			if rerr == nil {
				req.Image = data
				req.ImageFilename = header.Filename
				req.ImageContentType = header.Header.Get("Content-Type")
			}
		}

		out, err := h.admin.HandleAction(c.Request.Context(), req)
		if err != nil {
			log.Printf("dashboard action %q failed: %v", req.Action, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "dashboard action failed"})
			return
		}
		outcome = &out
	}

	employees, err := h.admin.ListEmployees(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if employees == nil {
		employees = []model.Employee{}
	}

	resp := gin.H{"employees": employees}
	if outcome != nil {
		resp["outcome"] = outcome
	}
	c.JSON(http.StatusOK, resp)
}

// ---------- Management API ----------

func (h *Handler) ListEmployees(c *gin.Context) {
	employees, err := h.admin.ListEmployees(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if employees == nil {
		employees = []model.Employee{}
	}
	c.JSON(http.StatusOK, gin.H{"employees": employees})
}

func (h *Handler) ListAttendance(c *gin.Context) {
	limit, offset := 50, 0
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			limit = parsed
		}
	}
	if v := c.Query("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			offset = parsed
		}
	}
	records, err := h.records.List(c.Request.Context(), c.Query("employee_id"), limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if records == nil {
		records = []model.AttendanceRecord{}
	}
	c.JSON(http.StatusOK, gin.H{"records": records})
}
