package registrations

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/grace-connect/backend/internal/models"
	"github.com/grace-connect/backend/pkg/response"
)

// Broadcaster pushes dashboard activity events (nil-able).
type Broadcaster interface {
	BroadcastToTopic(topic, event string, payload interface{})
}

// Store is the registration persistence the handler depends on.
type Store interface {
	Writer
	GetByID(ctx context.Context, id uuid.UUID) (*models.CampRegistration, error)
	ListAll(ctx context.Context) ([]*models.CampRegistration, error)
	UpdateAttendance(ctx context.Context, id uuid.UUID, attended bool) error
	CountByAttendanceDate(ctx context.Context) ([]DateCount, error)
}

// Handler handles camp registration HTTP endpoints.
type Handler struct {
	schema   *Schema
	resolver MemberResolver
	repo     Store
	hub      Broadcaster
	cfg      WorkflowConfig
	logger   *zap.Logger
}

// NewHandler creates a registrations handler. hub may be nil.
func NewHandler(schema *Schema, resolver MemberResolver, repo Store, hub Broadcaster, cfg WorkflowConfig, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{schema: schema, resolver: resolver, repo: repo, hub: hub, cfg: cfg, logger: logger}
}

// Register handles POST /camp/register. Runs the full workflow for a
// one-shot submission: validate, resolve (member path), write.
func (h *Handler) Register(c *gin.Context) {
	var raw RawInput
	if err := c.ShouldBindJSON(&raw); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	wf := NewWorkflow(h.schema, h.resolver, h.repo, h.cfg, h.logger)
	defer wf.Close()

	rec, err := wf.Submit(c.Request.Context(), raw)
	if err != nil {
		var ferrs FieldErrors
		switch {
		case errors.As(err, &ferrs):
			response.ValidationFailed(c, ferrs)
		case errors.Is(err, ErrMemberUnresolved):
			response.UnprocessableEntity(c, ErrMemberUnresolved.Error())
		case errors.Is(err, context.DeadlineExceeded):
			h.logger.Error("registration store timed out", zap.Error(err))
			response.ServiceUnavailable(c, "registration store timed out, please try again")
		default:
			h.logger.Error("register for camp failed", zap.Error(err))
			response.Internal(c, "failed to register")
		}
		return
	}

	if h.hub != nil {
		h.hub.BroadcastToTopic("activity", "registration_created", rec)
	}
	response.Created(c, rec)
}

// GetByID handles GET /camp/registrations/:id (confirmation page).
func (h *Handler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid registration id")
		return
	}
	reg, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.NotFound(c, "registration not found")
			return
		}
		h.logger.Error("get registration failed", zap.Error(err), zap.String("registration_id", id.String()))
		response.Internal(c, "failed to fetch registration")
		return
	}
	response.OK(c, reg)
}

// List handles GET /camp/registrations (admin).
func (h *Handler) List(c *gin.Context) {
	list, err := h.repo.ListAll(c.Request.Context())
	if err != nil {
		h.logger.Error("list registrations failed", zap.Error(err))
		response.Internal(c, "failed to list registrations")
		return
	}
	response.OK(c, list)
}

// Stats handles GET /camp/registrations/stats (admin).
func (h *Handler) Stats(c *gin.Context) {
	stats, err := h.repo.CountByAttendanceDate(c.Request.Context())
	if err != nil {
		h.logger.Error("registration stats failed", zap.Error(err))
		response.Internal(c, "failed to compute stats")
		return
	}
	response.OK(c, stats)
}

// AttendanceRequest is the body for PATCH /camp/registrations/:id/attendance.
type AttendanceRequest struct {
	Attended *bool `json:"attended" binding:"required"`
}

// UpdateAttendance handles PATCH /camp/registrations/:id/attendance (admin check-in).
func (h *Handler) UpdateAttendance(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid registration id")
		return
	}
	var req AttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if err := h.repo.UpdateAttendance(c.Request.Context(), id, *req.Attended); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.NotFound(c, "registration not found")
			return
		}
		h.logger.Error("update attendance failed", zap.Error(err), zap.String("registration_id", id.String()))
		response.Internal(c, "failed to update attendance")
		return
	}
	response.NoContent(c)
}
