package updaterequests

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/grace-connect/backend/internal/members"
	"github.com/grace-connect/backend/internal/middleware"
	"github.com/grace-connect/backend/internal/models"
	"github.com/grace-connect/backend/pkg/queue"
	"github.com/grace-connect/backend/pkg/response"
)

// Broadcaster pushes dashboard activity events (nil-able).
type Broadcaster interface {
	BroadcastToTopic(topic, event string, payload interface{})
}

// Handler handles update request HTTP endpoints.
type Handler struct {
	repo       *Repository
	memberRepo *members.Repository
	jobs       *queue.Queue
	hub        Broadcaster
	logger     *zap.Logger
}

// NewHandler creates an update requests handler. jobs and hub may be nil.
func NewHandler(repo *Repository, memberRepo *members.Repository, jobs *queue.Queue, hub Broadcaster, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, memberRepo: memberRepo, jobs: jobs, hub: hub, logger: logger}
}

// SubmitRequest is the body for POST /update-requests.
type SubmitRequest struct {
	MemberID         string `json:"member_id" binding:"required,uuid"`
	FullName         string `json:"full_name" binding:"required"`
	Email            string `json:"email" binding:"required,email"`
	Gender           string `json:"gender"`
	DOB              string `json:"dob"`
	PhoneNumber      string `json:"phone_number" binding:"required,min=10"`
	WhatsappNumber   string `json:"whatsapp_number"`
	DigitalAddress   string `json:"digital_address"`
	Location         string `json:"location"`
	MaritalStatus    string `json:"marital_status"`
	OccupationStatus string `json:"occupation_status"`
	Organization     string `json:"organization"`
	Branch           string `json:"branch"`
	Reason           string `json:"reason" binding:"required"`
}

// Submit handles POST /update-requests. The member must exist; the
// request stays pending until an admin reviews it, and an admin
// notification job is enqueued.
func (h *Handler) Submit(c *gin.Context) {
	var req SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	memberID, _ := uuid.Parse(req.MemberID)

	if _, err := h.memberRepo.GetByID(c.Request.Context(), memberID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.NotFound(c, "member not found")
			return
		}
		h.logger.Error("fetch member failed", zap.Error(err), zap.String("member_id", memberID.String()))
		response.Internal(c, "failed to submit update request")
		return
	}

	ur := &models.UpdateRequest{
		MemberID:         memberID,
		FullName:         req.FullName,
		Email:            req.Email,
		Gender:           req.Gender,
		DOB:              req.DOB,
		PhoneNumber:      req.PhoneNumber,
		WhatsappNumber:   req.WhatsappNumber,
		DigitalAddress:   req.DigitalAddress,
		Location:         req.Location,
		MaritalStatus:    req.MaritalStatus,
		OccupationStatus: req.OccupationStatus,
		Organization:     req.Organization,
		Branch:           req.Branch,
		Reason:           req.Reason,
	}
	if err := h.repo.Create(c.Request.Context(), ur); err != nil {
		h.logger.Error("create update request failed", zap.Error(err), zap.String("member_id", memberID.String()))
		response.Internal(c, "failed to submit update request")
		return
	}

	if h.jobs != nil {
		payload := queue.AdminNotificationPayload{
			UpdateRequestID: ur.ID,
			MemberID:        ur.MemberID,
			MemberName:      ur.FullName,
			Reason:          ur.Reason,
		}
		if err := h.jobs.EnqueueAdminNotification(c.Request.Context(), payload); err != nil {
			// The request itself is saved; notification delivery is best effort.
			h.logger.Warn("enqueue admin notification failed", zap.Error(err), zap.String("update_request_id", ur.ID.String()))
		}
	}
	if h.hub != nil {
		h.hub.BroadcastToTopic("activity", "update_request_created", ur)
	}
	response.Created(c, ur)
}

// List handles GET /update-requests (admin). Optional ?status= filter.
func (h *Handler) List(c *gin.Context) {
	status := models.UpdateRequestStatus(c.Query("status"))
	switch status {
	case "", models.UpdateRequestPending, models.UpdateRequestApproved, models.UpdateRequestRejected:
	default:
		response.BadRequest(c, "invalid status filter")
		return
	}
	list, err := h.repo.List(c.Request.Context(), status)
	if err != nil {
		h.logger.Error("list update requests failed", zap.Error(err))
		response.Internal(c, "failed to list update requests")
		return
	}
	response.OK(c, list)
}

// Approve handles PATCH /update-requests/:id/approve (admin). Applies
// the requested fields to the member row, then marks the request approved.
func (h *Handler) Approve(c *gin.Context) {
	h.review(c, models.UpdateRequestApproved)
}

// Reject handles PATCH /update-requests/:id/reject (admin).
func (h *Handler) Reject(c *gin.Context) {
	h.review(c, models.UpdateRequestRejected)
}

func (h *Handler) review(c *gin.Context, status models.UpdateRequestStatus) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid update request id")
		return
	}
	reviewerVal, _ := c.Get(middleware.ContextUserID)
	reviewer, _ := reviewerVal.(uuid.UUID)

	ur, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.NotFound(c, "update request not found")
			return
		}
		h.logger.Error("fetch update request failed", zap.Error(err), zap.String("update_request_id", id.String()))
		response.Internal(c, "failed to review update request")
		return
	}
	if ur.Status != models.UpdateRequestPending {
		response.Conflict(c, "update request already reviewed")
		return
	}

	if status == models.UpdateRequestApproved {
		if err := h.applyToMember(c.Request.Context(), ur); err != nil {
			h.logger.Error("apply update request failed", zap.Error(err), zap.String("update_request_id", id.String()))
			response.Internal(c, "failed to apply update request")
			return
		}
	}

	if err := h.repo.SetStatus(c.Request.Context(), id, status, reviewer); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.Conflict(c, "update request already reviewed")
			return
		}
		h.logger.Error("set update request status failed", zap.Error(err), zap.String("update_request_id", id.String()))
		response.Internal(c, "failed to review update request")
		return
	}
	response.OK(c, gin.H{"id": id, "status": status})
}

// applyToMember copies the requested fields onto the member record.
// Empty optional fields keep the member's current values.
func (h *Handler) applyToMember(ctx context.Context, ur *models.UpdateRequest) error {
	m, err := h.memberRepo.GetByID(ctx, ur.MemberID)
	if err != nil {
		return err
	}
	m.FullName = ur.FullName
	m.Email = ur.Email
	m.PhoneNumber = ur.PhoneNumber
	if ur.Gender != "" {
		m.Gender = ur.Gender
	}
	if ur.DOB != "" {
		m.DOB = ur.DOB
	}
	if ur.WhatsappNumber != "" {
		m.WhatsappNumber = ur.WhatsappNumber
	}
	if ur.DigitalAddress != "" {
		m.DigitalAddress = ur.DigitalAddress
	}
	if ur.Location != "" {
		m.Location = ur.Location
	}
	if ur.MaritalStatus != "" {
		m.MaritalStatus = ur.MaritalStatus
	}
	if ur.OccupationStatus != "" {
		m.OccupationStatus = ur.OccupationStatus
	}
	if ur.Organization != "" {
		m.Organization = ur.Organization
	}
	if ur.Branch != "" {
		m.Branch = ur.Branch
	}
	return h.memberRepo.Update(ctx, m)
}
