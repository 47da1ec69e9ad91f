package members

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/grace-connect/backend/internal/models"
	"github.com/grace-connect/backend/pkg/response"
)

// Handler handles member HTTP endpoints.
type Handler struct {
	repo   *Repository
	lookup *Lookup
	logger *zap.Logger
}

// NewHandler creates a members handler.
func NewHandler(repo *Repository, lookup *Lookup, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, lookup: lookup, logger: logger}
}

// LookupByPhone handles GET /members/lookup?phone=. Used by the camp
// registration form to pre-resolve a member before submission.
func (h *Handler) LookupByPhone(c *gin.Context) {
	phone := c.Query("phone")
	if len(phone) < MinLookupLen {
		response.BadRequest(c, "phone must be at least 10 characters")
		return
	}
	m, err := h.lookup.FindMemberByPhone(c.Request.Context(), phone)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "member not found")
			return
		}
		h.logger.Error("member lookup failed", zap.Error(err))
		response.Internal(c, "lookup failed")
		return
	}
	response.OK(c, gin.H{"found": true, "member": m})
}

// GetByID handles GET /members/:id.
func (h *Handler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid member id")
		return
	}
	m, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.NotFound(c, "member not found")
			return
		}
		h.logger.Error("get member failed", zap.Error(err), zap.String("member_id", id.String()))
		response.Internal(c, "failed to fetch member")
		return
	}
	response.OK(c, m)
}

// List handles GET /members (admin).
func (h *Handler) List(c *gin.Context) {
	list, err := h.repo.List(c.Request.Context())
	if err != nil {
		h.logger.Error("list members failed", zap.Error(err))
		response.Internal(c, "failed to list members")
		return
	}
	response.OK(c, list)
}

// MemberRequest is the body for POST /members and PATCH /members/:id.
type MemberRequest struct {
	FullName         string `json:"full_name" binding:"required"`
	Email            string `json:"email" binding:"required,email"`
	Gender           string `json:"gender" binding:"required"`
	DOB              string `json:"dob"`
	PhoneNumber      string `json:"phone_number" binding:"required,min=10"`
	WhatsappNumber   string `json:"whatsapp_number"`
	DigitalAddress   string `json:"digital_address"`
	Location         string `json:"location"`
	MaritalStatus    string `json:"marital_status"`
	OccupationStatus string `json:"occupation_status"`
	Organization     string `json:"organization"`
	Branch           string `json:"branch" binding:"required"`
}

// Create handles POST /members (admin).
func (h *Handler) Create(c *gin.Context) {
	var req MemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	m := reqToMember(req)
	if err := h.repo.Create(c.Request.Context(), m); err != nil {
		h.logger.Error("create member failed", zap.Error(err))
		response.Internal(c, "failed to create member")
		return
	}
	response.Created(c, m)
}

// Update handles PATCH /members/:id (admin).
func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid member id")
		return
	}
	var req MemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	m := reqToMember(req)
	m.ID = id
	if err := h.repo.Update(c.Request.Context(), m); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.NotFound(c, "member not found")
			return
		}
		h.logger.Error("update member failed", zap.Error(err), zap.String("member_id", id.String()))
		response.Internal(c, "failed to update member")
		return
	}
	response.OK(c, m)
}

func reqToMember(req MemberRequest) *models.Member {
	return &models.Member{
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
	}
}
