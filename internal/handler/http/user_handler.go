package http

import (
	"errors"
	"net/http"

	"github.com/google/uuid"

	"shiftledger/internal/apperr"
	"shiftledger/internal/domain"
	"shiftledger/internal/middleware"
	"shiftledger/internal/pkg/hash"
	"shiftledger/internal/pkg/jwt"
	"shiftledger/internal/repository"
)

// UserHandler exposes the employee directory: self profile plus admin CRUD
// over company employees (§6 "/users").
type UserHandler struct {
	users *repository.UserRepository
	codec *jwt.Codec
}

func NewUserHandler(users *repository.UserRepository, codec *jwt.Codec) *UserHandler {
	return &UserHandler{users: users, codec: codec}
}

func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	companyID, ok := middleware.CompanyID(r)
	userID, ok2 := middleware.UserID(r)
	if !ok || !ok2 {
		middleware.WriteError(w, apperr.Authentication("missing authenticated user"))
		return
	}
	u, err := h.users.GetByID(r.Context(), companyID, userID)
	if errors.Is(err, repository.ErrNotFound) {
		middleware.WriteError(w, apperr.NotFound("user not found"))
		return
	}
	if err != nil {
		middleware.WriteError(w, apperr.Internal("loading user", err))
		return
	}
	respondOK(w, toUserView(u))
}

func (h *UserHandler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	companyID, ok := middleware.CompanyID(r)
	if !ok {
		middleware.WriteError(w, apperr.Authentication("missing authenticated company"))
		return
	}
	includeInactive := queryParam(r, "include_inactive", "") == "true"
	users, err := h.users.ListByCompany(r.Context(), companyID, includeInactive)
	if err != nil {
		middleware.WriteError(w, apperr.Internal("listing employees", err))
		return
	}
	respondOK(w, toUserViews(users))
}

func (h *UserHandler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	companyID, ok := middleware.CompanyID(r)
	if !ok {
		middleware.WriteError(w, apperr.Authentication("missing authenticated company"))
		return
	}
	id, err := uuid.Parse(pathParam(r, "id"))
	if err != nil {
		middleware.WriteError(w, apperr.Validation("invalid id", map[string]string{"id": "must be a uuid"}))
		return
	}
	u, err := h.users.GetByID(r.Context(), companyID, id)
	if errors.Is(err, repository.ErrNotFound) {
		middleware.WriteError(w, apperr.NotFound("employee not found"))
		return
	}
	if err != nil {
		middleware.WriteError(w, apperr.Internal("loading employee", err))
		return
	}
	respondOK(w, toUserView(u))
}

type inviteEmployeeRequest struct {
	Name               string  `json:"name"`
	Email              string  `json:"email"`
	Role               string  `json:"role"`
	JobRole            *string `json:"job_role,omitempty"`
	PayRateCents       int     `json:"pay_rate_cents"`
	PayRateType        string  `json:"pay_rate_type"`
	OvertimeMultiplier *string `json:"overtime_multiplier,omitempty"`
}

// InviteEmployee creates an employee row with an unusable password hash
// and returns a password-setup token in the response body as setup_token,
// mirroring the admin-invite flow a standalone register/login pair can't
// express (§4.6, §6 "/users/admin"). It sends no invitation email.
func (h *UserHandler) InviteEmployee(w http.ResponseWriter, r *http.Request) {
	companyID, ok := middleware.CompanyID(r)
	if !ok {
		middleware.WriteError(w, apperr.Authentication("missing authenticated company"))
		return
	}
	var req inviteEmployeeRequest
	if err := decodeJSON(r, &req); err != nil {
		middleware.WriteError(w, err)
		return
	}
	if req.Name == "" || req.Email == "" || req.Role == "" {
		middleware.WriteError(w, apperr.Validation("name, email and role are required", nil))
		return
	}
	role := domain.NormalizeRole(domain.Role(req.Role))

	placeholder, err := hash.Hash(uuid.NewString())
	if err != nil {
		middleware.WriteError(w, apperr.Internal("generating placeholder credential", err))
		return
	}

	u := &domain.User{
		ID:                   uuid.New(),
		CompanyID:            companyID,
		Name:                 req.Name,
		Email:                req.Email,
		PasswordHash:         placeholder,
		Role:                 role,
		Status:               domain.UserStatusActive,
		JobRole:              req.JobRole,
		PayRateCents:         req.PayRateCents,
		PayRateType:          req.PayRateType,
		OvertimeMultiplier:   req.OvertimeMultiplier,
		VerificationRequired: true,
	}
	if err := h.users.CreateDirect(r.Context(), u); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			middleware.WriteError(w, apperr.Conflict("a user with this email already exists"))
			return
		}
		middleware.WriteError(w, apperr.Internal("creating employee", err))
		return
	}

	setupToken, err := h.codec.GeneratePasswordSetupToken(u.ID, u.Email)
	if err != nil {
		middleware.WriteError(w, apperr.Internal("generating password setup token", err))
		return
	}

	respondCreated(w, map[string]interface{}{
		"user":        toUserView(u),
		"setup_token": setupToken,
	})
}

type updateEmployeeRequest struct {
	Name               string  `json:"name"`
	Role               string  `json:"role"`
	Status             string  `json:"status"`
	JobRole            *string `json:"job_role,omitempty"`
	PayRateCents       int     `json:"pay_rate_cents"`
	PayRateType        string  `json:"pay_rate_type"`
	OvertimeMultiplier *string `json:"overtime_multiplier,omitempty"`
}

func (h *UserHandler) UpdateEmployee(w http.ResponseWriter, r *http.Request) {
	companyID, ok := middleware.CompanyID(r)
	if !ok {
		middleware.WriteError(w, apperr.Authentication("missing authenticated company"))
		return
	}
	id, err := uuid.Parse(pathParam(r, "id"))
	if err != nil {
		middleware.WriteError(w, apperr.Validation("invalid id", map[string]string{"id": "must be a uuid"}))
		return
	}
	var req updateEmployeeRequest
	if err := decodeJSON(r, &req); err != nil {
		middleware.WriteError(w, err)
		return
	}
	role := domain.NormalizeRole(domain.Role(req.Role))
	status := domain.UserStatus(req.Status)
	if err := h.users.UpdateProfile(r.Context(), companyID, id, req.Name, role, status, req.JobRole, req.PayRateCents, req.PayRateType, req.OvertimeMultiplier); err != nil {
		middleware.WriteError(w, apperr.Internal("updating employee", err))
		return
	}
	u, err := h.users.GetByID(r.Context(), companyID, id)
	if err != nil {
		middleware.WriteError(w, apperr.Internal("reloading employee", err))
		return
	}
	respondOK(w, toUserView(u))
}
