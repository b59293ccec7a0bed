package http

import (
	"net/http"

	"github.com/google/uuid"

	"shiftledger/internal/apperr"
	"shiftledger/internal/middleware"
	"shiftledger/internal/usecase"
)

// AuthHandler exposes §4.6's credential lifecycle: registration, login,
// token refresh/logout, email verification, and password reset/setup.
type AuthHandler struct {
	auth *usecase.AuthUseCase
}

func NewAuthHandler(auth *usecase.AuthUseCase) *AuthHandler {
	return &AuthHandler{auth: auth}
}

type authResponse struct {
	User         userView `json:"user"`
	AccessToken  string   `json:"access_token"`
	RefreshToken string   `json:"refresh_token"`
}

func toAuthResponse(r *usecase.AuthResult) authResponse {
	return authResponse{
		User:         toUserView(r.User),
		AccessToken:  r.AccessToken,
		RefreshToken: r.RefreshToken,
	}
}

type registerCompanyRequest struct {
	CompanyName string `json:"company_name"`
	CompanySlug string `json:"company_slug"`
	AdminName   string `json:"admin_name"`
	AdminEmail  string `json:"admin_email"`
	Password    string `json:"password"`
	Timezone    string `json:"timezone"`
}

func (h *AuthHandler) RegisterCompany(w http.ResponseWriter, r *http.Request) {
	var req registerCompanyRequest
	if err := decodeJSON(r, &req); err != nil {
		middleware.WriteError(w, err)
		return
	}
	if req.CompanyName == "" || req.CompanySlug == "" || req.AdminName == "" || req.AdminEmail == "" {
		middleware.WriteError(w, apperr.Validation("company_name, company_slug, admin_name and admin_email are required", nil))
		return
	}

	result, err := h.auth.Register(r.Context(), req.CompanyName, req.CompanySlug, req.AdminName, req.AdminEmail, req.Password, req.Timezone, r.UserAgent(), clientIP(r))
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	respondCreated(w, toAuthResponse(result))
}

type loginRequest struct {
	CompanyID uuid.UUID `json:"company_id"`
	Email     string    `json:"email"`
	Password  string    `json:"password"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		middleware.WriteError(w, err)
		return
	}
	result, err := h.auth.Login(r.Context(), req.CompanyID, req.Email, req.Password, r.UserAgent(), clientIP(r))
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	respondOK(w, toAuthResponse(result))
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeJSON(r, &req); err != nil {
		middleware.WriteError(w, err)
		return
	}
	result, err := h.auth.Refresh(r.Context(), req.RefreshToken, r.UserAgent(), clientIP(r))
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	respondOK(w, toAuthResponse(result))
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeJSON(r, &req); err != nil {
		middleware.WriteError(w, err)
		return
	}
	if err := h.auth.Logout(r.Context(), req.RefreshToken); err != nil {
		middleware.WriteError(w, err)
		return
	}
	respondNoContent(w)
}

func (h *AuthHandler) SendVerificationPin(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r)
	companyID, _ := middleware.CompanyID(r)
	if !ok {
		middleware.WriteError(w, apperr.Authentication("missing authenticated user"))
		return
	}
	if err := h.auth.SendVerificationCode(r.Context(), companyID, userID); err != nil {
		middleware.WriteError(w, err)
		return
	}
	respondNoContent(w)
}

type verifyEmailRequest struct {
	Code string `json:"code"`
}

func (h *AuthHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	var req verifyEmailRequest
	if err := decodeJSON(r, &req); err != nil {
		middleware.WriteError(w, err)
		return
	}
	userID, ok := middleware.UserID(r)
	companyID, _ := middleware.CompanyID(r)
	if !ok {
		middleware.WriteError(w, apperr.Authentication("missing authenticated user"))
		return
	}
	if err := h.auth.VerifyEmail(r.Context(), companyID, userID, req.Code); err != nil {
		middleware.WriteError(w, err)
		return
	}
	respondNoContent(w)
}

type forgotPasswordRequest struct {
	CompanyID uuid.UUID `json:"company_id"`
	Email     string    `json:"email"`
}

func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		middleware.WriteError(w, err)
		return
	}
	if err := h.auth.ForgotPassword(r.Context(), req.CompanyID, req.Email); err != nil {
		middleware.WriteError(w, err)
		return
	}
	respondNoContent(w)
}

type resetPasswordRequest struct {
	CompanyID   uuid.UUID `json:"company_id"`
	Email       string    `json:"email"`
	Code        string    `json:"code"`
	NewPassword string    `json:"new_password"`
}

func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		middleware.WriteError(w, err)
		return
	}
	if err := h.auth.ResetPassword(r.Context(), req.CompanyID, req.Email, req.Code, req.NewPassword); err != nil {
		middleware.WriteError(w, err)
		return
	}
	respondNoContent(w)
}

type setPasswordRequest struct {
	SetupToken  string `json:"setup_token"`
	NewPassword string `json:"new_password"`
}

// SetPasswordInfo checks only that a token query parameter is present
// before the client renders the set-password form (§6 "GET
// /auth/set-password/info"); it neither parses nor verifies the token,
// which happens only on submit.
func (h *AuthHandler) SetPasswordInfo(w http.ResponseWriter, r *http.Request) {
	token := queryParam(r, "token", "")
	if token == "" {
		middleware.WriteError(w, apperr.Validation("token is required", map[string]string{"token": "required"}))
		return
	}
	respondOK(w, map[string]bool{"valid": true})
}

func (h *AuthHandler) SetPassword(w http.ResponseWriter, r *http.Request) {
	var req setPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		middleware.WriteError(w, err)
		return
	}
	if err := h.auth.SetPasswordFromInvitation(r.Context(), req.SetupToken, req.NewPassword); err != nil {
		middleware.WriteError(w, err)
		return
	}
	respondNoContent(w)
}

// clientIP prefers a forwarded-for header so a future reverse proxy's
// client address survives; falls back to the raw remote address.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return fwd
	}
	return r.RemoteAddr
}
