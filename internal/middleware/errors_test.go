package middleware

import (
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"

	"shiftledger/internal/apperr"
)

func TestWriteErrorMapsKindToStatus(t *testing.T) {
	cases := []struct {
		err        error
		wantStatus int
	}{
		{apperr.Validation("bad", map[string]string{"name": "required"}), 422},
		{apperr.Authentication("no token"), 401},
		{apperr.Authorization("not allowed"), 403},
		{apperr.VerificationRequired("a@b.com"), 403},
		{apperr.Policy("week not finalized"), 400},
		{apperr.Conflict("already exists"), 409},
		{apperr.NotFound("missing"), 404},
		{apperr.RateLimit("slow down"), 429},
		{apperr.Internal("boom", errors.New("cause")), 500},
		{errors.New("unwrapped plain error"), 500},
	}
	for _, c := range cases {
		rec := httptest.NewRecorder()
		WriteError(rec, c.err)
		if rec.Code != c.wantStatus {
			t.Errorf("WriteError(%v) status = %d, want %d", c.err, rec.Code, c.wantStatus)
		}
	}
}

func TestWriteErrorBodyCarriesEmail(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, apperr.VerificationRequired("person@example.com"))

	var body struct {
		Detail string `json:"detail"`
		Email  string `json:"email"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshaling response body: %v", err)
	}
	if body.Email != "person@example.com" {
		t.Errorf("body.Email = %q, want person@example.com", body.Email)
	}
}

func TestWriteErrorValidationFields(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, apperr.Validation("invalid", map[string]string{"password": "too short"}))

	var body struct {
		Errors map[string]string `json:"errors"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshaling response body: %v", err)
	}
	if body.Errors["password"] != "too short" {
		t.Errorf("body.Errors[password] = %q, want %q", body.Errors["password"], "too short")
	}
}
