// AngelaMos | 2026
// handler_test.go

package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/civix-app/civix-backend/internal/core"
	"github.com/civix-app/civix-backend/internal/middleware"
)

type apiFixture struct {
	*serviceFixture
	router chi.Router
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()

	f := newServiceFixture(t, defaultOTPConfig())

	loader := func(ctx context.Context, userID string) (middleware.RoleInfo, error) {
		u, err := f.users.GetByID(ctx, userID)
		if err != nil {
			return middleware.RoleInfo{}, err
		}
		return middleware.RoleInfo{
			Role:       u.Role,
			Approved:   u.Approved,
			SuperAdmin: u.SuperAdmin,
		}, nil
	}

	listUsers := func(w http.ResponseWriter, r *http.Request) {
		core.OK(w, map[string]any{"success": true, "users": []any{}})
	}

	router := chi.NewRouter()
	NewHandler(f.svc).RegisterRoutes(
		router,
		middleware.Authenticator(f.svc.jwt),
		middleware.RequireSuperAdmin(loader),
		listUsers,
	)

	return &apiFixture{serviceFixture: f, router: router}
}

func (f *apiFixture) do(
	t *testing.T,
	method, path, token string,
	body any,
) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", token)
	}

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func envelopeErrorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()

	body := decodeEnvelope(t, rec)
	require.Equal(t, false, body["success"])

	errObj, ok := body["error"].(map[string]any)
	require.True(t, ok, "expected error envelope, got %s", rec.Body.String())

	code, _ := errObj["code"].(string)
	return code
}

func TestSignupVerifyLoginFlow(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(t, http.MethodPost, "/auth/send-otp", "", map[string]any{
		"name":     "Ada Lovelace",
		"email":    "ada@example.com",
		"password": "difference-engine",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, true, decodeEnvelope(t, rec)["success"])

	otp := f.pendingOTP(t, signupKey("ada@example.com"))

	rec = f.do(t, http.MethodPost, "/auth/verify-otp", "", map[string]any{
		"email": "ada@example.com",
		"otp":   otp,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, true, decodeEnvelope(t, rec)["success"])

	rec = f.do(t, http.MethodPost, "/auth/login", "", map[string]any{
		"email":    "ada@example.com",
		"password": "difference-engine",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeEnvelope(t, rec)
	require.Equal(t, true, body["success"])
	require.NotEmpty(t, body["token"])
	require.Equal(t, "ada@example.com", body["email"])
	require.Equal(t, "Ada Lovelace", body["name"])
	require.Equal(t, "citizen", body["role"])
	require.NotEmpty(t, body["id"])
}

func TestSendOTPValidation(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(t, http.MethodPost, "/auth/send-otp", "", map[string]any{
		"name":     "Ada",
		"email":    "not-an-email",
		"password": "difference-engine",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodPost, "/auth/send-otp", "", map[string]any{
		"name":     "Ada",
		"email":    "ada@example.com",
		"password": "short",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodPost, "/auth/send-otp", "", map[string]any{
		"name":     "Ada",
		"email":    "ada@example.com",
		"password": "difference-engine",
		"role":     "mayor",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSendOTPDuplicateEmail(t *testing.T) {
	f := newAPIFixture(t)

	f.users.byEmail["taken@example.com"] = &UserInfo{
		ID:    "user-1",
		Email: "taken@example.com",
	}

	rec := f.do(t, http.MethodPost, "/auth/send-otp", "", map[string]any{
		"name":     "Ada",
		"email":    "taken@example.com",
		"password": "difference-engine",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "DUPLICATE", envelopeErrorCode(t, rec))
}

func TestVerifyOTPErrors(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(t, http.MethodPost, "/auth/verify-otp", "", map[string]any{
		"email": "nobody@example.com",
		"otp":   "123456",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "NO_PENDING_SIGNUP", envelopeErrorCode(t, rec))

	sendRec := f.do(t, http.MethodPost, "/auth/send-otp", "", map[string]any{
		"name":     "Ada",
		"email":    "ada@example.com",
		"password": "difference-engine",
	})
	require.Equal(t, http.StatusOK, sendRec.Code)

	otp := f.pendingOTP(t, signupKey("ada@example.com"))
	wrong := "000000"
	if wrong == otp {
		wrong = "000001"
	}

	rec = f.do(t, http.MethodPost, "/auth/verify-otp", "", map[string]any{
		"email": "ada@example.com",
		"otp":   wrong,
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "OTP_MISMATCH", envelopeErrorCode(t, rec))
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	f := newAPIFixture(t)

	registerUser(t, f.serviceFixture, "ada@example.com", "difference-engine")

	for _, creds := range []map[string]any{
		{"email": "ada@example.com", "password": "wrong-password"},
		{"email": "nobody@example.com", "password": "difference-engine"},
	} {
		rec := f.do(t, http.MethodPost, "/auth/login", "", creds)
		require.Equal(t, http.StatusForbidden, rec.Code)
		require.Equal(t, "AUTH_FAILED", envelopeErrorCode(t, rec))
	}
}

func TestForgotAndResetPassword(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(t, http.MethodPost, "/auth/forgotpassword", "", map[string]any{
		"email": "nobody@example.com",
	})
	require.Equal(t, http.StatusNotFound, rec.Code)

	registerUser(t, f.serviceFixture, "ada@example.com", "difference-engine")

	rec = f.do(t, http.MethodPost, "/auth/forgotpassword", "", map[string]any{
		"email": "ada@example.com",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	otp := f.pendingOTP(t, resetKey("ada@example.com"))

	rec = f.do(t, http.MethodPost, "/auth/resetpassword", "", map[string]any{
		"email":       "ada@example.com",
		"otp":         otp,
		"newPassword": "analytical-engine",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodPost, "/auth/login", "", map[string]any{
		"email":    "ada@example.com",
		"password": "analytical-engine",
	})
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestUsersEndpointIsGated(t *testing.T) {
	f := newAPIFixture(t)

	registerUser(t, f.serviceFixture, "ada@example.com", "pass-word-123")

	loginRec := f.do(t, http.MethodPost, "/auth/login", "", map[string]any{
		"email":    "ada@example.com",
		"password": "pass-word-123",
	})
	require.Equal(t, http.StatusOK, loginRec.Code)
	token, _ := decodeEnvelope(t, loginRec)["token"].(string)
	require.NotEmpty(t, token)

	// No token at all.
	rec := f.do(t, http.MethodGet, "/auth/users", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	// Authenticated but not a super admin.
	rec = f.do(t, http.MethodGet, "/auth/users", "Bearer "+token, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)

	f.users.byEmail["ada@example.com"].SuperAdmin = true

	rec = f.do(t, http.MethodGet, "/auth/users", "Bearer "+token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// A raw token without the Bearer prefix is accepted too.
	rec = f.do(t, http.MethodGet, "/auth/users", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
}
