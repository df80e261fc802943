// AngelaMos | 2026
// auth_test.go

package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/civix-app/civix-backend/internal/core"
)

type stubVerifier struct {
	claims *AccessTokenClaims
	err    error
}

func (s *stubVerifier) VerifyAccessToken(
	_ context.Context,
	_ string,
) (*AccessTokenClaims, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.claims, nil
}

func TestExtractToken(t *testing.T) {
	cases := []struct {
		name   string
		header string
		want   string
	}{
		{"bearer prefix", "Bearer abc.def.ghi", "abc.def.ghi"},
		{"lowercase prefix", "bearer abc.def.ghi", "abc.def.ghi"},
		{"raw token without prefix", "abc.def.ghi", "abc.def.ghi"},
		{"surrounding whitespace", "  Bearer abc.def.ghi  ", "abc.def.ghi"},
		{"empty header", "", ""},
		{"other scheme", "Basic dXNlcjpwYXNz", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			if tc.header != "" {
				r.Header.Set("Authorization", tc.header)
			}
			require.Equal(t, tc.want, ExtractToken(r))
		})
	}
}

func errorCode(t *testing.T, body []byte) string {
	t.Helper()

	var resp struct {
		Success bool `json:"success"`
		Error   struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(body, &resp))
	require.False(t, resp.Success)
	return resp.Error.Code
}

func TestAuthenticatorMissingToken(t *testing.T) {
	handler := Authenticator(&stubVerifier{})(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("handler must not run without a token")
		},
	))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "UNAUTHORIZED", errorCode(t, rec.Body.Bytes()))
}

func TestAuthenticatorRejectedToken(t *testing.T) {
	for _, verifyErr := range []error{
		fmt.Errorf("verify token: %w", core.ErrTokenExpired),
		fmt.Errorf("verify token: %w", core.ErrTokenInvalid),
	} {
		handler := Authenticator(&stubVerifier{err: verifyErr})(
			http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				t.Fatal("handler must not run with a rejected token")
			}),
		)

		rec := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("Authorization", "Bearer whatever")
		handler.ServeHTTP(rec, req)

		require.Equal(t, http.StatusUnauthorized, rec.Code)

		// Expired and malformed tokens are reported identically.
		require.Equal(t, "TOKEN_INVALID", errorCode(t, rec.Body.Bytes()))
	}
}

func TestAuthenticatorPopulatesContext(t *testing.T) {
	verifier := &stubVerifier{claims: &AccessTokenClaims{
		UserID: "user-42",
		Email:  "ada@example.com",
	}}

	var gotID, gotEmail string
	var gotClaims *AccessTokenClaims

	handler := Authenticator(verifier)(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			gotID = GetUserID(r.Context())
			gotEmail = GetUserEmail(r.Context())
			gotClaims = GetClaims(r.Context())
			require.True(t, IsAuthenticated(r.Context()))
			w.WriteHeader(http.StatusNoContent)
		},
	))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, "user-42", gotID)
	require.Equal(t, "ada@example.com", gotEmail)
	require.NotNil(t, gotClaims)
}

func authedRequest(userID string) *http.Request {
	req := httptest.NewRequest("GET", "/", nil)
	ctx := context.WithValue(req.Context(), UserIDKey, userID)
	return req.WithContext(ctx)
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func staticLoader(info RoleInfo, err error) RoleLoader {
	return func(context.Context, string) (RoleInfo, error) {
		return info, err
	}
}

func TestRequireSuperAdmin(t *testing.T) {
	cases := []struct {
		name string
		info RoleInfo
		err  error
		want int
	}{
		{"super admin passes", RoleInfo{SuperAdmin: true}, nil, http.StatusOK},
		{"citizen blocked", RoleInfo{Role: "citizen", Approved: true}, nil, http.StatusForbidden},
		{"approved official blocked", RoleInfo{Role: "official", Approved: true}, nil, http.StatusForbidden},
		{"deleted account", RoleInfo{}, fmt.Errorf("get user: %w", core.ErrNotFound), http.StatusUnauthorized},
		{"store failure", RoleInfo{}, errors.New("connection reset"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			gate := RequireSuperAdmin(staticLoader(tc.info, tc.err))

			rec := httptest.NewRecorder()
			gate(okHandler()).ServeHTTP(rec, authedRequest("user-42"))

			require.Equal(t, tc.want, rec.Code)
		})
	}
}

func TestRequireSuperAdminWithoutAuthentication(t *testing.T) {
	gate := RequireSuperAdmin(staticLoader(RoleInfo{SuperAdmin: true}, nil))

	rec := httptest.NewRecorder()
	gate(okHandler()).ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireApprovedOfficial(t *testing.T) {
	cases := []struct {
		name string
		info RoleInfo
		want int
	}{
		{"approved official passes", RoleInfo{Role: "official", Approved: true}, http.StatusOK},
		{"unapproved official blocked", RoleInfo{Role: "official"}, http.StatusForbidden},
		{"citizen blocked", RoleInfo{Role: "citizen", Approved: true}, http.StatusForbidden},
		{"super admin passes", RoleInfo{Role: "citizen", SuperAdmin: true}, http.StatusOK},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			gate := RequireApprovedOfficial(staticLoader(tc.info, nil))

			rec := httptest.NewRecorder()
			gate(okHandler()).ServeHTTP(rec, authedRequest("user-42"))

			require.Equal(t, tc.want, rec.Code)
		})
	}
}

// The gate consults the loader on every request, so a role change takes
// effect immediately even while an old token is still valid.
func TestRoleGateSeesFreshState(t *testing.T) {
	info := RoleInfo{SuperAdmin: true}
	loader := func(context.Context, string) (RoleInfo, error) {
		return info, nil
	}

	gate := RequireSuperAdmin(loader)

	rec := httptest.NewRecorder()
	gate(okHandler()).ServeHTTP(rec, authedRequest("user-42"))
	require.Equal(t, http.StatusOK, rec.Code)

	info = RoleInfo{Role: "citizen", Approved: true}

	rec = httptest.NewRecorder()
	gate(okHandler()).ServeHTTP(rec, authedRequest("user-42"))
	require.Equal(t, http.StatusForbidden, rec.Code)
}
