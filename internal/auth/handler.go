// AngelaMos | 2026
// handler.go

package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/civix-app/civix-backend/internal/core"
)

type Handler struct {
	service   *Service
	validator *validator.Validate
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// RegisterRoutes wires the public auth surface. listUsers is the admin-only
// account listing; it lives under /auth/users for compatibility with
// existing clients but is gated by the caller-supplied middleware.
func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator, superAdminOnly func(http.Handler) http.Handler,
	listUsers http.HandlerFunc,
) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/send-otp", h.SendOTP)
		r.Post("/verify-otp", h.VerifyOTP)
		r.Post("/login", h.Login)
		r.Post("/forgotpassword", h.ForgotPassword)
		r.Post("/resetpassword", h.ResetPassword)

		r.Group(func(r chi.Router) {
			r.Use(authenticator)
			r.Use(superAdminOnly)
			r.Get("/users", listUsers)
		})
	})
}

func (h *Handler) SendOTP(w http.ResponseWriter, r *http.Request) {
	var req SendOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	if err := h.service.InitiateSignup(r.Context(), req); err != nil {
		switch {
		case errors.Is(err, ErrEmailExists):
			core.JSONError(w, core.DuplicateError("email"))
		case errors.Is(err, ErrOTPDeliveryFailed):
			core.JSONError(w, core.NewAppError(
				err,
				"failed to send verification email",
				http.StatusInternalServerError,
				"OTP_DELIVERY_FAILED",
			))
		default:
			core.InternalServerError(w, err)
		}
		return
	}

	core.OKMessage(w, "verification code sent to email")
}

func (h *Handler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req VerifyOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	if _, err := h.service.CompleteSignup(r.Context(), req.Email, req.OTP); err != nil {
		h.writeOTPError(w, err)
		return
	}

	core.CreatedMessage(w, "registration complete, you can now log in")
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	resp, err := h.service.Login(r.Context(), req)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			// One message for unknown email and wrong password alike.
			core.JSONError(w, core.NewAppError(
				err,
				"invalid email or password",
				http.StatusForbidden,
				"AUTH_FAILED",
			))
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, resp)
}

func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req ForgotPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	if err := h.service.InitiatePasswordReset(r.Context(), req.Email); err != nil {
		switch {
		case errors.Is(err, core.ErrNotFound):
			core.NotFound(w, "user")
		case errors.Is(err, ErrOTPDeliveryFailed):
			core.JSONError(w, core.NewAppError(
				err,
				"failed to send reset email",
				http.StatusInternalServerError,
				"OTP_DELIVERY_FAILED",
			))
		default:
			core.InternalServerError(w, err)
		}
		return
	}

	core.OKMessage(w, "password reset code sent to email")
}

func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req ResetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	err := h.service.CompletePasswordReset(
		r.Context(),
		req.Email,
		req.OTP,
		req.NewPassword,
	)
	if err != nil {
		h.writeOTPError(w, err)
		return
	}

	core.OKMessage(w, "password updated")
}

func (h *Handler) writeOTPError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNoPendingSignup):
		core.JSONError(w, core.NewAppError(
			err,
			"no pending verification for this email",
			http.StatusBadRequest,
			"NO_PENDING_SIGNUP",
		))
	case errors.Is(err, ErrOTPExpired):
		core.JSONError(w, core.NewAppError(
			err,
			"verification code expired, request a new one",
			http.StatusBadRequest,
			"OTP_EXPIRED",
		))
	case errors.Is(err, ErrOTPMismatch):
		core.JSONError(w, core.NewAppError(
			err,
			"incorrect verification code",
			http.StatusBadRequest,
			"OTP_MISMATCH",
		))
	case errors.Is(err, ErrTooManyAttempts):
		core.JSONError(w, core.NewAppError(
			err,
			"too many incorrect attempts, request a new code",
			http.StatusBadRequest,
			"OTP_ATTEMPTS_EXCEEDED",
		))
	case errors.Is(err, ErrEmailExists):
		core.JSONError(w, core.DuplicateError("email"))
	default:
		core.InternalServerError(w, err)
	}
}
