// AngelaMos | 2026
// service.go

package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/civix-app/civix-backend/internal/config"
	"github.com/civix-app/civix-backend/internal/core"
	"github.com/civix-app/civix-backend/internal/mail"
)

var (
	ErrEmailExists        = errors.New("email already registered")
	ErrOTPDeliveryFailed  = errors.New("otp delivery failed")
	ErrNoPendingSignup    = errors.New("no pending signup")
	ErrOTPExpired         = errors.New("otp expired")
	ErrOTPMismatch        = errors.New("otp mismatch")
	ErrTooManyAttempts    = errors.New("too many otp attempts")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

type UserInfo struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	Role         string
	Approved     bool
	SuperAdmin   bool
	Latitude     *float64
	Longitude    *float64
}

type NewUser struct {
	Email        string
	PasswordHash string
	Name         string
	Role         string
	Latitude     *float64
	Longitude    *float64
}

type UserProvider interface {
	GetByEmail(ctx context.Context, email string) (*UserInfo, error)
	GetByID(ctx context.Context, id string) (*UserInfo, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	Create(ctx context.Context, newUser NewUser) (*UserInfo, error)
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
}

type Service struct {
	users       UserProvider
	pending     PendingStore
	mailer      mail.Mailer
	jwt         *JWTManager
	otpTTL      time.Duration
	maxAttempts int
	now         func() time.Time
}

func NewService(
	users UserProvider,
	pending PendingStore,
	mailer mail.Mailer,
	jwtManager *JWTManager,
	cfg config.OTPConfig,
) *Service {
	return &Service{
		users:       users,
		pending:     pending,
		mailer:      mailer,
		jwt:         jwtManager,
		otpTTL:      cfg.TTL,
		maxAttempts: cfg.MaxAttempts,
		now:         time.Now,
	}
}

func signupKey(email string) string { return "signup:" + email }
func resetKey(email string) string  { return "reset:" + email }

// InitiateSignup stores a pending registration and emails its passcode.
// A resend is just another call: the new record overwrites the old one.
func (s *Service) InitiateSignup(
	ctx context.Context,
	req SendOTPRequest,
) error {
	email := strings.TrimSpace(req.Email)

	exists, err := s.users.EmailExists(ctx, email)
	if err != nil {
		return fmt.Errorf("check email: %w", err)
	}
	if exists {
		return ErrEmailExists
	}

	otp, err := GenerateOTP()
	if err != nil {
		return fmt.Errorf("generate otp: %w", err)
	}

	role := req.Role
	if role == "" {
		role = "citizen"
	}

	rec := &PendingSignup{
		Email:     email,
		OTP:       otp,
		Name:      req.Name,
		Password:  req.Password,
		Role:      role,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		CreatedAt: s.now(),
	}

	if err := s.pending.Put(ctx, signupKey(email), rec); err != nil {
		return fmt.Errorf("store pending signup: %w", err)
	}

	// The pending record is kept on delivery failure so the client can
	// retry by calling send-otp again.
	subject := "Your Civix verification code"
	if err := s.mailer.Send(ctx, email, subject, signupEmailBody(req.Name, otp)); err != nil {
		return fmt.Errorf("%w: %w", ErrOTPDeliveryFailed, err)
	}

	return nil
}

// CompleteSignup promotes a pending registration into a persisted user.
func (s *Service) CompleteSignup(
	ctx context.Context,
	email, otp string,
) (*UserInfo, error) {
	email = strings.TrimSpace(email)
	key := signupKey(email)

	rec, err := s.checkOTP(ctx, key, otp)
	if err != nil {
		return nil, err
	}

	passwordHash, err := core.HashPassword(rec.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	userInfo, err := s.users.Create(ctx, NewUser{
		Email:        rec.Email,
		PasswordHash: passwordHash,
		Name:         rec.Name,
		Role:         rec.Role,
		Latitude:     rec.Latitude,
		Longitude:    rec.Longitude,
	})
	if err != nil {
		if errors.Is(err, core.ErrDuplicateKey) {
			// A verified account appeared between send and verify.
			//nolint:errcheck // record cleanup is best-effort
			_ = s.pending.Remove(ctx, key)
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	//nolint:errcheck // record already consumed; TTL evicts leftovers
	_ = s.pending.Remove(ctx, key)

	return userInfo, nil
}

// Login verifies credentials and issues a signed access token. Unknown
// email and wrong password produce the same error, and both paths run a
// full hash comparison.
func (s *Service) Login(
	ctx context.Context,
	req LoginRequest,
) (*LoginResponse, error) {
	user, err := s.users.GetByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			//nolint:errcheck // timing equalization against user enumeration
			_, _ = core.VerifyPasswordTimingSafe(req.Password, nil)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	valid, err := core.VerifyPasswordTimingSafe(req.Password, &user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}

	if !valid {
		return nil, ErrInvalidCredentials
	}

	token, err := s.jwt.CreateAccessToken(AccessTokenClaims{
		UserID: user.ID,
		Email:  user.Email,
	})
	if err != nil {
		return nil, fmt.Errorf("create access token: %w", err)
	}

	return &LoginResponse{
		Success: true,
		Token:   token,
		Email:   user.Email,
		Name:    user.Name,
		Role:    user.Role,
		ID:      user.ID,
	}, nil
}

// InitiatePasswordReset emails a reset code to an existing account. Unlike
// login, a missing account is reported as not-found; the original API
// behaves this way and clients depend on it.
func (s *Service) InitiatePasswordReset(
	ctx context.Context,
	email string,
) error {
	email = strings.TrimSpace(email)

	if _, err := s.users.GetByEmail(ctx, email); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return fmt.Errorf("password reset: %w", core.ErrNotFound)
		}
		return fmt.Errorf("get user: %w", err)
	}

	otp, err := GenerateOTP()
	if err != nil {
		return fmt.Errorf("generate otp: %w", err)
	}

	rec := &PendingSignup{
		Email:     email,
		OTP:       otp,
		CreatedAt: s.now(),
	}

	if err := s.pending.Put(ctx, resetKey(email), rec); err != nil {
		return fmt.Errorf("store pending reset: %w", err)
	}

	subject := "Your Civix password reset code"
	if err := s.mailer.Send(ctx, email, subject, resetEmailBody(otp)); err != nil {
		return fmt.Errorf("%w: %w", ErrOTPDeliveryFailed, err)
	}

	return nil
}

// CompletePasswordReset replaces only the password hash; role and approval
// state are untouched.
func (s *Service) CompletePasswordReset(
	ctx context.Context,
	email, otp, newPassword string,
) error {
	email = strings.TrimSpace(email)
	key := resetKey(email)

	if _, err := s.checkOTP(ctx, key, otp); err != nil {
		return err
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("get user: %w", err)
	}

	passwordHash, err := core.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if err := s.users.UpdatePassword(ctx, user.ID, passwordHash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	//nolint:errcheck // record already consumed; TTL evicts leftovers
	_ = s.pending.Remove(ctx, key)

	return nil
}

// checkOTP applies the shared pending-record rules: a record older than the
// validity window is deleted and reported expired (a verify at exactly the
// window boundary still passes); a mismatch keeps the record so the client
// can retry, until the attempt budget runs out.
func (s *Service) checkOTP(
	ctx context.Context,
	key, otp string,
) (*PendingSignup, error) {
	rec, err := s.pending.Get(ctx, key)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, ErrNoPendingSignup
		}
		return nil, fmt.Errorf("get pending record: %w", err)
	}

	if s.now().Sub(rec.CreatedAt) > s.otpTTL {
		//nolint:errcheck // stale record removal is best-effort
		_ = s.pending.Remove(ctx, key)
		return nil, ErrOTPExpired
	}

	if rec.OTP != otp {
		rec.Attempts++
		if s.maxAttempts > 0 && rec.Attempts >= s.maxAttempts {
			//nolint:errcheck // exhausted record removal is best-effort
			_ = s.pending.Remove(ctx, key)
			return nil, ErrTooManyAttempts
		}
		if err := s.pending.Put(ctx, key, rec); err != nil {
			return nil, fmt.Errorf("update pending record: %w", err)
		}
		return nil, ErrOTPMismatch
	}

	return rec, nil
}
