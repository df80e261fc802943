// AngelaMos | 2026
// service.go

package user

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/civix-app/civix-backend/internal/auth"
	"github.com/civix-app/civix-backend/internal/core"
	"github.com/civix-app/civix-backend/internal/middleware"
)

// Service owns account lifecycle on top of the Repository. It also backs
// the auth flows: signup creates through it, login and the role gates read
// through it.
type Service struct {
	repo Repository
}

var _ auth.UserProvider = (*Service)(nil)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) GetByEmail(
	ctx context.Context,
	email string,
) (*auth.UserInfo, error) {
	u, err := s.repo.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return nil, err
	}
	return toUserInfo(u), nil
}

func (s *Service) GetByID(
	ctx context.Context,
	id string,
) (*auth.UserInfo, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return toUserInfo(u), nil
}

func (s *Service) EmailExists(
	ctx context.Context,
	email string,
) (bool, error) {
	return s.repo.ExistsByEmail(ctx, strings.TrimSpace(email))
}

// Create persists a verified signup. Citizens are usable immediately;
// officials start unapproved and wait for an admin.
func (s *Service) Create(
	ctx context.Context,
	newUser auth.NewUser,
) (*auth.UserInfo, error) {
	now := time.Now().UTC()

	u := &User{
		ID:           uuid.New().String(),
		Email:        strings.TrimSpace(newUser.Email),
		PasswordHash: newUser.PasswordHash,
		Name:         newUser.Name,
		Role:         newUser.Role,
		Approved:     newUser.Role == RoleCitizen,
		Latitude:     newUser.Latitude,
		Longitude:    newUser.Longitude,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}

	return toUserInfo(u), nil
}

func (s *Service) UpdatePassword(
	ctx context.Context,
	userID, passwordHash string,
) error {
	return s.repo.UpdatePassword(ctx, userID, passwordHash)
}

func (s *Service) GetUser(ctx context.Context, id string) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListUsers(
	ctx context.Context,
	params ListUsersParams,
) ([]User, int, error) {
	params.Normalize()
	return s.repo.List(ctx, params)
}

func (s *Service) ApproveOfficial(ctx context.Context, id string) error {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if u.Role != RoleOfficial {
		return fmt.Errorf(
			"approve official: %w: account is not an official",
			core.ErrInvalidInput,
		)
	}

	if u.Approved {
		return nil
	}

	return s.repo.Approve(ctx, id)
}

// UpdateUserRole changes the role and resets approval accordingly: a
// demotion to citizen auto-approves, a promotion to official waits for an
// explicit approval.
func (s *Service) UpdateUserRole(
	ctx context.Context,
	id, role string,
) error {
	if role != RoleCitizen && role != RoleOfficial {
		return fmt.Errorf(
			"update role: %w: unknown role %q",
			core.ErrInvalidInput,
			role,
		)
	}

	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return err
	}

	return s.repo.UpdateRole(ctx, id, role, role == RoleCitizen)
}

type AccountStats struct {
	Total           int `json:"total"`
	Citizens        int `json:"citizens"`
	Officials       int `json:"officials"`
	PendingApproval int `json:"pending_approval"`
}

// AccountStats aggregates the account counts shown on the admin dashboard.
func (s *Service) AccountStats(ctx context.Context) (AccountStats, error) {
	probe := ListUsersParams{Page: 1, PageSize: 1}

	_, total, err := s.repo.List(ctx, probe)
	if err != nil {
		return AccountStats{}, err
	}

	probe.Role = RoleOfficial
	_, officials, err := s.repo.List(ctx, probe)
	if err != nil {
		return AccountStats{}, err
	}

	unapproved := false
	probe.Approved = &unapproved
	_, pending, err := s.repo.List(ctx, probe)
	if err != nil {
		return AccountStats{}, err
	}

	return AccountStats{
		Total:           total,
		Citizens:        total - officials,
		Officials:       officials,
		PendingApproval: pending,
	}, nil
}

// LoadRoleInfo feeds the role-gate middleware with fresh store state.
func (s *Service) LoadRoleInfo(
	ctx context.Context,
	userID string,
) (middleware.RoleInfo, error) {
	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return middleware.RoleInfo{}, err
	}

	return middleware.RoleInfo{
		Role:       u.Role,
		Approved:   u.Approved,
		SuperAdmin: u.SuperAdmin,
	}, nil
}

func toUserInfo(u *User) *auth.UserInfo {
	return &auth.UserInfo{
		ID:           u.ID,
		Email:        u.Email,
		Name:         u.Name,
		PasswordHash: u.PasswordHash,
		Role:         u.Role,
		Approved:     u.Approved,
		SuperAdmin:   u.SuperAdmin,
		Latitude:     u.Latitude,
		Longitude:    u.Longitude,
	}
}
