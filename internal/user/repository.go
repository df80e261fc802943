// AngelaMos | 2026
// repository.go

package user

import (
	"context"
)

// Repository abstracts the credential store. Two implementations exist:
// Postgres (sqlx over pgx) and MongoDB; the driver is picked at startup
// from config. Email uniqueness is delegated to the store's unique index,
// surfaced as core.ErrDuplicateKey.
type Repository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	UpdateRole(ctx context.Context, id, role string, approved bool) error
	Approve(ctx context.Context, id string) error
	List(ctx context.Context, params ListUsersParams) ([]User, int, error)
}
