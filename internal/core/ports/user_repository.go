package ports

import (
	"context"

	"github.com/Devansh-g1/CryptoGig/internal/core/domain"
)

// ProfileUpdate carries optional profile fields; nil pointers leave the
// stored value untouched.
type ProfileUpdate struct {
	Bio           *string
	Skills        []string
	PortfolioLink *string
	GithubLink    *string
}

// UserRepository defines persistence for the identity directory.
type UserRepository interface {
	// Create inserts a new user. Returns domain.ErrUserExists when the
	// email is already registered.
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	// UpdateRole switches the role only if the stored role still equals
	// from (compare-and-swap). Returns domain.ErrInvalidRoleSwitch when
	// the stored role moved underneath the caller.
	UpdateRole(ctx context.Context, id string, from, to domain.Role) error
	SetWallet(ctx context.Context, id, walletAddress string) error
	SetVerified(ctx context.Context, id string) error
	UpdateProfile(ctx context.Context, id string, update ProfileUpdate) error
}
