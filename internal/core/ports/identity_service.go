package ports

import (
	"context"

	"github.com/Devansh-g1/CryptoGig/internal/core/domain"
)

// RegisterInput carries all data needed to create a new account.
type RegisterInput struct {
	Email    string
	Password string
	Name     string
	Role     domain.Role
}

// AuthResult is returned by Register and Login.
type AuthResult struct {
	Token string
	User  *domain.User
}

// IdentityService defines use-case operations for the identity
// directory: account lifecycle, role switching, wallet linking, and
// email verification.
type IdentityService interface {
	Register(ctx context.Context, input RegisterInput) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	// Resolve returns the current user snapshot.
	Resolve(ctx context.Context, userID string) (*domain.User, error)
	// SwitchRole atomically changes the user's role and issues a fresh
	// token carrying it, so authorization sees the new role without a
	// re-login. Arbitrators cannot self-switch; switching to the current
	// role or to arbitrator fails. Existing memberships and assignments
	// are unaffected.
	SwitchRole(ctx context.Context, userID string, newRole domain.Role) (*AuthResult, error)
	LinkWallet(ctx context.Context, userID, walletAddress string) (*domain.User, error)
	VerifyEmail(ctx context.Context, token string) (*domain.User, error)
	ResendVerification(ctx context.Context, email string) error
	UpdateProfile(ctx context.Context, userID string, update ProfileUpdate) (*domain.User, error)
}
