package domain

import (
	"errors"
	"time"
)

// Role is the operating role a user holds. A user has exactly one role
// at a time; client and freelancer are interchangeable via role switch,
// arbitrator is terminal.
type Role string

const (
	RoleClient     Role = "client"
	RoleFreelancer Role = "freelancer"
	RoleArbitrator Role = "arbitrator"
)

// Valid reports whether r is one of the three known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleClient, RoleFreelancer, RoleArbitrator:
		return true
	}
	return false
}

// Switchable reports whether r is a legal target for a role switch.
// Only client and freelancer can be switched into.
func (r Role) Switchable() bool {
	return r == RoleClient || r == RoleFreelancer
}

var ErrUserNotFound = errors.New("user not found")
var ErrUserExists = errors.New("user already exists")
var ErrInvalidCredentials = errors.New("invalid credentials")
var ErrVerificationRequired = errors.New("email verification required")
var ErrTokenInvalid = errors.New("verification token invalid or expired")
var ErrInvalidRoleSwitch = errors.New("invalid role switch")
var ErrInvalidWallet = errors.New("invalid wallet address")
var ErrValidation = errors.New("invalid input")

// User models a registered account. WalletAddress is optional, at most
// one per user; PasswordHash never leaves the process.
type User struct {
	ID            string    `json:"id" bson:"_id"`
	Email         string    `json:"email" bson:"email"`
	Name          string    `json:"name" bson:"name"`
	PasswordHash  string    `json:"-" bson:"password_hash"`
	Role          Role      `json:"role" bson:"role"`
	WalletAddress string    `json:"wallet_address,omitempty" bson:"wallet_address,omitempty"`
	Verified      bool      `json:"verified" bson:"is_verified"`
	Bio           string    `json:"bio,omitempty" bson:"bio,omitempty"`
	Skills        []string  `json:"skills,omitempty" bson:"skills,omitempty"`
	PortfolioLink string    `json:"portfolio_link,omitempty" bson:"portfolio_link,omitempty"`
	GithubLink    string    `json:"github_link,omitempty" bson:"github_link,omitempty"`
	CreatedAt     time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" bson:"updated_at"`
}
