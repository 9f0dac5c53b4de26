package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/Devansh-g1/CryptoGig/internal/core/domain"
	"github.com/Devansh-g1/CryptoGig/internal/core/ports"
)

// IdentityService implements registration, login, role switching,
// wallet linking, and email verification.
type IdentityService struct {
	repo      ports.UserRepository
	tokens    ports.VerificationTokenStore
	mail      ports.MailQueue
	jwtSecret string
	tokenTTL  time.Duration
	verifyTTL time.Duration
	log       zerolog.Logger
}

func NewIdentityService(
	repo ports.UserRepository,
	tokens ports.VerificationTokenStore,
	mail ports.MailQueue,
	jwtSecret string,
	tokenTTL, verifyTTL time.Duration,
	log zerolog.Logger,
) *IdentityService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	if verifyTTL <= 0 {
		verifyTTL = 24 * time.Hour
	}
	return &IdentityService{
		repo:      repo,
		tokens:    tokens,
		mail:      mail,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
		verifyTTL: verifyTTL,
		log:       log,
	}
}

// Register creates an unverified account and issues both a bearer token
// and an email verification token. Login stays blocked until the email
// is verified.
func (s *IdentityService) Register(ctx context.Context, input ports.RegisterInput) (*ports.AuthResult, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" || input.Password == "" || input.Name == "" {
		return nil, fmt.Errorf("%w: email, password and name are required", domain.ErrValidation)
	}
	if !input.Role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", domain.ErrValidation, input.Role)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         input.Name,
		PasswordHash: string(hash),
		Role:         input.Role,
		Verified:     false,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	created, err := s.repo.Create(ctx, user)
	if err != nil {
		return nil, err
	}

	if err := s.issueVerification(ctx, created); err != nil {
		s.log.Warn().Err(err).Str("user_id", created.ID).Msg("failed to issue verification token")
	}

	token, err := s.generateToken(created)
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("user_id", created.ID).Str("role", string(created.Role)).Msg("user registered")
	return &ports.AuthResult{Token: token, User: created}, nil
}

// Login authenticates by email and password. Unverified accounts fail
// with ErrVerificationRequired, a distinct signal from bad credentials.
func (s *IdentityService) Login(ctx context.Context, email, password string) (*ports.AuthResult, error) {
	if email == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.repo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		// An unknown email answers the same as a wrong password so the
		// login endpoint cannot be used to enumerate accounts.
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, domain.ErrInvalidCredentials
	}

	if !user.Verified {
		return nil, domain.ErrVerificationRequired
	}

	token, err := s.generateToken(user)
	if err != nil {
		return nil, err
	}

	return &ports.AuthResult{Token: token, User: user}, nil
}

// Resolve returns the current user snapshot.
func (s *IdentityService) Resolve(ctx context.Context, userID string) (*domain.User, error) {
	return s.repo.FindByID(ctx, userID)
}

// SwitchRole changes the caller's role between client and freelancer.
// The update is a compare-and-swap on the stored role; existing channel
// memberships and job assignments are untouched. A fresh token is
// issued so role-gated routes honour the switch immediately instead of
// waiting out the old token's lifetime.
func (s *IdentityService) SwitchRole(ctx context.Context, userID string, newRole domain.Role) (*ports.AuthResult, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if user.Role == domain.RoleArbitrator {
		return nil, fmt.Errorf("%w: arbitrators cannot switch roles", domain.ErrInvalidRoleSwitch)
	}
	if !newRole.Switchable() {
		return nil, fmt.Errorf("%w: cannot switch to %q", domain.ErrInvalidRoleSwitch, newRole)
	}
	if newRole == user.Role {
		return nil, fmt.Errorf("%w: already %q", domain.ErrInvalidRoleSwitch, newRole)
	}

	if err := s.repo.UpdateRole(ctx, userID, user.Role, newRole); err != nil {
		return nil, err
	}

	switched, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	token, err := s.generateToken(switched)
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("user_id", userID).Str("from", string(user.Role)).Str("to", string(newRole)).Msg("role switched")
	return &ports.AuthResult{Token: token, User: switched}, nil
}

// LinkWallet stores the user's wallet address. Re-linking overwrites
// the previous address; a user holds at most one.
func (s *IdentityService) LinkWallet(ctx context.Context, userID, walletAddress string) (*domain.User, error) {
	walletAddress = strings.TrimSpace(walletAddress)
	if !validWallet(walletAddress) {
		return nil, domain.ErrInvalidWallet
	}

	if _, err := s.repo.FindByID(ctx, userID); err != nil {
		return nil, err
	}
	if err := s.repo.SetWallet(ctx, userID, walletAddress); err != nil {
		return nil, err
	}

	s.log.Info().Str("user_id", userID).Msg("wallet linked")
	return s.repo.FindByID(ctx, userID)
}

// VerifyEmail consumes a verification token and marks the bound account
// verified.
func (s *IdentityService) VerifyEmail(ctx context.Context, token string) (*domain.User, error) {
	if token == "" {
		return nil, domain.ErrTokenInvalid
	}

	userID, err := s.tokens.Consume(ctx, token)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SetVerified(ctx, userID); err != nil {
		return nil, err
	}

	s.log.Info().Str("user_id", userID).Msg("email verified")
	return s.repo.FindByID(ctx, userID)
}

// ResendVerification issues a fresh token for an unverified account.
// Already-verified accounts are a silent success.
func (s *IdentityService) ResendVerification(ctx context.Context, email string) error {
	user, err := s.repo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return err
	}
	if user.Verified {
		return nil
	}
	return s.issueVerification(ctx, user)
}

// UpdateProfile stores the caller's profile fields.
func (s *IdentityService) UpdateProfile(ctx context.Context, userID string, update ports.ProfileUpdate) (*domain.User, error) {
	if _, err := s.repo.FindByID(ctx, userID); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateProfile(ctx, userID, update); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, userID)
}

func (s *IdentityService) issueVerification(ctx context.Context, user *domain.User) error {
	token, err := generateVerifyToken()
	if err != nil {
		return err
	}
	if err := s.tokens.Save(ctx, token, user.ID, s.verifyTTL); err != nil {
		return err
	}

	s.mail.Enqueue(ports.Email{
		To:      user.Email,
		Subject: "Verify your CryptoGig account",
		Body:    fmt.Sprintf("Hi %s, confirm your email with token %s", user.Name, token),
	})
	return nil
}

func (s *IdentityService) generateToken(user *domain.User) (string, error) {
	claims := jwt.MapClaims{
		"sub":   user.ID,
		"email": user.Email,
		"role":  string(user.Role),
		"exp":   time.Now().Add(s.tokenTTL).Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(s.jwtSecret))
}

// generateVerifyToken returns a 32-hex-char random token.
func generateVerifyToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// validWallet accepts 0x-prefixed 40-hex-digit addresses.
func validWallet(addr string) bool {
	if len(addr) != 42 || !strings.HasPrefix(addr, "0x") {
		return false
	}
	for _, c := range addr[2:] {
		switch {
		case c >= '0' && c <= '9', c >= 'a' && c <= 'f', c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}
