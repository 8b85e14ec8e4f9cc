// Package authpw provides email/password authentication and contributor
// onboarding review.
package authpw

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/southsideweekly/south-side-weekly/internal/notify"
	"github.com/southsideweekly/south-side-weekly/internal/store"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already registered")
	ErrNotOnboarded       = errors.New("account pending onboarding review")
)

// UserStore defines the storage interface for auth
type UserStore interface {
	GetUserByEmail(ctx context.Context, email string) (store.User, error)
	GetUserByID(ctx context.Context, id string) (store.User, error)
	InsertUser(ctx context.Context, user store.User) (store.User, error)
	SetOnboardingStatus(ctx context.Context, userID, status string) error
	ListUsersByOnboarding(ctx context.Context, status string) ([]store.User, error)
}

// Service provides email/password authentication
type Service struct {
	store   UserStore
	emitter notify.Emitter
}

// NewService creates a new auth service
func NewService(store UserStore, emitter notify.Emitter) *Service {
	return &Service{store: store, emitter: emitter}
}

// SignUpRequest contains sign-up parameters
type SignUpRequest struct {
	Email     string
	Password  string
	Name      string
	Teams     []string
	Interests []string
}

// SignUp creates a new account in onboarding review. The account cannot sign
// in until staff approve it.
func (s *Service) SignUp(ctx context.Context, req SignUpRequest) (store.User, error) {
	if req.Email == "" || req.Password == "" || req.Name == "" {
		return store.User{}, errors.New("email, password, and name are required")
	}
	if len(req.Password) < 8 {
		return store.User{}, errors.New("password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return store.User{}, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.store.InsertUser(ctx, store.User{
		Name:             req.Name,
		Email:            strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash:     string(hash),
		Role:             "TBD",
		OnboardingStatus: store.OnboardingPending,
		Teams:            req.Teams,
		Interests:        req.Interests,
	})
	if store.IsUniqueViolation(err) {
		return store.User{}, ErrEmailTaken
	}
	if err != nil {
		return store.User{}, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// SignInRequest contains sign-in parameters
type SignInRequest struct {
	Email    string
	Password string
}

// SignIn authenticates a user. Accounts still in onboarding review pass the
// password check but get ErrNotOnboarded.
func (s *Service) SignIn(ctx context.Context, req SignInRequest) (store.User, error) {
	if req.Email == "" || req.Password == "" {
		return store.User{}, ErrInvalidCredentials
	}

	user, err := s.store.GetUserByEmail(ctx, req.Email)
	if err != nil {
		return store.User{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return store.User{}, ErrInvalidCredentials
	}
	if user.DeactivatedAt != nil {
		return store.User{}, ErrInvalidCredentials
	}
	if user.OnboardingStatus != store.OnboardingApproved {
		return user, ErrNotOnboarded
	}
	return user, nil
}

// PendingUsers lists accounts waiting for onboarding review.
func (s *Service) PendingUsers(ctx context.Context) ([]store.User, error) {
	return s.store.ListUsersByOnboarding(ctx, store.OnboardingPending)
}

// ApproveUser completes onboarding review and lets the account sign in.
func (s *Service) ApproveUser(ctx context.Context, userID string) (store.User, error) {
	if err := s.store.SetOnboardingStatus(ctx, userID, store.OnboardingApproved); err != nil {
		return store.User{}, fmt.Errorf("approve user: %w", err)
	}
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return store.User{}, fmt.Errorf("load user: %w", err)
	}

	s.emitter.Emit(notify.Intent{
		Kind: notify.KindUserApproved,
		To:   user.Email,
		Fields: map[string]string{
			"contributor": user.Name,
		},
	})
	return user, nil
}

// DenyUser rejects an onboarding application.
func (s *Service) DenyUser(ctx context.Context, userID, reasoning string) (store.User, error) {
	if err := s.store.SetOnboardingStatus(ctx, userID, store.OnboardingDenied); err != nil {
		return store.User{}, fmt.Errorf("deny user: %w", err)
	}
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return store.User{}, fmt.Errorf("load user: %w", err)
	}

	s.emitter.Emit(notify.Intent{
		Kind: notify.KindUserRejected,
		To:   user.Email,
		Fields: map[string]string{
			"contributor": user.Name,
			"reasoning":   reasoning,
		},
	})
	return user, nil
}
