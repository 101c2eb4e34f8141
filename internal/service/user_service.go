package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/markbates/goth"
	"github.com/suntennis/tournament-site/internal/store"
	users "github.com/suntennis/tournament-site/internal/user"
	"github.com/suntennis/tournament-site/internal/utils"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 6

type UserService struct {
	store       *store.UserStore
	adminEmails map[string]bool
}

// NewUserService creates the account service. Accounts whose email is listed
// in adminEmails get the admin role.
func NewUserService(store *store.UserStore, adminEmails []string) *UserService {
	admins := make(map[string]bool, len(adminEmails))
	for _, email := range adminEmails {
		if email = normalizeEmail(email); email != "" {
			admins[email] = true
		}
	}
	return &UserService{store: store, adminEmails: admins}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// emailVerified reports whether the provider vouches for the email it sent.
// Google only hands out verified addresses; Discord says so in its payload.
func emailVerified(gothUser goth.User) bool {
	if strings.TrimSpace(gothUser.Email) == "" {
		return false
	}
	switch gothUser.Provider {
	case "google":
		return true
	case "discord":
		verified, _ := gothUser.RawData["verified"].(bool)
		return verified
	}
	return false
}

// promote gives the admin role to a listed email. Callers must have proven
// ownership of the email first.
func (s *UserService) promote(ctx context.Context, user *users.User) error {
	if user.IsAdmin() || !s.adminEmails[normalizeEmail(user.Email)] {
		return nil
	}
	user.Role = users.RoleAdmin
	return s.store.UpdateUserRole(ctx, user)
}

// PromoteAdmin grants the admin role to an existing account listed in
// ADMIN_EMAILS. Password sign-ups never verify their email, so this is run by
// an operator rather than on registration.
func (s *UserService) PromoteAdmin(ctx context.Context, email string) (*users.User, error) {
	email = normalizeEmail(email)
	if !s.adminEmails[email] {
		return nil, invalid("%s is not listed in ADMIN_EMAILS", email)
	}
	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, notFound(err, "user")
	}
	if err := s.promote(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) Register(ctx context.Context, email, password string) (*users.User, error) {
	email = normalizeEmail(email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, invalid("enter a valid email address")
	}
	if len(password) < minPasswordLength {
		return nil, invalid("the password must have at least %d characters", minPasswordLength)
	}

	_, err := s.store.GetUserByEmail(ctx, email)
	if err == nil {
		return nil, ErrEmailTaken
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &users.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: utils.Ptr(string(hash)),
		Role:         users.RoleUser,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) Login(ctx context.Context, email, password string) (*users.User, error) {
	user, err := s.store.GetUserByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if user.PasswordHash == nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// FindOrCreateUserByProvider signs in an OAuth identity. Only an email the
// provider has verified may link to an existing account or grant the admin
// role; otherwise the identity gets an account of its own.
func (s *UserService) FindOrCreateUserByProvider(ctx context.Context, gothUser goth.User) (*users.User, error) {
	verified := emailVerified(gothUser)
	user, err := s.store.GetUserByProvider(ctx, gothUser.Provider, gothUser.UserID)

	if err == nil {
		if utils.OrZero(user.AvatarURL) != gothUser.AvatarURL {
			user.AvatarURL = utils.Ptr(gothUser.AvatarURL)
			if err := s.store.UpdateUserAvatar(ctx, user); err != nil {
				return nil, err
			}
		}
		if verified && normalizeEmail(gothUser.Email) == user.Email {
			if err := s.promote(ctx, user); err != nil {
				return nil, err
			}
		}
		return user, nil
	}

	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	email := fmt.Sprintf("%s-%s@users.noreply", gothUser.Provider, gothUser.UserID)
	if verified {
		email = normalizeEmail(gothUser.Email)
		// Same person already registered with a password
		existing, err := s.store.GetUserByEmail(ctx, email)
		if err == nil {
			if err := s.promote(ctx, existing); err != nil {
				return nil, err
			}
			return existing, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
	}

	newUser := &users.User{
		ID:         uuid.New(),
		Email:      email,
		Role:       users.RoleUser,
		Provider:   utils.Ptr(gothUser.Provider),
		ProviderID: utils.Ptr(gothUser.UserID),
		AvatarURL:  utils.StringOrNil(gothUser.AvatarURL),
	}
	if verified && s.adminEmails[email] {
		newUser.Role = users.RoleAdmin
	}
	if err := s.store.CreateUser(ctx, newUser); err != nil {
		return nil, err
	}
	return newUser, nil
}

func (s *UserService) GetUser(ctx context.Context, id uuid.UUID) (*users.User, error) {
	user, err := s.store.GetUser(ctx, id)
	if err != nil {
		return nil, notFound(err, "user")
	}
	return user, nil
}
