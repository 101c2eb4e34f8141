package store

import (
	"context"

	"github.com/jmoiron/sqlx"
	users "github.com/suntennis/tournament-site/internal/user"
)

type UserStore struct {
	db *sqlx.DB
}

const (
	getUserQuery           = "SELECT * FROM profiles WHERE id = ?"
	getUserByEmailQuery    = "SELECT * FROM profiles WHERE email = ?"
	getUserByProviderQuery = `
        SELECT * FROM profiles
        WHERE provider = ?
        AND provider_id = ?
    `
	createUserQuery = `
		INSERT INTO profiles (id, email, password_hash, role, provider, provider_id, avatar_url) VALUES
		(:id, :email, :password_hash, :role, :provider, :provider_id, :avatar_url)
	`
	updateUserAvatarQuery = `
		UPDATE profiles SET
		avatar_url = :avatar_url
		WHERE id = :id
	`
	updateUserRoleQuery = "UPDATE profiles SET role = ? WHERE id = ?"
)

func NewUserStore(db *sqlx.DB) *UserStore {
	return &UserStore{db: db}
}

func (s *UserStore) GetUserByProvider(ctx context.Context, provider string, providerID string) (*users.User, error) {
	var user users.User
	err := s.db.GetContext(ctx, &user, getUserByProviderQuery, provider, providerID)
	if err != nil {
		return nil, err
	}

	return &user, nil
}

func (s *UserStore) GetUserByEmail(ctx context.Context, email string) (*users.User, error) {
	var user users.User
	if err := s.db.GetContext(ctx, &user, getUserByEmailQuery, email); err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *UserStore) GetUser(ctx context.Context, id interface{}) (*users.User, error) {
	var user users.User
	err := s.db.GetContext(ctx, &user, getUserQuery, id)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *UserStore) CreateUser(ctx context.Context, user *users.User) error {
	if user.Role == "" {
		user.Role = users.RoleUser
	}
	_, err := s.db.NamedExecContext(ctx, createUserQuery, user)
	return err
}

func (s *UserStore) UpdateUserAvatar(ctx context.Context, user *users.User) error {
	_, err := s.db.NamedExecContext(ctx, updateUserAvatarQuery, user)
	return err
}

func (s *UserStore) UpdateUserRole(ctx context.Context, user *users.User) error {
	_, err := s.db.ExecContext(ctx, updateUserRoleQuery, user.Role, user.ID)
	return err
}
