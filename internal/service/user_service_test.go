package service

import (
	"context"
	"testing"

	"github.com/markbates/goth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suntennis/tournament-site/internal/store"
	users "github.com/suntennis/tournament-site/internal/user"
)

func newTestUserService(t *testing.T) *UserService {
	t.Helper()
	db := setupTestDB(t)
	t.Cleanup(func() { db.Close() })
	return NewUserService(store.NewUserStore(db), []string{" Admin@SunTennis.ro "})
}

func TestRegister(t *testing.T) {
	s := newTestUserService(t)
	ctx := context.Background()

	testCases := []struct {
		name     string
		email    string
		password string
		wantErr  error
		wantRole users.Role
	}{
		{"Player", "player@example.com", "secret1", nil, users.RoleUser},
		{"Listed admin still starts as user", "admin@suntennis.ro", "secret1", nil, users.RoleUser},
		{"Short password", "other@example.com", "abc", ErrValidation, ""},
		{"Bad email", "not-an-email", "secret1", ErrValidation, ""},
		{"Email taken", "PLAYER@example.com", "secret1", ErrEmailTaken, ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			user, err := s.Register(ctx, tc.email, tc.password)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantRole, user.Role)
			require.NotNil(t, user.PasswordHash)
			assert.NotEqual(t, tc.password, *user.PasswordHash)
		})
	}
}

func TestLogin(t *testing.T) {
	s := newTestUserService(t)
	ctx := context.Background()

	registered, err := s.Register(ctx, "player@example.com", "secret1")
	require.NoError(t, err)

	user, err := s.Login(ctx, " Player@Example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)

	_, err = s.Login(ctx, "player@example.com", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = s.Login(ctx, "nobody@example.com", "secret1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestFindOrCreateUserByProvider(t *testing.T) {
	s := newTestUserService(t)
	ctx := context.Background()

	gothUser := goth.User{
		Provider:  "google",
		UserID:    "12345",
		Email:     "admin@suntennis.ro",
		AvatarURL: "https://example.com/a.png",
	}

	created, err := s.FindOrCreateUserByProvider(ctx, gothUser)
	require.NoError(t, err)
	assert.True(t, created.IsAdmin())
	assert.Equal(t, "https://example.com/a.png", *created.AvatarURL)

	gothUser.AvatarURL = "https://example.com/b.png"
	found, err := s.FindOrCreateUserByProvider(ctx, gothUser)
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)

	stored, err := s.GetUser(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/b.png", *stored.AvatarURL)

	// A password account with the same verified email is reused
	registered, err := s.Register(ctx, "player@example.com", "secret1")
	require.NoError(t, err)
	linked, err := s.FindOrCreateUserByProvider(ctx, goth.User{Provider: "google", UserID: "777", Email: "player@example.com"})
	require.NoError(t, err)
	assert.Equal(t, registered.ID, linked.ID)
}

func TestFindOrCreateUserByProvider_UnverifiedEmail(t *testing.T) {
	s := newTestUserService(t)
	ctx := context.Background()

	registered, err := s.Register(ctx, "player@example.com", "secret1")
	require.NoError(t, err)

	testCases := []struct {
		name     string
		gothUser goth.User
	}{
		{
			name:     "Discord claims an admin email",
			gothUser: goth.User{Provider: "discord", UserID: "1", Email: "admin@suntennis.ro", RawData: map[string]interface{}{"verified": false}},
		},
		{
			name:     "Discord without a verified flag",
			gothUser: goth.User{Provider: "discord", UserID: "2", Email: "admin@suntennis.ro"},
		},
		{
			name:     "Discord claims a registered email",
			gothUser: goth.User{Provider: "discord", UserID: "3", Email: "player@example.com"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			user, err := s.FindOrCreateUserByProvider(ctx, tc.gothUser)
			require.NoError(t, err)
			assert.False(t, user.IsAdmin())
			assert.NotEqual(t, registered.ID, user.ID)
			assert.NotEqual(t, normalizeEmail(tc.gothUser.Email), user.Email)

			again, err := s.FindOrCreateUserByProvider(ctx, tc.gothUser)
			require.NoError(t, err)
			assert.Equal(t, user.ID, again.ID)
			assert.False(t, again.IsAdmin())
		})
	}

	stored, err := s.GetUser(ctx, registered.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.Provider)

	verified, err := s.FindOrCreateUserByProvider(ctx, goth.User{
		Provider: "discord",
		UserID:   "4",
		Email:    "admin@suntennis.ro",
		RawData:  map[string]interface{}{"verified": true},
	})
	require.NoError(t, err)
	assert.True(t, verified.IsAdmin())
}

func TestPromoteAdmin(t *testing.T) {
	s := newTestUserService(t)
	ctx := context.Background()

	_, err := s.PromoteAdmin(ctx, "admin@suntennis.ro")
	assert.ErrorIs(t, err, ErrNotFound)

	registered, err := s.Register(ctx, "admin@suntennis.ro", "secret1")
	require.NoError(t, err)
	require.False(t, registered.IsAdmin())

	promoted, err := s.PromoteAdmin(ctx, " ADMIN@suntennis.ro")
	require.NoError(t, err)
	assert.True(t, promoted.IsAdmin())

	stored, err := s.GetUser(ctx, registered.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsAdmin())

	_, err = s.Register(ctx, "player@example.com", "secret1")
	require.NoError(t, err)
	_, err = s.PromoteAdmin(ctx, "player@example.com")
	assert.ErrorIs(t, err, ErrValidation)
}
