package service

import (
	"context"
	"strings"
	"testing"

	"estatehub/internal/auth"
	"estatehub/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// userRepoStub is an in-memory repository.UserRepository.
type userRepoStub struct {
	users  map[string]*models.User
	nextID uint
	search func(context.Context, string, int, int) ([]models.User, error)
}

func newUserRepoStub() *userRepoStub {
	return &userRepoStub{users: map[string]*models.User{}, nextID: 1}
}

func (s *userRepoStub) GetByID(_ context.Context, id uint) (*models.User, error) {
	for _, u := range s.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, models.NewNotFoundError("User", id)
}
func (s *userRepoStub) GetByEmail(_ context.Context, email string) (*models.User, error) {
	return s.users[strings.ToLower(email)], nil
}
func (s *userRepoStub) Create(_ context.Context, user *models.User) error {
	user.ID = s.nextID
	s.nextID++
	s.users[user.Email] = user
	return nil
}
func (s *userRepoStub) Update(_ context.Context, user *models.User) error {
	s.users[user.Email] = user
	return nil
}
func (s *userRepoStub) Search(ctx context.Context, query string, limit, offset int) ([]models.User, error) {
	if s.search != nil {
		return s.search(ctx, query, limit, offset)
	}
	return nil, nil
}

func TestUserService_Signup(t *testing.T) {
	ctx := context.Background()

	t.Run("customer by default", func(t *testing.T) {
		repo := newUserRepoStub()
		svc := NewUserService(repo)

		id, err := svc.Signup(ctx, SignupRequest{Name: " Pat ", Email: "Pat@Example.com", Password: "correct horse"})
		require.NoError(t, err)
		assert.Equal(t, auth.RoleCustomer, id.Role)
		assert.Equal(t, "pat@example.com", id.Email)
		assert.Equal(t, "Pat", id.Name)

		stored := repo.users["pat@example.com"]
		require.NotNil(t, stored)
		assert.NotEqual(t, "correct horse", stored.Password)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte("correct horse")))
	})

	t.Run("agent signup", func(t *testing.T) {
		svc := NewUserService(newUserRepoStub())
		id, err := svc.Signup(ctx, SignupRequest{Name: "Jane Agent", Email: "jane@example.com", Password: "supersecret", Role: "Agent"})
		require.NoError(t, err)
		assert.Equal(t, auth.RoleAgent, id.Role)
	})

	t.Run("admin cannot self-register", func(t *testing.T) {
		repo := newUserRepoStub()
		svc := NewUserService(repo)
		_, err := svc.Signup(ctx, SignupRequest{Name: "Eve", Email: "eve@example.com", Password: "supersecret", Role: "admin"})
		assert.Equal(t, models.CodeValidation, appCode(t, err))
		assert.Empty(t, repo.users)
	})

	t.Run("duplicate email", func(t *testing.T) {
		svc := NewUserService(newUserRepoStub())
		req := SignupRequest{Name: "Pat", Email: "pat@example.com", Password: "supersecret"}
		_, err := svc.Signup(ctx, req)
		require.NoError(t, err)
		req.Email = "PAT@example.com"
		_, err = svc.Signup(ctx, req)
		assert.Equal(t, models.CodeValidation, appCode(t, err))
	})

	t.Run("short password", func(t *testing.T) {
		svc := NewUserService(newUserRepoStub())
		_, err := svc.Signup(ctx, SignupRequest{Name: "Pat", Email: "pat@example.com", Password: "short"})
		assert.Equal(t, models.CodeValidation, appCode(t, err))
	})
}

func TestUserService_Login(t *testing.T) {
	ctx := context.Background()
	repo := newUserRepoStub()
	svc := NewUserService(repo)
	_, err := svc.Signup(ctx, SignupRequest{Name: "Pat", Email: "pat@example.com", Password: "supersecret"})
	require.NoError(t, err)

	id, err := svc.Login(ctx, " PAT@example.com ", "supersecret")
	require.NoError(t, err)
	assert.Equal(t, "Pat", id.Name)

	_, err = svc.Login(ctx, "pat@example.com", "wrong-password")
	assert.Equal(t, models.CodeUnauthorized, appCode(t, err))

	_, err = svc.Login(ctx, "nobody@example.com", "supersecret")
	assert.Equal(t, models.CodeUnauthorized, appCode(t, err))

	repo.users["pat@example.com"].Active = false
	_, err = svc.Login(ctx, "pat@example.com", "supersecret")
	assert.Equal(t, models.CodeUnauthorized, appCode(t, err))
}

func TestUserService_List(t *testing.T) {
	ctx := context.Background()
	repo := newUserRepoStub()
	var gotQuery string
	repo.search = func(_ context.Context, q string, limit, _ int) ([]models.User, error) {
		gotQuery = q
		assert.Equal(t, defaultUserPageSize, limit)
		return nil, nil
	}
	svc := NewUserService(repo)

	users, err := svc.List(ctx, admin, "pat")
	require.NoError(t, err)
	assert.NotNil(t, users)
	assert.Equal(t, "pat", gotQuery)

	_, err = svc.List(ctx, jane, "pat")
	assert.Equal(t, models.CodeForbidden, appCode(t, err))
	_, err = svc.List(ctx, nil, "pat")
	assert.Equal(t, models.CodeUnauthorized, appCode(t, err))
}

func TestUserService_EnsureAdmin(t *testing.T) {
	ctx := context.Background()
	repo := newUserRepoStub()
	svc := NewUserService(repo)

	created, err := svc.EnsureAdmin(ctx, "Admin@EstateHub.com", "changeme123")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, string(auth.RoleAdmin), repo.users["admin@estatehub.com"].Role)

	created, err = svc.EnsureAdmin(ctx, "admin@estatehub.com", "changeme123")
	require.NoError(t, err)
	assert.False(t, created)

	_, err = svc.Signup(ctx, SignupRequest{Name: "Jane", Email: "jane@example.com", Password: "supersecret", Role: "agent"})
	require.NoError(t, err)
	created, err = svc.EnsureAdmin(ctx, "jane@example.com", "ignored-password")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, string(auth.RoleAdmin), repo.users["jane@example.com"].Role, "existing account is promoted")

	_, err = svc.EnsureAdmin(ctx, "", "")
	assert.Equal(t, models.CodeValidation, appCode(t, err))
}
