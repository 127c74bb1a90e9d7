package service

import (
	"context"
	"strings"

	"estatehub/internal/auth"
	"estatehub/internal/models"
	"estatehub/internal/repository"
	"estatehub/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

const defaultUserPageSize = 100

// SignupRequest is a self-service registration.
type SignupRequest struct {
	Name     string `json:"name" validate:"required,notblank,max=120"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	// Role is customer or agent. Admins cannot self-register.
	Role string `json:"role" validate:"omitempty,oneof=customer agent"`
}

type UserService struct {
	userRepo repository.UserRepository
}

func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

// Signup registers a customer or agent and returns its identity.
func (s *UserService) Signup(ctx context.Context, req SignupRequest) (auth.Identity, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Role = strings.ToLower(strings.TrimSpace(req.Role))
	if err := validation.Struct(req); err != nil {
		return auth.Identity{}, err
	}
	if req.Role == "" {
		req.Role = string(auth.RoleCustomer)
	}

	existing, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		return auth.Identity{}, err
	}
	if existing != nil {
		return auth.Identity{}, models.NewValidationError("User already exists", "email")
	}

	user, err := s.create(ctx, req.Name, req.Email, req.Password, auth.Role(req.Role))
	if err != nil {
		return auth.Identity{}, err
	}
	return identityOf(user), nil
}

// Login checks credentials and returns the matching identity.
func (s *UserService) Login(ctx context.Context, email, password string) (auth.Identity, error) {
	user, err := s.userRepo.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return auth.Identity{}, err
	}
	if user == nil || !user.Active {
		return auth.Identity{}, models.NewUnauthorizedError("Invalid credentials")
	}
	if cmpErr := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); cmpErr != nil {
		return auth.Identity{}, models.NewUnauthorizedError("Invalid credentials")
	}
	return identityOf(user), nil
}

// List returns users whose name or email contains search. Admins only.
func (s *UserService) List(ctx context.Context, viewer *auth.Identity, search string) ([]models.User, error) {
	if err := requireAdmin(viewer); err != nil {
		return nil, err
	}
	users, err := s.userRepo.Search(ctx, search, defaultUserPageSize, 0)
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []models.User{}
	}
	return users, nil
}

// EnsureAdmin creates the admin account for email unless it already exists.
// It reports whether an account was created.
func (s *UserService) EnsureAdmin(ctx context.Context, email, password string) (bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return false, models.NewMissingFieldsError("email", "password")
	}
	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return false, err
	}
	if existing != nil {
		if existing.Role != string(auth.RoleAdmin) {
			existing.Role = string(auth.RoleAdmin)
			return false, s.userRepo.Update(ctx, existing)
		}
		return false, nil
	}
	if _, err := s.create(ctx, "Administrator", email, password, auth.RoleAdmin); err != nil {
		return false, err
	}
	return true, nil
}

func (s *UserService) create(ctx context.Context, name, email, password string, role auth.Role) (*models.User, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	user := &models.User{
		Name:     name,
		Email:    email,
		Password: string(hashed),
		Role:     string(role),
		Active:   true,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func identityOf(u *models.User) auth.Identity {
	return auth.Identity{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
		Role:  auth.Role(u.Role),
	}
}
