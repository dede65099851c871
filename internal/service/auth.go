package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"procurement/db"
	"procurement/internal/auth"
	"procurement/models"
)

type AuthService struct {
	users  UserStore
	tokens *auth.Manager
}

func NewAuthService(users UserStore, tokens *auth.Manager) *AuthService {
	return &AuthService{users: users, tokens: tokens}
}

// AuthResult is returned by register and login.
type AuthResult struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest) (*AuthResult, error) {
	if err := req.Validate(); err != nil {
		return nil, invalid(err)
	}
	user := &models.User{
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Company:   req.Company,
		Phone:     req.Phone,
		Role:      req.Role,
	}
	if err := s.createUser(ctx, user, req.Password); err != nil {
		return nil, err
	}
	return s.issue(user)
}

// CreateAdmin provisions an administrator account.
func (s *AuthService) CreateAdmin(ctx context.Context, req models.CreateAdminRequest) (*models.User, error) {
	if err := req.Validate(); err != nil {
		return nil, invalid(err)
	}
	user := &models.User{
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Role:      models.RoleAdmin,
	}
	if err := s.createUser(ctx, user, req.Password); err != nil {
		return nil, err
	}
	user.PasswordHash = ""
	return user, nil
}

func (s *AuthService) createUser(ctx context.Context, user *models.User, password string) error {
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	if _, err := s.users.FindUserByEmail(ctx, user.Email); err == nil {
		return fmt.Errorf("%w: user with this email already exists", ErrConflict)
	} else if !errors.Is(err, db.ErrNotFound) {
		return err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	user.IsActive = true
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, db.ErrDuplicate) {
			return fmt.Errorf("%w: user with this email already exists", ErrConflict)
		}
		return err
	}
	return nil
}

func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*AuthResult, error) {
	if err := req.Validate(); err != nil {
		return nil, invalid(err)
	}
	user, err := s.users.FindUserByEmail(ctx, strings.TrimSpace(req.Email))
	if errors.Is(err, db.ErrNotFound) {
		return nil, fmt.Errorf("%w: invalid email or password", ErrUnauthorized)
	}
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, fmt.Errorf("%w: account is deactivated", ErrUnauthorized)
	}
	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		return nil, fmt.Errorf("%w: invalid email or password", ErrUnauthorized)
	}
	return s.issue(user)
}

func (s *AuthService) issue(user *models.User) (*AuthResult, error) {
	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}
	user.PasswordHash = ""
	return &AuthResult{User: user, Token: token}, nil
}

// Authenticate resolves a bearer token to a principal. The account must
// still exist and be active.
func (s *AuthService) Authenticate(ctx context.Context, token string) (auth.Principal, error) {
	p, err := s.tokens.Parse(token)
	if err != nil {
		return auth.Principal{}, fmt.Errorf("%w: invalid token", ErrUnauthorized)
	}
	user, err := s.users.FindUserByID(ctx, p.UserID)
	if errors.Is(err, db.ErrNotFound) {
		return auth.Principal{}, fmt.Errorf("%w: user not found", ErrUnauthorized)
	}
	if err != nil {
		return auth.Principal{}, err
	}
	if !user.IsActive {
		return auth.Principal{}, fmt.Errorf("%w: account is deactivated", ErrUnauthorized)
	}
	return auth.Principal{UserID: user.ID, Email: user.Email, Role: user.Role}, nil
}

func (s *AuthService) Profile(ctx context.Context, p auth.Principal) (*models.User, error) {
	user, err := s.users.FindUserByID(ctx, p.UserID)
	if err != nil {
		return nil, storeError(err, "user")
	}
	user.PasswordHash = ""
	return user, nil
}

func (s *AuthService) UpdateProfile(ctx context.Context, p auth.Principal, req models.UpdateProfileRequest) (*models.User, error) {
	if err := req.Validate(); err != nil {
		return nil, invalid(err)
	}
	user, err := s.users.FindUserByID(ctx, p.UserID)
	if err != nil {
		return nil, storeError(err, "user")
	}
	if req.FirstName != nil {
		user.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		user.LastName = *req.LastName
	}
	if req.Company != nil {
		user.Company = req.Company
	}
	if req.Phone != nil {
		user.Phone = req.Phone
	}
	if err := s.users.UpdateUserProfile(ctx, user); err != nil {
		return nil, storeError(err, "user")
	}
	user.PasswordHash = ""
	return user, nil
}

func (s *AuthService) ChangePassword(ctx context.Context, p auth.Principal, req models.ChangePasswordRequest) error {
	if err := req.Validate(); err != nil {
		return invalid(err)
	}
	user, err := s.users.FindUserByID(ctx, p.UserID)
	if err != nil {
		return storeError(err, "user")
	}
	if !auth.CheckPassword(user.PasswordHash, req.CurrentPassword) {
		return fmt.Errorf("%w: current password is incorrect", ErrInvalidInput)
	}
	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		return err
	}
	return storeError(s.users.UpdateUserPassword(ctx, user.ID, hash), "user")
}
