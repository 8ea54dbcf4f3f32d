package services

import (
	"context"

	"rescuenet/models"
	"rescuenet/repositories"
	"rescuenet/utils"

	"golang.org/x/crypto/bcrypt"
)

// UserStore is the account surface the auth service depends on.
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email, role string) (*models.User, error)
}

type AuthService struct {
	userRepo   UserStore
	jwtService *utils.JWTService
	validator  *utils.ValidationService
}

func NewAuthService(userRepo UserStore, jwtService *utils.JWTService) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		jwtService: jwtService,
		validator:  utils.NewValidationService(),
	}
}

// RegisterUser creates a reporter account and returns a signed token.
func (s *AuthService) RegisterUser(ctx context.Context, req models.RegisterUserRequest) (*models.AuthResponse, error) {
	if validationErrors := s.validator.ValidateStruct(req); len(validationErrors) > 0 {
		return nil, utils.NewValidationError(validationErrors[0].Message)
	}

	if existing, err := s.userRepo.GetByEmail(ctx, req.Email, models.RoleUser); err == nil && existing != nil {
		return nil, utils.NewConflictError("An account with this email already exists")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, utils.NewInternalError("Failed to hash password")
	}

	user := &models.User{
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Password: string(hashed),
		Role:     models.RoleUser,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, utils.NewStorageError("create user", err)
	}

	return s.issueToken(user)
}

// RegisterResponder creates a responder account with its badge identity.
func (s *AuthService) RegisterResponder(ctx context.Context, req models.RegisterResponderRequest) (*models.AuthResponse, error) {
	if validationErrors := s.validator.ValidateStruct(req); len(validationErrors) > 0 {
		return nil, utils.NewValidationError(validationErrors[0].Message)
	}

	if existing, err := s.userRepo.GetByEmail(ctx, req.Email, models.RoleResponder); err == nil && existing != nil {
		return nil, utils.NewConflictError("An account with this email already exists")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, utils.NewInternalError("Failed to hash password")
	}

	user := &models.User{
		Name:       req.Name,
		Email:      req.Email,
		Password:   string(hashed),
		Role:       models.RoleResponder,
		BadgeID:    req.BadgeID,
		Department: req.Department,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, utils.NewStorageError("create responder", err)
	}

	return s.issueToken(user)
}

// Login authenticates an account of the given role. The same message is
// returned for unknown email and wrong password.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest, role string) (*models.AuthResponse, error) {
	if validationErrors := s.validator.ValidateStruct(req); len(validationErrors) > 0 {
		return nil, utils.NewValidationError(validationErrors[0].Message)
	}

	user, err := s.userRepo.GetByEmail(ctx, req.Email, role)
	if err != nil {
		if err == repositories.ErrNotFound {
			return nil, utils.NewUnauthorizedError("Invalid email or password")
		}
		return nil, utils.NewStorageError("get user", err)
	}

	if !user.IsActive {
		return nil, utils.NewUnauthorizedError("Account is deactivated")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, utils.NewUnauthorizedError("Invalid email or password")
	}

	return s.issueToken(user)
}

// GetProfile loads the account behind a validated token.
func (s *AuthService) GetProfile(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		switch err {
		case repositories.ErrNotFound, repositories.ErrInvalidID:
			return nil, utils.NewNotFoundError("User")
		default:
			return nil, utils.NewStorageError("get user", err)
		}
	}
	return user, nil
}

func (s *AuthService) issueToken(user *models.User) (*models.AuthResponse, error) {
	token, err := s.jwtService.GenerateToken(user.ID.Hex(), user.Email, user.Role)
	if err != nil {
		return nil, utils.NewInternalError("Failed to generate token")
	}

	return &models.AuthResponse{
		UserID: user.ID.Hex(),
		Token:  token,
		User:   user,
	}, nil
}
