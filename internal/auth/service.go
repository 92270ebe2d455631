package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/hugh/cardboard/internal/apperr"
	"github.com/hugh/cardboard/internal/database/models"
	"github.com/hugh/cardboard/internal/pagination"
	"github.com/hugh/cardboard/internal/validation"
	"gorm.io/gorm"
)

// msgInvalidCredentials is returned for both an unknown email and a wrong
// password so the response never reveals which accounts exist.
const msgInvalidCredentials = "The provided email or password is incorrect"

var (
	ErrUserNotFound       = apperr.NotFound("User not found")
	ErrInvalidCredentials = apperr.BadRequest(msgInvalidCredentials)
)

type Service struct {
	db         *gorm.DB
	jwt        *JWTService
	logger     *slog.Logger
	allowAdmin bool
}

type ServiceOption func(*Service)

// WithAdminRegistration controls whether anonymous registration may request
// the Admin role.
func WithAdminRegistration(allow bool) ServiceOption {
	return func(s *Service) { s.allowAdmin = allow }
}

func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) { s.logger = logger }
}

func NewService(db *gorm.DB, jwt *JWTService, opts ...ServiceOption) *Service {
	s := &Service{
		db:         db,
		jwt:        jwt,
		logger:     slog.Default(),
		allowAdmin: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type RegisterInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
	Role      models.Role
}

type LoginInput struct {
	Email    string
	Password string
}

type AuthResponse struct {
	Token string
	User  *models.User
}

func (s *Service) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	emailKey := models.NormalizeEmail(input.Email)

	// Check if user exists
	var count int64
	if err := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("email_key = ?", emailKey).
		Count(&count).Error; err != nil {
		return nil, fmt.Errorf("checking existing user: %w", err)
	}
	if count > 0 {
		return nil, apperr.Conflict("User with the email %s exists", strings.TrimSpace(input.Email))
	}

	if ok, msg := validation.IsValidPassword(input.Password); !ok {
		return nil, apperr.BadRequest("%s", msg)
	}

	if input.Role == "" {
		input.Role = models.RoleMember
	}
	if input.Role == models.RoleAdmin && !s.allowAdmin {
		return nil, apperr.BadRequest("Registration with the Admin role is disabled")
	}

	// Hash password
	hash, err := HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user := models.User{
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
		Email:        strings.TrimSpace(input.Email),
		EmailKey:     emailKey,
		PasswordHash: hash,
		Role:         input.Role,
	}

	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		// Lost a race with a concurrent registration of the same email.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperr.Conflict("User with the email %s exists", user.Email).WithCause(err)
		}
		return nil, fmt.Errorf("creating user: %w", err)
	}

	s.logger.InfoContext(ctx, "user registered", "user_id", user.ID, "role", user.Role)

	return &user, nil
}

func (s *Service) Login(ctx context.Context, input LoginInput) (*AuthResponse, error) {
	var user models.User
	if err := s.db.WithContext(ctx).
		Where("email_key = ?", models.NormalizeEmail(input.Email)).
		First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("loading user: %w", err)
	}

	if !CheckPassword(input.Password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	token, err := s.jwt.GenerateToken(user.ID, user.FullName(), user.Email, string(user.Role))
	if err != nil {
		return nil, fmt.Errorf("signing token: %w", err)
	}

	return &AuthResponse{
		Token: token,
		User:  &user,
	}, nil
}

func (s *Service) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("loading user: %w", err)
	}
	return &user, nil
}

// ListUsers pages over every account in registration order.
func (s *Service) ListUsers(ctx context.Context, params pagination.Params) (pagination.Page[models.User], error) {
	query := s.db.Model(&models.User{}).Order("created_at ASC").Order("id ASC")
	return pagination.Find[models.User](ctx, query, params)
}
