package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"ecommerce-backend/internal/domains/user/model"
	"ecommerce-backend/internal/domains/user/repository"
	"ecommerce-backend/pkg/jwt"
)

type userService struct {
	repo       repository.Repository
	jwtManager *jwt.Manager
}

func NewUserService(repo repository.Repository, jwtManager *jwt.Manager) Service {
	return &userService{
		repo:       repo,
		jwtManager: jwtManager,
	}
}

// ========================================
// AUTHENTICATION
// ========================================

func (s *userService) Login(ctx context.Context, req model.LoginRequest) (*model.LoginResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	u, err := s.repo.FindByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			// Unknown usernames look the same as wrong passwords.
			return nil, model.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	if !u.IsActive {
		return nil, model.ErrUserInactive
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		return nil, model.ErrInvalidCredentials
	}

	accessToken, err := s.jwtManager.GenerateAccessToken(u.ID.String(), u.Username, u.IsStaff)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}

	log.Info().
		Str("user_id", u.ID.String()).
		Bool("is_staff", u.IsStaff).
		Msg("User logged in")

	return &model.LoginResponse{
		AccessToken: accessToken,
		TokenType:   "JWT",
		ExpiresIn:   int64(s.jwtManager.AccessTTL().Seconds()),
		User:        u.ToResponse(),
	}, nil
}

// Authenticate skips the user cache: staff and active flags must be current.
func (s *userService) Authenticate(ctx context.Context, userID uuid.UUID) (*model.User, error) {
	u, err := s.repo.FindByIDUncached(ctx, userID)
	if err != nil {
		return nil, err
	}
	return activeUser(u)
}

func (s *userService) AuthenticateUsername(ctx context.Context, username string) (*model.User, error) {
	u, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	return activeUser(u)
}

func activeUser(u *model.User) (*model.User, error) {
	if !u.IsActive {
		return nil, model.ErrUserInactive
	}
	return u, nil
}
