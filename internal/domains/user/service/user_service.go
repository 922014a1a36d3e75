package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	loyalty "restaurant-backend/internal/domains/loyalty/model"
	"restaurant-backend/internal/domains/user/model"
	"restaurant-backend/internal/domains/user/repository"
	"restaurant-backend/pkg/jwt"
	"restaurant-backend/pkg/logger"
)

// UserService là business logic của user domain
type UserService interface {
	Register(ctx context.Context, req *model.RegisterRequest) (*model.User, error)
	Login(ctx context.Context, req *model.LoginRequest) (*model.TokenPair, error)
	GetProfile(ctx context.Context, userID uuid.UUID) (*model.User, error)
	Leaderboard(ctx context.Context, limit int) ([]*model.LeaderboardEntry, error)
}

type userService struct {
	repo repository.UserRepository
	jwt  *jwt.Manager
}

func NewUserService(repo repository.UserRepository, jwtManager *jwt.Manager) UserService {
	return &userService{repo: repo, jwt: jwtManager}
}

func (s *userService) Register(ctx context.Context, req *model.RegisterRequest) (*model.User, error) {
	if err := req.Validate(); err != nil {
		return nil, &model.AppError{
			Code:       model.ErrCodeValidationFailed,
			Message:    err.Error(),
			HTTPStatus: 400,
		}
	}

	exists, err := s.repo.EmailExists(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, model.ErrAppDuplicateEmail
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	u := &model.User{
		ID:           uuid.New(),
		Email:        req.Email,
		PasswordHash: string(hash),
		FullName:     req.FullName,
		Role:         model.RoleCustomer,
		Rank:         loyalty.RankPotential,
		Booster:      decimal.NewFromInt(1),
	}

	if err := s.repo.Create(ctx, u); err != nil {
		logger.Error("failed to create user", err)
		return nil, err
	}

	logger.Info("user registered", map[string]interface{}{"user_id": u.ID})
	return u, nil
}

func (s *userService) Login(ctx context.Context, req *model.LoginRequest) (*model.TokenPair, error) {
	if err := req.Validate(); err != nil {
		return nil, &model.AppError{
			Code:       model.ErrCodeValidationFailed,
			Message:    err.Error(),
			HTTPStatus: 400,
		}
	}

	u, err := s.repo.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return nil, model.ErrAppInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		return nil, model.ErrAppInvalidCredentials
	}

	access, err := s.jwt.GenerateAccessToken(u.ID, u.Role)
	if err != nil {
		return nil, err
	}
	refresh, err := s.jwt.GenerateRefreshToken(u.ID)
	if err != nil {
		return nil, err
	}

	return &model.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (s *userService) GetProfile(ctx context.Context, userID uuid.UUID) (*model.User, error) {
	u, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return nil, model.ErrAppUserNotFound
		}
		return nil, err
	}
	return u, nil
}

func (s *userService) Leaderboard(ctx context.Context, limit int) ([]*model.LeaderboardEntry, error) {
	return s.repo.Leaderboard(ctx, limit)
}
