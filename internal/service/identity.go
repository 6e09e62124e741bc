package service

import (
	"context"

	"github.com/bookhive/lending-service/internal/errs"
	"github.com/bookhive/lending-service/internal/model"
	"github.com/bookhive/lending-service/internal/repository"
	"github.com/bookhive/lending-service/pkg/auth"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type IdentityService struct {
	log     *zap.Logger
	users   repository.UserRepository
	authCfg auth.Config
}

func NewIdentityService(users repository.UserRepository, authCfg auth.Config, log *zap.Logger) *IdentityService {
	return &IdentityService{
		log:     log,
		users:   users,
		authCfg: authCfg,
	}
}

// Register hashes the password up front and stores the account. The hash
// never leaves the service.
func (s *IdentityService) Register(ctx context.Context, req model.RegisterRequest) (model.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return model.User{}, errors.Wrap(err, "hash password")
	}

	role := req.Role
	if role == "" {
		role = model.RoleUser
	}

	return s.users.CreateUser(ctx, model.User{
		UserUid:      uuid.NewString(),
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         role,
		IsActive:     true,
	})
}

func (s *IdentityService) Login(ctx context.Context, req model.AuthRequest) (model.AuthResponse, error) {
	user, err := s.users.GetByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, errs.ErrUserNotFound) {
			return model.AuthResponse{}, errs.ErrBadCredentials
		}
		return model.AuthResponse{}, err
	}
	if !user.IsActive {
		return model.AuthResponse{}, errs.ErrUserInactive
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		return model.AuthResponse{}, errs.ErrBadCredentials
	}

	token, expiresAt, err := auth.NewToken(s.authCfg, user.UserUid, user.Username, string(user.Role), user.Email)
	if err != nil {
		return model.AuthResponse{}, errors.Wrap(err, "sign token")
	}

	return model.AuthResponse{
		AccessToken: token,
		ExpiresIn:   expiresAt.Unix(),
	}, nil
}

func (s *IdentityService) GetUser(ctx context.Context, userUid string) (model.User, error) {
	return s.users.GetByUid(ctx, userUid)
}
