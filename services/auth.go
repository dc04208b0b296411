package services

import (
	"context"
	"errors"

	appContext "github.com/alphabatem/common/context"
	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/zevi-app/zevi_api/dto"
	"github.com/zevi-app/zevi_api/model"
	"github.com/zevi-app/zevi_api/shared"
)

type AuthService struct {
	appContext.DefaultService

	postgresSvc *PostgresService
	jwtSvc      *JWTService
}

const AUTH_SVC = "auth_svc"

func (svc AuthService) Id() string {
	return AUTH_SVC
}

func (svc *AuthService) Configure(ctx *appContext.Context) error {
	svc.postgresSvc = ctx.Service(POSTGRES_SVC).(*PostgresService)
	svc.jwtSvc = ctx.Service(JWT_SVC).(*JWTService)
	return svc.DefaultService.Configure(ctx)
}

func (svc *AuthService) Start() error {
	return nil
}

func (svc *AuthService) Register(ctx context.Context, req dto.RegisterRequest) (*dto.RegisterResponse, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, shared.NewInternalError(err, "Failed to hash password")
	}

	user := &model.User{
		Username: req.Username,
		Email:    req.Email,
		Password: string(hashed),
		IsActive: true,
	}
	if err := svc.postgresSvc.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{"user_id": user.ID, "email": user.Email}).Info("User registered")
	return &dto.RegisterResponse{UserID: user.ID, Username: user.Username}, nil
}

func (svc *AuthService) Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error) {
	user, err := svc.postgresSvc.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if shared.IsNotFound(err) {
			return nil, shared.NewUnauthorizedError(errors.New("unknown email"), "Invalid email or password")
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, shared.NewForbiddenError(errors.New("account disabled"), "Account is disabled")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, shared.NewUnauthorizedError(err, "Invalid email or password")
	}

	pair, err := svc.jwtSvc.GenerateTokenPair(user.ID)
	if err != nil {
		return nil, shared.NewInternalError(err, "Failed to issue token")
	}

	return &dto.LoginResponse{
		UserID:      user.ID,
		AccessToken: pair.AccessToken,
		ExpiresIn:   pair.ExpiresIn,
	}, nil
}

// RequiredAuth guards account-only routes such as guest data migration.
func (svc *AuthService) RequiredAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, err := svc.jwtSvc.ExtractTokenFromHeader(c.Get("Authorization"))
		if err != nil {
			return shared.NewUnauthorizedError(err, "Unauthorized")
		}

		userID, err := svc.jwtSvc.VerifyToken(token)
		if err != nil {
			return shared.NewUnauthorizedError(err, "Invalid JWT token")
		}
		if userID == "" {
			return shared.NewUnauthorizedError(errors.New("empty user id claim"), "Invalid user ID in token")
		}

		c.Locals(shared.UserID, userID)
		c.Locals(shared.IdentityKey, shared.AuthenticatedIdentity(userID))
		return c.Next()
	}
}
