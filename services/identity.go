package services

import (
	"github.com/alphabatem/common/context"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/zevi-app/zevi_api/shared"
)

// IdentityService resolves every request to either a guest pseudonymous
// identity or an authenticated account before any practice handler runs.
// Authenticated always wins: a valid bearer token shadows any guest header
// sent alongside it.
type IdentityService struct {
	context.DefaultService

	jwtSvc *JWTService
}

const IDENTITY_SVC = "identity_svc"

func (svc IdentityService) Id() string {
	return IDENTITY_SVC
}

func (svc *IdentityService) Configure(ctx *context.Context) error {
	svc.jwtSvc = ctx.Service(JWT_SVC).(*JWTService)
	return svc.DefaultService.Configure(ctx)
}

func (svc *IdentityService) Start() error {
	return nil
}

// Resolve builds the request identity from headers. Guest ids must be client
// generated v4 UUIDs; anything else is rejected rather than silently accepted
// as a new namespace.
func (svc *IdentityService) Resolve(authHeader, guestHeader string) (shared.Identity, error) {
	if authHeader != "" {
		token, err := svc.jwtSvc.ExtractTokenFromHeader(authHeader)
		if err != nil {
			return shared.Identity{}, shared.NewUnauthorizedError(err, "Invalid authorization header")
		}
		userID, err := svc.jwtSvc.VerifyToken(token)
		if err != nil {
			return shared.Identity{}, shared.NewUnauthorizedError(err, "Invalid JWT token")
		}
		return shared.AuthenticatedIdentity(userID), nil
	}

	if guestHeader != "" {
		id, err := uuid.Parse(guestHeader)
		if err != nil || id.Version() != 4 {
			return shared.Identity{}, shared.NewUnauthorizedError(err, "Guest id must be a v4 UUID")
		}
		return shared.GuestIdentity(id.String()), nil
	}

	return shared.Identity{}, shared.NewUnauthorizedError(nil, "Missing credentials: provide a bearer token or X-Guest-ID header")
}

// RequireIdentity is the fiber middleware for routes open to both guests and
// accounts. The resolved identity lands in c.Locals under shared.IdentityKey.
func (svc *IdentityService) RequireIdentity() fiber.Handler {
	return func(c *fiber.Ctx) error {
		identity, err := svc.Resolve(c.Get("Authorization"), c.Get("X-Guest-ID"))
		if err != nil {
			return err
		}
		c.Locals(shared.IdentityKey, identity)
		return c.Next()
	}
}
