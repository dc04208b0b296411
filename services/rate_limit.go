package services

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	appContext "github.com/alphabatem/common/context"
	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"

	"github.com/zevi-app/zevi_api/shared"
)

// RateLimitService enforces fixed-window quotas backed by Redis INCR+EXPIRE.
// The window key carries the identifier and endpoint; the first increment in
// a window sets the TTL.
type RateLimitService struct {
	appContext.DefaultService

	configs map[string]rateLimitConfig
	counter windowCounter
}

// windowCounter is the slice of the Redis surface the limiter needs.
type windowCounter interface {
	Increment(ctx context.Context, key string) (int64, error)
	Expire(ctx context.Context, key string, expiration time.Duration) error
}

type rateLimitConfig struct {
	MaxRequests int
	Window      time.Duration
	Message     string
}

const RATE_LIMIT_SVC = "rate_limit_svc"

func (svc RateLimitService) Id() string {
	return RATE_LIMIT_SVC
}

func (svc *RateLimitService) Configure(ctx *appContext.Context) error {
	svc.counter = ctx.Service(REDIS_SVC).(*RedisService)
	svc.configs = defaultRateLimitConfigs()
	return svc.DefaultService.Configure(ctx)
}

func defaultRateLimitConfigs() map[string]rateLimitConfig {
	return map[string]rateLimitConfig{
		"evaluate": {
			MaxRequests: 5,
			Window:      time.Minute,
			Message:     "You can only make 5 requests per minute. Please try again later.",
		},
		"transcribe": {
			MaxRequests: 5,
			Window:      time.Minute,
			Message:     "You can only make 5 requests per minute. Please try again later.",
		},
		"login": {
			MaxRequests: 10,
			Window:      15 * time.Minute,
			Message:     "Too many login attempts. Please try again later.",
		},
		"register": {
			MaxRequests: 5,
			Window:      15 * time.Minute,
			Message:     "Too many registration attempts. Please try again later.",
		},
	}
}

func (svc *RateLimitService) Start() error {
	return nil
}

// Allow consumes one request from the identifier's window. Returns the
// remaining quota alongside the verdict.
func (svc *RateLimitService) Allow(ctx context.Context, identifier, endpointType string) (bool, int, error) {
	config, exists := svc.configs[endpointType]
	if !exists {
		return true, -1, nil
	}

	key := fmt.Sprintf("rate_limit:%s:%s", endpointType, identifier)

	count, err := svc.counter.Increment(ctx, key)
	if err != nil {
		return false, 0, err
	}
	if count == 1 {
		if err := svc.counter.Expire(ctx, key, config.Window); err != nil {
			log.WithError(err).WithField("key", key).Warn("Failed to set rate limit window TTL")
		}
	}

	remaining := config.MaxRequests - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return count <= int64(config.MaxRequests), remaining, nil
}

// RateLimit guards an endpoint keyed by the resolved identity, falling back
// to the client IP when the route runs before identity resolution. Redis
// outages fail open: a broken limiter must not take practice down with it.
func (svc *RateLimitService) RateLimit(endpointType string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		identifier := svc.identifierFor(c)

		allowed, remaining, err := svc.Allow(c.UserContext(), identifier, endpointType)
		if err != nil {
			log.WithError(err).WithField("endpoint", endpointType).Warn("Rate limit check failed, allowing request")
			return c.Next()
		}

		c.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))

		if !allowed {
			config := svc.configs[endpointType]
			c.Set("Retry-After", strconv.Itoa(int(config.Window.Seconds())))
			return shared.NewTooManyRequestsError(
				fmt.Errorf("%s quota exhausted for %s", endpointType, identifier),
				config.Message)
		}

		return c.Next()
	}
}

func (svc *RateLimitService) identifierFor(c *fiber.Ctx) string {
	if identity, ok := c.Locals(shared.IdentityKey).(shared.Identity); ok && identity.UserID != "" {
		return identity.UserID
	}
	return clientIP(c)
}

func clientIP(c *fiber.Ctx) string {
	forwarded := c.Get("X-Forwarded-For")
	if forwarded != "" {
		ips := strings.Split(forwarded, ",")
		if ip := strings.TrimSpace(ips[0]); ip != "" {
			return ip
		}
	}

	if realIP := c.Get("X-Real-IP"); realIP != "" {
		return realIP
	}

	ip, _, err := net.SplitHostPort(c.Context().RemoteAddr().String())
	if err != nil {
		return c.Context().RemoteAddr().String()
	}
	return ip
}
