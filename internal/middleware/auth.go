// Package middleware provides authentication and authorization middleware for the application.
package middleware

import (
	"log/slog"
	"strconv"
	"strings"

	"codefolio/internal/cache"
	"codefolio/internal/config"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
)

// Auth validates access tokens and attaches the authenticated user ID to the
// request. The Redis client is optional; without it the JTI blacklist and
// WebSocket tickets are skipped.
type Auth struct {
	secret   []byte
	issuer   string
	audience string
	rdb      *redis.Client
}

// NewAuth builds the authentication middleware from config.
func NewAuth(cfg *config.Config, rdb *redis.Client) *Auth {
	return &Auth{
		secret:   []byte(cfg.JWTSecret),
		issuer:   "codefolio-api",
		audience: "codefolio-client",
		rdb:      rdb,
	}
}

// ParseToken validates an access token and returns the user ID and the
// token's JTI claim.
func (a *Auth) ParseToken(c *fiber.Ctx, tokenString string) (uint, string, error) {
	token, err := jwt.Parse(tokenString,
		func(token *jwt.Token) (interface{}, error) {
			return a.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(a.issuer),
		jwt.WithAudience(a.audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return 0, "", fiber.NewError(fiber.StatusUnauthorized, "Invalid or expired token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, "", fiber.NewError(fiber.StatusUnauthorized, "Invalid token claims")
	}

	// Refresh tokens carry typ=refresh and are only valid on /auth/refresh.
	if typ, _ := claims["typ"].(string); typ != "" {
		return 0, "", fiber.NewError(fiber.StatusUnauthorized, "Invalid token type")
	}

	// User ID travels in "sub" (subject claim per RFC 7519)
	subStr, ok := claims["sub"].(string)
	if !ok {
		return 0, "", fiber.NewError(fiber.StatusUnauthorized, "Invalid token subject")
	}
	userIDVal, err := strconv.ParseUint(subStr, 10, 32)
	if err != nil {
		return 0, "", fiber.NewError(fiber.StatusUnauthorized, "Invalid user ID in token")
	}

	jti, _ := claims["jti"].(string)
	if jti != "" && a.rdb != nil {
		// Logout blacklists the JTI until the token would have expired.
		exists, err := a.rdb.Exists(c.UserContext(), cache.JWTBlacklistKey(jti)).Result()
		if err != nil {
			Logger.WarnContext(c.UserContext(), "JTI blacklist check failed, allowing request",
				slog.String("error", err.Error()))
		} else if exists > 0 {
			return 0, "", fiber.NewError(fiber.StatusUnauthorized, "Token has been revoked")
		}
	}

	return uint(userIDVal), jti, nil
}

func bearerToken(c *fiber.Ctx) (string, error) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return "", fiber.NewError(fiber.StatusUnauthorized, "Authorization header required")
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", fiber.NewError(fiber.StatusUnauthorized, "Invalid authorization header format")
	}
	return parts[1], nil
}

// Required enforces authentication for protected routes.
func (a *Auth) Required(c *fiber.Ctx) error {
	tokenString, err := bearerToken(c)
	if err != nil {
		return unauthorized(c, err)
	}

	userID, jti, err := a.ParseToken(c, tokenString)
	if err != nil {
		return unauthorized(c, err)
	}

	c.Locals("userID", userID)
	c.Locals("jti", jti)
	return c.Next()
}

// Optional attaches the user ID when a valid token is present but lets
// anonymous requests through. Used by read endpoints that personalize
// output (the liked field).
func (a *Auth) Optional(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return c.Next()
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return c.Next()
	}
	if userID, jti, err := a.ParseToken(c, parts[1]); err == nil {
		c.Locals("userID", userID)
		c.Locals("jti", jti)
	}
	return c.Next()
}

// WebSocket authenticates upgrade requests. Browsers cannot set headers on
// WebSocket handshakes, so a short-lived single-use ticket in the query
// string stands in for the bearer token.
func (a *Auth) WebSocket(c *fiber.Ctx) error {
	if ticket := c.Query("ticket"); ticket != "" && a.rdb != nil {
		key := cache.WSTicketKey(ticket)
		val, err := a.rdb.GetDel(c.UserContext(), key).Result()
		if err == nil && val != "" {
			userIDVal, perr := strconv.ParseUint(val, 10, 32)
			if perr == nil {
				c.Locals("userID", uint(userIDVal))
				return c.Next()
			}
		}
		return unauthorized(c, fiber.NewError(fiber.StatusUnauthorized, "Invalid or expired ticket"))
	}

	tokenString, err := bearerToken(c)
	if err != nil {
		return unauthorized(c, err)
	}
	userID, _, err := a.ParseToken(c, tokenString)
	if err != nil {
		return unauthorized(c, err)
	}
	c.Locals("userID", userID)
	return c.Next()
}

func unauthorized(c *fiber.Ctx, err error) error {
	msg := "Unauthorized"
	if fe, ok := err.(*fiber.Error); ok {
		msg = fe.Message
	}
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"error": msg,
	})
}
