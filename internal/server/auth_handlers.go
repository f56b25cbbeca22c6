// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"codefolio/internal/cache"
	"codefolio/internal/models"
	"codefolio/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	accessTokenTTL  = 7 * 24 * time.Hour
	refreshTokenTTL = 30 * 24 * time.Hour
	resetCodeTTL    = 15 * time.Minute
)

// Signup handles POST /api/auth/signup
func (s *Server) Signup(c *fiber.Ctx) error {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body", err))
	}

	if req.Username == "" || req.Email == "" || req.Password == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Username, email, and password are required", nil))
	}

	if err := validation.ValidateUsername(req.Username); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError(err.Error(), err))
	}
	if validation.ReservedUsername(req.Username) {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Username is reserved", nil))
	}
	if err := validation.ValidateEmail(req.Email); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError(err.Error(), err))
	}
	if err := validation.ValidatePassword(req.Password); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError(err.Error(), err))
	}

	ctx := c.Context()

	existing, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}
	if existing != nil {
		return models.RespondWithError(c, fiber.StatusConflict,
			models.NewConflictError("User already exists", nil))
	}

	taken, err := s.userRepo.GetByUsername(ctx, req.Username)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}
	if taken != nil {
		return models.RespondWithError(c, fiber.StatusConflict,
			models.NewConflictError("Username already taken", nil))
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError("Failed to hash password", err))
	}

	user := &models.User{
		Username: req.Username,
		Email:    req.Email,
		Password: string(hashedPassword),
		Role:     models.RoleUser,
	}
	if createErr := s.userRepo.Create(ctx, user); createErr != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, createErr)
	}

	token, refreshToken, err := s.issueTokenPair(c, user)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError("Failed to issue tokens", err))
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"token":        token,
		"refreshToken": refreshToken,
		"user":         user,
	})
}

// Login handles POST /api/auth/login
func (s *Server) Login(c *fiber.Ctx) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body", err))
	}

	user, err := s.userRepo.GetByEmail(c.Context(), req.Email)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}
	if user == nil {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Invalid credentials", nil))
	}

	if cmpErr := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); cmpErr != nil {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Invalid credentials", nil))
	}

	token, refreshToken, err := s.issueTokenPair(c, user)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError("Failed to issue tokens", err))
	}

	return c.JSON(fiber.Map{
		"token":        token,
		"refreshToken": refreshToken,
		"user":         user,
	})
}

// Refresh handles POST /api/auth/refresh. The refresh token is a long-lived
// JWT; it must also match the single token stored on the user row, so each
// refresh rotates the session and invalidates any previously issued one.
func (s *Server) Refresh(c *fiber.Ctx) error {
	var req struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := c.BodyParser(&req); err != nil || req.RefreshToken == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Refresh token is required", err))
	}

	userID, err := s.parseRefreshToken(req.RefreshToken)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Invalid refresh token", err))
	}

	ctx := c.Context()
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return s.respondError(c, err)
	}
	if user.RefreshToken == nil || *user.RefreshToken != req.RefreshToken {
		// Replayed or superseded token. Drop the stored session entirely.
		user.RefreshToken = nil
		_ = s.userRepo.Update(ctx, user)
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Refresh token has been revoked", nil))
	}

	token, refreshToken, err := s.issueTokenPair(c, user)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError("Failed to issue tokens", err))
	}

	return c.JSON(fiber.Map{
		"token":        token,
		"refreshToken": refreshToken,
	})
}

// Logout handles POST /api/auth/logout. Blacklists the access token's JTI
// for the remainder of its lifetime and revokes the stored refresh token.
func (s *Server) Logout(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	ctx := c.Context()

	if jti, ok := c.Locals("jti").(string); ok && jti != "" && s.redis != nil {
		if err := s.redis.Set(ctx, cache.JWTBlacklistKey(jti), "1", cache.JWTBlacklistTTL).Err(); err != nil {
			slog.WarnContext(ctx, "failed to blacklist token on logout", "error", err)
		}
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return s.respondError(c, err)
	}
	user.RefreshToken = nil
	if err := s.userRepo.Update(ctx, user); err != nil {
		return s.respondError(c, err)
	}

	return c.JSON(fiber.Map{"message": "Logged out"})
}

// ForgotPassword handles POST /api/auth/forgot-password. Always responds
// with the same message so the endpoint cannot be used to probe for
// registered emails. Email delivery is out of scope; outside production the
// code is logged so developers can complete the flow.
func (s *Server) ForgotPassword(c *fiber.Ctx) error {
	var req struct {
		Email string `json:"email"`
	}
	if err := c.BodyParser(&req); err != nil || req.Email == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Email is required", err))
	}

	ctx := c.Context()
	user, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	if user != nil {
		code := uuid.New().String()
		expires := time.Now().Add(resetCodeTTL)
		user.ResetCode = &code
		user.ResetCodeExpires = &expires
		if err := s.userRepo.Update(ctx, user); err != nil {
			return s.respondError(c, err)
		}
		if s.config.Env != "production" {
			slog.InfoContext(ctx, "password reset code issued",
				"user_id", user.ID, "code", code)
		}
	}

	return c.JSON(fiber.Map{
		"message": "If that email is registered, a reset code has been sent",
	})
}

// ResetPassword handles POST /api/auth/reset-password
func (s *Server) ResetPassword(c *fiber.Ctx) error {
	var req struct {
		Email    string `json:"email"`
		Code     string `json:"code"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil || req.Email == "" || req.Code == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Email and reset code are required", err))
	}
	if err := validation.ValidatePassword(req.Password); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError(err.Error(), err))
	}

	ctx := c.Context()
	user, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}
	if user == nil || user.ResetCode == nil || *user.ResetCode != req.Code ||
		user.ResetCodeExpires == nil || time.Now().After(*user.ResetCodeExpires) {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Invalid or expired reset code", nil))
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError("Failed to hash password", err))
	}

	user.Password = string(hashedPassword)
	user.ResetCode = nil
	user.ResetCodeExpires = nil
	// Force re-login everywhere after a password reset.
	user.RefreshToken = nil
	if err := s.userRepo.Update(ctx, user); err != nil {
		return s.respondError(c, err)
	}

	return c.JSON(fiber.Map{"message": "Password has been reset"})
}

// issueTokenPair generates an access token and a rotated refresh token,
// persisting the refresh token as the user's single active session.
func (s *Server) issueTokenPair(c *fiber.Ctx, user *models.User) (string, string, error) {
	token, err := s.generateToken(user.ID, user.Username)
	if err != nil {
		return "", "", err
	}

	refreshToken, err := s.generateRefreshToken(user.ID)
	if err != nil {
		return "", "", err
	}

	user.RefreshToken = &refreshToken
	if err := s.userRepo.Update(c.Context(), user); err != nil {
		return "", "", err
	}

	return token, refreshToken, nil
}

// generateToken creates a JWT access token for the given user ID and username
func (s *Server) generateToken(userID uint, username string) (string, error) {
	if s.config.JWTSecret == "" {
		return "", fmt.Errorf("JWT secret not configured")
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub":      strconv.FormatUint(uint64(userID), 10),
		"username": username,
		"iss":      "codefolio-api",
		"aud":      "codefolio-client",
		"exp":      now.Add(accessTokenTTL).Unix(),
		"iat":      now.Unix(),
		"nbf":      now.Unix(),
		"jti":      s.generateJTI(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.JWTSecret))
}

// generateRefreshToken creates a long-lived refresh JWT. The "typ" claim
// keeps it from being accepted as an access token and vice versa.
func (s *Server) generateRefreshToken(userID uint) (string, error) {
	if s.config.JWTSecret == "" {
		return "", fmt.Errorf("JWT secret not configured")
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub": strconv.FormatUint(uint64(userID), 10),
		"typ": "refresh",
		"iss": "codefolio-api",
		"aud": "codefolio-client",
		"exp": now.Add(refreshTokenTTL).Unix(),
		"iat": now.Unix(),
		"jti": s.generateJTI(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.JWTSecret))
}

// parseRefreshToken validates a refresh JWT and returns the user ID it was
// issued for.
func (s *Server) parseRefreshToken(tokenString string) (uint, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		return []byte(s.config.JWTSecret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer("codefolio-api"),
		jwt.WithAudience("codefolio-client"),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return 0, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, fmt.Errorf("unexpected claims type")
	}
	if typ, _ := claims["typ"].(string); typ != "refresh" {
		return 0, fmt.Errorf("not a refresh token")
	}

	sub, err := claims.GetSubject()
	if err != nil {
		return 0, err
	}
	id, err := strconv.ParseUint(sub, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid subject claim")
	}

	return uint(id), nil
}

// generateJTI creates a unique JWT ID to prevent replay attacks
func (s *Server) generateJTI() string {
	return fmt.Sprintf("%d-%s", time.Now().Unix(), uuid.New().String()[:8])
}
