package test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"codefolio/internal/config"
	"codefolio/internal/database"
	"codefolio/internal/server"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestApp wires the full API over an in-memory SQLite database and a
// miniredis instance, so end-to-end flows run without external services.
func newTestApp(t *testing.T) *fiber.App {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(database.PersistentModels()...); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := &config.Config{
		JWTSecret: "integration-test-secret-0123456789abcdef",
		Port:      "0",
		Env:       "test",
	}

	srv, err := server.NewServerWithDeps(cfg, db, rdb)
	if err != nil {
		t.Fatalf("build server: %v", err)
	}

	app := fiber.New()
	srv.SetupMiddleware(app)
	srv.SetupRoutes(app)
	return app
}

// doJSON performs one request against the app and returns the status code
// and raw body. An empty token skips the Authorization header.
func doJSON(t *testing.T, app *fiber.App, method, path, token string, body interface{}) (int, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(b)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	res, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer func() { _ = res.Body.Close() }()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return res.StatusCode, raw
}

type session struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
	User         struct {
		ID       uint   `json:"id"`
		Username string `json:"username"`
		Email    string `json:"email"`
	} `json:"user"`
}

// signupUser registers a fresh account and returns its session.
func signupUser(t *testing.T, app *fiber.App, username string) session {
	t.Helper()

	status, raw := doJSON(t, app, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"username": username,
		"email":    fmt.Sprintf("%s@example.com", username),
		"password": "TestPass123!@#",
	})
	if status != http.StatusCreated {
		t.Fatalf("signup %s: expected 201, got %d: %s", username, status, raw)
	}

	var s session
	if err := json.Unmarshal(raw, &s); err != nil {
		t.Fatalf("decode signup response: %v", err)
	}
	if s.Token == "" || s.RefreshToken == "" {
		t.Fatalf("signup response missing tokens: %s", raw)
	}
	return s
}
