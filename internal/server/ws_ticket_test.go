package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"codefolio/internal/cache"
	"codefolio/internal/config"
	"codefolio/internal/middleware"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTicketTestServer(t *testing.T) (*Server, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := &config.Config{JWTSecret: testJWTSecret}
	return &Server{
		config: cfg,
		redis:  rdb,
		auth:   middleware.NewAuth(cfg, rdb),
	}, mr
}

func TestIssueWSTicket_StoresSingleUseTicket(t *testing.T) {
	s, mr := newTicketTestServer(t)

	app := authedApp(42)
	app.Post("/ws/ticket", s.IssueWSTicket)

	req := httptest.NewRequest(http.MethodPost, "/ws/ticket", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Ticket    string `json:"ticket"`
		ExpiresIn int    `json:"expires_in"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.NotEmpty(t, body.Ticket)
	assert.Equal(t, int(cache.WSTicketTTL.Seconds()), body.ExpiresIn)

	// The ticket maps to the issuing user and carries a TTL
	val, err := mr.Get(cache.WSTicketKey(body.Ticket))
	require.NoError(t, err)
	assert.Equal(t, strconv.Itoa(42), val)
	assert.Greater(t, mr.TTL(cache.WSTicketKey(body.Ticket)).Seconds(), 0.0)
}

func TestWSTicket_ConsumedOnFirstUse(t *testing.T) {
	s, mr := newTicketTestServer(t)

	app := fiber.New()
	app.Get("/ws", s.auth.WebSocket, func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"userID": c.Locals("userID")})
	})

	require.NoError(t, mr.Set(cache.WSTicketKey("ticket-abc"), "7"))

	// First use succeeds
	req := httptest.NewRequest(http.MethodGet, "/ws?ticket=ticket-abc", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]float64
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, float64(7), body["userID"])

	// Replay is rejected: the ticket was consumed atomically
	replay := httptest.NewRequest(http.MethodGet, "/ws?ticket=ticket-abc", nil)
	replayResp, err := app.Test(replay)
	require.NoError(t, err)
	defer func() { _ = replayResp.Body.Close() }()
	assert.Equal(t, http.StatusUnauthorized, replayResp.StatusCode)
}

func TestWSTicket_ExpiredTicketRejected(t *testing.T) {
	s, mr := newTicketTestServer(t)

	app := fiber.New()
	app.Get("/ws", s.auth.WebSocket, func(c *fiber.Ctx) error {
		return c.SendStatus(http.StatusOK)
	})

	require.NoError(t, mr.Set(cache.WSTicketKey("stale"), "7"))
	mr.SetTTL(cache.WSTicketKey("stale"), cache.WSTicketTTL)
	mr.FastForward(cache.WSTicketTTL * 2)

	req := httptest.NewRequest(http.MethodGet, "/ws?ticket=stale", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
