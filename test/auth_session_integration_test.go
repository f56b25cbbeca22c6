package test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRefreshRotationAndReplay(t *testing.T) {
	app := newTestApp(t)

	first := signupUser(t, app, "sessioned")

	// Rotate: the old refresh token is superseded by the new one.
	status, raw := doJSON(t, app, http.MethodPost, "/api/auth/refresh", "", map[string]string{
		"refreshToken": first.RefreshToken,
	})
	require.Equal(t, http.StatusOK, status, "refresh: %s", raw)

	var rotated session
	require.NoError(t, json.Unmarshal(raw, &rotated))
	require.NotEmpty(t, rotated.RefreshToken)
	assert.NotEqual(t, first.RefreshToken, rotated.RefreshToken)

	// Replaying the superseded token fails and revokes the whole session.
	status, _ = doJSON(t, app, http.MethodPost, "/api/auth/refresh", "", map[string]string{
		"refreshToken": first.RefreshToken,
	})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = doJSON(t, app, http.MethodPost, "/api/auth/refresh", "", map[string]string{
		"refreshToken": rotated.RefreshToken,
	})
	assert.Equal(t, http.StatusUnauthorized, status, "session must be revoked after replay")
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	app := newTestApp(t)

	s := signupUser(t, app, "mixedup")

	status, _ := doJSON(t, app, http.MethodPost, "/api/auth/refresh", "", map[string]string{
		"refreshToken": s.Token,
	})
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestLogoutRevokesAccessToken(t *testing.T) {
	app := newTestApp(t)

	s := signupUser(t, app, "leaver")

	status, _ := doJSON(t, app, http.MethodGet, "/api/users/me", s.Token, nil)
	require.Equal(t, http.StatusOK, status)

	status, raw := doJSON(t, app, http.MethodPost, "/api/auth/logout", s.Token, nil)
	require.Equal(t, http.StatusOK, status, "logout: %s", raw)

	status, _ = doJSON(t, app, http.MethodGet, "/api/users/me", s.Token, nil)
	assert.Equal(t, http.StatusUnauthorized, status, "blacklisted token must be rejected")

	// The stored refresh token was cleared too.
	status, _ = doJSON(t, app, http.MethodPost, "/api/auth/refresh", "", map[string]string{
		"refreshToken": s.RefreshToken,
	})
	assert.Equal(t, http.StatusUnauthorized, status)
}
