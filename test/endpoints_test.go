package test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserEndpoints(t *testing.T) {
	app := newTestApp(t)

	s := signupUser(t, app, "profiled")

	t.Run("GetMe", func(t *testing.T) {
		status, raw := doJSON(t, app, http.MethodGet, "/api/users/me", s.Token, nil)
		require.Equal(t, http.StatusOK, status, "me: %s", raw)

		var me struct {
			Username string `json:"username"`
		}
		require.NoError(t, json.Unmarshal(raw, &me))
		assert.Equal(t, "profiled", me.Username)
	})

	t.Run("UpdateMe", func(t *testing.T) {
		status, raw := doJSON(t, app, http.MethodPatch, "/api/users/me", s.Token, map[string]string{
			"bio": "Updated bio",
		})
		require.Equal(t, http.StatusOK, status, "update me: %s", raw)

		var me struct {
			Bio string `json:"bio"`
		}
		require.NoError(t, json.Unmarshal(raw, &me))
		assert.Equal(t, "Updated bio", me.Bio)
	})

	t.Run("PublicProfile", func(t *testing.T) {
		status, raw := doJSON(t, app, http.MethodGet, "/api/users/profiled", "", nil)
		require.Equal(t, http.StatusOK, status, "profile: %s", raw)

		var profile struct {
			Username       string `json:"username"`
			FollowersCount int    `json:"followers_count"`
		}
		require.NoError(t, json.Unmarshal(raw, &profile))
		assert.Equal(t, "profiled", profile.Username)
		assert.Zero(t, profile.FollowersCount)
	})

	t.Run("UnknownProfile", func(t *testing.T) {
		status, _ := doJSON(t, app, http.MethodGet, "/api/users/nobodyhere", "", nil)
		assert.Equal(t, http.StatusNotFound, status)
	})

	t.Run("SearchRequiresQuery", func(t *testing.T) {
		status, _ := doJSON(t, app, http.MethodGet, "/api/users/search", "", nil)
		assert.Equal(t, http.StatusBadRequest, status)
	})

	t.Run("PromoteRequiresAdmin", func(t *testing.T) {
		other := signupUser(t, app, "plebeian")
		path := fmt.Sprintf("/api/users/%d/promote-admin", other.User.ID)
		status, _ := doJSON(t, app, http.MethodPost, path, s.Token, nil)
		assert.Equal(t, http.StatusForbidden, status)
	})
}

func TestProtectedRoutesRequireAuth(t *testing.T) {
	app := newTestApp(t)

	for _, tc := range []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/posts/"},
		{http.MethodGet, "/api/users/me"},
		{http.MethodGet, "/api/notifications/"},
		{http.MethodPost, "/api/users/1/follow"},
		{http.MethodPost, "/api/ws/ticket"},
	} {
		status, _ := doJSON(t, app, tc.method, tc.path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, status, "%s %s", tc.method, tc.path)
	}
}

func TestHealthEndpoints(t *testing.T) {
	app := newTestApp(t)

	status, raw := doJSON(t, app, http.MethodGet, "/health/live", "", nil)
	require.Equal(t, http.StatusOK, status, "live: %s", raw)

	status, raw = doJSON(t, app, http.MethodGet, "/health/ready", "", nil)
	require.Equal(t, http.StatusOK, status, "ready: %s", raw)

	var ready struct {
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(raw, &ready))
	assert.Equal(t, "healthy", ready.Status)
}
