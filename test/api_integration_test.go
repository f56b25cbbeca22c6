package test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignupAndLogin(t *testing.T) {
	app := newTestApp(t)

	signupUser(t, app, "freshuser")

	status, raw := doJSON(t, app, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "freshuser@example.com",
		"password": "TestPass123!@#",
	})
	require.Equal(t, http.StatusOK, status, "login: %s", raw)

	var login session
	require.NoError(t, json.Unmarshal(raw, &login))
	assert.NotEmpty(t, login.Token)
	assert.Equal(t, "freshuser", login.User.Username)
}

func TestFullAPIFlow(t *testing.T) {
	app := newTestApp(t)

	author := signupUser(t, app, "ada")
	reader := signupUser(t, app, "grace")

	// Author publishes a project.
	status, raw := doJSON(t, app, http.MethodPost, "/api/posts/", author.Token, map[string]interface{}{
		"title":       "Terminal portfolio",
		"description": "A portfolio that renders in the terminal",
		"content":     "Built with ANSI escape codes and a lot of patience.",
		"type":        "Web Development",
		"tags":        []string{"go", "cli"},
	})
	require.Equal(t, http.StatusCreated, status, "create post: %s", raw)

	var post struct {
		ID     uint `json:"id"`
		Views  int  `json:"views"`
		Author struct {
			ID uint `json:"id"`
		} `json:"author"`
	}
	require.NoError(t, json.Unmarshal(raw, &post))
	require.NotZero(t, post.ID)
	assert.Equal(t, author.User.ID, post.Author.ID)

	postPath := fmt.Sprintf("/api/posts/%d", post.ID)

	// Anonymous read counts a view.
	status, raw = doJSON(t, app, http.MethodGet, postPath, "", nil)
	require.Equal(t, http.StatusOK, status, "get post: %s", raw)
	var viewed struct {
		Views int   `json:"views"`
		Liked *bool `json:"liked"`
	}
	require.NoError(t, json.Unmarshal(raw, &viewed))
	assert.Equal(t, 1, viewed.Views)
	assert.Nil(t, viewed.Liked)

	// Reader comments.
	status, raw = doJSON(t, app, http.MethodPost, postPath+"/comments", reader.Token, map[string]string{
		"content": "Love the ANSI art touch.",
	})
	require.Equal(t, http.StatusCreated, status, "create comment: %s", raw)
	var comment struct {
		ID uint `json:"id"`
	}
	require.NoError(t, json.Unmarshal(raw, &comment))

	// Author replies to the comment.
	replyPath := fmt.Sprintf("%s/comments/%d/replies", postPath, comment.ID)
	status, raw = doJSON(t, app, http.MethodPost, replyPath, author.Token, map[string]string{
		"content": "Thanks! The cursor handling was the hard part.",
	})
	require.Equal(t, http.StatusCreated, status, "create reply: %s", raw)

	// Reader upvotes; the ledger reports the new state.
	status, raw = doJSON(t, app, http.MethodPost, postPath+"/upvote", reader.Token, nil)
	require.Equal(t, http.StatusOK, status, "upvote: %s", raw)
	var outcome struct {
		Upvotes   int   `json:"upvotes"`
		Downvotes int   `json:"downvotes"`
		Liked     *bool `json:"liked"`
	}
	require.NoError(t, json.Unmarshal(raw, &outcome))
	assert.Equal(t, 1, outcome.Upvotes)
	require.NotNil(t, outcome.Liked)
	assert.True(t, *outcome.Liked)

	// Same direction again withdraws the vote.
	status, raw = doJSON(t, app, http.MethodPost, postPath+"/upvote", reader.Token, nil)
	require.Equal(t, http.StatusOK, status, "toggle upvote: %s", raw)
	require.NoError(t, json.Unmarshal(raw, &outcome))
	assert.Equal(t, 0, outcome.Upvotes)
	assert.Nil(t, outcome.Liked)

	// Reader follows the author.
	followPath := fmt.Sprintf("/api/users/%d/follow", author.User.ID)
	status, raw = doJSON(t, app, http.MethodPost, followPath, reader.Token, nil)
	require.Equal(t, http.StatusOK, status, "follow: %s", raw)

	status, raw = doJSON(t, app, http.MethodGet, fmt.Sprintf("/api/users/%d/followers", author.User.ID), "", nil)
	require.Equal(t, http.StatusOK, status, "followers: %s", raw)
	var followers []struct {
		Username string `json:"username"`
	}
	require.NoError(t, json.Unmarshal(raw, &followers))
	require.Len(t, followers, 1)
	assert.Equal(t, "grace", followers[0].Username)

	// Author's inbox: comment, upvote, follow.
	status, raw = doJSON(t, app, http.MethodGet, "/api/notifications/unread-count", author.Token, nil)
	require.Equal(t, http.StatusOK, status)
	var unread struct {
		Count int64 `json:"count"`
	}
	require.NoError(t, json.Unmarshal(raw, &unread))
	assert.Equal(t, int64(3), unread.Count)

	status, _ = doJSON(t, app, http.MethodPatch, "/api/notifications/read-all", author.Token, nil)
	require.Equal(t, http.StatusOK, status)

	status, raw = doJSON(t, app, http.MethodGet, "/api/notifications/unread-count", author.Token, nil)
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(raw, &unread))
	assert.Equal(t, int64(0), unread.Count)

	// Deleting the post cascades its comment tree, ledger, and the
	// notifications pointing at it. The follow notification survives.
	status, raw = doJSON(t, app, http.MethodDelete, postPath, author.Token, nil)
	require.Equal(t, http.StatusOK, status, "delete post: %s", raw)

	status, _ = doJSON(t, app, http.MethodGet, postPath, "", nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, raw = doJSON(t, app, http.MethodGet, "/api/notifications/", author.Token, nil)
	require.Equal(t, http.StatusOK, status)
	var remaining []struct {
		Type string `json:"type"`
	}
	require.NoError(t, json.Unmarshal(raw, &remaining))
	require.Len(t, remaining, 1)
	assert.Equal(t, "follow", remaining[0].Type)
}

func TestOwnershipEnforced(t *testing.T) {
	app := newTestApp(t)

	owner := signupUser(t, app, "owner")
	intruder := signupUser(t, app, "intruder")

	status, raw := doJSON(t, app, http.MethodPost, "/api/posts/", owner.Token, map[string]interface{}{
		"title":   "Mine",
		"content": "Only I can change this.",
		"type":    "Other",
	})
	require.Equal(t, http.StatusCreated, status, "create post: %s", raw)
	var post struct {
		ID uint `json:"id"`
	}
	require.NoError(t, json.Unmarshal(raw, &post))

	postPath := fmt.Sprintf("/api/posts/%d", post.ID)

	status, _ = doJSON(t, app, http.MethodPatch, postPath, intruder.Token, map[string]string{
		"title": "Hijacked",
	})
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = doJSON(t, app, http.MethodDelete, postPath, intruder.Token, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = doJSON(t, app, http.MethodDelete, postPath, owner.Token, nil)
	assert.Equal(t, http.StatusOK, status)
}
