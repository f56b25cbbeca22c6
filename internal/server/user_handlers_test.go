package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"codefolio/internal/models"
	"codefolio/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newUserTestServer(repo *MockUserRepository) *Server {
	return &Server{userService: service.NewUserService(repo)}
}

func TestGetUserProfile(t *testing.T) {
	tests := []struct {
		name           string
		username       string
		mockSetup      func(repo *MockUserRepository)
		expectedStatus int
	}{
		{
			name:     "Success",
			username: "testuser",
			mockSetup: func(repo *MockUserRepository) {
				repo.On("GetProfileByUsername", mock.Anything, "testuser").Return(
					&models.User{ID: 1, Username: "testuser", FollowersCount: 3}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:     "Not Found",
			username: "ghost",
			mockSetup: func(repo *MockUserRepository) {
				repo.On("GetProfileByUsername", mock.Anything, "ghost").Return(
					nil, models.NewNotFoundError("User not found", nil))
			},
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockUserRepository)
			tt.mockSetup(repo)
			s := newUserTestServer(repo)

			app := fiber.New()
			app.Get("/users/:username", s.GetUserProfile)

			req := httptest.NewRequest(http.MethodGet, "/users/"+tt.username, nil)
			resp, err := app.Test(req)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)
			repo.AssertExpectations(t)
		})
	}
}

func TestGetMyProfile(t *testing.T) {
	repo := new(MockUserRepository)
	repo.On("GetByID", mock.Anything, uint(1)).Return(&models.User{ID: 1, Username: "me"}, nil)
	s := newUserTestServer(repo)

	app := authedApp(1)
	app.Get("/users/me", s.GetMyProfile)

	req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	repo.AssertExpectations(t)
}

func TestSearchUsers_RequiresQuery(t *testing.T) {
	repo := new(MockUserRepository)
	s := newUserTestServer(repo)

	app := fiber.New()
	app.Get("/users/search", s.SearchUsers)

	req := httptest.NewRequest(http.MethodGet, "/users/search", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPromoteToAdmin(t *testing.T) {
	repo := new(MockUserRepository)
	target := &models.User{ID: 2, Username: "bob", Role: models.RoleUser}
	repo.On("GetByID", mock.Anything, uint(2)).Return(target, nil)
	repo.On("Update", mock.Anything, mock.Anything).Return(nil)
	s := newUserTestServer(repo)

	app := authedApp(1)
	app.Post("/users/:id/promote-admin", s.PromoteToAdmin)

	req := httptest.NewRequest(http.MethodPost, "/users/2/promote-admin", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, models.RoleAdmin, target.Role)
	repo.AssertExpectations(t)
}

func TestPromoteToAdmin_SelfRejected(t *testing.T) {
	repo := new(MockUserRepository)
	s := newUserTestServer(repo)

	app := authedApp(2)
	app.Post("/users/:id/promote-admin", s.PromoteToAdmin)

	req := httptest.NewRequest(http.MethodPost, "/users/2/promote-admin", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDeleteMyAccount(t *testing.T) {
	repo := new(MockUserRepository)
	repo.On("Delete", mock.Anything, uint(1)).Return(nil)
	s := newUserTestServer(repo)

	app := authedApp(1)
	app.Delete("/users/me", s.DeleteMyAccount)

	req := httptest.NewRequest(http.MethodDelete, "/users/me", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	repo.AssertExpectations(t)
}
