package service

import (
	"context"
	"strings"
	"testing"

	"codefolio/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserService_UpdateProfile_Validation(t *testing.T) {
	cases := []struct {
		name  string
		input UpdateProfileInput
	}{
		{"username too long", UpdateProfileInput{UserID: 1, Username: strings.Repeat("x", 31)}},
		{"username bad chars", UpdateProfileInput{UserID: 1, Username: "no spaces!"}},
		{"first name too long", UpdateProfileInput{UserID: 1, FirstName: strings.Repeat("a", 51)}},
		{"last name too long", UpdateProfileInput{UserID: 1, LastName: strings.Repeat("a", 51)}},
		{"bio too long", UpdateProfileInput{UserID: 1, Bio: strings.Repeat("b", 501)}},
		{"avatar not a url", UpdateProfileInput{UserID: 1, Avatar: "not-a-url"}},
		{"github url wrong scheme", UpdateProfileInput{UserID: 1, GithubURL: "ftp://github.com/me"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := NewUserService(noopUserRepo())
			_, err := svc.UpdateProfile(context.Background(), tc.input)
			assertValidationError(t, err)
		})
	}
}

func TestUserService_UpdateProfile_PatchesOnlyProvidedFields(t *testing.T) {
	repo := noopUserRepo()
	repo.getByIDFn = func(_ context.Context, id uint) (*models.User, error) {
		return &models.User{ID: id, Username: "original", FirstName: "Ada", Bio: "keep me"}, nil
	}
	var saved *models.User
	repo.updateFn = func(_ context.Context, u *models.User) error { saved = u; return nil }
	svc := NewUserService(repo)

	updated, err := svc.UpdateProfile(context.Background(), UpdateProfileInput{
		UserID:    1,
		FirstName: "Grace",
		GithubURL: "https://github.com/grace",
	})
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, "original", updated.Username)
	assert.Equal(t, "Grace", updated.FirstName)
	assert.Equal(t, "keep me", updated.Bio)
	assert.Equal(t, "https://github.com/grace", updated.GithubURL)
}

func TestUserService_UpdateProfile_SameUsernameSkipsValidation(t *testing.T) {
	repo := noopUserRepo()
	repo.getByIDFn = func(_ context.Context, id uint) (*models.User, error) {
		return &models.User{ID: id, Username: "actor"}, nil
	}
	svc := NewUserService(repo)

	updated, err := svc.UpdateProfile(context.Background(), UpdateProfileInput{UserID: 1, Username: "actor"})
	require.NoError(t, err)
	assert.Equal(t, "actor", updated.Username)
}

func TestUserService_SearchUsers_RequiresQuery(t *testing.T) {
	svc := NewUserService(noopUserRepo())

	_, err := svc.SearchUsers(context.Background(), "   ", 20, 0)
	assertValidationError(t, err)
}

func TestUserService_SetRole(t *testing.T) {
	repo := noopUserRepo()
	var saved *models.User
	repo.updateFn = func(_ context.Context, u *models.User) error { saved = u; return nil }
	svc := NewUserService(repo)

	user, err := svc.SetRole(context.Background(), 2, models.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, user.Role)
	require.NotNil(t, saved)
	assert.Equal(t, models.RoleAdmin, saved.Role)

	_, err = svc.SetRole(context.Background(), 2, models.UserRole("owner"))
	assertValidationError(t, err)
}

func TestUserService_DeleteAccount(t *testing.T) {
	repo := noopUserRepo()
	var deleted uint
	repo.deleteFn = func(_ context.Context, id uint) error { deleted = id; return nil }
	svc := NewUserService(repo)

	require.NoError(t, svc.DeleteAccount(context.Background(), 7))
	assert.Equal(t, uint(7), deleted)
}
