package service

import (
	"context"
	"errors"
	"testing"

	"codefolio/internal/models"
	"codefolio/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// postRepoStub is a stub for repository.PostRepository.
type postRepoStub struct {
	createFn         func(context.Context, *models.Post) error
	getByIDFn        func(context.Context, uint, uint) (*models.Post, error)
	getByUserIDFn    func(context.Context, uint, int, int, uint) ([]*models.Post, error)
	listFn           func(context.Context, int, int, uint, string, repository.PostFilter) ([]*models.Post, error)
	searchFn         func(context.Context, string, int, int, uint) ([]*models.Post, error)
	updateFn         func(context.Context, *models.Post) error
	deleteFn         func(context.Context, uint) error
	incrementViewsFn func(context.Context, uint) error
}

func (s *postRepoStub) Create(ctx context.Context, post *models.Post) error {
	return s.createFn(ctx, post)
}
func (s *postRepoStub) GetByID(ctx context.Context, id, currentUserID uint) (*models.Post, error) {
	return s.getByIDFn(ctx, id, currentUserID)
}
func (s *postRepoStub) GetByUserID(ctx context.Context, userID uint, limit, offset int, currentUserID uint) ([]*models.Post, error) {
	return s.getByUserIDFn(ctx, userID, limit, offset, currentUserID)
}
func (s *postRepoStub) List(ctx context.Context, limit, offset int, currentUserID uint, sort string, filter repository.PostFilter) ([]*models.Post, error) {
	return s.listFn(ctx, limit, offset, currentUserID, sort, filter)
}
func (s *postRepoStub) Search(ctx context.Context, query string, limit, offset int, currentUserID uint) ([]*models.Post, error) {
	return s.searchFn(ctx, query, limit, offset, currentUserID)
}
func (s *postRepoStub) Update(ctx context.Context, post *models.Post) error {
	return s.updateFn(ctx, post)
}
func (s *postRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}
func (s *postRepoStub) IncrementViews(ctx context.Context, id uint) error {
	return s.incrementViewsFn(ctx, id)
}

func noopPostRepo() *postRepoStub {
	return &postRepoStub{
		createFn: func(_ context.Context, p *models.Post) error { p.ID = 1; return nil },
		getByIDFn: func(_ context.Context, id, _ uint) (*models.Post, error) {
			return &models.Post{ID: id, Title: "Project", UserID: 1}, nil
		},
		getByUserIDFn: func(_ context.Context, _ uint, _, _ int, _ uint) ([]*models.Post, error) { return nil, nil },
		listFn: func(_ context.Context, _, _ int, _ uint, _ string, _ repository.PostFilter) ([]*models.Post, error) {
			return nil, nil
		},
		searchFn:         func(_ context.Context, _ string, _, _ int, _ uint) ([]*models.Post, error) { return nil, nil },
		updateFn:         func(_ context.Context, _ *models.Post) error { return nil },
		deleteFn:         func(_ context.Context, _ uint) error { return nil },
		incrementViewsFn: func(_ context.Context, _ uint) error { return nil },
	}
}

// userRepoStub is a stub for repository.UserRepository.
type userRepoStub struct {
	getByIDFn              func(context.Context, uint) (*models.User, error)
	getByIDWithPostsFn     func(context.Context, uint, int) (*models.User, error)
	getByEmailFn           func(context.Context, string) (*models.User, error)
	getByUsernameFn        func(context.Context, string) (*models.User, error)
	getProfileByUsernameFn func(context.Context, string) (*models.User, error)
	getByUsernamesFn       func(context.Context, []string) ([]models.User, error)
	createFn               func(context.Context, *models.User) error
	updateFn               func(context.Context, *models.User) error
	deleteFn               func(context.Context, uint) error
	listFn                 func(context.Context, int, int) ([]models.User, error)
	searchFn               func(context.Context, string, int, int) ([]models.User, error)
}

func (s *userRepoStub) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) GetByIDWithPosts(ctx context.Context, id uint, postLimit int) (*models.User, error) {
	return s.getByIDWithPostsFn(ctx, id, postLimit)
}
func (s *userRepoStub) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getByEmailFn(ctx, email)
}
func (s *userRepoStub) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getByUsernameFn(ctx, username)
}
func (s *userRepoStub) GetProfileByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getProfileByUsernameFn(ctx, username)
}
func (s *userRepoStub) GetByUsernames(ctx context.Context, usernames []string) ([]models.User, error) {
	return s.getByUsernamesFn(ctx, usernames)
}
func (s *userRepoStub) Create(ctx context.Context, user *models.User) error {
	return s.createFn(ctx, user)
}
func (s *userRepoStub) Update(ctx context.Context, user *models.User) error {
	return s.updateFn(ctx, user)
}
func (s *userRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}
func (s *userRepoStub) List(ctx context.Context, limit, offset int) ([]models.User, error) {
	return s.listFn(ctx, limit, offset)
}
func (s *userRepoStub) Search(ctx context.Context, query string, limit, offset int) ([]models.User, error) {
	return s.searchFn(ctx, query, limit, offset)
}

func noopUserRepo() *userRepoStub {
	return &userRepoStub{
		getByIDFn: func(_ context.Context, id uint) (*models.User, error) {
			return &models.User{ID: id, Username: "actor"}, nil
		},
		getByIDWithPostsFn: func(_ context.Context, id uint, _ int) (*models.User, error) {
			return &models.User{ID: id}, nil
		},
		getByEmailFn:           func(_ context.Context, _ string) (*models.User, error) { return nil, nil },
		getByUsernameFn:        func(_ context.Context, _ string) (*models.User, error) { return nil, nil },
		getProfileByUsernameFn: func(_ context.Context, _ string) (*models.User, error) { return nil, nil },
		getByUsernamesFn:       func(_ context.Context, _ []string) ([]models.User, error) { return nil, nil },
		createFn:               func(_ context.Context, _ *models.User) error { return nil },
		updateFn:               func(_ context.Context, _ *models.User) error { return nil },
		deleteFn:               func(_ context.Context, _ uint) error { return nil },
		listFn:                 func(_ context.Context, _, _ int) ([]models.User, error) { return nil, nil },
		searchFn:               func(_ context.Context, _ string, _, _ int) ([]models.User, error) { return nil, nil },
	}
}

// voteRepoStub is a stub for repository.VoteRepository.
type voteRepoStub struct {
	applyFn func(context.Context, uint, uint, models.VoteValue) (*models.VoteOutcome, error)
	getFn   func(context.Context, uint, uint) (models.VoteValue, error)
}

func (s *voteRepoStub) Apply(ctx context.Context, userID, postID uint, target models.VoteValue) (*models.VoteOutcome, error) {
	return s.applyFn(ctx, userID, postID, target)
}
func (s *voteRepoStub) Get(ctx context.Context, userID, postID uint) (models.VoteValue, error) {
	return s.getFn(ctx, userID, postID)
}

// commentRepoStub is a stub for repository.CommentRepository.
type commentRepoStub struct {
	createFn       func(context.Context, *models.Comment) error
	getByIDFn      func(context.Context, uint) (*models.Comment, error)
	listByPostFn   func(context.Context, uint, int, int) ([]*models.Comment, error)
	updateFn       func(context.Context, *models.Comment) error
	deleteFn       func(context.Context, uint) error
	createReplyFn  func(context.Context, *models.Reply) error
	getReplyByIDFn func(context.Context, uint) (*models.Reply, error)
	updateReplyFn  func(context.Context, *models.Reply) error
	deleteReplyFn  func(context.Context, uint) error
}

func (s *commentRepoStub) Create(ctx context.Context, comment *models.Comment) error {
	return s.createFn(ctx, comment)
}
func (s *commentRepoStub) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	return s.getByIDFn(ctx, id)
}
func (s *commentRepoStub) ListByPost(ctx context.Context, postID uint, limit, offset int) ([]*models.Comment, error) {
	return s.listByPostFn(ctx, postID, limit, offset)
}
func (s *commentRepoStub) Update(ctx context.Context, comment *models.Comment) error {
	return s.updateFn(ctx, comment)
}
func (s *commentRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}
func (s *commentRepoStub) CreateReply(ctx context.Context, reply *models.Reply) error {
	return s.createReplyFn(ctx, reply)
}
func (s *commentRepoStub) GetReplyByID(ctx context.Context, id uint) (*models.Reply, error) {
	return s.getReplyByIDFn(ctx, id)
}
func (s *commentRepoStub) UpdateReply(ctx context.Context, reply *models.Reply) error {
	return s.updateReplyFn(ctx, reply)
}
func (s *commentRepoStub) DeleteReply(ctx context.Context, id uint) error {
	return s.deleteReplyFn(ctx, id)
}

func noopCommentRepo() *commentRepoStub {
	return &commentRepoStub{
		createFn: func(_ context.Context, c *models.Comment) error { c.ID = 1; return nil },
		getByIDFn: func(_ context.Context, id uint) (*models.Comment, error) {
			return &models.Comment{ID: id, Content: "existing", UserID: 1, PostID: 1}, nil
		},
		listByPostFn:  func(_ context.Context, _ uint, _, _ int) ([]*models.Comment, error) { return nil, nil },
		updateFn:      func(_ context.Context, _ *models.Comment) error { return nil },
		deleteFn:      func(_ context.Context, _ uint) error { return nil },
		createReplyFn: func(_ context.Context, r *models.Reply) error { r.ID = 1; return nil },
		getReplyByIDFn: func(_ context.Context, id uint) (*models.Reply, error) {
			return &models.Reply{ID: id, Content: "existing", UserID: 1, CommentID: 1}, nil
		},
		updateReplyFn: func(_ context.Context, _ *models.Reply) error { return nil },
		deleteReplyFn: func(_ context.Context, _ uint) error { return nil },
	}
}

// followRepoStub is a stub for repository.FollowRepository.
type followRepoStub struct {
	followFn          func(context.Context, uint, uint) (bool, error)
	unfollowFn        func(context.Context, uint, uint) (bool, error)
	isFollowingFn     func(context.Context, uint, uint) (bool, error)
	listFollowersFn   func(context.Context, uint, int, int) ([]models.User, error)
	listFollowingFn   func(context.Context, uint, int, int) ([]models.User, error)
	listFollowerIDsFn func(context.Context, uint) ([]uint, error)
	countsFn          func(context.Context, uint) (int64, int64, error)
}

func (s *followRepoStub) Follow(ctx context.Context, followerID, followeeID uint) (bool, error) {
	return s.followFn(ctx, followerID, followeeID)
}
func (s *followRepoStub) Unfollow(ctx context.Context, followerID, followeeID uint) (bool, error) {
	return s.unfollowFn(ctx, followerID, followeeID)
}
func (s *followRepoStub) IsFollowing(ctx context.Context, followerID, followeeID uint) (bool, error) {
	return s.isFollowingFn(ctx, followerID, followeeID)
}
func (s *followRepoStub) ListFollowers(ctx context.Context, userID uint, limit, offset int) ([]models.User, error) {
	return s.listFollowersFn(ctx, userID, limit, offset)
}
func (s *followRepoStub) ListFollowing(ctx context.Context, userID uint, limit, offset int) ([]models.User, error) {
	return s.listFollowingFn(ctx, userID, limit, offset)
}
func (s *followRepoStub) ListFollowerIDs(ctx context.Context, userID uint) ([]uint, error) {
	return s.listFollowerIDsFn(ctx, userID)
}
func (s *followRepoStub) Counts(ctx context.Context, userID uint) (int64, int64, error) {
	return s.countsFn(ctx, userID)
}

func noopFollowRepo() *followRepoStub {
	return &followRepoStub{
		followFn:          func(_ context.Context, _, _ uint) (bool, error) { return true, nil },
		unfollowFn:        func(_ context.Context, _, _ uint) (bool, error) { return true, nil },
		isFollowingFn:     func(_ context.Context, _, _ uint) (bool, error) { return false, nil },
		listFollowersFn:   func(_ context.Context, _ uint, _, _ int) ([]models.User, error) { return nil, nil },
		listFollowingFn:   func(_ context.Context, _ uint, _, _ int) ([]models.User, error) { return nil, nil },
		listFollowerIDsFn: func(_ context.Context, _ uint) ([]uint, error) { return nil, nil },
		countsFn:          func(_ context.Context, _ uint) (int64, int64, error) { return 0, 0, nil },
	}
}

// recordingNotificationRepo captures everything written through it.
type recordingNotificationRepo struct {
	created []models.Notification
	err     error
}

func (s *recordingNotificationRepo) Create(_ context.Context, n *models.Notification) error {
	if s.err != nil {
		return s.err
	}
	n.ID = uint(len(s.created) + 1)
	s.created = append(s.created, *n)
	return nil
}
func (s *recordingNotificationRepo) CreateBatch(_ context.Context, batch []models.Notification) error {
	if s.err != nil {
		return s.err
	}
	s.created = append(s.created, batch...)
	return nil
}
func (s *recordingNotificationRepo) ListByRecipient(_ context.Context, recipientID uint, _, _ int) ([]*models.Notification, error) {
	var out []*models.Notification
	for i := range s.created {
		if s.created[i].RecipientID == recipientID {
			out = append(out, &s.created[i])
		}
	}
	return out, nil
}
func (s *recordingNotificationRepo) UnreadCount(_ context.Context, recipientID uint) (int64, error) {
	var n int64
	for i := range s.created {
		if s.created[i].RecipientID == recipientID && !s.created[i].Read {
			n++
		}
	}
	return n, nil
}
func (s *recordingNotificationRepo) MarkRead(_ context.Context, _, _ uint) error    { return nil }
func (s *recordingNotificationRepo) MarkAllRead(_ context.Context, _ uint) error    { return nil }
func (s *recordingNotificationRepo) Delete(_ context.Context, _, _ uint) error      { return nil }
func (s *recordingNotificationRepo) DeleteAll(_ context.Context, _ uint) error      { return nil }

// publisherStub records pub/sub payloads per user.
type publisherStub struct {
	published map[uint]int
	err       error
}

func (s *publisherStub) PublishUser(_ context.Context, userID uint, _ []byte) error {
	if s.err != nil {
		return s.err
	}
	if s.published == nil {
		s.published = map[uint]int{}
	}
	s.published[userID]++
	return nil
}

// newTestNotificationService wires a NotificationService over recording stubs.
func newTestNotificationService(users *userRepoStub, follows *followRepoStub) (*NotificationService, *recordingNotificationRepo) {
	repo := &recordingNotificationRepo{}
	if users == nil {
		users = noopUserRepo()
	}
	if follows == nil {
		follows = noopFollowRepo()
	}
	return NewNotificationService(repo, users, follows, nil), repo
}

// assertValidationError asserts that err is an AppError with code VALIDATION_ERROR.
func assertValidationError(t *testing.T, err error) {
	t.Helper()
	assertAppErrorCode(t, err, "VALIDATION_ERROR")
}

// assertForbiddenError asserts that err is an AppError with code FORBIDDEN.
func assertForbiddenError(t *testing.T, err error) {
	t.Helper()
	assertAppErrorCode(t, err, "FORBIDDEN")
}

func assertAppErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
}
