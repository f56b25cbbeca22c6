package repository

import (
	"context"
	"strings"

	"codefolio/internal/cache"
	"codefolio/internal/models"
	"codefolio/internal/observability"

	"gorm.io/gorm"
)

// PostFilter narrows List results. Zero values mean "no filter".
type PostFilter struct {
	Type   string
	Tag    string
	UserID uint
}

// PostRepository defines the interface for post data operations.
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uint, currentUserID uint) (*models.Post, error)
	GetByUserID(ctx context.Context, userID uint, limit, offset int, currentUserID uint) ([]*models.Post, error)
	List(ctx context.Context, limit, offset int, currentUserID uint, sort string, filter PostFilter) ([]*models.Post, error)
	Search(ctx context.Context, query string, limit, offset int, currentUserID uint) ([]*models.Post, error)
	Update(ctx context.Context, post *models.Post) error
	Delete(ctx context.Context, id uint) error
	IncrementViews(ctx context.Context, id uint) error
}

type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository.
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	err := r.db.WithContext(ctx).Create(post).Error
	if err != nil {
		return models.NewInternalError("Failed to create post", err)
	}
	cache.InvalidatePostsList(ctx)
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id uint, currentUserID uint) (*models.Post, error) {
	done := observability.TrackQuery("select", "posts")
	defer done()

	var post models.Post
	key := cache.PostKey(id)

	var err error
	if currentUserID == 0 {
		err = cache.Aside(ctx, key, &post, cache.PostTTL, func() error {
			return r.applyPostDetails(readDB(r.db).WithContext(ctx), 0).
				Preload("User").
				First(&post, id).Error
		})
	} else {
		err = r.applyPostDetails(readDB(r.db).WithContext(ctx), currentUserID).
			Preload("User").
			First(&post, id).Error
	}
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, models.NewNotFoundError("Post not found", err)
		}
		return nil, models.NewInternalError("Failed to get post", err)
	}

	post.SyncLiked()
	return &post, nil
}

func (r *postRepository) GetByUserID(ctx context.Context, userID uint, limit, offset int, currentUserID uint) ([]*models.Post, error) {
	var posts []*models.Post
	err := r.applyPostDetails(readDB(r.db).WithContext(ctx), currentUserID).
		Preload("User").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&posts).Error
	if err != nil {
		return nil, models.NewInternalError("Failed to list posts", err)
	}
	syncLiked(posts)
	return posts, nil
}

func (r *postRepository) List(ctx context.Context, limit, offset int, currentUserID uint, sort string, filter PostFilter) ([]*models.Post, error) {
	done := observability.TrackQuery("select", "posts")
	defer done()

	// The anonymous default feed is the hottest path, so only that shape
	// goes through the cache.
	cacheable := currentUserID == 0 && sort == "" && filter == (PostFilter{})

	var posts []*models.Post
	fill := func() error {
		base := r.applyPostDetails(readDB(r.db).WithContext(ctx), currentUserID)
		base = r.applyFilter(base, filter)
		return r.applySort(base, sort).
			Preload("User").
			Limit(limit).
			Offset(offset).
			Find(&posts).Error
	}

	var err error
	if cacheable {
		err = cache.Aside(ctx, cache.PostsListKey(limit, offset), &posts, cache.ListTTL, fill)
	} else {
		err = fill()
	}
	if err != nil {
		return nil, models.NewInternalError("Failed to list posts", err)
	}
	syncLiked(posts)
	return posts, nil
}

func (r *postRepository) applyFilter(db *gorm.DB, filter PostFilter) *gorm.DB {
	if filter.Type != "" {
		db = db.Where("posts.type = ?", filter.Type)
	}
	if filter.Tag != "" {
		// Tags are stored JSON-serialized, so match the quoted element.
		db = db.Where("posts.tags LIKE ?", `%"`+strings.ToLower(filter.Tag)+`"%`)
	}
	if filter.UserID != 0 {
		db = db.Where("posts.user_id = ?", filter.UserID)
	}
	return db
}

// applySort appends the ORDER BY (and optional WHERE) clause for the requested
// sort type. upvotes, downvotes and comments_count are SELECT aliases from
// applyPostDetails; PostgreSQL allows referencing them in ORDER BY within the
// same query level.
func (r *postRepository) applySort(db *gorm.DB, sort string) *gorm.DB {
	switch sort {
	case "hot":
		return db.Order(gorm.Expr(
			"(posts.upvotes - posts.downvotes + comments_count * 2.0) / POWER(EXTRACT(EPOCH FROM (NOW() - posts.created_at)) / 3600.0 + 2, 1.5) DESC",
		))
	case "top":
		return db.Order("(posts.upvotes - posts.downvotes) DESC, created_at DESC")
	case "rising":
		return db.
			Where("posts.created_at > NOW() - INTERVAL '48 hours'").
			Order("(posts.upvotes - posts.downvotes + comments_count * 2) DESC")
	default: // "new" and anything unrecognized
		return db.Order("created_at DESC")
	}
}

func (r *postRepository) Search(ctx context.Context, query string, limit, offset int, currentUserID uint) ([]*models.Post, error) {
	var posts []*models.Post
	like := "%" + strings.ToLower(query) + "%"
	err := r.applyPostDetails(readDB(r.db).WithContext(ctx), currentUserID).
		Preload("User").
		Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ? OR LOWER(content) LIKE ?", like, like, like).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&posts).Error
	if err != nil {
		return nil, models.NewInternalError("Failed to search posts", err)
	}
	syncLiked(posts)
	return posts, nil
}

// applyPostDetails adds subqueries to fetch the comment count and the current
// user's vote in a single query.
func (r *postRepository) applyPostDetails(db *gorm.DB, currentUserID uint) *gorm.DB {
	selectQuery := "posts.*, " +
		"(SELECT COUNT(*) FROM comments WHERE comments.post_id = posts.id AND comments.deleted_at IS NULL) as comments_count"

	if currentUserID != 0 {
		return db.Select(selectQuery+
			", COALESCE((SELECT votes.value FROM votes WHERE votes.post_id = posts.id AND votes.user_id = ?), '') as user_vote",
			currentUserID)
	}
	return db.Select(selectQuery + ", '' as user_vote")
}

func (r *postRepository) Update(ctx context.Context, post *models.Post) error {
	if err := r.db.WithContext(ctx).Save(post).Error; err != nil {
		return models.NewInternalError("Failed to update post", err)
	}
	cache.Invalidate(ctx, cache.PostKey(post.ID))
	cache.InvalidatePostsList(ctx)
	return nil
}

// Delete loads the post first so its cascade hook sees the real row.
func (r *postRepository) Delete(ctx context.Context, id uint) error {
	var post models.Post
	if err := r.db.WithContext(ctx).First(&post, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return models.NewNotFoundError("Post not found", err)
		}
		return models.NewInternalError("Failed to load post", err)
	}
	if err := r.db.WithContext(ctx).Delete(&post).Error; err != nil {
		return models.NewInternalError("Failed to delete post", err)
	}
	cache.Invalidate(ctx, cache.PostKey(id))
	cache.InvalidatePostsList(ctx)
	return nil
}

func (r *postRepository) IncrementViews(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).
		Model(&models.Post{}).
		Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("views + 1")).Error
	if err != nil {
		return models.NewInternalError("Failed to count view", err)
	}
	return nil
}

func syncLiked(posts []*models.Post) {
	for _, p := range posts {
		p.SyncLiked()
	}
}
