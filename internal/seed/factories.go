// Package seed provides helpers to create test and demo data for the
// application database. These helpers are intended for development and
// testing only.
package seed

import (
	"fmt"
	"log"
	"math/rand"
	"strings"
	"time"

	"codefolio/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Per-category tag pools. Tags match the API's lowercase-with-hyphens rule.
var tagPools = map[models.PostType][]string{
	models.PostTypeWebDevelopment:  {"react", "vue", "typescript", "css", "nextjs", "tailwind", "svelte"},
	models.PostTypeMobileApp:       {"flutter", "swift", "kotlin", "react-native", "ios", "android"},
	models.PostTypeAPIDevelopment:  {"go", "rest", "graphql", "grpc", "postgres", "redis", "docker"},
	models.PostTypeGame:            {"unity", "godot", "webgl", "pixel-art", "multiplayer"},
	models.PostTypeDesign:          {"figma", "ui", "ux", "design-system", "branding"},
	models.PostTypeDataScience:     {"python", "pandas", "jupyter", "visualization", "sql"},
	models.PostTypeMachineLearning: {"pytorch", "tensorflow", "nlp", "computer-vision", "llm"},
	models.PostTypeDevOps:          {"kubernetes", "terraform", "ci-cd", "aws", "observability"},
	models.PostTypeOther:           {"cli", "open-source", "rust", "embedded", "side-project"},
}

// Factory builds domain entities and persists them to the database.
// It is a thin helper used by seed presets and tests.
type Factory struct {
	db   *gorm.DB
	opts Options
	rng  *rand.Rand
	// synthetic ID counter when running in DryRun mode
	nextID uint
}

// NewFactory creates a new Factory bound to the provided Gorm DB.
func NewFactory(db *gorm.DB, opts Options) *Factory {
	// seed gofakeit for richer content
	gofakeit.Seed(time.Now().UnixNano())
	//nolint:gosec // Weak random number generator is fine for seeding
	return &Factory{
		db:     db,
		opts:   opts,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
		nextID: 1000,
	}
}

// CreateUser constructs and persists a sample `models.User`.
// Optional override functions may modify the generated user before saving.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	username := strings.ToLower(gofakeit.Username()) + fmt.Sprintf("%d", gofakeit.Number(100, 999))
	user := &models.User{
		Username:  username,
		Email:     gofakeit.Email(),
		FirstName: gofakeit.FirstName(),
		LastName:  gofakeit.LastName(),
		Bio:       gofakeit.Sentence(10),
		Avatar:    fmt.Sprintf("https://i.pravatar.cc/150?u=%s", gofakeit.UUID()),
		GithubURL: fmt.Sprintf("https://github.com/%s", username),
	}

	// Password handling: allow skipping bcrypt in dev fast mode
	if f.opts.SkipBcrypt {
		user.Password = "password123"
	} else {
		hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
		user.Password = string(hashedPassword)
	}

	for _, override := range overrides {
		override(user)
	}

	if f.opts.DryRun {
		f.nextID++
		user.ID = f.nextID
		log.Printf("[dry-run] CreateUser: %s", user.Username)
		return user, nil
	}

	if err := f.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// BuildPost constructs a post of the given category without persisting it.
// Useful for batching.
func (f *Factory) BuildPost(user *models.User, postType models.PostType, overrides ...func(*models.Post)) *models.Post {
	repo := strings.ToLower(strings.ReplaceAll(gofakeit.AppName(), " ", "-"))
	post := &models.Post{
		Title:       gofakeit.Sentence(5),
		Description: gofakeit.Sentence(12),
		Content:     gofakeit.Paragraph(2, 4, 8, "\n\n"),
		CoverImage:  fmt.Sprintf("https://picsum.photos/seed/%s/1200/630", gofakeit.UUID()),
		GithubURL:   fmt.Sprintf("https://github.com/%s/%s", user.Username, repo),
		Tags:        f.pickTags(postType),
		Type:        postType,
		UserID:      user.ID,
	}

	// realistic created_at spread
	maxDays := f.opts.MaxDays
	if maxDays <= 0 {
		maxDays = 90
	}
	daysBack := f.rng.Intn(maxDays)
	hoursBack := f.rng.Intn(24)
	minsBack := f.rng.Intn(60)
	post.CreatedAt = time.Now().Add(-time.Duration(daysBack)*24*time.Hour - time.Duration(hoursBack)*time.Hour - time.Duration(minsBack)*time.Minute)

	for _, override := range overrides {
		override(post)
	}
	return post
}

func (f *Factory) pickTags(postType models.PostType) []string {
	pool, ok := tagPools[postType]
	if !ok {
		pool = tagPools[models.PostTypeOther]
	}
	n := 2 + f.rng.Intn(3)
	if n > len(pool) {
		n = len(pool)
	}
	picked := make([]string, 0, n)
	for _, i := range f.rng.Perm(len(pool))[:n] {
		picked = append(picked, pool[i])
	}
	return picked
}

// CreatePost constructs and persists a sample `models.Post` for the given user.
func (f *Factory) CreatePost(user *models.User, postType models.PostType, overrides ...func(*models.Post)) (*models.Post, error) {
	post := f.BuildPost(user, postType, overrides...)

	if f.opts.DryRun {
		f.nextID++
		post.ID = f.nextID
		log.Printf("[dry-run] CreatePost: type=%s user=%d title=%q", post.Type, post.UserID, post.Title)
		return post, nil
	}

	if err := f.db.Create(post).Error; err != nil {
		return nil, err
	}
	return post, nil
}

// CreatePostsBatch persists multiple posts in a single DB call when possible.
func (f *Factory) CreatePostsBatch(posts []*models.Post) error {
	if f.opts.DryRun {
		for _, p := range posts {
			f.nextID++
			p.ID = f.nextID
		}
		log.Printf("[dry-run] CreatePostsBatch: %d posts (no DB write)", len(posts))
		return nil
	}
	return f.db.Create(&posts).Error
}

// CreateComment constructs and persists a sample `models.Comment` on the
// provided post authored by the provided user.
func (f *Factory) CreateComment(user *models.User, post *models.Post, overrides ...func(*models.Comment)) (*models.Comment, error) {
	comment := &models.Comment{
		Content: gofakeit.Sentence(8),
		UserID:  user.ID,
		PostID:  post.ID,
	}

	for _, override := range overrides {
		override(comment)
	}

	if err := f.db.Create(comment).Error; err != nil {
		return nil, err
	}
	return comment, nil
}

// CreateReply constructs and persists a sample `models.Reply` under the
// provided comment.
func (f *Factory) CreateReply(user *models.User, comment *models.Comment, overrides ...func(*models.Reply)) (*models.Reply, error) {
	reply := &models.Reply{
		Content:   gofakeit.Sentence(6),
		UserID:    user.ID,
		CommentID: comment.ID,
	}

	for _, override := range overrides {
		override(reply)
	}

	if err := f.db.Create(reply).Error; err != nil {
		return nil, err
	}
	return reply, nil
}

// CreateVote writes a ledger row and bumps the matching tally on the post in
// one transaction, the same bookkeeping the API performs. The in-memory post
// tallies are updated too so callers can assert against them.
func (f *Factory) CreateVote(user *models.User, post *models.Post, value models.VoteValue) error {
	if value != models.VoteUp && value != models.VoteDown {
		return fmt.Errorf("invalid vote value %q", value)
	}

	err := f.db.Transaction(func(tx *gorm.DB) error {
		vote := &models.Vote{
			UserID: user.ID,
			PostID: post.ID,
			Value:  value,
		}
		if err := tx.Create(vote).Error; err != nil {
			return err
		}
		column := "upvotes"
		if value == models.VoteDown {
			column = "downvotes"
		}
		return tx.Model(&models.Post{}).
			Where("id = ?", post.ID).
			UpdateColumn(column, gorm.Expr(column+" + 1")).Error
	})
	if err != nil {
		return err
	}

	if value == models.VoteUp {
		post.Upvotes++
	} else {
		post.Downvotes++
	}
	return nil
}

// CreateFollow persists a follow edge from follower to followee.
func (f *Factory) CreateFollow(follower, followee *models.User) error {
	follow := &models.Follow{
		FollowerID: follower.ID,
		FolloweeID: followee.ID,
	}
	return f.db.Create(follow).Error
}

// CreateNotification persists an inbox entry for the recipient.
func (f *Factory) CreateNotification(recipient, sender *models.User, notifType models.NotificationType, message string, post *models.Post) error {
	notification := &models.Notification{
		RecipientID: recipient.ID,
		SenderID:    sender.ID,
		Type:        notifType,
		Message:     message,
	}
	if post != nil {
		notification.RelatedPostID = &post.ID
	}
	return f.db.Create(notification).Error
}
