// Package seed provides database seeding utilities for development and testing.
package seed

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"codefolio/internal/database"
	"codefolio/internal/models"

	"gorm.io/gorm"
)

// Options configuration for the seeder
type Options struct {
	SkipBcrypt bool
	DryRun     bool
	BatchSize  int
	MaxDays    int
}

// TypeShare is one bucket of a post-type distribution.
type TypeShare struct {
	Type  models.PostType
	Share float64
}

// Distribution describes how seeded posts split across project categories.
// Shares should sum to 1.
type Distribution []TypeShare

var defaultDistribution = Distribution{
	{models.PostTypeWebDevelopment, 0.5},
	{models.PostTypeAPIDevelopment, 0.3},
	{models.PostTypeDataScience, 0.1},
	{models.PostTypeOther, 0.1},
}

// CategoryDistributions are named presets selectable from the seeder CLI.
var CategoryDistributions = map[string]Distribution{
	"ml-heavy": {
		{models.PostTypeMachineLearning, 0.4},
		{models.PostTypeDataScience, 0.0},
		{models.PostTypeWebDevelopment, 0.4},
		{models.PostTypeDevOps, 0.2},
	},
	"mobile-studio": {
		{models.PostTypeMobileApp, 0.6},
		{models.PostTypeDesign, 0.2},
		{models.PostTypeGame, 0.2},
	},
}

// Preset bundles a population size with a category distribution.
type Preset struct {
	Users        int
	Posts        int
	Distribution Distribution
}

var presets = map[string]Preset{
	"MegaPopulated": {Users: 500, Posts: 2000, Distribution: defaultDistribution},
	"Demo":          {Users: 25, Posts: 80, Distribution: defaultDistribution},
	"MLShowcase":    {Users: 50, Posts: 200, Distribution: CategoryDistributions["ml-heavy"]},
}

// computeCounts splits total posts across the distribution's buckets using
// floored shares, handing the remainder out from the first bucket so the
// counts always sum to total.
func computeCounts(total int, d Distribution) []int {
	counts := make([]int, len(d))
	if len(d) == 0 {
		return counts
	}
	assigned := 0
	for i, bucket := range d {
		counts[i] = int(float64(total) * bucket.Share)
		assigned += counts[i]
	}
	for i := 0; assigned < total; i = (i + 1) % len(d) {
		counts[i]++
		assigned++
	}
	return counts
}

// Seeder drives bulk population of the database.
type Seeder struct {
	db      *gorm.DB
	opts    Options
	factory *Factory
	rng     *rand.Rand
}

// NewSeeder creates a Seeder. Options may be omitted for CLI defaults.
func NewSeeder(db *gorm.DB, opts ...Options) *Seeder {
	var o Options
	if len(opts) > 0 {
		o = opts[0]
	}
	//nolint:gosec // Weak random number generator is fine for seeding
	return &Seeder{
		db:      db,
		opts:    o,
		factory: NewFactory(db, o),
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// ClearAll truncates every seeded table. PostgreSQL only.
func (s *Seeder) ClearAll() error {
	log.Println("🗑️  Clearing existing data...")
	return database.TruncateAllTables(s.db)
}

// ApplyPreset runs a named preset end to end.
func (s *Seeder) ApplyPreset(name string) error {
	preset, ok := presets[name]
	if !ok {
		return fmt.Errorf("unknown preset %q", name)
	}
	users, err := s.SeedSocialMesh(preset.Users)
	if err != nil {
		return err
	}
	_, err = s.SeedEngagementWithDistribution(users, preset.Posts, preset.Distribution)
	return err
}

// SeedSocialMesh creates count users and wires a follow graph between them.
// A few fixed accounts come first so developers have known logins.
func (s *Seeder) SeedSocialMesh(count int) ([]models.User, error) {
	users := make([]models.User, 0, count)

	if count >= 3 {
		for _, name := range []string{"demo", "alice", "getting-started"} {
			user, err := s.factory.CreateUser(func(u *models.User) {
				u.Username = name
				u.Email = fmt.Sprintf("%s@example.com", name)
				u.Bio = "One of the OGs."
			})
			if err != nil {
				log.Printf("Failed to create base user %s: %v", name, err)
				continue
			}
			users = append(users, *user)
		}
	}

	for i := len(users); i < count; i++ {
		user, err := s.factory.CreateUser()
		if err != nil {
			log.Printf("Failed to create user: %v", err)
			continue
		}
		users = append(users, *user)

		if i%100 == 0 && i > 0 {
			log.Printf("Created %d users...", i)
		}
	}

	if err := s.seedFollows(users); err != nil {
		return nil, fmt.Errorf("failed to seed follows: %w", err)
	}

	log.Printf("✓ %d users created and connected", len(users))
	return users, nil
}

// seedFollows has every user follow a handful of others. Duplicate pairs and
// self-follows are skipped; each edge leaves a follow notification behind so
// inboxes are not empty on first login.
func (s *Seeder) seedFollows(users []models.User) error {
	if len(users) < 2 || s.opts.DryRun {
		return nil
	}
	for i := range users {
		follower := &users[i]
		seen := map[uint]struct{}{follower.ID: {}}
		edges := 2 + s.rng.Intn(6)
		if edges > len(users)-1 {
			edges = len(users) - 1
		}
		for e := 0; e < edges; e++ {
			followee := &users[s.rng.Intn(len(users))]
			if _, dup := seen[followee.ID]; dup {
				continue
			}
			seen[followee.ID] = struct{}{}

			if err := s.factory.CreateFollow(follower, followee); err != nil {
				return err
			}
			if s.rng.Float32() < 0.5 {
				_ = s.factory.CreateNotification(followee, follower, models.NotificationFollow,
					fmt.Sprintf("%s started following you", follower.Username), nil)
			}
		}
	}
	return nil
}

// SeedEngagement creates posts, comments, replies and votes using the
// default category distribution.
func (s *Seeder) SeedEngagement(users []models.User, numPosts int) ([]models.Post, error) {
	return s.SeedEngagementWithDistribution(users, numPosts, defaultDistribution)
}

// SeedEngagementWithDistribution creates numPosts posts split across the
// given distribution, then layers comments, replies and ledger votes on top.
// Votes go through the same tally bookkeeping the API uses, so the
// denormalized counters on each post match the ledger rows exactly.
func (s *Seeder) SeedEngagementWithDistribution(users []models.User, numPosts int, d Distribution) ([]models.Post, error) {
	if len(users) == 0 {
		return nil, fmt.Errorf("cannot seed posts without users")
	}

	counts := computeCounts(numPosts, d)
	posts := make([]*models.Post, 0, numPosts)
	for i, bucket := range d {
		for n := 0; n < counts[i]; n++ {
			author := &users[s.rng.Intn(len(users))]
			posts = append(posts, s.factory.BuildPost(author, bucket.Type))
		}
	}

	batchSize := s.opts.BatchSize
	if batchSize <= 0 {
		batchSize = 100
	}
	for start := 0; start < len(posts); start += batchSize {
		end := start + batchSize
		if end > len(posts) {
			end = len(posts)
		}
		if err := s.factory.CreatePostsBatch(posts[start:end]); err != nil {
			return nil, fmt.Errorf("failed to create posts: %w", err)
		}
	}
	log.Printf("✓ %d posts created", len(posts))

	for _, post := range posts {
		if err := s.seedPostEngagement(users, post); err != nil {
			return nil, err
		}
	}
	log.Println("✓ engagement layered onto posts")

	created := make([]models.Post, 0, len(posts))
	for _, p := range posts {
		created = append(created, *p)
	}
	return created, nil
}

func (s *Seeder) seedPostEngagement(users []models.User, post *models.Post) error {
	if s.opts.DryRun {
		return nil
	}

	numComments := s.rng.Intn(5)
	for c := 0; c < numComments; c++ {
		commenter := &users[s.rng.Intn(len(users))]
		comment, err := s.factory.CreateComment(commenter, post)
		if err != nil {
			return fmt.Errorf("failed to create comment: %w", err)
		}
		numReplies := s.rng.Intn(3)
		for r := 0; r < numReplies; r++ {
			replier := &users[s.rng.Intn(len(users))]
			if _, err := s.factory.CreateReply(replier, comment); err != nil {
				return fmt.Errorf("failed to create reply: %w", err)
			}
		}
	}

	// Each voter gets at most one ledger row per post; skew towards upvotes.
	numVoters := s.rng.Intn(len(users) + 1)
	voted := make(map[uint]struct{}, numVoters)
	for v := 0; v < numVoters; v++ {
		voter := &users[s.rng.Intn(len(users))]
		if _, dup := voted[voter.ID]; dup {
			continue
		}
		voted[voter.ID] = struct{}{}

		value := models.VoteUp
		if s.rng.Float32() < 0.2 {
			value = models.VoteDown
		}
		if err := s.factory.CreateVote(voter, post, value); err != nil {
			return fmt.Errorf("failed to create vote: %w", err)
		}
	}
	return nil
}
