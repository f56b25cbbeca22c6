package seed

import (
	"net/url"
	"strings"
	"testing"
	"time"

	"codefolio/internal/models"
	"codefolio/internal/validation"
)

func TestBuildPost_TimestampsAndFormats(t *testing.T) {
	opts := Options{DryRun: true, MaxDays: 30}
	f := NewFactory(nil, opts)
	user := &models.User{ID: 1, Username: "builder"}

	p := f.BuildPost(user, models.PostTypeWebDevelopment)
	if p.GithubURL == "" {
		t.Fatalf("expected github url on post")
	}
	if !strings.HasPrefix(p.GithubURL, "https://github.com/builder/") {
		t.Fatalf("unexpected github url format: %s", p.GithubURL)
	}
	if _, err := url.ParseRequestURI(p.GithubURL); err != nil {
		t.Fatalf("invalid github url: %v", err)
	}

	// timestamp should be within MaxDays
	if time.Since(p.CreatedAt) > (time.Duration(opts.MaxDays)+1)*24*time.Hour {
		t.Fatalf("created_at too old: %v", p.CreatedAt)
	}
}

func TestBuildPost_TagsPassAPIValidation(t *testing.T) {
	f := NewFactory(nil, Options{DryRun: true})
	user := &models.User{ID: 1, Username: "tagger"}

	for _, postType := range models.PostTypes {
		p := f.BuildPost(user, postType)
		if len(p.Tags) == 0 {
			t.Fatalf("expected tags for %s post", postType)
		}
		if err := validation.ValidateTags(p.Tags); err != nil {
			t.Fatalf("seeded tags rejected for %s: %v", postType, err)
		}
	}
}
