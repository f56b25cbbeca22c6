package validation

import (
	"fmt"
	"regexp"
)

const maxTags = 10

var tagRegex = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{0,29}$`)

// Usernames that would collide with API routes under /users/.
var reservedUsernames = map[string]struct{}{
	"admin":         {},
	"api":           {},
	"auth":          {},
	"me":            {},
	"search":        {},
	"users":         {},
	"posts":         {},
	"comments":      {},
	"notifications": {},
	"followers":     {},
	"following":     {},
	"ws":            {},
	"metrics":       {},
	"health":        {},
	"login":         {},
	"signup":        {},
}

// ReservedUsername reports whether the name is reserved for routing.
func ReservedUsername(username string) bool {
	_, ok := reservedUsernames[username]
	return ok
}

// ValidateTags checks a post's tag list: at most 10 tags, each lowercase
// alphanumeric with hyphens, up to 30 characters.
func ValidateTags(tags []string) error {
	if len(tags) > maxTags {
		return fmt.Errorf("a post can have at most %d tags", maxTags)
	}
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		if !tagRegex.MatchString(tag) {
			return fmt.Errorf("invalid tag %q: tags must be 1-30 lowercase letters, numbers, or hyphens", tag)
		}
		if _, dup := seen[tag]; dup {
			return fmt.Errorf("duplicate tag %q", tag)
		}
		seen[tag] = struct{}{}
	}
	return nil
}
