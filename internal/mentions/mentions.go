// Package mentions extracts @username references from user-authored text.
package mentions

import (
	"regexp"
	"strings"
)

// Usernames may contain letters, digits, underscores and dots. Anything
// else terminates the mention, so "@ana," captures "ana".
var mentionPattern = regexp.MustCompile(`@([a-zA-Z0-9_.]+)`)

// Extract returns the usernames mentioned in text, lowercased, deduplicated,
// in order of first appearance. A nil slice means no mentions.
func Extract(text string) []string {
	if text == "" {
		return nil
	}

	matches := mentionPattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(matches))
	var usernames []string
	for _, m := range matches {
		name := strings.ToLower(m[1])
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		usernames = append(usernames, name)
	}
	return usernames
}
