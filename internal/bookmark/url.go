package bookmark

import (
	"strings"

	"github.com/hpungsan/repovault/internal/errors"
)

const githubHost = "github.com"

// ParseGitHubURL extracts owner and repo from a GitHub repository URL.
// Accepted shapes include "https://github.com/o/r", "http://www.github.com/o/r/tree/main"
// and "github.com/o/r". Segments are taken verbatim.
func ParseGitHubURL(raw string) (owner, repo string, err error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", "", errors.NewInvalidInput("enter a repo URL")
	}
	if !strings.Contains(strings.ToLower(s), githubHost) {
		return "", "", errors.NewInvalidInput("must be a GitHub URL")
	}

	rest := s
	if after, ok := cutPrefixFold(rest, "https://"); ok {
		rest = after
	} else if after, ok := cutPrefixFold(rest, "http://"); ok {
		rest = after
	}
	if after, ok := cutPrefixFold(rest, "www."); ok {
		rest = after
	}

	after, ok := cutPrefixFold(rest, githubHost)
	if !ok || (after != "" && after[0] != '/') {
		return "", "", errors.NewInvalidInput("invalid URL format")
	}

	parts := make([]string, 0, 2)
	for _, p := range strings.Split(after, "/") {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) < 2 {
		return "", "", errors.NewInvalidInput("invalid URL format")
	}

	return parts[0], parts[1], nil
}

// cutPrefixFold is strings.CutPrefix with ASCII case folding.
func cutPrefixFold(s, prefix string) (string, bool) {
	if len(s) < len(prefix) || !strings.EqualFold(s[:len(prefix)], prefix) {
		return s, false
	}
	return s[len(prefix):], true
}
