package bookmark

import (
	"fmt"
	"time"
)

// DefaultCategory is assigned when a bookmark is saved without a category.
const DefaultCategory = "uncategorized"

// SavedAtLayout renders creation dates as "Jan 2, 2006".
const SavedAtLayout = "Jan 2, 2006"

// Record is a saved reference to a GitHub repository plus user metadata.
// Field order here is the field order of exported JSON.
type Record struct {
	// ID is the creation wall-clock time in milliseconds; primary key for deletion
	ID int64 `json:"id"`

	// Owner is the GitHub account or organization name
	Owner string `json:"owner"`

	// Repo is the repository name
	Repo string `json:"repo"`

	// Category groups bookmarks for filtering
	Category string `json:"category"`

	// Notes is free text, may be empty
	Notes string `json:"notes"`

	// URL is https://github.com/{owner}/{repo}; used to deduplicate imports
	URL string `json:"url"`

	// SavedAt is the display-formatted creation date
	SavedAt string `json:"savedAt"`
}

// New builds a record for owner/repo created at the given time.
// Blank category falls back to DefaultCategory.
func New(id int64, owner, repo, category, notes string, createdAt time.Time) Record {
	if category == "" {
		category = DefaultCategory
	}
	return Record{
		ID:       id,
		Owner:    owner,
		Repo:     repo,
		Category: category,
		Notes:    notes,
		URL:      CanonicalURL(owner, repo),
		SavedAt:  FormatSavedAt(createdAt),
	}
}

// CanonicalURL returns the canonical GitHub URL for owner/repo.
func CanonicalURL(owner, repo string) string {
	return fmt.Sprintf("https://github.com/%s/%s", owner, repo)
}

// FormatSavedAt formats a creation time for display.
func FormatSavedAt(t time.Time) string {
	return t.Format(SavedAtLayout)
}

// FullName returns "owner/repo".
func (r Record) FullName() string {
	return r.Owner + "/" + r.Repo
}
