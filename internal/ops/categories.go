package ops

import "github.com/hpungsan/repovault/internal/vault"

// CategoriesOutput lists the distinct categories in ascending order.
type CategoriesOutput struct {
	Categories []string `json:"categories"`
}

// Categories returns the filter options for the current collection.
func Categories(store *vault.Store) *CategoriesOutput {
	return &CategoriesOutput{Categories: store.Categories()}
}
