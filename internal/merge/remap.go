package merge

import (
	"fmt"

	"github.com/profilekit/mergeprof/internal/errorutil"
)

// RemapCategories translates every category index through the table. An
// index missing from the table references a category outside the taxonomy
// that was merged, which a validly constructed profile can never do, so it
// fails with a data integrity error instead of producing a default.
func RemapCategories(indices []int, table TranslationTable) ([]int, error) {
	remapped := make([]int, len(indices))
	for i, oldIndex := range indices {
		newIndex, exists := table[oldIndex]
		if !exists {
			return nil, fmt.Errorf("category index %d has no entry in the translation table: %w", oldIndex, errorutil.ErrDataIntegrity)
		}
		remapped[i] = newIndex
	}
	return remapped, nil
}

// RemapNullableCategories is RemapCategories for tables whose category
// column is nullable. A nil entry passes through without a lookup.
func RemapNullableCategories(indices []*int, table TranslationTable) ([]*int, error) {
	remapped := make([]*int, len(indices))
	for i, oldIndex := range indices {
		if oldIndex == nil {
			continue
		}
		newIndex, exists := table[*oldIndex]
		if !exists {
			return nil, fmt.Errorf("category index %d has no entry in the translation table: %w", *oldIndex, errorutil.ErrDataIntegrity)
		}
		v := newIndex
		remapped[i] = &v
	}
	return remapped, nil
}
