package merge

import (
	"github.com/profilekit/mergeprof/internal/profile"
)

// TranslationTable maps a category index within one input's taxonomy to
// the corresponding index within the merged taxonomy.
type TranslationTable map[int]int

// Categories combines the category lists of several profiles into one,
// deduplicating by name, and returns one translation table per input.
// The first occurrence of a name wins: later categories with the same name
// become aliases of it and their other attributes are discarded.
func Categories(lists [][]profile.Category) ([]profile.Category, []TranslationTable) {
	merged := make([]profile.Category, 0)
	indexByName := make(map[string]int)
	translations := make([]TranslationTable, 0, len(lists))
	for _, list := range lists {
		table := make(TranslationTable, len(list))
		for oldIndex, category := range list {
			newIndex, exists := indexByName[category.Name]
			if !exists {
				newIndex = len(merged)
				indexByName[category.Name] = newIndex
				merged = append(merged, category)
			}
			table[oldIndex] = newIndex
		}
		translations = append(translations, table)
	}
	return merged, translations
}
