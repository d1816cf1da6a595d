package prompt

import "sort"

// Selection maps a category id to its selected option ids. Option order
// inside a category is preserved into the rendered prompt. A key is only
// present while its list is non-empty; every mutation goes through
// SetCategoryOptions to keep it that way.
type Selection map[string][]string

func SetCategoryOptions(s Selection, categoryID string, optionIDs []string) Selection {
	if s == nil {
		s = Selection{}
	}
	if len(optionIDs) == 0 {
		delete(s, categoryID)
		return s
	}
	s[categoryID] = append([]string(nil), optionIDs...)
	return s
}

// Toggle appends optionID to the category or removes it when already
// selected.
func Toggle(s Selection, categoryID, optionID string) Selection {
	current := s[categoryID]
	next := make([]string, 0, len(current)+1)
	found := false
	for _, id := range current {
		if id == optionID {
			found = true
			continue
		}
		next = append(next, id)
	}
	if !found {
		next = append(next, optionID)
	}
	return SetCategoryOptions(s, categoryID, next)
}

// Merge overwrites s per category with the non-empty lists of other.
func Merge(s, other Selection) Selection {
	for _, categoryID := range other.Keys() {
		if ids := other[categoryID]; len(ids) > 0 {
			s = SetCategoryOptions(s, categoryID, ids)
		}
	}
	if s == nil {
		s = Selection{}
	}
	return s
}

func (s Selection) Clone() Selection {
	out := make(Selection, len(s))
	for k, v := range s {
		if len(v) == 0 {
			continue
		}
		out[k] = append([]string(nil), v...)
	}
	return out
}

func (s Selection) Has(categoryID, optionID string) bool {
	for _, id := range s[categoryID] {
		if id == optionID {
			return true
		}
	}
	return false
}

// Count returns the total number of selected option ids.
func (s Selection) Count() int {
	n := 0
	for _, ids := range s {
		n += len(ids)
	}
	return n
}

// Keys returns the category ids in lexical order.
func (s Selection) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
