package gacha

import (
	"sort"
	"strings"
)

// Exclusions maps a category id to option ids the draw must skip.
type Exclusions map[string][]string

func (e Exclusions) Toggle(categoryID, optionID string) Exclusions {
	if e == nil {
		e = Exclusions{}
	}
	current := e[categoryID]
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
	if len(next) == 0 {
		delete(e, categoryID)
	} else {
		e[categoryID] = next
	}
	return e
}

func (e Exclusions) Has(categoryID, optionID string) bool {
	for _, id := range e[categoryID] {
		if id == optionID {
			return true
		}
	}
	return false
}

func (e Exclusions) ClearCategory(categoryID string) {
	delete(e, categoryID)
}

func (e Exclusions) Clear() {
	for k := range e {
		delete(e, k)
	}
}

func (e Exclusions) Count() int {
	n := 0
	for _, ids := range e {
		n += len(ids)
	}
	return n
}

// Keys lists every pair as "categoryId:optionId", sorted.
func (e Exclusions) Keys() []string {
	out := make([]string, 0, e.Count())
	for categoryID, ids := range e {
		for _, id := range ids {
			out = append(out, categoryID+":"+id)
		}
	}
	sort.Strings(out)
	return out
}

// ParseKeys rebuilds exclusions from Keys output. Malformed entries are
// dropped.
func ParseKeys(keys []string) Exclusions {
	e := Exclusions{}
	for _, k := range keys {
		categoryID, optionID, ok := strings.Cut(k, ":")
		if !ok || categoryID == "" || optionID == "" || e.Has(categoryID, optionID) {
			continue
		}
		e[categoryID] = append(e[categoryID], optionID)
	}
	return e
}
