package utils

import "strings"

// FoldKey returns the case-insensitive identity of a name.
func FoldKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// ContainsFold reports whether list contains s, ignoring case.
func ContainsFold(list []string, s string) bool {
	key := FoldKey(s)
	for _, item := range list {
		if FoldKey(item) == key {
			return true
		}
	}
	return false
}

// FoldSet builds a lookup set of case-folded names.
func FoldSet(list []string) map[string]struct{} {
	set := make(map[string]struct{}, len(list))
	for _, item := range list {
		set[FoldKey(item)] = struct{}{}
	}
	return set
}

// UniqueFold returns the concatenation of lists with case-insensitive
// duplicates removed. The first spelling of each name wins and order is kept.
func UniqueFold(lists ...[]string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, list := range lists {
		for _, item := range list {
			key := FoldKey(item)
			if key == "" {
				continue
			}
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, strings.TrimSpace(item))
		}
	}
	return out
}

// ExceptFold returns the items of list whose names are not in exclude.
func ExceptFold(list, exclude []string) []string {
	skip := FoldSet(exclude)
	out := make([]string, 0, len(list))
	for _, item := range list {
		if _, ok := skip[FoldKey(item)]; ok {
			continue
		}
		out = append(out, item)
	}
	return out
}

// HasSuffixFold reports whether s ends with suffix, ignoring case.
func HasSuffixFold(s, suffix string) bool {
	return len(s) >= len(suffix) && strings.EqualFold(s[len(s)-len(suffix):], suffix)
}
