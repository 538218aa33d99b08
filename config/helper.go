package config

import "strings"

// isValidName reports whether s is a legal variable name: non-empty,
// every byte in [0-9a-z_.]. Case-sensitive, uppercase is rejected.
func isValidName(s string) bool {
	if len(s) == 0 {
		return false
	}
	for _, r := range s {
		isLower := r >= 'a' && r <= 'z'
		isDigit := r >= '0' && r <= '9'
		if !(isLower || isDigit || r == '_' || r == '.') {
			return false
		}
	}
	return true
}

// setNestedValue sets a value in a nested map using a dot-notation path,
// creating intermediate maps as needed. A non-map intermediate is
// overwritten by a new map.
func setNestedValue(nested map[string]any, path string, value any) {
	segments := strings.Split(path, ".")
	current := nested

	for i := 0; i < len(segments)-1; i++ {
		segment := segments[i]

		next, exists := current[segment]
		if !exists {
			newMap := make(map[string]any)
			current[segment] = newMap
			current = newMap
			continue
		}

		if nextMap, isMap := next.(map[string]any); isMap {
			current = nextMap
		} else {
			newMap := make(map[string]any)
			current[segment] = newMap
			current = newMap
		}
	}

	current[segments[len(segments)-1]] = value
}
