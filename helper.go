package construct

import (
	"fmt"
	"strings"
)

// splitPath splits a dot-delimited path into segments. The empty path (the
// root) has no segments.
func splitPath(path string) []string {
	if path == "" {
		return nil
	}
	return strings.Split(path, ".")
}

// joinPath joins two path fragments, tolerating either side being empty.
func joinPath(prefix, rest string) string {
	if prefix == "" {
		return rest
	}
	if rest == "" {
		return prefix
	}
	return prefix + "." + rest
}

// flattenMap converts a nested map[string]any to a flat map with dot-notation
// paths. Leaf values are kept as-is.
func flattenMap(nested map[string]any, prefix string) map[string]any {
	flat := make(map[string]any)
	for key, value := range nested {
		path := joinPath(prefix, key)
		if sub, isMap := value.(map[string]any); isMap {
			for subPath, subValue := range flattenMap(sub, path) {
				flat[subPath] = subValue
			}
		} else {
			flat[path] = value
		}
	}
	return flat
}

// isValidKeySegment checks one path segment: letters, digits, underscores and
// dashes, no dots.
func isValidKeySegment(s string) bool {
	if len(s) == 0 {
		return false
	}
	for _, r := range s {
		isLetter := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		isDigit := r >= '0' && r <= '9'
		if !(isLetter || isDigit || r == '_' || r == '-') {
			return false
		}
	}
	return true
}

// validateKey checks a raw argument key. Keys may contain the wildcard token
// between segments; each literal run must be made of valid segments.
func validateKey(key string) error {
	if key == "" {
		return fmt.Errorf("argument key cannot be empty")
	}
	for _, tok := range tokenizePattern(key) {
		if tok.wild {
			continue
		}
		if !isValidKeySegment(tok.lit) {
			return fmt.Errorf("invalid key segment %q in key %q", tok.lit, key)
		}
	}
	return nil
}
