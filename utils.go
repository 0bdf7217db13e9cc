package sqlmodelfilters

import "strings"

func isSurrounded(s string, prefixes ...string) bool {
	if len(s) < 2 || s[0] != s[len(s)-1] {
		return false
	}
	for _, prefix := range prefixes {
		if strings.HasPrefix(s, prefix) {
			return true
		}
	}
	return false
}

func dequote(s string) string {
	if isSurrounded(s, `"`, "'") {
		return s[1 : len(s)-1]
	}
	return s
}

func deslash(s string) string {
	if isSurrounded(s, "/") {
		return s[1 : len(s)-1]
	}
	return s
}
