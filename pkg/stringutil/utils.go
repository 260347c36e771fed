package stringutil

import (
	"strings"
)

// FormatAddress renders an address and optional display name the way the downstream mail handler
// expects them: "Name <address>" when a name is present, the bare address otherwise, and an empty
// string when neither is known.  No quoting is applied to the name.
func FormatAddress(address, name string) string {
	if name != "" {
		return name + " <" + address + ">"
	}
	return address
}

// LocalPart returns the portion of address before the first @, or the whole address if it has no
// @.
func LocalPart(address string) string {
	if i := strings.IndexByte(address, '@'); i >= 0 {
		return address[:i]
	}
	return address
}

// SliceContains returns true if s is present in slice.
func SliceContains(slice []string, s string) bool {
	for _, v := range slice {
		if s == v {
			return true
		}
	}
	return false
}

// SliceToLower lowercases the contents of slice, in place.
func SliceToLower(slice []string) {
	for i, s := range slice {
		slice[i] = strings.ToLower(s)
	}
}

// MakePathPrefixer returns a func that will add the specified prefix (base) to request paths.
func MakePathPrefixer(prefix string) func(string) string {
	prefix = strings.Trim(prefix, "/")
	return func(path string) string {
		if prefix == "" {
			return path
		}
		return "/" + prefix + "/" + strings.TrimLeft(path, "/")
	}
}
