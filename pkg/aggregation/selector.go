package aggregation

import (
	"path/filepath"
	"strings"
)

// Selector reports whether a file name holds a scalar value
type Selector func(name string) bool

// ExtensionSelector accepts names ending in ext, compared case-insensitively.
// A leading dot is optional.
func ExtensionSelector(ext string) Selector {
	ext = strings.ToLower(ext)
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return func(name string) bool {
		return strings.ToLower(filepath.Ext(name)) == ext
	}
}

// SuffixSelector accepts names ending in suffix. Compound extensions such
// as "_ts.txt" need this instead of ExtensionSelector.
func SuffixSelector(suffix string) Selector {
	return func(name string) bool {
		return strings.HasSuffix(name, suffix)
	}
}
