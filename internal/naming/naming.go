package naming

import (
	"path/filepath"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
)

// copySuffixPattern matches stems produced by copy/export tools that append a
// parenthesized counter, e.g. "IMG1234 (2)".
var copySuffixPattern = regexp.MustCompile(`^(.*?) \([0-9]+\)$`)

// Fold returns the case-folded form of s, suitable for case-insensitive
// comparison and map keys.
func Fold(s string) string {
	return cases.Fold().String(s)
}

// Stem returns the final path segment of p without its extension.
func Stem(p string) string {
	base := filepath.Base(p)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// HasCopySuffix reports whether stem carries a trailing " (N)" copy counter.
func HasCopySuffix(stem string) bool {
	return copySuffixPattern.MatchString(stem)
}

// NameKey derives the normalized grouping key for a file path: the stem with
// any " (N)" copy suffix stripped, case-folded.
func NameKey(p string) string {
	stem := Stem(p)
	if m := copySuffixPattern.FindStringSubmatch(stem); m != nil {
		stem = m[1]
	}
	return Fold(stem)
}

// FolderKey returns the path of p's parent directory relative to root using
// forward-slash segments. The root directory itself maps to ".". Paths that
// cannot be made relative keep their parent as-is so grouping stays
// deterministic.
func FolderKey(root, p string) string {
	parent := filepath.Dir(p)
	rel, err := filepath.Rel(root, parent)
	if err != nil {
		rel = parent
	}
	key := filepath.ToSlash(rel)
	if key == "" {
		return "."
	}
	return key
}
