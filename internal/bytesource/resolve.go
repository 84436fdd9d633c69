package bytesource

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// ResolveGrammarPath expands a --parser-definition argument that contains
// glob metacharacters into a concrete file path, picking the
// lexicographically first match. Plain paths (no glob metacharacters) are
// returned unchanged so the common case never touches the filesystem
// pattern matcher at all.
func ResolveGrammarPath(pattern string) (string, error) {
	if !strings.ContainsAny(pattern, "*?[{") {
		return pattern, nil
	}

	base, globPart := doublestar.SplitPattern(pattern)
	if base == "" {
		base = "."
	}
	matches, err := doublestar.Glob(os.DirFS(base), globPart)
	if err != nil {
		return "", fmt.Errorf("bytesource: invalid grammar glob %q: %w", pattern, err)
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("bytesource: grammar glob %q matched no files", pattern)
	}
	sort.Strings(matches)
	return filepath.Join(base, matches[0]), nil
}
