// Package injector resolves {{token}} placeholders in blueprint node
// configuration against a caller-supplied injection context.
package injector

import (
	"regexp"
	"strings"
)

// tokenPattern matches one {{ path }} placeholder. Whitespace around the
// path is tolerated and trimmed.
var tokenPattern = regexp.MustCompile(`\{\{([^{}]*)\}\}`)

// ContainsToken reports whether the string holds at least one {{...}}
// placeholder. The validator uses this to exempt unresolved values from
// type checks, since their resolved type is unknown until injection time.
func ContainsToken(s string) bool {
	return tokenPattern.MatchString(s)
}

// Tokens returns the trimmed paths of every placeholder in the string, in
// order of appearance.
func Tokens(s string) []string {
	matches := tokenPattern.FindAllStringSubmatch(s, -1)
	if matches == nil {
		return nil
	}

	paths := make([]string, 0, len(matches))
	for _, m := range matches {
		paths = append(paths, strings.TrimSpace(m[1]))
	}

	return paths
}
