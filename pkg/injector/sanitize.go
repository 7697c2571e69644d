package injector

import (
	"regexp"
	"strings"
)

// Sanitization patterns for free-text destined for configuration values.
// Applied before values ever reach token substitution.
var (
	scriptTagPattern    = regexp.MustCompile(`(?is)<script\b[^>]*>.*?</script\s*>`)
	htmlTagPattern      = regexp.MustCompile(`(?s)<[^>]+>`)
	jsURIPattern        = regexp.MustCompile(`(?i)javascript\s*:`)
	eventHandlerPattern = regexp.MustCompile(`(?i)\bon[a-z]+\s*=`)

	dangerousPatterns = []*regexp.Regexp{
		scriptTagPattern,
		regexp.MustCompile(`(?i)<script\b`),
		jsURIPattern,
		eventHandlerPattern,
		regexp.MustCompile(`(?i)\beval\s*\(`),
		regexp.MustCompile(`(?i)\bexec\s*\(`),
		regexp.MustCompile(`\.\./`),
		regexp.MustCompile(`\$\{`),
	}
)

// Sanitize strips script tags, remaining HTML tags, javascript: URIs and
// inline event-handler attributes from user-supplied text.
func Sanitize(s string) string {
	s = scriptTagPattern.ReplaceAllString(s, "")
	s = htmlTagPattern.ReplaceAllString(s, "")
	s = jsURIPattern.ReplaceAllString(s, "")
	s = eventHandlerPattern.ReplaceAllString(s, "")

	return strings.TrimSpace(s)
}

// LooksDangerous flags strings carrying script/markup injection, code
// evaluation calls, path traversal, template interpolation or backticks.
// Used as an input gate; flagged values never reach token substitution.
func LooksDangerous(s string) bool {
	if strings.Contains(s, "`") {
		return true
	}

	for _, pattern := range dangerousPatterns {
		if pattern.MatchString(s) {
			return true
		}
	}

	return false
}
