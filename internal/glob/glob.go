// Package glob converts the small pattern language slogger's Include/Exclude
// filters use — "*" as a wildcard, everything else literal — into a regexp.
// It intentionally does not implement path-style globbing (**, brace
// expansion, character classes): slogger matches flat "key" or "key=value"
// attribute strings, not filesystem paths, so those forms have no meaning
// here and were dropped rather than carried over unused.
package glob

import (
	"regexp"
	"strings"
)

// ToRegex converts a pattern into an anchored regular expression string.
// "*" matches any run of characters; every other character is matched
// literally.
func ToRegex(pattern string) string {
	parts := strings.Split(pattern, "*")
	var result strings.Builder
	result.WriteString("^")
	for i, part := range parts {
		if i > 0 {
			result.WriteString(".*")
		}
		result.WriteString(regexp.QuoteMeta(part))
	}
	result.WriteString("$")
	return result.String()
}
