package sandbox

import (
	"fmt"
	"regexp"
	"strings"
)

// targetPattern accepts DNS names only: labels of letters, digits and
// hyphens joined by dots. Anything else (whitespace, quotes, semicolons,
// path separators) is rejected before it gets near a command line.
var targetPattern = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9-]{0,62})(\.[a-zA-Z0-9]([a-zA-Z0-9-]{0,62}))+$`)

// ValidateTarget rejects target strings that are not plain domain names.
// Arguments are passed argv-style everywhere, so a metacharacter could not
// execute anyway; this check keeps garbage out of the investigation record
// and out of remote API queries.
func ValidateTarget(target string) error {
	t := strings.TrimSpace(target)
	if t == "" {
		return fmt.Errorf("target domain is empty")
	}
	if len(t) > 253 {
		return fmt.Errorf("target domain exceeds 253 characters")
	}
	if !targetPattern.MatchString(t) {
		return fmt.Errorf("target %q is not a valid domain name", target)
	}
	return nil
}
