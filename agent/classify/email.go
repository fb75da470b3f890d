package classify

import "regexp"

var emailPattern = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)

// Email extracts the first email address from free text. Case is
// preserved in the return value; callers compare case-insensitively.
// The second return is false when no address is present; absence is
// not an error.
func Email(text string) (string, bool) {
	match := emailPattern.FindString(text)
	if match == "" {
		return "", false
	}
	return match, true
}
