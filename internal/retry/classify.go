package retry

import "strings"

// transientSubstrings are matched case-insensitively against an error's
// message to decide whether the DB writer should retry it
// (§4.10 "Persist", §7 "Transient network / broker / DB").
var transientSubstrings = []string{
	"connection",
	"timeout",
	"too many clients",
	"deadlock",
}

// IsTransient reports whether err looks like a transient condition worth
// retrying, based on a substring match against its message. Permanent errors
// (anything else) are expected to propagate immediately.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, s := range transientSubstrings {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}
