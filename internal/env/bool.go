package env

import (
	"strings"

	"github.com/cockroachdb/errors"
)

// ErrInvalidBool is returned for strings that are neither true nor false
// spellings.
var ErrInvalidBool = errors.New("invalid boolean value")

var (
	trueStrings  = []string{"y", "yes", "true", "t", "1", "on", "all"}
	falseStrings = []string{"n", "no", "false", "f", "0", "off", "none"}
)

// ParseBool accepts the boolean spellings understood by build option files.
func ParseBool(s string) (bool, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	for _, t := range trueStrings {
		if v == t {
			return true, nil
		}
	}
	for _, f := range falseStrings {
		if v == f {
			return false, nil
		}
	}
	return false, errors.WithHint(
		errors.Wrapf(ErrInvalidBool, "%q", s),
		"use one of yes/no, true/false, on/off or 1/0")
}

// FormatBool renders b the way option defaults are written.
func FormatBool(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
