package option

import (
	"strings"

	"github.com/cockroachdb/errors"
)

// ParseAssignments splits KEY=VALUE arguments into a map. Later assignments
// win.
func ParseAssignments(args []string) (map[string]string, error) {
	out := make(map[string]string, len(args))
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, errors.WithHint(
				errors.Newf("invalid assignment %q", arg),
				"options are passed as KEY=VALUE, e.g. arch=arm64")
		}
		out[key] = value
	}
	return out, nil
}
