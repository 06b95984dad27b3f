package env

import (
	"maps"
	"slices"
	"strings"

	"github.com/cockroachdb/errors"
)

// Flag collections appended to during configuration.
const (
	CPPFLAGS  = "CPPFLAGS"
	CCFLAGS   = "CCFLAGS"
	CFLAGS    = "CFLAGS"
	LINKFLAGS = "LINKFLAGS"
	CPPPATH   = "CPPPATH"
)

// Tool construction variables.
const (
	CC        = "CC"
	CXX       = "CXX"
	AR        = "AR"
	RANLIB    = "RANLIB"
	SCompiler = "S_compiler"
)

// FlagKeys lists the flag collections in export order.
var FlagKeys = []string{CPPFLAGS, CCFLAGS, CFLAGS, LINKFLAGS, CPPPATH}

// ToolKeys lists the tool variables in export order.
var ToolKeys = []string{CC, CXX, AR, RANLIB, SCompiler}

const maxSubstDepth = 16

// ----------------------------------------------------------------------------
// Environment
// ----------------------------------------------------------------------------

// Environment is the mutable build-environment record shared between the
// option loader, the platform configurator and the exporters.
//
// Flag lists are append-only. Values may hold $NAME references which are
// expanded lazily by Subst.
type Environment struct {
	values map[string]string
	lists  map[string][]string
	env    map[string]string
	attrs  map[string]string
}

// New returns an empty environment.
func New() *Environment {
	return &Environment{
		values: make(map[string]string),
		lists:  make(map[string][]string),
		env:    make(map[string]string),
		attrs:  make(map[string]string),
	}
}

// Set assigns a construction value.
func (e *Environment) Set(key, value string) { e.values[key] = value }

// Get returns the raw, unexpanded value for key.
func (e *Environment) Get(key string) (string, bool) {
	v, ok := e.values[key]
	return v, ok
}

// Value returns the raw value for key or "" when unset.
func (e *Environment) Value(key string) string { return e.values[key] }

// Has reports whether key holds a construction value.
func (e *Environment) Has(key string) bool {
	_, ok := e.values[key]
	return ok
}

// Delete removes a construction value.
func (e *Environment) Delete(key string) { delete(e.values, key) }

// Bool interprets the value at key as a boolean. Unset keys are false.
func (e *Environment) Bool(key string) (bool, error) {
	v, ok := e.values[key]
	if !ok {
		return false, nil
	}
	b, err := ParseBool(v)
	if err != nil {
		return false, errors.Wrapf(err, "option %s", key)
	}
	return b, nil
}

// Append adds items to the end of the flag list at key.
func (e *Environment) Append(key string, items ...string) {
	e.lists[key] = append(e.lists[key], items...)
}

// List returns a copy of the flag list at key.
func (e *Environment) List(key string) []string {
	return slices.Clone(e.lists[key])
}

// ListKeys returns the names of all non-empty flag lists, sorted.
func (e *Environment) ListKeys() []string {
	keys := make([]string, 0, len(e.lists))
	for k, v := range e.lists {
		if len(v) > 0 {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)
	return keys
}

// SetEnv assigns a variable in the process environment used for tools.
func (e *Environment) SetEnv(key, value string) { e.env[key] = value }

// Env returns a process environment variable for tools.
func (e *Environment) Env(key string) string { return e.env[key] }

// EnvVars returns a copy of the tool process environment.
func (e *Environment) EnvVars() map[string]string { return maps.Clone(e.env) }

// SetAttr records a free-form attribute read by other build modules.
func (e *Environment) SetAttr(key, value string) { e.attrs[key] = value }

// Attr returns a free-form attribute.
func (e *Environment) Attr(key string) string { return e.attrs[key] }

// Attrs returns a copy of all attributes.
func (e *Environment) Attrs() map[string]string { return maps.Clone(e.attrs) }

// Values returns a copy of all raw construction values.
func (e *Environment) Values() map[string]string { return maps.Clone(e.values) }

// ----------------------------------------------------------------------------
// Substitution
// ----------------------------------------------------------------------------

// Subst expands $NAME and ${NAME} references against the construction
// values. Expansion is recursive and unknown names expand to "". "$$"
// yields a literal dollar sign.
func (e *Environment) Subst(s string) string {
	return e.subst(s, 0)
}

// SubstList expands every item of list.
func (e *Environment) SubstList(list []string) []string {
	out := make([]string, len(list))
	for i, s := range list {
		out[i] = e.Subst(s)
	}
	return out
}

func (e *Environment) subst(s string, depth int) string {
	if depth >= maxSubstDepth || !strings.Contains(s, "$") {
		return s
	}

	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '$' || i+1 >= len(s) {
			b.WriteByte(c)
			continue
		}

		next := s[i+1]
		switch {
		case next == '$':
			b.WriteByte('$')
			i++
		case next == '{':
			end := strings.IndexByte(s[i+2:], '}')
			if end < 0 {
				b.WriteString(s[i:])
				return b.String()
			}
			name := s[i+2 : i+2+end]
			b.WriteString(e.subst(e.values[name], depth+1))
			i += end + 2
		case isNameStart(next):
			j := i + 1
			for j < len(s) && isNameChar(s[j]) {
				j++
			}
			b.WriteString(e.subst(e.values[s[i+1:j]], depth+1))
			i = j - 1
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

func isNameStart(c byte) bool {
	return c == '_' || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

func isNameChar(c byte) bool {
	return isNameStart(c) || ('0' <= c && c <= '9')
}
