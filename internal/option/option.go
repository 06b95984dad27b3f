// Package option declares build options and validates their values.
package option

import (
	"slices"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/qntx/platconf/internal/env"
)

// Kind selects how an option value is validated.
type Kind int

const (
	KindString Kind = iota
	KindBool
	KindEnum
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindEnum:
		return "enum"
	default:
		return "string"
	}
}

// ErrUnknownOption is returned when a value is given for an undeclared option.
var ErrUnknownOption = errors.New("unknown option")

// Option declares a named build option with its default.
type Option struct {
	Name    string
	Help    string
	Default string
	Kind    Kind
	Allowed []string
}

// String declares a free-form option.
func String(name, help, def string) Option {
	return Option{Name: name, Help: help, Default: def, Kind: KindString}
}

// Bool declares a boolean option.
func Bool(name, help string, def bool) Option {
	return Option{Name: name, Help: help, Default: env.FormatBool(def), Kind: KindBool}
}

// Enum declares an option restricted to allowed values.
func Enum(name, help, def string, allowed ...string) Option {
	return Option{Name: name, Help: help, Default: def, Kind: KindEnum, Allowed: allowed}
}

// Validate checks value against the option kind and returns the canonical
// spelling to store.
func (o Option) Validate(value string) (string, error) {
	switch o.Kind {
	case KindBool:
		b, err := env.ParseBool(value)
		if err != nil {
			return "", errors.Wrapf(err, "option %s", o.Name)
		}
		return env.FormatBool(b), nil
	case KindEnum:
		if !slices.Contains(o.Allowed, value) {
			return "", errors.WithHintf(
				errors.Newf("option %s: invalid value %q", o.Name, value),
				"allowed values: %s", strings.Join(o.Allowed, ", "))
		}
	}
	return value, nil
}

// ----------------------------------------------------------------------------
// Set
// ----------------------------------------------------------------------------

// Set is an ordered collection of option declarations. Later declarations
// replace earlier ones with the same name.
type Set struct {
	opts  []Option
	index map[string]int
}

// NewSet builds a Set from one or more declaration lists.
func NewSet(lists ...[]Option) *Set {
	s := &Set{index: make(map[string]int)}
	for _, list := range lists {
		for _, o := range list {
			s.Add(o)
		}
	}
	return s
}

// Add declares o, replacing an earlier declaration of the same name.
func (s *Set) Add(o Option) {
	if i, ok := s.index[o.Name]; ok {
		s.opts[i] = o
		return
	}
	s.index[o.Name] = len(s.opts)
	s.opts = append(s.opts, o)
}

// Lookup returns the declaration for name.
func (s *Set) Lookup(name string) (Option, bool) {
	i, ok := s.index[name]
	if !ok {
		return Option{}, false
	}
	return s.opts[i], true
}

// All returns declarations in declaration order.
func (s *Set) All() []Option {
	return slices.Clone(s.opts)
}

// Defaults returns the declared default for every option.
func (s *Set) Defaults() map[string]string {
	out := make(map[string]string, len(s.opts))
	for _, o := range s.opts {
		out[o.Name] = o.Default
	}
	return out
}

// Resolve layers values over the declared defaults. Each layer overrides the
// previous one. Unknown names and invalid values are errors.
func (s *Set) Resolve(layers ...map[string]string) (map[string]string, error) {
	out := s.Defaults()
	for _, layer := range layers {
		for _, name := range sortedKeys(layer) {
			o, ok := s.Lookup(name)
			if !ok {
				return nil, errors.Wrapf(ErrUnknownOption, "%q", name)
			}
			v, err := o.Validate(layer[name])
			if err != nil {
				return nil, err
			}
			out[name] = v
		}
	}
	return out, nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
