package build

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/cockroachdb/errors"
	"github.com/kballard/go-shellquote"
	"gopkg.in/yaml.v3"

	"github.com/qntx/platconf/internal/env"
)

// Result is a fully expanded configuration ready for export.
type Result struct {
	Name     string              `json:"name,omitempty" yaml:"name,omitempty" toml:"name,omitempty"`
	Platform string              `json:"platform" yaml:"platform" toml:"platform"`
	Options  map[string]string   `json:"options" yaml:"options" toml:"options"`
	Tools    map[string]string   `json:"tools" yaml:"tools" toml:"tools"`
	Flags    map[string][]string `json:"flags" yaml:"flags" toml:"flags"`
	Env      map[string]string   `json:"env,omitempty" yaml:"env,omitempty" toml:"env,omitempty"`
	Attrs    map[string]string   `json:"attrs,omitempty" yaml:"attrs,omitempty" toml:"attrs,omitempty"`
}

// Var is one exported variable.
type Var struct {
	Name  string
	Value string
}

// NewResult expands every value and flag in e. CPPPATH entries starting with
// '#' are resolved against root.
func NewResult(name, platform string, e *env.Environment, root string) *Result {
	r := &Result{
		Name:     name,
		Platform: platform,
		Options:  make(map[string]string),
		Tools:    make(map[string]string),
		Flags:    make(map[string][]string),
		Env:      e.EnvVars(),
		Attrs:    e.Attrs(),
	}

	for k, v := range e.Values() {
		if slices.Contains(env.ToolKeys, k) {
			r.Tools[k] = e.Subst(v)
			continue
		}
		r.Options[k] = e.Subst(v)
	}

	for _, k := range e.ListKeys() {
		items := e.SubstList(e.List(k))
		if k == env.CPPPATH {
			items = resolveTopDir(items, root)
		}
		r.Flags[k] = items
	}
	return r
}

func resolveTopDir(paths []string, root string) []string {
	out := make([]string, len(paths))
	for i, p := range paths {
		if rest, ok := strings.CutPrefix(p, "#"); ok {
			p = filepath.Join(root, filepath.FromSlash(rest))
		}
		out[i] = p
	}
	return out
}

// Exports returns the conventional make-style variables followed by the
// tool process environment, in a stable order.
func (r *Result) Exports() []Var {
	var vars []Var
	for _, k := range env.ToolKeys {
		if v, ok := r.Tools[k]; ok {
			vars = append(vars, Var{k, v})
		}
	}

	cppflags := slices.Clone(r.Flags[env.CPPFLAGS])
	for _, inc := range r.Flags[env.CPPPATH] {
		cppflags = append(cppflags, "-I"+inc)
	}
	cflags := append(slices.Clone(r.Flags[env.CCFLAGS]), r.Flags[env.CFLAGS]...)

	vars = append(vars,
		Var{"CPPFLAGS", shellquote.Join(cppflags...)},
		Var{"CFLAGS", shellquote.Join(cflags...)},
		Var{"CXXFLAGS", shellquote.Join(r.Flags[env.CCFLAGS]...)},
		Var{"LDFLAGS", shellquote.Join(r.Flags[env.LINKFLAGS]...)},
	)

	for _, k := range sortedKeys(r.Env) {
		vars = append(vars, Var{k, r.Env[k]})
	}
	return vars
}

// Environ renders Exports as KEY=VALUE pairs.
func (r *Result) Environ() []string {
	vars := r.Exports()
	out := make([]string, len(vars))
	for i, v := range vars {
		out[i] = v.Name + "=" + v.Value
	}
	return out
}

// ErrUnsupportedFormat is returned by Write for formats it cannot render.
var ErrUnsupportedFormat = errors.New("unsupported format")

// Write renders r to w in a machine readable format.
func (r *Result) Write(w io.Writer, f Format) error {
	switch f {
	case FormatShell:
		for _, v := range r.Exports() {
			if _, err := fmt.Fprintf(w, "export %s=%s\n", v.Name, shellquote.Join(v.Value)); err != nil {
				return err
			}
		}
		return nil
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return err
		}
		return enc.Close()
	case FormatTOML:
		return toml.NewEncoder(w).Encode(r)
	default:
		return errors.Wrapf(ErrUnsupportedFormat, "%q", f)
	}
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
