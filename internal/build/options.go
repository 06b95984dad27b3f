package build

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/qntx/platconf/internal/option"
)

// DefaultPlatform is used when no platform is selected.
const DefaultPlatform = "iphone"

// ----------------------------------------------------------------------------
// Format
// ----------------------------------------------------------------------------

// Format selects how a resolved configuration is printed.
type Format string

const (
	FormatText  Format = "text"
	FormatShell Format = "shell"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
	FormatTOML  Format = "toml"
)

// Formats lists every supported output format.
var Formats = []Format{FormatText, FormatShell, FormatJSON, FormatYAML, FormatTOML}

func (f Format) Valid() bool {
	switch f {
	case FormatText, FormatShell, FormatJSON, FormatYAML, FormatTOML:
		return true
	}
	return false
}

// ----------------------------------------------------------------------------
// Options
// ----------------------------------------------------------------------------

// Options configures one platform configuration run.
type Options struct {
	// Selection
	Name     string
	Platform string

	// Option values, KEY -> VALUE, layered over declared defaults
	Values map[string]string

	// Output
	Root   string
	Format Format

	// Behavior
	Strict bool
}

// Normalize applies defaults for unset fields.
func (o *Options) Normalize() {
	if o.Platform == "" {
		o.Platform = DefaultPlatform
	}
	if o.Format == "" {
		o.Format = FormatText
	}
	if o.Values == nil {
		o.Values = map[string]string{}
	}
	if o.Root == "" {
		if wd, err := os.Getwd(); err == nil {
			o.Root = wd
		}
	}
	if o.Root != "" {
		if abs, err := filepath.Abs(o.Root); err == nil {
			o.Root = abs
		} else {
			o.Root = filepath.Clean(o.Root)
		}
	}
}

// Validate checks option constraints.
func (o *Options) Validate() error {
	if !o.Format.Valid() {
		names := make([]string, len(Formats))
		for i, f := range Formats {
			names[i] = string(f)
		}
		return errors.WithHintf(
			errors.Newf("invalid format: %q", o.Format),
			"supported formats: %s", strings.Join(names, ", "))
	}
	return nil
}

// Merge copies values over o's values; entries in values win. A "platform"
// entry selects the platform instead of becoming an option value.
func (o *Options) Merge(values map[string]string) {
	if o.Values == nil {
		o.Values = make(map[string]string, len(values))
	}
	for k, v := range values {
		if k == option.Platform {
			o.Platform = v
			continue
		}
		o.Values[k] = v
	}
}
