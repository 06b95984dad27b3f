package build

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/BurntSushi/toml"
	"github.com/cockroachdb/errors"
)

const ConfigFile = "platconf.toml"

var ErrConfigNotFound = errors.New("config file not found")

// Config represents the platconf.toml configuration file.
type Config struct {
	Default  ConfigDefault   `toml:"default"`
	Profiles []ConfigProfile `toml:"profile"`

	// Dir is the directory holding the config file. Relative roots resolve
	// against it and it is the default root.
	Dir string `toml:"-"`
}

// ConfigDefault holds values inherited by all profiles unless overridden.
type ConfigDefault struct {
	Platform string         `toml:"platform"`
	Root     string         `toml:"root"`
	Strict   bool           `toml:"strict"`
	Options  map[string]any `toml:"options"`
}

// ConfigProfile is a named option set, e.g. one per architecture.
type ConfigProfile struct {
	Name     string         `toml:"name"`
	Platform string         `toml:"platform"`
	Root     string         `toml:"root"`
	Strict   *bool          `toml:"strict"`
	Options  map[string]any `toml:"options"`
}

// LoadConfig loads configuration from path, or searches upward from cwd.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		if path = findConfig(); path == "" {
			return nil, ErrConfigNotFound
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "parse")
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	cfg.Dir = filepath.Dir(path)
	return &cfg, nil
}

func findConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}
	for dir := cwd; ; {
		path := filepath.Join(dir, ConfigFile)
		if _, err := os.Stat(path); err == nil {
			return path
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// ToOptions converts selected profiles to an Options slice. With no names
// every profile is selected; with no profiles the defaults alone are used.
func (c *Config) ToOptions(names []string) ([]*Options, error) {
	profiles, err := c.selectProfiles(names)
	if err != nil {
		return nil, err
	}

	if len(profiles) == 0 {
		o, err := c.defaultOptions()
		if err != nil {
			return nil, err
		}
		return []*Options{o}, nil
	}

	opts := make([]*Options, len(profiles))
	for i, p := range profiles {
		if opts[i], err = c.toOptions(p); err != nil {
			return nil, errors.Wrapf(err, "profile %q", p.Name)
		}
	}
	return opts, nil
}

func (c *Config) selectProfiles(names []string) ([]*ConfigProfile, error) {
	if len(names) == 0 {
		profiles := make([]*ConfigProfile, len(c.Profiles))
		for i := range c.Profiles {
			profiles[i] = &c.Profiles[i]
		}
		return profiles, nil
	}

	profiles := make([]*ConfigProfile, 0, len(names))
	for _, name := range names {
		found := false
		for i := range c.Profiles {
			if c.Profiles[i].Name == name {
				profiles = append(profiles, &c.Profiles[i])
				found = true
				break
			}
		}
		if !found {
			return nil, errors.Newf("profile %q not found", name)
		}
	}
	return profiles, nil
}

func (c *Config) defaultOptions() (*Options, error) {
	d := &c.Default
	values, err := stringValues(d.Options)
	if err != nil {
		return nil, err
	}
	o := &Options{
		Platform: d.Platform,
		Root:     c.root(d.Root),
		Strict:   d.Strict,
	}
	o.Merge(values)
	return o, nil
}

func (c *Config) toOptions(p *ConfigProfile) (*Options, error) {
	o, err := c.defaultOptions()
	if err != nil {
		return nil, err
	}
	values, err := stringValues(p.Options)
	if err != nil {
		return nil, err
	}

	o.Name = p.Name
	o.Platform = or(p.Platform, o.Platform)
	if p.Root != "" {
		o.Root = c.root(p.Root)
	}
	if p.Strict != nil {
		o.Strict = *p.Strict
	}
	o.Merge(values)
	return o, nil
}

// root resolves a configured root against the config file directory.
func (c *Config) root(path string) string {
	switch {
	case path == "":
		return c.Dir
	case filepath.IsAbs(path) || c.Dir == "":
		return path
	default:
		return filepath.Join(c.Dir, path)
	}
}

// stringValues converts TOML option values to their command line spelling.
func stringValues(in map[string]any) (map[string]string, error) {
	out := make(map[string]string, len(in))
	for k, v := range in {
		switch v := v.(type) {
		case string:
			out[k] = v
		case bool:
			out[k] = strconv.FormatBool(v)
		case int64:
			out[k] = strconv.FormatInt(v, 10)
		case float64:
			out[k] = strconv.FormatFloat(v, 'f', -1, 64)
		default:
			return nil, errors.Newf("option %s: unsupported value type %T", k, v)
		}
	}
	return out, nil
}

func or(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
