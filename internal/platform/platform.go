// Package platform defines the target platform configurators and the
// registry they are looked up from.
package platform

import (
	"os"
	"runtime"
	"slices"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"

	"github.com/qntx/platconf/internal/env"
	"github.com/qntx/platconf/internal/option"
)

// ErrUnknownPlatform is returned by Lookup for unregistered names.
var ErrUnknownPlatform = errors.New("unknown platform")

// Host describes the machine the configuration runs on.
type Host struct {
	OS      string
	Environ map[string]string
}

// CurrentHost captures the running process's OS and environment.
func CurrentHost() Host {
	return Host{OS: runtime.GOOS, Environ: Environ(os.Environ())}
}

// Environ converts KEY=VALUE pairs into a map.
func Environ(pairs []string) map[string]string {
	out := make(map[string]string, len(pairs))
	for _, kv := range pairs {
		if k, v, ok := strings.Cut(kv, "="); ok {
			out[k] = v
		}
	}
	return out
}

// Lookup returns a host environment variable.
func (h Host) Lookup(key string) (string, bool) {
	v, ok := h.Environ[key]
	return v, ok
}

// Platform configures a build environment for one target.
type Platform interface {
	// Name is the short registry key, e.g. "iphone".
	Name() string
	// DisplayName is the human readable platform name.
	DisplayName() string
	IsActive() bool
	CanBuild(host Host) bool
	// Options declares platform specific options and their defaults.
	Options() []option.Option
	// Flags overrides defaults of common options.
	Flags() map[string]string
	// Archs lists the architectures Configure recognizes.
	Archs() []string
	Configure(e *env.Environment, host Host) error
}

// Locator is implemented by platforms whose toolchain lives in external
// directories. Dirs names the options holding those directories.
type Locator interface {
	Dirs() []string
}

var (
	mu        sync.RWMutex
	platforms = map[string]Platform{}
)

// Register adds p to the registry. Registering a name twice panics.
func Register(p Platform) {
	mu.Lock()
	defer mu.Unlock()
	if _, dup := platforms[p.Name()]; dup {
		panic("platform: duplicate registration of " + p.Name())
	}
	platforms[p.Name()] = p
}

// Lookup returns the platform registered under name.
func Lookup(name string) (Platform, error) {
	mu.RLock()
	defer mu.RUnlock()
	p, ok := platforms[name]
	if !ok {
		return nil, errors.WithHintf(
			errors.Wrapf(ErrUnknownPlatform, "%q", name),
			"available platforms: %s", strings.Join(namesLocked(), ", "))
	}
	return p, nil
}

// All returns registered platforms sorted by name.
func All() []Platform {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]Platform, 0, len(platforms))
	for _, name := range namesLocked() {
		out = append(out, platforms[name])
	}
	return out
}

// Names returns the sorted registry keys.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	return namesLocked()
}

func namesLocked() []string {
	names := make([]string, 0, len(platforms))
	for name := range platforms {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// OptionSet returns the common options overlaid with p's declarations.
func OptionSet(p Platform) *option.Set {
	return option.NewSet(option.Common(), p.Options())
}

// Seed resolves p's options over defaults, p's forced flags and layers, and
// stores the result in e.
func Seed(p Platform, e *env.Environment, layers ...map[string]string) error {
	values, err := OptionSet(p).Resolve(append([]map[string]string{p.Flags()}, layers...)...)
	if err != nil {
		return errors.Wrapf(err, "%s", p.Name())
	}
	for k, v := range values {
		e.Set(k, v)
	}
	e.Set(option.Platform, p.Name())
	return nil
}
