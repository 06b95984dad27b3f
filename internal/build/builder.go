package build

import (
	"context"
	"io"
	"os"
	"os/exec"
	"slices"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/qntx/platconf/internal/env"
	"github.com/qntx/platconf/internal/logger"
	"github.com/qntx/platconf/internal/option"
	"github.com/qntx/platconf/internal/platform"
)

// defaultPath seeds the tool PATH when the host has none.
const defaultPath = "/usr/local/bin:/opt/bin:/bin:/usr/bin"

var (
	ErrCannotBuild     = errors.New("platform cannot be built on this host")
	ErrUnsupportedArch = errors.New("unsupported architecture")
	ErrNoCommand       = errors.New("no command given")
)

// Builder resolves options for one platform into a build environment.
type Builder struct {
	platform platform.Platform
	opts     *Options
	host     platform.Host

	Stdout io.Writer
	Stderr io.Writer
}

// New creates a Builder for p. opts must already be normalized.
func New(p platform.Platform, opts *Options, host platform.Host) *Builder {
	return &Builder{platform: p, opts: opts, host: host, Stdout: os.Stdout, Stderr: os.Stderr}
}

// Configure seeds a fresh environment from the options and runs the
// platform configurator over it.
func (b *Builder) Configure() (*env.Environment, error) {
	p := b.platform
	if !p.IsActive() {
		return nil, errors.Newf("platform %s is not active", p.Name())
	}
	if !p.CanBuild(b.host) {
		if b.opts.Strict {
			return nil, errors.WithHint(
				errors.Wrapf(ErrCannotBuild, "%s on %s", p.DisplayName(), b.host.OS),
				"drop --strict to print the configuration anyway")
		}
		logger.Logger.Warnw("platform cannot be built on this host",
			"platform", p.Name(), "host", b.host.OS)
	}

	e := env.New()
	path, ok := b.host.Lookup("PATH")
	if !ok || path == "" {
		path = defaultPath
	}
	e.SetEnv("PATH", path)

	if err := platform.Seed(p, e, b.opts.Values); err != nil {
		return nil, err
	}
	if err := b.checkArch(e.Value(option.Arch)); err != nil {
		return nil, err
	}

	logger.Logger.Debugw("resolved options", "platform", p.Name(), "values", e.Values())

	if err := p.Configure(e, b.host); err != nil {
		return nil, errors.Wrapf(err, "configure %s", p.Name())
	}
	return e, nil
}

func (b *Builder) checkArch(arch string) error {
	if !b.opts.Strict || arch == "" {
		return nil
	}
	archs := b.platform.Archs()
	if slices.Contains(archs, arch) {
		return nil
	}
	return errors.WithHintf(
		errors.Wrapf(ErrUnsupportedArch, "%q for %s", arch, b.platform.DisplayName()),
		"supported: %s", strings.Join(archs, ", "))
}

// Result configures and expands the environment.
func (b *Builder) Result() (*Result, error) {
	e, err := b.Configure()
	if err != nil {
		return nil, err
	}
	return NewResult(b.opts.Name, b.platform.Name(), e, b.opts.Root), nil
}

// Run executes argv with the configured toolchain exported into its
// environment.
func (b *Builder) Run(ctx context.Context, argv []string) error {
	if len(argv) == 0 {
		return ErrNoCommand
	}

	r, err := b.Result()
	if err != nil {
		return err
	}

	vars := r.Environ()
	logger.Logger.Infow("exec", "argv", argv, "env", vars)

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Env = append(os.Environ(), vars...)
	cmd.Stdout = b.Stdout
	cmd.Stderr = b.Stderr
	return cmd.Run()
}
