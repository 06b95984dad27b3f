package cli

import (
	"fmt"
	"io"
	"slices"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/qntx/platconf/internal/build"
	"github.com/qntx/platconf/internal/env"
	"github.com/qntx/platconf/internal/option"
	"github.com/qntx/platconf/internal/platform"
	"github.com/qntx/platconf/internal/tui"
	"github.com/qntx/platconf/internal/ui"
)

// configFlags holds the flags shared by every command that resolves a
// configuration.
type configFlags struct {
	config      string
	profiles    []string
	format      string
	interactive bool

	arch   string
	target string
	bits   string
	lto    bool

	opts build.Options
}

var (
	cFlags       configFlags
	configureCmd = &cobra.Command{
		Use:   "configure [KEY=VALUE...]",
		Short: "Resolve and print the build environment of a platform",
		Long: `Configure resolves build options for a platform and prints the resulting
tools, flag lists and tool environment.

When platconf.toml defines profiles and --profile is not given, every profile
is configured in order. Machine readable formats (shell, json, yaml, toml)
are written to stdout.`,
		Example: `  platconf configure arch=x86_64 target=release
  platconf configure --profile device -f shell
  eval "$(platconf configure -f shell)"`,
		RunE: runConfigure,
	}
)

func init() {
	addConfigFlags(configureCmd, &cFlags)
	f := configureCmd.Flags()
	f.StringVarP(&cFlags.format, "format", "f", string(build.FormatText), "output format: text, shell, json, yaml or toml")
	f.BoolVarP(&cFlags.interactive, "interactive", "i", false, "select options interactively")

	rootCmd.AddCommand(configureCmd)
}

func addConfigFlags(cmd *cobra.Command, cf *configFlags) {
	f := cmd.Flags()
	f.StringVarP(&cf.config, "config", "c", "", "config file path (default: platconf.toml)")
	f.StringSliceVarP(&cf.profiles, "profile", "p", nil, "config profiles (comma-separated or repeated)")
	f.StringVar(&cf.opts.Platform, "platform", "", "target platform (default: iphone)")
	f.StringVar(&cf.opts.Root, "root", "", "project root for '#' paths (default: current directory)")
	f.BoolVar(&cf.opts.Strict, "strict", false, "treat unsupported hosts and architectures as errors")
	f.StringVar(&cf.arch, "arch", "", "target architecture")
	f.StringVar(&cf.target, "target", "", "compilation target: debug, release_debug or release")
	f.StringVar(&cf.bits, "bits", "", "target bits: default, 32 or 64")
	f.BoolVar(&cf.lto, "lto", false, "enable link time optimization")
}

func runConfigure(cmd *cobra.Command, args []string) error {
	optsList, err := loadOptions(cmd, &cFlags, args)
	if err != nil {
		return err
	}
	if err := checkMultiProfile(optsList); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	defer ui.Redirect(out)()
	for i, opts := range optsList {
		if err := configureOne(out, opts, i, len(optsList)); err != nil {
			if opts.Name != "" {
				return errors.Wrapf(err, "profile %q", opts.Name)
			}
			return err
		}
	}
	return nil
}

func configureOne(out io.Writer, opts *build.Options, idx, total int) error {
	p, err := platform.Lookup(opts.Platform)
	if err != nil {
		return err
	}
	if cFlags.interactive {
		if opts, err = tui.SelectOptions(p, opts); err != nil {
			return err
		}
	}

	r, err := build.New(p, opts, platform.CurrentHost()).Result()
	if err != nil {
		return err
	}

	switch opts.Format {
	case build.FormatText:
		ui.Profile(idx, total, opts.Name, p.DisplayName())
		printResult(r)
		return nil
	case build.FormatYAML:
		if idx > 0 {
			fmt.Fprintln(out, "---")
		}
	}
	return r.Write(out, opts.Format)
}

// checkMultiProfile rejects output formats that cannot hold more than one
// result in a single stream.
func checkMultiProfile(optsList []*build.Options) error {
	if len(optsList) < 2 {
		return nil
	}
	for _, o := range optsList {
		switch o.Format {
		case build.FormatText, build.FormatYAML:
		default:
			return errors.WithHint(
				errors.Newf("format %s cannot hold %d profiles", o.Format, len(optsList)),
				"pick one with --profile, or use -f yaml")
		}
	}
	return nil
}

// loadOptions layers config file values, KEY=VALUE arguments and explicit
// flags, in increasing precedence, into one Options per selected profile.
func loadOptions(cmd *cobra.Command, cf *configFlags, args []string) ([]*build.Options, error) {
	assigned, err := option.ParseAssignments(args)
	if err != nil {
		return nil, err
	}

	cfg, err := build.LoadConfig(cf.config)
	if err != nil {
		if !errors.Is(err, build.ErrConfigNotFound) || cmd.Flags().Changed("config") {
			return nil, errors.Wrap(err, "config")
		}
	}

	var optsList []*build.Options
	if cfg != nil {
		if optsList, err = cfg.ToOptions(cf.profiles); err != nil {
			return nil, errors.Wrap(err, "config")
		}
	} else {
		if len(cf.profiles) > 0 {
			return nil, errors.WithHintf(
				errors.Newf("profile %q requires a config file", cf.profiles[0]),
				"create %s or pass --config", build.ConfigFile)
		}
		optsList = []*build.Options{{}}
	}

	for _, opts := range optsList {
		opts.Merge(assigned)
		applyFlagOverrides(cmd, cf, opts)
		opts.Normalize()
		if err := opts.Validate(); err != nil {
			return nil, err
		}
	}
	return optsList, nil
}

func applyFlagOverrides(cmd *cobra.Command, cf *configFlags, opts *build.Options) {
	f := cmd.Flags()

	if f.Changed("platform") {
		opts.Platform = cf.opts.Platform
	}
	if f.Changed("root") {
		opts.Root = cf.opts.Root
	}
	if f.Changed("strict") {
		opts.Strict = cf.opts.Strict
	}
	if f.Lookup("format") != nil {
		opts.Format = build.Format(cf.format)
	}

	values := map[string]string{}
	if f.Changed("arch") {
		values[option.Arch] = cf.arch
	}
	if f.Changed("target") {
		values[option.Target] = cf.target
	}
	if f.Changed("bits") {
		values[option.Bits] = cf.bits
	}
	if f.Changed("lto") {
		values[option.UseLTO] = env.FormatBool(cf.lto)
	}
	opts.Merge(values)
}

// printResult renders r for humans.
func printResult(r *build.Result) {
	ui.Header("Options")
	for _, k := range sortedKeys(r.Options) {
		ui.Label(k, r.Options[k])
	}

	ui.Header("Tools")
	for _, k := range env.ToolKeys {
		if v, ok := r.Tools[k]; ok {
			ui.Label(k, v)
		}
	}

	ui.Header("Flags")
	for _, k := range env.FlagKeys {
		if v, ok := r.Flags[k]; ok {
			ui.List(k, v)
		}
	}

	if len(r.Env) > 0 {
		ui.Header("Environment")
		for _, k := range sortedKeys(r.Env) {
			ui.Label(k, r.Env[k])
		}
	}

	if len(r.Attrs) > 0 {
		ui.Header("Attributes")
		for _, k := range sortedKeys(r.Attrs) {
			ui.Label(k, r.Attrs[k])
		}
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
