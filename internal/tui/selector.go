package tui

import (
	"slices"

	"github.com/charmbracelet/huh"
	"github.com/cockroachdb/errors"

	"github.com/qntx/platconf/internal/build"
	"github.com/qntx/platconf/internal/env"
	"github.com/qntx/platconf/internal/option"
	"github.com/qntx/platconf/internal/platform"
)

var targets = []struct {
	name, value string
}{
	{"Debug", option.TargetDebug},
	{"Release with debug info", option.TargetReleaseDebug},
	{"Release", option.TargetRelease},
}

// SelectOptions prompts for architecture, target and boolean features of p
// and writes the answers into opts.Values.
func SelectOptions(p platform.Platform, opts *build.Options) (*build.Options, error) {
	set := platform.OptionSet(p)
	current, err := set.Resolve(p.Flags(), opts.Values)
	if err != nil {
		return nil, err
	}

	var (
		arch     = current[option.Arch]
		target   = current[option.Target]
		features = enabledFeatures(set, current)
	)

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Architecture").
				Description("Select the "+p.DisplayName()+" architecture").
				Options(archOptions(p.Archs())...).
				Value(&arch),

			huh.NewSelect[string]().
				Title("Target").
				Description("Optimization and debug level").
				Options(targetOptions()...).
				Value(&target),
		),

		huh.NewGroup(
			huh.NewMultiSelect[string]().
				Title("Features").
				Description("Toggle optional features").
				Options(featureOptions(set)...).
				Value(&features),
		),
	)

	if err := form.Run(); err != nil {
		return nil, errors.Wrap(err, "form")
	}

	values := map[string]string{
		option.Arch:   arch,
		option.Target: target,
	}
	for _, o := range featureList(set) {
		values[o.Name] = env.FormatBool(slices.Contains(features, o.Name))
	}
	opts.Merge(values)
	return opts, nil
}

func archOptions(archs []string) []huh.Option[string] {
	opts := make([]huh.Option[string], 0, len(archs)+1)
	opts = append(opts, huh.NewOption("default (arm64)", ""))
	for _, a := range archs {
		opts = append(opts, huh.NewOption(a, a))
	}
	return opts
}

func targetOptions() []huh.Option[string] {
	opts := make([]huh.Option[string], len(targets))
	for i, t := range targets {
		opts[i] = huh.NewOption(t.name, t.value)
	}
	return opts
}

func featureOptions(set *option.Set) []huh.Option[string] {
	list := featureList(set)
	opts := make([]huh.Option[string], len(list))
	for i, o := range list {
		opts[i] = huh.NewOption(o.Name+" - "+o.Help, o.Name)
	}
	return opts
}

// featureList returns the boolean options offered as toggles.
func featureList(set *option.Set) []option.Option {
	var list []option.Option
	for _, o := range set.All() {
		if o.Kind == option.KindBool && o.Name != option.Tools {
			list = append(list, o)
		}
	}
	return list
}

func enabledFeatures(set *option.Set, values map[string]string) []string {
	var enabled []string
	for _, o := range featureList(set) {
		if on, err := env.ParseBool(values[o.Name]); err == nil && on {
			enabled = append(enabled, o.Name)
		}
	}
	return enabled
}
