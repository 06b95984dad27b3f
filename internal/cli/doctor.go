package cli

import (
	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/qntx/platconf/internal/build"
	"github.com/qntx/platconf/internal/env"
	"github.com/qntx/platconf/internal/platform"
	"github.com/qntx/platconf/internal/toolchain"
	"github.com/qntx/platconf/internal/ui"
)

var (
	dFlags    configFlags
	doctorCmd = &cobra.Command{
		Use:   "doctor [KEY=VALUE...]",
		Short: "Check that the resolved toolchain and SDK exist",
		Long: `Doctor resolves the configuration like configure and checks that every
tool binary and SDK directory it names exists on this host.`,
		RunE: runDoctor,
	}
)

func init() {
	addConfigFlags(doctorCmd, &dFlags)
	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(cmd *cobra.Command, args []string) error {
	optsList, err := loadOptions(cmd, &dFlags, args)
	if err != nil {
		return err
	}

	defer ui.Redirect(cmd.OutOrStdout())()

	var failed error
	for i, opts := range optsList {
		p, err := platform.Lookup(opts.Platform)
		if err != nil {
			return err
		}
		r, err := build.New(p, opts, platform.CurrentHost()).Result()
		if err != nil {
			return err
		}

		ui.Profile(i, len(optsList), opts.Name, p.DisplayName())
		checks, err := collectChecks(p, r)
		if err != nil {
			return err
		}
		for _, c := range checks {
			ui.Check(c.Found, c.Name, c.Path)
		}
		if err := toolchain.Verify(checks); err != nil {
			failed = errors.CombineErrors(failed, err)
			continue
		}
		ui.Success("toolchain complete")
	}
	return failed
}

// collectChecks lists the tool binaries and platform directories of r.
func collectChecks(p platform.Platform, r *build.Result) ([]toolchain.Check, error) {
	var checks []toolchain.Check
	for _, k := range env.ToolKeys {
		command, ok := r.Tools[k]
		if !ok {
			continue
		}
		c, err := toolchain.Tool(k, command, r.Env["PATH"])
		if err != nil {
			return nil, err
		}
		checks = append(checks, c...)
	}

	if l, ok := p.(platform.Locator); ok {
		for _, name := range l.Dirs() {
			checks = append(checks, toolchain.Dir(name, r.Options[name]))
		}
	}
	return checks, nil
}
