package cli

import (
	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/qntx/platconf/internal/build"
	"github.com/qntx/platconf/internal/platform"
)

var (
	xFlags  configFlags
	execCmd = &cobra.Command{
		Use:   "exec [KEY=VALUE...] -- command [args...]",
		Short: "Run a command with the resolved toolchain in its environment",
		Long: `Exec resolves one configuration and runs command with CC, CXX, AR, RANLIB,
CPPFLAGS, CFLAGS, CXXFLAGS, LDFLAGS and the tool environment exported.

Everything after -- is the command line. Exactly one profile must be
selected when platconf.toml defines several.`,
		Example: `  platconf exec arch=arm64 -- make -j8
  platconf exec -p simulator -- ./configure --host=x86_64-apple-darwin`,
		RunE: runExec,
	}
)

func init() {
	addConfigFlags(execCmd, &xFlags)
	rootCmd.AddCommand(execCmd)
}

func runExec(cmd *cobra.Command, args []string) error {
	assignments, argv := splitExecArgs(args, cmd.ArgsLenAtDash())
	if len(argv) == 0 {
		return errors.WithHint(build.ErrNoCommand, "separate the command with --, e.g. platconf exec -- make")
	}

	optsList, err := loadOptions(cmd, &xFlags, assignments)
	if err != nil {
		return err
	}
	if len(optsList) != 1 {
		return errors.WithHint(
			errors.Newf("exec needs exactly one profile, %d selected", len(optsList)),
			"pick one with --profile")
	}
	opts := optsList[0]

	p, err := platform.Lookup(opts.Platform)
	if err != nil {
		return err
	}

	b := build.New(p, opts, platform.CurrentHost())
	b.Stdout = cmd.OutOrStdout()
	b.Stderr = cmd.ErrOrStderr()
	return b.Run(cmd.Context(), argv)
}

// splitExecArgs separates KEY=VALUE assignments from the command after "--".
func splitExecArgs(args []string, dash int) (assignments, argv []string) {
	if dash < 0 {
		return args, nil
	}
	return args[:dash], args[dash:]
}
