package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/qntx/platconf/internal/build"
	"github.com/qntx/platconf/internal/option"
	"github.com/qntx/platconf/internal/platform"
	"github.com/qntx/platconf/internal/ui"
)

var optionsCmd = &cobra.Command{
	Use:   "options [platform]",
	Short: "List the options a platform accepts",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runOptions,
}

func init() {
	rootCmd.AddCommand(optionsCmd)
}

func runOptions(cmd *cobra.Command, args []string) error {
	name := build.DefaultPlatform
	if len(args) == 1 {
		name = args[0]
	}
	p, err := platform.Lookup(name)
	if err != nil {
		return err
	}

	forced := p.Flags()
	tbl := ui.NewTable("NAME", "KIND", "DEFAULT", "HELP")
	for _, o := range platform.OptionSet(p).All() {
		tbl.AddRow(o.Name, o.Kind.String(), optionDefault(o, forced), optionHelp(o))
	}

	defer ui.Redirect(cmd.OutOrStdout())()
	ui.Header(p.DisplayName() + " options")
	tbl.Render()
	return nil
}

func optionDefault(o option.Option, forced map[string]string) string {
	if v, ok := forced[o.Name]; ok {
		return v + " (forced)"
	}
	if o.Default == "" {
		return `""`
	}
	return o.Default
}

func optionHelp(o option.Option) string {
	if o.Kind != option.KindEnum {
		return o.Help
	}
	return o.Help + " (" + strings.Join(o.Allowed, "|") + ")"
}
