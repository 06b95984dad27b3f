package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/qntx/platconf/internal/platform"
	"github.com/qntx/platconf/internal/ui"
)

var platformsCmd = &cobra.Command{
	Use:   "platforms",
	Short: "List registered platforms and whether this host can build them",
	Args:  cobra.NoArgs,
	RunE:  runPlatforms,
}

func init() {
	rootCmd.AddCommand(platformsCmd)
}

func runPlatforms(cmd *cobra.Command, _ []string) error {
	host := platform.CurrentHost()

	tbl := ui.NewTable("NAME", "DISPLAY", "BUILDABLE", "ARCHS")
	for _, p := range platform.All() {
		if !p.IsActive() {
			continue
		}
		tbl.AddRow(p.Name(), p.DisplayName(), yesNo(p.CanBuild(host)), strings.Join(p.Archs(), ","))
	}

	defer ui.Redirect(cmd.OutOrStdout())()
	ui.Header("Platforms on " + host.OS)
	tbl.Render()
	return nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
