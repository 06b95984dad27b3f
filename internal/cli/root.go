package cli

import (
	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/qntx/platconf/internal/logger"
	"github.com/qntx/platconf/internal/ui"

	// Registered platforms.
	_ "github.com/qntx/platconf/internal/platform/iphone"
)

var (
	verbosity int
	logJSON   bool
)

var rootCmd = &cobra.Command{
	Use:   "platconf",
	Short: "Resolve compiler and linker flags for target platforms",
	Long: `platconf turns build options into the compiler, linker and tool
environment a target platform needs, the way an SCons platform detector does.

Configuration can be loaded from platconf.toml in the current or parent
directories. KEY=VALUE arguments override the file; explicit flags override
both.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(*cobra.Command, []string) error {
		return logger.Initialize(verbosity, logJSON)
	},
	PersistentPostRun: func(*cobra.Command, []string) {
		logger.Sync()
	},
}

// Execute runs the root command and reports any error with its hints.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		ui.Error("%v", err)
		for _, hint := range errors.GetAllHints(err) {
			ui.Step("%s", hint)
		}
	}
	return err
}

func init() {
	f := rootCmd.PersistentFlags()
	f.CountVarP(&verbosity, "verbose", "v", "increase log verbosity (-v info, -vv debug)")
	f.BoolVar(&logJSON, "log-json", false, "emit logs as JSON")
}
