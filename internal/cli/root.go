package cli

import (
	"github.com/spf13/cobra"
)

// version is set at build time with -ldflags "-X".
var version = "dev"

var configFile string

var rootCmd = &cobra.Command{
	Use:   "topic-modeler",
	Short: "Find topics in survey comment reports",
	Long: `Converts exported survey reports into comment tables, trains a topic
model on them and exports the comments of selected topics.

File arguments are looked up in the working directory first and in the
configured data directory otherwise.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default ./topic-modeler.yaml)")
}

// Execute runs the command line.
func Execute() error {
	return rootCmd.Execute()
}
