package cmd

import (
	"github.com/spf13/cobra"
)

// Version is overridden at startup from the embedded VERSION file.
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:     "mediasort",
	Short:   "Sort photos and videos into date-named folders",
	Version: Version,
}

func Execute() error {
	return rootCmd.Execute()
}

// ApplyVersion re-applies Version to the root command after it was updated
// from the embedded VERSION file.
func ApplyVersion() {
	rootCmd.Version = Version
}
