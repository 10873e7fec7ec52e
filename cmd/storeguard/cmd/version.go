package cmd

import (
	"github.com/spf13/cobra"
	version "github.com/storeguard/storeguard/cmd"
	"github.com/storeguard/storeguard/pkg/log"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Args:  cobra.NoArgs,
	Short: "Prints version of storeguard",
	Run: func(cmd *cobra.Command, args []string) {
		logger := log.GetLogger()
		logger.Infof("storeguard version: %s\n", version.GetVersion())
	},
}
