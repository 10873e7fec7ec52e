package cmd

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	version "github.com/storeguard/storeguard/cmd"
	"github.com/storeguard/storeguard/cmd/storeguard/cmd/flags"
	"github.com/storeguard/storeguard/pkg/log"
)

var globalFlags *flags.GlobalFlags

func newRootCommand(logger *logrus.Logger) *cobra.Command {
	return &cobra.Command{
		Use:           "storeguard",
		Version:       version.GetVersion(),
		Short:         "storeguard checks that nix store objects do not contain poison strings.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			globalFlags.GetFlagValuesFromEnvVar(logger)

			err := globalFlags.ValidateGlobalFlags()
			if err != nil {
				return err
			}

			log.Apply(globalFlags.LogLevel, globalFlags.LogFormatter)
			return nil
		},
		Long: `storeguard lists the objects of a nix store on a local or remote machine
and asserts that none of them contain a poison string, such as a secret that
must never be copied into the world-readable store.`,
	}
}

func buildRootCommand(logger *logrus.Logger) *cobra.Command {
	rootCmd := newRootCommand(logger)

	persistentFlags := rootCmd.PersistentFlags()
	globalFlags = flags.SetGlobalFlags(persistentFlags)

	rootCmd.SetVersionTemplate("storeguard version: {{.Version}}\n")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(newCollectCommand(globalFlags))
	rootCmd.AddCommand(newScanCommand(globalFlags))
	return rootCmd
}

// Execute runs the storeguard root command.
func Execute() {
	logger := log.GetLogger()
	rootCmd := buildRootCommand(logger)
	err := rootCmd.Execute()
	if err != nil {
		logger.Errorf("command failed: %s", err)
		os.Exit(1)
	}
}
