// Package flags provides a way to manage global flags for the application.
package flags

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"github.com/storeguard/storeguard/pkg/machine"
	"github.com/storeguard/storeguard/pkg/nixstore"
)

// GlobalFlags holds the global flag values for the application.
type GlobalFlags struct {
	LogLevel     string
	LogFormatter string
	Target       string
	StoreDir     string
}

// SetGlobalFlags initializes and binds global flags using the provided FlagSet.
// It returns a pointer to the initialized GlobalFlags struct.
func SetGlobalFlags(flags *pflag.FlagSet) *GlobalFlags {
	globalFlags := &GlobalFlags{}

	flags.StringVarP(&globalFlags.LogLevel, "log-level", "l", "info", "valid log levels: debug, info(default), warn/warning, error, fatal")
	flags.StringVarP(&globalFlags.LogFormatter, "log-formatter", "e", "text", "valid log formatters: json, text(default)")
	flags.StringVarP(&globalFlags.Target, "target", "t", machine.LocalTarget, "machine to inspect: local or ssh://[user@]host[:port]")
	flags.StringVar(&globalFlags.StoreDir, "store-dir", nixstore.DefaultStoreDir, "root directory of the nix store on the target")
	return globalFlags
}

// ValidateGlobalFlags validates the global flags used in the application.
func (globalFlags *GlobalFlags) ValidateGlobalFlags() error {
	validLogLevels := map[string]bool{
		"debug":   true,
		"info":    true,
		"warn":    true,
		"warning": true,
		"error":   true,
		"fatal":   true,
	}

	validLogFormatters := map[string]bool{
		"json": true,
		"text": true,
	}

	if !validLogLevels[globalFlags.LogLevel] {
		return fmt.Errorf("invalid log level: %s", globalFlags.LogLevel)
	}

	if !validLogFormatters[globalFlags.LogFormatter] {
		return fmt.Errorf("invalid log formatter: %s", globalFlags.LogFormatter)
	}

	if _, err := machine.ParseSSHTarget(globalFlags.Target); err != nil {
		return err
	}

	if globalFlags.StoreDir == "" {
		return fmt.Errorf("store dir must not be empty")
	}

	return nil
}

// GetFlagValuesFromEnvVar reads the environment variables for flags left at
// their default values.
func (globalFlags *GlobalFlags) GetFlagValuesFromEnvVar(logger *logrus.Logger) {
	if globalFlags.Target == machine.LocalTarget {
		if targetEnv := os.Getenv("STOREGUARD_TARGET"); targetEnv != "" {
			logger.Debugf("Setting target from environment variable, STOREGUARD_TARGET=%s", targetEnv)
			globalFlags.Target = targetEnv
		}
	}

	if globalFlags.StoreDir == nixstore.DefaultStoreDir {
		if storeDirEnv := os.Getenv("STOREGUARD_STORE_DIR"); storeDirEnv != "" {
			logger.Debugf("Setting store dir from environment variable, STOREGUARD_STORE_DIR=%s", storeDirEnv)
			globalFlags.StoreDir = storeDirEnv
		}
	}
}
