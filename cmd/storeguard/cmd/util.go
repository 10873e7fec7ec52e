package cmd

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/storeguard/storeguard/cmd/storeguard/cmd/flags"
	"github.com/storeguard/storeguard/pkg/machine"
	"github.com/storeguard/storeguard/pkg/nixstore"
)

// newMachine connects to the machine selected by the target flag.
func newMachine(logger *logrus.Logger, globalFlags *flags.GlobalFlags) (*machine.Machine, error) {
	executor, err := machine.ParseTarget(globalFlags.Target)
	if err != nil {
		return nil, fmt.Errorf("failed to set up target %s: %w", globalFlags.Target, err)
	}
	return machine.NewMachine(logger, executor), nil
}

func newStore(logger *logrus.Logger, globalFlags *flags.GlobalFlags, m *machine.Machine) *nixstore.Store {
	return nixstore.NewStore(logger, m, nixstore.Config{StoreDir: globalFlags.StoreDir})
}
