package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/storeguard/storeguard/cmd/storeguard/cmd/flags"
	"github.com/storeguard/storeguard/pkg/log"
	"github.com/storeguard/storeguard/pkg/machine"
	"github.com/storeguard/storeguard/pkg/nixstore"
)

type scanCommand struct {
	globalFlags *flags.GlobalFlags
	logger      *logrus.Logger

	machine *machine.Machine

	poison       string
	poisonFile   string
	snapshotFile string
}

func newScanCommand(globalFlags *flags.GlobalFlags) *cobra.Command {
	cmd := &scanCommand{
		globalFlags: globalFlags,
		logger:      log.GetLogger(),
	}

	scanCmd := &cobra.Command{
		Use:   "scan",
		Short: "Assert that no nix store object contains a poison string.",
		Args:  cobra.NoArgs,
		RunE:  cmd.run,
		Example: `storeguard scan --poison-file /run/keys/secret
storeguard -t ssh://root@node-a scan --poison s3cr3t --snapshot-file before.yaml
`,
	}

	scanCmd.Flags().StringVarP(&cmd.poison, "poison", "p", "", "The string that must not appear in any store object")
	scanCmd.Flags().StringVar(&cmd.poisonFile, "poison-file", "", "Read the poison string from this file")
	scanCmd.Flags().StringVar(&cmd.snapshotFile, "snapshot-file", "", "Only scan objects added since this snapshot was taken")
	return scanCmd
}

func (c *scanCommand) run(_ *cobra.Command, args []string) error {
	poison, err := c.resolvePoison()
	if err != nil {
		return fmt.Errorf("scan: %w", err)
	}

	var before *nixstore.Snapshot
	if c.snapshotFile != "" {
		before, err = nixstore.LoadSnapshot(c.snapshotFile)
		if err != nil {
			return fmt.Errorf("scan: %w", err)
		}
	}

	if c.machine == nil {
		m, err := newMachine(c.logger, c.globalFlags)
		if err != nil {
			return fmt.Errorf("scan: %w", err)
		}
		c.machine = m
	}

	ctx := context.Background()
	store := newStore(c.logger, c.globalFlags, c.machine)

	objects, err := store.CollectObjects(ctx)
	if err != nil {
		return fmt.Errorf("scan: %w", err)
	}

	if before != nil {
		if before.StoreDir != store.Dir() {
			c.logger.Warnf("snapshot was taken of %s, scanning %s", before.StoreDir, store.Dir())
		}
		objects = nixstore.NewObjects(before.Set(), objects)
		c.logger.Infof("%d objects were added since the snapshot of %s", objects.Size(), before.TakenAt.Format("2006-01-02 15:04:05"))
	}

	err = store.AssertNotPoisoned(ctx, poison, objects)
	if err != nil {
		var poisoned *nixstore.PoisonedError
		if errors.As(err, &poisoned) {
			for _, file := range poisoned.Files {
				c.logger.WithField("file", file).Error("poison found")
			}
		}
		return fmt.Errorf("scan: %w", err)
	}

	c.logger.Infof("no poison found in %d store objects on %s", objects.Size(), c.machine.Name())
	return nil
}

func (c *scanCommand) resolvePoison() (string, error) {
	if c.poison != "" && c.poisonFile != "" {
		return "", fmt.Errorf("only one of --poison and --poison-file can be set")
	}

	if c.poisonFile != "" {
		data, err := os.ReadFile(c.poisonFile)
		if err != nil {
			return "", fmt.Errorf("failed to read poison file: %w", err)
		}
		poison := strings.TrimRight(string(data), "\r\n")
		if poison == "" {
			return "", fmt.Errorf("poison file %s is empty", c.poisonFile)
		}
		return poison, nil
	}

	if c.poison == "" {
		return "", fmt.Errorf("one of --poison or --poison-file is required")
	}
	return c.poison, nil
}
