package cmd

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/scylladb/go-set/strset"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/storeguard/storeguard/cmd/storeguard/cmd/flags"
	"github.com/storeguard/storeguard/pkg/log"
	"github.com/storeguard/storeguard/pkg/machine"
	"github.com/storeguard/storeguard/pkg/nixstore"
	"gopkg.in/yaml.v3"
)

type collectCommand struct {
	globalFlags *flags.GlobalFlags
	logger      *logrus.Logger

	machine *machine.Machine
	now     func() time.Time

	output       string
	snapshotFile string
}

func newCollectCommand(globalFlags *flags.GlobalFlags) *cobra.Command {
	cmd := &collectCommand{
		globalFlags: globalFlags,
		logger:      log.GetLogger(),
		now:         time.Now,
	}

	collectCmd := &cobra.Command{
		Use:     "collect",
		Aliases: []string{"ls"},
		Short:   "List the objects in the nix store of the target.",
		Args:    cobra.NoArgs,
		RunE:    cmd.run,
		Example: `storeguard collect
storeguard collect -o plain
storeguard -t ssh://root@node-a collect --snapshot-file before.yaml
`,
	}

	collectCmd.Flags().StringVarP(&cmd.output, "output", "o", "", "Output format. Valid values: yaml, plain")
	collectCmd.Flags().StringVar(&cmd.snapshotFile, "snapshot-file", "", "Write the listing to this file as a snapshot")
	return collectCmd
}

func (c *collectCommand) run(_ *cobra.Command, args []string) error {
	if c.output != "" && c.output != "yaml" && c.output != "plain" {
		return fmt.Errorf("collect: invalid output format: %s", c.output)
	}

	if c.machine == nil {
		m, err := newMachine(c.logger, c.globalFlags)
		if err != nil {
			return fmt.Errorf("collect: %w", err)
		}
		c.machine = m
	}

	store := newStore(c.logger, c.globalFlags, c.machine)
	objects, err := store.CollectObjects(context.Background())
	if err != nil {
		return fmt.Errorf("collect: %w", err)
	}

	snapshot := nixstore.NewSnapshot(c.machine.Name(), store.Dir(), objects, c.now())

	if c.snapshotFile != "" {
		if err := snapshot.Save(c.snapshotFile); err != nil {
			return fmt.Errorf("collect: %w", err)
		}
		c.logger.Infof("wrote snapshot of %d objects to %s", len(snapshot.Objects), c.snapshotFile)
		return nil
	}

	switch c.output {
	case "":
		objectsTableOutput(objects, c.logger.Out)
	case "yaml":
		if err := snapshotYamlOutput(snapshot, c.logger); err != nil {
			return fmt.Errorf("collect: %w", err)
		}
	case "plain":
		objectsPlainOutput(objects, c.logger.Out)
	}
	return nil
}

func sortedObjects(objects *strset.Set) []string {
	names := objects.List()
	sort.Strings(names)
	return names
}

func objectsTableOutput(objects *strset.Set, out io.Writer) {
	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"Hash", "Name"})
	table.SetColumnSeparator(" ")
	table.SetCenterSeparator("-")
	table.SetAlignment(tablewriter.ALIGN_LEFT)

	for _, object := range sortedObjects(objects) {
		hash, name := nixstore.SplitObjectName(object)
		table.Append([]string{hash, name})
	}

	table.Render()
}

func objectsPlainOutput(objects *strset.Set, out io.Writer) {
	names := sortedObjects(objects)
	if len(names) == 0 {
		return
	}
	fmt.Fprintln(out, strings.Join(names, "\n"))
}

func snapshotYamlOutput(snapshot *nixstore.Snapshot, logger *logrus.Logger) error {
	previous := logger.Formatter
	logger.SetFormatter(&log.NoTimestampFormatter{})
	defer logger.SetFormatter(previous)

	d, err := yaml.Marshal(snapshot)
	if err != nil {
		return err
	}

	logger.Info(string(d))
	return nil
}
