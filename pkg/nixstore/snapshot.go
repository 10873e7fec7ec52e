package nixstore

import (
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/scylladb/go-set/strset"
	"gopkg.in/yaml.v3"
)

// Snapshot is a saved store listing, used to find the objects a later step
// added to the store.
type Snapshot struct {
	Machine  string    `yaml:"machine"`
	StoreDir string    `yaml:"storeDir"`
	TakenAt  time.Time `yaml:"takenAt"`
	Objects  []string  `yaml:"objects"`
}

// NewSnapshot records objects of the store at storeDir on machineName.
func NewSnapshot(machineName string, storeDir string, objects *strset.Set, takenAt time.Time) *Snapshot {
	names := objects.List()
	sort.Strings(names)

	return &Snapshot{
		Machine:  machineName,
		StoreDir: storeDir,
		TakenAt:  takenAt.UTC(),
		Objects:  names,
	}
}

// Set returns the snapshot objects as a set.
func (s *Snapshot) Set() *strset.Set {
	return strset.New(s.Objects...)
}

// Save writes the snapshot to path as yaml.
func (s *Snapshot) Save(path string) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot reads a snapshot written by Save.
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	snapshot := &Snapshot{}
	if err := yaml.Unmarshal(data, snapshot); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot %s: %w", path, err)
	}
	return snapshot, nil
}

// NewObjects returns the objects of after that are not in before.
func NewObjects(before *strset.Set, after *strset.Set) *strset.Set {
	return strset.Difference(after, before)
}
