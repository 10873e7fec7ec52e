// Package nixstore inspects the Nix store of a machine: it lists store
// objects and checks that none of them contain a poison string.
package nixstore

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/kballard/go-shellquote"
	"github.com/scylladb/go-set/strset"
	"github.com/sirupsen/logrus"
	"github.com/storeguard/storeguard/pkg/log"
	"github.com/storeguard/storeguard/pkg/machine"
)

const (
	// DefaultStoreDir is the root directory of the Nix store.
	DefaultStoreDir = "/nix/store"
	// DefaultSearchTool is the text search utility used to look for poison.
	DefaultSearchTool = "rg"
	// DefaultMaxCommandBytes caps the length of one search command. The
	// command is passed to the shell as a single argument, which Linux limits
	// to 128 KiB.
	DefaultMaxCommandBytes = 64 * 1024
)

// Config holds the store layout of the target machine.
type Config struct {
	StoreDir   string
	SearchTool string
	// MaxCommandBytes is the longest search command sent to the machine.
	// Larger object sets are searched in several batches.
	MaxCommandBytes int
}

func (c Config) withDefaults() Config {
	if c.StoreDir == "" {
		c.StoreDir = DefaultStoreDir
	}
	if c.SearchTool == "" {
		c.SearchTool = DefaultSearchTool
	}
	if c.MaxCommandBytes <= 0 {
		c.MaxCommandBytes = DefaultMaxCommandBytes
	}
	return c
}

// Store runs store queries against one machine.
type Store struct {
	machine machine.Commander
	config  Config
	logger  *logrus.Logger
}

// NewStore returns a Store for m. Empty config fields take their defaults.
func NewStore(logger *logrus.Logger, m machine.Commander, config Config) *Store {
	return &Store{
		machine: m,
		config:  config.withDefaults(),
		logger:  logger,
	}
}

// Dir returns the store root directory.
func (s *Store) Dir() string {
	return s.config.StoreDir
}

// CollectObjects returns the names of the objects currently in the store.
func (s *Store) CollectObjects(ctx context.Context) (*strset.Set, error) {
	output, err := s.machine.Succeed(ctx, "ls "+shellquote.Join(s.config.StoreDir))
	if err != nil {
		return nil, fmt.Errorf("collect store objects: %w", err)
	}

	objects := ParseListing(output)
	s.logger.Debugf("collected %d objects from %s", objects.Size(), s.config.StoreDir)
	return objects, nil
}

// ObjectPaths returns the absolute, sorted paths of objects.
func (s *Store) ObjectPaths(objects *strset.Set) []string {
	names := objects.List()
	sort.Strings(names)

	paths := make([]string, 0, len(names))
	for _, name := range names {
		paths = append(paths, path.Join(s.config.StoreDir, name))
	}
	return paths
}

// AssertNotPoisoned returns an error unless none of objects contain poison.
// The search tool must be installed on the machine; its absence is reported
// before any search runs.
func (s *Store) AssertNotPoisoned(ctx context.Context, poison string, objects *strset.Set) error {
	if poison == "" {
		return fmt.Errorf("assert store not poisoned: poison must not be empty")
	}

	if _, err := s.machine.Succeed(ctx, "which "+shellquote.Join(s.config.SearchTool)); err != nil {
		return &MissingToolError{Tool: s.config.SearchTool, Err: err}
	}

	if objects.IsEmpty() {
		s.logger.Debug("no store objects to search")
		return nil
	}

	paths := s.ObjectPaths(objects)
	batches := s.searchBatches(poison, paths)
	s.logger.Debugf("searching %d store objects for poison in %d batches", len(paths), len(batches))

	for _, command := range batches {
		if err := s.search(ctx, poison, command); err != nil {
			return err
		}
	}
	return nil
}

// search runs one search command. The search tool exits non-zero both when
// nothing matched and on errors such as a vanished path, so matched files in
// the output count as poison whatever the exit code.
func (s *Store) search(ctx context.Context, poison string, command string) error {
	output, err := s.machine.Fail(ctx, command)
	if err == nil {
		if files := s.matchedFiles(output); len(files) > 0 {
			return &PoisonedError{Poison: poison, Files: files}
		}
		return nil
	}

	if _, ok := machine.AsCommandError(err); ok {
		return &PoisonedError{
			Poison: poison,
			Files:  s.matchedFiles(output),
			Err:    err,
		}
	}
	return fmt.Errorf("assert store not poisoned: %w", err)
}

func (s *Store) searchArgs(poison string) []string {
	return []string{
		s.config.SearchTool,
		"--fixed-strings",
		"--files-with-matches",
		"--no-ignore",
		"--hidden",
		"--binary",
		"--",
		poison,
	}
}

func (s *Store) searchCommand(poison string, paths []string) string {
	return shellquote.Join(append(s.searchArgs(poison), paths...)...)
}

// searchBatches splits paths into search commands of at most MaxCommandBytes.
// A batch always holds at least one path.
func (s *Store) searchBatches(poison string, paths []string) []string {
	base := shellquote.Join(s.searchArgs(poison)...)

	batches := []string{}
	var batch []string
	size := len(base)
	for _, p := range paths {
		quoted := len(shellquote.Join(p)) + 1
		if len(batch) > 0 && size+quoted > s.config.MaxCommandBytes {
			batches = append(batches, s.searchCommand(poison, batch))
			batch = nil
			size = len(base)
		}
		batch = append(batch, p)
		size += quoted
	}

	if len(batch) > 0 {
		batches = append(batches, s.searchCommand(poison, batch))
	}
	return batches
}

// matchedFiles keeps the lines of search output that name store files.
func (s *Store) matchedFiles(output string) []string {
	prefix := strings.TrimSuffix(s.config.StoreDir, "/") + "/"

	files := []string{}
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, prefix) {
			files = append(files, line)
		}
	}
	sort.Strings(files)
	return files
}

// ParseListing turns newline separated listing output into a set of names.
// Blank lines are ignored.
func ParseListing(output string) *strset.Set {
	objects := strset.New()
	for _, line := range strings.Split(output, "\n") {
		name := strings.TrimSpace(line)
		if name == "" {
			continue
		}
		objects.Add(name)
	}
	return objects
}

// CollectObjects lists the default store of m.
func CollectObjects(ctx context.Context, m machine.Commander) (*strset.Set, error) {
	return NewStore(log.GetLogger(), m, Config{}).CollectObjects(ctx)
}

// AssertNotPoisoned checks objects of the default store of m for poison.
func AssertNotPoisoned(ctx context.Context, m machine.Commander, poison string, objects *strset.Set) error {
	return NewStore(log.GetLogger(), m, Config{}).AssertNotPoisoned(ctx, poison, objects)
}
