package nixstore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"testing"

	"github.com/kballard/go-shellquote"
	"github.com/scylladb/go-set/strset"
	"github.com/storeguard/storeguard/pkg/log"
	"github.com/storeguard/storeguard/pkg/machine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(fake *machine.FakeExecutor) *Store {
	return NewStore(log.GetLogger(), machine.NewMachine(log.GetLogger(), fake), Config{})
}

func TestParseListing(t *testing.T) {
	tests := []struct {
		name     string
		output   string
		expected []string
	}{
		{
			name:     "Duplicates are removed",
			output:   "a\nb\na\n",
			expected: []string{"a", "b"},
		},
		{
			name:     "Blank lines are ignored",
			output:   "\nabc-hello-2.12\n\n  \nxyz-bash-5.2\n",
			expected: []string{"abc-hello-2.12", "xyz-bash-5.2"},
		},
		{
			name:     "Carriage returns are trimmed",
			output:   "a\r\nb\r\n",
			expected: []string{"a", "b"},
		},
		{
			name:     "Empty listing",
			output:   "",
			expected: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			objects := ParseListing(tt.output)
			assert.True(t, strset.New(tt.expected...).IsEqual(objects), "got %v", objects.List())
		})
	}
}

func TestCollectObjects(t *testing.T) {
	tests := []struct {
		name        string
		listing     machine.Result
		expectedErr string
		expected    []string
	}{
		{
			name:     "Listing succeeds",
			listing:  machine.Result{Output: "a\nb\na\n"},
			expected: []string{"a", "b"},
		},
		{
			name:        "Listing fails",
			listing:     machine.Result{ExitCode: 2, Output: "ls: cannot access '/nix/store': No such file or directory\n"},
			expectedErr: "collect store objects: command `ls /nix/store` on vm failed (exit code 2)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := machine.NewFakeExecutor("vm").On("ls /nix/store", tt.listing)

			objects, err := newTestStore(fake).CollectObjects(context.Background())

			if tt.expectedErr != "" {
				assert.Nil(t, objects)
				assert.ErrorContains(t, err, tt.expectedErr)

				_, ok := machine.AsCommandError(err)
				assert.True(t, ok)
				return
			}

			require.NoError(t, err)
			assert.True(t, strset.New(tt.expected...).IsEqual(objects))
		})
	}
}

func TestCollectObjectsCustomStoreDir(t *testing.T) {
	fake := machine.NewFakeExecutor("vm").On("ls /mnt/nix/store", machine.Result{Output: "a\n"})
	store := NewStore(log.GetLogger(), machine.NewMachine(log.GetLogger(), fake), Config{StoreDir: "/mnt/nix/store"})

	objects, err := store.CollectObjects(context.Background())
	require.NoError(t, err)
	assert.True(t, objects.Has("a"))
	assert.Equal(t, "/mnt/nix/store", store.Dir())
}

func TestObjectPaths(t *testing.T) {
	store := newTestStore(machine.NewFakeExecutor("vm"))

	paths := store.ObjectPaths(strset.New("b", "a"))
	assert.Equal(t, []string{"/nix/store/a", "/nix/store/b"}, paths)
}

func TestAssertNotPoisoned(t *testing.T) {
	objects := strset.New("a", "b")

	tests := []struct {
		name          string
		which         *machine.Result
		search        *machine.Result
		objects       *strset.Set
		poison        string
		expectedErr   string
		expectedFiles []string
		searched      bool
	}{
		{
			name:     "Poison absent",
			which:    &machine.Result{Output: "/run/current-system/sw/bin/rg\n"},
			search:   &machine.Result{ExitCode: 1},
			objects:  objects,
			poison:   "BAD",
			searched: true,
		},
		{
			name:          "Poison present",
			which:         &machine.Result{Output: "/run/current-system/sw/bin/rg\n"},
			search:        &machine.Result{Output: "/nix/store/b/etc/key\n"},
			objects:       objects,
			poison:        "BAD",
			expectedErr:   "store is poisoned: /nix/store/b/etc/key",
			expectedFiles: []string{"/nix/store/b/etc/key"},
			searched:      true,
		},
		{
			name:          "Poison present with search errors",
			which:         &machine.Result{Output: "/run/current-system/sw/bin/rg\n"},
			search:        &machine.Result{ExitCode: 2, Output: "/nix/store/a/etc/key\nrg: /nix/store/b: No such file or directory (os error 2)\n"},
			objects:       objects,
			poison:        "BAD",
			expectedErr:   "store is poisoned: /nix/store/a/etc/key",
			expectedFiles: []string{"/nix/store/a/etc/key"},
			searched:      true,
		},
		{
			name:     "Search errors without match",
			which:    &machine.Result{Output: "/run/current-system/sw/bin/rg\n"},
			search:   &machine.Result{ExitCode: 2, Output: "rg: /nix/store/b: No such file or directory (os error 2)\n"},
			objects:  objects,
			poison:   "BAD",
			searched: true,
		},
		{
			name:        "Search tool missing",
			objects:     objects,
			poison:      "BAD",
			expectedErr: "search tool rg is not available",
		},
		{
			name:    "No objects to search",
			which:   &machine.Result{Output: "/bin/rg\n"},
			objects: strset.New(),
			poison:  "BAD",
		},
		{
			name:        "Empty poison",
			objects:     objects,
			poison:      "",
			expectedErr: "poison must not be empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := machine.NewFakeExecutor("vm")
			if tt.which != nil {
				fake.On("which rg", *tt.which)
			}
			if tt.search != nil {
				fake.OnPrefix("rg ", *tt.search)
			}

			err := newTestStore(fake).AssertNotPoisoned(context.Background(), tt.poison, tt.objects)

			if tt.expectedErr != "" {
				assert.ErrorContains(t, err, tt.expectedErr)
			} else {
				assert.NoError(t, err)
			}

			if tt.expectedFiles != nil {
				var poisoned *PoisonedError
				require.True(t, errors.As(err, &poisoned))
				assert.Equal(t, tt.expectedFiles, poisoned.Files)
				assert.Equal(t, tt.poison, poisoned.Poison)
			}

			searched := false
			for _, call := range fake.Calls() {
				if strings.HasPrefix(call, "rg ") {
					searched = true
				}
			}
			assert.Equal(t, tt.searched, searched)
		})
	}
}

func TestAssertNotPoisonedMissingToolError(t *testing.T) {
	fake := machine.NewFakeExecutor("vm").On("which rg", machine.Result{ExitCode: 1})

	err := newTestStore(fake).AssertNotPoisoned(context.Background(), "BAD", strset.New("a"))

	var missing *MissingToolError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, "rg", missing.Tool)
	assert.Equal(t, []string{"which rg"}, fake.Calls())
}

func TestSearchCommandQuoting(t *testing.T) {
	store := newTestStore(machine.NewFakeExecutor("vm"))
	poison := `it's a "secret" $HOME`

	command := store.searchCommand(poison, []string{"/nix/store/a", "/nix/store/b"})

	args, err := shellquote.Split(command)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"rg", "--fixed-strings", "--files-with-matches", "--no-ignore", "--hidden", "--binary",
		"--", poison, "/nix/store/a", "/nix/store/b",
	}, args)
}

func TestAssertNotPoisonedLargeStore(t *testing.T) {
	objects := strset.New()
	expectedPaths := []string{}
	for i := 0; i < 3000; i++ {
		name := fmt.Sprintf("%032d-package-%d", i, i)
		objects.Add(name)
		expectedPaths = append(expectedPaths, "/nix/store/"+name)
	}
	sort.Strings(expectedPaths)

	fake := machine.NewFakeExecutor("vm").
		On("which rg", machine.Result{Output: "/bin/rg\n"}).
		OnPrefix("rg ", machine.Result{ExitCode: 1})

	err := newTestStore(fake).AssertNotPoisoned(context.Background(), "BAD", objects)
	require.NoError(t, err)

	searches := 0
	searchedPaths := []string{}
	for _, call := range fake.Calls() {
		if !strings.HasPrefix(call, "rg ") {
			continue
		}
		searches++
		assert.LessOrEqual(t, len(call), DefaultMaxCommandBytes)

		args, err := shellquote.Split(call)
		require.NoError(t, err)
		require.Equal(t, "BAD", args[7])
		searchedPaths = append(searchedPaths, args[8:]...)
	}

	assert.Greater(t, searches, 1)
	assert.Equal(t, expectedPaths, searchedPaths)
}

func TestAssertNotPoisonedStopsAtFirstPoisonedBatch(t *testing.T) {
	fake := machine.NewFakeExecutor("vm").
		On("which rg", machine.Result{Output: "/bin/rg\n"}).
		OnPrefix("rg ", machine.Result{Output: "/nix/store/a/secret\n"})
	store := NewStore(log.GetLogger(), machine.NewMachine(log.GetLogger(), fake), Config{MaxCommandBytes: 1})

	err := store.AssertNotPoisoned(context.Background(), "BAD", strset.New("a", "b", "c"))

	var poisoned *PoisonedError
	require.True(t, errors.As(err, &poisoned))
	assert.Equal(t, []string{
		"which rg",
		"rg --fixed-strings --files-with-matches --no-ignore --hidden --binary -- BAD /nix/store/a",
	}, fake.Calls())
}

func TestSearchBatches(t *testing.T) {
	base := "rg --fixed-strings --files-with-matches --no-ignore --hidden --binary -- BAD"
	paths := []string{"/nix/store/a", "/nix/store/b", "/nix/store/c"}

	tests := []struct {
		name     string
		maxBytes int
		expected []string
	}{
		{
			name:     "All paths fit",
			maxBytes: DefaultMaxCommandBytes,
			expected: []string{base + " /nix/store/a /nix/store/b /nix/store/c"},
		},
		{
			name:     "Exact fit for two paths",
			maxBytes: len(base + " /nix/store/a /nix/store/b"),
			expected: []string{base + " /nix/store/a /nix/store/b", base + " /nix/store/c"},
		},
		{
			name:     "Budget below one path",
			maxBytes: 1,
			expected: []string{base + " /nix/store/a", base + " /nix/store/b", base + " /nix/store/c"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := machine.NewFakeExecutor("vm")
			store := NewStore(log.GetLogger(), machine.NewMachine(log.GetLogger(), fake), Config{MaxCommandBytes: tt.maxBytes})
			assert.Equal(t, tt.expected, store.searchBatches("BAD", paths))
		})
	}
}

func TestPackageLevelHelpers(t *testing.T) {
	fake := machine.NewFakeExecutor("vm").
		On("ls /nix/store", machine.Result{Output: "a\nb\na\n"}).
		On("which rg", machine.Result{Output: "/bin/rg\n"}).
		On("rg --fixed-strings --files-with-matches --no-ignore --hidden --binary -- BAD /nix/store/a /nix/store/b", machine.Result{ExitCode: 1})
	m := machine.NewMachine(log.GetLogger(), fake)

	objects, err := CollectObjects(context.Background(), m)
	require.NoError(t, err)
	assert.True(t, strset.New("a", "b").IsEqual(objects))

	assert.NoError(t, AssertNotPoisoned(context.Background(), m, "BAD", objects))
}
