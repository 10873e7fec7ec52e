// Package storetest wraps nixstore checks for use inside Go tests. Every
// helper stops the test on the first failure.
package storetest

import (
	"context"
	"testing"

	"github.com/scylladb/go-set/strset"
	"github.com/storeguard/storeguard/pkg/nixstore"
	"github.com/stretchr/testify/require"
)

// CollectObjects returns the store objects or fails the test.
func CollectObjects(t testing.TB, store *nixstore.Store) *strset.Set {
	t.Helper()

	objects, err := store.CollectObjects(context.Background())
	require.NoError(t, err, "failed to collect store objects")
	return objects
}

// RequireNotPoisoned fails the test if any of objects contain poison.
func RequireNotPoisoned(t testing.TB, store *nixstore.Store, poison string, objects *strset.Set) {
	t.Helper()

	err := store.AssertNotPoisoned(context.Background(), poison, objects)
	require.NoError(t, err, "store objects contain poison")
}

// RequireNewObjectsNotPoisoned fails the test if an object added since
// before contains poison.
func RequireNewObjectsNotPoisoned(t testing.TB, store *nixstore.Store, poison string, before *strset.Set) {
	t.Helper()

	after := CollectObjects(t, store)
	RequireNotPoisoned(t, store, poison, nixstore.NewObjects(before, after))
}
