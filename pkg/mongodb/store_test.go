package mongodb_test

import (
	"context"
	"testing"
	"time"

	. "github.com/scille/mongopatcher/pkg/mongodb"
	"github.com/scille/mongopatcher/pkg/patch"
	"github.com/scille/mongopatcher/pkg/testutil"
	"github.com/stretchr/testify/require"
)

func TestManifestStore(t *testing.T) {
	dsn := testutil.StartMongoContainer(t)

	client, err := Connect(t.Context(), dsn, "mongopatcher_test")
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close(context.Background()) })

	// Each subtest gets its own collection so they cannot interfere.
	t.Run("find returns nil for a fresh datamodel", func(t *testing.T) {
		store := NewManifestStore(client.Database(), "fresh")

		doc, err := store.Find(t.Context())
		require.NoError(t, err)
		require.Nil(t, doc)
	})

	t.Run("upsert then find round trips", func(t *testing.T) {
		store := NewManifestStore(client.Database(), "roundtrip")

		now := time.Now().UTC()
		require.NoError(t, store.Upsert(t.Context(), &patch.ManifestDocument{
			ID:      patch.ManifestKey,
			Version: "1.0.0",
			History: []patch.HistoryEntry{{
				Timestamp: now,
				Version:   "1.0.0",
				Reason:    patch.InitializeReason,
			}},
		}))

		found, err := store.Find(t.Context())
		require.NoError(t, err)
		require.NotNil(t, found)
		require.Equal(t, patch.ManifestKey, found.ID)
		require.Equal(t, "1.0.0", found.Version)
		require.Len(t, found.History, 1)
		require.Equal(t, patch.InitializeReason, found.History[0].Reason)
		// BSON stores timestamps with millisecond precision.
		require.WithinDuration(t, now, found.History[0].Timestamp, time.Second)
	})

	t.Run("upsert replaces wholesale", func(t *testing.T) {
		store := NewManifestStore(client.Database(), "replace")

		require.NoError(t, store.Upsert(t.Context(), manifestDoc("1.0.0")))
		require.NoError(t, store.Upsert(t.Context(), manifestDoc("2.0.0")))

		found, err := store.Find(t.Context())
		require.NoError(t, err)
		require.Equal(t, "2.0.0", found.Version)
		require.Len(t, found.History, 1, "history is replaced, not merged")
	})

	t.Run("push updates version and appends history", func(t *testing.T) {
		store := NewManifestStore(client.Database(), "push")

		require.NoError(t, store.Upsert(t.Context(), manifestDoc("1.0.0")))
		require.NoError(t, store.Push(t.Context(), "1.0.1", patch.HistoryEntry{
			Timestamp: time.Now().UTC(),
			Version:   "1.0.1",
			Reason:    "Upgrade from 1.0.0",
		}))

		found, err := store.Find(t.Context())
		require.NoError(t, err)
		require.Equal(t, "1.0.1", found.Version)
		require.Len(t, found.History, 2)
		require.Equal(t, "Upgrade from 1.0.0", found.History[1].Reason)
	})

	t.Run("push without a manifest is a no-op", func(t *testing.T) {
		store := NewManifestStore(client.Database(), "noop")

		require.NoError(t, store.Push(t.Context(), "1.0.1", patch.HistoryEntry{
			Timestamp: time.Now().UTC(),
			Version:   "1.0.1",
		}))

		doc, err := store.Find(t.Context())
		require.NoError(t, err)
		require.Nil(t, doc)
	})

	t.Run("backs the manifest end to end", func(t *testing.T) {
		store := NewManifestStore(client.Database(), "endtoend")
		manifest := patch.NewManifest(store)

		require.NoError(t, manifest.Initialize(t.Context(), "1.0.0", false))

		initialized, err := manifest.IsInitialized(t.Context())
		require.NoError(t, err)
		require.True(t, initialized)

		require.NoError(t, manifest.Update(t.Context(), "1.0.1", "Upgrade from 1.0.0"))
		manifest.Reload()

		version, err := manifest.Version(t.Context())
		require.NoError(t, err)
		require.Equal(t, "1.0.1", version)

		history, err := manifest.History(t.Context())
		require.NoError(t, err)
		require.Len(t, history, 2)
	})
}

func manifestDoc(version string) *patch.ManifestDocument {
	return &patch.ManifestDocument{
		ID:      patch.ManifestKey,
		Version: version,
		History: []patch.HistoryEntry{{
			Timestamp: time.Now().UTC(),
			Version:   version,
			Reason:    patch.InitializeReason,
		}},
	}
}
