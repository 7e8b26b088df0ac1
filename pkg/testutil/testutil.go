// Package testutil provides shared helpers for tests across the codebase.
package testutil

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/scille/mongopatcher/pkg/consts"
	"github.com/scille/mongopatcher/pkg/patch"
	"github.com/stretchr/testify/require"
)

// MemoryStore is an in-memory patch.ManifestStore. The zero value is a store
// holding no manifest. Tests can inspect Doc directly and count Find calls
// to assert on caching behavior.
type MemoryStore struct {
	Doc *patch.ManifestDocument

	// Finds counts Find calls.
	Finds int

	// FindErr, UpsertErr and PushErr are returned verbatim when set.
	FindErr   error
	UpsertErr error
	PushErr   error
}

// NewMemoryStore returns a store seeded with an initialized manifest at the
// given version.
func NewMemoryStore(version string) *MemoryStore {
	return &MemoryStore{
		Doc: &patch.ManifestDocument{
			ID:      patch.ManifestKey,
			Version: version,
			History: []patch.HistoryEntry{{
				Timestamp: time.Now().UTC(),
				Version:   version,
				Reason:    patch.InitializeReason,
			}},
		},
	}
}

// Find implements patch.ManifestStore. It returns a copy so callers cannot
// mutate the stored document behind the store's back.
func (s *MemoryStore) Find(ctx context.Context) (*patch.ManifestDocument, error) {
	s.Finds++
	if s.FindErr != nil {
		return nil, s.FindErr
	}
	if s.Doc == nil {
		return nil, nil
	}
	return copyDoc(s.Doc), nil
}

// Upsert implements patch.ManifestStore.
func (s *MemoryStore) Upsert(ctx context.Context, doc *patch.ManifestDocument) error {
	if s.UpsertErr != nil {
		return s.UpsertErr
	}
	s.Doc = copyDoc(doc)
	return nil
}

// Push implements patch.ManifestStore. Like a MongoDB update matching no
// document, pushing onto a missing manifest is a silent no-op.
func (s *MemoryStore) Push(ctx context.Context, version string, entry patch.HistoryEntry) error {
	if s.PushErr != nil {
		return s.PushErr
	}
	if s.Doc == nil {
		return nil
	}
	s.Doc.Version = version
	s.Doc.History = append(s.Doc.History, entry)
	return nil
}

func copyDoc(doc *patch.ManifestDocument) *patch.ManifestDocument {
	out := *doc
	out.History = slices.Clone(doc.History)
	return &out
}

// PatchDir writes the given files into a temp directory and returns its
// path. Map keys are paths relative to the directory root and may contain
// subdirectories.
func PatchDir(t *testing.T, files map[string]string) string {
	t.Helper()

	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), consts.ModeDir))
		require.NoError(t, os.WriteFile(path, []byte(content), consts.ModeFile))
	}

	return dir
}
