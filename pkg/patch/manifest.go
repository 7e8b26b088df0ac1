package patch

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

const (
	// ManifestKey is the well known document key under which the manifest is
	// stored in its collection.
	ManifestKey = "manifest"

	// InitializeReason is the history reason recorded when a manifest is
	// first created.
	InitializeReason = "Initialize version"
)

type (
	// ManifestStore defines the storage operations the Manifest needs. The
	// mongodb package provides the production implementation; tests use an
	// in-memory one.
	ManifestStore interface {
		// Find returns the manifest document, or (nil, nil) when the
		// datamodel has never been initialized.
		Find(ctx context.Context) (*ManifestDocument, error)

		// Upsert replaces the manifest document wholesale, creating it if
		// it does not exist.
		Upsert(ctx context.Context, doc *ManifestDocument) error

		// Push sets the manifest's version and appends one history entry in
		// a single update.
		Push(ctx context.Context, version string, entry HistoryEntry) error
	}

	// ManifestDocument is the persisted shape of a datamodel manifest.
	ManifestDocument struct {
		ID      string         `bson:"_id"`
		Version string         `bson:"version"`
		History []HistoryEntry `bson:"history"`
	}

	// HistoryEntry records a single version change. History is append-only
	// and ordered oldest first.
	HistoryEntry struct {
		Timestamp time.Time `bson:"timestamp"`
		Version   string    `bson:"version"`
		Reason    string    `bson:"reason,omitempty"`
	}

	// Manifest tracks the current version of a datamodel and its update
	// history through a single persisted document.
	//
	// The document is loaded lazily on first access and cached until
	// Reload is called. Updates do not invalidate the cache; a caller
	// that needs to observe its own write must Reload first.
	//
	// Example usage:
	//
	//	manifest := patch.NewManifest(store)
	//
	//	if err := manifest.Initialize(ctx, "1.0.0", false); err != nil {
	//		log.Fatal(err)
	//	}
	//
	//	version, err := manifest.Version(ctx)
	//	if err != nil {
	//		log.Fatal(err)
	//	}
	//	fmt.Printf("Datamodel version: %s\n", version)
	Manifest struct {
		store ManifestStore
		doc   *ManifestDocument
	}
)

// NewManifest creates a Manifest backed by the given store.
func NewManifest(store ManifestStore) *Manifest {
	return &Manifest{store: store}
}

// IsInitialized reports whether a manifest document exists. It queries the
// store directly and never populates the cache.
func (m *Manifest) IsInitialized(ctx context.Context) (bool, error) {
	doc, err := m.store.Find(ctx)
	if err != nil {
		return false, errors.Wrap(err, "failed to check for manifest")
	}
	return doc != nil, nil
}

// Version returns the datamodel's current version, loading the manifest
// document on first access. It fails with ErrManifestMissing when the
// datamodel has not been initialized.
func (m *Manifest) Version(ctx context.Context) (string, error) {
	if err := m.load(ctx); err != nil {
		return "", err
	}
	return m.doc.Version, nil
}

// History returns the datamodel's update history, oldest entry first. Like
// Version it serves the cached document until Reload is called.
func (m *Manifest) History(ctx context.Context) ([]HistoryEntry, error) {
	if err := m.load(ctx); err != nil {
		return nil, err
	}
	return m.doc.History, nil
}

// Reload drops the cached manifest document. The next accessor call re-reads
// it from the store.
func (m *Manifest) Reload() {
	m.doc = nil
}

// Initialize creates the manifest document with the given version and a
// single history entry. It fails with ErrManifestAlreadyExists when a
// manifest is already present, unless force is true, in which case the
// existing document is replaced wholesale.
//
// This is the only way to bootstrap a datamodel that has no version record.
func (m *Manifest) Initialize(ctx context.Context, version string, force bool) error {
	if err := ValidateVersion(version); err != nil {
		return err
	}

	if !force {
		existing, err := m.store.Find(ctx)
		if err != nil {
			return errors.Wrap(err, "failed to check for manifest")
		}
		if existing != nil {
			return errors.Wrapf(ErrManifestAlreadyExists, "version %s", existing.Version)
		}
	}

	doc := &ManifestDocument{
		ID:      ManifestKey,
		Version: version,
		History: []HistoryEntry{{
			Timestamp: time.Now().UTC(),
			Version:   version,
			Reason:    InitializeReason,
		}},
	}

	if err := m.store.Upsert(ctx, doc); err != nil {
		return errors.Wrapf(err, "failed to initialize manifest to %s", version)
	}
	return nil
}

// Update sets the manifest's version and appends one history entry. It does
// not check that the new version is ahead of the old one; callers own
// directional correctness. The cached document is left untouched, so a
// subsequent read observes the update only after Reload.
func (m *Manifest) Update(ctx context.Context, version, reason string) error {
	if err := ValidateVersion(version); err != nil {
		return err
	}

	entry := HistoryEntry{
		Timestamp: time.Now().UTC(),
		Version:   version,
		Reason:    reason,
	}

	if err := m.store.Push(ctx, version, entry); err != nil {
		return errors.Wrapf(err, "failed to update manifest to %s", version)
	}
	return nil
}

func (m *Manifest) load(ctx context.Context) error {
	if m.doc != nil {
		return nil
	}

	doc, err := m.store.Find(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to load manifest")
	}
	if doc == nil {
		return errors.Wrap(ErrManifestMissing, "make sure the datamodel is initialized")
	}

	m.doc = doc
	return nil
}
