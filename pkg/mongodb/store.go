package mongodb

import (
	"context"

	"github.com/pkg/errors"
	"github.com/scille/mongopatcher/pkg/patch"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// ManifestStore persists the datamodel manifest in a MongoDB collection,
// implementing patch.ManifestStore.
//
// The manifest lives in a single document keyed by patch.ManifestKey; the
// collection holds nothing else.
type ManifestStore struct {
	collection *mongo.Collection
}

// NewManifestStore returns a store backed by the named collection of db.
func NewManifestStore(db *mongo.Database, collection string) *ManifestStore {
	return &ManifestStore{collection: db.Collection(collection)}
}

// Find returns the manifest document, or nil when the datamodel has no
// manifest yet.
func (s *ManifestStore) Find(ctx context.Context) (*patch.ManifestDocument, error) {
	var doc patch.ManifestDocument

	err := s.collection.FindOne(ctx, bson.M{"_id": patch.ManifestKey}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to read manifest")
	}

	return &doc, nil
}

// Upsert writes the full manifest document, replacing any existing one.
func (s *ManifestStore) Upsert(ctx context.Context, doc *patch.ManifestDocument) error {
	opts := options.Replace().SetUpsert(true)

	_, err := s.collection.ReplaceOne(ctx, bson.M{"_id": patch.ManifestKey}, doc, opts)
	return errors.Wrap(err, "failed to write manifest")
}

// Push sets the manifest's version and appends one history entry in a
// single update. Matching no document is a silent no-op, like any MongoDB
// update without upsert.
func (s *ManifestStore) Push(ctx context.Context, version string, entry patch.HistoryEntry) error {
	update := bson.M{
		"$set":  bson.M{"version": version},
		"$push": bson.M{"history": entry},
	}

	_, err := s.collection.UpdateOne(ctx, bson.M{"_id": patch.ManifestKey}, update)
	return errors.Wrap(err, "failed to update manifest")
}
