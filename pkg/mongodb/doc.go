// Package mongodb provides the MongoDB-backed pieces of the patching
// system: a thin connection wrapper and the manifest store.
//
// The rest of the codebase talks to storage through the patch.ManifestStore
// interface, so this package is the only one importing the driver for
// persistence. Fixes still receive the raw *mongo.Database handle, since
// their whole point is to mutate application data directly.
//
// Example usage:
//
//	client, err := mongodb.Connect(ctx, "mongodb://localhost:27017", "app")
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer client.Close(ctx)
//
//	store := mongodb.NewManifestStore(client.Database(), consts.DefaultCollection)
//	manifest := patch.NewManifest(store)
package mongodb
