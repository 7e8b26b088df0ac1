// Package patch provides the building blocks of incremental datamodel
// migrations for MongoDB-backed applications.
//
// A datamodel version is tracked in a manifest document stored alongside the
// application data. Each Patch upgrades the datamodel from exactly one base
// version to one target version by running an ordered list of fixes, then
// recording the new version in the manifest. Chaining patches walks the
// datamodel from whatever version it is in up to the latest one.
//
// # Key Features
//
//   - Strict x.y.z version parsing and comparison
//   - Manifest access with explicit cache control (Reload)
//   - Ordered fix execution with per-fix progress reporting
//   - Post scriptum messages collected for operator follow-up
//   - YAML-based patch discovery over any fs.FS
//   - Fix registry resolving declarative patch files to Go functions
//
// # Usage Example
//
//	registry := patch.NewRegistry().
//		Register("split_user_names", splitUserNames)
//
//	patches, err := patch.Discover(os.DirFS("patches"), registry)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	manifest := patch.NewManifest(store)
//	for _, p := range patches {
//		if _, err := p.Apply(ctx, os.Stdout, manifest, db, false); err != nil {
//			log.Fatal(err)
//		}
//	}
//
// Applying patches in the right order, resolving which patch comes next and
// reporting on the whole run is the job of the migrator package; this package
// only knows about a single manifest and a single patch at a time.
package patch
