// Package migrator orchestrates incremental datamodel upgrades.
//
// It builds on the patch package: patches are discovered from a directory,
// indexed by base version and applied in a chained walk that moves the
// datamodel from its current version to the last reachable one. The walk
// stops at the first version no patch claims, which is the normal terminal
// state, not an error.
//
// The migrator assumes it is the only process mutating the database while a
// run is in flight. Nothing enforces this; keeping backends and workers
// stopped during an upgrade is deployment discipline.
//
// Example usage:
//
//	registry := patch.NewRegistry().
//		Register("split_user_names", splitUserNames)
//
//	m := migrator.New(migrator.Config{
//		DB:       db,
//		Store:    mongodb.NewManifestStore(db, consts.DefaultCollection),
//		Registry: registry,
//	})
//
//	// Preview the walk without touching anything.
//	if _, err := m.Upgrade(ctx, true); err != nil {
//		log.Fatal(err)
//	}
//
//	// Then run it for real.
//	report, err := m.Upgrade(ctx, false)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	for _, t := range report.Applied {
//		fmt.Printf("applied %s => %s\n", t.From, t.To)
//	}
package migrator
