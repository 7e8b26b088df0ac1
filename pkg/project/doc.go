// Package project manages mongopatcher project directories: the
// configuration file, the patches tree, and scaffolding of new patch
// definition stubs.
//
// Initialization is idempotent. It creates mongopatcher.yaml and the
// patches directory when missing and never overwrites existing content, so
// it is safe to run inside a populated application repository.
//
// # Usage Example
//
//	p := project.New(".")
//	if err := p.Initialize(project.InitOptions{}); err != nil {
//		log.Fatal(err)
//	}
//
//	path, err := p.CreatePatch(project.PatchOptions{
//		Name:          "split_user_names",
//		BaseVersion:   "1.0.0",
//		TargetVersion: "1.0.1",
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	fmt.Printf("Created %s\n", path)
package project
