// Package docker provides Docker integration for running local MongoDB
// instances for patch development and testing workflows.
//
// The package stands up MongoDB containers matching the version declared in
// the project configuration, so fixes can be exercised against the same
// server version the application deploys on. Containers are labeled with
// DevLabel, letting later invocations find and stop them without relying on
// container names.
//
// # Usage Example
//
//	import (
//		"context"
//
//		"github.com/scille/mongopatcher/pkg/docker"
//		"github.com/scille/mongopatcher/pkg/mongodb"
//	)
//
//	container := docker.NewWithOptions(docker.DockerOptions{
//		Version: "7.0",
//	})
//
//	ctx := context.Background()
//	if err := container.Start(ctx); err != nil {
//		log.Fatal(err)
//	}
//	defer container.Stop(ctx)
//
//	// Get connection details
//	dsn, _ := container.GetDSN()
//
//	// Connect using the MongoDB client
//	client, _ := mongodb.Connect(ctx, dsn, "test")
//	defer client.Close(ctx)
package docker
