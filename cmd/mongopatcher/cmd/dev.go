package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/docker/docker/client"
	"github.com/pkg/errors"
	"github.com/scille/mongopatcher/pkg/docker"
	"github.com/scille/mongopatcher/pkg/migrator"
	"github.com/scille/mongopatcher/pkg/mongodb"
	"github.com/urfave/cli/v3"
)

// dev returns the CLI command managing a disposable local MongoDB server
// for patch development. The server runs in a Docker container labeled
// mongopatcher.dev=true; down and status find it through that label.
func dev() *cli.Command {
	return &cli.Command{
		Name:  "dev",
		Usage: "Manage a local MongoDB development server",
		Commands: []*cli.Command{
			devUp(),
			devDown(),
			devStatus(),
		},
	}
}

func devUp() *cli.Command {
	return &cli.Command{
		Name:   "up",
		Usage:  "Start a MongoDB development server and initialize its datamodel",
		Action: runDevUp,
	}
}

func devDown() *cli.Command {
	return &cli.Command{
		Name:   "down",
		Usage:  "Stop and remove the MongoDB development server",
		Action: runDevDown,
	}
}

func devStatus() *cli.Command {
	return &cli.Command{
		Name:   "status",
		Usage:  "Report whether a MongoDB development server is running",
		Action: runDevStatus,
	}
}

func runDevUp(ctx context.Context, cmd *cli.Command) error {
	engine, err := newDockerEngine()
	if err != nil {
		return err
	}

	running, err := engine.List(ctx)
	if err != nil {
		return err
	}
	if len(running) > 0 {
		fmt.Fprintln(cmd.Writer, "MongoDB development server is already running")
		fmt.Fprintln(cmd.Writer, "Use 'mongopatcher dev down' to stop it first")
		return nil
	}

	cfg := effectiveConfig()
	fmt.Fprintf(cmd.Writer, "Starting MongoDB %s container...\n", cfg.MongoDB.Version)

	container := docker.NewWithOptions(docker.DockerOptions{
		Version: cfg.MongoDB.Version,
	})
	if err := container.Start(ctx); err != nil {
		return err
	}
	// Don't stop the container on return - it should keep running.

	dsn, err := container.GetDSN()
	if err != nil {
		return errors.Wrap(err, "failed to get container DSN")
	}

	database := resolveDatabase(cmd, cfg)
	if err := initializeDevDatamodel(ctx, cmd, dsn, database); err != nil {
		return err
	}

	printConnectionDetails(cmd, dsn, database)
	return nil
}

func runDevDown(ctx context.Context, cmd *cli.Command) error {
	engine, err := newDockerEngine()
	if err != nil {
		return err
	}

	running, err := engine.List(ctx)
	if err != nil {
		return err
	}
	if len(running) == 0 {
		fmt.Fprintln(cmd.Writer, "No MongoDB development server is currently running")
		return nil
	}

	var failed bool
	for _, ct := range running {
		if err := engine.Stop(ctx, ct.ID); err != nil {
			failed = true
			fmt.Fprintf(cmd.Writer, "Warning: failed to stop container %s: %v\n", shortID(ct.ID), err)
		}
	}

	if failed {
		fmt.Fprintf(cmd.Writer, "You may need to stop it manually with: docker stop $(docker ps -q --filter label=%s=true)\n", docker.DevLabel)
		return nil
	}

	fmt.Fprintln(cmd.Writer, "MongoDB development server stopped")
	return nil
}

func runDevStatus(ctx context.Context, cmd *cli.Command) error {
	engine, err := newDockerEngine()
	if err != nil {
		return err
	}

	running, err := engine.List(ctx)
	if err != nil {
		return err
	}
	if len(running) == 0 {
		fmt.Fprintln(cmd.Writer, "No MongoDB development server is currently running")
		return nil
	}

	fmt.Fprintln(cmd.Writer, "MongoDB development server is running:")
	for _, ct := range running {
		name := shortID(ct.ID)
		if len(ct.Names) > 0 {
			name = ct.Names[0]
		}

		fmt.Fprintf(cmd.Writer, "  %s  %s  %s\n", name, ct.Image, ct.Status)
	}

	return nil
}

// initializeDevDatamodel installs the manifest on the fresh server so the
// datamodel is immediately usable, stamped with the version the application
// expects.
func initializeDevDatamodel(ctx context.Context, cmd *cli.Command, dsn, database string) error {
	cfg := effectiveConfig()

	mongoClient, err := mongodb.Connect(ctx, dsn, database)
	if err != nil {
		return err
	}
	defer func() { _ = mongoClient.Close(ctx) }()

	db := mongoClient.Database()
	m := migrator.New(migrator.Config{
		DB:               db,
		Store:            mongodb.NewManifestStore(db, cfg.MongoDB.Collection),
		PatchesDir:       resolvePatchesDir(cmd, cfg),
		Registry:         fixRegistry,
		DatamodelVersion: cfg.DatamodelVersion,
		Out:              cmd.Writer,
	})

	version, err := m.DatamodelVersion()
	if err != nil {
		return err
	}

	if err := m.Manifest().Initialize(ctx, version, false); err != nil {
		return err
	}

	fmt.Fprintf(cmd.Writer, "Datamodel initialized to version %s\n", version)
	return nil
}

func printConnectionDetails(cmd *cli.Command, dsn, database string) {
	fmt.Fprintln(cmd.Writer, "\n"+strings.Repeat("=", 60))
	fmt.Fprintln(cmd.Writer, "MongoDB Development Server Started")
	fmt.Fprintln(cmd.Writer, strings.Repeat("=", 60))
	fmt.Fprintf(cmd.Writer, "URI:      %s\n", dsn)
	fmt.Fprintf(cmd.Writer, "Database: %s\n", database)
	fmt.Fprintln(cmd.Writer, "\nUse 'mongopatcher dev down' to stop the server")
	fmt.Fprintln(cmd.Writer, strings.Repeat("=", 60))
}

// newDockerEngine connects to the local Docker daemon.
func newDockerEngine() (*docker.Engine, error) {
	dockerClient, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, errors.Wrap(err, "failed to create Docker client")
	}

	return docker.NewEngine(dockerClient), nil
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
