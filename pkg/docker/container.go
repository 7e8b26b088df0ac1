package docker

import (
	"context"
	"fmt"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/pkg/errors"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	// DefaultMongoPort is the default port for the MongoDB server
	DefaultMongoPort = 27017

	// DevLabel marks containers started by this package so they can be
	// found again by later invocations (e.g. "dev down"). Containers get
	// random names, so the label is the only reliable handle.
	DevLabel = "mongopatcher.dev"
)

type (
	// DockerOptions represents options for running MongoDB in Docker
	DockerOptions struct {
		// Version is the MongoDB version to run (default: latest)
		Version string

		// Username and Password enable authentication on the instance.
		// Either both or neither must be set.
		Username string
		Password string
	}

	// Container manages a MongoDB Docker container for local development
	// and patch testing
	Container struct {
		options   DockerOptions
		container *mongodb.MongoDBContainer
	}
)

// New creates a new Docker container with default options
//
// Example:
//
//	container := docker.New()
//
//	// Start MongoDB container
//	if err := container.Start(ctx); err != nil {
//		log.Fatal(err)
//	}
//	defer container.Stop(ctx)
func New() *Container {
	return &Container{
		options: DockerOptions{},
	}
}

// NewWithOptions creates a new Docker container with custom options
//
// Example:
//
//	opts := docker.DockerOptions{
//		Version: "7.0",
//	}
//	container := docker.NewWithOptions(opts)
//
//	// Start MongoDB container
//	if err := container.Start(ctx); err != nil {
//		log.Fatal(err)
//	}
//	defer container.Stop(ctx)
func NewWithOptions(opts DockerOptions) *Container {
	return &Container{
		options: opts,
	}
}

// Start starts a MongoDB Docker container with the configured version
func (c *Container) Start(ctx context.Context) error {
	if c.container != nil {
		return errors.New("container is already running")
	}

	version := c.options.Version
	if version == "" {
		version = "latest"
	}

	customizers := []testcontainers.ContainerCustomizer{
		testcontainers.WithLabels(map[string]string{DevLabel: "true"}),
		testcontainers.WithWaitStrategyAndDeadline(
			5*time.Minute,
			wait.ForListeningPort(nat.Port(fmt.Sprintf("%d/tcp", DefaultMongoPort))),
		),
	}

	if c.options.Username != "" || c.options.Password != "" {
		customizers = append(customizers,
			mongodb.WithUsername(c.options.Username),
			mongodb.WithPassword(c.options.Password),
		)
	}

	container, err := mongodb.Run(ctx, fmt.Sprintf("mongo:%s", version), customizers...)
	if err != nil {
		return errors.Wrap(err, "failed to start MongoDB container")
	}

	c.container = container
	return nil
}

// Stop stops and removes the MongoDB Docker container
func (c *Container) Stop(ctx context.Context) error {
	if c.container == nil {
		return nil // Already stopped
	}

	err := c.container.Terminate(ctx)
	c.container = nil

	if err != nil {
		return errors.Wrap(err, "failed to stop MongoDB container")
	}

	return nil
}

// GetDSN returns the connection string for the Docker MongoDB instance,
// including credentials when authentication was configured
func (c *Container) GetDSN() (string, error) {
	if c.container == nil {
		return "", errors.New("container is not running")
	}

	connectionString, err := c.container.ConnectionString(context.Background())
	if err != nil {
		return "", errors.Wrap(err, "failed to get connection string")
	}

	return connectionString, nil
}

// IsRunning returns true if the container is currently running
func (c *Container) IsRunning() bool {
	return c.container != nil
}
