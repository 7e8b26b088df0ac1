package docker

import (
	"context"
	"strings"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/pkg/errors"
)

var (
	runningContainers = filters.Arg("status", "running")
	devContainers     = filters.Arg("label", DevLabel+"=true")
)

type (
	// DockerClient defines the interface for Docker operations used by the Engine.
	// This interface is satisfied by *client.Client and allows for easy mocking in tests.
	DockerClient interface {
		ContainerList(context.Context, container.ListOptions) ([]container.Summary, error)
		ContainerStop(context.Context, string, container.StopOptions) error
		ContainerRemove(context.Context, string, container.RemoveOptions) error
	}

	// Engine finds and manages the development server containers started by
	// this package. Creation goes through Container; the Engine only deals
	// with containers that already exist, located via DevLabel.
	Engine struct {
		client DockerClient
	}

	// ContainerInfo describes a running development server container.
	ContainerInfo struct {
		ID     string
		Names  []string
		Image  string
		State  string
		Status string
	}
)

// NewEngine creates a new Docker Engine instance for managing development
// server containers. The Docker client should be initialized and connected
// before passing to this constructor.
//
// Example:
//
//	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer cli.Close()
//
//	engine := docker.NewEngine(cli)
//
//	containers, err := engine.List(ctx)
//	if err != nil {
//		log.Fatal(err)
//	}
//	for _, c := range containers {
//		if err := engine.Stop(ctx, c.ID); err != nil {
//			log.Fatal(err)
//		}
//	}
func NewEngine(cl DockerClient) *Engine {
	return &Engine{
		client: cl,
	}
}

// List returns the running development server containers.
func (c *Engine) List(ctx context.Context) ([]*ContainerInfo, error) {
	list, err := c.client.ContainerList(ctx, container.ListOptions{
		Filters: filters.NewArgs(runningContainers, devContainers),
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to list running containers")
	}

	res := make([]*ContainerInfo, len(list))
	for i, c := range list {
		// Map slice of names to remove leading "/" prefix
		names := make([]string, len(c.Names))
		for j, name := range c.Names {
			names[j] = strings.TrimPrefix(name, "/")
		}

		res[i] = &ContainerInfo{
			ID:     c.ID,
			Names:  names,
			Image:  c.Image,
			State:  c.State,
			Status: c.Status,
		}
	}

	return res, nil
}

// Stop stops and removes the given container.
func (c *Engine) Stop(ctx context.Context, nameOrID string) error {
	timeout := 30
	if err := c.client.ContainerStop(ctx, nameOrID, container.StopOptions{
		Timeout: &timeout,
	}); err != nil {
		return errors.Wrapf(err, "failed to stop container: %s", nameOrID)
	}

	if err := c.client.ContainerRemove(ctx, nameOrID, container.RemoveOptions{
		Force: true,
	}); err != nil {
		return errors.Wrapf(err, "failed to remove container: %s", nameOrID)
	}

	return nil
}
