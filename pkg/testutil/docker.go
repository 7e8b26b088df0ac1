package testutil

import (
	"context"
	"os/exec"
	"testing"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/pkg/errors"
	"github.com/scille/mongopatcher/pkg/consts"
	"github.com/scille/mongopatcher/pkg/docker"
	"github.com/stretchr/testify/require"
)

// ErrDockerOperation is a sentinel returned by mock Docker operations in
// tests exercising failure paths.
var ErrDockerOperation = errors.New("docker operation failed")

// SkipIfNoDocker skips the test when the Docker CLI is missing or the daemon
// is not reachable.
func SkipIfNoDocker(t *testing.T) {
	t.Helper()

	if _, err := exec.LookPath("docker"); err != nil {
		t.Skip("Docker not available")
	}

	if err := exec.CommandContext(t.Context(), "docker", "ps").Run(); err != nil {
		t.Skip("Docker daemon not running")
	}
}

// StartMongoContainer starts a disposable MongoDB container and returns its
// connection string. The container is terminated when the test finishes.
func StartMongoContainer(t *testing.T) string {
	t.Helper()

	SkipIfNoDocker(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	c := docker.NewWithOptions(docker.DockerOptions{Version: consts.DefaultMongoVersion})
	require.NoError(t, c.Start(ctx), "Failed to start MongoDB container")

	t.Cleanup(func() {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), time.Minute)
		defer stopCancel()

		_ = c.Stop(stopCtx)
	})

	dsn, err := c.GetDSN()
	require.NoError(t, err, "Failed to get container DSN")

	return dsn
}

// MockDockerClient implements docker.DockerClient with overridable function
// fields. Unset fields behave as a daemon with no matching containers.
type MockDockerClient struct {
	ContainerListFunc   func(ctx context.Context, options container.ListOptions) ([]container.Summary, error)
	ContainerStopFunc   func(ctx context.Context, containerID string, options container.StopOptions) error
	ContainerRemoveFunc func(ctx context.Context, containerID string, options container.RemoveOptions) error
}

// NewMockDockerClient creates a new mock Docker client.
func NewMockDockerClient() *MockDockerClient {
	return &MockDockerClient{}
}

// ContainerList implements docker.DockerClient.
func (m *MockDockerClient) ContainerList(ctx context.Context, options container.ListOptions) ([]container.Summary, error) {
	if m.ContainerListFunc != nil {
		return m.ContainerListFunc(ctx, options)
	}
	return nil, nil
}

// ContainerStop implements docker.DockerClient.
func (m *MockDockerClient) ContainerStop(ctx context.Context, containerID string, options container.StopOptions) error {
	if m.ContainerStopFunc != nil {
		return m.ContainerStopFunc(ctx, containerID, options)
	}
	return nil
}

// ContainerRemove implements docker.DockerClient.
func (m *MockDockerClient) ContainerRemove(ctx context.Context, containerID string, options container.RemoveOptions) error {
	if m.ContainerRemoveFunc != nil {
		return m.ContainerRemoveFunc(ctx, containerID, options)
	}
	return nil
}
