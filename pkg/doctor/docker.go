package doctor

import (
	"context"
	"fmt"
	"time"

	"github.com/docker/docker/client"
)

// pingTimeout bounds how long a daemon ping may take.
const pingTimeout = 5 * time.Second

// DaemonPinger reports the API version of a reachable Docker daemon.
type DaemonPinger interface {
	Ping(ctx context.Context) (string, error)
}

// DockerClient pings the daemon through the Docker SDK.
type DockerClient struct {
	inner *client.Client
}

// NewDockerClient connects using DOCKER_HOST and friends, falling back to
// the default socket.
func NewDockerClient() (*DockerClient, error) {
	c, err := client.NewClientWithOpts(
		client.FromEnv,
		client.WithAPIVersionNegotiation(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create Docker client: %w", err)
	}
	return &DockerClient{inner: c}, nil
}

// Ping returns the daemon's API version.
func (c *DockerClient) Ping(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	p, err := c.inner.Ping(ctx)
	if err != nil {
		return "", err
	}
	return p.APIVersion, nil
}

// Close releases the client's connections.
func (c *DockerClient) Close() error {
	if c.inner != nil {
		return c.inner.Close()
	}
	return nil
}
