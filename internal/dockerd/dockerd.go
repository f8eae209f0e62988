// Package dockerd talks to the Docker daemon for everything that is not
// the interactive run itself: liveness checks, image presence, and the
// optional pre-run image build.
package dockerd

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/docker/docker/api/types/build"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/jsonmessage"
)

// Client wraps the Docker SDK client.
type Client struct {
	api    *client.Client
	logger *log.Logger
}

// New connects to the Docker daemon using the standard environment
// settings (DOCKER_HOST etc.) with API version negotiation.
func New(logger *log.Logger) (*Client, error) {
	if logger == nil {
		logger = log.New(os.Stdout, "[dockerd] ", log.LstdFlags|log.Lmsgprefix)
	}

	api, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("create docker client: %w", err)
	}

	return &Client{api: api, logger: logger}, nil
}

// Close releases the underlying SDK client.
func (c *Client) Close() error {
	return c.api.Close()
}

// Ping checks that the daemon is reachable and responsive.
func (c *Client) Ping(ctx context.Context) error {
	if _, err := c.api.Ping(ctx); err != nil {
		return fmt.Errorf("could not connect to the Docker daemon (is Docker running?): %w", err)
	}
	return nil
}

// HasImage reports whether the given image reference exists locally.
func (c *Client) HasImage(ctx context.Context, ref string) (bool, error) {
	_, err := c.api.ImageInspect(ctx, ref)
	if err != nil {
		if client.IsErrNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("inspect image %q: %w", ref, err)
	}
	return true, nil
}

// BuildOptions describes a pre-run image build.
type BuildOptions struct {
	ContextDir string
	Tag        string
	NoCache    bool
	Timeout    time.Duration // zero means no limit
	Output     io.Writer     // build progress; defaults to io.Discard
}

// Build builds an image from a context directory and tags it. The build
// runs quietly on the host network, mirroring how payload images are
// conventionally built for this tool.
func (c *Client) Build(ctx context.Context, opts BuildOptions) error {
	if opts.ContextDir == "" {
		return fmt.Errorf("build requires a context directory")
	}
	if opts.Tag == "" {
		return fmt.Errorf("build requires a tag")
	}
	if opts.Output == nil {
		opts.Output = io.Discard
	}

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	buildCtx, err := tarContext(opts.ContextDir)
	if err != nil {
		return fmt.Errorf("prepare build context: %w", err)
	}

	c.logger.Printf("building image %s from %s", opts.Tag, opts.ContextDir)

	resp, err := c.api.ImageBuild(ctx, buildCtx, build.ImageBuildOptions{
		Tags:           []string{opts.Tag},
		NoCache:        opts.NoCache,
		NetworkMode:    "host",
		SuppressOutput: true,
		Remove:         true,
	})
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return fmt.Errorf("build of %q timed out after %s", opts.Tag, opts.Timeout)
		}
		return fmt.Errorf("build image %q: %w", opts.Tag, err)
	}
	defer resp.Body.Close()

	// The daemon reports build failures inside the JSON message stream,
	// not as an HTTP error.
	if err := jsonmessage.DisplayJSONMessagesStream(resp.Body, opts.Output, 0, false, nil); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return fmt.Errorf("build of %q timed out after %s", opts.Tag, opts.Timeout)
		}
		return fmt.Errorf("build image %q: %w", opts.Tag, err)
	}

	c.logger.Printf("built image %s", opts.Tag)
	return nil
}
