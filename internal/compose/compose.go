// Package compose builds the docker run invocation for a rewritten
// argument vector and executes it attached to the caller's terminal.
package compose

import (
	"fmt"
	"os"

	"github.com/google/shlex"
	"github.com/mattn/go-isatty"

	"cradle/internal/config"
	"cradle/internal/mount"
)

// Command assembles the full docker run argument vector: the fixed
// invocation prefix, the control-socket bind, one --mount clause per
// registered mount, resource and network limits from the config, any
// extra run arguments, and finally the payload image and its rewritten
// arguments.
func Command(cfg config.Config, mounts []mount.Mount, payload []string, tty bool) ([]string, error) {
	if cfg.Image == "" {
		return nil, fmt.Errorf("no payload image configured")
	}

	argv := []string{"docker", "run", "--rm", "-i", "--sig-proxy=true"}
	if tty {
		argv = append(argv, "-t")
	}

	// The control socket lets the payload launch sibling containers.
	argv = append(argv, mountFlag(mount.Mount{Source: cfg.DockerSocket, Target: cfg.DockerSocket}))

	for _, m := range mounts {
		argv = append(argv, mountFlag(m))
	}

	if cfg.Network != "" {
		argv = append(argv, "--network", cfg.Network)
	}
	if cfg.Memory != "" {
		argv = append(argv, fmt.Sprintf("-m=%s", cfg.Memory))
	}
	if cfg.CPUs != "" {
		argv = append(argv, fmt.Sprintf("--cpus=%s", cfg.CPUs))
	}

	if cfg.ExtraRunArgs != "" {
		extra, err := shlex.Split(cfg.ExtraRunArgs)
		if err != nil {
			return nil, fmt.Errorf("parse extra_run_args: %w", err)
		}
		argv = append(argv, extra...)
	}

	argv = append(argv, cfg.Image)
	argv = append(argv, payload...)
	return argv, nil
}

func mountFlag(m mount.Mount) string {
	return fmt.Sprintf("--mount=type=bind,source=%s,target=%s", m.Source, m.Target)
}

// InteractiveTTY reports whether both ends of the invoking terminal are
// real TTYs, in which case the container gets one too.
func InteractiveTTY() bool {
	return isatty.IsTerminal(os.Stdin.Fd()) && isatty.IsTerminal(os.Stdout.Fd())
}
