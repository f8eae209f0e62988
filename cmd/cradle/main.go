// Command cradle runs a containerized tool via docker run, rewriting
// path-bearing arguments into bind-mounted container paths.
// The child's exit code becomes cradle's exit code.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"cradle/internal/compose"
	"cradle/internal/config"
	"cradle/internal/dockerd"
	"cradle/internal/mount"
	"cradle/internal/rewrite"
)

const version = "1.0.0"

// defaultConfigFile is picked up from the working directory when
// -config is not given. Absence is not an error.
const defaultConfigFile = "cradle.yaml"

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("cradle", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to the cradle configuration file")
	image := fs.String("image", "", "Payload image (overrides the config file)")
	buildFirst := fs.Bool("build", false, "Build the payload image before running")
	dryRun := fs.Bool("dry-run", false, "Print the composed docker command instead of running it")
	verbose := fs.Bool("verbose", false, "Log mount translation details")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "cradle v%s - containerized tool launcher\n\n", version)
		fmt.Fprintf(os.Stderr, "Usage: cradle [options] [--] <tool arguments>\n\n")
		fmt.Fprintf(os.Stderr, "Arguments containing a path separator are resolved on the host,\n")
		fmt.Fprintf(os.Stderr, "bind-mounted into the container, and rewritten to their\n")
		fmt.Fprintf(os.Stderr, "container-side paths. Everything else passes through unchanged.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}
	fs.Parse(args)

	logger := log.New(os.Stderr, "[cradle] ", log.LstdFlags|log.Lmsgprefix)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return fatal(logger, "config: %v", err)
	}
	if *image != "" {
		cfg.Image = *image
	}
	if cfg.Image == "" {
		return fatal(logger, "no payload image configured (use -image or the config file)")
	}

	// The log directory is always mounted, so it has to exist before
	// docker validates the bind source.
	if err := os.MkdirAll(cfg.LogDir, 0755); err != nil {
		return fatal(logger, "create log directory: %v", err)
	}

	ctx := context.Background()

	if !*dryRun {
		if err := prepareImage(ctx, cfg, *buildFirst, *verbose, logger); err != nil {
			return fatal(logger, "%v", err)
		}
	}

	registry := mount.NewRegistry(cfg.NamespaceRoot)
	rw := &rewrite.Rewriter{
		Registry:        registry,
		LogDir:          cfg.LogDir,
		ContainerLogDir: cfg.ContainerLogDir,
		PathFlags:       cfg.PathFlags,
	}

	payload, err := rw.Rewrite(fs.Args())
	if err != nil {
		return fatal(logger, "rewrite arguments: %v", err)
	}

	if *verbose {
		for _, m := range registry.Mounts() {
			logger.Printf("mount %s -> %s", m.Source, m.Target)
		}
	}

	argv, err := compose.Command(cfg, registry.Mounts(), payload, compose.InteractiveTTY())
	if err != nil {
		return fatal(logger, "compose command: %v", err)
	}

	if *dryRun {
		fmt.Println(strings.Join(argv, " "))
		return 0
	}

	if *verbose {
		logger.Printf("exec: %s", strings.Join(argv, " "))
	}

	code, err := compose.Invoke(ctx, argv, compose.Stdio{
		In:  os.Stdin,
		Out: os.Stdout,
		Err: os.Stderr,
	})
	if err != nil {
		return fatal(logger, "invoke: %v", err)
	}
	return code
}

// loadConfig loads the named config file, or the conventional one from
// the working directory, or falls back to built-in defaults.
func loadConfig(path string) (config.Config, error) {
	if path != "" {
		return config.Load(path)
	}
	if _, err := os.Stat(defaultConfigFile); err == nil {
		return config.Load(defaultConfigFile)
	}
	return config.Default(), nil
}

// prepareImage checks daemon liveness and makes sure the payload image
// exists, building it first when requested or configured.
func prepareImage(ctx context.Context, cfg config.Config, buildFirst, verbose bool, logger *log.Logger) error {
	dc, err := dockerd.New(logger)
	if err != nil {
		return err
	}
	defer dc.Close()

	if err := dc.Ping(ctx); err != nil {
		return err
	}

	if cfg.Build != nil && (buildFirst || !imageExists(ctx, dc, cfg.Image)) {
		timeout, err := cfg.BuildTimeout()
		if err != nil {
			return err
		}
		opts := dockerd.BuildOptions{
			ContextDir: cfg.Build.Context,
			Tag:        cfg.BuildTag(),
			NoCache:    cfg.Build.NoCache,
			Timeout:    timeout,
		}
		if verbose {
			opts.Output = os.Stderr
		}
		return dc.Build(ctx, opts)
	}

	ok, err := dc.HasImage(ctx, cfg.Image)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("image %q not found locally (pull it or configure a build section)", cfg.Image)
	}
	return nil
}

func imageExists(ctx context.Context, dc *dockerd.Client, ref string) bool {
	ok, err := dc.HasImage(ctx, ref)
	return err == nil && ok
}

func fatal(logger *log.Logger, format string, args ...interface{}) int {
	logger.Printf("error: "+format, args...)
	return 1
}
