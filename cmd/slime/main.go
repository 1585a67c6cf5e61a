package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/astei/slimeworld/internal/config"
	"github.com/astei/slimeworld/internal/properties"
	"github.com/astei/slimeworld/internal/store"
	"github.com/astei/slimeworld/internal/world"
)

func main() {
	app := &cli.App{
		Name:  "slime",
		Usage: "converts, inspects and generates slime worlds",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "YAML configuration file",
				EnvVars: []string{config.EnvPath},
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "log debug output",
			},
		},
		Commands: []*cli.Command{
			convertCommand,
			inspectCommand,
			generateCommand,
			listCommand,
			deleteCommand,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "slime:", err)
		os.Exit(1)
	}
}

var propertyFlag = &cli.StringSliceFlag{
	Name:    "property",
	Aliases: []string{"p"},
	Usage:   "world property as key=value, repeatable",
}

// env is what every command works with.
type env struct {
	cfg     *config.Config
	logger  *slog.Logger
	store   store.Store
	manager *world.Manager
}

func setup(c *cli.Context) (*env, error) {
	level := slog.LevelInfo
	if c.Bool("verbose") {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}
	compression, err := cfg.Codec()
	if err != nil {
		return nil, err
	}
	version, err := cfg.Version()
	if err != nil {
		return nil, err
	}

	s, err := store.Open(c.Context, cfg.Store, logger)
	if err != nil {
		return nil, err
	}
	manager, err := world.NewManager(s, world.Options{
		Compression: compression,
		Target:      version,
		Logger:      logger,
	})
	if err != nil {
		s.Close()
		return nil, err
	}
	return &env{cfg: cfg, logger: logger, store: s, manager: manager}, nil
}

func (e *env) Close() error {
	return e.store.Close()
}

// properties applies --property flags over the configured properties.
func (e *env) properties(c *cli.Context) (properties.Properties, error) {
	props := e.cfg.Properties
	for _, kv := range c.StringSlice(propertyFlag.Name) {
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			return props, fmt.Errorf("property %q is not key=value", kv)
		}
		if err := props.Set(key, value); err != nil {
			return props, err
		}
	}
	return props, nil
}

// run wraps a command action with setup and teardown.
func run(action func(ctx context.Context, c *cli.Context, e *env) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		e, err := setup(c)
		if err != nil {
			return err
		}
		defer e.Close()
		return action(c.Context, c, e)
	}
}
