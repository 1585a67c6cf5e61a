package main

import (
	"bytes"
	"context"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/astei/slimeworld/internal/anvil"
	"github.com/astei/slimeworld/internal/generate"
	"github.com/astei/slimeworld/internal/slime"
)

var convertCommand = &cli.Command{
	Name:      "convert",
	Usage:     "imports an Anvil world into the store",
	ArgsUsage: "<anvil-dir> <name>",
	Flags:     []cli.Flag{propertyFlag},
	Action: run(func(ctx context.Context, c *cli.Context, e *env) error {
		if c.NArg() != 2 {
			return cli.Exit("need an Anvil world directory and a world name", 2)
		}
		version, err := e.cfg.Version()
		if err != nil {
			return err
		}
		props, err := e.properties(c)
		if err != nil {
			return err
		}
		snap, err := anvil.Import(ctx, c.Args().Get(0), anvil.Options{Version: version, Logger: e.logger})
		if err != nil {
			return err
		}
		_, err = e.manager.Create(ctx, c.Args().Get(1), props, snap)
		return err
	}),
}

var generateCommand = &cli.Command{
	Name:      "generate",
	Usage:     "generates a perlin noise world into the store",
	ArgsUsage: "<name>",
	Flags: []cli.Flag{
		propertyFlag,
		&cli.Int64Flag{Name: "seed", Usage: "noise seed"},
		&cli.IntFlag{Name: "radius", Value: 4, Usage: "distance from the origin in columns"},
	},
	Action: run(func(ctx context.Context, c *cli.Context, e *env) error {
		if c.NArg() != 1 {
			return cli.Exit("need a world name", 2)
		}
		version, err := e.cfg.Version()
		if err != nil {
			return err
		}
		props, err := e.properties(c)
		if err != nil {
			return err
		}
		terrain := generate.DefaultTerrain(c.Int64("seed"))
		terrain.Radius = c.Int("radius")
		terrain.Version = version
		snap, err := terrain.Generate()
		if err != nil {
			return err
		}
		_, err = e.manager.Create(ctx, c.Args().First(), props, snap)
		return err
	}),
}

var inspectCommand = &cli.Command{
	Name:      "inspect",
	Usage:     "prints a summary of a stored world",
	ArgsUsage: "<name>",
	Action: run(func(ctx context.Context, c *cli.Context, e *env) error {
		if c.NArg() != 1 {
			return cli.Exit("need a world name", 2)
		}
		data, err := e.store.Load(ctx, c.Args().First())
		if err != nil {
			return err
		}
		compression, err := e.cfg.Codec()
		if err != nil {
			return err
		}
		decoder := &slime.Decoder{Compression: compression, Logger: e.logger}
		container, err := decoder.ReadContainer(bytes.NewReader(data))
		if err != nil {
			return err
		}
		snap, err := decoder.Reconstruct(container)
		if err != nil {
			return err
		}
		return printSummary(c.App.Writer, len(data), container, snap)
	}),
}

var listCommand = &cli.Command{
	Name:  "list",
	Usage: "lists stored worlds",
	Action: run(func(ctx context.Context, c *cli.Context, e *env) error {
		names, err := e.store.List(ctx)
		if err != nil {
			return err
		}
		for _, name := range names {
			fmt.Fprintln(c.App.Writer, name)
		}
		return nil
	}),
}

var deleteCommand = &cli.Command{
	Name:      "delete",
	Usage:     "removes a world from the store",
	ArgsUsage: "<name>",
	Action: run(func(ctx context.Context, c *cli.Context, e *env) error {
		if c.NArg() != 1 {
			return cli.Exit("need a world name", 2)
		}
		return e.manager.Delete(ctx, c.Args().First())
	}),
}
