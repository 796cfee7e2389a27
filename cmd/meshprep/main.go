// meshprep is a CLI utility for preparing triangle meshes for GPU upload.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/Faultbox/meshprep/internal/config"
	"github.com/Faultbox/meshprep/internal/logger"
	"github.com/Faultbox/meshprep/internal/pipeline"
	"github.com/Faultbox/meshprep/pkg/filters"
	"github.com/Faultbox/meshprep/pkg/formats"
	"github.com/Faultbox/meshprep/pkg/geometry"
	"github.com/Faultbox/meshprep/pkg/tipsify"
)

var printer = message.NewPrinter(language.English)

func main() {
	config.ParseFlags()
	args := config.Args()
	if len(args) < 1 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := logger.Init(cfg.LoggerOptions()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	command := args[0]
	args = args[1:]

	switch command {
	case "info":
		err = cmdInfo(args)
	case "acmr":
		err = cmdACMR(cfg, args)
	case "prepare", "p":
		err = cmdPrepare(ctx, cfg, args)
	case "batch":
		err = cmdBatch(ctx, cfg, args)
	case "convert":
		err = cmdConvert(args)
	case "init-config":
		err = cmdInitConfig(cfg)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		logger.Log.Error("command failed", zap.String("command", command), zap.Error(err))
		logger.Sync()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`meshprep - geometry preparation for GPU rendering

Usage:
  meshprep [global options] <command> [options]

Commands:
  info <mesh>                       Show vertex, index and attribute counts
  acmr [-cache N] <mesh>            Show the average cache miss ratio
  prepare <mesh>...                 Run the configured pipeline and write shards
  batch -o <file> <mesh>...         Prepare meshes and pack them into batches
  convert <in> <out>                Convert between .geom and .yaml
  init-config                       Write the effective config to the config dir

Global options:
  -config <path>    Config file (default: ./meshprep.yaml or the config dir)
  -debug            Enable debug logging
  -cache-size N     Post-transform vertex cache size
  -workers N        Meshes prepared in parallel
  -format F         Output format (geom or yaml)
  -out DIR          Output directory
  -log-file PATH    Also write logs to PATH

Examples:
  meshprep info terrain.geom
  meshprep -workers 4 -out build prepare tiles/*.geom
  meshprep batch -o city.geom buildings/*.yaml
  meshprep convert cube.yaml cube.geom`)
}

func cmdInfo(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: meshprep info <mesh>")
	}

	g, err := formats.ReadFile(args[0])
	if err != nil {
		return err
	}
	n, err := g.NumberOfVertices()
	if err != nil {
		return err
	}

	printer.Printf("Mesh:      %s\n", args[0])
	printer.Printf("Primitive: %s\n", g.PrimitiveType)
	printer.Printf("Vertices:  %d\n", n)
	if g.HasIndices() {
		printer.Printf("Indices:   %d (%s)\n", len(g.Indices), g.IndexDatatype())
	} else {
		printer.Println("Indices:   none")
	}
	if g.PrimitiveType == geometry.Triangles && len(g.Indices) > 0 {
		if acmr, err := tipsify.CalculateACMR(g.Indices, -1, tipsify.DefaultCacheSize); err == nil {
			printer.Printf("ACMR:      %.3f (cache %d)\n", acmr, tipsify.DefaultCacheSize)
		}
	}
	printer.Println()
	printer.Println("Attributes:")
	locations := filters.CreateAttributeIndices(g)
	for _, name := range g.AttributeNames() {
		a := g.Attributes[name]
		norm := ""
		if a.Normalize {
			norm = " normalized"
		}
		printer.Printf("  %d %-14s %s x%d%s\n", locations[name], name, a.ComponentDatatype, a.ComponentsPerAttribute, norm)
	}
	return nil
}

func cmdACMR(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("acmr", flag.ExitOnError)
	cacheSize := fs.Int("cache", cfg.Pipeline.CacheSize, "Vertex cache size")
	reorder := fs.Bool("reorder", false, "Also show the ratio after tipsify reordering")
	fs.Parse(args)

	if fs.NArg() < 1 {
		return fmt.Errorf("usage: meshprep acmr [-cache N] [-reorder] <mesh>")
	}

	g, err := formats.ReadFile(fs.Arg(0))
	if err != nil {
		return err
	}
	if g.PrimitiveType != geometry.Triangles || !g.HasIndices() {
		return fmt.Errorf("%s: ACMR needs an indexed triangle list", fs.Arg(0))
	}

	acmr, err := tipsify.CalculateACMR(g.Indices, -1, *cacheSize)
	if err != nil {
		return err
	}
	printer.Printf("%s: %.4f\n", fs.Arg(0), acmr)

	if *reorder {
		reordered, err := filters.ReorderForPostVertexCache(g.Clone(), *cacheSize)
		if err != nil {
			return err
		}
		after, err := tipsify.CalculateACMR(reordered.Indices, -1, *cacheSize)
		if err != nil {
			return err
		}
		printer.Printf("%s (tipsify): %.4f\n", fs.Arg(0), after)
	}
	return nil
}

func cmdPrepare(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: meshprep prepare <mesh>...")
	}

	results, err := prepareFiles(ctx, cfg, args)
	if err != nil {
		return err
	}
	format, err := formats.ParseFormat(cfg.Output.Format)
	if err != nil {
		return err
	}

	paths, err := outputPaths(cfg.Output.Dir, results, format)
	if err != nil {
		return err
	}

	written := 0
	for r, res := range results {
		for i, shard := range res.Shards {
			if err := writeAs(paths[r][i], shard, format); err != nil {
				return err
			}
			written++
		}
		if res.ACMRBefore > 0 {
			printer.Printf("%s: ACMR %.3f -> %.3f, %d shard(s)\n", res.Name, res.ACMRBefore, res.ACMRAfter, len(res.Shards))
		} else {
			printer.Printf("%s: %d shard(s)\n", res.Name, len(res.Shards))
		}
	}
	printer.Printf("Wrote %d file(s) to %s\n", written, cfg.Output.Dir)
	return nil
}

func cmdBatch(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("batch", flag.ExitOnError)
	out := fs.String("o", "", "Output file; batches after the first get _N suffixes")
	fs.Parse(args)

	if *out == "" || fs.NArg() < 1 {
		return fmt.Errorf("usage: meshprep batch -o <file> <mesh>...")
	}
	format, err := formats.FormatFromPath(*out)
	if err != nil {
		return err
	}

	results, err := prepareFiles(ctx, cfg, fs.Args())
	if err != nil {
		return err
	}
	var shards []*geometry.Geometry
	for _, res := range results {
		shards = append(shards, res.Shards...)
	}

	p, err := newPipeline(cfg)
	if err != nil {
		return err
	}
	batches, err := p.Batch(ctx, shards)
	if err != nil {
		return err
	}

	dir := filepath.Dir(*out)
	name := strings.TrimSuffix(filepath.Base(*out), filepath.Ext(*out))
	for i, b := range batches {
		if err := writeAs(shardPath(dir, name, i, len(batches), format), b, format); err != nil {
			return err
		}
	}
	printer.Printf("Packed %d mesh(es) into %d batch(es)\n", len(shards), len(batches))
	return nil
}

func cmdConvert(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: meshprep convert <in> <out>")
	}
	g, err := formats.ReadFile(args[0])
	if err != nil {
		return err
	}
	if err := formats.WriteFile(args[1], g); err != nil {
		return err
	}
	printer.Printf("%s -> %s\n", args[0], args[1])
	return nil
}

func cmdInitConfig(cfg *config.Config) error {
	if err := cfg.Save(); err != nil {
		return err
	}
	printer.Printf("Config written to %s\n", filepath.Join(config.ConfigDir(), config.FileName))
	return nil
}

func newPipeline(cfg *config.Config) (*pipeline.Pipeline, error) {
	opts, err := pipeline.OptionsFromConfig(cfg.Pipeline)
	if err != nil {
		return nil, err
	}
	return pipeline.New(opts, logger.Named("pipeline")), nil
}

// prepareFiles reads every path and runs the configured pipeline over them.
func prepareFiles(ctx context.Context, cfg *config.Config, paths []string) ([]pipeline.Result, error) {
	p, err := newPipeline(cfg)
	if err != nil {
		return nil, err
	}

	names, err := meshNames(paths)
	if err != nil {
		return nil, err
	}
	inputs := make([]pipeline.Input, 0, len(paths))
	for i, path := range paths {
		g, err := formats.ReadFile(path)
		if err != nil {
			return nil, err
		}
		inputs = append(inputs, pipeline.Input{Name: names[i], Geometry: g})
	}
	return p.PrepareAll(ctx, inputs)
}

// meshName is the file name without directory or extension.
func meshName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// meshNames names every input and rejects two inputs sharing a name, since
// their outputs would overwrite each other. Names are compared ignoring case.
func meshNames(paths []string) ([]string, error) {
	names := make([]string, len(paths))
	seen := make(map[string]string, len(paths))
	for i, path := range paths {
		names[i] = meshName(path)
		key := strings.ToLower(names[i])
		if prev, ok := seen[key]; ok {
			return nil, fmt.Errorf("%s and %s both produce mesh %q", prev, path, names[i])
		}
		seen[key] = path
	}
	return names, nil
}

// outputPaths plans the file of every shard and rejects plans where two shards
// land on one file, e.g. shard 0 of "tile" and an input named "tile_0".
func outputPaths(dir string, results []pipeline.Result, f formats.Format) ([][]string, error) {
	paths := make([][]string, len(results))
	owner := make(map[string]string)
	for r, res := range results {
		paths[r] = make([]string, len(res.Shards))
		for i := range res.Shards {
			path := shardPath(dir, res.Name, i, len(res.Shards), f)
			key := strings.ToLower(path)
			if prev, ok := owner[key]; ok {
				return nil, fmt.Errorf("%s: written by both %s and %s", path, prev, res.Name)
			}
			owner[key] = res.Name
			paths[r][i] = path
		}
	}
	return paths, nil
}

// shardPath names shard i of total; a single shard keeps the plain name.
func shardPath(dir, name string, i, total int, f formats.Format) string {
	if total > 1 {
		name = fmt.Sprintf("%s_%d", name, i)
	}
	return filepath.Join(dir, name+f.Ext())
}

func writeAs(path string, g *geometry.Geometry, f formats.Format) error {
	data, err := formats.Encode(g, f)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return err
	}
	logger.Log.Debug("wrote mesh", zap.String("path", path), zap.Int("bytes", len(data)))
	return nil
}
