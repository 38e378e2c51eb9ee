// cutsim drives the severance engine with a procedural block and a straight
// blade sweep.
package main

import (
	"fmt"
	"os"
	"runtime"

	"go.uber.org/zap"

	"github.com/Faultbox/kerf/internal/config"
	"github.com/Faultbox/kerf/internal/engine/scene"
	"github.com/Faultbox/kerf/internal/engine/tetmesh"
	"github.com/Faultbox/kerf/internal/engine/topology"
	"github.com/Faultbox/kerf/internal/logger"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "info":
		cmdInfo(args)
	case "run":
		cmdRun(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`cutsim - tetrahedral mesh severance simulator

Usage:
  cutsim <command> [options]

Commands:
  info    Show the block topology and its partitioning
  run     Sweep the blade through the block

Options:
  -config <file>     Config file (default ./kerf.yaml)
  -debug             Enable debug logging
  -workers <n>       Worker goroutines
  -frames <n>        Frames to simulate
  -partitions <n>    Partitions per submesh

Examples:
  cutsim info -partitions 8
  cutsim run -frames 120 -debug`)
}

// setup parses flags, loads the config and starts the logger.
func setup(args []string) *config.Config {
	config.ParseFlags(args)

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	logger.Sugar.Debugf("Config: %+v", cfg)
	return cfg
}

func buildMesh(cfg *config.Config) *tetmesh.Mesh {
	m := cfg.Mesh
	topo, err := topology.Block(m.NX, m.NY, m.NZ, m.Size, m.Submeshes)
	if err != nil {
		logger.Fatal("building block", zap.Error(err))
	}

	e := cfg.Engine
	opts := tetmesh.Options{
		Partitions:  e.Partitions,
		BufferSlots: e.BufferSlots,
		Params: tetmesh.Params{
			CutDistance:         e.CutDistance,
			AdjustFraction:      e.AdjustFraction,
			ParallelTolerance:   e.ParallelTolerance,
			CoincidentTolerance: e.CoincidentTolerance,
		},
	}
	mesh, err := tetmesh.NewMesh("block", topo, opts)
	if err != nil {
		logger.Fatal("loading mesh", zap.Error(err))
	}
	return mesh
}

func cmdInfo(args []string) {
	cfg := setup(args)
	defer logger.Sync()

	mesh := buildMesh(cfg)
	fmt.Printf("Block:     %dx%dx%d cubes of %g\n", cfg.Mesh.NX, cfg.Mesh.NY, cfg.Mesh.NZ, cfg.Mesh.Size)
	fmt.Printf("Vertices:  %d\n", len(mesh.Positions))
	fmt.Printf("Cells:     %d\n", mesh.NumCells())
	fmt.Println()

	for _, sub := range mesh.Submeshes {
		fmt.Printf("Submesh %d: %d cells, %d edges, %d external + %d internal faces\n",
			sub.Index, sub.NumCells(), len(sub.Edges), sub.NumExternal, len(sub.Faces)-sub.NumExternal)
		for _, p := range sub.Partitions {
			fmt.Printf("  partition %-3d cells [%d,%d)  ext faces [%d,%d)  int faces [%d,%d)\n",
				p.Index, p.CellStart, p.CellEnd, p.ExtStart, p.ExtEnd, p.IntStart, p.IntEnd)
		}
	}
}

func cmdRun(args []string) {
	cfg := setup(args)
	defer logger.Sync()

	mesh := buildMesh(cfg)
	path, err := newSweepPath(cfg)
	if err != nil {
		logger.Fatal("placing blade", zap.Error(err))
	}

	workers := cfg.Engine.Workers
	if workers == 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	sc, err := scene.New(scene.Config{
		Workers:           workers,
		PropagationRounds: cfg.Engine.PropagationRounds,
	}, path.Blade())
	if err != nil {
		logger.Fatal("failed to create scene", zap.Error(err))
	}
	sc.AddMesh(mesh)

	logger.Info("=== cutsim ===",
		zap.Int("cells", mesh.NumCells()),
		zap.Int("workers", workers),
		zap.Int("frames", cfg.Blade.Frames))

	h := scene.NewHandoff()
	served := make(chan struct{})
	go func() {
		defer close(served)
		sc.Serve(h)
	}()
	go func() {
		for f := 1; f <= cfg.Blade.Frames; f++ {
			if !h.Submit(scene.Input{Blade: path.At(f)}) {
				return
			}
		}
	}()

	var total tetmesh.Stats
	out := newOutput()
	for f := 0; f < cfg.Blade.Frames; f++ {
		r, ok := h.Await()
		if !ok {
			break
		}
		if r.Err != nil {
			logger.Error("frame failed", zap.Uint32("frame", r.Frame), zap.Error(r.Err))
			h.Close()
			break
		}
		total.Add(r.Stats)
		out.collect(mesh)
		logger.Debug("frame",
			zap.Uint32("frame", r.Frame),
			zap.Int("examined", r.Stats.Examined),
			zap.Int("edge_hits", r.Stats.EdgeHits),
			zap.Int("inside_tris", out.insideTris),
			zap.Int("outside_tris", out.outsideTris))
		h.Release()
	}
	h.Close()
	<-served

	report(mesh, total, out)
}
