// Package main is the entry point for the sfs tool.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/popgen-tools/sfs/internal/api"
	"github.com/popgen-tools/sfs/internal/array"
	"github.com/popgen-tools/sfs/internal/cache"
	"github.com/popgen-tools/sfs/internal/config"
	"github.com/popgen-tools/sfs/internal/genotype"
	"github.com/popgen-tools/sfs/internal/render"
	"github.com/popgen-tools/sfs/internal/service"
	"github.com/popgen-tools/sfs/internal/sfsio"
	"github.com/popgen-tools/sfs/internal/sites"
	"github.com/popgen-tools/sfs/internal/spectrum"
	"github.com/popgen-tools/sfs/internal/store"
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("sfs: ")

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "create":
		runCreate(os.Args[2:])
	case "fold":
		runFold(os.Args[2:])
	case "marginalize":
		runMarginalize(os.Args[2:])
	case "project":
		runProject(os.Args[2:])
	case "normalize":
		runNormalize(os.Args[2:])
	case "stat":
		runStat(os.Args[2:])
	case "view":
		runView(os.Args[2:])
	case "serve":
		runServe(os.Args[2:])
	case "-h", "-help", "--help", "help":
		usage()
	default:
		log.Printf("unknown command %q", os.Args[1])
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: sfs <command> [flags] [args]

commands:
  create       build a spectrum from a genotype matrix
  fold         fold a spectrum onto the minor allele
  marginalize  sum out one or more populations
  project      down-project a spectrum to a smaller shape
  normalize    convert counts to frequencies
  stat         compute summary statistics
  view         render a spectrum heatmap to PNG
  serve        serve a spectrum over HTTP

run 'sfs <command> -h' for command flags`)
}

func runCreate(args []string) {
	fs := flag.NewFlagSet("create", flag.ExitOnError)
	configPath := fs.String("config", "", "path to YAML configuration")
	samplesPath := fs.String("samples", "", "sample map file (sample[<TAB>population] per line)")
	projectArg := fs.String("project", "", "per-population allele counts to project to, e.g. 20/12")
	strict := fs.Bool("strict", false, "turn warnings into errors")
	outPath := fs.String("out", "", "output spectrum path (required)")
	tiledbPath := fs.String("tiledb", "", "also write the spectrum to a TileDB array at this URI")
	format := fs.String("format", "", "output format: text or npy")
	precision := fs.Int("precision", 0, "decimal places for text output")
	gz := fs.Bool("gzip", false, "gzip the output")
	fs.Parse(args)

	if fs.NArg() != 1 {
		log.Fatalf("create: expected exactly one input file, got %d", fs.NArg())
	}
	if *outPath == "" {
		log.Fatal("create: -out is required")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}
	set := setFlags(fs)
	if !set["samples"] {
		*samplesPath = cfg.Create.SamplesFile
	}
	if !set["strict"] {
		*strict = cfg.Create.Strict
	}

	reader, err := genotype.OpenMatrix(fs.Arg(0))
	if err != nil {
		log.Fatalf("failed to open input: %v", err)
	}
	defer reader.Close()

	var sampleMap *sites.SampleMap
	if *samplesPath != "" {
		sampleMap, err = sites.LoadSampleMap(*samplesPath)
	} else {
		sampleMap, err = sites.MapAll(reader.SampleNames())
	}
	if err != nil {
		log.Fatalf("failed to build sample map: %v", err)
	}

	var projection *sites.PartialProjection
	projectTo := cfg.Create.ProjectTo
	if set["project"] {
		projectTo, err = parseShapeArg(*projectArg)
		if err != nil {
			log.Fatalf("invalid -project: %v", err)
		}
	}
	if len(projectTo) > 0 {
		projection, err = sites.NewPartialProjection(spectrum.Count(projectTo))
		if err != nil {
			log.Fatalf("invalid projection: %v", err)
		}
	}

	runner, err := sites.NewRunner(reader, sampleMap, projection, *strict, log.Default())
	if err != nil {
		log.Fatalf("failed to set up run: %v", err)
	}

	scs, err := runner.Run()
	if err != nil {
		log.Fatalf("failed to build spectrum: %v", err)
	}

	writeOut(*outPath, scs, outputOptions(cfg, set, *format, *precision, *gz))

	if *tiledbPath != "" {
		st, err := store.NewStore(*tiledbPath)
		if err != nil {
			log.Fatalf("failed to open TileDB store: %v", err)
		}
		defer st.Close()
		if err := st.Write(scs); err != nil {
			log.Fatalf("failed to write TileDB array: %v", err)
		}
		log.Printf("wrote TileDB array to %s", st.URI())
	}
}

func runFold(args []string) {
	fs := flag.NewFlagSet("fold", flag.ExitOnError)
	outPath := fs.String("out", "", "output spectrum path (required)")
	nanFill := fs.Bool("nan", false, "fill the redundant half with NaN instead of zero")
	format := fs.String("format", "", "output format: text or npy")
	precision := fs.Int("precision", 0, "decimal places for text output")
	gz := fs.Bool("gzip", false, "gzip the output")
	fs.Parse(args)

	scs, opts := loadForTransform(fs, *outPath, *format, *precision, *gz)

	fill := 0.0
	if *nanFill {
		fill = math.NaN()
	}
	writeOut(*outPath, scs.Fold(fill), opts)
}

func runMarginalize(args []string) {
	fs := flag.NewFlagSet("marginalize", flag.ExitOnError)
	outPath := fs.String("out", "", "output spectrum path (required)")
	axesArg := fs.String("axes", "", "comma-separated axes to sum out, e.g. 0,2 (required)")
	format := fs.String("format", "", "output format: text or npy")
	precision := fs.Int("precision", 0, "decimal places for text output")
	gz := fs.Bool("gzip", false, "gzip the output")
	fs.Parse(args)

	scs, opts := loadForTransform(fs, *outPath, *format, *precision, *gz)

	axes, err := parseAxesArg(*axesArg)
	if err != nil {
		log.Fatalf("invalid -axes: %v", err)
	}

	marginal, err := scs.Marginalize(axes)
	if err != nil {
		log.Fatalf("failed to marginalize: %v", err)
	}
	writeOut(*outPath, marginal, opts)
}

func runProject(args []string) {
	fs := flag.NewFlagSet("project", flag.ExitOnError)
	outPath := fs.String("out", "", "output spectrum path (required)")
	toArg := fs.String("to", "", "target shape, e.g. 10/8 (required)")
	format := fs.String("format", "", "output format: text or npy")
	precision := fs.Int("precision", 0, "decimal places for text output")
	gz := fs.Bool("gzip", false, "gzip the output")
	fs.Parse(args)

	scs, opts := loadForTransform(fs, *outPath, *format, *precision, *gz)

	to, err := parseShapeArg(*toArg)
	if err != nil {
		log.Fatalf("invalid -to: %v", err)
	}

	projected, err := scs.Project(array.Shape(to))
	if err != nil {
		log.Fatalf("failed to project: %v", err)
	}
	writeOut(*outPath, projected, opts)
}

func runNormalize(args []string) {
	fs := flag.NewFlagSet("normalize", flag.ExitOnError)
	outPath := fs.String("out", "", "output spectrum path (required)")
	format := fs.String("format", "", "output format: text or npy")
	precision := fs.Int("precision", 0, "decimal places for text output")
	gz := fs.Bool("gzip", false, "gzip the output")
	fs.Parse(args)

	scs, opts := loadForTransform(fs, *outPath, *format, *precision, *gz)
	writeOut(*outPath, scs.Normalize(), opts)
}

// statNames is the display order for 'sfs stat' without -name.
var statNames = []string{
	"segregating-sites",
	"theta-watterson",
	"pi",
	"pi-xy",
	"tajima-d",
	"fu-li-d",
	"king",
	"r0",
	"r1",
	"f2",
	"f3",
	"f4",
	"fst",
	"heterozygosity",
}

func runStat(args []string) {
	fs := flag.NewFlagSet("stat", flag.ExitOnError)
	name := fs.String("name", "", "single statistic to compute (default: all applicable)")
	precision := fs.Int("precision", 6, "decimal places")
	fs.Parse(args)

	if fs.NArg() != 1 {
		log.Fatalf("stat: expected exactly one input file, got %d", fs.NArg())
	}
	scs, err := sfsio.Open(fs.Arg(0))
	if err != nil {
		log.Fatalf("failed to read spectrum: %v", err)
	}

	if *name != "" {
		v, err := statValue(scs, *name)
		if err != nil {
			log.Fatalf("failed to compute %s: %v", *name, err)
		}
		fmt.Printf("%.*f\n", *precision, v)
		return
	}

	for _, n := range statNames {
		v, err := statValue(scs, n)
		if err != nil {
			continue
		}
		fmt.Printf("%s\t%.*f\n", n, *precision, v)
	}
}

func statValue(scs *spectrum.CountSpectrum, name string) (float64, error) {
	switch name {
	case "segregating-sites":
		return scs.SegregatingSites(), nil
	case "theta-watterson":
		return scs.ThetaWatterson()
	case "pi":
		return scs.Pi()
	case "pi-xy":
		return scs.PiXY()
	case "tajima-d":
		return scs.DTajima()
	case "fu-li-d":
		return scs.DFuLi()
	case "king":
		return scs.King()
	case "r0":
		return scs.R0()
	case "r1":
		return scs.R1()
	case "f2":
		return scs.Normalize().F2()
	case "f3":
		return scs.Normalize().F3()
	case "f4":
		return scs.Normalize().F4()
	case "fst":
		return scs.Normalize().Fst()
	case "heterozygosity":
		return scs.Normalize().Heterozygosity()
	default:
		return 0, fmt.Errorf("unknown statistic %q", name)
	}
}

func runView(args []string) {
	fs := flag.NewFlagSet("view", flag.ExitOnError)
	configPath := fs.String("config", "", "path to YAML configuration")
	outPath := fs.String("out", "", "output PNG path (required)")
	colormapName := fs.String("colormap", "", "colormap: viridis, plasma, inferno or magma")
	folded := fs.Bool("folded", false, "fold the spectrum before rendering")
	fs.Parse(args)

	if fs.NArg() != 1 {
		log.Fatalf("view: expected exactly one input file, got %d", fs.NArg())
	}
	if *outPath == "" {
		log.Fatal("view: -out is required")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	scs, err := sfsio.Open(fs.Arg(0))
	if err != nil {
		log.Fatalf("failed to read spectrum: %v", err)
	}
	if *folded {
		scs = scs.Fold(math.NaN())
	}

	renderer := render.NewHeatmapRenderer(render.Config{
		CellSize:        cfg.Render.CellSize,
		DefaultColormap: cfg.Render.DefaultColormap,
	})
	data, err := renderer.Render(scs, *colormapName)
	if err != nil {
		log.Fatalf("failed to render: %v", err)
	}

	if err := os.WriteFile(*outPath, data, 0644); err != nil {
		log.Fatalf("failed to write PNG: %v", err)
	}
	log.Printf("wrote %s", *outPath)
}

func runServe(args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", "", "path to YAML configuration")
	port := fs.Int("port", 0, "listen port (overrides configuration)")
	name := fs.String("name", "", "display name for the spectrum")
	tiledbPath := fs.String("tiledb", "", "read the spectrum from a TileDB array instead of a file")
	fs.Parse(args)

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}
	if *port > 0 {
		cfg.Server.Port = *port
	}

	var scs *spectrum.CountSpectrum
	displayName := *name
	switch {
	case *tiledbPath != "":
		st, err := store.NewStore(*tiledbPath)
		if err != nil {
			log.Fatalf("failed to open TileDB store: %v", err)
		}
		defer st.Close()
		scs, err = st.Read()
		if err != nil {
			log.Fatalf("failed to read TileDB array: %v", err)
		}
		if displayName == "" {
			displayName = st.URI()
		}
	case fs.NArg() == 1:
		scs, err = sfsio.Open(fs.Arg(0))
		if err != nil {
			log.Fatalf("failed to read spectrum: %v", err)
		}
		if displayName == "" {
			displayName = fs.Arg(0)
		}
	default:
		log.Fatal("serve: expected one input file or -tiledb")
	}

	log.Printf("starting spectrum server on port %d", cfg.Server.Port)
	log.Printf("loaded %s: shape %v, %.0f sites", displayName, scs.Shape(), scs.Sum())

	cacheManager, err := cache.NewManager(cache.Config{
		HeatmapCacheSizeMB: cfg.Cache.HeatmapSizeMB,
		HeatmapTTL:         time.Duration(cfg.Cache.HeatmapTTLMinutes) * time.Minute,
		ResponseCacheSize:  cfg.Cache.ResponseEntries,
	})
	if err != nil {
		log.Fatalf("failed to initialize cache: %v", err)
	}
	defer cacheManager.Close()

	svc := service.NewSpectrumService(service.Config{
		Name:     displayName,
		Spectrum: scs,
		Cache:    cacheManager,
		Renderer: render.NewHeatmapRenderer(render.Config{
			CellSize:        cfg.Render.CellSize,
			DefaultColormap: cfg.Render.DefaultColormap,
		}),
	})

	router := api.NewRouter(api.RouterConfig{
		Service:     svc,
		Cache:       cacheManager,
		CORSOrigins: cfg.Server.CORSOrigins,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Printf("server listening on http://localhost:%d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("server forced to shutdown: %v", err)
	}
	log.Println("server stopped")
}

// loadForTransform handles the shared read side of the single-input
// transform commands.
func loadForTransform(fs *flag.FlagSet, outPath, format string, precision int, gz bool) (*spectrum.CountSpectrum, sfsio.WriteOptions) {
	if fs.NArg() != 1 {
		log.Fatalf("%s: expected exactly one input file, got %d", fs.Name(), fs.NArg())
	}
	if outPath == "" {
		log.Fatalf("%s: -out is required", fs.Name())
	}

	cfg, err := config.Load("")
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	scs, err := sfsio.Open(fs.Arg(0))
	if err != nil {
		log.Fatalf("failed to read spectrum: %v", err)
	}
	return scs, outputOptions(cfg, setFlags(fs), format, precision, gz)
}

func outputOptions(cfg *config.Config, set map[string]bool, format string, precision int, gz bool) sfsio.WriteOptions {
	if !set["format"] {
		format = cfg.Output.Format
	}
	if !set["precision"] {
		precision = cfg.Output.Precision
	}
	if !set["gzip"] {
		gz = cfg.Output.Gzip
	}

	opts := sfsio.WriteOptions{Precision: precision, Gzip: gz}
	switch format {
	case "", "text":
		opts.Format = sfsio.FormatText
	case "npy":
		opts.Format = sfsio.FormatNpy
	default:
		log.Fatalf("unknown output format %q", format)
	}
	return opts
}

func writeOut(path string, s sfsio.Spectrum, opts sfsio.WriteOptions) {
	if err := sfsio.WriteFile(path, s, opts); err != nil {
		log.Fatalf("failed to write %s: %v", path, err)
	}
}

// setFlags reports which flags were given explicitly.
func setFlags(fs *flag.FlagSet) map[string]bool {
	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	return set
}

// parseShapeArg parses a slash-separated shape like "20/12".
func parseShapeArg(s string) ([]int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty shape")
	}

	parts := strings.Split(s, "/")
	out := make([]int, len(parts))
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("invalid dimension %q", p)
		}
		out[i] = v
	}
	return out, nil
}

// parseAxesArg parses a comma-separated axis list like "0,2".
func parseAxesArg(s string) ([]array.Axis, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty axis list")
	}

	parts := strings.Split(s, ",")
	out := make([]array.Axis, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("invalid axis %q", p)
		}
		out = append(out, array.Axis(v))
	}
	return out, nil
}
