// Command plastermate reconstructs a wall deviation heatmap from a LiDAR
// scan file, optionally saving it or serving the HTTP API.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pterm/pterm"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/plastermate/internal/api"
	"github.com/banshee-data/plastermate/internal/config"
	"github.com/banshee-data/plastermate/internal/db"
	"github.com/banshee-data/plastermate/internal/monitoring"
	"github.com/banshee-data/plastermate/internal/version"
	"github.com/banshee-data/plastermate/internal/wallscan"
	"github.com/banshee-data/plastermate/internal/wallscan/render"
	"github.com/banshee-data/plastermate/internal/wallscan/synthetic"
)

type options struct {
	in         string
	configPath string
	title      string
	htmlOut    string
	pngOut     string
	jsonOut    string
	pngWidth   float64
	pngHeight  float64
	preview    int
	dbPath     string
	save       bool
	name       string
	listen     string
	synthetic  bool
	seed       int64
	verbose    bool
	version    bool
}

func parseFlags(args []string) (*options, error) {
	o := &options{}
	fs := flag.NewFlagSet("plastermate", flag.ContinueOnError)
	fs.StringVar(&o.in, "in", "", "scan file to reconstruct (default: stdin)")
	fs.StringVar(&o.configPath, "config", "", "reconstruction config JSON (default: "+config.DefaultConfigPath+" if present)")
	fs.StringVar(&o.title, "title", api.DefaultTitle, "heatmap title")
	fs.StringVar(&o.htmlOut, "html", "", "write an interactive echarts heatmap to this path")
	fs.StringVar(&o.pngOut, "png", "", "write a PNG heatmap to this path")
	fs.StringVar(&o.jsonOut, "json", "", "write the heatmap, warnings and stats as JSON to this path")
	fs.Float64Var(&o.pngWidth, "png-width", 8, "PNG width in inches")
	fs.Float64Var(&o.pngHeight, "png-height", 4, "PNG height in inches")
	fs.IntVar(&o.preview, "preview", 60, "terminal preview width in cells (0 disables)")
	fs.StringVar(&o.dbPath, "db", "plastermate.db", "sqlite database for saved scans")
	fs.BoolVar(&o.save, "save", false, "save the reconstructed heatmap to -db")
	fs.StringVar(&o.name, "name", "", "name for -save (default: next \"Scan N\")")
	fs.StringVar(&o.listen, "listen", "", "serve the HTTP API on this address instead of reconstructing")
	fs.BoolVar(&o.synthetic, "synthetic", false, "render the synthetic demo surface instead of a scan")
	fs.Int64Var(&o.seed, "seed", 0, "random seed for -synthetic (0: time based)")
	fs.BoolVar(&o.verbose, "v", false, "log pipeline diagnostics")
	fs.BoolVar(&o.version, "version", false, "print version and exit")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	if o.pngWidth <= 0 || o.pngHeight <= 0 {
		return nil, fmt.Errorf("png size must be positive, got %vx%v", o.pngWidth, o.pngHeight)
	}
	return o, nil
}

// loadConfig resolves the reconstruction config. An explicit path must
// load; the default path is used only when it exists.
func loadConfig(path string) (wallscan.Config, error) {
	if path == "" {
		if _, err := os.Stat(config.DefaultConfigPath); err != nil {
			return wallscan.DefaultConfig(), nil
		}
		path = config.DefaultConfigPath
	}
	fileCfg, err := config.LoadWallScanConfig(path)
	if err != nil {
		return wallscan.Config{}, err
	}
	cfg := wallscan.ConfigFromFile(fileCfg)
	if err := cfg.Validate(); err != nil {
		return wallscan.Config{}, err
	}
	return cfg, nil
}

func main() {
	opts, err := parseFlags(os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		pterm.Error.Println(err)
		os.Exit(2)
	}
	if err := run(opts, os.Stdin, os.Stdout); err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}
}

func run(opts *options, stdin io.Reader, stdout io.Writer) error {
	if opts.version {
		fmt.Fprintln(stdout, version.Get())
		return nil
	}
	if !opts.verbose {
		monitoring.SetLogger(nil)
	}

	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return err
	}

	if opts.listen != "" {
		return serve(opts, cfg)
	}
	if opts.synthetic {
		return runSynthetic(opts)
	}
	return runReconstruct(opts, cfg, stdin)
}

func runReconstruct(opts *options, cfg wallscan.Config, stdin io.Reader) error {
	in := stdin
	source := "stdin"
	if opts.in != "" {
		f, err := os.Open(opts.in)
		if err != nil {
			return fmt.Errorf("open scan: %w", err)
		}
		defer f.Close()
		in = f
		source = opts.in
	}

	res, err := wallscan.ReconstructReader(in, cfg)
	if err != nil {
		var malformed *wallscan.MalformedInputError
		if errors.As(err, &malformed) {
			return fmt.Errorf("%s: %w", source, err)
		}
		return err
	}

	hm := render.Assemble(res, opts.title)
	printSummary(source, res)
	if opts.preview > 0 {
		render.PrintTerminalMap(hm, opts.preview)
	}

	if err := writeOutputs(opts, hm, res); err != nil {
		return err
	}

	if opts.save {
		database, err := db.NewDB(opts.dbPath)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer database.Close()
		saved, err := db.NewSavedScanStore(database.DB).Save(opts.name, hm)
		if err != nil {
			return err
		}
		pterm.Success.Printf("Saved %q to %s\n", saved.Name, opts.dbPath)
	}
	return nil
}

func runSynthetic(opts *options) error {
	seed := opts.seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	hm, err := synthetic.Surface(synthetic.DefaultSurfaceConfig(), rand.New(rand.NewSource(seed)))
	if err != nil {
		return err
	}
	pterm.Info.Printf("Synthetic demo surface (seed %d), not derived from any scan\n", seed)
	if opts.preview > 0 {
		render.PrintTerminalMap(hm, opts.preview)
	}
	return writeOutputs(opts, hm, nil)
}

func printSummary(source string, res *wallscan.Result) {
	pterm.DefaultSection.Printf("Reconstructed %s", source)
	for _, w := range res.Warnings {
		pterm.Warning.Println(w.String())
	}
	st := res.Stats
	data := [][]string{
		{"Metric", "Value"},
		{"Readings", fmt.Sprint(st.Readings)},
		{"Levels", fmt.Sprint(len(res.Scan.Levels))},
		{"Binned", fmt.Sprint(st.Binned)},
		{"Outside extent", fmt.Sprint(st.OutsideExtent)},
		{"Empty cells", fmt.Sprintf("%d of %d", st.EmptyCells, res.Grid.NX*res.Grid.NZ)},
		{"Baseline", res.Baseline.String()},
		{"Deviation min/max", fmt.Sprintf("%.2f / %.2f mm", st.MinMM, st.MaxMM)},
		{"Deviation mean ± sd", fmt.Sprintf("%.2f ± %.2f mm", st.MeanMM, st.StdDevMM)},
	}
	if err := pterm.DefaultTable.WithHasHeader().WithData(data).Render(); err != nil {
		log.Printf("failed to render summary: %v", err)
	}
}

// jsonReport is the -json output file.
type jsonReport struct {
	Heatmap  *render.Heatmap    `json:"heatmap"`
	Warnings []wallscan.Warning `json:"warnings,omitempty"`
	Stats    *wallscan.Stats    `json:"stats,omitempty"`
}

func writeOutputs(opts *options, hm *render.Heatmap, res *wallscan.Result) error {
	if opts.htmlOut != "" {
		f, err := os.Create(opts.htmlOut)
		if err != nil {
			return fmt.Errorf("create html output: %w", err)
		}
		if err := render.RenderHTML(f, hm); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("close html output: %w", err)
		}
		pterm.Success.Printf("Wrote %s\n", opts.htmlOut)
	}

	if opts.pngOut != "" {
		if err := render.SavePNG(opts.pngOut, hm, vg.Length(opts.pngWidth)*vg.Inch, vg.Length(opts.pngHeight)*vg.Inch); err != nil {
			return err
		}
		pterm.Success.Printf("Wrote %s\n", opts.pngOut)
	}

	if opts.jsonOut != "" {
		report := jsonReport{Heatmap: hm}
		if res != nil {
			report.Warnings = res.Warnings
			report.Stats = &res.Stats
		}
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return fmt.Errorf("encode json output: %w", err)
		}
		if err := os.WriteFile(opts.jsonOut, data, 0644); err != nil {
			return fmt.Errorf("write json output: %w", err)
		}
		pterm.Success.Printf("Wrote %s\n", opts.jsonOut)
	}
	return nil
}

func serve(opts *options, cfg wallscan.Config) error {
	database, err := db.NewDB(opts.dbPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer database.Close()

	// Serve mode logs requests and diagnostics through the standard logger.
	monitoring.SetLogger(log.Printf)

	mux := api.NewServer(db.NewSavedScanStore(database.DB), cfg).ServeMux()
	database.AttachAdminRoutes(mux)

	server := &http.Server{
		Addr:              opts.listen,
		Handler:           api.LoggingMiddleware(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Printf("plastermate API listening on %s (db %s)", opts.listen, opts.dbPath)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	log.Println("shutting down HTTP server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
		if err := server.Close(); err != nil {
			log.Printf("HTTP server force close error: %v", err)
		}
	}
	log.Printf("Graceful shutdown complete")
	return nil
}
