package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"syscall"

	"github.com/aukilabs/go-tooling/pkg/cli"
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/chazu/integral/pkg/config"
	"github.com/chazu/integral/pkg/engine"
	"github.com/chazu/integral/pkg/grid"
	"github.com/chazu/integral/pkg/kernel"
	"github.com/chazu/integral/pkg/kernel/manifold"
	"github.com/chazu/integral/pkg/kernel/sdfx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/segmentio/encoding/json"
)

var (
	// The integral version number. Set at build.
	version = "v0.1.0"

	infoGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name:        "integral_info",
		Help:        "Integral information.",
		ConstLabels: prometheus.Labels{"version": version},
	})
)

// Keeps the config keys readable by the cli package under obfuscation.
var _ = reflect.TypeOf(options{})

type options struct {
	N           int      `cli:""        env:"INTEGRAL_N"            help:"Subdivision level."`
	Steps       []string `cli:""        env:"INTEGRAL_STEPS"        help:"Comma separated levels to step through before n."`
	Incremental bool     `cli:""        env:"INTEGRAL_INCREMENTAL"  help:"Show refinements as separate layers."`
	Function    bool     `cli:""        env:"INTEGRAL_FUNCTION"     help:"Show the function surface."`
	FullGrid    bool     `cli:""        env:"INTEGRAL_FULL_GRID"    help:"Draw the full reference grid."`
	Party       bool     `cli:""        env:"INTEGRAL_PARTY"        help:"Party mode."`
	Height      string   `cli:""        env:"INTEGRAL_HEIGHT"       help:"Height function script in x and y."`
	HeightSrc   string   `cli:""        env:"INTEGRAL_HEIGHT_SRC"   help:"Where to fetch the height function script from (path, http or git URL)."`
	Config      string   `cli:""        env:"INTEGRAL_CONFIG"       help:"JSON configuration file. Overrides the scene flags."`
	Out         string   `cli:""        env:"INTEGRAL_OUT"          help:"Output directory."`
	Formats     []string `cli:""        env:"INTEGRAL_FORMATS"      help:"Comma separated export formats (stl|html|png|json)."`
	Kernel      string   `cli:""        env:"INTEGRAL_KERNEL"       help:"Geometry kernel (sdfx|manifold)."`
	AdminAddr   string   `cli:""        env:"INTEGRAL_ADMIN_ADDR"   help:"Admin listening address. Serves metrics until interrupted."`
	LogLevel    string   `cli:""        env:"INTEGRAL_LOG_LEVEL"    help:"Log level (debug|info|warning|error)."`
	LogIndent   bool     `cli:""        env:"INTEGRAL_LOG_INDENT"   help:"Indent logs."`
	Version     bool     `cli:""        env:"-"                     help:"Show version."`
	Help        bool     `cli:""        env:"-"                     help:"Show help."`
}

func main() {
	def := config.Default()
	opts := options{
		N:           int(def.N),
		Incremental: def.Incremental,
		Function:    def.ShowFunction,
		FullGrid:    def.ShowFullGrid,
		Party:       def.Party,
		Out:         "out",
		Formats:     []string{FormatSTL, FormatJSON},
		Kernel:      "sdfx",
		LogLevel:    logs.InfoLevel.String(),
	}

	infoGauge.Set(1)

	ctx, cancel := cli.ContextWithSignals(context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer cancel()

	cli.Register().
		Help("Builds the Riemann staircase of a height function over the unit square.").
		Options(&opts)
	cli.Load()

	if opts.Version {
		fmt.Println(version)
		os.Exit(0)
	}

	logs.SetLevel(logs.ParseLevel(opts.LogLevel))
	logs.Encoder = json.Marshal
	if opts.LogIndent {
		logs.Encoder = func(v any) ([]byte, error) {
			return json.MarshalIndent(v, "", "  ")
		}
	}

	errors.Encoder = json.Marshal

	cfg, steps, err := sceneConfig(opts)
	if err != nil {
		logs.Fatal(err)
	}

	source, err := heightSource(ctx, opts)
	if err != nil {
		logs.Fatal(err)
	}

	var wg sync.WaitGroup
	if opts.AdminAddr != "" {
		var admin http.ServeMux
		admin.Handle("/metrics", promhttp.Handler())

		wg.Add(1)
		go func() {
			defer wg.Done()
			listenAndServe(ctx, &http.Server{Addr: opts.AdminAddr, Handler: &admin})
		}()
	}

	logs.WithTag("version", version).
		WithTag("log_level", opts.LogLevel).
		WithTag("n", int(cfg.N)).
		WithTag("incremental", cfg.Incremental).
		Info("starting integral")

	k, err := geometryKernel(opts.Kernel)
	if err != nil {
		logs.Fatal(err)
	}

	app := NewAppWithKernel(k)
	if snap := app.SetHeight(source); len(snap.Errors) > 0 {
		for _, e := range snap.Errors {
			logs.WithTag("line", e.Line).
				WithTag("col", e.Col).
				Error(errors.New(e.Message))
		}
		os.Exit(1)
	}

	for _, n := range append(steps, cfg.N) {
		step := cfg
		step.N = n

		snap := app.Apply(step)
		if len(snap.Errors) > 0 {
			logs.Fatal(errors.New(snap.Errors[0].Message).WithTag("n", int(n)))
		}
		logs.WithTag(logs.SessionIDTag, snap.SessionID).
			WithTag("n", int(n)).
			WithTag("meshes", len(snap.Meshes)).
			Info("level applied")
	}

	if _, err := app.Export(opts.Out, opts.Formats); err != nil {
		logs.Fatal(err)
	}

	if opts.AdminAddr != "" {
		<-ctx.Done()
	}
	cancel()
	wg.Wait()
}

// sceneConfig builds the scene configuration from the flags or the
// configuration file, plus the levels to step through first.
func sceneConfig(opts options) (config.Config, []grid.Level, error) {
	cfg := config.Config{
		N:            grid.Level(opts.N),
		Incremental:  opts.Incremental,
		ShowFunction: opts.Function,
		ShowFullGrid: opts.FullGrid,
		Party:        opts.Party,
	}
	if opts.Config != "" {
		c, err := config.Load(opts.Config)
		if err != nil {
			return cfg, nil, errors.New("loading config failed").
				WithTag("path", opts.Config).
				Wrap(err)
		}
		cfg = c
	}
	if err := cfg.Validate(); err != nil {
		return cfg, nil, err
	}

	steps := make([]grid.Level, 0, len(opts.Steps))
	for _, s := range opts.Steps {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return cfg, nil, errors.New("invalid step").
				WithType(config.ErrTypeInvalidConfig).
				WithTag("step", s).
				Wrap(err)
		}
		if err := grid.Level(n).Validate(); err != nil {
			return cfg, nil, err
		}
		steps = append(steps, grid.Level(n))
	}
	return cfg, steps, nil
}

// heightSource returns the height function script: the fetched one when a
// source is set, the inline one otherwise.
func heightSource(ctx context.Context, opts options) (string, error) {
	if opts.HeightSrc != "" && opts.Height != "" {
		return "", errors.New("have to specify either height or height src, not both")
	}
	if opts.HeightSrc == "" {
		if opts.Height == "" {
			return engine.DefaultSource, nil
		}
		return opts.Height, nil
	}

	dir, err := os.MkdirTemp("", "integral-height-")
	if err != nil {
		return "", errors.New("creating download directory failed").Wrap(err)
	}
	defer os.RemoveAll(dir)

	return engine.Fetch(ctx, opts.HeightSrc, dir)
}

func geometryKernel(name string) (kernel.Kernel, error) {
	switch name {
	case "", "sdfx":
		return sdfx.New(), nil
	case "manifold":
		return manifold.New()
	default:
		return nil, errors.New("unknown kernel").WithTag("kernel", name)
	}
}

func listenAndServe(ctx context.Context, s *http.Server) {
	go func() {
		<-ctx.Done()
		if err := s.Shutdown(context.Background()); err != nil {
			logs.Warn(errors.Newf("shutting down the server failed").
				WithTag("addr", s.Addr).
				Wrap(err))
		}
	}()

	logs.WithTag("addr", s.Addr).Info("starting server")

	switch err := s.ListenAndServe(); err {
	case nil, http.ErrServerClosed, context.Canceled:
		logs.WithTag("addr", s.Addr).Info("stopping server")

	default:
		logs.Warn(errors.Newf("server stopped").
			WithTag("addr", s.Addr).
			Wrap(err))
	}
}
