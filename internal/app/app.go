// Package app runs the validator command.
package app

import (
	"errors"
	"fmt"
	"io"
	"runtime/debug"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	validator "github.com/CMSgov/price-transparency-guide-validator"
	"github.com/CMSgov/price-transparency-guide-validator/input"
	"github.com/CMSgov/price-transparency-guide-validator/internal/config"
	"github.com/CMSgov/price-transparency-guide-validator/internal/logging"
	"github.com/CMSgov/price-transparency-guide-validator/internal/metrics"
	"github.com/CMSgov/price-transparency-guide-validator/internal/report"
	"github.com/CMSgov/price-transparency-guide-validator/jsonvalue"
	"github.com/CMSgov/price-transparency-guide-validator/loader"
)

// Exit codes.
const (
	ExitValid   = 0
	ExitInvalid = 1
)

// Valid is written to stdout when data conforms with schema.
const Valid = "Input JSON is valid.\n"

// Invalid is written to stdout before the failure report.
const Invalid = "Input JSON is invalid.\n"

// App is a single validator invocation.
type App struct {
	Stdout io.Writer
	Stderr io.Writer

	cfg     config.Config
	log     zerolog.Logger
	metrics *metrics.Metrics

	// evaluate validates a single record. nil means (*validator.Graph).Evaluate.
	evaluate func(*validator.Graph, jsonvalue.Value, validator.Options) validator.Outcome
}

func usage(w io.Writer, fs *pflag.FlagSet) {
	fmt.Fprintln(w, "validator [flags] <schema-path> <data-path> [output-path]")
	fs.SetOutput(w)
	fs.PrintDefaults()
}

// Run parses args, which exclude program name, validates the data file
// and returns the exit code. It never panics.
func Run(args []string, stdout, stderr io.Writer) (code int) {
	a := &App{Stdout: stdout, Stderr: stderr, log: zerolog.Nop()}
	defer func() {
		if r := recover(); r != nil {
			a.log.Error().Interface("panic", r).Bytes("stack", debug.Stack()).Msg("internal error")
			fmt.Fprintf(stderr, "internal error: %v\n", r)
			code = ExitInvalid
		}
	}()

	fs := pflag.NewFlagSet("validator", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	config.AddFlags(fs)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			usage(stdout, fs)
			return ExitValid
		}
		fmt.Fprintln(stderr, err)
		usage(stderr, fs)
		return ExitInvalid
	}
	if fs.NArg() < 2 || fs.NArg() > 3 {
		usage(stderr, fs)
		return ExitInvalid
	}
	cfg, err := config.FromFlags(fs)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return ExitInvalid
	}
	a.cfg = cfg
	a.log, err = logging.New(stderr, logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if err != nil {
		fmt.Fprintln(stderr, err)
		return ExitInvalid
	}
	if fs.NArg() == 3 {
		a.cfg.OutputDir = fs.Arg(2)
	}
	a.metrics = metrics.New()
	code = a.run(fs.Arg(0), fs.Arg(1))
	if a.cfg.MetricsFile != "" {
		if err := a.metrics.WriteFile(a.cfg.MetricsFile); err != nil {
			a.log.Warn().Err(err).Str("path", a.cfg.MetricsFile).Msg("writing metrics")
		}
	}
	return code
}

func (a *App) run(schemaPath, dataPath string) int {
	var out report.Dir
	if a.cfg.OutputDir != "" {
		out = report.Dir{Path: a.cfg.OutputDir}
		if err := out.Prepare(); err != nil {
			fmt.Fprintln(a.Stderr, err)
			return ExitInvalid
		}
	}

	accept := []input.Format{input.JSON}
	if a.cfg.NDJSON {
		accept = append(accept, input.NDJSON)
	}
	src, err := input.Open(dataPath, accept...)
	if err != nil {
		fmt.Fprintln(a.Stderr, err)
		return ExitInvalid
	}
	src.BufferSize = a.cfg.BufferSize
	src.MaxDepth = a.cfg.MaxDepth

	g, err := a.compile(schemaPath)
	if err != nil {
		fmt.Fprintf(a.Stderr, "Schema file %q is not valid\n%v\n", schemaPath, err)
		return ExitInvalid
	}

	collector := report.NewCollector(a.cfg.SchemaName)
	res, err := a.validate(g, src, collector)
	if err != nil {
		var perr *jsonvalue.ParseError
		if errors.As(err, &perr) {
			fmt.Fprintf(a.Stderr, "Input is not a valid JSON\nError(%v)\n", perr)
			if a.cfg.OutputDir != "" {
				a.writeReports(out, []report.Failure{{Malformed: perr}}, nil)
			}
		} else {
			fmt.Fprintln(a.Stderr, err)
		}
		return ExitInvalid
	}
	a.log.Info().Int("records", res.records).Int("failures", len(res.failures)).Msg("validated")

	if a.cfg.OutputDir != "" {
		a.writeReports(out, res.failures, collector)
	}
	if len(res.failures) == 0 {
		io.WriteString(a.Stdout, Valid)
		return ExitValid
	}
	io.WriteString(a.Stdout, Invalid)
	if err := report.WriteText(a.Stdout, res.failures); err != nil {
		a.log.Warn().Err(err).Msg("writing report")
	}
	return ExitInvalid
}

func (a *App) compile(schemaPath string) (*validator.Graph, error) {
	start := time.Now()
	c := validator.NewCompiler()
	c.DefaultDraft(validator.DraftFromVersion(a.cfg.Draft))
	c.UseLoader(validator.SchemeURLLoader{
		"file": loader.FileLoader{MaxDepth: a.cfg.MaxDepth},
	})
	if a.cfg.Regex == "go" {
		c.UseRegexpEngine(validator.GoRegexp)
	}
	if a.cfg.AssertFormat {
		c.AssertFormat()
	}
	if a.cfg.Strict {
		c.Strict()
	}
	g, err := c.Compile(schemaPath)
	if err != nil {
		return nil, err
	}
	a.metrics.ObserveCompile(start, g.Len())
	schemaLog := logging.WithComponent(a.log, "schema")
	schemaLog.Debug().
		Str("path", schemaPath).
		Int("nodes", g.Len()).
		Dur("took", time.Since(start)).
		Msg("compiled")
	return g, nil
}

func (a *App) writeReports(out report.Dir, failures []report.Failure, collector *report.Collector) {
	if err := out.WriteFailures(failures); err != nil {
		a.log.Warn().Err(err).Str("dir", out.Path).Msg("writing failures")
	}
	if collector == nil {
		return
	}
	if err := out.WriteLocations(collector); err != nil {
		a.log.Warn().Err(err).Str("dir", out.Path).Msg("writing locations")
	}
}
