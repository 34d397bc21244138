// Command primes prints the primes up to a bound using a concurrent prime
// sieve: one "prime <value>" line per prime on stdout, diagnostics on stderr.
package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"

	"github.com/kbukum/primesieve/bootstrap"
	"github.com/kbukum/primesieve/config"
	"github.com/kbukum/primesieve/errors"
	"github.com/kbukum/primesieve/logger"
	"github.com/kbukum/primesieve/observability"
	"github.com/kbukum/primesieve/sieve"
	"github.com/kbukum/primesieve/version"
)

// flagKeys maps flag names to config keys. --config and --version are not
// config keys.
var flagKeys = map[string]string{
	"bound":      "sieve.bound",
	"backend":    "sieve.backend",
	"buffer":     "sieve.buffer",
	"max-stages": "sieve.max_stages",
	"timeout":    "sieve.timeout",
	"config":     "",
	"version":    "",
}

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

func newFlagSet(stderr io.Writer) *pflag.FlagSet {
	def := sieve.DefaultConfig()
	fs := pflag.NewFlagSet(serviceName, pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.IntP("bound", "n", def.Bound, "print the primes up to and including this bound")
	fs.String("backend", def.Backend, "channel backend: memory or pipe")
	fs.Int("buffer", def.Buffer, "per-channel buffer of the memory backend")
	fs.Int("max-stages", def.MaxStages, "maximum number of live filter stages (0 = unlimited)")
	fs.Duration("timeout", def.Timeout, "abort the run after this long (0 = no deadline)")
	fs.String("config", "", "path to a config.yml")
	fs.Bool("version", false, "print the version and exit")
	return fs
}

// run executes the command and returns its exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet(stderr)
	if err := fs.Parse(args); err != nil {
		if stderrors.Is(err, pflag.ErrHelp) {
			return errors.ExitOK
		}
		return errors.ExitUsage
	}
	if v, _ := fs.GetBool("version"); v {
		fmt.Fprintf(stdout, "%s %s\n", serviceName, version.Get())
		return errors.ExitOK
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(stderr, "%s: unexpected arguments: %v\n", serviceName, fs.Args())
		return errors.ExitUsage
	}

	cfg, err := loadConfig(fs)
	if err != nil {
		fmt.Fprintf(stderr, "%s: %v\n", serviceName, err)
		return errors.ExitCode(err)
	}

	err = execute(ctx, cfg, stdout, stderr)
	return errors.ExitCode(err)
}

func loadConfig(fs *pflag.FlagSet) (*Config, error) {
	cfg := defaultConfig()
	opts := []config.LoaderOption{config.WithFlags(fs, flagKeys)}
	if path, _ := fs.GetString("config"); path != "" {
		opts = append(opts, config.WithConfigFile(path))
	}
	if err := config.LoadConfig(serviceName, cfg, opts...); err != nil {
		return nil, errors.Validation(err.Error()).WithCause(err)
	}
	return cfg, nil
}

func execute(ctx context.Context, cfg *Config, stdout, stderr io.Writer) error {
	cfg.ApplyDefaults()
	log := logger.NewWithWriter(&cfg.Logging, cfg.Name, stderr)
	logger.SetGlobalLogger(log)

	opts := []bootstrap.Option{bootstrap.WithLogger(log)}
	if cfg.Debug {
		opts = append(opts, bootstrap.WithSummary(stderr))
	}
	app, err := bootstrap.NewApp(cfg, opts...)
	if err != nil {
		fmt.Fprintf(stderr, "%s: %v\n", serviceName, err)
		return err
	}

	var metrics *observability.SieveMetrics
	app.OnStart(func(ctx context.Context) error {
		if !cfg.Observability.Enabled {
			return nil
		}
		tp, err := observability.InitTracer(ctx, cfg.Observability.TracerConfig(cfg.Name, cfg.Version, cfg.Environment))
		if err != nil {
			return err
		}
		app.OnStop(tp.Shutdown)

		mc := cfg.Observability.MeterConfig(cfg.Name, cfg.Version, cfg.Environment)
		mp, err := observability.InitMeter(ctx, &mc)
		if err != nil {
			return err
		}
		app.OnStop(mp.Shutdown)

		metrics, err = observability.NewSieveMetrics(observability.Meter(serviceName))
		return err
	})

	var sv *sieve.Supervisor
	app.OnConfigure(func(ctx context.Context, a *bootstrap.App[*Config]) error {
		var err error
		sv, err = sieve.New(a.Cfg.Sieve, sieve.WithLogger(a.Logger), sieve.WithMetrics(metrics))
		if err != nil {
			return err
		}
		a.Summary.Track("bound", a.Cfg.Sieve.Bound)
		a.Summary.Track("backend", a.Cfg.Sieve.Backend)
		a.Summary.Track("max_stages", a.Cfg.Sieve.MaxStages)
		a.Summary.Track("timeout", a.Cfg.Sieve.Timeout)
		a.Summary.Track("telemetry", a.Cfg.Observability.Enabled)
		return nil
	})

	return app.RunTask(ctx, func(ctx context.Context) error {
		return sv.Run(ctx, cfg.Sieve.Bound, stdout)
	})
}
