// Package bootstrap runs a finite command-line task with a uniform lifecycle.
//
// NewApp applies defaults to the typed configuration, validates it and
// initializes the logger. RunTask then runs OnStart hooks, OnConfigure
// callbacks and OnReady hooks, executes the task with a context that is
// canceled on SIGINT or SIGTERM, and finally runs OnStop hooks in reverse
// order within the graceful timeout.
//
// # Quick Start
//
//	app, err := bootstrap.NewApp(&cfg)
//	if err != nil {
//	    return err
//	}
//	app.OnStop(func(ctx context.Context) error { return tp.Shutdown(ctx) })
//	return app.RunTask(ctx, func(ctx context.Context) error {
//	    return sv.Run(ctx, cfg.Sieve.Bound, os.Stdout)
//	})
package bootstrap
