// Package cli implements the operator subcommands of the vinylops binary.
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/vinylworks/vinylops/internal/fx"
)

// Env carries the process streams and the lazily built collaborators of a
// command run.
type Env struct {
	Stdin        io.Reader
	Stdout       io.Writer
	Stderr       io.Writer
	DefaultRates fx.ExchangeRates
	DSN          string
	Migrations   string
	Migrate      MigrateFunc
	// Jobs opens a queue client; the returned func releases it.
	Jobs func() (Triggerer, func() error, error)
}

const usage = `usage: vinylops <command> [flags]

commands:
  serve                      run the HTTP server (default)
  aggregate --file rows.csv  aggregate CSV rows into USD totals
  migrate up|down            apply or roll back database migrations
  jobs trigger <name>        enqueue a background job
`

// IsServe reports whether args select the HTTP server.
func IsServe(args []string) bool {
	return len(args) == 0 || args[0] == "serve"
}

// Run dispatches args to a subcommand and returns the exit code.
func Run(ctx context.Context, args []string, env Env) int {
	if len(args) == 0 {
		_, _ = fmt.Fprint(env.Stderr, usage)
		return 1
	}
	switch args[0] {
	case "aggregate":
		opts, err := ParseAggregateArgs(args[1:], env.Stderr)
		if err != nil {
			if errors.Is(err, flag.ErrHelp) {
				return 0
			}
			_, _ = fmt.Fprintf(env.Stderr, "aggregate: %v\n", err)
			return 1
		}
		opts.Stdin, opts.Stdout, opts.Stderr = env.Stdin, env.Stdout, env.Stderr
		return AggregateCommand(opts, env.DefaultRates)
	case "migrate":
		direction := ""
		if len(args) > 1 {
			direction = args[1]
		}
		return MigrateCommand(MigrateOptions{
			Direction: direction,
			DSN:       env.DSN,
			Dir:       env.Migrations,
			Run:       env.Migrate,
			Stdout:    env.Stdout,
			Stderr:    env.Stderr,
		})
	case "jobs":
		if len(args) < 2 || args[1] != "trigger" {
			_, _ = fmt.Fprint(env.Stderr, usage)
			return 1
		}
		name := ""
		if len(args) > 2 {
			name = args[2]
		}
		if env.Jobs == nil {
			_, _ = fmt.Fprintln(env.Stderr, "jobs: queue not configured")
			return 1
		}
		client, closeFn, err := env.Jobs()
		if err != nil {
			_, _ = fmt.Fprintf(env.Stderr, "jobs: %v\n", err)
			return 1
		}
		defer func() { _ = closeFn() }()
		return JobsTriggerCommand(ctx, client, name, env.Stdout, env.Stderr)
	case "help", "-h", "--help":
		_, _ = fmt.Fprint(env.Stdout, usage)
		return 0
	default:
		_, _ = fmt.Fprintf(env.Stderr, "unknown command %q\n%s", args[0], usage)
		return 1
	}
}
