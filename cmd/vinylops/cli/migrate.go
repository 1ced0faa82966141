package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/vinylworks/vinylops/internal/platform/db"
)

// MigrateFunc applies migrations; db.Migrate in production.
type MigrateFunc func(dsn, dir string, direction db.Direction) error

// MigrateOptions configures the migrate command.
type MigrateOptions struct {
	Direction string
	DSN       string
	Dir       string
	Run       MigrateFunc
	Stdout    io.Writer
	Stderr    io.Writer
}

// MigrateCommand runs migrations up or down.
func MigrateCommand(opts MigrateOptions) int {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	if opts.Run == nil {
		opts.Run = db.Migrate
	}
	direction, err := db.ParseDirection(opts.Direction)
	if err != nil {
		_, _ = fmt.Fprintln(opts.Stderr, "usage: vinylops migrate up|down")
		return 1
	}
	if opts.DSN == "" {
		_, _ = fmt.Fprintln(opts.Stderr, "migrate: PG_DSN is required")
		return 1
	}
	if err := opts.Run(opts.DSN, opts.Dir, direction); err != nil {
		_, _ = fmt.Fprintf(opts.Stderr, "migrate: %v\n", err)
		return 2
	}
	_, _ = fmt.Fprintf(opts.Stdout, "migrations %s applied from %s\n", direction, db.SourceURL(opts.Dir))
	return 0
}
