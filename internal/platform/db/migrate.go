package db

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres" // postgres driver
	_ "github.com/golang-migrate/migrate/v4/source/file"       // file:// source
)

// Direction selects which way Migrate moves the schema.
type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
)

// ErrUnknownDirection is returned for directions other than up and down.
var ErrUnknownDirection = errors.New("platform/db: direction must be up or down")

// ParseDirection validates a direction from user input.
func ParseDirection(s string) (Direction, error) {
	switch d := Direction(strings.ToLower(strings.TrimSpace(s))); d {
	case Up, Down:
		return d, nil
	}
	return "", ErrUnknownDirection
}

// SourceURL turns a directory into a golang-migrate file source URL. Values
// that already carry a scheme are returned as-is.
func SourceURL(dir string) string {
	if strings.Contains(dir, "://") {
		return dir
	}
	return "file://" + dir
}

// Migrate applies or rolls back every migration in dir. Having nothing to do
// is not an error.
func Migrate(dsn, dir string, direction Direction) error {
	m, err := migrate.New(SourceURL(dir), dsn)
	if err != nil {
		return fmt.Errorf("platform/db: create migrator: %w", err)
	}
	defer func() { _, _ = m.Close() }()

	switch direction {
	case Up:
		err = m.Up()
	case Down:
		err = m.Down()
	default:
		return ErrUnknownDirection
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("platform/db: migrate %s: %w", direction, err)
	}
	return nil
}
