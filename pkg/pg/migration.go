package pg

import (
	"fmt"

	_ "github.com/lib/pq"
	"github.com/nimasrn/property-marketplace/pkg/logger"
	"github.com/pressly/goose/v3"
)

const (
	MigrateUp     = "up"
	MigrateDown   = "down"
	MigrateStatus = "status"
)

// Migrate applies the goose migrations found in dir. command is one of
// MigrateUp, MigrateDown or MigrateStatus.
func Migrate(cfg Config, dir string, command string) error {
	goose.SetLogger(logger.GetLogger())
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}

	db, err := newSqlConnection(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	logger.Info("[pg] running migrations", "dir", dir, "command", command, "db", cfg.Database)
	switch command {
	case MigrateUp:
		return goose.Up(db, dir)
	case MigrateDown:
		return goose.Down(db, dir)
	case MigrateStatus:
		return goose.Status(db, dir)
	}
	return fmt.Errorf("unknown migration command %q", command)
}
