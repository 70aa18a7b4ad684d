package main

import (
	"os"
	"strings"

	"github.com/nimasrn/property-marketplace/internal/config"
	"github.com/nimasrn/property-marketplace/pkg/logger"
	"github.com/nimasrn/property-marketplace/pkg/pg"
)

// main.go --migrate-up|--migrate-down|--migrate-status [--dir=./migrations] [--env=.env]
func main() {
	err := config.Load(getEnvPath())
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	command := getCommand()
	if command == "" {
		logger.Error("nothing to do, pass --migrate-up, --migrate-down or --migrate-status")
		os.Exit(2)
	}

	err = pg.Migrate(config.Get().WriteDB(), getMigrationPath(), command)
	if err != nil {
		logger.Error("migration: error running migrations", "command", command, "error", err)
		os.Exit(1)
	}
}

func getCommand() string {
	for _, v := range os.Args[1:] {
		switch v {
		case "--migrate-up":
			return pg.MigrateUp
		case "--migrate-down":
			return pg.MigrateDown
		case "--migrate-status":
			return pg.MigrateStatus
		}
	}
	return ""
}

func getEnvPath() string {
	for _, v := range os.Args {
		if strings.Contains(v, "--env=") {
			s := strings.Split(v, "=")
			if _, err := os.Open(s[1]); err != nil {
				logger.Error("failed to open the passed env file, got error" + err.Error())
				return ""
			}
			return s[1]
		}
	}
	if _, err := os.Stat(".env"); err != nil {
		return ""
	}
	return ".env"
}

func getMigrationPath() string {
	for _, v := range os.Args {
		if strings.Contains(v, "--dir=") {
			s := strings.Split(v, "=")
			return s[1]
		}
	}
	return "./migrations"
}
