package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"housingreview/internal/config"
)

const usage = "Usage: migrate [up|down|steps N|version]"

func main() {
	if err := run(os.Args[1:]); err != nil {
		zap.L().Error("migrate failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return eris.Wrap(err, "failed to load config")
	}
	if err := config.InitLogger(cfg.Log); err != nil {
		return eris.Wrap(err, "failed to init logger")
	}
	defer func() { _ = zap.L().Sync() }()

	if len(args) < 1 {
		fmt.Println(usage)
		os.Exit(1)
	}

	m, err := migrate.New("file://db/migrations", cfg.DB.DSN())
	if err != nil {
		return eris.Wrap(err, "failed to create migrate instance")
	}
	defer m.Close()

	switch args[0] {
	case "up":
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return eris.Wrap(err, "migration up failed")
		}
		zap.L().Info("migrations applied successfully")

	case "down":
		if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return eris.Wrap(err, "migration down failed")
		}
		zap.L().Info("migrations reverted successfully")

	case "steps":
		if len(args) < 2 {
			return eris.New("steps requires a number argument")
		}
		n, err := strconv.Atoi(args[1])
		if err != nil {
			return eris.Wrap(err, "invalid steps argument")
		}
		if err := m.Steps(n); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return eris.Wrap(err, "migration steps failed")
		}
		zap.L().Info("applied migration steps", zap.Int("steps", n))

	case "version":
		version, dirty, err := m.Version()
		if err != nil {
			return eris.Wrap(err, "failed to get version")
		}
		fmt.Printf("version: %d, dirty: %v\n", version, dirty)

	default:
		fmt.Printf("unknown command: %s\n", args[0])
		fmt.Println(usage)
		os.Exit(1)
	}
	return nil
}
