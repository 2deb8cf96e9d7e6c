package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/gurnoorsh/wealthwise/internal/db"
	"github.com/gurnoorsh/wealthwise/internal/logger"
)

func main() {
	path := flag.String("path", "migrations", "directory holding the SQL migrations")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [-path dir] up|down|version\n", os.Args[0])
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	_ = godotenv.Load()
	log, err := logger.FromEnv()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to build logger:", err)
		os.Exit(1)
	}
	defer log.Sync()

	migrator, err := db.NewMigrator(db.NewConfig(), *path)
	if err != nil {
		log.Fatal("failed to initialise migrations", zap.Error(err))
	}
	defer migrator.Close()

	switch cmd := flag.Arg(0); cmd {
	case "up":
		err = migrator.Up()
	case "down":
		err = migrator.Down()
	case "version":
		var version uint
		var dirty bool
		version, dirty, err = migrator.Version()
		if err == nil {
			log.Info("migration version", zap.Uint("version", version), zap.Bool("dirty", dirty))
		}
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatal("migration failed", zap.Error(err))
	}
	log.Info("migration command finished", zap.String("command", flag.Arg(0)))
}
