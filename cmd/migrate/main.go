package main

import (
	"database/sql"
	"errors"
	"flag"
	"log"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"github.com/lodgepoint/lodgepoint/internal/config"
	"github.com/lodgepoint/lodgepoint/internal/logger"
)

func main() {
	down := flag.Bool("down", false, "Roll back the most recent migration instead of migrating up")
	source := flag.String("source", "file://migrations", "Migration source URL")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logger.NewLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	db, err := sql.Open("postgres", cfg.Postgres.GetDSN())
	if err != nil {
		logger.Fatalw("Failed to connect to postgres", "error", err)
	}
	defer db.Close()

	driver, err := migratepg.WithInstance(db, &migratepg.Config{})
	if err != nil {
		logger.Fatalw("Failed to create migration driver", "error", err)
	}

	m, err := migrate.NewWithDatabaseInstance(*source, "postgres", driver)
	if err != nil {
		logger.Fatalw("Failed to initialize migrations", "error", err)
	}

	if *down {
		logger.Info("Rolling back one migration...")
		err = m.Steps(-1)
	} else {
		logger.Info("Running database migrations...")
		err = m.Up()
	}

	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		logger.Fatalw("Migration failed", "error", err)
	}
	logger.Info("Migration completed successfully")
}
