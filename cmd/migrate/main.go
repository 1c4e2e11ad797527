package main

import (
	"database/sql"
	"flag"
	"log"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	_ "github.com/lib/pq"

	"fanpass/internal/config"
	"fanpass/internal/database/migrations"
)

func main() {
	var (
		dir     = flag.String("dir", "./migrations", "directory containing migration files")
		down    = flag.Bool("down", false, "roll back all migrations")
		version = flag.String("to", "", "migrate to a specific version")
	)
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println(".env file not found, using environment variables")
	}

	cfg := config.Load()

	sqldb, err := sql.Open("postgres", cfg.Database.DSN)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer sqldb.Close()

	if err := sqldb.Ping(); err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	bunDB := bun.NewDB(sqldb, pgdialect.New())

	runner := migrations.NewRunner(bunDB, migrations.MigrateOptions{
		MigrationsDir: *dir,
	})
	defer runner.Close()

	switch {
	case *down:
		if err := runner.MigrateDown(); err != nil {
			log.Fatalf("migration down failed: %v", err)
		}
		log.Println("All migrations rolled back")
	case *version != "":
		v, err := strconv.ParseUint(*version, 10, 32)
		if err != nil {
			log.Fatalf("invalid version %q: %v", *version, err)
		}
		if err := runner.MigrateTo(uint(v)); err != nil {
			log.Fatalf("migration failed: %v", err)
		}
		log.Printf("Migrated to version %d", v)
	default:
		if err := runner.RunMigrations(); err != nil {
			log.Fatalf("migrations failed: %v", err)
		}
		log.Println("Migrations applied")
	}
}
