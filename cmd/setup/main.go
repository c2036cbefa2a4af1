package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"

	"github.com/osse101/MallLoyalty_Go/internal/concurrency"
	"github.com/osse101/MallLoyalty_Go/internal/config"
	"github.com/osse101/MallLoyalty_Go/internal/database"
	"github.com/osse101/MallLoyalty_Go/internal/database/postgres"
	"github.com/osse101/MallLoyalty_Go/internal/database/schema"
	"github.com/osse101/MallLoyalty_Go/internal/points"
	"github.com/osse101/MallLoyalty_Go/internal/validation"
)

func main() {
	reset := flag.Bool("reset", false, "drop and recreate the database first")
	migrations := flag.String("migrations", schema.DefaultMigrationsDir, "migrations directory")
	rulesPath := flag.String("rules", config.ConfigPathRules, "points rules file to seed")
	flag.Parse()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	host := os.Getenv("DB_HOST")
	port := os.Getenv("DB_PORT")
	user := os.Getenv("DB_USER")
	password := os.Getenv("DB_PASSWORD")
	dbname := os.Getenv("DB_NAME")
	if dbname == "" {
		dbname = config.DefaultDBName
	}

	ctx := context.Background()

	// 1. Connect to the default 'postgres' database to manage the target
	defaultConnString := fmt.Sprintf("postgres://%s:%s@%s:%s/postgres?sslmode=disable", user, password, host, port)
	conn, err := pgx.Connect(ctx, defaultConnString)
	if err != nil {
		log.Fatalf("Unable to connect to postgres database: %v", err)
	}

	ident := pgx.Identifier{dbname}.Sanitize()

	if *reset {
		log.Printf("Terminating existing connections to database %s...", dbname)
		if _, err := conn.Exec(ctx, `
			SELECT pg_terminate_backend(pid)
			FROM pg_stat_activity
			WHERE datname = $1 AND pid <> pg_backend_pid()`, dbname); err != nil {
			log.Printf("Warning: Failed to terminate connections: %v", err)
		}
		log.Printf("Dropping database %s if it exists...", dbname)
		if _, err := conn.Exec(ctx, "DROP DATABASE IF EXISTS "+ident); err != nil {
			log.Fatalf("Failed to drop database: %v", err)
		}
	}

	// 2. Create the database when missing
	var exists bool
	err = conn.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM pg_database WHERE datname = $1)", dbname).Scan(&exists)
	if err != nil {
		log.Fatalf("Failed to check if database exists: %v", err)
	}

	if !exists {
		log.Printf("Creating database %s...", dbname)
		if _, err := conn.Exec(ctx, "CREATE DATABASE "+ident); err != nil {
			log.Fatalf("Failed to create database: %v", err)
		}
	} else {
		log.Printf("Database %s already exists.", dbname)
	}
	conn.Close(ctx)

	// 3. Apply migrations on the target database
	targetConnString := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", user, password, host, port, dbname)
	pool, err := database.NewPool(targetConnString, 2, time.Minute, 10*time.Minute)
	if err != nil {
		log.Fatalf("Unable to connect to %s database: %v", dbname, err)
	}
	defer pool.Close()

	log.Println("Running migrations...")
	if err := schema.Migrate(ctx, pool, *migrations); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
	version, err := schema.Version(ctx, pool)
	if err != nil {
		log.Fatalf("Failed to read schema version: %v", err)
	}
	log.Printf("Schema at version %d.", version)

	// 4. Seed the earning rules
	rules, err := points.LoadRules(*rulesPath, points.SchemaPathRules, validation.NewSchemaValidator())
	if err != nil {
		log.Fatalf("Failed to load points rules: %v", err)
	}
	svc := points.NewService(postgres.NewPointsRepository(pool), nil, concurrency.NewLockManager(), 0)
	if err := svc.SyncRules(ctx, rules); err != nil {
		log.Fatalf("Failed to seed points rules: %v", err)
	}

	log.Printf("Setup completed successfully, %d points rules seeded.", len(rules))
}
