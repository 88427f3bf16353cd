package main

import (
	"log"
	"os"

	"github.com/johnquangdev/meeting-autopilot/internal/infrastructure/database"
	"github.com/johnquangdev/meeting-autopilot/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.NewPostgresDB(cfg, nil)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.CloseDB(db)

	if err := database.RunMigrations(db, "migrations", nil); err != nil {
		log.Fatalf("Failed to apply migrations: %v", err)
	}

	log.Println("Migrations applied")
	os.Exit(0)
}
