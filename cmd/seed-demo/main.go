package main

import (
	"context"
	"fmt"
	"time"

	"github.com/stemsi/classroom-backend/internal/config"
	"github.com/stemsi/classroom-backend/internal/database"
	"github.com/stemsi/classroom-backend/internal/logger"
	"github.com/stemsi/classroom-backend/internal/repository"
	"github.com/stemsi/classroom-backend/internal/seed"
)

func main() {
	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat, "seed-demo")
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg.DatabaseURL, 2, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	fmt.Println("=== Seeding demo data ===")
	if err := seed.New(repository.NewPostgresStore(pool), cfg.BcryptCost, log).Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("Seeding failed")
	}

	fmt.Printf("Done. Log in as %s/%s, or STU001..STU003 with password %s\n",
		seed.AdminUsername, seed.AdminPassword, seed.StudentPassword)
}
