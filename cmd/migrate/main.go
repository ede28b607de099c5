package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/myadmin/myadmin/internal/config"
	"github.com/myadmin/myadmin/internal/observability/logger"
	"github.com/myadmin/myadmin/internal/store/sqlstore"
)

func main() {
	list := flag.Bool("list", false, "print the embedded migrations without applying them")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger.InitLogger(logger.Config{Level: cfg.Observability.LogLevel, Format: "text", DisableOTel: true})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	db, err := sqlstore.Open(ctx, sqlstore.Config{
		Driver:   cfg.Database.Driver,
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		Database: cfg.Database.Database,
		SSLMode:  cfg.Database.SSLMode,
	})
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer db.Close()

	fmt.Printf("✓ Connected to %s database %s\n", cfg.Database.Driver, cfg.Database.Database)

	if *list {
		migrations, err := db.Migrations()
		if err != nil {
			log.Fatalf("Failed to read migrations: %v", err)
		}
		for _, m := range migrations {
			fmt.Println(m.Version)
		}
		return
	}

	applied, err := db.Migrate(ctx)
	if err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
	for _, v := range applied {
		fmt.Printf("✓ %s completed\n", v)
	}
	if len(applied) == 0 {
		fmt.Println("Schema is up to date.")
		return
	}
	fmt.Println("\n✓✓✓ All migrations completed successfully!")
}
