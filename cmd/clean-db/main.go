package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/myadmin/myadmin/internal/config"
	"github.com/myadmin/myadmin/internal/observability/logger"
	"github.com/myadmin/myadmin/internal/store/sqlstore"
)

func main() {
	administration := flag.String("tenant", "", "administration whose data is removed")
	yes := flag.Bool("yes", false, "skip the confirmation prompt")
	flag.Parse()

	if *administration == "" {
		log.Fatal("-tenant is required")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger.InitLogger(logger.Config{Level: cfg.Observability.LogLevel, Format: "text", DisableOTel: true})

	if !*yes && !confirm(*administration) {
		fmt.Println("Aborted.")
		return
	}

	ctx := context.Background()
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

	fmt.Printf("Cleaning administration %s...\n", *administration)
	removed, err := db.PurgeTenant(ctx, *administration)
	if err != nil {
		log.Fatalf("Purge failed: %v", err)
	}
	for _, table := range sqlstore.TenantTables {
		fmt.Printf("✓ Cleared %s (%d rows)\n", table, removed[table])
	}
}

func confirm(administration string) bool {
	fmt.Printf("This deletes all data of %q. Type the administration name to continue: ", administration)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false
	}
	return strings.TrimSpace(line) == administration
}
