// Command ingest loads a bank CSV export into one administration's ledger.
//
//	ingest -tenant GoodwinSolutions -profile rabobank -file export.csv -dry-run
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/myadmin/myadmin/internal/audit"
	"github.com/myadmin/myadmin/internal/cache"
	"github.com/myadmin/myadmin/internal/config"
	"github.com/myadmin/myadmin/internal/events"
	"github.com/myadmin/myadmin/internal/ledger"
	"github.com/myadmin/myadmin/internal/observability/logger"
	"github.com/myadmin/myadmin/internal/store/sqlstore"
)

const actor = "ingest"

func main() {
	administration := flag.String("tenant", "", "administration the rows belong to")
	profileName := flag.String("profile", "", "import profile name from IMPORT_PROFILES_DIR")
	file := flag.String("file", "", "CSV file to import")
	dryRun := flag.Bool("dry-run", false, "prepare and print the batch without writing it")
	flag.Parse()

	if *administration == "" || *profileName == "" || *file == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger.InitLogger(logger.Config{Level: cfg.Observability.LogLevel, Format: "text", DisableOTel: true})

	profiles, err := ledger.LoadProfiles(cfg.Ingest.ProfilesDir)
	if err != nil {
		log.Fatalf("Failed to load profiles: %v", err)
	}
	profile, ok := profiles[*profileName]
	if !ok {
		log.Fatalf("Unknown profile %q in %s", *profileName, cfg.Ingest.ProfilesDir)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	f, err := os.Open(*file)
	if err != nil {
		log.Fatalf("Failed to open %s: %v", *file, err)
	}
	defer f.Close()

	rows, err := ledger.ParseCSV(f, profile, *administration)
	if err != nil {
		log.Fatalf("Failed to parse %s: %v", *file, err)
	}

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

	// Only a shared store is worth invalidating from outside the server.
	var reportCache *cache.Cache
	if cfg.Cache.Enabled && cfg.Cache.RedisAddr != "" {
		client, err := cache.NewRedisClient(ctx, cache.Options{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		})
		if err != nil {
			log.Printf("Warning: cache not invalidated: %v", err)
		} else {
			defer client.Close()
			reportCache = cache.New(cache.NewRedisStore(client), cfg.Cache.Prefix, cfg.Cache.TTL)
		}
	}

	var publisher ledger.Publisher
	if cfg.Broker.URL != "" {
		p := events.NewPublisher(cfg.Broker.URL)
		defer p.Close()
		publisher = p
	}

	svc := ledger.NewService(sqlstore.NewLedgerRepository(db), reportCache, publisher, audit.NewSlogLogger(nil))
	res, err := svc.Import(ctx, actor, ledger.ImportBatch{
		Tenant:  *administration,
		Source:  filepath.Base(*file),
		Profile: profile,
		Rows:    rows,
	}, *dryRun)
	if err != nil {
		log.Fatalf("Import failed: %v", err)
	}

	if res.DryRun {
		for _, tx := range res.Preview {
			fmt.Printf("%s  %-40.40s %12s  %-6s %-6s\n",
				tx.Date.Format(ledger.DateLayout), tx.Description, tx.Amount.StringFixed(2), tx.Debet, tx.Credit)
		}
		fmt.Printf("\nDry run: %d rows, %d matched, %d on suspense\n", res.Rows, res.Matched, res.Suspense)
		return
	}
	fmt.Printf("✓ Imported %d rows into %s (batch %s, %d matched, %d on suspense)\n",
		res.Rows, *administration, res.BatchID, res.Matched, res.Suspense)
	if !res.Published {
		fmt.Println("Warning: import event not published")
	}
}
