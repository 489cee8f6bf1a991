package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/joho/godotenv"

	"nodetree/internal/config"
	"nodetree/internal/repository"
	"nodetree/internal/seed"
	"nodetree/internal/service"
)

func main() {
	// Parse command-line flags
	seedFile := flag.String("file", "", "YAML seed file (defaults to the built-in sample tree)")
	clearData := flag.Bool("clear", false, "Delete every node before seeding")
	clearOnly := flag.Bool("clear-only", false, "Delete every node and exit")
	flag.Parse()

	// Load .env file
	_ = godotenv.Load()

	// Load configuration
	cfg := config.Load()

	// SAFETY: Prevent destructive operations in production
	if cfg.Environment == "prod" && (*clearData || *clearOnly) {
		log.Fatalf("BLOCKED: cannot clear nodes in the production environment")
	}

	logger := config.NewLogger(cfg, nil)

	// Memory store contents vanish with the process
	if cfg.Store == config.StoreMemory {
		log.Fatalf("STORE=%s has nothing to seed; use %s or %s", config.StoreMemory, config.StoreSQLite, config.StorePostgres)
	}

	tree, err := loadTree(*seedFile)
	if err != nil && !*clearOnly {
		log.Fatalf("Failed to load seed tree: %v", err)
	}

	ctx := context.Background()
	backend, err := repository.Open(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("Failed to open %s store: %v", cfg.Store, err)
	}
	defer backend.Close()

	if *clearData || *clearOnly {
		log.Printf("Clearing nodes (store: %s, prefix: %s)", cfg.Store, cfg.TablePrefix)
		if err := backend.Clear(ctx); err != nil {
			log.Fatalf("Failed to clear nodes: %v", err)
		}
		if *clearOnly {
			log.Println("Nodes cleared")
			return
		}
	}

	nodeService := service.NewNodeService(backend.Store, backend.TxManager, service.Options{
		ChildrenLookup:    cfg.ChildrenLookup,
		AutocompleteLimit: cfg.AutocompleteLimit,
	}, logger)

	log.Printf("Seeding nodes (store: %s, prefix: %s)", cfg.Store, cfg.TablePrefix)
	created, err := seed.NewSeeder(nodeService, logger).Apply(ctx, tree)
	if err != nil {
		log.Fatalf("Seeding stopped after %d nodes: %v", created, err)
	}

	stats, err := nodeService.Stats(ctx)
	if err != nil {
		log.Fatalf("Failed to count nodes: %v", err)
	}
	log.Printf("Seeding complete: %d nodes created, %d in store", created, stats.Nodes)
}

func loadTree(path string) (*seed.File, error) {
	if path == "" {
		return seed.Default()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return seed.Parse(f)
}
