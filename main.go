package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"price_radar/ai"
	"price_radar/config"
	"price_radar/fetch"
	"price_radar/httputil"
	"price_radar/logging"
	"price_radar/monitor"
	"price_radar/scheduler"
	"price_radar/search"
	"price_radar/server"
	"price_radar/services"
	"price_radar/storage"
	"price_radar/workers"
)

var (
	scanNow = flag.Bool("scan", false, "Run all monitor tiers once and exit")
)

func main() {
	flag.Parse()
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	logFile, err := logging.Setup("daemon.log")
	if err != nil {
		log.Printf("Warning: could not set up file logging: %v", err)
	} else {
		defer logFile.Close()
	}

	log.Println("Starting price_radar...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	log.Printf("Loaded %d site configs", len(cfg.Sites))
	for id, site := range cfg.Sites {
		log.Printf("  - %s (%s)", site.Name, id)
	}

	ctx := context.Background()

	var store storage.Store
	if cfg.Database.URL != "" {
		pgStore, err := storage.NewPostgresStore(ctx, cfg.Database.URL)
		if err != nil {
			log.Fatalf("Failed to connect to Postgres: %v", err)
		}
		log.Printf("Connected to Postgres: %s", maskConnectionString(cfg.Database.URL))
		store = pgStore
	} else {
		sqliteStore, err := storage.NewSQLiteStore(cfg.Database.SQLitePath)
		if err != nil {
			log.Fatalf("Failed to open SQLite: %v", err)
		}
		log.Printf("SQLite database: %s", cfg.Database.SQLitePath)
		store = sqliteStore
	}
	defer store.Close()

	clients := httputil.NewClients()

	// Fetch path: FETCH_MODE picks explicitly; otherwise the hosted service
	// when a key is configured, local browser as the fallback.
	var scraper fetch.Scraper
	var browser *fetch.BrowserClient
	switch {
	case cfg.Fetch.Mode == "direct":
		scraper = fetch.NewDirectClient(clients.Scraping)
		log.Println("Fetch: direct HTTP")
	case cfg.Fetch.Mode == "browser":
		browser = fetch.NewBrowserClient()
		scraper = browser
		log.Println("Fetch: local browser")
	case cfg.Fetch.Mode == "service" || cfg.Scrape.APIKey != "":
		scraper = fetch.NewScrapeAPIClient(cfg.Scrape, clients.API)
		log.Println("Fetch: using scrape service")
	default:
		browser = fetch.NewBrowserClient()
		scraper = browser
		log.Println("Fetch: no SCRAPE_API_KEY, using local browser")
	}
	if browser != nil {
		defer browser.Close()
	}

	gateway := fetch.NewGateway(scraper, cfg.Fetch.MaxConcurrent, cfg.Fetch.BatchDelay)

	aiClient := ai.NewClient(cfg.AI, clients.AI)
	parser := ai.NewParser(aiClient)
	extractor := ai.NewExtractor(aiClient, cfg.AI.MaxTokens)

	builder := search.NewBuilder(cfg.Sites)
	offerService := services.NewOfferService(store)
	pipeline := monitor.NewPipeline(builder, gateway, extractor, offerService, store)
	orchestrator := monitor.NewOrchestrator(store, pipeline)

	if *scanNow {
		log.Println("Running one-shot scan...")
		for _, tier := range cfg.Scheduler.Tiers {
			orchestrator.RunBatch(ctx, tier)
		}
		log.Println("Scan complete!")
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sched := scheduler.New(cfg, orchestrator)
	if err := sched.Start(ctx); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}

	cleanupWorker := workers.NewCleanupWorker(store, cfg.Cleanup.MaxOfferAge)
	go cleanupWorker.Run(ctx, cfg.Cleanup.Interval)
	log.Println("Cleanup worker started")

	srv := server.New(cfg.HTTP.Addr, orchestrator, parser)
	go func() {
		if err := srv.Start(); err != nil {
			log.Fatalf("HTTP server failed: %v", err)
		}
	}()

	log.Println("Daemon running. Press Ctrl+C to stop.")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("Shutting down...")
	sched.Stop()
	if err := srv.Shutdown(context.Background()); err != nil {
		log.Printf("HTTP shutdown error: %v", err)
	}
	log.Println("Goodbye!")
}

// maskConnectionString masks the password in a connection string for logging.
func maskConnectionString(connStr string) string {
	start := 0
	for i := 0; i < len(connStr)-3; i++ {
		if connStr[i:i+3] == "://" {
			start = i + 3
			break
		}
	}
	if start == 0 {
		return connStr
	}

	colonIdx := -1
	atIdx := -1
	for i := start; i < len(connStr); i++ {
		if connStr[i] == ':' && colonIdx == -1 {
			colonIdx = i
		}
		if connStr[i] == '@' {
			atIdx = i
			break
		}
	}

	if colonIdx == -1 || atIdx == -1 {
		return connStr
	}
	return connStr[:colonIdx+1] + "****" + connStr[atIdx:]
}
