package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"

	"linkrank/config"
	"linkrank/crawler"
	"linkrank/delivery"
	"linkrank/fetch"
	"linkrank/index"
	"linkrank/rank"
	"linkrank/server"
	"linkrank/store"
)

func main() {
	// Command line flags
	var (
		seedURL = flag.String("url", "https://example.com", "Seed URL to crawl")
		depth   = flag.Int("depth", 3, "Maximum crawl depth (0 serves the existing index only)")
		addr    = flag.String("addr", "", "Listen address for the viewer endpoint (overrides LISTEN_ADDR)")
		workers = flag.Int("workers", 10, "Maximum concurrent fetches")
	)
	flag.Parse()

	// Load configuration
	cfg := config.Load()
	if *addr != "" {
		cfg.ListenAddr = *addr
	}

	// Pick the persistence backend: postgres when configured, otherwise
	// the JSON index document on disk.
	var st store.Store
	if cfg.DatabaseURL != "" {
		pgStore, err := store.NewPostgresStore(cfg.DatabaseURL)
		if err != nil {
			log.Fatal("failed to connect to database", "err", err)
		}
		defer pgStore.Close()
		st = pgStore
		log.Info("using postgres store")
	} else {
		st = store.NewFileStore(cfg.IndexPath)
		log.Info("using file store", "path", cfg.IndexPath)
	}

	// Restore whatever was persisted by a previous run.
	idx := index.New()
	pages, err := st.Load()
	if err != nil {
		log.Warn("loading persisted index failed, starting empty", "err", err)
	} else {
		idx.Replace(pages)
	}
	log.Info("index loaded", "pages", idx.Len())

	hub := delivery.NewHub(idx)
	fetcher := fetch.NewHTTPFetcher(cfg.UserAgent, cfg.RequestTimeout, cfg.RateLimit)
	c := crawler.New(idx, st, fetcher, hub, *workers)
	engine := rank.NewEngine(idx)
	srv := server.New(cfg.ListenAddr, hub, idx)

	// Setup graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	go engine.Run(ctx, cfg.RankInterval)
	go hub.Run(ctx, cfg.DrainInterval)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", "err", err)
			cancel()
		}
	}()
	log.Info("viewer endpoint listening", "addr", cfg.ListenAddr)

	if *depth > 0 {
		go func() {
			log.Info("crawl started", "seed", *seedURL, "depth", *depth, "workers", *workers)
			start := time.Now()
			c.Crawl(ctx, *seedURL, *depth)
			log.Info("crawl completed",
				"pages", idx.Len(),
				"dispatched", c.Visited().Len(),
				"duration", time.Since(start))
		}()
	} else {
		log.Info("crawling disabled, serving existing index")
	}

	<-ctx.Done()
	log.Info("shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown failed", "err", err)
	}
}
