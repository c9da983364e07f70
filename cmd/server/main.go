package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ignite/listcheck/internal/api"
	"github.com/ignite/listcheck/internal/cache"
	"github.com/ignite/listcheck/internal/config"
	"github.com/ignite/listcheck/internal/dnscheck"
	"github.com/ignite/listcheck/internal/engine"
	"github.com/ignite/listcheck/internal/ses"
	"github.com/ignite/listcheck/internal/smtpprobe"
)

func main() {
	// Load configuration
	cfg, err := config.LoadFromEnv("config/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DNS auth checks share one cache across every request so repeated
	// domains cost a single lookup per TTL window.
	store := cache.New[dnscheck.DomainAuth](cfg.Cache.TTL(), cfg.Cache.MaxEntries)
	checker := dnscheck.NewChecker(nil, store, cfg.Validator.DNSTimeout())

	prober := smtpprobe.New(smtpprobe.Options{
		Timeout:        cfg.Validator.ProbeTimeout(),
		HELODomain:     cfg.Validator.HELODomain,
		MailFrom:       cfg.Validator.MailFrom,
		DetectCatchAll: cfg.Validator.CatchAllDetection,
	})

	opts := []engine.Option{engine.WithConcurrency(cfg.Validator.Concurrency)}
	if cfg.SES.Enabled {
		provider, err := ses.NewProvider(ctx, cfg.SES)
		if err != nil {
			log.Fatalf("Failed to initialize SES provider: %v", err)
		}
		opts = append(opts, engine.WithIdentityProvider(provider))
		log.Printf("SES identity checks enabled (region %s)", cfg.SES.Region)
	}

	validator := engine.New(checker, prober, opts...)
	server := api.NewServer(cfg.Server, validator, cfg.Validator.MaxBatchSize)

	// Setup graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		addr := fmt.Sprintf("%s:%d", cfg.Server.GetHost(), cfg.Server.Port)
		log.Printf("Starting server on %s", addr)
		if err := server.ListenAndServe(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-done
	log.Println("Shutting down...")

	cancel()

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped")
}
