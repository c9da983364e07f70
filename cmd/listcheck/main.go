package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ignite/listcheck/internal/cache"
	"github.com/ignite/listcheck/internal/config"
	"github.com/ignite/listcheck/internal/dnscheck"
	"github.com/ignite/listcheck/internal/engine"
	"github.com/ignite/listcheck/internal/ses"
	"github.com/ignite/listcheck/internal/smtpprobe"
)

func main() {
	var (
		filePath    = flag.String("file", "", "file with one email address per line (default: stdin)")
		configPath  = flag.String("config", "", "optional config.yaml path")
		concurrency = flag.Int("concurrency", 0, "override validation concurrency")
		summaryOnly = flag.Bool("summary", false, "print statistics only, not per-address results")
	)
	flag.Parse()

	cfg := defaultConfig()
	if *configPath != "" {
		loaded, err := config.LoadFromEnv(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: failed to load config: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	if *concurrency > 0 {
		cfg.Validator.Concurrency = *concurrency
	}

	emails, err := readEmails(*filePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		os.Exit(1)
	}
	if len(emails) == 0 {
		fmt.Fprintln(os.Stderr, "FATAL: no email addresses to validate")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

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
			fmt.Fprintf(os.Stderr, "FATAL: failed to initialize SES provider: %v\n", err)
			os.Exit(1)
		}
		opts = append(opts, engine.WithIdentityProvider(provider))
	}

	start := time.Now()
	out, _ := engine.New(checker, prober, opts...).ValidateBulk(ctx, emails)
	fmt.Fprintf(os.Stderr, "Validated %d addresses in %s\n", len(emails), time.Since(start).Round(time.Millisecond))

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if *summaryOnly {
		err = enc.Encode(out.Stats)
	} else {
		err = enc.Encode(out)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: failed to write output: %v\n", err)
		os.Exit(1)
	}
}

func defaultConfig() *config.Config {
	return &config.Config{
		Validator: config.ValidatorConfig{
			Concurrency:         2,
			HELODomain:          "validator.local",
			MailFrom:            "validator@validator.local",
			ProbeTimeoutSeconds: 10,
			DNSTimeoutSeconds:   5,
			MaxBatchSize:        1000,
		},
		Cache: config.CacheConfig{TTLHours: 24, MaxEntries: 1000},
	}
}

func readEmails(path string) ([]string, error) {
	in := os.Stdin
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("opening %s: %w", path, err)
		}
		defer f.Close()
		in = f
	}

	var emails []string
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		emails = append(emails, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading input: %w", err)
	}
	return emails, nil
}
