//go:build ignore
// +build ignore

// Validation Benchmark Tool
// Measures pipeline throughput over a synthetic list without touching the
// network: real format parsing, cache, and statistics, with DNS and SMTP
// replaced by in-process fakes.
//
// Usage:
//   go run scripts/validation_benchmark.go --size=100000 --concurrency=8
//
// Or against a real file of addresses (still offline):
//   go run scripts/validation_benchmark.go --file=/path/to/list.txt

package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/ignite/listcheck/internal/dnscheck"
	"github.com/ignite/listcheck/internal/engine"
	"github.com/ignite/listcheck/internal/smtpprobe"
)

type fakeChecker struct{}

func (fakeChecker) Check(ctx context.Context, domain string) dnscheck.DomainAuth {
	// Every fifth domain pretends to have no MX records.
	if strings.HasPrefix(domain, "dead") {
		return dnscheck.DomainAuth{}
	}
	return dnscheck.DomainAuth{
		HasMX:   true,
		HasSPF:  true,
		MXHosts: []string{"mx." + domain},
	}
}

type fakeProber struct{ rejectRate float64 }

func (p fakeProber) Probe(ctx context.Context, email string, mxHosts []string) smtpprobe.Outcome {
	if rand.Float64() < p.rejectRate {
		return smtpprobe.Outcome{ConnectionSuccess: true, Code: 550, Message: "5.1.1 mailbox unavailable"}
	}
	return smtpprobe.Outcome{ConnectionSuccess: true, RecipientAccepted: true, Code: 250}
}

func syntheticList(size int) []string {
	emails := make([]string, size)
	for i := range emails {
		domain := fmt.Sprintf("company%d.com", i%1000)
		if i%5 == 0 {
			domain = fmt.Sprintf("dead%d.com", i%1000)
		}
		emails[i] = fmt.Sprintf("user%d@%s", i, domain)
	}
	return emails
}

func fileList(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var emails []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			emails = append(emails, line)
		}
	}
	return emails, scanner.Err()
}

func main() {
	var (
		size        = flag.Int("size", 100_000, "synthetic list size")
		file        = flag.String("file", "", "optional file of addresses, one per line")
		concurrency = flag.Int("concurrency", 8, "validation concurrency")
		rejectRate  = flag.Float64("reject-rate", 0.1, "fraction of probes rejected")
	)
	flag.Parse()

	var emails []string
	var err error
	if *file != "" {
		emails, err = fileList(*file)
		if err != nil {
			log.Fatalf("reading %s: %v", *file, err)
		}
	} else {
		emails = syntheticList(*size)
	}

	e := engine.New(fakeChecker{}, fakeProber{rejectRate: *rejectRate},
		engine.WithConcurrency(*concurrency))

	fmt.Printf("Validating %d addresses with concurrency %d...\n", len(emails), *concurrency)
	start := time.Now()
	out, err := e.ValidateBulk(context.Background(), emails)
	if err != nil {
		log.Fatalf("validation failed: %v", err)
	}
	elapsed := time.Since(start)

	fmt.Printf("Elapsed:    %s (%.0f addresses/sec)\n", elapsed.Round(time.Millisecond),
		float64(len(emails))/elapsed.Seconds())
	fmt.Printf("Verified:   %d\n", out.Stats.Verified)
	fmt.Printf("Failed:     %d\n", out.Stats.Failed)
	fmt.Printf("Domains:    %d\n", out.Stats.Domains.Total)
	if d := out.Stats.Deliverability; d != nil {
		fmt.Printf("Predicted bounce rate: %.2f%%\n", d.PredictedBounceRate)
	}
}
