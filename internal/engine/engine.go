// Package engine orchestrates the validation pipeline: syntax, DNS
// authentication, SMTP recipient probing, aggregate statistics, and bounce
// prediction. One ValidateBulk call produces exactly one result per input
// address, in input order, no matter what fails along the way.
package engine

import (
	"context"
	"sync"

	"github.com/ignite/listcheck/internal/dnscheck"
	"github.com/ignite/listcheck/internal/pkg/logger"
	"github.com/ignite/listcheck/internal/smtpprobe"
	"github.com/ignite/listcheck/internal/validate"
)

// DefaultConcurrency bounds simultaneous DNS lookups and SMTP probes.
// Receiving servers throttle or blacklist sources that open many parallel
// connections, so the default stays small.
const DefaultConcurrency = 2

const (
	reasonBadFormat  = "Invalid email format"
	reasonNoMX       = "No MX records found"
	reasonCatchAll   = "Catch-all domain detected"
	reasonSMTPFailed = "SMTP validation failed"
	reasonCombined   = "Multiple validation checks failed"
	reasonCanceled   = "Validation canceled"
	reasonPanic      = "Internal validation error"
)

// DomainChecker resolves a domain's DNS authentication snapshot.
// dnscheck.Checker implements it.
type DomainChecker interface {
	Check(ctx context.Context, domain string) dnscheck.DomainAuth
}

// Prober runs the SMTP recipient conversation. smtpprobe.Prober implements it.
type Prober interface {
	Probe(ctx context.Context, email string, mxHosts []string) smtpprobe.Outcome
}

// IdentityAttributes is what an identity provider knows about a sending
// domain.
type IdentityAttributes struct {
	Verified    bool
	DKIMEnabled bool
}

// IdentityProvider is an optional external check of domain ownership and
// DKIM signing, backed by AWS SES in production.
type IdentityProvider interface {
	Verify(ctx context.Context, domain string) (IdentityAttributes, error)
}

// Engine runs bulk validations.
type Engine struct {
	checker     DomainChecker
	prober      Prober
	identity    IdentityProvider // may be nil
	concurrency int
}

// Option configures an Engine.
type Option func(*Engine)

// WithConcurrency sets the worker-pool bound for DNS prefetch and SMTP
// probing. Values below 1 keep the default.
func WithConcurrency(n int) Option {
	return func(e *Engine) {
		if n >= 1 {
			e.concurrency = n
		}
	}
}

// WithIdentityProvider attaches an external domain identity check.
func WithIdentityProvider(p IdentityProvider) Option {
	return func(e *Engine) { e.identity = p }
}

// New creates an Engine over the given checker and prober.
func New(checker DomainChecker, prober Prober, opts ...Option) *Engine {
	e := &Engine{
		checker:     checker,
		prober:      prober,
		concurrency: DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ValidateBulk validates every address in emails and returns one result per
// input, in input order. A failure for one address never aborts the batch;
// the returned error is non-nil only when ctx is canceled, and even then the
// result set is complete, with unprocessed addresses marked as canceled.
func (e *Engine) ValidateBulk(ctx context.Context, emails []string) (*BulkValidationResult, error) {
	results := make([]ValidationResult, len(emails))
	if len(emails) == 0 {
		return &BulkValidationResult{Results: results, Stats: computeStats(results)}, nil
	}

	// Pre-resolve every unique domain so repeated domains in the list cost
	// one DNS round trip, and snapshot identity attributes for the batch.
	identities := e.prefetchDomains(ctx, emails)

	sem := make(chan struct{}, e.concurrency)
	var wg sync.WaitGroup
	for i, email := range emails {
		select {
		case <-ctx.Done():
			results[i] = canceledResult(email)
			continue
		case sem <- struct{}{}:
		}
		wg.Add(1)
		go func(i int, email string) {
			defer wg.Done()
			defer func() { <-sem }()
			results[i] = e.validateOne(ctx, email, identities)
		}(i, email)
	}
	wg.Wait()

	stats := computeStats(results)
	metrics := PredictBounceRate(results)
	stats.Deliverability = &Deliverability{
		Score:               100 - metrics.PredictedRate,
		PredictedBounceRate: metrics.PredictedRate,
		Recommendations:     metrics.Recommendations,
	}

	if err := ctx.Err(); err != nil {
		return &BulkValidationResult{Results: results, Stats: stats}, err
	}
	return &BulkValidationResult{Results: results, Stats: stats}, nil
}

// prefetchDomains warms the DNS cache for every unique domain under the
// same concurrency bound as probing, and collects identity attributes when
// a provider is configured. Identity failures are logged and treated as
// "not verified".
func (e *Engine) prefetchDomains(ctx context.Context, emails []string) map[string]IdentityAttributes {
	unique := make(map[string]struct{})
	for _, email := range emails {
		if addr, err := validate.ParseAddress(email); err == nil {
			unique[addr.Domain] = struct{}{}
		}
	}

	identities := make(map[string]IdentityAttributes, len(unique))
	var mu sync.Mutex

	sem := make(chan struct{}, e.concurrency)
	var wg sync.WaitGroup
	for domain := range unique {
		select {
		case <-ctx.Done():
			return identities
		case sem <- struct{}{}:
		}
		wg.Add(1)
		go func(domain string) {
			defer wg.Done()
			defer func() { <-sem }()

			e.checker.Check(ctx, domain)

			if e.identity == nil {
				return
			}
			attrs, err := e.identity.Verify(ctx, domain)
			if err != nil {
				logger.Warn("identity check failed", "domain", domain, "error", err)
				return
			}
			mu.Lock()
			identities[domain] = attrs
			mu.Unlock()
		}(domain)
	}
	wg.Wait()
	return identities
}

// validateOne runs the full pipeline for a single address. Panics are
// contained here so one poisoned address cannot take down the batch.
func (e *Engine) validateOne(ctx context.Context, email string, identities map[string]IdentityAttributes) (result ValidationResult) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("panic during validation", "email", email, "panic", r)
			result = ValidationResult{
				Email:              email,
				VerificationStatus: StatusFailed,
				Reason:             reasonPanic,
				DomainStatus:       DomainStatus{DMARCStatus: "none"},
			}
		}
	}()

	if err := ctx.Err(); err != nil {
		return canceledResult(email)
	}

	addr, err := validate.ParseAddress(email)
	if err != nil {
		// Terminal: no DNS or SMTP work for a syntactically bad address.
		return ValidationResult{
			Email:              email,
			VerificationStatus: StatusFailed,
			Reason:             reasonBadFormat,
			DomainStatus:       DomainStatus{DMARCStatus: "none"},
		}
	}

	// Served from the cache warmed during prefetch in the common case.
	auth := e.checker.Check(ctx, addr.Domain)
	attrs := identities[addr.Domain]

	status := DomainStatus{
		Verified:     attrs.Verified,
		HasMXRecords: auth.HasMX,
		HasDKIM:      auth.HasDKIM || attrs.DKIMEnabled,
		HasSPF:       auth.HasSPF,
		DMARCStatus:  dmarcStatus(auth.HasDMARC),
	}

	if !auth.HasMX {
		return ValidationResult{
			Email:              email,
			VerificationStatus: StatusFailed,
			Reason:             reasonNoMX,
			DomainStatus:       status,
		}
	}

	outcome := e.prober.Probe(ctx, email, auth.MXHosts)
	smtp := &SMTPOutcome{
		ConnectionSuccess: outcome.ConnectionSuccess,
		RecipientAccepted: outcome.RecipientAccepted,
		Message:           outcome.Message,
	}
	if outcome.Code != 0 {
		code := outcome.Code
		smtp.Code = &code
	}
	if outcome.CatchAllTested {
		catchAll := outcome.CatchAll
		smtp.IsCatchAll = &catchAll
	}

	isValid := outcome.RecipientAccepted && auth.HasMX && !outcome.CatchAll
	result = ValidationResult{
		Email:              email,
		IsValid:            isValid,
		VerificationStatus: StatusSuccess,
		DomainStatus:       status,
		SMTP:               smtp,
	}
	if !isValid {
		result.VerificationStatus = StatusFailed
		result.Reason = failureReason(auth, outcome)
	}
	return result
}

// failureReason picks the most specific explanation, in fixed precedence:
// missing MX, then catch-all, then the SMTP rejection itself.
func failureReason(auth dnscheck.DomainAuth, outcome smtpprobe.Outcome) string {
	switch {
	case !auth.HasMX:
		return reasonNoMX
	case outcome.CatchAll:
		return reasonCatchAll
	case !outcome.RecipientAccepted:
		if outcome.Message != "" {
			return outcome.Message
		}
		return reasonSMTPFailed
	default:
		return reasonCombined
	}
}

func canceledResult(email string) ValidationResult {
	return ValidationResult{
		Email:              email,
		VerificationStatus: StatusNotStarted,
		Reason:             reasonCanceled,
		DomainStatus:       DomainStatus{DMARCStatus: "none"},
	}
}

func dmarcStatus(hasDMARC bool) string {
	if hasDMARC {
		return "pass"
	}
	return "none"
}

// computeStats derives batch statistics by a full scan of the result set.
// Deriving (rather than incrementing during completion) keeps the counts
// correct regardless of the order workers finish in.
func computeStats(results []ValidationResult) ValidationStatistics {
	stats := ValidationStatistics{Total: len(results)}

	domains := make(map[string]struct{})
	verifiedDomains := make(map[string]struct{})
	for _, r := range results {
		switch {
		case r.IsValid:
			stats.Verified++
		case r.VerificationStatus == StatusPending:
			stats.Pending++
		default:
			stats.Failed++
		}
		if r.DomainStatus.HasDKIM {
			stats.DKIM.Enabled++
		}

		addr, err := validate.ParseAddress(r.Email)
		if err != nil {
			continue
		}
		domains[addr.Domain] = struct{}{}
		if r.DomainStatus.Verified {
			verifiedDomains[addr.Domain] = struct{}{}
		}
	}

	stats.Domains.Total = len(domains)
	stats.Domains.Verified = len(verifiedDomains)
	return stats
}
