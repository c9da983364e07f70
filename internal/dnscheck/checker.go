// Package dnscheck resolves the DNS authentication posture of a sending
// domain: MX presence, SPF, DMARC, and published DKIM keys. Results are
// cached per domain so large batches pay for one round trip per domain.
package dnscheck

import (
	"context"
	"net"
	"sort"
	"strings"
	"time"

	"github.com/ignite/listcheck/internal/cache"
)

// DefaultLookupTimeout bounds each individual DNS query.
const DefaultLookupTimeout = 5 * time.Second

// DefaultDKIMSelectors are the selector names probed for a published DKIM
// key. Most providers use one of these.
var DefaultDKIMSelectors = []string{"default", "google", "selector1", "selector2", "k1", "mail", "dkim", "smtp"}

// Resolver is the subset of *net.Resolver used by the checker. It is also
// satisfied by mockdns.Resolver in tests.
type Resolver interface {
	LookupMX(ctx context.Context, name string) ([]*net.MX, error)
	LookupTXT(ctx context.Context, name string) ([]string, error)
}

// DomainAuth is a per-domain DNS authentication snapshot. MXHosts carries
// the mail exchangers in ascending priority order for the SMTP prober, so
// probing never repeats the lookup.
type DomainAuth struct {
	HasMX    bool
	HasSPF   bool
	HasDMARC bool
	HasDKIM  bool
	MXHosts  []string
}

// Checker looks up DomainAuth records through a Resolver, backed by a cache.
type Checker struct {
	resolver  Resolver
	cache     *cache.Cache[DomainAuth]
	timeout   time.Duration
	selectors []string
}

// NewChecker creates a Checker. A nil store disables caching; a nil resolver
// uses the system resolver.
func NewChecker(resolver Resolver, store *cache.Cache[DomainAuth], timeout time.Duration) *Checker {
	if resolver == nil {
		resolver = net.DefaultResolver
	}
	if timeout <= 0 {
		timeout = DefaultLookupTimeout
	}
	return &Checker{
		resolver:  resolver,
		cache:     store,
		timeout:   timeout,
		selectors: DefaultDKIMSelectors,
	}
}

// SetDKIMSelectors overrides the probed DKIM selector names. An empty list
// disables DKIM probing.
func (c *Checker) SetDKIMSelectors(selectors []string) {
	c.selectors = selectors
}

// Check resolves the authentication snapshot for domain. DNS failures never
// surface as errors: a domain whose top-level MX or TXT lookup fails is
// reported with the zero snapshot so bulk jobs keep progressing. Only
// successful resolutions are cached.
func (c *Checker) Check(ctx context.Context, domain string) DomainAuth {
	if c.cache != nil {
		if auth, ok := c.cache.Get(domain); ok {
			return auth
		}
	}

	mx, mxErr := c.lookupMX(ctx, domain)
	txt, txtErr := c.lookupTXT(ctx, domain)
	if mxErr != nil || txtErr != nil {
		return DomainAuth{}
	}

	auth := DomainAuth{
		HasMX:   len(mx) > 0,
		MXHosts: sortedHosts(mx),
	}
	for _, record := range txt {
		if strings.HasPrefix(record, "v=spf1") {
			auth.HasSPF = true
			break
		}
	}

	// Most domains have no _dmarc record; NXDOMAIN here is an answer, not
	// an error.
	if dmarc, err := c.lookupTXT(ctx, "_dmarc."+domain); err == nil {
		for _, record := range dmarc {
			if strings.HasPrefix(record, "v=DMARC1") {
				auth.HasDMARC = true
				break
			}
		}
	}

	auth.HasDKIM = c.probeDKIM(ctx, domain)

	if c.cache != nil {
		c.cache.Set(domain, auth)
	}
	return auth
}

// probeDKIM checks well-known selector names for a published DKIM key.
func (c *Checker) probeDKIM(ctx context.Context, domain string) bool {
	for _, selector := range c.selectors {
		records, err := c.lookupTXT(ctx, selector+"._domainkey."+domain)
		if err != nil {
			continue
		}
		for _, record := range records {
			if strings.Contains(record, "v=DKIM1") || strings.Contains(record, "k=rsa") {
				return true
			}
		}
	}
	return false
}

func (c *Checker) lookupMX(ctx context.Context, name string) ([]*net.MX, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	return c.resolver.LookupMX(ctx, name)
}

func (c *Checker) lookupTXT(ctx context.Context, name string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	return c.resolver.LookupTXT(ctx, name)
}

// sortedHosts orders MX hosts by ascending priority value, preserving the
// resolver's order for equal priorities, and strips trailing dots.
func sortedHosts(records []*net.MX) []string {
	sorted := make([]*net.MX, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Pref < sorted[j].Pref
	})

	hosts := make([]string, 0, len(sorted))
	for _, mx := range sorted {
		hosts = append(hosts, strings.TrimSuffix(mx.Host, "."))
	}
	return hosts
}
