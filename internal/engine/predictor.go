package engine

import (
	"math"

	"github.com/ignite/listcheck/internal/validate"
)

// historicalPerformance stands in for a real historical bounce signal,
// which this engine does not have access to.
const historicalPerformance = 95.0

// PredictBounceRate estimates the bounce rate a sender would see mailing
// the validated list. It is a pure function over a completed result set and
// is deterministic for a fixed input.
//
// Composite score = domainScore*0.3 + listQuality*0.4 + authScore*0.2 +
// historical*0.1; the predicted rate is its inverse, clamped to [0, 100].
func PredictBounceRate(results []ValidationResult) BounceRateMetrics {
	if len(results) == 0 {
		return BounceRateMetrics{Factors: BounceFactors{
			DomainReputation:      100,
			ListQuality:           100,
			AuthenticationStatus:  100,
			HistoricalPerformance: historicalPerformance,
		}}
	}

	domainScore := calculateDomainScore(results)
	authScore := calculateAuthScore(results)

	valid := 0
	for _, r := range results {
		if r.IsValid {
			valid++
		}
	}
	listQuality := float64(valid) / float64(len(results)) * 100

	composite := domainScore*0.3 + listQuality*0.4 + authScore*0.2 + historicalPerformance*0.1
	predictedRate := math.Max(0, math.Min(100-composite, 100))
	confidence := math.Min(float64(len(results))/1000*100, 100)

	return BounceRateMetrics{
		PredictedRate: round2(predictedRate),
		Confidence:    round2(confidence),
		Factors: BounceFactors{
			DomainReputation:      round2(domainScore),
			ListQuality:           round2(listQuality),
			AuthenticationStatus:  round2(authScore),
			HistoricalPerformance: historicalPerformance,
		},
		Recommendations: recommendations(domainScore, authScore, listQuality),
	}
}

// calculateDomainScore averages per-domain validity ratios: a domain where
// 3 of 4 addresses validated contributes 75.
func calculateDomainScore(results []ValidationResult) float64 {
	type tally struct{ total, valid int }
	domains := make(map[string]*tally)

	for _, r := range results {
		domain := resultDomain(r)
		t, ok := domains[domain]
		if !ok {
			t = &tally{}
			domains[domain] = t
		}
		t.total++
		if r.IsValid {
			t.valid++
		}
	}

	if len(domains) == 0 {
		return 100
	}
	total := 0.0
	for _, t := range domains {
		total += float64(t.valid) / float64(t.total) * 100
	}
	return total / float64(len(domains))
}

// calculateAuthScore is the percentage of unique domains with at least one
// authentication mechanism configured. DKIM, SPF, and DMARC are weighted
// 33.33/33.33/33.34 internally, but any positive composite counts the
// domain as authenticated.
func calculateAuthScore(results []ValidationResult) float64 {
	authenticated := make(map[string]bool)

	for _, r := range results {
		domain := resultDomain(r)
		if _, seen := authenticated[domain]; seen {
			continue
		}
		score := 0.0
		if r.DomainStatus.HasDKIM {
			score += 33.33
		}
		if r.DomainStatus.HasSPF {
			score += 33.33
		}
		if r.DomainStatus.DMARCStatus == "pass" {
			score += 33.34
		}
		authenticated[domain] = score > 0
	}

	if len(authenticated) == 0 {
		return 100
	}
	count := 0
	for _, ok := range authenticated {
		if ok {
			count++
		}
	}
	return float64(count) / float64(len(authenticated)) * 100
}

func recommendations(domainScore, authScore, listQuality float64) []string {
	var recs []string
	if domainScore < 90 {
		recs = append(recs,
			"Verify sender domain reputation",
			"Implement domain warming practices")
	}
	if authScore < 100 {
		recs = append(recs,
			"Configure DKIM for all sending domains",
			"Set up SPF records",
			"Implement DMARC policy")
	}
	if listQuality < 90 {
		recs = append(recs,
			"Clean email list regularly",
			"Implement double opt-in",
			"Remove inactive subscribers",
			"Validate emails before sending")
	}
	return recs
}

// resultDomain groups malformed addresses under their raw string so they
// still weigh the score down instead of being skipped.
func resultDomain(r ValidationResult) string {
	if addr, err := validate.ParseAddress(r.Email); err == nil {
		return addr.Domain
	}
	return r.Email
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
