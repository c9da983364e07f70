package engine

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func result(email string, valid bool, dkim, spf bool, dmarc string) ValidationResult {
	status := StatusSuccess
	if !valid {
		status = StatusFailed
	}
	return ValidationResult{
		Email:              email,
		IsValid:            valid,
		VerificationStatus: status,
		DomainStatus: DomainStatus{
			HasMXRecords: true,
			HasDKIM:      dkim,
			HasSPF:       spf,
			DMARCStatus:  dmarc,
		},
	}
}

func TestPredictBounceRateDeterministic(t *testing.T) {
	// Ten addresses on ten domains, nine valid, every domain with DKIM and
	// SPF. The composite works out to 92.5, so the predicted rate is 7.5.
	results := make([]ValidationResult, 10)
	for i := range results {
		email := fmt.Sprintf("user@domain%d.com", i)
		results[i] = result(email, i != 0, true, true, "none")
	}

	m := PredictBounceRate(results)
	assert.Equal(t, 7.5, m.PredictedRate)
	assert.Equal(t, 1.0, m.Confidence)
	assert.Equal(t, 90.0, m.Factors.DomainReputation)
	assert.Equal(t, 90.0, m.Factors.ListQuality)
	assert.Equal(t, 100.0, m.Factors.AuthenticationStatus)
	assert.Equal(t, 95.0, m.Factors.HistoricalPerformance)
	assert.Empty(t, m.Recommendations, "no threshold is crossed at these scores")

	again := PredictBounceRate(results)
	assert.Equal(t, m, again, "identical input must give identical output")
}

func TestPredictBounceRateEmptyInput(t *testing.T) {
	m := PredictBounceRate(nil)
	assert.Equal(t, 0.0, m.PredictedRate)
	assert.Equal(t, 0.0, m.Confidence)
	assert.Equal(t, 100.0, m.Factors.DomainReputation)
	assert.Equal(t, 100.0, m.Factors.ListQuality)
	assert.Equal(t, 100.0, m.Factors.AuthenticationStatus)
	assert.Empty(t, m.Recommendations)
}

func TestPredictBounceRateWorstCase(t *testing.T) {
	results := []ValidationResult{
		result("a@dead.com", false, false, false, "none"),
		result("b@dead.com", false, false, false, "none"),
	}

	m := PredictBounceRate(results)
	// Only the historical constant contributes: composite 9.5, rate 90.5.
	assert.Equal(t, 90.5, m.PredictedRate)
	assert.Equal(t, 0.0, m.Factors.DomainReputation)
	assert.Equal(t, 0.0, m.Factors.ListQuality)
	assert.Equal(t, 0.0, m.Factors.AuthenticationStatus)

	assert.Contains(t, m.Recommendations, "Verify sender domain reputation")
	assert.Contains(t, m.Recommendations, "Configure DKIM for all sending domains")
	assert.Contains(t, m.Recommendations, "Clean email list regularly")
	assert.Len(t, m.Recommendations, 9)
}

func TestPredictBounceRateDomainScoreAveragesPerDomain(t *testing.T) {
	// 3 of 4 valid on one domain and 1 of 1 on another: the per-domain
	// ratios 75 and 100 average to 87.5 regardless of list size skew.
	results := []ValidationResult{
		result("a@big.com", true, true, true, "pass"),
		result("b@big.com", true, true, true, "pass"),
		result("c@big.com", true, true, true, "pass"),
		result("d@big.com", false, true, true, "pass"),
		result("a@small.com", true, true, true, "pass"),
	}

	m := PredictBounceRate(results)
	assert.Equal(t, 87.5, m.Factors.DomainReputation)
	assert.Contains(t, m.Recommendations, "Implement domain warming practices")
}

func TestPredictBounceRateAuthScoreAnySignalCounts(t *testing.T) {
	// SPF alone is enough to count a domain as authenticated; a domain
	// with nothing configured drags the percentage down.
	results := []ValidationResult{
		result("a@spfonly.com", true, false, true, "none"),
		result("b@bare.com", true, false, false, "none"),
	}

	m := PredictBounceRate(results)
	assert.Equal(t, 50.0, m.Factors.AuthenticationStatus)
	assert.Contains(t, m.Recommendations, "Set up SPF records")
}

func TestPredictBounceRateMalformedAddressesWeighIn(t *testing.T) {
	// A malformed address forms its own invalid "domain" instead of being
	// dropped from the score.
	results := []ValidationResult{
		result("good@example.com", true, true, true, "pass"),
		{Email: "not-an-email", VerificationStatus: StatusFailed, Reason: "Invalid email format"},
	}

	m := PredictBounceRate(results)
	assert.Equal(t, 50.0, m.Factors.DomainReputation)
	assert.Equal(t, 50.0, m.Factors.ListQuality)
}

func TestPredictBounceRateConfidenceCapsAt100(t *testing.T) {
	results := make([]ValidationResult, 1500)
	for i := range results {
		results[i] = result(fmt.Sprintf("u%d@example.com", i), true, true, true, "pass")
	}

	m := PredictBounceRate(results)
	assert.Equal(t, 100.0, m.Confidence)
}
