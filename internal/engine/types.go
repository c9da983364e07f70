package engine

// Status is the per-address verification lifecycle state. Completed results
// are Success or Failed; Pending and NotStarted exist for results that have
// not finished the pipeline.
type Status string

const (
	StatusSuccess    Status = "Success"
	StatusFailed     Status = "Failed"
	StatusPending    Status = "Pending"
	StatusNotStarted Status = "NotStarted"
)

// DomainStatus is the authentication snapshot attached to each result.
// Verified reflects the optional SES identity check and stays false when
// that provider is not configured.
type DomainStatus struct {
	Verified     bool   `json:"verified"`
	HasMXRecords bool   `json:"has_mx_records"`
	HasDKIM      bool   `json:"has_dkim"`
	HasSPF       bool   `json:"has_spf"`
	DMARCStatus  string `json:"dmarc_status"` // "pass" or "none"
}

// SMTPOutcome is the recipient-probe portion of a result. Code and
// IsCatchAll are pointers so "not reached" and "tested, negative" stay
// distinguishable in the serialized output.
type SMTPOutcome struct {
	ConnectionSuccess bool   `json:"connection_success"`
	RecipientAccepted bool   `json:"recipient_accepted"`
	Code              *int   `json:"smtp_code,omitempty"`
	Message           string `json:"smtp_message,omitempty"`
	IsCatchAll        *bool  `json:"is_catch_all,omitempty"`
}

// ValidationResult is the unit returned to the caller for each input
// address. SMTP is nil when the pipeline never attempted a probe (bad
// format, no MX records).
type ValidationResult struct {
	Email              string       `json:"email"`
	IsValid            bool         `json:"is_valid"`
	VerificationStatus Status       `json:"verification_status"`
	Reason             string       `json:"reason,omitempty"`
	DomainStatus       DomainStatus `json:"domain_status"`
	SMTP               *SMTPOutcome `json:"smtp,omitempty"`
}

// DomainCounts aggregates per-domain figures inside ValidationStatistics.
type DomainCounts struct {
	Total    int `json:"total"`
	Verified int `json:"verified"`
}

// DKIMCounts aggregates DKIM figures inside ValidationStatistics.
type DKIMCounts struct {
	Enabled int `json:"enabled"`
}

// Deliverability carries the predictor's summary attached to a batch.
type Deliverability struct {
	Score               float64  `json:"score"`
	PredictedBounceRate float64  `json:"predictedBounceRate"`
	Recommendations     []string `json:"recommendations"`
}

// ValidationStatistics is recomputed from the full result set after a batch
// completes; it is never accumulated incrementally.
type ValidationStatistics struct {
	Total          int             `json:"total"`
	Verified       int             `json:"verified"`
	Failed         int             `json:"failed"`
	Pending        int             `json:"pending"`
	Domains        DomainCounts    `json:"domains"`
	DKIM           DKIMCounts      `json:"dkim"`
	Deliverability *Deliverability `json:"deliverability,omitempty"`
}

// BulkValidationResult is the engine's output: one result per input address
// in input order, plus derived statistics.
type BulkValidationResult struct {
	Results []ValidationResult   `json:"results"`
	Stats   ValidationStatistics `json:"stats"`
}

// BounceFactors are the component scores feeding the bounce prediction.
type BounceFactors struct {
	DomainReputation      float64 `json:"domainReputation"`
	ListQuality           float64 `json:"listQuality"`
	AuthenticationStatus  float64 `json:"authenticationStatus"`
	HistoricalPerformance float64 `json:"historicalPerformance"`
}

// BounceRateMetrics is the predictor's full output.
type BounceRateMetrics struct {
	PredictedRate   float64       `json:"predictedRate"`
	Confidence      float64       `json:"confidence"`
	Factors         BounceFactors `json:"factors"`
	Recommendations []string      `json:"recommendations"`
}
