// Package ses looks up sending-identity attributes in AWS SES v2. It is an
// optional enrichment source: domains registered as verified identities get
// flagged as such in validation results, everything else degrades to "not
// verified" without failing the batch.
package ses

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	appconfig "github.com/ignite/listcheck/internal/config"
	"github.com/ignite/listcheck/internal/engine"
)

// API is the slice of the SES v2 client the provider uses.
type API interface {
	GetEmailIdentity(ctx context.Context, params *sesv2.GetEmailIdentityInput, optFns ...func(*sesv2.Options)) (*sesv2.GetEmailIdentityOutput, error)
}

// Provider resolves domain identity attributes through SES. It implements
// engine.IdentityProvider.
type Provider struct {
	api    API
	region string
}

// NewProvider creates a provider with static credentials from config.
func NewProvider(ctx context.Context, cfg appconfig.SESConfig) (*Provider, error) {
	creds := credentials.NewStaticCredentialsProvider(
		cfg.AccessKey,
		cfg.SecretKey,
		"", // session token (empty for static creds)
	)

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(creds),
	)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	return &Provider{
		api:    sesv2.NewFromConfig(awsCfg),
		region: cfg.Region,
	}, nil
}

// NewProviderFromAPI wraps an existing SES client. Tests use it to inject
// a fake.
func NewProviderFromAPI(api API) *Provider {
	return &Provider{api: api}
}

// Verify fetches the identity attributes for a domain. A domain that is not
// registered as an SES identity is not an error; it simply carries no
// attributes.
func (p *Provider) Verify(ctx context.Context, domain string) (engine.IdentityAttributes, error) {
	out, err := p.api.GetEmailIdentity(ctx, &sesv2.GetEmailIdentityInput{
		EmailIdentity: aws.String(domain),
	})
	if err != nil {
		var notFound *types.NotFoundException
		if errors.As(err, &notFound) {
			return engine.IdentityAttributes{}, nil
		}
		return engine.IdentityAttributes{}, fmt.Errorf("getting identity for %s: %w", domain, err)
	}

	attrs := engine.IdentityAttributes{
		Verified: out.VerifiedForSendingStatus,
	}
	if out.DkimAttributes != nil && out.DkimAttributes.Status == types.DkimStatusSuccess {
		attrs.DKIMEnabled = true
	}
	return attrs, nil
}
