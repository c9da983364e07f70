package ses

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	identities map[string]*sesv2.GetEmailIdentityOutput
	err        error
	calls      []string
}

func (f *fakeAPI) GetEmailIdentity(ctx context.Context, params *sesv2.GetEmailIdentityInput, optFns ...func(*sesv2.Options)) (*sesv2.GetEmailIdentityOutput, error) {
	f.calls = append(f.calls, *params.EmailIdentity)
	if f.err != nil {
		return nil, f.err
	}
	out, ok := f.identities[*params.EmailIdentity]
	if !ok {
		return nil, &types.NotFoundException{}
	}
	return out, nil
}

func TestVerifyKnownIdentity(t *testing.T) {
	api := &fakeAPI{identities: map[string]*sesv2.GetEmailIdentityOutput{
		"example.com": {
			VerifiedForSendingStatus: true,
			DkimAttributes:           &types.DkimAttributes{Status: types.DkimStatusSuccess},
		},
	}}

	attrs, err := NewProviderFromAPI(api).Verify(context.Background(), "example.com")
	require.NoError(t, err)
	assert.True(t, attrs.Verified)
	assert.True(t, attrs.DKIMEnabled)
	assert.Equal(t, []string{"example.com"}, api.calls)
}

func TestVerifyDKIMPendingIsNotEnabled(t *testing.T) {
	api := &fakeAPI{identities: map[string]*sesv2.GetEmailIdentityOutput{
		"example.com": {
			VerifiedForSendingStatus: true,
			DkimAttributes:           &types.DkimAttributes{Status: types.DkimStatusPending},
		},
	}}

	attrs, err := NewProviderFromAPI(api).Verify(context.Background(), "example.com")
	require.NoError(t, err)
	assert.True(t, attrs.Verified)
	assert.False(t, attrs.DKIMEnabled)
}

func TestVerifyUnknownIdentity(t *testing.T) {
	api := &fakeAPI{}

	attrs, err := NewProviderFromAPI(api).Verify(context.Background(), "stranger.com")
	require.NoError(t, err, "an unregistered domain is not an error")
	assert.False(t, attrs.Verified)
	assert.False(t, attrs.DKIMEnabled)
}

func TestVerifyAPIError(t *testing.T) {
	api := &fakeAPI{err: errors.New("throttled")}

	_, err := NewProviderFromAPI(api).Verify(context.Background(), "example.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "example.com")
}
