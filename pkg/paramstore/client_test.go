package paramstore

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	getOut  *ssm.GetParameterOutput
	getErr  error
	lastIn  *ssm.GetParameterInput
}

func (f *fakeAPI) GetParameter(_ context.Context, in *ssm.GetParameterInput, _ ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
	f.lastIn = in
	return f.getOut, f.getErr
}

func TestGetParameter_DecryptsAndTrims(t *testing.T) {
	api := &fakeAPI{getOut: &ssm.GetParameterOutput{Parameter: &types.Parameter{
		Name: aws.String("/arthik/openai_key"), Value: aws.String(" sk-test\n"), Type: types.ParameterTypeSecureString,
	}}}
	client, err := New(api)
	require.NoError(t, err)

	v, err := client.GetParameter(context.Background(), "/arthik/openai_key")
	require.NoError(t, err)
	require.Equal(t, "sk-test", v)
	require.True(t, aws.ToBool(api.lastIn.WithDecryption))
}

func TestGetParameter_MissingValue(t *testing.T) {
	api := &fakeAPI{getOut: &ssm.GetParameterOutput{Parameter: &types.Parameter{Name: aws.String("p")}}}
	client, err := New(api)
	require.NoError(t, err)

	_, err = client.GetParameter(context.Background(), "p")
	require.ErrorContains(t, err, "missing value")
}

func TestGetParameter_ApiError(t *testing.T) {
	client, err := New(&fakeAPI{getErr: errors.New("boom")})
	require.NoError(t, err)

	_, err = client.GetParameter(context.Background(), "p")
	require.ErrorContains(t, err, "boom")
}

func TestGetParameter_Guards(t *testing.T) {
	_, err := New(nil)
	require.ErrorContains(t, err, "must not be nil")

	_, err = (&Client{}).GetParameter(context.Background(), "p")
	require.ErrorContains(t, err, "not initialized")

	client, _ := New(&fakeAPI{})
	_, err = client.GetParameter(context.Background(), "  ")
	require.ErrorContains(t, err, "required")
}

type staticGetter map[string]string

func (s staticGetter) GetParameter(_ context.Context, name string) (string, error) {
	v, ok := s[name]
	if !ok {
		return "", errors.New("not found")
	}
	return v, nil
}

func TestResolveSecret(t *testing.T) {
	ctx := context.Background()

	v, err := ResolveSecret(ctx, nil, "", "env-key")
	require.NoError(t, err)
	require.Equal(t, "env-key", v)

	v, err = ResolveSecret(ctx, staticGetter{"/k": "ssm-key"}, "/k", "env-key")
	require.NoError(t, err)
	require.Equal(t, "ssm-key", v)

	_, err = ResolveSecret(ctx, staticGetter{"/k": ""}, "/k", "env-key")
	require.ErrorContains(t, err, "empty")

	_, err = ResolveSecret(ctx, nil, "/k", "env-key")
	require.Error(t, err)
}
