package paramstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

// ssmAPI is satisfied by *ssm.Client.
type ssmAPI interface {
	GetParameter(ctx context.Context, in *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

type Getter interface {
	GetParameter(ctx context.Context, name string) (string, error)
}

type Client struct {
	api ssmAPI
}

func New(api ssmAPI) (*Client, error) {
	if api == nil {
		return nil, errors.New("paramstore: api must not be nil")
	}
	return &Client{api: api}, nil
}

// GetParameter reads a parameter, decrypting SecureStrings.
func (c *Client) GetParameter(ctx context.Context, name string) (string, error) {
	if c == nil || c.api == nil {
		return "", errors.New("paramstore: client not initialized")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errors.New("paramstore: name is required")
	}

	out, err := c.api.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(name),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return "", fmt.Errorf("paramstore: get parameter %q: %w", name, err)
	}
	if out == nil || out.Parameter == nil || out.Parameter.Value == nil {
		return "", fmt.Errorf("paramstore: parameter %q missing value", name)
	}
	return strings.TrimSpace(*out.Parameter.Value), nil
}

// ResolveSecret returns the parameter value when param is set, otherwise
// fallback. An empty parameter value is an error.
func ResolveSecret(ctx context.Context, g Getter, param, fallback string) (string, error) {
	if strings.TrimSpace(param) == "" {
		return fallback, nil
	}
	if g == nil {
		return "", errors.New("paramstore: parameter requested but no client configured")
	}
	v, err := g.GetParameter(ctx, param)
	if err != nil {
		return "", err
	}
	if v == "" {
		return "", fmt.Errorf("paramstore: parameter %q is empty", param)
	}
	return v, nil
}
