package workflow

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
)

// AuthMode selects how requests to the workflow endpoint are authorized.
type AuthMode string

// Supported auth modes.
const (
	AuthAPIKey AuthMode = "api_key"
	AuthSigV4  AuthMode = "sigv4"
)

// APIKeyHeader carries the static key in api_key mode.
const APIKeyHeader = "X-API-Key"

// DefaultSigningService is the SigV4 service name used when none is configured.
const DefaultSigningService = "execute-api"

// ParseAuthMode maps a config value onto an AuthMode. Empty selects api_key.
func ParseAuthMode(s string) (AuthMode, error) {
	switch AuthMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", AuthAPIKey:
		return AuthAPIKey, nil
	case AuthSigV4:
		return AuthSigV4, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownAuthMode, s)
}

// SigV4Credentials configures request signing.
type SigV4Credentials struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
	Service         string
}

type authorizer interface {
	authorize(ctx context.Context, req *http.Request, body []byte) error
}

type apiKeyAuth struct {
	key string
}

func (a apiKeyAuth) authorize(_ context.Context, req *http.Request, _ []byte) error {
	req.Header.Set(APIKeyHeader, a.key)
	return nil
}

type sigV4Auth struct {
	creds  SigV4Credentials
	signer *v4.Signer
	now    func() time.Time
}

func newSigV4Auth(c SigV4Credentials, now func() time.Time) (*sigV4Auth, error) {
	if c.Region == "" || c.AccessKeyID == "" || c.SecretAccessKey == "" {
		return nil, fmt.Errorf("%w: sigv4 needs region, access key and secret", ErrInvalidAuth)
	}
	if c.Service == "" {
		c.Service = DefaultSigningService
	}
	return &sigV4Auth{creds: c, signer: v4.NewSigner(), now: now}, nil
}

func (a *sigV4Auth) authorize(ctx context.Context, req *http.Request, body []byte) error {
	sum := sha256.Sum256(body)
	creds := aws.Credentials{
		AccessKeyID:     a.creds.AccessKeyID,
		SecretAccessKey: a.creds.SecretAccessKey,
		SessionToken:    a.creds.SessionToken,
	}
	if err := a.signer.SignHTTP(ctx, creds, req, hex.EncodeToString(sum[:]), a.creds.Service, a.creds.Region, a.now()); err != nil {
		return fmt.Errorf("sign request: %w", err)
	}
	return nil
}
