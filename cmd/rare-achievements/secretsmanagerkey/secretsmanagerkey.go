package secretsmanagerkey

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	lru "github.com/hashicorp/golang-lru"
)

const (
	DefaultTTL = time.Hour

	cacheSize = 16
)

type SecretsClient interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

type Options struct {
	SecretID string
	// Field selects one key of a JSON key/value secret. Empty uses the whole
	// secret string as the API key.
	Field string
	// TTL bounds how long a fetched secret is reused. Zero or less fetches on
	// every call.
	TTL time.Duration
}

type cachedSecret struct {
	value     string
	timestamp time.Time
}

type Resolver struct {
	client SecretsClient
	opts   Options
	cache  *lru.Cache
	now    func() time.Time
}

func New(client SecretsClient, opts Options) (*Resolver, error) {
	if opts.SecretID == "" {
		return nil, fmt.Errorf("secret ID must be set")
	}

	cache, err := lru.New(cacheSize)
	if err != nil {
		return nil, fmt.Errorf("new cache: %w", err)
	}

	r := &Resolver{
		client: client,
		opts:   opts,
		cache:  cache,
		now:    time.Now,
	}

	return r, nil
}

// NewFromConfig builds a Secrets Manager client from the default AWS
// credential chain. A non-empty endpoint overrides the service endpoint.
func NewFromConfig(ctx context.Context, region, endpoint string, opts Options) (*Resolver, error) {
	if region == "" {
		return nil, fmt.Errorf("region must be set")
	}

	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := secretsmanager.NewFromConfig(cfg, func(o *secretsmanager.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})

	return New(client, opts)
}

func (r *Resolver) APIKey(ctx context.Context) (string, error) {
	if r.opts.TTL > 0 {
		if v, ok := r.cache.Get(r.opts.SecretID); ok {
			cached := v.(cachedSecret)
			if r.now().Sub(cached.timestamp) < r.opts.TTL {
				return cached.value, nil
			}
		}
	}

	out, err := r.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(r.opts.SecretID),
	})
	if err != nil {
		return "", fmt.Errorf("get secret value %s: %w", r.opts.SecretID, err)
	}

	secret := aws.ToString(out.SecretString)
	if secret == "" {
		return "", fmt.Errorf("secret %s has no string value", r.opts.SecretID)
	}

	key, err := r.extract(secret)
	if err != nil {
		return "", err
	}

	if r.opts.TTL > 0 {
		r.cache.Add(r.opts.SecretID, cachedSecret{
			value:     key,
			timestamp: r.now(),
		})
	}

	return key, nil
}

func (r *Resolver) extract(secret string) (string, error) {
	if r.opts.Field == "" {
		return secret, nil
	}

	var fields map[string]string

	if err := json.Unmarshal([]byte(secret), &fields); err != nil {
		return "", fmt.Errorf("unmarshal secret %s: %w", r.opts.SecretID, err)
	}

	key, ok := fields[r.opts.Field]
	if !ok || key == "" {
		return "", fmt.Errorf("secret %s has no field %s", r.opts.SecretID, r.opts.Field)
	}

	return key, nil
}
