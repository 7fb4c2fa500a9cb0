package secretsmanagerkey

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

type fakeSecrets struct {
	calls  int
	secret *string
	err    error
}

func (f *fakeSecrets) GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
	f.calls++

	if f.err != nil {
		return nil, f.err
	}

	out := &secretsmanager.GetSecretValueOutput{
		Name:         params.SecretId,
		SecretString: f.secret,
	}

	return out, nil
}

func TestResolverAPIKey(t *testing.T) {
	client := &fakeSecrets{secret: aws.String("abc123")}

	r, err := New(client, Options{SecretID: "steam"})
	if err != nil {
		t.Fatalf("new resolver: %s", err)
	}

	for i := 0; i < 2; i++ {
		key, err := r.APIKey(context.Background())
		if err != nil {
			t.Fatalf("api key: %s", err)
		}

		if key != "abc123" {
			t.Fatalf("expected abc123, got %q", key)
		}
	}

	if client.calls != 2 {
		t.Fatalf("expected a fetch per call without ttl, got %d", client.calls)
	}
}

func TestResolverCache(t *testing.T) {
	client := &fakeSecrets{secret: aws.String("abc123")}

	r, err := New(client, Options{SecretID: "steam", TTL: time.Hour})
	if err != nil {
		t.Fatalf("new resolver: %s", err)
	}

	now := time.Unix(1700000000, 0)
	r.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		if _, err := r.APIKey(context.Background()); err != nil {
			t.Fatalf("api key: %s", err)
		}
	}

	if client.calls != 1 {
		t.Fatalf("expected one fetch, got %d", client.calls)
	}

	now = now.Add(2 * time.Hour)

	if _, err := r.APIKey(context.Background()); err != nil {
		t.Fatalf("api key: %s", err)
	}

	if client.calls != 2 {
		t.Fatalf("expected refresh after ttl, got %d fetches", client.calls)
	}
}

func TestResolverError(t *testing.T) {
	denied := errors.New("AccessDeniedException")
	client := &fakeSecrets{err: denied}

	r, err := New(client, Options{SecretID: "steam", TTL: time.Hour})
	if err != nil {
		t.Fatalf("new resolver: %s", err)
	}

	if _, err := r.APIKey(context.Background()); !errors.Is(err, denied) {
		t.Fatalf("expected wrapped access denied, got %v", err)
	}
}

func TestResolverEmptySecret(t *testing.T) {
	r, err := New(&fakeSecrets{}, Options{SecretID: "steam"})
	if err != nil {
		t.Fatalf("new resolver: %s", err)
	}

	if _, err := r.APIKey(context.Background()); err == nil {
		t.Fatalf("expected error for binary-only secret")
	}
}

func TestResolverField(t *testing.T) {
	client := &fakeSecrets{secret: aws.String(`{"STEAM_API_KEY":"from-json","OTHER":"x"}`)}

	r, err := New(client, Options{SecretID: "steam", Field: "STEAM_API_KEY"})
	if err != nil {
		t.Fatalf("new resolver: %s", err)
	}

	key, err := r.APIKey(context.Background())
	if err != nil {
		t.Fatalf("api key: %s", err)
	}

	if key != "from-json" {
		t.Fatalf("expected from-json, got %q", key)
	}

	r.opts.Field = "MISSING"

	if _, err := r.APIKey(context.Background()); err == nil {
		t.Fatalf("expected error for missing field")
	}
}

func TestNewRequiresSecretID(t *testing.T) {
	if _, err := New(&fakeSecrets{}, Options{}); err == nil {
		t.Fatalf("expected error")
	}
}
