package stripe

import (
	"context"
	"testing"

	"github.com/angelmondragon/storefront-backend/pkg/config"
)

func TestNewClientValidatesKeyForEnvironment(t *testing.T) {
	ctx := context.Background()

	if _, err := NewClient(ctx, config.StripeConfig{Env: "test"}, nil); err == nil {
		t.Fatal("expected missing api key to fail")
	}
	if _, err := NewClient(ctx, config.StripeConfig{Env: "test", APIKey: "sk_live_123"}, nil); err == nil {
		t.Fatal("expected live key in test env to fail")
	}
	if _, err := NewClient(ctx, config.StripeConfig{Env: "staging", APIKey: "sk_test_123"}, nil); err == nil {
		t.Fatal("expected unknown env to fail")
	}
}

func TestNewClientExposesSettings(t *testing.T) {
	client, err := NewClient(context.Background(), config.StripeConfig{
		APIKey:         "sk_test_123",
		Secret:         " whsec_abc ",
		PublishableKey: "pk_test_123",
		Currency:       "EUR",
	}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if client.Environment() != "test" {
		t.Fatalf("expected test env, got %q", client.Environment())
	}
	if client.SigningSecret() != "whsec_abc" {
		t.Fatalf("unexpected signing secret %q", client.SigningSecret())
	}
	if client.PublishableKey() != "pk_test_123" || client.Currency() != "eur" {
		t.Fatalf("unexpected settings %+v", client)
	}
}

func TestNilClientAccessors(t *testing.T) {
	var client *Client
	if client.SigningSecret() != "" || client.PublishableKey() != "" || client.Currency() != "usd" {
		t.Fatal("nil client should return zero values")
	}
}
