package api

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
)

func TestResolvePasswordPlain(t *testing.T) {
	got, err := ResolvePassword(context.Background(), aws.Config{}, PasswordSource{
		Plain:        "secret",
		SSMParameter: "/ignored",
	})
	if err != nil {
		t.Fatalf("ResolvePassword() error = %v", err)
	}
	if got != "secret" {
		t.Errorf("ResolvePassword() = %q, want %q", got, "secret")
	}
}

func TestResolvePasswordNoSource(t *testing.T) {
	_, err := ResolvePassword(context.Background(), aws.Config{}, PasswordSource{})
	if !errors.Is(err, ErrNoPassword) {
		t.Fatalf("expected ErrNoPassword, got %v", err)
	}
}

func TestResolvePasswordBadCiphertext(t *testing.T) {
	_, err := ResolvePassword(context.Background(), aws.Config{}, PasswordSource{Ciphertext: "%%%"})
	if err == nil {
		t.Fatal("expected error for non-base64 ciphertext")
	}
}

func TestPasswordSourceNeedsAWS(t *testing.T) {
	tests := []struct {
		name string
		src  PasswordSource
		want bool
	}{
		{"plain", PasswordSource{Plain: "x"}, false},
		{"plain wins over ssm", PasswordSource{Plain: "x", SSMParameter: "/p"}, false},
		{"ssm", PasswordSource{SSMParameter: "/p"}, true},
		{"kms", PasswordSource{Ciphertext: "AAAA"}, true},
		{"none", PasswordSource{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.src.NeedsAWS(); got != tt.want {
				t.Errorf("NeedsAWS() = %v, want %v", got, tt.want)
			}
		})
	}
}
