// Package api is the client for the repository service the loader writes
// to.
//
// It includes a JSON HTTP client with session-token authentication and
// optional AWS SigV4 signing, plus helpers that resolve the repository
// password from AWS SSM Parameter Store or a KMS-encrypted blob.
package api

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/kms"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

// DefaultRegion is the default AWS region.
const DefaultRegion = "us-east-1"

// Credentials holds optional static AWS credentials. When both keys are
// empty the default AWS credential chain is used.
type Credentials struct {
	AWSAccessKeyID     string
	AWSSecretAccessKey string
}

// PasswordSource lists where the repository password may come from. The
// first non-empty source wins: Plain, then SSMParameter, then Ciphertext.
type PasswordSource struct {
	Plain string

	// SSMParameter is a SecureString parameter name, e.g. /loader/production/password.
	SSMParameter string

	// Ciphertext is a base64 KMS ciphertext blob.
	Ciphertext string
}

// NeedsAWS reports whether resolving the password requires AWS calls.
func (s PasswordSource) NeedsAWS() bool {
	return s.Plain == "" && (s.SSMParameter != "" || s.Ciphertext != "")
}

// ErrNoPassword is returned when no password source is configured.
var ErrNoPassword = errors.New("no repository password configured")

// NewAWSConfig creates an AWS config, with static credentials when given.
func NewAWSConfig(ctx context.Context, creds Credentials, region string) (aws.Config, error) {
	if region == "" {
		region = DefaultRegion
	}

	opts := []func(*config.LoadOptions) error{config.WithRegion(region)}

	if creds.AWSAccessKeyID != "" || creds.AWSSecretAccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			creds.AWSAccessKeyID,
			creds.AWSSecretAccessKey,
			"",
		)))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return awsCfg, nil
}

// ValidateCredentials checks the AWS credentials with STS and returns the
// caller ARN.
func ValidateCredentials(ctx context.Context, awsCfg aws.Config) (string, error) {
	stsClient := sts.NewFromConfig(awsCfg)

	out, err := stsClient.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return "", fmt.Errorf("invalid AWS credentials: %w", err)
	}

	return aws.ToString(out.Arn), nil
}

// ResolvePassword returns the repository password from the first configured
// source.
func ResolvePassword(ctx context.Context, awsCfg aws.Config, src PasswordSource) (string, error) {
	switch {
	case src.Plain != "":
		return src.Plain, nil

	case src.SSMParameter != "":
		ssmClient := ssm.NewFromConfig(awsCfg)

		resp, err := ssmClient.GetParameter(ctx, &ssm.GetParameterInput{
			Name:           aws.String(src.SSMParameter),
			WithDecryption: aws.Bool(true),
		})
		if err != nil {
			return "", fmt.Errorf("failed to get password from SSM: %w", err)
		}

		return aws.ToString(resp.Parameter.Value), nil

	case src.Ciphertext != "":
		blob, err := base64.StdEncoding.DecodeString(src.Ciphertext)
		if err != nil {
			return "", fmt.Errorf("password ciphertext is not base64: %w", err)
		}

		kmsClient := kms.NewFromConfig(awsCfg)

		out, err := kmsClient.Decrypt(ctx, &kms.DecryptInput{CiphertextBlob: blob})
		if err != nil {
			return "", fmt.Errorf("KMS decryption failed: %w", err)
		}

		return string(out.Plaintext), nil
	}

	return "", ErrNoPassword
}
