// Package config holds the loader's settings. Values come from environment
// variables (optionally seeded from a .env file) and are then overridden by
// command line flags.
package config

import (
	"time"

	"github.com/helix-tools/metadata-loader/api"
)

// Config holds all loader configuration.
type Config struct {
	Repository RepositoryConfig
	AWS        AWSConfig
	Input      InputConfig
	Notify     NotifyConfig
	Metrics    MetricsConfig
	Logging    LoggingConfig
}

// RepositoryConfig holds repository service connection settings.
type RepositoryConfig struct {
	// RepoEndpoint is the repository service base URL
	RepoEndpoint string `env:"LOADER_REPO_ENDPOINT" default:"http://localhost:8080/services-repository/repo/v1"`

	// AuthEndpoint is the authentication service base URL
	AuthEndpoint string `env:"LOADER_AUTH_ENDPOINT" default:"http://localhost:8080/services-authentication/auth/v1"`

	User string `env:"LOADER_USER"`

	// Password is used as-is when set; otherwise PasswordSSMParam, then
	// PasswordCiphertext are consulted
	Password string `env:"LOADER_PASSWORD"`

	// PasswordSSMParam names an SSM SecureString holding the password
	PasswordSSMParam string `env:"LOADER_PASSWORD_SSM_PARAM"`

	// PasswordCiphertext is a base64 KMS ciphertext of the password
	PasswordCiphertext string `env:"LOADER_PASSWORD_CIPHERTEXT"`

	// Timeout bounds each HTTP request (default: 30s)
	Timeout time.Duration `env:"LOADER_HTTP_TIMEOUT" default:"30s"`

	// SignRequests signs requests with AWS SigV4 (default: false)
	SignRequests bool `env:"LOADER_SIGN_REQUESTS" default:"false"`

	// Debug logs every request, response and CSV cell (default: false)
	Debug bool `env:"LOADER_DEBUG" default:"false"`
}

// AWSConfig holds AWS settings shared by signing, SSM, KMS, S3 and SQS.
type AWSConfig struct {
	Region          string `env:"AWS_REGION" envAlt:"AWS_DEFAULT_REGION" default:"us-east-1"`
	AccessKeyID     string `env:"AWS_ACCESS_KEY_ID"`
	SecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY"`

	// S3Endpoint is optional; if set it enables a custom endpoint (e.g. MinIO)
	S3Endpoint  string `env:"LOADER_S3_ENDPOINT"`
	S3PathStyle bool   `env:"LOADER_S3_PATH_STYLE" default:"false"`
}

// InputConfig holds the input file locations and parsing options.
type InputConfig struct {
	DatasetsCSV string `env:"LOADER_DATASETS_CSV" default:"AllDatasets.csv"`
	LayersCSV   string `env:"LOADER_LAYERS_CSV" default:"AllDatasetLayerLocations.csv"`
	MD5SumCSV   string `env:"LOADER_MD5SUM_CSV" default:"../platform.md5sums.csv"`

	// FakeLocalData substitutes placeholder checksums and previews for the
	// real files (default: false)
	FakeLocalData bool `env:"LOADER_FAKE_LOCAL_DATA" default:"false"`

	// Encoding of the CSV inputs: latin1 or utf-8 (default: latin1)
	Encoding string `env:"LOADER_CSV_ENCODING" default:"latin1"`

	// LocationColumns are the layer CSV headers turned into locations
	LocationColumns []string `env:"LOADER_LOCATION_COLUMNS" default:"awss3"`
}

// NotifyConfig holds SQS notification settings.
type NotifyConfig struct {
	// QueueURL enables entity-created events when set
	QueueURL string `env:"LOADER_NOTIFY_QUEUE_URL"`
}

// MetricsConfig holds metrics output settings.
type MetricsConfig struct {
	// File is a node exporter textfile path; empty disables metrics output
	File string `env:"LOADER_METRICS_FILE"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// ClientConfig returns the repository client settings.
func (c *Config) ClientConfig() api.ClientConfig {
	return api.ClientConfig{
		RepoEndpoint: c.Repository.RepoEndpoint,
		AuthEndpoint: c.Repository.AuthEndpoint,
		Timeout:      c.Repository.Timeout,
		Debug:        c.Repository.Debug,
	}
}

// PasswordSource returns where the repository password comes from.
func (c *Config) PasswordSource() api.PasswordSource {
	return api.PasswordSource{
		Plain:        c.Repository.Password,
		SSMParameter: c.Repository.PasswordSSMParam,
		Ciphertext:   c.Repository.PasswordCiphertext,
	}
}

// Credentials returns the static AWS credentials, if any.
func (c *Config) Credentials() api.Credentials {
	return api.Credentials{
		AWSAccessKeyID:     c.AWS.AccessKeyID,
		AWSSecretAccessKey: c.AWS.SecretAccessKey,
	}
}

// NeedsAWS reports whether any configured feature makes AWS calls.
func (c *Config) NeedsAWS() bool {
	return c.Repository.SignRequests ||
		c.PasswordSource().NeedsAWS() ||
		c.Notify.QueueURL != "" ||
		c.Input.UsesS3()
}
