package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/helix-tools/metadata-loader/source"
)

// Load reads configuration from environment variables.
// It applies defaults for unset values and validates the result.
func Load() (*Config, error) {
	cfg := &Config{}

	if err := loadStruct(reflect.ValueOf(cfg).Elem()); err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// loadStruct recursively populates struct fields from environment variables.
func loadStruct(v reflect.Value) error {
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		fieldVal := v.Field(i)

		if !fieldVal.CanSet() {
			continue
		}

		if field.Type.Kind() == reflect.Struct {
			if err := loadStruct(fieldVal); err != nil {
				return err
			}
			continue
		}

		envName := field.Tag.Get("env")
		if envName == "" {
			continue
		}

		// Try primary env var, then alternate
		value := os.Getenv(envName)
		if alt := field.Tag.Get("envAlt"); value == "" && alt != "" {
			value = os.Getenv(alt)
		}

		if value == "" {
			value = field.Tag.Get("default")
		}

		if value == "" {
			continue
		}

		if err := setField(fieldVal, value); err != nil {
			return fmt.Errorf("invalid value for %s=%q: %w", envName, value, err)
		}
	}

	return nil
}

// setField sets a reflect.Value from a string based on its type.
func setField(field reflect.Value, value string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int64:
		if field.Type() != reflect.TypeOf(time.Duration(0)) {
			return fmt.Errorf("unsupported int64 field %s", field.Type())
		}
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration: %w", err)
		}
		field.SetInt(int64(d))

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean: %w", err)
		}
		field.SetBool(b)

	case reflect.Slice:
		if field.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("unsupported slice type: %s", field.Type().Elem().Kind())
		}
		field.Set(reflect.ValueOf(SplitList(value)))

	default:
		return fmt.Errorf("unsupported field type: %s", field.Kind())
	}

	return nil
}

// SplitList splits a comma-separated value, dropping empty entries.
func SplitList(value string) []string {
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			result = append(result, p)
		}
	}
	return result
}

// Validate checks that the configuration is valid.
// Returns an error describing all validation failures.
func (c *Config) Validate() error {
	var errs []string

	if c.Repository.RepoEndpoint == "" {
		errs = append(errs, "LOADER_REPO_ENDPOINT is required")
	}
	if c.Repository.AuthEndpoint == "" {
		errs = append(errs, "LOADER_AUTH_ENDPOINT is required")
	}
	if c.Repository.Timeout <= 0 {
		errs = append(errs, "LOADER_HTTP_TIMEOUT must be positive")
	}
	if c.Input.DatasetsCSV == "" {
		errs = append(errs, "a datasets CSV path is required")
	}

	validEncodings := map[string]bool{"latin1": true, "utf-8": true}
	if !validEncodings[strings.ToLower(c.Input.Encoding)] {
		errs = append(errs, fmt.Sprintf("LOADER_CSV_ENCODING (%q) must be one of: latin1, utf-8", c.Input.Encoding))
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Sprintf("LOG_LEVEL (%q) must be one of: debug, info, warn, error", c.Logging.Level))
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		errs = append(errs, fmt.Sprintf("LOG_FORMAT (%q) must be one of: text, json", c.Logging.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// UsesS3 reports whether any input path is an S3 object.
func (c InputConfig) UsesS3() bool {
	return source.IsS3(c.DatasetsCSV) || source.IsS3(c.LayersCSV) || source.IsS3(c.MD5SumCSV)
}

// String returns a safe string representation of the config for logging.
// Secrets are masked.
func (c *Config) String() string {
	var b strings.Builder
	b.WriteString("Config{")
	b.WriteString(fmt.Sprintf("Repository: {RepoEndpoint: %q, AuthEndpoint: %q, User: %q, Password: [MASKED], SignRequests: %v}, ",
		c.Repository.RepoEndpoint, c.Repository.AuthEndpoint, c.Repository.User, c.Repository.SignRequests))
	b.WriteString(fmt.Sprintf("Input: {DatasetsCSV: %q, LayersCSV: %q, MD5SumCSV: %q, FakeLocalData: %v, Encoding: %q}, ",
		c.Input.DatasetsCSV, c.Input.LayersCSV, c.Input.MD5SumCSV, c.Input.FakeLocalData, c.Input.Encoding))
	b.WriteString(fmt.Sprintf("Logging: {Level: %q, Format: %q}",
		c.Logging.Level, c.Logging.Format))
	b.WriteString("}")
	return b.String()
}
