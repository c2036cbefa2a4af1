package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ExpectedEnvSchemaVersion is the .env layout version this build reads
const ExpectedEnvSchemaVersion = "1.0"

// Example values shipped in .env.example
const (
	exampleDBPassword = "change_this_secure_password"
	exampleAPIKey     = "generate_with_openssl_rand_hex_32"
)

// shortRetentionDays flags retention windows that expire points faster than a billing cycle
const shortRetentionDays = 30

// RequiredEnvVars lists all environment variables that must be set.
// ENV_SCHEMA_VERSION is always first.
var RequiredEnvVars = []string{
	"ENV_SCHEMA_VERSION",
	"DB_USER",
	"DB_PASSWORD",
	"DB_HOST",
	"DB_PORT",
	"DB_NAME",
	"API_KEY",
}

// ValidateEnv checks the schema version and that every required variable is set
func ValidateEnv() error {
	schemaVersion := os.Getenv("ENV_SCHEMA_VERSION")
	if schemaVersion == "" {
		return fmt.Errorf("ENV_SCHEMA_VERSION is not set - add it to your .env file (expected: %s)", ExpectedEnvSchemaVersion)
	}
	if schemaVersion != ExpectedEnvSchemaVersion {
		return fmt.Errorf("ENV_SCHEMA_VERSION mismatch: expected %s, got %s - your .env file may be outdated", ExpectedEnvSchemaVersion, schemaVersion)
	}

	var missing []string
	for _, envVar := range RequiredEnvVars {
		if os.Getenv(envVar) == "" {
			missing = append(missing, envVar)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	return nil
}

// ValidateEnvWithWarnings runs ValidateEnv and reports risky but legal values
func ValidateEnvWithWarnings() ([]string, error) {
	if err := ValidateEnv(); err != nil {
		return nil, err
	}

	var warnings []string
	if os.Getenv("DB_PASSWORD") == exampleDBPassword {
		warnings = append(warnings, "DB_PASSWORD appears to be using the example value - please use a secure password")
	}
	if os.Getenv("API_KEY") == exampleAPIKey {
		warnings = append(warnings, "API_KEY appears to be using the example value - generate a secure key with: openssl rand -hex 32")
	}
	if days, err := strconv.Atoi(os.Getenv("POINTS_RETENTION_DAYS")); err == nil && days > 0 && days < shortRetentionDays {
		warnings = append(warnings, fmt.Sprintf("POINTS_RETENTION_DAYS is %d - earned points will expire within a month", days))
	}
	return warnings, nil
}
