package config

import (
	"fmt"
	"strings"
)

// Validate checks cross-field rules that env tags cannot express.
func (c *Config) Validate() error {
	var problems []string

	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		problems = append(problems, fmt.Sprintf("HTTP_PORT %d out of range", c.HTTP.Port))
	}

	if c.Database.DSN == "" {
		problems = append(problems, "DATABASE_DSN is required")
	}

	switch c.Session.Store {
	case SessionStorePostgres, SessionStoreMemory:
	case SessionStoreRedis:
		if c.Redis.Addr == "" {
			problems = append(problems, "REDIS_ADDR is required when SESSION_STORE=redis")
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown SESSION_STORE %q", c.Session.Store))
	}

	if c.Session.SweepInterval < 0 {
		problems = append(problems, "SESSION_SWEEP_INTERVAL must not be negative")
	}

	switch c.Storage.Backend {
	case StorageLocal:
		if c.Storage.LocalDir == "" {
			problems = append(problems, "STORAGE_LOCAL_DIR is required for the local backend")
		}
	case StorageS3:
		missing := missingVars(
			"S3_ENDPOINT", c.S3.Endpoint,
			"S3_ACCESS_KEY", c.S3.AccessKey,
			"S3_SECRET_KEY", c.S3.SecretKey,
			"S3_BUCKET_NAME", c.S3.Bucket,
		)
		if len(missing) > 0 {
			problems = append(problems, "missing required environment variables: "+strings.Join(missing, ", "))
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown STORAGE_BACKEND %q", c.Storage.Backend))
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}

	return nil
}

// missingVars takes name/value pairs and returns the names whose values are empty.
func missingVars(pairs ...string) []string {
	var missing []string
	for i := 0; i+1 < len(pairs); i += 2 {
		if pairs[i+1] == "" {
			missing = append(missing, pairs[i])
		}
	}
	return missing
}
