// File path: internal/querystats/config.go
package querystats

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// maxTopK caps the bucket count a single request may ask for; the
// aggregation is a bounded approximation, not a pagination cursor.
const maxTopK = 50

type Config struct {
	// TopK is the default bucket count for aggregate endpoints.
	TopK int
	// Concurrency bounds the per-fingerprint resolution fan-out.
	Concurrency int
	// StrictPlans fails a combined statement+plan aggregate when either
	// half of a pair is missing. When false, incomplete pairs are dropped.
	StrictPlans bool
	// LookupTimeout bounds each representative-document lookup.
	LookupTimeout time.Duration
}

// LoadConfig resolves service tuning from QUERYSCOPE_* environment
// variables.
func LoadConfig() (Config, error) {
	cfg := Config{}
	if topK := strings.TrimSpace(os.Getenv("QUERYSCOPE_TOP_K")); topK != "" {
		value, err := strconv.Atoi(topK)
		if err != nil {
			return Config{}, fmt.Errorf("parse QUERYSCOPE_TOP_K: %w", err)
		}
		cfg.TopK = value
	}
	if conc := strings.TrimSpace(os.Getenv("QUERYSCOPE_CONCURRENCY")); conc != "" {
		value, err := strconv.Atoi(conc)
		if err != nil {
			return Config{}, fmt.Errorf("parse QUERYSCOPE_CONCURRENCY: %w", err)
		}
		cfg.Concurrency = value
	}
	if strict := strings.TrimSpace(os.Getenv("QUERYSCOPE_STRICT_PLANS")); strict != "" {
		value, err := strconv.ParseBool(strict)
		if err != nil {
			return Config{}, fmt.Errorf("parse QUERYSCOPE_STRICT_PLANS: %w", err)
		}
		cfg.StrictPlans = value
	}
	if timeout := strings.TrimSpace(os.Getenv("QUERYSCOPE_LOOKUP_TIMEOUT")); timeout != "" {
		value, err := time.ParseDuration(timeout)
		if err != nil {
			return Config{}, fmt.Errorf("parse QUERYSCOPE_LOOKUP_TIMEOUT: %w", err)
		}
		cfg.LookupTimeout = value
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.TopK <= 0 {
		c.TopK = 10
	}
	if c.TopK > maxTopK {
		c.TopK = maxTopK
	}
	if c.Concurrency <= 0 {
		c.Concurrency = 8
	}
	if c.LookupTimeout <= 0 {
		c.LookupTimeout = 10 * time.Second
	}
}
