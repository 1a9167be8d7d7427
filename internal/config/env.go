package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every environment override, e.g. PUBSCOPE_API_BASE_URL.
const EnvPrefix = "PUBSCOPE_"

// ApplyEnv loads .env files (./.env by default; missing files are ignored) and then
// overrides cfg with any PUBSCOPE_* variables that are set.
func ApplyEnv(cfg *Config, dotenvFiles ...string) error {
	_ = godotenv.Load(dotenvFiles...)

	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
