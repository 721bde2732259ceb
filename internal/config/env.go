package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// RuntimeConfig holds the knobs read from Nakama's runtime env map.
type RuntimeConfig struct {
	GameConfigPath   string        `env:"rummy_config_path"        envDefault:"data/rummy_config.json"`
	BotIdentityPath  string        `env:"rummy_bot_identities"     envDefault:"data/bot_identities.json"`
	BotsEnabled      bool          `env:"rummy_bots_enabled"       envDefault:"true"`
	BotActionDelay   time.Duration `env:"rummy_bot_action_delay"   envDefault:"1s"`
	TableTokenSecret string        `env:"rummy_table_token_secret"`
	TableTokenIssuer string        `env:"rummy_table_token_issuer" envDefault:"rummy"`
	TableTokenTTL    time.Duration `env:"rummy_table_token_ttl"    envDefault:"10m"`
}

// ParseRuntimeConfig reads a RuntimeConfig from the given variables instead of
// the process environment.
func ParseRuntimeConfig(vars map[string]string) (RuntimeConfig, error) {
	var rc RuntimeConfig
	if err := env.ParseWithOptions(&rc, env.Options{Environment: vars}); err != nil {
		return RuntimeConfig{}, fmt.Errorf("parse runtime env: %w", err)
	}
	if rc.BotActionDelay < 0 {
		return RuntimeConfig{}, fmt.Errorf("rummy_bot_action_delay must not be negative")
	}
	if rc.TableTokenTTL <= 0 {
		return RuntimeConfig{}, fmt.Errorf("rummy_table_token_ttl must be positive")
	}
	return rc, nil
}

// TokensEnabled reports whether private tables can be used.
func (rc RuntimeConfig) TokensEnabled() bool {
	return rc.TableTokenSecret != ""
}

// SimConfig configures the command line simulator.
type SimConfig struct {
	Games    int    `env:"RUMMY_SIM_GAMES"   envDefault:"10"`
	Players  int    `env:"RUMMY_SIM_PLAYERS" envDefault:"4"`
	Variant  string `env:"RUMMY_SIM_VARIANT"`
	Config   string `env:"RUMMY_CONFIG_PATH" envDefault:"data/rummy_config.json"`
	Seed     int64  `env:"RUMMY_SIM_SEED"`
	MaxTurns int    `env:"RUMMY_SIM_MAX_TURNS" envDefault:"5000"`
	LogLevel string `env:"LOG_LEVEL"          envDefault:"info"`
}

// ParseSimConfig reads a SimConfig from the process environment.
func ParseSimConfig() (SimConfig, error) {
	var sc SimConfig
	if err := env.Parse(&sc); err != nil {
		return SimConfig{}, fmt.Errorf("parse env: %w", err)
	}
	if sc.Games < 1 {
		return SimConfig{}, fmt.Errorf("RUMMY_SIM_GAMES must be positive")
	}
	if sc.MaxTurns < 1 {
		return SimConfig{}, fmt.Errorf("RUMMY_SIM_MAX_TURNS must be positive")
	}
	return sc, nil
}
