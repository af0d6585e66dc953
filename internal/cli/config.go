package cli

import (
	"errors"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/Chative-core-poc-v1/cookbook/internal/extract/model"
	logx "github.com/Chative-core-poc-v1/cookbook/pkg/logger"
	pkgneo4j "github.com/Chative-core-poc-v1/cookbook/pkg/neo4j"
	pkgredis "github.com/Chative-core-poc-v1/cookbook/pkg/redis"
)

// AppConfig defines all configurable parameters of the cookbook, sourced from
// environment variables (loaded from .env for local runs).
type AppConfig struct {
	Env      string `envconfig:"APP_ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL"`

	// Infrastructure, both optional
	Redis pkgredis.Config
	Neo4j pkgneo4j.Config

	LLM     model.LLMConfig
	Extract model.ExtractConfig

	MetricsTextfile string `envconfig:"METRICS_TEXTFILE"`
}

// LoadConfig reads envFile into the environment, when it exists, and parses
// the configuration.
func LoadConfig(envFile string) (*AppConfig, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				return nil, err
			}
			logx.Debug().Str("file", envFile).Msg("no env file, using the process environment")
		}
	}

	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
