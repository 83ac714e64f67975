package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// Storage drivers
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

const defaultAPIToken = "dev-token"

// Config is the server configuration, one struct field per TOML section
type Config struct {
	App struct {
		Name    string `toml:"name"`
		Version string `toml:"version"`
	} `toml:"app"`

	Log struct {
		Level  string `toml:"level"`
		Format string `toml:"format"`
	} `toml:"log"`

	Storage struct {
		Driver string `toml:"driver"`
		Path   string `toml:"path"`
		DSN    string `toml:"dsn"`
	} `toml:"storage"`

	GRPC struct {
		Addr     string `toml:"addr"`
		APIToken string `toml:"api_token"`
	} `toml:"grpc"`

	Valuation struct {
		StrictReads *bool `toml:"strict_reads"`
	} `toml:"valuation"`

	Contribution struct {
		RequireMark         *bool    `toml:"require_mark"`
		MaxMarkAge          Duration `toml:"max_mark_age"`
		AllowOverWithdrawal bool     `toml:"allow_over_withdrawal"`
	} `toml:"contribution"`

	Schedule struct {
		QuotaSnapshot string `toml:"quota_snapshot"`
	} `toml:"schedule"`

	Update struct {
		Enabled bool     `toml:"enabled"`
		APIBase string   `toml:"api_base"`
		Owner   string   `toml:"owner"`
		Repo    string   `toml:"repo"`
		Timeout Duration `toml:"timeout"`
	} `toml:"update"`
}

// Duration is a time.Duration read from a TOML string such as "15m"
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	d.Duration = v
	return nil
}

// Load reads the TOML file at path, then .env, then environment overrides.
// A missing file is not an error; every setting has a default.
func Load(path string) (*Config, error) {
	var cfg Config
	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed to read config %s: %w", path, err)
			}
			log.Warn().Str("path", path).Msg("config file not found, using defaults")
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	applyEnv(&cfg)
	applyDefaults(&cfg)
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnv(cfg *Config) {
	overrides := []struct {
		key string
		dst *string
	}{
		{"FUND_DB_PATH", &cfg.Storage.Path},
		{"DB_CONN_STR", &cfg.Storage.DSN},
		{"API_TOKEN", &cfg.GRPC.APIToken},
		{"GRPC_ADDR", &cfg.GRPC.Addr},
		{"LOG_LEVEL", &cfg.Log.Level},
	}
	for _, o := range overrides {
		if v := strings.TrimSpace(os.Getenv(o.key)); v != "" {
			*o.dst = v
		}
	}

	// A DSN given through the environment selects Postgres unless a driver was chosen
	if os.Getenv("DB_CONN_STR") != "" && cfg.Storage.Driver == "" {
		cfg.Storage.Driver = DriverPostgres
	}
}

func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "fundquota"
	}
	if cfg.App.Version == "" {
		cfg.App.Version = "0.0.0"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = DriverSQLite
	}
	if cfg.Storage.Path == "" {
		cfg.Storage.Path = "data/fund.db"
	}
	if cfg.GRPC.Addr == "" {
		cfg.GRPC.Addr = ":8080"
	}
	if cfg.GRPC.APIToken == "" {
		cfg.GRPC.APIToken = defaultAPIToken
	}
	if cfg.Valuation.StrictReads == nil {
		strict := true
		cfg.Valuation.StrictReads = &strict
	}
	if cfg.Contribution.RequireMark == nil {
		on := true
		cfg.Contribution.RequireMark = &on
	}
	if cfg.Update.Timeout.Duration <= 0 {
		cfg.Update.Timeout.Duration = 5 * time.Second
	}
}

func validate(cfg *Config) error {
	cfg.Storage.Driver = strings.ToLower(strings.TrimSpace(cfg.Storage.Driver))
	switch cfg.Storage.Driver {
	case DriverSQLite:
	case DriverPostgres:
		if strings.TrimSpace(cfg.Storage.DSN) == "" {
			return errors.New("storage.dsn empty but driver is postgres")
		}
	default:
		return fmt.Errorf("storage.driver %q is not one of sqlite, postgres", cfg.Storage.Driver)
	}

	if cfg.Contribution.MaxMarkAge.Duration < 0 {
		return errors.New("contribution.max_mark_age cannot be negative")
	}

	if spec := strings.TrimSpace(cfg.Schedule.QuotaSnapshot); spec != "" {
		if _, err := cron.ParseStandard(spec); err != nil {
			return fmt.Errorf("schedule.quota_snapshot %q: %w", spec, err)
		}
	}

	if cfg.Update.Enabled && (strings.TrimSpace(cfg.Update.Owner) == "" || strings.TrimSpace(cfg.Update.Repo) == "") {
		return errors.New("update.owner and update.repo empty but update checks enabled")
	}
	return nil
}
