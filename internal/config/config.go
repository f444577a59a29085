package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"golang.org/x/time/rate"

	"github.com/DoyleJ11/gift-swap-backend/internal/engine"
)

type Config struct {
	Addr      string `env:"ADDR" envDefault:":8080"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// DatabaseURL enables the postgres archive. Empty keeps finished
	// exchanges in memory.
	DatabaseURL string `env:"DATABASE_URL"`

	RoomIdleGrace       time.Duration `env:"ROOM_IDLE_GRACE" envDefault:"10m"`
	StealLockThreshold  int           `env:"STEAL_LOCK_THRESHOLD" envDefault:"3"`
	MinPlayers          int           `env:"MIN_PLAYERS" envDefault:"2"`
	CreatorsSeeOwnItems bool          `env:"CREATORS_SEE_OWN_ITEMS" envDefault:"true"`
	HostFailover        bool          `env:"HOST_FAILOVER" envDefault:"false"`

	WSMessageRate  float64  `env:"WS_MESSAGE_RATE" envDefault:"10"`
	WSMessageBurst int      `env:"WS_MESSAGE_BURST" envDefault:"20"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:","`
}

// Load reads an optional .env file from the working directory, then the
// process environment. Variables already set win over the file.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return Parse()
}

// Parse reads the process environment only.
func Parse() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error
	if c.StealLockThreshold <= 0 {
		errs = append(errs, fmt.Errorf("STEAL_LOCK_THRESHOLD must be positive, got %d", c.StealLockThreshold))
	}
	if c.MinPlayers < 2 {
		errs = append(errs, fmt.Errorf("MIN_PLAYERS must be at least 2, got %d", c.MinPlayers))
	}
	if c.RoomIdleGrace < 0 {
		errs = append(errs, fmt.Errorf("ROOM_IDLE_GRACE must not be negative, got %s", c.RoomIdleGrace))
	}
	if c.WSMessageRate < 0 || c.WSMessageBurst < 0 {
		errs = append(errs, errors.New("WS_MESSAGE_RATE and WS_MESSAGE_BURST must not be negative"))
	}
	switch c.LogFormat {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.LogFormat))
	}
	return errors.Join(errs...)
}

func (c Config) Rules() engine.Rules {
	return engine.Rules{
		LockThreshold:       c.StealLockThreshold,
		MinPlayers:          c.MinPlayers,
		CreatorsSeeOwnItems: c.CreatorsSeeOwnItems,
		HostFailover:        c.HostFailover,
	}
}

// MessageRate is WS_MESSAGE_RATE as a limiter rate. Zero disables limiting.
func (c Config) MessageRate() rate.Limit {
	return rate.Limit(c.WSMessageRate)
}
