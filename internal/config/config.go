// internal/config/config.go
//
// Environment configuration. Server settings drive the reference backend;
// Engine settings drive a game controller embedded in a client.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/robalobadob/alchemy/internal/game"
)

// Server configures the reference backend.
type Server struct {
	Port         string        `env:"PORT"             envDefault:"8080"`
	LogLevel     string        `env:"LOG_LEVEL"        envDefault:"info"`
	DatabasePath string        `env:"DATABASE_PATH"    envDefault:"data/alchemy.db"`
	JWTSecret    string        `env:"JWT_SECRET"       envDefault:"dev_secret_change_me"`
	JWTExpires   int           `env:"JWT_EXPIRES_DAYS" envDefault:"14"`
	DailySalt    string        `env:"DAILY_SALT"       envDefault:"local_dev_salt"`
	ClientOrigin string        `env:"CLIENT_ORIGIN"    envDefault:"http://localhost:5173"`
	PuzzlesFile  string        `env:"PUZZLES_FILE"`
	RecipesFile  string        `env:"RECIPES_FILE"`
	ShutdownWait time.Duration `env:"SHUTDOWN_WAIT"    envDefault:"10s"`
}

// JWTExpiry returns the token lifetime.
func (s Server) JWTExpiry() time.Duration {
	if s.JWTExpires <= 0 {
		return 14 * 24 * time.Hour
	}
	return time.Duration(s.JWTExpires) * 24 * time.Hour
}

// Engine configures an embedded game controller.
type Engine struct {
	APIURL         string        `env:"ALCHEMY_API_URL"         envDefault:"http://localhost:8080"`
	TimeLimit      int           `env:"ALCHEMY_TIME_LIMIT"      envDefault:"600"`
	AnimationDelay time.Duration `env:"ALCHEMY_ANIMATION_DELAY" envDefault:"600ms"`
	SaveDebounce   time.Duration `env:"ALCHEMY_SAVE_DEBOUNCE"   envDefault:"5s"`
	AutosaveEvery  int           `env:"ALCHEMY_AUTOSAVE_EVERY"  envDefault:"5"`
	MaxFavorites   int           `env:"ALCHEMY_MAX_FAVORITES"   envDefault:"20"`
	// LocalDB is the device-local SQLite file; empty keeps state in memory.
	LocalDB    string `env:"ALCHEMY_LOCAL_DB"`
	LocalQuota int    `env:"ALCHEMY_LOCAL_QUOTA" envDefault:"5242880"`
}

// GameConfig maps the engine settings onto a controller config. Zero or
// negative values fall back to the controller defaults.
func (e Engine) GameConfig() game.Config {
	cfg := game.DefaultConfig()
	if e.TimeLimit > 0 {
		cfg.TimeLimit = e.TimeLimit
	}
	if e.AnimationDelay >= 0 {
		cfg.AnimationDelay = e.AnimationDelay
	}
	if e.SaveDebounce >= 0 {
		cfg.SaveDebounce = e.SaveDebounce
	}
	if e.AutosaveEvery > 0 {
		cfg.AutosaveEvery = e.AutosaveEvery
	}
	if e.MaxFavorites > 0 {
		cfg.MaxFavorites = e.MaxFavorites
	}
	return cfg
}

// LoadServer parses the server configuration from the environment.
func LoadServer() (Server, error) {
	var cfg Server
	if err := parseEnv(&cfg); err != nil {
		return Server{}, err
	}
	return cfg, nil
}

// LoadEngine parses the engine configuration from the environment.
func LoadEngine() (Engine, error) {
	var cfg Engine
	if err := parseEnv(&cfg); err != nil {
		return Engine{}, err
	}
	return cfg, nil
}

func parseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
