// Package config holds the server settings: gameplay constants, buffer and
// pool sizes, and the tuning profiles they start from.
package config

import (
	"errors"
	"flag"
	"fmt"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/MRamiBalles/SnakeWeb/server/internal/domain/food"
	"github.com/MRamiBalles/SnakeWeb/server/internal/domain/grid"
)

// Profile names.
const (
	ProfileDefault     = "default"
	ProfileStress      = "stress"
	ProfileLowResource = "low"
)

// Config holds every tunable of the server.
type Config struct {
	Profile string

	// HTTP
	ListenAddr     string
	AllowedOrigins []string
	Debug          bool

	// Gameplay
	BoardSize    int
	MoveInterval time.Duration
	InitialFood  []grid.Cell

	// Sessions
	MaxGames       int
	SessionIdleTTL time.Duration
	ReapInterval   time.Duration

	// Event log and channel buffers
	EventRetention   int
	ClientSendBuffer int

	// Storage
	DBPath         string
	DBMaxOpenConns int
	DBMaxIdleConns int

	// Leaderboard
	LeaderboardSize      int
	LeaderboardCacheSize int

	// Rate limiting
	MaxMessagesPerSecond int
	MaxClientsPerGame    int
}

// DefaultConfig returns sensible defaults for production.
func DefaultConfig() *Config {
	numCPU := runtime.NumCPU()

	return &Config{
		Profile:    ProfileDefault,
		ListenAddr: ":8080",

		BoardSize:    grid.DefaultSize,
		MoveInterval: 300 * time.Millisecond,
		InitialFood:  append([]grid.Cell(nil), food.InitialItems...),

		MaxGames:       1000,
		SessionIdleTTL: 30 * time.Minute,
		ReapInterval:   time.Minute,

		EventRetention:   50000,
		ClientSendBuffer: 64,

		DBPath:         "snake.db",
		DBMaxOpenConns: numCPU * 4,
		DBMaxIdleConns: numCPU * 2,

		LeaderboardSize:      10,
		LeaderboardCacheSize: 64,

		MaxMessagesPerSecond: 20,
		MaxClientsPerGame:    50,
	}
}

// StressTestConfig returns aggressive settings for load testing.
func StressTestConfig() *Config {
	numCPU := runtime.NumCPU()

	c := DefaultConfig()
	c.Profile = ProfileStress
	c.MaxGames = 10000
	c.EventRetention = 200000
	c.ClientSendBuffer = 256
	c.DBMaxOpenConns = numCPU * 8
	c.DBMaxIdleConns = numCPU * 4
	c.LeaderboardCacheSize = 256
	c.MaxMessagesPerSecond = 200
	c.MaxClientsPerGame = 500
	return c
}

// LowResourceConfig returns minimal settings for development.
func LowResourceConfig() *Config {
	c := DefaultConfig()
	c.Profile = ProfileLowResource
	c.MaxGames = 20
	c.EventRetention = 2000
	c.ClientSendBuffer = 8
	c.DBMaxOpenConns = 2
	c.DBMaxIdleConns = 1
	c.LeaderboardCacheSize = 8
	c.MaxMessagesPerSecond = 10
	c.MaxClientsPerGame = 5
	return c
}

// ForProfile returns the starting configuration of a named profile.
func ForProfile(name string) (*Config, error) {
	switch strings.ToLower(name) {
	case "", ProfileDefault:
		return DefaultConfig(), nil
	case ProfileStress:
		return StressTestConfig(), nil
	case ProfileLowResource:
		return LowResourceConfig(), nil
	}
	return nil, fmt.Errorf("unknown profile %q", name)
}

// Validate checks the settings for values the server cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.BoardSize < 4 {
		errs = append(errs, fmt.Errorf("board size must be at least 4, got %d", c.BoardSize))
	}
	if c.MoveInterval < 10*time.Millisecond {
		errs = append(errs, fmt.Errorf("move interval must be at least 10ms, got %s", c.MoveInterval))
	}
	if c.MaxGames < 1 {
		errs = append(errs, fmt.Errorf("max games must be positive, got %d", c.MaxGames))
	}
	if c.EventRetention < 100 {
		errs = append(errs, fmt.Errorf("event retention must be at least 100, got %d", c.EventRetention))
	}
	if c.ClientSendBuffer < 1 {
		errs = append(errs, fmt.Errorf("client send buffer must be positive, got %d", c.ClientSendBuffer))
	}
	if c.MaxMessagesPerSecond < 1 {
		errs = append(errs, fmt.Errorf("max messages per second must be positive, got %d", c.MaxMessagesPerSecond))
	}
	if c.LeaderboardSize < 1 || c.LeaderboardCacheSize < 1 {
		errs = append(errs, errors.New("leaderboard and leaderboard cache sizes must be positive"))
	}
	for _, f := range c.InitialFood {
		if f.Top < 0 || f.Left < 0 || f.Top >= c.BoardSize || f.Left >= c.BoardSize {
			errs = append(errs, fmt.Errorf("initial food %v is outside a %dx%d board", f, c.BoardSize, c.BoardSize))
		}
	}
	return errors.Join(errs...)
}

// Load builds the configuration: profile defaults, then SNAKE_* environment
// variables, then command-line flags.
func Load(args []string, getenv func(string) string) (*Config, error) {
	fs := flag.NewFlagSet("snake-server", flag.ContinueOnError)
	var (
		profile      = fs.String("profile", "", "tuning profile: default, stress or low")
		addr         = fs.String("addr", "", "HTTP listen address")
		dbPath       = fs.String("db", "", "SQLite database path, \"none\" disables persistence")
		boardSize    = fs.Int("board", 0, "board side length")
		moveInterval = fs.Duration("interval", 0, "time between snake moves")
		maxGames     = fs.Int("max-games", 0, "maximum concurrent games")
		debug        = fs.Bool("debug", false, "verbose logging")
	)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	name := getenv("SNAKE_PROFILE")
	if *profile != "" {
		name = *profile
	}
	cfg, err := ForProfile(name)
	if err != nil {
		return nil, err
	}

	if err := cfg.applyEnv(getenv); err != nil {
		return nil, err
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "addr":
			cfg.ListenAddr = *addr
		case "db":
			cfg.DBPath = *dbPath
		case "board":
			cfg.BoardSize = *boardSize
		case "interval":
			cfg.MoveInterval = *moveInterval
		case "max-games":
			cfg.MaxGames = *maxGames
		case "debug":
			cfg.Debug = *debug
		}
	})

	if cfg.DBPath == "none" {
		cfg.DBPath = ""
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	var errs []error

	str := func(key string, dst *string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) {
		if v := getenv(key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = n
		}
	}
	dur := func(key string, dst *time.Duration) {
		if v := getenv(key); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = d
		}
	}

	str("SNAKE_ADDR", &c.ListenAddr)
	str("SNAKE_DB_PATH", &c.DBPath)
	num("SNAKE_BOARD_SIZE", &c.BoardSize)
	dur("SNAKE_MOVE_INTERVAL", &c.MoveInterval)
	num("SNAKE_MAX_GAMES", &c.MaxGames)
	dur("SNAKE_SESSION_IDLE_TTL", &c.SessionIdleTTL)
	num("SNAKE_EVENT_RETENTION", &c.EventRetention)
	num("SNAKE_MAX_MESSAGES_PER_SECOND", &c.MaxMessagesPerSecond)
	num("SNAKE_LEADERBOARD_SIZE", &c.LeaderboardSize)

	if v := getenv("SNAKE_ALLOWED_ORIGINS"); v != "" {
		c.AllowedOrigins = nil
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				c.AllowedOrigins = append(c.AllowedOrigins, o)
			}
		}
	}
	if v := getenv("SNAKE_INITIAL_FOOD"); v != "" {
		cells, err := ParseCells(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("SNAKE_INITIAL_FOOD: %w", err))
		} else {
			c.InitialFood = cells
		}
	}
	if v := getenv("SNAKE_DEBUG"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("SNAKE_DEBUG: %w", err))
		} else {
			c.Debug = b
		}
	}

	return errors.Join(errs...)
}

// ParseCells reads "top:left" pairs separated by commas, e.g. "5:5,2:7".
func ParseCells(s string) ([]grid.Cell, error) {
	var cells []grid.Cell
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		top, left, ok := strings.Cut(part, ":")
		if !ok {
			return nil, fmt.Errorf("cell %q is not top:left", part)
		}
		t, err := strconv.Atoi(top)
		if err != nil {
			return nil, fmt.Errorf("cell %q: %w", part, err)
		}
		l, err := strconv.Atoi(left)
		if err != nil {
			return nil, fmt.Errorf("cell %q: %w", part, err)
		}
		cells = append(cells, grid.Cell{Top: t, Left: l})
	}
	return cells, nil
}
