package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

// RaceTime is one fixed post time-of-day for the daily card
type RaceTime struct {
	Hour   int
	Minute int
}

// Config holds all application configuration
type Config struct {
	// Discord configuration
	DiscordToken   string
	DiscordGuildID string

	// Database configuration
	DatabaseURL string

	// Economy configuration
	StartingBalance int64

	// Race day configuration
	EntryFee          int64
	MaxEntries        int
	EntryOpenMinutes  int
	LockOffsetMinutes int
	HouseRake         float64
	RaceTimes         []RaceTime
	RaceDistances     []int
	SeedSecret        string

	// Read API
	APIAddr string

	// Backup
	BackupDir string

	// Environment
	Environment string // "development", "production" or "test"
}

// Timezone is the fixed local zone all race-day arithmetic runs in
var Timezone = time.FixedZone("JST", 9*60*60)

var (
	instance *Config
	once     sync.Once
)

// Get returns the global configuration instance
func Get() *Config {
	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			panic(fmt.Sprintf("failed to load config: %v", err))
		}
	})
	return instance
}

// load loads configuration from a .env file (if present) and the environment
func load() (*Config, error) {
	_ = godotenv.Load()

	config := &Config{
		DiscordToken:   os.Getenv("DISCORD_TOKEN"),
		DiscordGuildID: os.Getenv("DISCORD_GUILD_ID"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),

		StartingBalance: 100_000,

		EntryFee:          50_000,
		MaxEntries:        8,
		EntryOpenMinutes:  60,
		LockOffsetMinutes: 5,
		HouseRake:         0,
		RaceTimes: []RaceTime{
			{9, 0}, {12, 0}, {15, 0}, {18, 0}, {21, 0},
		},
		RaceDistances: []int{1000, 1500, 2000, 2500},
		SeedSecret:    os.Getenv("RACE_SEED_SECRET"),

		APIAddr:   ":8080",
		BackupDir: "backups",

		Environment: os.Getenv("ENVIRONMENT"),
	}

	if v := os.Getenv("STARTING_BALANCE"); v != "" {
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil {
			config.StartingBalance = parsed
		}
	}
	if v := os.Getenv("RACE_ENTRY_FEE"); v != "" {
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil {
			config.EntryFee = parsed
		}
	}
	if v := os.Getenv("RACE_MAX_ENTRIES"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			config.MaxEntries = parsed
		}
	}
	if v := os.Getenv("RACE_ENTRY_OPEN_MINUTES"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			config.EntryOpenMinutes = parsed
		}
	}
	if v := os.Getenv("RACE_LOCK_OFFSET_MINUTES"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed >= 0 {
			config.LockOffsetMinutes = parsed
		}
	}
	if v := os.Getenv("HOUSE_RAKE"); v != "" {
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil || parsed < 0 || parsed >= 1 {
			return nil, fmt.Errorf("HOUSE_RAKE must be in [0, 1): %q", v)
		}
		config.HouseRake = parsed
	}
	if v := os.Getenv("RACE_TIMES"); v != "" {
		times, err := parseRaceTimes(v)
		if err != nil {
			return nil, err
		}
		config.RaceTimes = times
	}
	if v := os.Getenv("API_ADDR"); v != "" {
		config.APIAddr = v
	}
	if v := os.Getenv("BACKUP_DIR"); v != "" {
		config.BackupDir = v
	}

	if config.Environment == "" {
		config.Environment = "development"
	}

	if config.Environment != "test" {
		if config.DiscordToken == "" {
			return nil, fmt.Errorf("DISCORD_TOKEN is required")
		}
		if config.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required")
		}
	}

	return config, nil
}

// parseRaceTimes parses a comma separated list of HH:MM times
func parseRaceTimes(value string) ([]RaceTime, error) {
	var times []RaceTime
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		hhmm := strings.SplitN(part, ":", 2)
		if len(hhmm) != 2 {
			return nil, fmt.Errorf("invalid race time %q", part)
		}
		hour, err := strconv.Atoi(hhmm[0])
		if err != nil || hour < 0 || hour > 23 {
			return nil, fmt.Errorf("invalid race time %q", part)
		}
		minute, err := strconv.Atoi(hhmm[1])
		if err != nil || minute < 0 || minute > 59 {
			return nil, fmt.Errorf("invalid race time %q", part)
		}
		times = append(times, RaceTime{Hour: hour, Minute: minute})
	}
	if len(times) == 0 {
		return nil, fmt.Errorf("RACE_TIMES is empty")
	}
	return times, nil
}

// DistanceFor returns the course distance for a race number, cycling through
// the configured distances
func (c *Config) DistanceFor(raceNo int) int {
	if len(c.RaceDistances) == 0 {
		return 1500
	}
	return c.RaceDistances[(raceNo-1)%len(c.RaceDistances)]
}
