// Package config loads the arcade service configuration from a YAML file, with
// environment variables taking precedence for deployment settings.
package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/arcade/go/internal/arcade/access"
	"github.com/mcdev12/arcade/go/internal/arcade/room"
	"github.com/mcdev12/arcade/go/internal/models"
	"gopkg.in/yaml.v3"
)

const DefaultPath = "arcade.yaml"

type Config struct {
	Server   ServerConfig      `yaml:"server"`
	Room     RoomConfig        `yaml:"room"`
	Messages MessagesConfig    `yaml:"messages"`
	Maps     MapsConfig        `yaml:"maps"`
	NATS     NATSConfig        `yaml:"nats"`
	Database DatabaseConfig    `yaml:"database"`
	Staff    map[string]string `yaml:"staff"` // player id -> role name
}

type ServerConfig struct {
	Port     string `yaml:"port"`
	LogLevel string `yaml:"log_level"`
}

type RoomConfig struct {
	GameWaitTime          int64   `yaml:"game_wait_time"`
	PrivateRoomDeleteTime int64   `yaml:"private_room_delete_time"`
	VoteOptions           int     `yaml:"vote_options"`
	Slots                 int     `yaml:"slots"`
	MaxSlots              int     `yaml:"max_slots"`
	DefaultGameType       string  `yaml:"default_game_type"`
	PrivilegedRole        string  `yaml:"privileged_role"`
	StartMilestones       []int64 `yaml:"start_milestones"`
	LaunchTimeout         string  `yaml:"launch_timeout"`
}

type MessagesConfig struct {
	Start        string `yaml:"start"`
	MapSelected  string `yaml:"map_selected"`
	LaunchFailed string `yaml:"launch_failed"`
	// RoomDeleted entries are "<seconds>, <text>", sent when a private room's expiry timer
	// reaches that many seconds.
	RoomDeleted []string `yaml:"room_deleted"`
}

type MapsConfig struct {
	File string `yaml:"file"`
}

type NATSConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	StreamName    string `yaml:"stream_name"`
	SubjectPrefix string `yaml:"subject_prefix"`
	// Gateway subscribers read room events back from the stream instead of in-process.
	GatewayFromStream bool `yaml:"gateway_from_stream"`
}

type DatabaseConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"ssl_mode"`
}

// DSN returns the Postgres connection URL.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, c.SSLMode,
	)
}

// Default returns the configuration used when no file is present.
func Default() Config {
	rc := room.DefaultConfig()
	return Config{
		Server: ServerConfig{Port: "8080", LogLevel: "info"},
		Room: RoomConfig{
			GameWaitTime:          rc.GameWaitTime,
			PrivateRoomDeleteTime: rc.PrivateRoomDeleteTime,
			VoteOptions:           rc.VoteOptions,
			Slots:                 rc.Slots,
			MaxSlots:              rc.MaxSlots,
			DefaultGameType:       string(rc.DefaultGameType),
			PrivilegedRole:        rc.PrivilegedRole.String(),
			StartMilestones:       rc.StartMilestones,
			LaunchTimeout:         rc.LaunchTimeout.String(),
		},
		Messages: MessagesConfig{
			Start:        rc.StartMessage,
			MapSelected:  rc.MapSelectedMessage,
			LaunchFailed: rc.LaunchFailedMessage,
			RoomDeleted:  FormatDeleteMessages(rc.DeleteMessages),
		},
		Maps: MapsConfig{File: "maps.yaml"},
		NATS: NATSConfig{
			URL:           "nats://localhost:4222",
			StreamName:    "ARCADE_ROOMS",
			SubjectPrefix: "arcade.rooms",
		},
		Database: DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "postgres",
			Password: "postgres",
			Database: "arcade",
			SSLMode:  "disable",
		},
	}
}

// Load reads path over the defaults and applies environment overrides. A missing file is
// not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	cfg.applyEnv()

	if _, err := cfg.RoomConfig(); err != nil {
		return nil, err
	}
	if _, err := cfg.StaffRoles(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	c.Server.Port = getEnv("PORT", c.Server.Port)
	c.Server.LogLevel = getEnv("LOG_LEVEL", c.Server.LogLevel)
	c.Maps.File = getEnv("ARCADE_MAPS", c.Maps.File)

	c.NATS.URL = getEnv("NATS_URL", c.NATS.URL)
	c.NATS.Enabled = getEnvAsBool("NATS_ENABLED", c.NATS.Enabled)

	c.Database.Host = getEnv("DB_HOST", c.Database.Host)
	c.Database.Port = getEnvAsInt("DB_PORT", c.Database.Port)
	c.Database.User = getEnv("DB_USER", c.Database.User)
	c.Database.Password = getEnv("DB_PASSWORD", c.Database.Password)
	c.Database.Database = getEnv("DB_NAME", c.Database.Database)
	c.Database.SSLMode = getEnv("DB_SSLMODE", c.Database.SSLMode)
	c.Database.Enabled = getEnvAsBool("DB_ENABLED", c.Database.Enabled)
}

// RoomConfig converts the file settings into the room package's configuration.
func (c *Config) RoomConfig() (room.Config, error) {
	rc := room.DefaultConfig()
	rc.GameWaitTime = c.Room.GameWaitTime
	rc.PrivateRoomDeleteTime = c.Room.PrivateRoomDeleteTime
	rc.VoteOptions = c.Room.VoteOptions
	rc.Slots = c.Room.Slots
	rc.MaxSlots = c.Room.MaxSlots
	rc.StartMilestones = c.Room.StartMilestones
	rc.StartMessage = c.Messages.Start
	rc.MapSelectedMessage = c.Messages.MapSelected
	rc.LaunchFailedMessage = c.Messages.LaunchFailed

	if rc.GameWaitTime <= room.MinTimerTicks || rc.PrivateRoomDeleteTime <= room.MinTimerTicks {
		return room.Config{}, fmt.Errorf("room timers must be longer than %d seconds", room.MinTimerTicks)
	}
	if rc.Slots <= 0 || rc.Slots > rc.MaxSlots {
		return room.Config{}, fmt.Errorf("slots must be between 1 and max_slots (%d), got %d", rc.MaxSlots, rc.Slots)
	}
	if rc.VoteOptions <= 0 {
		return room.Config{}, fmt.Errorf("vote_options must be positive, got %d", rc.VoteOptions)
	}

	gt, ok := models.GameTypeByID(models.GameTypeID(c.Room.DefaultGameType))
	if !ok {
		gt, ok = models.GameTypeByName(c.Room.DefaultGameType)
	}
	if !ok {
		return room.Config{}, fmt.Errorf("unknown default game type %q", c.Room.DefaultGameType)
	}
	rc.DefaultGameType = gt.ID

	role, err := access.ParseRole(c.Room.PrivilegedRole)
	if err != nil {
		return room.Config{}, fmt.Errorf("invalid privileged role: %w", err)
	}
	rc.PrivilegedRole = role

	if c.Room.LaunchTimeout != "" {
		d, err := time.ParseDuration(c.Room.LaunchTimeout)
		if err != nil {
			return room.Config{}, fmt.Errorf("invalid launch timeout: %w", err)
		}
		rc.LaunchTimeout = d
	}

	rc.DeleteMessages, err = ParseDeleteMessages(c.Messages.RoomDeleted)
	if err != nil {
		return room.Config{}, err
	}
	return rc, nil
}

// StaffRoles returns the roles granted in the config file.
func (c *Config) StaffRoles() (access.StaticRoles, error) {
	roles := make(access.StaticRoles, len(c.Staff))
	for id, name := range c.Staff {
		playerID, err := uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("invalid staff player id %q: %w", id, err)
		}
		role, err := access.ParseRole(name)
		if err != nil {
			return nil, fmt.Errorf("invalid role for staff %s: %w", id, err)
		}
		roles[playerID] = role
	}
	return roles, nil
}

// ParseDeleteMessages reads "<seconds>, <text>" entries. Seconds may be fractional and are
// truncated.
func ParseDeleteMessages(entries []string) (map[int64]string, error) {
	out := make(map[int64]string, len(entries))
	for _, entry := range entries {
		secs, text, ok := strings.Cut(entry, ", ")
		if !ok {
			return nil, fmt.Errorf("room deleted message %q must be \"<seconds>, <text>\"", entry)
		}
		n, err := strconv.ParseFloat(strings.TrimSpace(secs), 64)
		if err != nil {
			return nil, fmt.Errorf("room deleted message %q: invalid seconds: %w", entry, err)
		}
		out[int64(n)] = text
	}
	return out, nil
}

// FormatDeleteMessages is the inverse of ParseDeleteMessages, highest seconds first.
func FormatDeleteMessages(messages map[int64]string) []string {
	secs := make([]int64, 0, len(messages))
	for s := range messages {
		secs = append(secs, s)
	}
	sort.Slice(secs, func(i, j int) bool { return secs[i] > secs[j] })

	out := make([]string, len(secs))
	for i, s := range secs {
		out[i] = fmt.Sprintf("%d, %s", s, messages[s])
	}
	return out
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
