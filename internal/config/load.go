package config

import (
	"encoding/json"
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	Bot      BotConfig      `json:"bot"`
	Storage  StorageConfig  `json:"storage"`
	Leveling LevelingConfig `json:"leveling"`
	Backup   BackupConfig   `json:"backup"`
	API      APIConfig      `json:"api"`
}

type BotConfig struct {
	Token    string `json:"token"`
	ClientID string `json:"client_id"`
}

type StorageConfig struct {
	DataFile     string `json:"data_file"`
	SettingsFile string `json:"settings_file"`
	BackupDir    string `json:"backup_dir"`
	AuditDB      string `json:"audit_db"`
	SaveRetries  int    `json:"save_retries"`
	RetryDelayMS int    `json:"retry_delay_ms"`
}

type LevelingConfig struct {
	MessageXPMin       int64 `json:"message_xp_min"`
	MessageXPMax       int64 `json:"message_xp_max"`
	ReactionGivenXP    int64 `json:"reaction_given_xp"`
	ReactionReceivedXP int64 `json:"reaction_received_xp"`
	VoiceXPPerMinute   int64 `json:"voice_xp_per_minute"`
	MessageCooldownSec int   `json:"message_cooldown_sec"`
	VoiceTickSec       int   `json:"voice_tick_sec"`
	QueueSize          int   `json:"queue_size"`
}

type BackupConfig struct {
	Enabled     bool `json:"enabled"`
	IntervalMin int  `json:"interval_min"`
	DailyHour   int  `json:"daily_hour"`
	MaxBackups  int  `json:"max_backups"`
}

type APIConfig struct {
	Enabled    bool   `json:"enabled"`
	Listen     string `json:"listen"`
	AdminToken string `json:"admin_token"`
}

var GlobalConfig *Config

func Load(path string) (*Config, error) {
	// .env is optional; real environment always wins over it
	godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	GlobalConfig = cfg
	return cfg, nil
}

func LoadOrDefault(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		godotenv.Load()
		cfg = DefaultConfig()
		applyEnvOverrides(cfg)
		GlobalConfig = cfg
	}
	return cfg
}

func applyEnvOverrides(cfg *Config) {
	if token := os.Getenv("DISCORD_TOKEN"); token != "" {
		cfg.Bot.Token = token
	}
	if clientID := os.Getenv("CLIENT_ID"); clientID != "" {
		cfg.Bot.ClientID = clientID
	}
	if token := os.Getenv("ADMIN_API_TOKEN"); token != "" {
		cfg.API.AdminToken = token
	}
	if listen := os.Getenv("ADMIN_API_LISTEN"); listen != "" {
		cfg.API.Listen = listen
	}
}

func DefaultConfig() *Config {
	return &Config{
		Bot: BotConfig{},
		Storage: StorageConfig{
			DataFile:     "data/levels.json",
			SettingsFile: "data/level_settings.json",
			BackupDir:    "data/backups",
			AuditDB:      "data/modactions.db",
			SaveRetries:  3,
			RetryDelayMS: 50,
		},
		Leveling: LevelingConfig{
			MessageXPMin:       15,
			MessageXPMax:       25,
			ReactionGivenXP:    5,
			ReactionReceivedXP: 3,
			VoiceXPPerMinute:   10,
			MessageCooldownSec: 60,
			VoiceTickSec:       60,
			QueueSize:          4096,
		},
		Backup: BackupConfig{
			Enabled:     true,
			IntervalMin: 30,
			DailyHour:   4,
			MaxBackups:  50,
		},
		API: APIConfig{
			Enabled: false,
			Listen:  "127.0.0.1:8087",
		},
	}
}
