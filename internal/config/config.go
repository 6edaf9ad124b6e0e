package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Student StudentConfig `mapstructure:"student"`
	Catalog CatalogConfig `mapstructure:"catalog"`
	DB      DBConfig      `mapstructure:"db"`
	Engine  EngineConfig  `mapstructure:"engine"`
	Log     LogConfig     `mapstructure:"log"`
	Notify  NotifyConfig  `mapstructure:"notify"`
	LLM     LLMConfig     `mapstructure:"llm"`

	// File is the config file that was read, empty when none was found.
	File string `mapstructure:"-"`
}

type StudentConfig struct {
	ID string `mapstructure:"id"`

	// Tier "full" unlocks every lesson.
	Tier string `mapstructure:"tier"`

	// Overrides lists lesson ids unlocked by an administrator.
	Overrides []string `mapstructure:"overrides"`
}

type CatalogConfig struct {
	Path string `mapstructure:"path"`
}

type DBConfig struct {
	// DSN is a sqlite path or a postgres:// URL.
	DSN string `mapstructure:"dsn"`
}

type EngineConfig struct {
	TickInterval       time.Duration `mapstructure:"tick_interval"`
	DisplayDelay       time.Duration `mapstructure:"display_delay"`
	CheckpointInterval time.Duration `mapstructure:"checkpoint_interval"`
	CompletionDelay    time.Duration `mapstructure:"completion_delay"`
	PassMark           int           `mapstructure:"pass_mark"`
}

type LogConfig struct {
	File       string `mapstructure:"file"`
	Level      string `mapstructure:"level"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Console    bool   `mapstructure:"console"`
}

type NotifyConfig struct {
	// RedisAddr enables pub/sub notifications when set.
	RedisAddr string `mapstructure:"redis_addr"`
	Channel   string `mapstructure:"channel"`
}

type LLMConfig struct {
	Provider   string        `mapstructure:"provider"`
	Model      string        `mapstructure:"model"`
	MaxRetries int           `mapstructure:"max_retries"`
	Timeout    time.Duration `mapstructure:"timeout"`

	AnthropicKey string `mapstructure:"anthropic_api_key"`
	OpenAIKey    string `mapstructure:"openai_api_key"`
	GeminiKey    string `mapstructure:"gemini_api_key"`
}

// Dir returns the per-user lessonplay directory.
func Dir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "lessonplay")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".lessonplay"
	}
	return filepath.Join(home, ".config", "lessonplay")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("student.tier", "free")
	v.SetDefault("catalog.path", "lessons.yaml")
	v.SetDefault("db.dsn", "")

	v.SetDefault("engine.tick_interval", 500*time.Millisecond)
	v.SetDefault("engine.display_delay", 800*time.Millisecond)
	v.SetDefault("engine.checkpoint_interval", 5*time.Second)
	v.SetDefault("engine.completion_delay", 600*time.Millisecond)
	v.SetDefault("engine.pass_mark", 70)

	v.SetDefault("log.file", filepath.Join(Dir(), "lessonplay.log"))
	v.SetDefault("log.level", "info")
	v.SetDefault("log.max_size_mb", 20)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 28)
	v.SetDefault("log.console", false)

	v.SetDefault("notify.channel", "lessonplay.events")

	v.SetDefault("llm.provider", "")
	v.SetDefault("llm.max_retries", 3)
	v.SetDefault("llm.timeout", 60*time.Second)
}

// Load reads lessonplay.yaml (or the explicit file) and the LESSONPLAY_*
// environment. A missing config file is not an error.
func Load(file string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("LESSONPLAY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Provider keys under their conventional names.
	_ = v.BindEnv("llm.anthropic_api_key", "LESSONPLAY_LLM_ANTHROPIC_API_KEY", "ANTHROPIC_API_KEY")
	_ = v.BindEnv("llm.openai_api_key", "LESSONPLAY_LLM_OPENAI_API_KEY", "OPENAI_API_KEY")
	_ = v.BindEnv("llm.gemini_api_key", "LESSONPLAY_LLM_GEMINI_API_KEY", "GEMINI_API_KEY")

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("lessonplay")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(Dir())
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.File = v.ConfigFileUsed()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the engine can't run with.
func (c *Config) Validate() error {
	if c.Engine.PassMark < 0 || c.Engine.PassMark > 100 {
		return fmt.Errorf("engine.pass_mark must be between 0 and 100, got %d", c.Engine.PassMark)
	}
	if c.Engine.TickInterval <= 0 || c.Engine.TickInterval > time.Second {
		return fmt.Errorf("engine.tick_interval must be in (0, 1s], got %s", c.Engine.TickInterval)
	}
	return nil
}

// Unlocked reports whether the student's overrides include lessonID.
func (s StudentConfig) Unlocked(lessonID string) bool {
	for _, id := range s.Overrides {
		if id == lessonID {
			return true
		}
	}
	return false
}
