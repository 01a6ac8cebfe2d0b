package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	Bank   BankConfig
	Store  StoreConfig
	Quiz   QuizConfig
	Logger LoggerConfig
	Redis  RedisConfig
}

// BankConfig points at the question bank file and the validation policy
// applied to every record in it.
type BankConfig struct {
	Path string `yaml:"path"`
	Mode string `yaml:"mode"`
}

type StoreConfig struct {
	Path          string `yaml:"path"`
	BusyTimeoutMs int    `yaml:"busy_timeout_ms"`
}

type QuizConfig struct {
	DefaultCount int    `yaml:"default_count"`
	DefaultMode  string `yaml:"default_mode"`
}

type LoggerConfig struct {
	Level string `yaml:"level"`
	Env   string `yaml:"env"`
}

// RedisConfig is optional. An empty Address disables the bank snapshot cache.
type RedisConfig struct {
	Address  string        `yaml:"address"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	BankTTL  time.Duration `yaml:"bank_ttl"`
}

var flagKeys = map[string]string{
	"config":    "",
	"bank":      "bank.path",
	"bank-mode": "bank.mode",
	"store":     "store.path",
	"log-level": "logger.level",
}

// BindFlags wires command-line flags into the global viper instance so that
// flags override the config file and the environment.
func BindFlags(fs *pflag.FlagSet) error {
	return bindFlags(viper.GetViper(), fs)
}

func bindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for name, key := range flagKeys {
		flag := fs.Lookup(name)
		if flag == nil {
			continue
		}
		if name == "config" {
			if flag.Changed {
				v.SetConfigFile(flag.Value.String())
			}
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("failed to bind flag %s: %w", name, err)
		}
	}
	return nil
}

func LoadConfig() (*Config, error) {
	return Load(viper.GetViper())
}

// Load reads configuration from v. A missing config file is not an error;
// defaults and environment variables still apply.
func Load(v *viper.Viper) (*Config, error) {
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	if os.Getenv("ENV") == "test" {
		v.AddConfigPath("../../configs")
		v.AddConfigPath("../../")
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("./configs")
	}

	setDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if configFile := v.ConfigFileUsed(); configFile != "" {
		if absPath, err := filepath.Abs(configFile); err == nil {
			fmt.Fprintf(os.Stderr, "Using config file: %s\n", absPath)
		}
	}

	config := &Config{
		Bank: BankConfig{
			Path: v.GetString("bank.path"),
			Mode: strings.ToLower(strings.TrimSpace(v.GetString("bank.mode"))),
		},
		Store: StoreConfig{
			Path:          v.GetString("store.path"),
			BusyTimeoutMs: v.GetInt("store.busy_timeout_ms"),
		},
		Quiz: QuizConfig{
			DefaultCount: v.GetInt("quiz.default_count"),
			DefaultMode:  v.GetString("quiz.default_mode"),
		},
		Logger: LoggerConfig{
			Level: v.GetString("logger.level"),
			Env:   v.GetString("logger.env"),
		},
		Redis: RedisConfig{
			Address:  v.GetString("redis.address"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
			BankTTL:  v.GetDuration("redis.bank_ttl"),
		},
	}

	// LOG_* do not follow the key layout, so they are mapped by hand.
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		config.Logger.Level = level
	}
	if env := os.Getenv("LOG_ENV"); env != "" {
		config.Logger.Env = env
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("bank.path", "questions.json")
	v.SetDefault("bank.mode", "strict")
	v.SetDefault("store.path", "quiz.db")
	v.SetDefault("store.busy_timeout_ms", 5000)
	v.SetDefault("quiz.default_count", 50)
	v.SetDefault("quiz.default_mode", "fresh")
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.env", "development")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.bank_ttl", 24*time.Hour)
}

// Validate rejects settings that would make the loader or selector misbehave.
func (c *Config) Validate() error {
	switch c.Bank.Mode {
	case "strict", "lenient":
	default:
		return fmt.Errorf("invalid bank.mode %q: must be strict or lenient", c.Bank.Mode)
	}
	if strings.TrimSpace(c.Bank.Path) == "" {
		return errors.New("bank.path must not be empty")
	}
	if c.Quiz.DefaultCount <= 0 {
		return fmt.Errorf("quiz.default_count must be positive, got %d", c.Quiz.DefaultCount)
	}
	if c.Store.BusyTimeoutMs < 0 {
		return fmt.Errorf("store.busy_timeout_ms must not be negative, got %d", c.Store.BusyTimeoutMs)
	}
	return nil
}
