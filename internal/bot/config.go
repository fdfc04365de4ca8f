package bot

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	lark "github.com/larksuite/oapi-sdk-go/v3"
	"gopkg.in/yaml.v3"
)

const (
	defaultLogLevel = "info"
	defaultTimeout  = 30
)

var defaultBaseURL = lark.FeishuBaseUrl

type Config struct {
	AppID         string `yaml:"app_id"`
	AppSecret     string `yaml:"app_secret"`
	BaseURL       string `yaml:"base_url"`
	LogLevel      string `yaml:"log_level"`
	Timeout       int    `yaml:"timeout"`
	DefaultChatID string `yaml:"default_chat_id"`
	DefaultOpenID string `yaml:"default_open_id"`
}

// RequestTimeout is the per-request timeout handed to the SDK.
func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

// LoadConfig reads configuration from .env and the environment only.
func LoadConfig() (Config, error) {
	return LoadConfigFrom("")
}

// LoadConfigFrom layers configuration from ./.env, the environment and,
// when path is not empty, a YAML file. Later sources win. Defaults fill
// whatever is still unset. The result is not validated.
func LoadConfigFrom(path string) (Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return Config{}, err
	}

	cfg, err := configFromEnv()
	if err != nil {
		return Config{}, err
	}

	if path != "" {
		fileCfg, err := configFromFile(path)
		if err != nil {
			return Config{}, err
		}
		cfg.Merge(fileCfg)
	}

	cfg.applyDefaults()
	return cfg, nil
}

// loadDotEnv exports variables from a dotenv file without overriding ones
// already set. A missing file is not an error.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func configFromEnv() (Config, error) {
	cfg := Config{
		AppID:         strings.TrimSpace(os.Getenv("LARKBOT_APP_ID")),
		AppSecret:     strings.TrimSpace(os.Getenv("LARKBOT_APP_SECRET")),
		BaseURL:       strings.TrimSpace(os.Getenv("LARKBOT_BASE_URL")),
		LogLevel:      strings.TrimSpace(os.Getenv("LARKBOT_LOG_LEVEL")),
		DefaultChatID: strings.TrimSpace(os.Getenv("LARKBOT_DEFAULT_CHAT_ID")),
		DefaultOpenID: strings.TrimSpace(os.Getenv("LARKBOT_DEFAULT_OPEN_ID")),
	}
	if v := strings.TrimSpace(os.Getenv("LARKBOT_TIMEOUT")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid LARKBOT_TIMEOUT %q: %w", v, err)
		}
		cfg.Timeout = n
	}
	return cfg, nil
}

func configFromFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Merge overwrites every field of c that is set in other.
func (c *Config) Merge(other Config) {
	if other.AppID != "" {
		c.AppID = other.AppID
	}
	if other.AppSecret != "" {
		c.AppSecret = other.AppSecret
	}
	if other.BaseURL != "" {
		c.BaseURL = other.BaseURL
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.Timeout != 0 {
		c.Timeout = other.Timeout
	}
	if other.DefaultChatID != "" {
		c.DefaultChatID = other.DefaultChatID
	}
	if other.DefaultOpenID != "" {
		c.DefaultOpenID = other.DefaultOpenID
	}
}

func (c *Config) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = defaultBaseURL
	}
	if c.LogLevel == "" {
		c.LogLevel = defaultLogLevel
	}
	if c.Timeout == 0 {
		c.Timeout = defaultTimeout
	}
}

func (c Config) Validate() error {
	if c.AppID == "" || c.AppSecret == "" {
		return errors.New("app ID and app secret are required (LARKBOT_APP_ID, LARKBOT_APP_SECRET)")
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %d", c.Timeout)
	}
	return nil
}
