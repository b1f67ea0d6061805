package infra

import (
	"errors"
	"fmt"
	"os"
	"time"

	"stock_go/internal/domain"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultUserAgent is a browser-like user agent string to avoid bot detection
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// Config는 애플리케이션의 모든 설정을 담습니다.
// LoadConfig로 로드된 후에 환경 변수를 통해 민감 내용을 덮어씁니다.
type Config struct {
	App struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"app"`

	Source struct {
		Backend string `yaml:"backend"` // "chart" (HTTP) or "feed" (websocket)
		Chart   struct {
			BaseURL    string `yaml:"base_url"`
			TimeoutSec int    `yaml:"timeout_sec"`
		} `yaml:"chart"`
		Feed struct {
			WSURL      string `yaml:"ws_url"`
			AccessKey  string `yaml:"access_key"`
			SecretKey  string `yaml:"secret_key"`
			TimeoutSec int    `yaml:"timeout_sec"`
		} `yaml:"feed"`
		FetchTimeoutSec int `yaml:"fetch_timeout_sec"` // Overall per-load bound in the tiered store
		EpochYear       int `yaml:"epoch_year"`        // Start of the "full history" fetch window
	} `yaml:"source"`

	Cache struct {
		Dir string `yaml:"dir"`
	} `yaml:"cache"`

	History struct {
		Days         int    `yaml:"days"`          // Lookback window for batch runs
		SessionClose string `yaml:"session_close"` // Default "HH:MM" UTC bar time-of-day
		Concurrency  int    `yaml:"concurrency"`   // Parallel instrument fetches
	} `yaml:"history"`

	Export struct {
		Dir    string `yaml:"dir"`
		Format string `yaml:"format"` // csv, json, parquet; empty disables export
	} `yaml:"export"`

	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`

	Instruments []InstrumentConfig `yaml:"instruments"`
}

// InstrumentConfig declares one tracked instrument.
type InstrumentConfig struct {
	Symbol       string `yaml:"symbol"`
	Nickname     string `yaml:"nickname"`
	Name         string `yaml:"name"`
	SessionClose string `yaml:"session_close"` // Optional per-instrument override
}

// LoadConfig는 설정 파일을 읽고 파싱합니다.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", domain.ErrConfigNotFound, path)
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	// 4원칙: 보안 우선 - 환경 변수 오버라이드 지원
	overrideWithEnv(&cfg)

	// 5원칙: 설정 유효성 검사
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate checks configuration validity
func (c *Config) Validate() error {
	switch c.Source.Backend {
	case "chart":
		url := c.Source.Chart.BaseURL
		if url == "" || (!hasPrefix(url, "http://") && !hasPrefix(url, "https://")) {
			return &domain.ConfigError{Field: "source.chart.base_url", Err: fmt.Errorf("invalid URL: %q", url)}
		}
	case "feed":
		url := c.Source.Feed.WSURL
		if url == "" || (!hasPrefix(url, "ws://") && !hasPrefix(url, "wss://")) {
			return &domain.ConfigError{Field: "source.feed.ws_url", Err: fmt.Errorf("invalid URL: %q", url)}
		}
	default:
		return &domain.ConfigError{Field: "source.backend", Err: fmt.Errorf("must be \"chart\" or \"feed\", got %q", c.Source.Backend)}
	}

	if len(c.Instruments) == 0 {
		return &domain.ConfigError{Field: "instruments", Err: errors.New("at least one instrument is required")}
	}
	for i, inst := range c.Instruments {
		if inst.Symbol == "" {
			return &domain.ConfigError{Field: fmt.Sprintf("instruments[%d].symbol", i), Err: errors.New("symbol is required")}
		}
		if inst.SessionClose != "" {
			if _, err := time.Parse("15:04", inst.SessionClose); err != nil {
				return &domain.ConfigError{Field: fmt.Sprintf("instruments[%d].session_close", i), Err: err}
			}
		}
	}

	if c.History.Days <= 0 {
		return &domain.ConfigError{Field: "history.days", Err: errors.New("must be positive")}
	}
	if c.History.SessionClose != "" {
		if _, err := time.Parse("15:04", c.History.SessionClose); err != nil {
			return &domain.ConfigError{Field: "history.session_close", Err: err}
		}
	}

	switch c.Export.Format {
	case "", "csv", "json", "parquet":
	default:
		return &domain.ConfigError{Field: "export.format", Err: fmt.Errorf("unsupported format %q", c.Export.Format)}
	}

	return nil
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[0:len(prefix)] == prefix
}

// overrideWithEnv는 환경 변수가 존재할 경우 설정 값을 덮어씁니다.
func overrideWithEnv(cfg *Config) {
	if key := os.Getenv("STOCK_FEED_KEY"); key != "" {
		cfg.Source.Feed.AccessKey = key
	}
	if secret := os.Getenv("STOCK_FEED_SECRET"); secret != "" {
		cfg.Source.Feed.SecretKey = secret
	}
}
