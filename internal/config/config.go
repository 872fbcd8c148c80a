// Package config loads the engine configuration from a JSON file, fills in
// defaults, validates, and applies environment overrides for secrets.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/tradelab/crypto-risk-engine/internal/risk"
	"github.com/tradelab/crypto-risk-engine/internal/strategy"
	"github.com/tradelab/crypto-risk-engine/internal/symbols"
)

// Config is the complete configuration for the risk engine.
type Config struct {
	Engine        EngineConfig        `json:"engine"`
	Strategy      strategy.ParamSet   `json:"strategy"`
	Risk          RiskConfig          `json:"risk_management"`
	Notifications *NotificationConfig `json:"notifications,omitempty"`
	Monitoring    MonitoringConfig    `json:"monitoring"`
}

// EngineConfig holds the evaluation-loop settings.
type EngineConfig struct {
	Symbol           string  `json:"symbol"`
	Interval         string  `json:"interval"`          // candle interval fed to indicators
	EvaluateInterval int     `json:"evaluate_interval"` // seconds between ticks
	Leverage         float64 `json:"leverage"`
	InitialBalance   float64 `json:"initial_balance"`
	TestMode         bool    `json:"test_mode"` // in-memory store, no order execution
	DataFile         string  `json:"data_file"` // candle history replayed as the market feed
	StateFile        string  `json:"state_file"`
	LogDir           string  `json:"log_dir"`
}

// RiskConfig wraps the risk limits with the trailing-stop and volatility
// settings that sit outside the pure limit set.
type RiskConfig struct {
	Limits risk.Limits `json:"limits"`

	TrailingStopEnabled   bool    `json:"trailing_stop_enabled"`
	TrailingActivationPct float64 `json:"trailing_activation_pct"`
	TrailingStopPct       float64 `json:"trailing_stop_pct"`

	VolatilityPeriod int `json:"volatility_period"`
	ATRPeriod        int `json:"atr_period"`
}

// NotificationConfig holds the alert channel settings. Secrets come from the
// environment, never from the config file.
type NotificationConfig struct {
	Enabled bool `json:"enabled"`

	TelegramToken string `json:"-"`
	TelegramChat  string `json:"telegram_chat,omitempty"`

	EmailEnabled bool     `json:"email_enabled"`
	SMTPHost     string   `json:"smtp_host,omitempty"`
	SMTPPort     int      `json:"smtp_port,omitempty"`
	SMTPUser     string   `json:"-"`
	SMTPPassword string   `json:"-"`
	EmailFrom    string   `json:"email_from,omitempty"`
	EmailTo      []string `json:"email_to,omitempty"`
}

// MonitoringConfig holds the HTTP endpoint ports.
type MonitoringConfig struct {
	Enabled        bool `json:"enabled"`
	PrometheusPort int  `json:"prometheus_port"`
	HealthPort     int  `json:"health_port"`
}

// Load reads a config file, applies defaults, environment overrides and
// validation. Bare filenames resolve under configs/ and get a .json suffix.
func Load(configFile string) (*Config, error) {
	if !strings.ContainsAny(configFile, "/\\") {
		configFile = filepath.Join("configs", configFile)
	}
	if !strings.HasSuffix(configFile, ".json") {
		configFile += ".json"
	}

	data, err := os.ReadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	config.setDefaults()
	config.applyEnvOverrides()

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// EvaluateEvery returns the tick interval as a duration.
func (c *Config) EvaluateEvery() time.Duration {
	return time.Duration(c.Engine.EvaluateInterval) * time.Second
}

func (c *Config) setDefaults() {
	if c.Engine.Interval == "" {
		c.Engine.Interval = "1h"
	}
	if c.Engine.EvaluateInterval == 0 {
		c.Engine.EvaluateInterval = 60
	}
	if c.Engine.Leverage == 0 {
		c.Engine.Leverage = 1.0
	}
	if c.Engine.InitialBalance == 0 {
		c.Engine.InitialBalance = 10000.0
	}
	if c.Engine.StateFile == "" {
		c.Engine.StateFile = "data/positions_state.json"
	}
	if c.Engine.LogDir == "" {
		c.Engine.LogDir = "logs"
	}

	defaults := risk.DefaultLimits()
	if c.Risk.Limits.StopLossPct == 0 {
		c.Risk.Limits.StopLossPct = defaults.StopLossPct
	}
	if c.Risk.Limits.TakeProfitPct == 0 {
		c.Risk.Limits.TakeProfitPct = defaults.TakeProfitPct
	}
	if c.Risk.Limits.MaxPositionSize == 0 {
		c.Risk.Limits.MaxPositionSize = defaults.MaxPositionSize
	}
	if c.Risk.Limits.RiskPerTrade == 0 {
		c.Risk.Limits.RiskPerTrade = defaults.RiskPerTrade
	}
	if c.Risk.Limits.DailyLossLimit == 0 {
		c.Risk.Limits.DailyLossLimit = defaults.DailyLossLimit
	}
	if c.Risk.Limits.MaxLossLimit == 0 {
		c.Risk.Limits.MaxLossLimit = defaults.MaxLossLimit
	}
	if c.Risk.Limits.MaxPositions == 0 {
		c.Risk.Limits.MaxPositions = defaults.MaxPositions
	}
	if c.Risk.Limits.BaseVolatility == 0 {
		c.Risk.Limits.BaseVolatility = defaults.BaseVolatility
	}
	if c.Risk.Limits.MinRiskPerTrade == 0 {
		c.Risk.Limits.MinRiskPerTrade = defaults.MinRiskPerTrade
	}
	if c.Risk.Limits.MaxRiskPerTrade == 0 {
		c.Risk.Limits.MaxRiskPerTrade = defaults.MaxRiskPerTrade
	}

	if c.Risk.TrailingActivationPct == 0 {
		c.Risk.TrailingActivationPct = 0.02
	}
	if c.Risk.TrailingStopPct == 0 {
		c.Risk.TrailingStopPct = 0.01
	}
	if c.Risk.VolatilityPeriod == 0 {
		c.Risk.VolatilityPeriod = 24
	}
	if c.Risk.ATRPeriod == 0 {
		c.Risk.ATRPeriod = 14
	}

	if c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 8080
	}
	if c.Monitoring.HealthPort == 0 {
		c.Monitoring.HealthPort = 8081
	}
	if c.Notifications != nil && c.Notifications.SMTPPort == 0 {
		c.Notifications.SMTPPort = 587
	}
}

// applyEnvOverrides pulls secrets and deploy-specific values from the
// environment. A .env file loaded at startup feeds these.
func (c *Config) applyEnvOverrides() {
	if c.Notifications != nil {
		c.Notifications.TelegramToken = getEnv("TELEGRAM_TOKEN", c.Notifications.TelegramToken)
		c.Notifications.TelegramChat = getEnv("TELEGRAM_CHAT_ID", c.Notifications.TelegramChat)
		c.Notifications.SMTPUser = getEnv("SMTP_USER", c.Notifications.SMTPUser)
		c.Notifications.SMTPPassword = getEnv("SMTP_PASSWORD", c.Notifications.SMTPPassword)
	}
	c.Engine.InitialBalance = getEnvFloat("INITIAL_BALANCE", c.Engine.InitialBalance)
	c.Monitoring.PrometheusPort = getEnvInt("PROMETHEUS_PORT", c.Monitoring.PrometheusPort)
	c.Monitoring.HealthPort = getEnvInt("HEALTH_PORT", c.Monitoring.HealthPort)
}

func (c *Config) validate() error {
	if c.Engine.Symbol == "" {
		return fmt.Errorf("trading symbol is required")
	}
	normalized, err := symbols.Normalize(c.Engine.Symbol)
	if err != nil {
		return fmt.Errorf("invalid trading symbol: %w", err)
	}
	c.Engine.Symbol = normalized

	if c.Engine.Leverage < 1.0 {
		return fmt.Errorf("leverage must be at least 1.0")
	}
	if c.Engine.InitialBalance <= 0 {
		return fmt.Errorf("initial balance must be greater than 0")
	}
	if c.Engine.EvaluateInterval < 1 {
		return fmt.Errorf("evaluate interval must be at least 1 second")
	}

	if err := c.Risk.Limits.Validate(); err != nil {
		return fmt.Errorf("risk limits: %w", err)
	}
	if c.Risk.TrailingStopEnabled {
		if c.Risk.TrailingActivationPct <= 0 || c.Risk.TrailingActivationPct >= 1 {
			return fmt.Errorf("trailing activation pct must be in (0, 1)")
		}
		if c.Risk.TrailingStopPct <= 0 || c.Risk.TrailingStopPct >= 1 {
			return fmt.Errorf("trailing stop pct must be in (0, 1)")
		}
	}

	if c.Strategy.Params != nil {
		if err := c.Strategy.Params.Validate(); err != nil {
			return fmt.Errorf("strategy params: %w", err)
		}
	}

	if c.Notifications != nil && c.Notifications.Enabled {
		if c.Notifications.TelegramToken == "" && !c.Notifications.EmailEnabled {
			return fmt.Errorf("notifications enabled but no channel configured")
		}
		if c.Notifications.EmailEnabled && c.Notifications.SMTPHost == "" {
			return fmt.Errorf("email notifications enabled but smtp_host missing")
		}
	}

	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}
