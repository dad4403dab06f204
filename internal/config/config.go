// Package config loads the bot configuration file. Every setting has
// a default, so the bot runs without a file; an explicitly configured
// path must exist.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/colinh09/ps-ai-battler/internal/constants"
)

// DefaultPath is tried when PS_BATTLER_CONFIG is unset.
const DefaultPath = "./ps_battler_config.json"

type rawConfig struct {
	Server *struct {
		Address string `json:"address"`
	} `json:"server"`
	Showdown *struct {
		WebSocketURL string `json:"websocket_url"`
		ActionURL    string `json:"action_url"`
		Avatar       string `json:"avatar"`
	} `json:"showdown"`
	Battle *struct {
		Opponent               string `json:"opponent"`
		Format                 string `json:"format"`
		AutoAcceptChallenges   *bool  `json:"auto_accept_challenges"`
		AutoRechallenge        bool   `json:"auto_rechallenge"`
		DecisionTimeoutSeconds int    `json:"decision_timeout_seconds"`
		TurnDeadlineSeconds    int    `json:"turn_deadline_seconds"`
		LogLimit               int    `json:"log_limit"`
	} `json:"battle"`
	LLM *struct {
		BaseURL string `json:"base_url"`
		Model   string `json:"model"`
	} `json:"llm"`
	Dex *struct {
		DBPath  string `json:"db_path"`
		DataDir string `json:"data_dir"`
	} `json:"dex"`
}

// LoadedConfig is the resolved configuration with defaults applied.
type LoadedConfig struct {
	ServerAddress string

	WebSocketURL string
	ActionURL    string
	Avatar       string

	Opponent             string
	Format               string
	AutoAcceptChallenges bool
	AutoRechallenge      bool
	DecisionTimeout      time.Duration
	TurnDeadline         time.Duration
	LogLimit             int

	LLMBaseURL string
	LLMModel   string

	DBPath  string
	DataDir string
}

// Defaults returns the configuration used when no file is present.
func Defaults() *LoadedConfig {
	return &LoadedConfig{
		ServerAddress:        ":8080",
		WebSocketURL:         constants.ShowdownWebSocketURL,
		ActionURL:            constants.ShowdownActionURL,
		Avatar:               constants.DefaultAvatar,
		Format:               constants.DefaultFormat,
		AutoAcceptChallenges: true,
		DecisionTimeout:      30 * time.Second,
		TurnDeadline:         2 * time.Minute,
		LLMBaseURL:           constants.OpenAIBaseURL,
		LLMModel:             constants.OpenAIChatModel,
		DBPath:               "./data/dex.db",
		DataDir:              "./data",
	}
}

// Load resolves the configuration: the PS_BATTLER_CONFIG path when
// set, otherwise the default path, otherwise pure defaults.
func Load() (*LoadedConfig, error) {
	if path := os.Getenv(constants.EnvConfigPath); path != "" {
		return LoadConfig(path)
	}
	cfg, err := LoadConfig(DefaultPath)
	if errors.Is(err, os.ErrNotExist) {
		return Defaults(), nil
	}
	return cfg, err
}

// LoadConfig reads and validates the configuration file at path.
// Omitted sections and fields keep their defaults.
func LoadConfig(path string) (*LoadedConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	var rc rawConfig
	if err := json.Unmarshal(b, &rc); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	cfg := Defaults()

	if rc.Server != nil && rc.Server.Address != "" {
		cfg.ServerAddress = rc.Server.Address
	}
	if rc.Showdown != nil {
		if rc.Showdown.WebSocketURL != "" {
			cfg.WebSocketURL = rc.Showdown.WebSocketURL
		}
		if rc.Showdown.ActionURL != "" {
			cfg.ActionURL = rc.Showdown.ActionURL
		}
		if rc.Showdown.Avatar != "" {
			cfg.Avatar = rc.Showdown.Avatar
		}
	}
	if rc.Battle != nil {
		bt := rc.Battle
		cfg.Opponent = bt.Opponent
		if bt.AutoAcceptChallenges != nil {
			cfg.AutoAcceptChallenges = *bt.AutoAcceptChallenges
		}
		cfg.AutoRechallenge = bt.AutoRechallenge
		if bt.Format != "" {
			cfg.Format = bt.Format
		}
		if bt.DecisionTimeoutSeconds < 0 {
			return nil, fmt.Errorf("config file %s: decision_timeout_seconds must not be negative", path)
		}
		if bt.DecisionTimeoutSeconds > 0 {
			cfg.DecisionTimeout = time.Duration(bt.DecisionTimeoutSeconds) * time.Second
		}
		if bt.TurnDeadlineSeconds < 0 {
			return nil, fmt.Errorf("config file %s: turn_deadline_seconds must not be negative", path)
		}
		if bt.TurnDeadlineSeconds > 0 {
			cfg.TurnDeadline = time.Duration(bt.TurnDeadlineSeconds) * time.Second
		}
		if bt.LogLimit < 0 {
			return nil, fmt.Errorf("config file %s: log_limit must not be negative", path)
		}
		cfg.LogLimit = bt.LogLimit
	}
	// A turn that can expire before its decision would always fall back.
	if cfg.TurnDeadline <= cfg.DecisionTimeout {
		return nil, fmt.Errorf("config file %s: turn_deadline_seconds must exceed decision_timeout_seconds", path)
	}
	if rc.LLM != nil {
		if rc.LLM.BaseURL != "" {
			cfg.LLMBaseURL = rc.LLM.BaseURL
		}
		if rc.LLM.Model != "" {
			cfg.LLMModel = rc.LLM.Model
		}
	}
	if rc.Dex != nil {
		if rc.Dex.DBPath != "" {
			cfg.DBPath = rc.Dex.DBPath
		}
		if rc.Dex.DataDir != "" {
			cfg.DataDir = rc.Dex.DataDir
		}
	}

	return cfg, nil
}
