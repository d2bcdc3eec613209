/*-------------------------------------------------------------------------
 *
 * config.go
 *    Configuration management for NeuronChat
 *
 * Provides configuration loading from YAML files and environment
 * variables with sensible defaults for all subsystems.
 *
 * Copyright (c) 2024-2026, neurondb, Inc. <admin@neurondb.com>
 *
 * IDENTIFICATION
 *    NeuronChat/internal/config/config.go
 *
 *-------------------------------------------------------------------------
 */

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Session    SessionConfig    `yaml:"session"`
	Routing    RoutingConfig    `yaml:"routing"`
	Workflow   WorkflowConfig   `yaml:"workflow"`
	Federation FederationConfig `yaml:"federation"`
	Knowledge  KnowledgeConfig  `yaml:"knowledge"`
	Logging    LoggingConfig    `yaml:"logging"`
}

type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	Database        string        `yaml:"database"`
	SSLMode         string        `yaml:"ssl_mode"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time"`
}

type SessionConfig struct {
	TTL             time.Duration `yaml:"ttl"`
	CacheSize       int           `yaml:"cache_size"`
	CacheTTL        time.Duration `yaml:"cache_ttl"`
	CleanupInterval time.Duration `yaml:"cleanup_interval"`
	HistoryWindow   int           `yaml:"history_window"`
}

/* RoutingConfig controls the message router and its classifiers */
type RoutingConfig struct {
	/* AI-backed classification paths */
	AIFollowUpEnabled     bool          `yaml:"ai_followup_enabled"`
	AIPositionalEnabled   bool          `yaml:"ai_positional_enabled"`
	RulesFallbackOnAIFail bool          `yaml:"rules_fallback_on_ai_failure"`
	ClassifierTimeout     time.Duration `yaml:"classifier_timeout"`
	ClassifierModel       string        `yaml:"classifier_model"`
	MaxPositionalIndex    int           `yaml:"max_positional_index"`
	/* Remappable label vocabulary for the follow-up classifier */
	FollowUpLabels FollowUpLabels `yaml:"followup_labels"`
}

/* FollowUpLabels remaps the follow-up classifier's label vocabulary */
type FollowUpLabels struct {
	FollowUpAnswer string `yaml:"followup_answer"`
	RefreshList    string `yaml:"refresh_list"`
	EntityLookup   string `yaml:"entity_lookup"`
	NewQuery       string `yaml:"new_query"`
}

type WorkflowConfig struct {
	SkipConfirmInSubflow bool `yaml:"skip_confirm_in_subflow"`
	MaxStackDepth        int  `yaml:"max_stack_depth"`
}

type FederationConfig struct {
	Enabled                   bool          `yaml:"enabled"`
	ForwardTimeout            time.Duration `yaml:"forward_timeout"`
	AssumeContinuationOnError bool          `yaml:"assume_continuation_on_error"`
	MinMatchWords             int           `yaml:"min_match_words"`
}

/* KnowledgeConfig controls the search backend and reply generation */
type KnowledgeConfig struct {
	Collections []string `yaml:"collections"`
	EmbedModel  string   `yaml:"embed_model"`
	SearchLimit int      `yaml:"search_limit"`
	ChatModel   string   `yaml:"chat_model"`
	ChatTokens  int      `yaml:"chat_tokens"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

/* DefaultConfig returns a configuration with sensible defaults */
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8090,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    120 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			Host:            "localhost",
			Port:            5432,
			User:            "neurondb",
			Password:        "",
			Database:        "neurondb",
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
			ConnMaxIdleTime: 10 * time.Minute,
		},
		Session: SessionConfig{
			TTL:             24 * time.Hour,
			CacheSize:       1000,
			CacheTTL:        15 * time.Minute,
			CleanupInterval: time.Hour,
			HistoryWindow:   6,
		},
		Routing: RoutingConfig{
			AIFollowUpEnabled:     true,
			AIPositionalEnabled:   true,
			RulesFallbackOnAIFail: true,
			ClassifierTimeout:     10 * time.Second,
			ClassifierModel:       "",
			MaxPositionalIndex:    20,
			FollowUpLabels: FollowUpLabels{
				FollowUpAnswer: "FOLLOW_UP_ANSWER",
				RefreshList:    "REFRESH_LIST",
				EntityLookup:   "ENTITY_LOOKUP",
				NewQuery:       "NEW_QUERY",
			},
		},
		Workflow: WorkflowConfig{
			SkipConfirmInSubflow: true,
			MaxStackDepth:        8,
		},
		Federation: FederationConfig{
			Enabled:                   false,
			ForwardTimeout:            30 * time.Second,
			AssumeContinuationOnError: false,
			MinMatchWords:             5,
		},
		Knowledge: KnowledgeConfig{
			Collections: []string{"documents"},
			EmbedModel:  "all-MiniLM-L6-v2",
			SearchLimit: 5,
			ChatModel:   "",
			ChatTokens:  500,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

/* LoadConfig loads configuration from a YAML file, applying defaults first */
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config load failed: path='%s', error=%w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config parse failed: path='%s', error=%w", path, err)
	}

	return cfg, nil
}

/* LoadFromEnv overrides configuration values from environment variables */
func LoadFromEnv(cfg *Config) {
	if v := os.Getenv("NEURONCHAT_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("NEURONCHAT_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("NEURONCHAT_DB_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("NEURONCHAT_DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Database.Port = port
		}
	}
	if v := os.Getenv("NEURONCHAT_DB_USER"); v != "" {
		cfg.Database.User = v
	}
	if v := os.Getenv("NEURONCHAT_DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("NEURONCHAT_DB_NAME"); v != "" {
		cfg.Database.Database = v
	}
	if v := os.Getenv("NEURONCHAT_SESSION_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Session.TTL = d
		}
	}
	if v := os.Getenv("NEURONCHAT_FEDERATION_ENABLED"); v != "" {
		cfg.Federation.Enabled = v == "true" || v == "1"
	}
	if v := os.Getenv("NEURONCHAT_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("NEURONCHAT_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
}

/* ConnString builds the PostgreSQL connection string */
func (c DatabaseConfig) ConnString() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}
