package config

import (
	"fmt"
	"strings"

	"bitableqa/internal/record"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	// ProviderDeepSeek selects the DeepSeek chat completions agent
	ProviderDeepSeek = "deepseek"
	// ProviderGemini selects the Gemini agent
	ProviderGemini = "gemini"
)

// Config holds all configuration for the table assistant.
type Config struct {
	// Feishu application credentials
	FeishuAppID     string `mapstructure:"feishu_app_id"`
	FeishuAppSecret string `mapstructure:"feishu_app_secret"`

	// Table to load
	FeishuAppToken string `mapstructure:"feishu_app_token"`
	FeishuTableID  string `mapstructure:"feishu_table_id"`

	// Base URL for the Feishu open platform (configurable for testing)
	FeishuBaseURL    string `mapstructure:"feishu_base_url"`
	FeishuPageSize   int    `mapstructure:"feishu_page_size"`
	FeishuRetryCount int    `mapstructure:"feishu_retry_count"`

	// Requests per second allowed against the Feishu open platform
	FeishuRateLimit float64 `mapstructure:"feishu_rate_limit"`

	// Source field names for the date, category, amount and note columns
	Fields record.FieldMap `mapstructure:"fields"`

	// Analysis agent
	AgentProvider   string `mapstructure:"agent_provider"`
	DeepSeekAPIKey  string `mapstructure:"deepseek_api_key"`
	DeepSeekBaseURL string `mapstructure:"deepseek_base_url"`
	DeepSeekModel   string `mapstructure:"deepseek_model"`
	GeminiAPIKey    string `mapstructure:"gemini_api_key"`
	GeminiModel     string `mapstructure:"gemini_model"`
	GeminiBaseURL   string `mapstructure:"gemini_base_url"`

	LogLevel string `mapstructure:"log_level"`
}

// Load reads configuration from environment variables, an optional .env
// file and an optional config file. Environment variables take precedence
// over config file values.
//
// Expected environment variables:
//   - FEISHU_APP_ID, FEISHU_APP_SECRET
//   - FEISHU_APP_TOKEN, FEISHU_TABLE_ID
//   - DEEPSEEK_API_KEY (when AGENT_PROVIDER is deepseek, the default)
//   - GEMINI_API_KEY (when AGENT_PROVIDER is gemini)
//   - FEISHU_BASE_URL, FEISHU_PAGE_SIZE, FEISHU_RETRY_COUNT, FEISHU_RATE_LIMIT (optional)
//   - FIELD_DATE, FIELD_CATEGORY, FIELD_AMOUNT, FIELD_NOTE (optional)
//   - DEEPSEEK_BASE_URL, DEEPSEEK_MODEL, GEMINI_MODEL, GEMINI_BASE_URL (optional)
//   - LOG_LEVEL (optional, defaults to info)
func Load() (*Config, error) {
	// A missing .env is fine; variables already set are not overridden
	_ = godotenv.Load()

	v := viper.New()

	v.SetEnvPrefix("")
	v.AutomaticEnv()

	defaults := record.DefaultFieldMap()
	v.SetDefault("feishu_base_url", "https://open.feishu.cn/open-apis")
	v.SetDefault("feishu_page_size", 500)
	v.SetDefault("feishu_retry_count", 0)
	v.SetDefault("feishu_rate_limit", 20)
	v.SetDefault("fields.date", defaults.Date)
	v.SetDefault("fields.category", defaults.Category)
	v.SetDefault("fields.amount", defaults.Amount)
	v.SetDefault("fields.note", defaults.Note)
	v.SetDefault("agent_provider", ProviderDeepSeek)
	v.SetDefault("deepseek_base_url", "https://api.deepseek.com")
	v.SetDefault("deepseek_model", "deepseek-chat")
	v.SetDefault("gemini_model", "gemini-2.0-flash")
	v.SetDefault("log_level", "info")

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.bitableqa")

	// Read config file (ignore if not found)
	_ = v.ReadInConfig()

	bindings := map[string]string{
		"feishu_app_id":      "FEISHU_APP_ID",
		"feishu_app_secret":  "FEISHU_APP_SECRET",
		"feishu_app_token":   "FEISHU_APP_TOKEN",
		"feishu_table_id":    "FEISHU_TABLE_ID",
		"feishu_base_url":    "FEISHU_BASE_URL",
		"feishu_page_size":   "FEISHU_PAGE_SIZE",
		"feishu_retry_count": "FEISHU_RETRY_COUNT",
		"feishu_rate_limit":  "FEISHU_RATE_LIMIT",
		"fields.date":        "FIELD_DATE",
		"fields.category":    "FIELD_CATEGORY",
		"fields.amount":      "FIELD_AMOUNT",
		"fields.note":        "FIELD_NOTE",
		"agent_provider":     "AGENT_PROVIDER",
		"deepseek_api_key":   "DEEPSEEK_API_KEY",
		"deepseek_base_url":  "DEEPSEEK_BASE_URL",
		"deepseek_model":     "DEEPSEEK_MODEL",
		"gemini_api_key":     "GEMINI_API_KEY",
		"gemini_model":       "GEMINI_MODEL",
		"gemini_base_url":    "GEMINI_BASE_URL",
		"log_level":          "LOG_LEVEL",
	}
	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	config.AgentProvider = strings.ToLower(strings.TrimSpace(config.AgentProvider))

	// Validate required fields
	var missing []string
	if config.FeishuAppID == "" {
		missing = append(missing, "FEISHU_APP_ID")
	}
	if config.FeishuAppSecret == "" {
		missing = append(missing, "FEISHU_APP_SECRET")
	}
	if config.FeishuAppToken == "" {
		missing = append(missing, "FEISHU_APP_TOKEN")
	}
	if config.FeishuTableID == "" {
		missing = append(missing, "FEISHU_TABLE_ID")
	}

	switch config.AgentProvider {
	case ProviderDeepSeek:
		if config.DeepSeekAPIKey == "" {
			missing = append(missing, "DEEPSEEK_API_KEY")
		}
	case ProviderGemini:
		if config.GeminiAPIKey == "" {
			missing = append(missing, "GEMINI_API_KEY")
		}
	default:
		return nil, fmt.Errorf("unknown agent provider %q (want %s or %s)", config.AgentProvider, ProviderDeepSeek, ProviderGemini)
	}

	if config.FeishuRateLimit < 0 {
		return nil, fmt.Errorf("FEISHU_RATE_LIMIT must not be negative, got %v", config.FeishuRateLimit)
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}

	return config, nil
}
