package model

import "time"

// ----------------------------------------------------
// ================ Logging ================
type LogConfig struct {
	Level      string `envconfig:"LEVEL" default:"info"`
	Format     string `envconfig:"FORMAT" default:"json"` // json or console
	Output     string `envconfig:"OUTPUT" default:"stdout"`
	TimeFormat string `envconfig:"TIME_FORMAT" default:"rfc3339"`
	FilePath   string `envconfig:"FILE_PATH" default:"logs/leadchat.log"`
}

// ----------------------------------------------------
// ================ HTTP ================
type ServerConfig struct {
	Addr            string        `envconfig:"ADDR" default:":8080"`
	ReadTimeout     time.Duration `envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `envconfig:"WRITE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
	TrustedProxies  []string      `envconfig:"TRUSTED_PROXIES"`
	Mode            string        `envconfig:"MODE" default:"release"`
}

// ----------------------------------------------------
// ================ Storage ================
type StoreConfig struct {
	Backend         string        `envconfig:"BACKEND" default:"memory"` // memory, redis, sqlite
	RedisURL        string        `envconfig:"REDIS_URL" default:"redis://localhost:6379/0"`
	SQLitePath      string        `envconfig:"SQLITE_PATH" default:"data/leadchat.db"`
	ConversationTTL time.Duration `envconfig:"CONVERSATION_TTL" default:"720h"`
}

// ----------------------------------------------------
// ================ Rate limiting ================
type RateLimitConfig struct {
	Backend       string        `envconfig:"BACKEND" default:"memory"` // memory or redis
	ChatLimit     int           `envconfig:"CHAT_LIMIT" default:"20"`
	ChatWindow    time.Duration `envconfig:"CHAT_WINDOW" default:"1m"`
	ContactLimit  int           `envconfig:"CONTACT_LIMIT" default:"5"`
	ContactWindow time.Duration `envconfig:"CONTACT_WINDOW" default:"1h"`
	SweepInterval time.Duration `envconfig:"SWEEP_INTERVAL" default:"5m"`
	MaxKeys       int           `envconfig:"MAX_KEYS" default:"100000"`
}

// ----------------------------------------------------
// ================ LLM providers ================
// ProviderConfig describes one hosted model endpoint
type ProviderConfig struct {
	Kind        string  `envconfig:"KIND"` // openai, deepseek, ollama, ark, gemini
	APIKey      string  `envconfig:"API_KEY"`
	BaseURL     string  `envconfig:"BASE_URL"`
	GatewayURL  string  `envconfig:"GATEWAY_URL"`
	Model       string  `envconfig:"MODEL"`
	MaxTokens   int     `envconfig:"MAX_TOKENS" default:"1024"`
	Temperature float32 `envconfig:"TEMPERATURE" default:"0.7"`
}

// Enabled reports whether the provider has enough configuration to be called
func (p ProviderConfig) Enabled() bool {
	if p.Kind == "ollama" {
		return p.Model != ""
	}
	return p.Kind != "" && p.APIKey != ""
}

type LLMConfig struct {
	Order        []string       `envconfig:"ORDER" default:"primary,gateway,secondary"`
	Timeout      time.Duration  `envconfig:"TIMEOUT" default:"20s"`
	HistoryLimit int            `envconfig:"HISTORY_LIMIT" default:"10"`
	Primary      ProviderConfig `envconfig:"PRIMARY"`
	Secondary    ProviderConfig `envconfig:"SECONDARY"`
}

// ----------------------------------------------------
// ================ Email ================
type EmailConfig struct {
	Providers      []string      `envconfig:"PROVIDERS" default:"resend,sendgrid"`
	ResendAPIKey   string        `envconfig:"RESEND_API_KEY"`
	ResendBaseURL  string        `envconfig:"RESEND_BASE_URL" default:"https://api.resend.com"`
	SendGridAPIKey string        `envconfig:"SENDGRID_API_KEY"`
	SendGridURL    string        `envconfig:"SENDGRID_BASE_URL" default:"https://api.sendgrid.com"`
	From           string        `envconfig:"FROM" default:"assistant@localhost"`
	ContactTo      string        `envconfig:"CONTACT_TO"`
	LeadNotifyTo   string        `envconfig:"LEAD_NOTIFY_TO"`
	Timeout        time.Duration `envconfig:"TIMEOUT" default:"10s"`
}

// ----------------------------------------------------
// ================ Voice ================
type VoiceConfig struct {
	APIKey         string        `envconfig:"API_KEY"`
	BaseURL        string        `envconfig:"BASE_URL" default:"https://api.elevenlabs.io"`
	DefaultVoiceID string        `envconfig:"DEFAULT_VOICE_ID" default:"21m00Tcm4TlvDq8ikWAM"`
	ModelID        string        `envconfig:"MODEL_ID" default:"eleven_turbo_v2_5"`
	Timeout        time.Duration `envconfig:"TIMEOUT" default:"30s"`
}

// ----------------------------------------------------
// ================ Tracing ================
type TracingConfig struct {
	Enabled     bool   `envconfig:"ENABLED" default:"false"`
	ServiceName string `envconfig:"SERVICE_NAME" default:"leadchat"`
}
