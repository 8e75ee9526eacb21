package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const AppVersion = "1.0.0"

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Ai       AIConfig
	Context  ContextConfig
	Auth     AuthConfig
	Events   EventsConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	Version            string
	LogFilePath        string
	WsLogFilePath      string
	CorsAllowedOrigins string
	ShutdownTimeout    time.Duration
}

type DatabaseConfig struct {
	Driver      string // "memory", "postgres", "sqlite", "dynamodb", "mongodb"
	Connection  string
	AutoMigrate bool

	DynamoTable    string
	DynamoEndpoint string
	AwsRegion      string

	MongoURI      string
	MongoDatabase string
}

type AIConfig struct {
	Provider    string // "openai", "gemini", "ollama", "static"
	Model       string
	ApiKey      string
	ApiKeyParam string // SSM parameter name, takes precedence over ApiKey
	BaseURL     string

	Temperature float64
	MaxTokens   int

	RequestTimeout   time.Duration
	MaxAttempts      int
	RetryBaseDelay   time.Duration
	RetryMaxDelay    time.Duration
	RateLimitRPS     float64
	RateLimitBurst   int
	TitleStrategy    string // "content" or "model"
	PromptsFile      string
	TokenizerEncoder string
}

type ContextConfig struct {
	MaxSessions int
	TTL         time.Duration
	MaxTurns    int
	MaxTokens   int
}

type AuthConfig struct {
	Mode      string // "off", "optional", "required"
	JwtSecret string
}

type EventsConfig struct {
	Topic    string
	NatsURL  string
	RedisURL string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "5000"),
			Environment:        getEnv("GO_ENV", "development"),
			Version:            getEnv("APP_VERSION", AppVersion),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			WsLogFilePath:      getEnv("WS_LOG_FILE_PATH", "logs/chat_stream.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			ShutdownTimeout:    getEnvAsDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Database: DatabaseConfig{
			Driver:         strings.ToLower(getEnv("DB_DRIVER", "memory")),
			Connection:     getEnv("DB_CONNECTION_STRING", ""),
			AutoMigrate:    getEnvAsBool("DB_AUTO_MIGRATE", true),
			DynamoTable:    getEnv("DYNAMODB_TABLE", "arthik-chat"),
			DynamoEndpoint: getEnv("DYNAMODB_ENDPOINT", ""),
			AwsRegion:      getEnv("AWS_REGION", "us-east-1"),
			MongoURI:       getEnv("MONGODB_URI", "mongodb://localhost:27017"),
			MongoDatabase:  getEnv("MONGODB_DATABASE", "arthik_chat"),
		},
		Ai: AIConfig{
			Provider:         strings.ToLower(getEnv("AI_PROVIDER", "openai")),
			Model:            getEnv("AI_MODEL", "gpt-4o"),
			ApiKey:           getEnv("AI_API_KEY", getEnv("OPENAI_API_KEY", "")),
			ApiKeyParam:      getEnv("AI_API_KEY_PARAM", ""),
			BaseURL:          getEnv("AI_BASE_URL", ""),
			Temperature:      getEnvAsFloat("AI_TEMPERATURE", 0.7),
			MaxTokens:        getEnvAsInt("AI_MAX_TOKENS", 500),
			RequestTimeout:   getEnvAsDuration("AI_REQUEST_TIMEOUT", 30*time.Second),
			MaxAttempts:      getEnvAsInt("AI_MAX_ATTEMPTS", 3),
			RetryBaseDelay:   getEnvAsDuration("AI_RETRY_BASE_DELAY", time.Second),
			RetryMaxDelay:    getEnvAsDuration("AI_RETRY_MAX_DELAY", 8*time.Second),
			RateLimitRPS:     getEnvAsFloat("AI_RATE_LIMIT_RPS", 5),
			RateLimitBurst:   getEnvAsInt("AI_RATE_LIMIT_BURST", 10),
			TitleStrategy:    strings.ToLower(getEnv("TITLE_STRATEGY", "content")),
			PromptsFile:      getEnv("PROMPTS_FILE", ""),
			TokenizerEncoder: getEnv("TOKENIZER_ENCODING", "cl100k_base"),
		},
		Context: ContextConfig{
			MaxSessions: getEnvAsInt("CONTEXT_MAX_SESSIONS", 1000),
			TTL:         getEnvAsDuration("CONTEXT_TTL", time.Hour),
			MaxTurns:    getEnvAsInt("CONTEXT_MAX_TURNS", 10),
			MaxTokens:   getEnvAsInt("CONTEXT_MAX_TOKENS", 3000),
		},
		Auth: AuthConfig{
			Mode:      strings.ToLower(getEnv("AUTH_MODE", "off")),
			JwtSecret: getEnv("JWT_SECRET", ""),
		},
		Events: EventsConfig{
			Topic:    getEnv("CHAT_EVENTS_TOPIC", "chat_events"),
			NatsURL:  getEnv("NATS_URL", ""),
			RedisURL: getEnv("REDIS_URL", ""),
		},
	}
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}

// getEnvAsDuration accepts Go duration strings ("30s") or a bare number of seconds.
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if strValue == "" {
		return fallback
	}
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	if seconds, err := strconv.Atoi(strValue); err == nil {
		return time.Duration(seconds) * time.Second
	}
	return fallback
}
