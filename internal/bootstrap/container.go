package bootstrap

import (
	"context"
	"fmt"

	"arthik-chat-be/internal/config"
	"arthik-chat-be/internal/controller"
	"arthik-chat-be/internal/pkg/clock"
	"arthik-chat-be/internal/pkg/logger"
	"arthik-chat-be/internal/service"
	"arthik-chat-be/internal/websocket"
	"arthik-chat-be/pkg/assistant"
	"arthik-chat-be/pkg/database"
	"arthik-chat-be/pkg/historysync"
	"arthik-chat-be/pkg/llm"
	"arthik-chat-be/pkg/llm/factory"
	pktNats "arthik-chat-be/pkg/nats"
	"arthik-chat-be/pkg/paramstore"
	"arthik-chat-be/pkg/tokenizer"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/redis/go-redis/v9"
)

type Container struct {
	// Controllers
	ChatController   controller.IChatController
	HealthController controller.IHealthController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService
	WebSocketHub    *websocket.Hub

	Logger logger.ILogger

	closers []func()
}

func NewContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	c := &Container{}

	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())
	c.Logger = sysLogger

	uowFactory, closeStore, err := newRepositoryFactory(ctx, cfg, sysLogger)
	if err != nil {
		return nil, fmt.Errorf("session store: %w", err)
	}
	c.closers = append(c.closers, closeStore)

	sessionService := service.NewSessionService(uowFactory, clock.NewMonotonic())

	// 2. AI Adapter
	provider, err := newProvider(ctx, cfg)
	if err != nil {
		c.Close()
		return nil, err
	}
	sysLogger.Info("Bootstrap", "Using LLM provider", map[string]interface{}{
		"provider": provider.Name(),
		"model":    cfg.Ai.Model,
	})

	prompts := assistant.DefaultPrompts()
	if cfg.Ai.PromptsFile != "" {
		prompts, err = assistant.LoadPrompts(cfg.Ai.PromptsFile)
		if err != nil {
			c.Close()
			return nil, err
		}
	}

	adapter := assistant.New(provider, assistantConfig(cfg),
		assistant.WithHistorySource(sessionService),
		assistant.WithLogger(sysLogger),
		assistant.WithTokenizer(tokenizer.New(cfg.Ai.TokenizerEncoder)),
		assistant.WithPrompts(prompts),
	)

	// 3. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermillLogger)
	c.closers = append(c.closers, func() { _ = pubSub.Close() })

	// 4. Infrastructure
	var forwarder service.EventForwarder
	if cfg.Events.NatsURL != "" {
		natsPub, err := pktNats.NewPublisher(cfg.Events.NatsURL, sysLogger)
		if err != nil {
			sysLogger.Warn("Bootstrap", "NATS unavailable, events stay in process", map[string]interface{}{"error": err.Error()})
		} else {
			forwarder = natsPub
			c.closers = append(c.closers, natsPub.Close)
		}
	}

	rdb := newRedisClient(ctx, cfg, sysLogger)
	var history historysync.HistorySync = historysync.Noop{}
	if rdb != nil {
		history = historysync.NewRedisSync(rdb)
		c.closers = append(c.closers, func() { _ = rdb.Close() })
	}

	wsLogger := logger.NewIsolatedLogger(cfg.App.WsLogFilePath)
	c.WebSocketHub = websocket.NewHub(rdb, wsLogger)

	// 5. Services
	publisherService := service.NewPublisherService(cfg.Events.Topic, pubSub)
	c.ConsumerService = service.NewConsumerService(pubSub, cfg.Events.Topic, c.WebSocketHub, history, forwarder, sysLogger)

	chatService := service.NewChatService(sessionService, adapter, publisherService, history, cfg.Ai.TitleStrategy, sysLogger)

	// 6. Controllers
	c.ChatController = controller.NewChatController(chatService, c.WebSocketHub, cfg.Auth.Mode, cfg.Auth.JwtSecret, sysLogger)
	c.HealthController = controller.NewHealthController(cfg.App.Version)

	return c, nil
}

// Close releases connections in reverse order of creation.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.closers = nil
	if c.Logger != nil {
		_ = c.Logger.Sync()
	}
}

func newProvider(ctx context.Context, cfg *config.Config) (llm.LLMProvider, error) {
	apiKey := cfg.Ai.ApiKey
	if cfg.Ai.ApiKeyParam != "" {
		awsCfg, err := database.LoadAWSConfig(ctx, cfg.Database.AwsRegion)
		if err != nil {
			return nil, err
		}
		store, err := paramstore.New(ssm.NewFromConfig(awsCfg))
		if err != nil {
			return nil, err
		}
		apiKey, err = paramstore.ResolveSecret(ctx, store, cfg.Ai.ApiKeyParam, cfg.Ai.ApiKey)
		if err != nil {
			return nil, fmt.Errorf("resolve AI API key: %w", err)
		}
	}

	provider, err := factory.NewLLMProvider(ctx, factory.ProviderConfig{
		Provider: cfg.Ai.Provider,
		Model:    cfg.Ai.Model,
		ApiKey:   apiKey,
		BaseURL:  cfg.Ai.BaseURL,
	})
	if err != nil {
		return nil, fmt.Errorf("LLM provider: %w", err)
	}
	return provider, nil
}

func assistantConfig(cfg *config.Config) assistant.Config {
	return assistant.Config{
		Temperature:        cfg.Ai.Temperature,
		MaxTokens:          cfg.Ai.MaxTokens,
		RequestTimeout:     cfg.Ai.RequestTimeout,
		MaxAttempts:        cfg.Ai.MaxAttempts,
		RetryBaseDelay:     cfg.Ai.RetryBaseDelay,
		RetryMaxDelay:      cfg.Ai.RetryMaxDelay,
		RateLimitRPS:       cfg.Ai.RateLimitRPS,
		RateLimitBurst:     cfg.Ai.RateLimitBurst,
		ContextMaxSessions: cfg.Context.MaxSessions,
		ContextTTL:         cfg.Context.TTL,
		ContextMaxTurns:    cfg.Context.MaxTurns,
		ContextMaxTokens:   cfg.Context.MaxTokens,
	}
}

// newRedisClient returns nil when Redis is not configured or unreachable.
func newRedisClient(ctx context.Context, cfg *config.Config, log logger.ILogger) *redis.Client {
	if cfg.Events.RedisURL == "" {
		return nil
	}

	opt, err := redis.ParseURL(cfg.Events.RedisURL)
	if err != nil {
		log.Warn("Bootstrap", "Failed to parse Redis URL, using direct Addr", map[string]interface{}{"error": err.Error()})
		opt = &redis.Options{Addr: cfg.Events.RedisURL}
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warn("Bootstrap", "Redis unavailable, history sync disabled", map[string]interface{}{"error": err.Error()})
		_ = rdb.Close()
		return nil
	}
	return rdb
}
