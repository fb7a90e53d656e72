package bootstrap

import (
	"context"
	"log"

	"bank-chatbot-be/internal/config"
	"bank-chatbot-be/internal/constant"
	"bank-chatbot-be/internal/controller"
	"bank-chatbot-be/internal/pkg/logger"
	"bank-chatbot-be/internal/repository/memory"
	"bank-chatbot-be/internal/repository/unitofwork"
	"bank-chatbot-be/internal/service"
	"bank-chatbot-be/pkg/contextcache"
	"bank-chatbot-be/pkg/document"
	"bank-chatbot-be/pkg/genai"
	pktNats "bank-chatbot-be/pkg/nats"
	pktSession "bank-chatbot-be/pkg/session"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	ChatController         controller.IChatController
	ConversationController controller.IConversationController
	CacheController        controller.ICacheController

	// Background Services (Exposed for main.go to run)
	AuditService service.IAuditService
	Sweeper      *pktSession.Sweeper
	Provisioner  *contextcache.Provisioner

	Logger logger.ILogger
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 2.5 Infrastructure
	// NATS
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}

	// Redis
	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v", err)
	}

	// 3. Model Client & Context Cache
	genaiClient := genai.NewClient(cfg.Keys.GoogleGemini, cfg.Chat.ModelName)

	holder := contextcache.NewHolder()
	provisioner := contextcache.NewProvisioner(
		genaiClient,
		document.NewLoader(),
		holder,
		contextcache.Config{
			DocumentPath:      cfg.Chat.DocumentPath,
			DisplayName:       cfg.Chat.CacheDisplayName,
			SystemInstruction: constant.SystemInstruction,
			TTL:               cfg.Chat.CacheTTL,
			MetadataPath:      cfg.Chat.CacheMetadataPath,
		},
		sysLogger,
	)

	// 4. Session Registry
	sessionRepo := memory.NewSessionRepository(cfg.Chat.SessionDuration, cfg.Chat.SweepInterval)
	registry := pktSession.NewRegistry(sessionRepo, nil)
	sweeper := pktSession.NewSweeper(registry, cfg.Chat.SweepInterval, sysLogger)

	// 5. Services
	publisherService := service.NewPublisherService(cfg.Keys.AuditTopic, pubSub)
	auditService := service.NewAuditService(
		pubSub,
		cfg.Keys.AuditTopic,
		uowFactory,
		rdb,
		natsPub,
	)

	chatService := service.NewChatService(
		registry,
		holder,
		genaiClient,
		publisherService,
		uowFactory,
		cfg.Chat.MaxRequestsPerSession,
		cfg.Chat.SessionDuration,
		sysLogger,
	)
	conversationService := service.NewConversationService(uowFactory, rdb, sysLogger)
	cacheService := service.NewCacheService(holder, provisioner, genaiClient, natsPub, sysLogger)

	// 6. Controllers
	return &Container{
		ChatController:         controller.NewChatController(chatService),
		ConversationController: controller.NewConversationController(conversationService),
		CacheController:        controller.NewCacheController(cacheService),
		AuditService:           auditService,
		Sweeper:                sweeper,
		Provisioner:            provisioner,
		Logger:                 sysLogger,
	}
}
