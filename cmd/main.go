package main

import (
	"log"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/lzx0713/FreeChat/config"
	"github.com/lzx0713/FreeChat/internal/broadcast"
	"github.com/lzx0713/FreeChat/internal/consumer"
	"github.com/lzx0713/FreeChat/internal/handlers"
	"github.com/lzx0713/FreeChat/internal/imagehost"
	"github.com/lzx0713/FreeChat/internal/repository"
	"github.com/lzx0713/FreeChat/internal/routers"
	"github.com/lzx0713/FreeChat/internal/service"
	"github.com/lzx0713/FreeChat/internal/storage"
	"github.com/lzx0713/FreeChat/internal/telegram"
	"github.com/lzx0713/FreeChat/internal/utils"
	"github.com/lzx0713/FreeChat/internal/ws"
	logpkg "github.com/lzx0713/FreeChat/middleware/log"
	"github.com/lzx0713/FreeChat/pkg/mq"
	"github.com/lzx0713/FreeChat/utils/ratelimit"
)

func main() {
	cfg, err := config.LoadConfig("./config.toml")
	if err != nil {
		log.Fatalf("配置初始化失败: %v", err)
	}

	logger, err := logpkg.NewLogger(&cfg.Logging)
	if err != nil {
		log.Fatalf("日志初始化失败: %v", err)
	}
	defer logger.Close()

	// 初始化全局 Worker Pool（协程池），防止高并发下 Goroutine 暴涨
	utils.InitGlobalWorkerPool(cfg.WorkerPool.Size, cfg.WorkerPool.QueueSize, logger.Logger)

	// 初始化 Redis（消息历史 + 附件登记表 + 限流计数）
	redisClient, err := storage.InitRedis(&cfg.Redis)
	if err != nil {
		log.Fatalf("redis 初始化失败: %v", err)
	}
	defer redisClient.Close()

	// WebSocket Hub，按会话给浏览器推送
	hub := ws.NewHub()
	go hub.Run()

	// Kafka 广播总线；不可用时降级为本机直推
	var broadcaster service.Broadcaster
	kafkaProducer, err := mq.NewKafkaProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	if err != nil {
		log.Printf("Kafka 生产者初始化失败: %v。广播降级为本机直推（仅单实例可见）。", err)
		broadcaster = broadcast.NewLocalBroadcaster(hub)
	} else {
		defer kafkaProducer.Close()
		broadcaster = broadcast.NewKafkaBroadcaster(kafkaProducer)

		msgConsumer := consumer.NewMessageConsumer(hub)
		consumer.StartConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.Topic, msgConsumer)
	}

	// Telegram 机器人文件中转
	botClient, err := telegram.NewClient(&cfg.Telegram)
	if err != nil {
		log.Fatalf("telegram 客户端初始化失败: %v", err)
	}
	if !botClient.Configured() {
		log.Printf("Telegram 凭证未配置，文件上传/下载接口将返回配置错误")
	}

	// 仓储层
	historyRepo := repository.NewHistoryRepository(redisClient, cfg.Chat.HistoryTTLDays)
	fileRepo := repository.NewFileRepository(redisClient)

	// 服务层
	fallback := service.NewMemoryCache()
	messageService := service.NewMessageService(historyRepo, broadcaster, fallback, cfg.Chat, logger)
	fileService := service.NewFileService(fileRepo)

	// 处理器
	messageHandler := handlers.NewMessageHandler(messageService)
	fileHandler := handlers.NewFileHandler(fileService, botClient)
	imageHandler := handlers.NewImageHandler(imagehost.NewClient(&cfg.ImageHost))

	// 限流器（Redis 计数，fail-open）
	limiter := ratelimit.NewWindowLimiter(redisClient, logger.Logger, true)

	gin.SetMode(cfg.Server.Mode)
	r := gin.Default()

	routers.SetupRoutes(r, cfg, messageHandler, fileHandler, imageHandler, hub, limiter)

	log.Printf("正在启动服务器，监听端口 :%d\n", cfg.Server.Port)
	if err := r.Run(":" + strconv.FormatInt(int64(cfg.Server.Port), 10)); err != nil {
		log.Fatalf("启动服务器失败: %v", err)
	}
}
