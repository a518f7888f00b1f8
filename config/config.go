package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Kafka      KafkaConfig      `mapstructure:"kafka"`
	Telegram   TelegramConfig   `mapstructure:"telegram"`
	ImageHost  ImageHostConfig  `mapstructure:"imagehost"`
	Chat       ChatConfig       `mapstructure:"chat"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	RateLimit  RateLimitConfig  `mapstructure:"ratelimit"`
	WorkerPool WorkerPoolConfig `mapstructure:"worker_pool"`
}

type ServerConfig struct {
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
	// MaxConcurrency 同时在处理的请求数上限，0 表示不限制
	MaxConcurrency int `mapstructure:"max_concurrency"`
}

type RedisConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Password     string `mapstructure:"password"`
	DB           int    `mapstructure:"db"`
	PoolSize     int    `mapstructure:"pool_size"`
	MinIdleConns int    `mapstructure:"min_idle_conns"`
}

type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
	GroupID string   `mapstructure:"group_id"`
}

// TelegramConfig 机器人文件中转配置
// Token 和 ChatID 从环境变量读取（见 LoadConfig），缺失时文件相关
// 接口降级为配置错误，不影响聊天主流程
type TelegramConfig struct {
	Token    string `mapstructure:"token"`
	ChatID   string `mapstructure:"chat_id"`
	APIBase  string `mapstructure:"api_base"`
	ProxyURL string `mapstructure:"proxy_url"`
}

// ImageHostConfig 外部图床：上传转发到 UploadEndpoint，
// 返回的路径拼上 BaseURL 得到公开地址
type ImageHostConfig struct {
	UploadEndpoint string `mapstructure:"upload_endpoint"`
	BaseURL        string `mapstructure:"base_url"`
}

// ChatConfig 消息内容的长度上限
type ChatConfig struct {
	DefaultSession string `mapstructure:"default_session"`
	MaxUserLen     int    `mapstructure:"max_user_len"`
	MaxTextLen     int    `mapstructure:"max_text_len"`
	MaxAttachments int    `mapstructure:"max_attachments"`
	HistoryTTLDays int    `mapstructure:"history_ttl_days"`
}

type LoggingConfig struct {
	Level    string `mapstructure:"level"`
	Format   string `mapstructure:"format"`
	Output   string `mapstructure:"output"`
	FilePath string `mapstructure:"file_path"`
}

type RateLimitConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Limit   int  `mapstructure:"limit"`
	Window  int  `mapstructure:"window_seconds"`
}

type WorkerPoolConfig struct {
	Size      int `mapstructure:"size"`
	QueueSize int `mapstructure:"queue_size"`
}

func LoadConfig(path string) (*Config, error) {
	// .env 不存在时忽略，环境变量依然生效
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(path)

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	// 敏感信息只从环境变量读取，避免写进配置文件
	if token := os.Getenv("TELEGRAM_BOT_TOKEN"); token != "" {
		config.Telegram.Token = token
	}
	if chatID := os.Getenv("TELEGRAM_CHAT_ID"); chatID != "" {
		config.Telegram.ChatID = chatID
	}
	if proxy := os.Getenv("PROXY_URL"); proxy != "" {
		config.Telegram.ProxyURL = proxy
	}
	if password := os.Getenv("REDIS_PASSWORD"); password != "" {
		config.Redis.Password = password
	}
	if endpoint := os.Getenv("IMAGE_UPLOAD_ENDPOINT"); endpoint != "" {
		config.ImageHost.UploadEndpoint = endpoint
	}
	if base := os.Getenv("IMAGE_BASE_URL"); base != "" {
		config.ImageHost.BaseURL = base
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.max_concurrency", 1024)
	v.SetDefault("telegram.api_base", "https://api.telegram.org")
	v.SetDefault("imagehost.upload_endpoint", "https://images.wykplus.online/upload")
	v.SetDefault("imagehost.base_url", "https://images.wykplus.online")
	v.SetDefault("chat.default_session", "public")
	v.SetDefault("chat.max_user_len", 50)
	v.SetDefault("chat.max_text_len", 500)
	v.SetDefault("chat.max_attachments", 10)
	v.SetDefault("chat.history_ttl_days", 2)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.output", "stdout")
}
