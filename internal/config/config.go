package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 应用配置
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	Database DatabaseConfig `mapstructure:"database"`
	Backend  BackendConfig  `mapstructure:"backend"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Publish  PublishConfig  `mapstructure:"publish"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Tasks    TasksConfig    `mapstructure:"tasks"`
}

type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"` // debug | release | test
	ShutdownTimeout time.Duration `mapstructure:"shutdown-timeout"`
	SpoolDir        string        `mapstructure:"spool-dir"` // multipart 临时文件目录
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type DatabaseConfig struct {
	Driver string `mapstructure:"driver"` // postgres | sqlite
	DSN    string `mapstructure:"dsn"`
	Debug  bool   `mapstructure:"debug"`
}

// BackendConfig 记录服务来源
// local: 直接读写本地数据库；remote: 通过 HTTP 调用已有后台
type BackendConfig struct {
	Mode    string        `mapstructure:"mode"`
	URL     string        `mapstructure:"url"`
	Token   string        `mapstructure:"token"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type StorageConfig struct {
	Provider        string `mapstructure:"provider"` // s3 | gcs | local
	Bucket          string `mapstructure:"bucket"`
	Region          string `mapstructure:"region"`
	AccessKey       string `mapstructure:"access-key"`
	SecretKey       string `mapstructure:"secret-key"`
	Endpoint        string `mapstructure:"endpoint"`
	PublicURL       string `mapstructure:"public-url"`
	BasePath        string `mapstructure:"base-path"`
	CredentialsFile string `mapstructure:"credentials-file"`
	Concurrency     int    `mapstructure:"concurrency"`
}

type PublishConfig struct {
	Strategy   string        `mapstructure:"strategy"` // two_phase | upload_first
	SessionTTL time.Duration `mapstructure:"session-ttl"`
}

type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

type JWTConfig struct {
	Secret string        `mapstructure:"secret"`
	TTL    time.Duration `mapstructure:"ttl"`
}

type TasksConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	SweepSpec     string        `mapstructure:"sweep-spec"`
	AuditSpec     string        `mapstructure:"audit-spec"`
	DegradedAfter time.Duration `mapstructure:"degraded-after"`
}

// setDefaults 每个键都需要默认值，AutomaticEnv 才会在 Unmarshal 时生效
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.shutdown-timeout", 30*time.Second)
	v.SetDefault("server.spool-dir", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", ".artifacts/market.db")
	v.SetDefault("database.debug", false)

	v.SetDefault("backend.mode", "local")
	v.SetDefault("backend.url", "")
	v.SetDefault("backend.token", "")
	v.SetDefault("backend.timeout", 30*time.Second)

	v.SetDefault("storage.provider", "local")
	v.SetDefault("storage.bucket", "market-media")
	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.access-key", "")
	v.SetDefault("storage.secret-key", "")
	v.SetDefault("storage.endpoint", "")
	v.SetDefault("storage.public-url", "")
	v.SetDefault("storage.base-path", "")
	v.SetDefault("storage.credentials-file", "")
	v.SetDefault("storage.concurrency", 4)

	v.SetDefault("publish.strategy", "two_phase")
	v.SetDefault("publish.session-ttl", 2*time.Hour)

	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.topic", "market.listing-events")

	v.SetDefault("jwt.secret", "market-admin-secret-key-change-in-production")
	v.SetDefault("jwt.ttl", 8*time.Hour)

	v.SetDefault("tasks.enabled", true)
	v.SetDefault("tasks.sweep-spec", "0 */5 * * * *")
	v.SetDefault("tasks.audit-spec", "0 0 * * * *")
	v.SetDefault("tasks.degraded-after", time.Hour)
}

// Load 读取全局 viper（已绑定命令行参数）
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom 默认值 < 配置文件 < 环境变量（MARKET_SERVER_PORT 等）< 命令行参数
func LoadFrom(v *viper.Viper) (*Config, error) {
	setDefaults(v)

	v.SetEnvPrefix("MARKET")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if v.ConfigFileUsed() == "" {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.market-admin")
	}
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}
	// 环境变量传入的逗号分隔列表
	if len(cfg.Kafka.Brokers) == 1 && strings.Contains(cfg.Kafka.Brokers[0], ",") {
		cfg.Kafka.Brokers = strings.Split(cfg.Kafka.Brokers[0], ",")
	}

	return &cfg, nil
}

// Validate 校验配置
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("database.driver 必须为 postgres 或 sqlite: %q", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("database.dsn 不能为空")
	}

	switch c.Backend.Mode {
	case "local":
	case "remote":
		if c.Backend.URL == "" {
			return fmt.Errorf("backend.mode=remote 时 backend.url 不能为空")
		}
	default:
		return fmt.Errorf("backend.mode 必须为 local 或 remote: %q", c.Backend.Mode)
	}

	switch c.Storage.Provider {
	case "s3", "gcs", "local":
	default:
		return fmt.Errorf("storage.provider 必须为 s3、gcs 或 local: %q", c.Storage.Provider)
	}
	if c.Storage.Bucket == "" {
		return fmt.Errorf("storage.bucket 不能为空")
	}
	if c.Storage.Concurrency <= 0 {
		return fmt.Errorf("storage.concurrency 必须为正数")
	}

	switch c.Publish.Strategy {
	case "two_phase", "upload_first":
	default:
		return fmt.Errorf("publish.strategy 必须为 two_phase 或 upload_first: %q", c.Publish.Strategy)
	}
	if c.Publish.SessionTTL <= 0 {
		return fmt.Errorf("publish.session-ttl 必须为正数")
	}

	if len(c.Kafka.Brokers) > 0 && c.Kafka.Topic == "" {
		return fmt.Errorf("配置了 kafka.brokers 时 kafka.topic 不能为空")
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("jwt.secret 不能为空")
	}
	return nil
}
