package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Configはアプリ全体の設定
type Config struct {
	Port      string // サーバーポート（8080）
	GoEnv     string // development/production
	JWTSecret string // JWT署名シークレット

	Postgres PostgresConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Search   SearchConfig
	Mail     MailConfig
	Worker   WorkerConfig
}

type PostgresConfig struct {
	URL      string // DATABASE_URL があれば最優先
	Host     string
	Port     int
	User     string
	Password string
	DB       string
	SSLMode  string

	// 行ロック待ちの上限。超えたら503で返す
	LockTimeout time.Duration
}

// DSN は gorm.Open に渡す接続文字列
func (p PostgresConfig) DSN() string {
	if p.URL != "" {
		return p.URL
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.DB, p.SSLMode,
	)
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int

	// 管理画面向けの新規注文チャンネル
	OrdersChannel string
}

type KafkaConfig struct {
	Brokers     []string
	Topic       string // order_processing
	DeadLetter  string // order_processing.dlq
	GroupID     string
	Partitions  int
	Replication int
}

type SearchConfig struct {
	URL       string
	Index     string
	BatchSize int
}

type MailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Addr は host:port
func (m MailConfig) Addr() string {
	return fmt.Sprintf("%s:%d", m.Host, m.Port)
}

type WorkerConfig struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	SendTimeout    time.Duration

	// 確定後の publish / カート削除 / 通知 の上限時間
	PostCommitTimeout time.Duration

	// reconcile 対象にする注文の経過時間
	ReconcileAfter time.Duration
	ReconcileLimit int
}

// Loadは .env と環境変数から設定を読む
func Load() (Config, error) {
	// .env は無くてもよい（コンテナでは環境変数だけ）
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	cfg := Config{
		Port:      v.GetString("PORT"),
		GoEnv:     v.GetString("GO_ENV"),
		JWTSecret: v.GetString("JWT_SECRET"),

		Postgres: PostgresConfig{
			URL:         v.GetString("DATABASE_URL"),
			Host:        v.GetString("POSTGRES_HOST"),
			Port:        v.GetInt("POSTGRES_PORT"),
			User:        v.GetString("POSTGRES_USER"),
			Password:    v.GetString("POSTGRES_PASSWORD"),
			DB:          v.GetString("POSTGRES_DB"),
			SSLMode:     v.GetString("POSTGRES_SSLMODE"),
			LockTimeout: v.GetDuration("POSTGRES_LOCK_TIMEOUT"),
		},
		Redis: RedisConfig{
			Addr:          v.GetString("REDIS_ADDR"),
			Password:      v.GetString("REDIS_PASSWORD"),
			DB:            v.GetInt("REDIS_DB"),
			OrdersChannel: v.GetString("REDIS_ORDERS_CHANNEL"),
		},
		Kafka: KafkaConfig{
			Brokers:     splitList(v.GetString("KAFKA_BROKERS")),
			Topic:       v.GetString("KAFKA_ORDER_TOPIC"),
			DeadLetter:  v.GetString("KAFKA_ORDER_DLQ_TOPIC"),
			GroupID:     v.GetString("KAFKA_GROUP_ID"),
			Partitions:  v.GetInt("KAFKA_PARTITIONS"),
			Replication: v.GetInt("KAFKA_REPLICATION"),
		},
		Search: SearchConfig{
			URL:       v.GetString("SEARCH_URL"),
			Index:     v.GetString("SEARCH_INDEX"),
			BatchSize: v.GetInt("SEARCH_BATCH_SIZE"),
		},
		Mail: MailConfig{
			Host:     v.GetString("SMTP_HOST"),
			Port:     v.GetInt("SMTP_PORT"),
			Username: v.GetString("SMTP_USERNAME"),
			Password: v.GetString("SMTP_PASSWORD"),
			From:     v.GetString("MAIL_FROM"),
		},
		Worker: WorkerConfig{
			MaxAttempts:       v.GetInt("WORKER_MAX_ATTEMPTS"),
			InitialBackoff:    v.GetDuration("WORKER_INITIAL_BACKOFF"),
			MaxBackoff:        v.GetDuration("WORKER_MAX_BACKOFF"),
			SendTimeout:       v.GetDuration("WORKER_SEND_TIMEOUT"),
			PostCommitTimeout: v.GetDuration("POST_COMMIT_TIMEOUT"),
			ReconcileAfter:    v.GetDuration("RECONCILE_AFTER"),
			ReconcileLimit:    v.GetInt("RECONCILE_LIMIT"),
		},
	}

	//必須チェック
	if cfg.Postgres.URL == "" {
		if cfg.Postgres.User == "" {
			return Config{}, fmt.Errorf("POSTGRES_USER is required")
		}
		if cfg.Postgres.Password == "" {
			return Config{}, fmt.Errorf("POSTGRES_PASSWORD is required")
		}
		if cfg.Postgres.DB == "" {
			return Config{}, fmt.Errorf("POSTGRES_DB is required")
		}
	}
	if len(cfg.Kafka.Brokers) == 0 {
		return Config{}, fmt.Errorf("KAFKA_BROKERS is required")
	}
	if cfg.Worker.MaxAttempts < 1 {
		return Config{}, fmt.Errorf("WORKER_MAX_ATTEMPTS must be >= 1")
	}
	if cfg.Search.BatchSize < 1 {
		return Config{}, fmt.Errorf("SEARCH_BATCH_SIZE must be >= 1")
	}

	return cfg, nil
}

// RequireAPI はAPIプロセスだけが使う項目の必須チェック
func (c Config) RequireAPI() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	return nil
}

// RequireMail はworkerだけが使う項目の必須チェック
func (c Config) RequireMail() error {
	if c.Mail.Host == "" {
		return fmt.Errorf("SMTP_HOST is required")
	}
	if c.Mail.From == "" {
		return fmt.Errorf("MAIL_FROM is required")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("GO_ENV", "development")

	v.SetDefault("POSTGRES_HOST", "localhost")
	v.SetDefault("POSTGRES_PORT", 5432)
	v.SetDefault("POSTGRES_SSLMODE", "disable")
	v.SetDefault("POSTGRES_LOCK_TIMEOUT", 5*time.Second)

	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_ORDERS_CHANNEL", "admin:orders")

	v.SetDefault("KAFKA_BROKERS", "localhost:9092")
	v.SetDefault("KAFKA_ORDER_TOPIC", "order_processing")
	v.SetDefault("KAFKA_ORDER_DLQ_TOPIC", "order_processing.dlq")
	v.SetDefault("KAFKA_GROUP_ID", "order-fulfillment")
	v.SetDefault("KAFKA_PARTITIONS", 1)
	v.SetDefault("KAFKA_REPLICATION", 1)

	v.SetDefault("SEARCH_URL", "http://localhost:9200")
	v.SetDefault("SEARCH_INDEX", "products")
	v.SetDefault("SEARCH_BATCH_SIZE", 500)

	v.SetDefault("SMTP_PORT", 587)

	v.SetDefault("WORKER_MAX_ATTEMPTS", 5)
	v.SetDefault("WORKER_INITIAL_BACKOFF", time.Second)
	v.SetDefault("WORKER_MAX_BACKOFF", 30*time.Second)
	v.SetDefault("WORKER_SEND_TIMEOUT", 15*time.Second)
	v.SetDefault("POST_COMMIT_TIMEOUT", 5*time.Second)
	v.SetDefault("RECONCILE_AFTER", 10*time.Minute)
	v.SetDefault("RECONCILE_LIMIT", 100)
}

// カンマ区切りを分割する（空要素は捨てる）
func splitList(raw string) []string {
	var out []string
	for _, s := range strings.Split(raw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
