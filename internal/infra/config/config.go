package config

import (
	"log"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// AppConfig описывает конфигурацию бота.
type AppConfig struct {
	AppEnv string `envconfig:"APP_ENV" default:"dev"`
	Port   int    `envconfig:"PORT" default:"8080"`

	Telegram struct {
		Token       string `envconfig:"TG_BOT_TOKEN"`
		PollTimeout int    `envconfig:"TG_POLL_TIMEOUT" default:"30"`
	} `envconfig:""`

	Moderation struct {
		BanThreshold   int           `envconfig:"BAN_THRESHOLD" default:"3"`
		NoticeTTL      time.Duration `envconfig:"NOTICE_TTL" default:"120s"`
		AmbiguousLimit int           `envconfig:"AMBIGUOUS_LIMIT" default:"5"`
		WorkerPool     int           `envconfig:"WORKER_POOL_SIZE" default:"16"`
	} `envconfig:""`

	Ledger struct {
		Backend string `envconfig:"LEDGER_BACKEND" default:"file"`
		File    string `envconfig:"WARNINGS_FILE" default:"warnings.json"`
	} `envconfig:""`

	Audit struct {
		Backend string `envconfig:"AUDIT_BACKEND" default:"nop"`
		Queue   string `envconfig:"AUDIT_QUEUE_KEY" default:"moderation_audit"`
	} `envconfig:""`

	PGDSN string `envconfig:"PG_DSN"`

	RedisAddr string `envconfig:"REDIS_ADDR"`

	AMQPURL string `envconfig:"AMQP_URL"`
}

// Load загружает конфиг из окружения.
func Load() AppConfig {
	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatalf("не удалось загрузить конфиг: %v", err)
	}
	return cfg
}
