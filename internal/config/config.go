package config

import (
	"flag"
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Addr        string `env:"RUN_ADDRESS" env-default:"localhost:8080"`
	DatabaseURL string `env:"DATABASE_URI"`

	WorkerCount          int           `env:"WORKER_COUNT" env-default:"4"`
	MaxRetries           int           `env:"TASK_MAX_RETRIES" env-default:"3"`
	RetryDelay           time.Duration `env:"TASK_RETRY_DELAY" env-default:"30s"`
	InProgressRetryDelay time.Duration `env:"TASK_IN_PROGRESS_RETRY_DELAY" env-default:"10s"`
	TaskTimeLimit        time.Duration `env:"TASK_TIME_LIMIT" env-default:"30m"`
	ScheduleDelay        time.Duration `env:"TASK_SCHEDULE_DELAY" env-default:"1s"`
	StageDelay           time.Duration `env:"SETTLEMENT_STAGE_DELAY" env-default:"500ms"`
}

func Load() (*Config, error) {
	cfg := &Config{}

	flag.StringVar(&cfg.Addr, "a", "localhost:8080", "адрес эндпоинта HTTP-сервера")
	flag.StringVar(&cfg.DatabaseURL, "d", "", "URL базы данных")

	flag.Parse()

	err := cleanenv.ReadEnv(cfg)
	if err != nil {
		return nil, fmt.Errorf("couldn't read environment variables: %w", err)
	}

	return cfg, nil
}
