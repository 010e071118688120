package config

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Config struct {
	TaskFile string
	LogLevel string
	Addr     string
}

func Load() Config {
	return Config{
		TaskFile: getEnv("TASK_CLI_FILE", "tasks.json"),
		LogLevel: getEnv("TASK_CLI_LOG_LEVEL", "warn"),
		Addr:     getEnv("TASK_CLI_ADDR", ":8080"),
	}
}

// BindFlags регистрирует глобальные флаги; значения из окружения становятся дефолтами
func (c *Config) BindFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&c.TaskFile, "file", "f", c.TaskFile, "path to the task store (env TASK_CLI_FILE)")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "log level: debug, info, warn, error (env TASK_CLI_LOG_LEVEL)")
}

// NewLogger собирает zap-логгер, пишущий в stderr
func (c Config) NewLogger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}

	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(level)
	zcfg.Encoding = "console"
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zcfg.OutputPaths = []string{"stderr"}
	zcfg.ErrorOutputPaths = []string{"stderr"}
	return zcfg.Build()
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
