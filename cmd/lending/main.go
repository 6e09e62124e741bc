package main

import (
	stdLog "log"
	"time"

	"github.com/bookhive/lending-service/app"
	"github.com/bookhive/lending-service/config"

	"github.com/joho/godotenv"
	"go.uber.org/zap/zapcore"
)

func main() {
	if err := godotenv.Load(); err != nil {
		stdLog.Printf("load envs from .env: %v", err)
	}
	cfg := config.NewConfig(
		config.WithLogLevel(zapcore.DebugLevel),
		config.WithWriteTimeout(time.Minute),
	)

	app.Run(cfg)
}
