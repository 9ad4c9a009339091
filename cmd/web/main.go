package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/kataras/iris/v12"
	"go.uber.org/zap"

	"github.com/MainDotCpp/BlueUnion/internal/config"
	"github.com/MainDotCpp/BlueUnion/internal/logging"
	"github.com/MainDotCpp/BlueUnion/internal/server"
)

func main() {
	// .env 可选，覆盖环境变量
	_ = godotenv.Load()

	cfg, err := config.Load("./config")
	if err != nil {
		log.Fatalf("load config failed: %v", err)
	}
	if err := logging.Init(&cfg.Log); err != nil {
		log.Fatalf("init logger failed: %v", err)
	}

	app := iris.New()
	server.RegisterRoutes(app, cfg)

	addr := cfg.Server.Addr()
	zap.L().Info("web server listening", zap.String("addr", addr))
	if err := app.Run(iris.Addr(addr), iris.WithoutServerError(iris.ErrServerClosed)); err != nil {
		zap.L().Fatal("web server exited", zap.Error(err))
	}
}
