package main

import (
	"context"
	"flag"
	"os/signal"
	"syscall"

	"github.com/joripage/futures-order-bot/config"
	"github.com/joripage/futures-order-bot/pkg/fixserver"
	"github.com/joripage/futures-order-bot/pkg/logging"
	"go.uber.org/zap"
)

func main() {
	var configFile string
	flag.StringVar(&configFile, "config-file", "", "Specify config file path")
	flag.Parse()

	cfg, err := config.Load(configFile)
	if err != nil {
		panic(err)
	}

	logger := logging.NewLoggerWithConfig(logging.Config{Level: cfg.Log.Level}).With(zap.String("service", "fixserver"))
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	server := fixserver.NewServer(&cfg.FixServer, logger)
	if err := server.Start(); err != nil {
		logger.Fatal(ctx, "start fix server", zap.Error(err))
	}
	logger.Info(ctx, "simulated venue listening", zap.Strings("symbols", cfg.FixServer.Symbols))

	<-ctx.Done()
	logger.Info(ctx, "shutting down")
	server.Stop()
}
