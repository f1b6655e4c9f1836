package main

import (
	"flag"

	"github.com/joripage/futures-order-bot/config"
	"github.com/joripage/futures-order-bot/pkg/infra"
	"go.uber.org/zap"
)

func main() {
	var (
		configFile string
		source     string
	)
	flag.StringVar(&configFile, "config-file", "", "Specify config file path")
	flag.StringVar(&source, "source", "file://migration/sql", "Migration source URL")
	flag.Parse()

	logger, _ := zap.NewProduction()
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	cfg, err := config.Load(configFile)
	if err != nil {
		panic(err)
	}
	if cfg.Audit.OmsDB == nil || cfg.Audit.OmsDB.MigrationConnURL == "" {
		zap.S().Fatal("audit.oms_db.migration_conn_url is required")
	}

	if err := infra.Migrate(source, cfg.Audit.OmsDB.MigrationConnURL); err != nil {
		zap.S().Fatalf("migrate: %v", err)
	}
}
