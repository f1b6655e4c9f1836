package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/joripage/futures-order-bot/pkg/binance"
	"github.com/joripage/futures-order-bot/pkg/fixserver"
	"github.com/joripage/futures-order-bot/pkg/logging"
	eventstore "github.com/joripage/futures-order-bot/pkg/oms/event_store"
	fixgateway "github.com/joripage/futures-order-bot/pkg/oms/fix"
	"github.com/joripage/futures-order-bot/pkg/oms/paper"
	riskrule "github.com/joripage/futures-order-bot/pkg/oms/risk_rule"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

const (
	VenueBinance = "binance"
	VenueFIX     = "fix"
	VenuePaper   = "paper"
)

type AppConfig struct {
	ServiceName     string                 `yaml:"service_name"`
	Log             logging.Config         `yaml:"log"`
	Exchange        ExchangeConfig         `yaml:"exchange"`
	SubmitTimeoutMs int64                  `yaml:"submit_timeout_ms"`
	Audit           eventstore.Config      `yaml:"audit"`
	Risk            RiskConfig             `yaml:"risk"`
	FixServer       fixserver.ServerConfig `yaml:"fix_server"`
	Worker          WorkerConfig           `yaml:"worker"`
}

type ExchangeConfig struct {
	Venue   string                      `yaml:"venue"`
	Binance binance.Config              `yaml:"binance"`
	FIX     fixgateway.FixGatewayConfig `yaml:"fix"`
	Paper   paper.Config                `yaml:"paper"`
}

type RiskConfig struct {
	// ExchangeInfoFile is a saved /fapi/v1/exchangeInfo body for tick and step checks.
	ExchangeInfoFile string                        `yaml:"exchange_info_file"`
	PriceBands       map[string]riskrule.PriceBand `yaml:"price_bands"`
}

type WorkerConfig struct {
	Source  string `yaml:"source"` // nats or kafka
	Durable string `yaml:"durable"`
	GroupID string `yaml:"group_id"`
}

// Load load config from file and environment variables. A .env file in the
// working directory is read first so it can feed ${VAR} references.
func Load(filePath string) (*AppConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		zap.S().Warnf("load .env: %v", err)
	}

	if len(filePath) == 0 {
		filePath = os.Getenv("CONFIG_FILE")
	}

	sugar := zap.S().With("func", "config.readFromFile", "filePath", filePath)
	sugar.Debug("Load config...")

	configBytes, err := os.ReadFile(filePath)
	if err != nil {
		sugar.Error("Failed to load config file")
		return nil, err
	}
	configBytes = []byte(os.ExpandEnv(string(configBytes)))

	cfg := &AppConfig{}
	if err := yaml.Unmarshal(configBytes, cfg); err != nil {
		sugar.Error("Failed to parse config file")
		return nil, err
	}
	cfg.applyDefaults()

	return cfg, nil
}

func (c *AppConfig) applyDefaults() {
	if c.ServiceName == "" {
		c.ServiceName = "futures-order-bot"
	}
	if c.Exchange.Venue == "" {
		c.Exchange.Venue = VenueBinance
	}
	if c.SubmitTimeoutMs <= 0 {
		c.SubmitTimeoutMs = 15000
	}
	if c.Log.Level == "" {
		c.Log.Level = "INFO"
	}
	if c.Log.File == "" {
		c.Log.File = "trading_bot.log"
	}
	if c.Worker.Source == "" {
		c.Worker.Source = "nats"
	}
	if c.Worker.Durable == "" {
		c.Worker.Durable = "audit_worker"
	}
	if c.Worker.GroupID == "" {
		c.Worker.GroupID = "audit_worker"
	}
}

// Validate checks what the bot needs before it can submit.
func (c *AppConfig) Validate() error {
	switch c.Exchange.Venue {
	case VenueBinance:
		if c.Exchange.Binance.APIKey == "" || c.Exchange.Binance.SecretKey == "" {
			return errors.New("exchange.binance: api_key and secret_key are required")
		}
	case VenueFIX:
		if c.Exchange.FIX.ConfigFilepath == "" {
			return errors.New("exchange.fix: config_filepath is required")
		}
	case VenuePaper:
	default:
		return fmt.Errorf("exchange.venue: unsupported venue %q", c.Exchange.Venue)
	}
	return nil
}
