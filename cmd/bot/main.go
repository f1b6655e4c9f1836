package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joripage/futures-order-bot/config"
	"github.com/joripage/futures-order-bot/pkg/binance"
	"github.com/joripage/futures-order-bot/pkg/logging"
	"github.com/joripage/futures-order-bot/pkg/oms"
	eventstore "github.com/joripage/futures-order-bot/pkg/oms/event_store"
	fixgateway "github.com/joripage/futures-order-bot/pkg/oms/fix"
	"github.com/joripage/futures-order-bot/pkg/oms/model"
	"github.com/joripage/futures-order-bot/pkg/oms/paper"
	riskrule "github.com/joripage/futures-order-bot/pkg/oms/risk_rule"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	exitOK       = 0
	exitFailure  = 1
	exitBadInput = 2
)

type cliArgs struct {
	configFile string
	strictExit bool
	request    model.OrderRequest
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	cli, err := parseArgs(args, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "Invalid input: %v\n", err)
		return exitBadInput
	}

	if err := riskrule.Validate(cli.request); err != nil {
		fmt.Fprintf(stdout, "Error occurred: %v\n", err)
		return exitFailure
	}

	cfg, err := config.Load(cli.configFile)
	if err != nil {
		fmt.Fprintf(stderr, "Error occurred: load config: %v\n", err)
		return exitFailure
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "Error occurred: %v\n", err)
		return exitFailure
	}

	logger := logging.NewLoggerWithConfig(cfg.Log).With(zap.String("service", cfg.ServiceName))
	defer logger.Sync()
	zap.ReplaceGlobals(logger.Zap())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	validator, err := newValidator(cfg.Risk)
	if err != nil {
		fmt.Fprintf(stderr, "Error occurred: %v\n", err)
		return exitFailure
	}

	gateway, closeGateway, err := newGateway(ctx, cfg, logger)
	if err != nil {
		fmt.Fprintf(stderr, "Error occurred: %v\n", err)
		return exitFailure
	}
	defer closeGateway()

	sinks, err := eventstore.Open(&cfg.Audit)
	if err != nil {
		fmt.Fprintf(stderr, "Error occurred: %v\n", err)
		return exitFailure
	}
	defer sinks.Close()

	executor := oms.NewOrderExecutor(gateway, sinks, &oms.OrderExecutorConfig{
		Validator:    validator,
		Logger:       logger,
		AuditTimeout: cfg.Audit.Timeout(),
	})

	submitCtx, cancel := context.WithTimeout(ctx, time.Duration(cfg.SubmitTimeoutMs)*time.Millisecond)
	defer cancel()

	result, err := executor.Submit(submitCtx, cli.request)
	if err != nil {
		fmt.Fprintf(stderr, "Warning: %v\n", err)
	}
	printResult(stdout, result)

	if cli.strictExit && !result.Placed() {
		return exitFailure
	}
	return exitOK
}

func parseArgs(args []string, stderr io.Writer) (*cliArgs, error) {
	fs := flag.NewFlagSet("bot", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		cli                               cliArgs
		symbol, side, orderType, quantity string
		price, stopPrice                  string
	)
	fs.StringVar(&symbol, "symbol", "", "Trading pair, e.g. BTCUSDT")
	fs.StringVar(&side, "side", "", "BUY or SELL")
	fs.StringVar(&orderType, "type", "", "MARKET, LIMIT or STOP_MARKET")
	fs.StringVar(&quantity, "quantity", "", "Order quantity")
	fs.StringVar(&price, "price", "", "Limit price, required for LIMIT orders")
	fs.StringVar(&stopPrice, "stop_price", "", "Trigger price, required for STOP_MARKET orders")
	fs.StringVar(&cli.configFile, "config-file", "", "Specify config file path")
	fs.BoolVar(&cli.strictExit, "strict-exit", false, "Exit non-zero unless the order is placed")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if symbol == "" || side == "" || orderType == "" || quantity == "" {
		return nil, errors.New("--symbol, --side, --type and --quantity are required")
	}

	var err error
	cli.request.Symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if cli.request.Side, err = model.ParseOrderSide(side); err != nil {
		return nil, err
	}
	if cli.request.Type, err = model.ParseOrderType(orderType); err != nil {
		return nil, err
	}
	if cli.request.Quantity, err = decimal.NewFromString(quantity); err != nil {
		return nil, fmt.Errorf("invalid quantity %q", quantity)
	}
	if cli.request.Price, err = parseOptionalDecimal(price); err != nil {
		return nil, fmt.Errorf("invalid price %q", price)
	}
	if cli.request.StopPrice, err = parseOptionalDecimal(stopPrice); err != nil {
		return nil, fmt.Errorf("invalid stop price %q", stopPrice)
	}

	return &cli, nil
}

func parseOptionalDecimal(s string) (decimal.NullDecimal, error) {
	if s == "" {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	return decimal.NewNullDecimal(d), nil
}

func newValidator(cfg config.RiskConfig) (*riskrule.Validator, error) {
	var rules []riskrule.RiskRule
	if cfg.ExchangeInfoFile != "" {
		tick, err := riskrule.NewTickSizeRuleFromFile(cfg.ExchangeInfoFile)
		if err != nil {
			return nil, fmt.Errorf("load exchange info: %w", err)
		}
		rules = append(rules, tick)
	}
	if len(cfg.PriceBands) > 0 {
		rules = append(rules, riskrule.NewLimitPriceRule(cfg.PriceBands))
	}
	return riskrule.NewValidator(rules...), nil
}

func newGateway(ctx context.Context, cfg *config.AppConfig, logger *logging.Logger) (oms.ExchangeGateway, func(), error) {
	switch cfg.Exchange.Venue {
	case config.VenueBinance:
		client := binance.NewClient(&cfg.Exchange.Binance, logger)
		return client, client.Close, nil
	case config.VenueFIX:
		gw := fixgateway.NewFixGateway(&cfg.Exchange.FIX, logger)
		if err := gw.Start(ctx); err != nil {
			return nil, nil, fmt.Errorf("start fix session: %w", err)
		}
		return gw, gw.Stop, nil
	case config.VenuePaper:
		return paper.NewGateway(&cfg.Exchange.Paper, logger), func() {}, nil
	}
	return nil, nil, fmt.Errorf("unsupported venue %q", cfg.Exchange.Venue)
}

func printResult(w io.Writer, result model.OrderResult) {
	switch {
	case result.Placed():
		fmt.Fprintln(w, "Order placed successfully")
		fmt.Fprintf(w, "  order id:        %s\n", result.ExchangeOrderID)
		fmt.Fprintf(w, "  client order id: %s\n", result.ClientOrderID)
		if len(result.RawResponse) > 0 {
			fmt.Fprintf(w, "  response:        %s\n", result.RawResponse)
		}
	case result.Error != nil && result.Error.Kind == model.ErrorKindBusinessRejection:
		fmt.Fprintf(w, "Exchange API error: %s\n", result.Error)
	default:
		fmt.Fprintf(w, "Error occurred: %s [%s]\n", result.Error, result.Outcome)
	}
}
