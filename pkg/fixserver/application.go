package fixserver

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"sync/atomic"

	"github.com/joripage/futures-order-bot/pkg/logging"
	"github.com/joripage/go_util/pkg/shardqueue"
	"github.com/quickfixgo/enum"
	"github.com/quickfixgo/field"
	"github.com/quickfixgo/fix44/executionreport"
	"github.com/quickfixgo/fix44/newordersingle"
	"github.com/quickfixgo/quickfix"
	"github.com/quickfixgo/quickfix/log/file"
	"github.com/quickfixgo/tag"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	numShards = 16
	queueSize = 100_000
	qtyScale  = 8
)

const (
	ordTypeStop enum.OrdType = "3"

	rejUnknownSymbol     enum.OrdRejReason = "1"
	rejUnsupportedOrder  enum.OrdRejReason = "11"
	rejIncorrectQuantity enum.OrdRejReason = "13"
	rejOther             enum.OrdRejReason = "99"
)

// Application is the acceptor side of the simulated venue.
type Application struct {
	*quickfix.MessageRouter
	cfg        *ServerConfig
	logger     *logging.Logger
	symbols    map[string]struct{}
	shardQueue *shardqueue.Shardqueue
	orderSeq   atomic.Int64
	execSeq    atomic.Int64

	send func(m quickfix.Messagable, sessionID quickfix.SessionID) error
}

type inboundMsg struct {
	msg       *quickfix.Message
	sessionID quickfix.SessionID
}

func newApplication(cfg *ServerConfig, logger *logging.Logger) *Application {
	app := &Application{
		MessageRouter: quickfix.NewMessageRouter(),
		cfg:           cfg,
		logger:        logger,
		symbols:       make(map[string]struct{}, len(cfg.Symbols)),
		send:          quickfix.SendToTarget,
	}
	for _, s := range cfg.Symbols {
		app.symbols[s] = struct{}{}
	}

	app.AddRoute(newordersingle.Route(app.onNewOrderSingle))

	if cfg.EnableShardQueue {
		app.shardQueue = shardqueue.NewShardQueue(numShards, queueSize)
		app.shardQueue.Start(func(msg interface{}) error {
			if v, ok := msg.(*inboundMsg); ok {
				if err := app.Route(v.msg, v.sessionID); err != nil {
					app.logger.Warn(context.Background(), "route error", zap.Error(err))
				}
			}
			return nil
		})
	}

	return app
}

func startAcceptor(app *Application, configFilepath string) (*quickfix.Acceptor, error) {
	f, err := os.Open(configFilepath)
	if err != nil {
		return nil, fmt.Errorf("error opening %v, %v", configFilepath, err)
	}
	defer f.Close() // nolint

	settings, err := quickfix.ParseSettings(f)
	if err != nil {
		return nil, fmt.Errorf("error reading cfg: %s", err)
	}

	logFactory, err := file.NewLogFactory(settings)
	if err != nil {
		return nil, fmt.Errorf("unable to create log factory: %s", err)
	}
	acceptor, err := quickfix.NewAcceptor(app, quickfix.NewMemoryStoreFactory(), settings, logFactory)
	if err != nil {
		return nil, fmt.Errorf("unable to create acceptor: %s", err)
	}
	if err := acceptor.Start(); err != nil {
		return nil, fmt.Errorf("unable to start FIX acceptor: %s", err)
	}
	return acceptor, nil
}

func (a *Application) OnCreate(sessionID quickfix.SessionID) {}

func (a *Application) OnLogon(sessionID quickfix.SessionID) {
	a.logger.Info(context.Background(), "client logged on", zap.String("session", sessionID.String()))
}

func (a *Application) OnLogout(sessionID quickfix.SessionID) {
	a.logger.Info(context.Background(), "client logged out", zap.String("session", sessionID.String()))
}

func (a *Application) ToAdmin(msg *quickfix.Message, sessionID quickfix.SessionID) {}

func (a *Application) ToApp(msg *quickfix.Message, sessionID quickfix.SessionID) error {
	return nil
}

func (a *Application) FromAdmin(msg *quickfix.Message, sessionID quickfix.SessionID) quickfix.MessageRejectError {
	return nil
}

// FromApp hands orders to the shard owning their ClOrdID so reports for one
// order stay in sequence.
func (a *Application) FromApp(msg *quickfix.Message, sessionID quickfix.SessionID) quickfix.MessageRejectError {
	if a.shardQueue != nil {
		a.shardQueue.Shard(getRoutingKey(msg, sessionID), &inboundMsg{msg, sessionID})
		return nil
	}
	return a.Route(msg, sessionID)
}

func getRoutingKey(msg *quickfix.Message, sessionID quickfix.SessionID) string {
	if clOrdID, err := msg.Body.GetString(tag.ClOrdID); err == nil && clOrdID != "" {
		return clOrdID
	}
	if msgType, err := msg.Header.GetString(tag.MsgType); err == nil {
		return "MSGTYPE:" + msgType
	}
	return sessionID.String()
}

func (a *Application) onNewOrderSingle(msg newordersingle.NewOrderSingle, sessionID quickfix.SessionID) quickfix.MessageRejectError {
	clOrdID, _ := msg.GetClOrdID()
	symbol, _ := msg.GetSymbol()
	side, _ := msg.GetSide()
	ordType, _ := msg.GetOrdType()
	price, _ := msg.GetPrice()
	stopPx, _ := msg.GetStopPx()
	orderQty, _ := msg.GetOrderQty()

	order := venueOrder{
		ClOrdID:  clOrdID,
		Symbol:   symbol,
		Side:     side,
		OrdType:  ordType,
		Price:    price,
		StopPx:   stopPx,
		Quantity: orderQty,
	}

	report := a.executionReport(order, a.check(order))
	if err := a.send(report, sessionID); err != nil {
		a.logger.Error(context.Background(), "send execution report", zap.String("cl_ord_id", clOrdID), zap.Error(err))
	}
	return nil
}

type venueOrder struct {
	ClOrdID  string
	Symbol   string
	Side     enum.Side
	OrdType  enum.OrdType
	Price    decimal.Decimal
	StopPx   decimal.Decimal
	Quantity decimal.Decimal
}

type rejection struct {
	reason enum.OrdRejReason
	text   string
}

// check returns nil when the venue accepts the order.
func (a *Application) check(o venueOrder) *rejection {
	if len(a.symbols) > 0 {
		if _, ok := a.symbols[o.Symbol]; !ok {
			return &rejection{rejUnknownSymbol, "unknown symbol " + o.Symbol}
		}
	}
	if !o.Quantity.IsPositive() {
		return &rejection{rejIncorrectQuantity, "quantity must be positive"}
	}
	switch o.OrdType {
	case enum.OrdType_MARKET:
	case enum.OrdType_LIMIT:
		if !o.Price.IsPositive() {
			return &rejection{rejOther, "limit order without price"}
		}
	case ordTypeStop:
		if !o.StopPx.IsPositive() {
			return &rejection{rejOther, "stop order without stop price"}
		}
	default:
		return &rejection{rejUnsupportedOrder, "unsupported order type " + string(o.OrdType)}
	}
	return nil
}

func (a *Application) executionReport(o venueOrder, rej *rejection) executionreport.ExecutionReport {
	execType, ordStatus, orderID, leaves := enum.ExecType_NEW, enum.OrdStatus_NEW, a.nextOrderID(), o.Quantity
	if rej != nil {
		execType, ordStatus, orderID, leaves = enum.ExecType_REJECTED, enum.OrdStatus_REJECTED, "NONE", decimal.Zero
	}

	report := executionreport.New(
		field.NewOrderID(orderID),
		field.NewExecID(strconv.FormatInt(a.execSeq.Add(1), 10)),
		field.NewExecType(execType),
		field.NewOrdStatus(ordStatus),
		field.NewSide(o.Side),
		field.NewLeavesQty(leaves, qtyScale),
		field.NewCumQty(decimal.Zero, qtyScale),
		field.NewAvgPx(decimal.Zero, qtyScale),
	)
	report.SetClOrdID(o.ClOrdID)
	report.SetSymbol(o.Symbol)
	report.SetOrderQty(o.Quantity, qtyScale)
	if rej != nil {
		report.SetOrdRejReason(rej.reason)
		report.SetText(rej.text)
	}
	return report
}

func (a *Application) nextOrderID() string {
	return strconv.FormatInt(a.cfg.OrderIDBase+a.orderSeq.Add(1), 10)
}
