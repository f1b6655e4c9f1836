// Package fixgateway places orders over a FIX 4.2 or 4.4 initiator session.
package fixgateway

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/joripage/futures-order-bot/pkg/logging"
	"github.com/joripage/futures-order-bot/pkg/oms"
	"github.com/joripage/futures-order-bot/pkg/oms/model"
	"github.com/quickfixgo/quickfix"
	"github.com/quickfixgo/quickfix/log/file"
	"go.uber.org/zap"
)

var ErrNotLoggedOn = errors.New("fix session not logged on")

// FixGateway is an oms.ExchangeGateway. CreateOrder sends a NewOrderSingle
// and waits for the first ExecutionReport carrying the same ClOrdID.
type FixGateway struct {
	cfg       *FixGatewayConfig
	logger    *logging.Logger
	app       *Application
	initiator *quickfix.Initiator
	pending   sync.Map // ClOrdID -> chan executionReport

	send func(m quickfix.Messagable, sessionID quickfix.SessionID) error
	now  func() time.Time
}

func NewFixGateway(cfg *FixGatewayConfig, logger *logging.Logger) *FixGateway {
	if logger == nil {
		logger = logging.NewNop()
	}
	if cfg.BeginString == "" {
		cfg.BeginString = BeginStringFIX44
	}
	if cfg.LogonTimeoutSeconds <= 0 {
		cfg.LogonTimeoutSeconds = 10
	}
	if cfg.ReportTimeoutMs <= 0 {
		cfg.ReportTimeoutMs = 5000
	}

	g := &FixGateway{
		cfg:    cfg,
		logger: logger,
		send:   quickfix.SendToTarget,
		now:    time.Now,
	}
	g.app = newApplication(logger, g.deliver)
	return g
}

// Start connects the initiator and blocks until the session logs on.
func (g *FixGateway) Start(ctx context.Context) error {
	f, err := os.Open(g.cfg.ConfigFilepath)
	if err != nil {
		return fmt.Errorf("error opening %v, %v", g.cfg.ConfigFilepath, err)
	}
	defer f.Close() // nolint

	settings, err := quickfix.ParseSettings(f)
	if err != nil {
		return fmt.Errorf("error reading cfg: %s", err)
	}

	logFactory, err := file.NewLogFactory(settings)
	if err != nil {
		return fmt.Errorf("unable to create log factory: %s", err)
	}
	g.initiator, err = quickfix.NewInitiator(g.app, quickfix.NewMemoryStoreFactory(), settings, logFactory)
	if err != nil {
		return fmt.Errorf("unable to create initiator: %s", err)
	}
	if err := g.initiator.Start(); err != nil {
		return fmt.Errorf("unable to start FIX initiator: %s", err)
	}

	timer := time.NewTimer(time.Duration(g.cfg.LogonTimeoutSeconds) * time.Second)
	defer timer.Stop()
	select {
	case <-g.app.logonCh:
		return nil
	case <-ctx.Done():
		g.Stop()
		return ctx.Err()
	case <-timer.C:
		g.Stop()
		return fmt.Errorf("%w after %ds", ErrNotLoggedOn, g.cfg.LogonTimeoutSeconds)
	}
}

func (g *FixGateway) Stop() {
	if g.initiator != nil {
		g.initiator.Stop()
		g.initiator = nil
	}
}

func (g *FixGateway) CreateOrder(ctx context.Context, spec model.OrderSpec) (*model.ExchangeResponse, error) {
	sessionID, ok := g.app.session()
	if !ok {
		return nil, fmt.Errorf("%w: %w", oms.ErrNotDispatched, ErrNotLoggedOn)
	}

	msg, err := newOrderSingle(sessionID.BeginString, g.cfg.Account, spec, g.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", oms.ErrNotDispatched, err)
	}

	reportCh := make(chan executionReport, 1)
	if _, loaded := g.pending.LoadOrStore(spec.ClientOrderID, reportCh); loaded {
		return nil, fmt.Errorf("%w: duplicate ClOrdID %s", oms.ErrNotDispatched, spec.ClientOrderID)
	}
	defer g.pending.Delete(spec.ClientOrderID)

	if err := g.send(msg, sessionID); err != nil {
		return nil, fmt.Errorf("%w: %w", oms.ErrNotDispatched, err)
	}

	timer := time.NewTimer(time.Duration(g.cfg.ReportTimeoutMs) * time.Millisecond)
	defer timer.Stop()

	select {
	case report := <-reportCh:
		return toExchangeResponse(report)
	case <-ctx.Done():
		return nil, fmt.Errorf("await execution report %s: %w", spec.ClientOrderID, ctx.Err())
	case <-timer.C:
		return nil, fmt.Errorf("await execution report %s: %w", spec.ClientOrderID, oms.ErrTimeout)
	}
}

// deliver settles the pending order a report belongs to. Later reports for
// the same order are only logged.
func (g *FixGateway) deliver(report executionReport) {
	v, ok := g.pending.LoadAndDelete(report.ClOrdID)
	if !ok {
		g.logger.Debug(context.Background(), "unsolicited execution report",
			zap.String("cl_ord_id", report.ClOrdID),
			zap.String("exec_type", report.ExecType),
		)
		return
	}
	v.(chan executionReport) <- report
}

func toExchangeResponse(report executionReport) (*model.ExchangeResponse, error) {
	if report.Rejected {
		code, _ := strconv.Atoi(report.RejectReason)
		message := report.Text
		if message == "" {
			message = "order rejected"
		}
		return nil, &oms.APIError{Code: code, Message: message, Raw: report.json()}
	}
	if report.OrderID == "" {
		return nil, &oms.ResponseError{
			Raw: report.json(),
			Err: fmt.Errorf("%w: execution report without OrderID", oms.ErrMalformedResponse),
		}
	}
	return &model.ExchangeResponse{
		OrderID:       report.OrderID,
		ClientOrderID: report.ClOrdID,
		Status:        report.OrdStatus,
		Raw:           report.json(),
	}, nil
}
