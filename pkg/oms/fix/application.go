package fixgateway

import (
	"context"
	"sync"

	"github.com/joripage/futures-order-bot/pkg/logging"
	fix42bmr "github.com/quickfixgo/fix42/businessmessagereject"
	fix42er "github.com/quickfixgo/fix42/executionreport"
	fix44bmr "github.com/quickfixgo/fix44/businessmessagereject"
	fix44er "github.com/quickfixgo/fix44/executionreport"
	"github.com/quickfixgo/quickfix"
	"go.uber.org/zap"
)

// Application implements quickfix.Application on the initiator side.
type Application struct {
	*quickfix.MessageRouter
	logger   *logging.Logger
	onReport func(executionReport)

	mu        sync.RWMutex
	sessionID quickfix.SessionID
	loggedOn  bool
	logonCh   chan struct{}
	logonOnce sync.Once
}

func newApplication(logger *logging.Logger, onReport func(executionReport)) *Application {
	app := &Application{
		MessageRouter: quickfix.NewMessageRouter(),
		logger:        logger,
		onReport:      onReport,
		logonCh:       make(chan struct{}),
	}

	app.AddRoute(fix44er.Route(app.onFix44ExecutionReport))
	app.AddRoute(fix42er.Route(app.onFix42ExecutionReport))
	app.AddRoute(fix44bmr.Route(app.onFix44BusinessReject))
	app.AddRoute(fix42bmr.Route(app.onFix42BusinessReject))

	return app
}

// session returns the logged on session, if any.
func (a *Application) session() (quickfix.SessionID, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.sessionID, a.loggedOn
}

func (a *Application) OnCreate(sessionID quickfix.SessionID) {}

func (a *Application) OnLogon(sessionID quickfix.SessionID) {
	a.mu.Lock()
	a.sessionID = sessionID
	a.loggedOn = true
	a.mu.Unlock()
	a.logonOnce.Do(func() { close(a.logonCh) })
	a.logger.Info(context.Background(), "fix session logged on", zap.String("session", sessionID.String()))
}

func (a *Application) OnLogout(sessionID quickfix.SessionID) {
	a.mu.Lock()
	a.loggedOn = false
	a.mu.Unlock()
	a.logger.Warn(context.Background(), "fix session logged out", zap.String("session", sessionID.String()))
}

func (a *Application) ToAdmin(msg *quickfix.Message, sessionID quickfix.SessionID) {}

func (a *Application) ToApp(msg *quickfix.Message, sessionID quickfix.SessionID) error {
	return nil
}

func (a *Application) FromAdmin(msg *quickfix.Message, sessionID quickfix.SessionID) quickfix.MessageRejectError {
	return nil
}

func (a *Application) FromApp(msg *quickfix.Message, sessionID quickfix.SessionID) quickfix.MessageRejectError {
	return a.Route(msg, sessionID)
}

func (a *Application) onFix44ExecutionReport(msg fix44er.ExecutionReport, sessionID quickfix.SessionID) quickfix.MessageRejectError {
	a.onReport(fromFix44Report(msg))
	return nil
}

func (a *Application) onFix42ExecutionReport(msg fix42er.ExecutionReport, sessionID quickfix.SessionID) quickfix.MessageRejectError {
	a.onReport(fromFix42Report(msg))
	return nil
}

func (a *Application) onFix44BusinessReject(msg fix44bmr.BusinessMessageReject, sessionID quickfix.SessionID) quickfix.MessageRejectError {
	refID, _ := msg.GetBusinessRejectRefID()
	reason, _ := msg.GetBusinessRejectReason()
	text, _ := msg.GetText()
	a.onReport(executionReport{
		ClOrdID:      refID,
		RejectReason: string(reason),
		Text:         text,
		Rejected:     true,
		Raw:          msg.Message.String(),
	})
	return nil
}

func (a *Application) onFix42BusinessReject(msg fix42bmr.BusinessMessageReject, sessionID quickfix.SessionID) quickfix.MessageRejectError {
	refID, _ := msg.GetBusinessRejectRefID()
	reason, _ := msg.GetBusinessRejectReason()
	text, _ := msg.GetText()
	a.onReport(executionReport{
		ClOrdID:      refID,
		RejectReason: string(reason),
		Text:         text,
		Rejected:     true,
		Raw:          msg.Message.String(),
	})
	return nil
}
