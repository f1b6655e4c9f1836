package fixserver

import (
	"testing"
	"time"

	"github.com/joripage/futures-order-bot/pkg/logging"
	"github.com/quickfixgo/enum"
	"github.com/quickfixgo/field"
	"github.com/quickfixgo/fix44/newordersingle"
	"github.com/quickfixgo/quickfix"
	"github.com/quickfixgo/tag"
	"github.com/shopspring/decimal"
)

var testSession = quickfix.SessionID{BeginString: "FIX.4.4", SenderCompID: "VENUE", TargetCompID: "BOT"}

func newTestApp(t *testing.T, sent *[]*quickfix.Message) *Application {
	t.Helper()
	app := newApplication(&ServerConfig{Symbols: []string{"BTCUSDT"}, OrderIDBase: 1000}, logging.NewNop())
	app.send = func(m quickfix.Messagable, sid quickfix.SessionID) error {
		*sent = append(*sent, m.ToMessage())
		return nil
	}
	return app
}

func newOrder(clOrdID, symbol string, ordType enum.OrdType, qty string) newordersingle.NewOrderSingle {
	msg := newordersingle.New(
		field.NewClOrdID(clOrdID),
		field.NewSide(enum.Side_BUY),
		field.NewTransactTime(time.Now()),
		field.NewOrdType(ordType),
	)
	msg.SetSymbol(symbol)
	msg.SetOrderQty(decimal.RequireFromString(qty), 8)
	return msg
}

func get(t *testing.T, m *quickfix.Message, tg quickfix.Tag) string {
	t.Helper()
	v, err := m.Body.GetString(tg)
	if err != nil {
		t.Fatalf("tag %d: %v", tg, err)
	}
	return v
}

func TestNewOrderSingleAccepted(t *testing.T) {
	var sent []*quickfix.Message
	app := newTestApp(t, &sent)

	msg := newOrder("c1", "BTCUSDT", enum.OrdType_LIMIT, "0.01")
	msg.SetPrice(decimal.RequireFromString("65000"), 2)
	if rej := app.onNewOrderSingle(msg, testSession); rej != nil {
		t.Fatalf("unexpected reject: %v", rej)
	}

	if len(sent) != 1 {
		t.Fatalf("expected one report, got %d", len(sent))
	}
	if get(t, sent[0], tag.OrdStatus) != string(enum.OrdStatus_NEW) {
		t.Errorf("expected NEW status")
	}
	if get(t, sent[0], tag.OrderID) != "1001" || get(t, sent[0], tag.ClOrdID) != "c1" {
		t.Errorf("unexpected ids in report")
	}
}

func TestNewOrderSingleRejections(t *testing.T) {
	cases := []struct {
		name   string
		msg    newordersingle.NewOrderSingle
		reason enum.OrdRejReason
	}{
		{"unknown symbol", newOrder("c1", "DOGEUSDT", enum.OrdType_MARKET, "1"), rejUnknownSymbol},
		{"zero quantity", newOrder("c2", "BTCUSDT", enum.OrdType_MARKET, "0"), rejIncorrectQuantity},
		{"limit without price", newOrder("c3", "BTCUSDT", enum.OrdType_LIMIT, "1"), rejOther},
		{"stop without stop price", newOrder("c4", "BTCUSDT", ordTypeStop, "1"), rejOther},
		{"unsupported type", newOrder("c5", "BTCUSDT", enum.OrdType("P"), "1"), rejUnsupportedOrder},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var sent []*quickfix.Message
			app := newTestApp(t, &sent)
			_ = app.onNewOrderSingle(tc.msg, testSession)

			if len(sent) != 1 {
				t.Fatalf("expected one report, got %d", len(sent))
			}
			if get(t, sent[0], tag.ExecType) != string(enum.ExecType_REJECTED) {
				t.Errorf("expected rejected exec type")
			}
			if get(t, sent[0], tag.OrdRejReason) != string(tc.reason) {
				t.Errorf("reason = %s, want %s", get(t, sent[0], tag.OrdRejReason), tc.reason)
			}
			if get(t, sent[0], tag.Text) == "" {
				t.Errorf("rejection must carry text")
			}
		})
	}
}

func TestGetRoutingKey(t *testing.T) {
	msg := newOrder("c9", "BTCUSDT", enum.OrdType_MARKET, "1")
	if key := getRoutingKey(msg.ToMessage(), testSession); key != "c9" {
		t.Errorf("routing key = %q, want c9", key)
	}
}
