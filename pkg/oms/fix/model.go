package fixgateway

import (
	"encoding/json"
	"strings"
)

type FixGatewayConfig struct {
	ConfigFilepath string `yaml:"config_filepath"`
	// BeginString selects the message dictionary: FIX.4.4 (default) or FIX.4.2.
	BeginString         string `yaml:"begin_string"`
	Account             string `yaml:"account"`
	LogonTimeoutSeconds int    `yaml:"logon_timeout_seconds"`
	ReportTimeoutMs     int64  `yaml:"report_timeout_ms"`
}

// executionReport is the part of an ExecutionReport or BusinessMessageReject
// needed to settle a pending order.
type executionReport struct {
	ClOrdID      string
	OrderID      string
	ExecType     string
	OrdStatus    string
	RejectReason string
	Text         string
	Rejected     bool
	Raw          string
}

func (r executionReport) json() json.RawMessage {
	b, _ := json.Marshal(map[string]string{
		"clOrdID":   r.ClOrdID,
		"orderID":   r.OrderID,
		"execType":  r.ExecType,
		"ordStatus": r.OrdStatus,
		"text":      r.Text,
		"fix":       strings.ReplaceAll(r.Raw, "\x01", "|"),
	})
	return b
}
