package nats_wrapper

import (
	"errors"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

type NATSConfig struct {
	URL                   string   `yaml:"url"`
	Stream                string   `yaml:"stream"`
	Subjects              []string `yaml:"subjects"`
	ConnectTimeoutSeconds int      `yaml:"connect_timeout_seconds"`
}

// InitJetStream connects to NATS and makes sure the configured stream exists.
func InitJetStream(cfg *NATSConfig) (*nats.Conn, nats.JetStreamContext, error) {
	url := cfg.URL
	if url == "" {
		url = nats.DefaultURL
	}

	opts := []nats.Option{nats.Name("futures-order-bot")}
	if cfg.ConnectTimeoutSeconds > 0 {
		opts = append(opts, nats.Timeout(time.Duration(cfg.ConnectTimeoutSeconds)*time.Second))
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		zap.S().Debugf("connect nats fail: %+v", err)
		return nil, nil, err
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, nil, err
	}

	if cfg.Stream != "" {
		_, err = js.StreamInfo(cfg.Stream)
		if errors.Is(err, nats.ErrStreamNotFound) {
			_, err = js.AddStream(&nats.StreamConfig{
				Name:     cfg.Stream,
				Subjects: cfg.Subjects,
			})
		}
		if err != nil {
			nc.Close()
			return nil, nil, err
		}
	}

	zap.S().Debug("connect to nats successful")
	return nc, js, nil
}
