// Package fixserver is a FIX 4.4 acceptor that acknowledges or rejects
// NewOrderSingle messages, for exercising the FIX gateway without a venue.
package fixserver

import (
	"context"

	"github.com/joripage/futures-order-bot/pkg/logging"
	"github.com/quickfixgo/quickfix"
)

type ServerConfig struct {
	ConfigFilepath string `yaml:"config_filepath"`
	// Symbols lists tradable instruments; empty accepts any symbol.
	Symbols          []string `yaml:"symbols"`
	OrderIDBase      int64    `yaml:"order_id_base"`
	EnableShardQueue bool     `yaml:"enable_shard_queue"`
}

type Server struct {
	cfg      *ServerConfig
	logger   *logging.Logger
	app      *Application
	acceptor *quickfix.Acceptor
}

func NewServer(cfg *ServerConfig, logger *logging.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Server{
		cfg:    cfg,
		logger: logger,
		app:    newApplication(cfg, logger),
	}
}

func (s *Server) Start() error {
	acceptor, err := startAcceptor(s.app, s.cfg.ConfigFilepath)
	if err != nil {
		s.logger.Error(context.Background(), "start acceptor failed")
		return err
	}
	s.acceptor = acceptor
	return nil
}

func (s *Server) Stop() {
	if s.acceptor != nil {
		s.acceptor.Stop()
		s.acceptor = nil
	}
}
