package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

type Timeouts struct {
	Read  time.Duration
	Write time.Duration
	Idle  time.Duration
}

type Server struct {
	httpServer *http.Server
	log        *slog.Logger
}

func New(addr string, handler http.Handler, timeouts Timeouts, log *slog.Logger) *Server {
	if timeouts.Read == 0 {
		timeouts.Read = 15 * time.Second
	}
	if timeouts.Write == 0 {
		timeouts.Write = 15 * time.Second
	}
	if timeouts.Idle == 0 {
		timeouts.Idle = 60 * time.Second
	}
	return &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      handler,
			ReadTimeout:  timeouts.Read,
			WriteTimeout: timeouts.Write,
			IdleTimeout:  timeouts.Idle,
		},
		log: log,
	}
}

func (s *Server) Start() error {
	s.log.Info("starting http server", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("shutting down server")
	return s.httpServer.Shutdown(ctx)
}
