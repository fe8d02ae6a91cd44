package sync

import (
	"bufio"
	"context"
	"errors"
	"log/slog"
	"net"

	"platehub/pkg/utils"
)

// Server accepts TCP subscribers for the hub feed. Incoming lines are read
// and ignored so a client disconnect is noticed.
type Server struct {
	Addr string
	Hub  *Hub
	Log  *slog.Logger
}

func NewServer(addr string, hub *Hub, log *slog.Logger) *Server {
	if log == nil {
		log = utils.DiscardLogger()
	}
	return &Server{Addr: addr, Hub: hub, Log: log}
}

// Run listens until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.Log.Info("tcp sync listening", "addr", ln.Addr().String())

	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			s.Log.Warn("tcp accept failed", "error", err)
			continue
		}

		s.Hub.Add(conn)
		s.Hub.Welcome(conn)
		s.Log.Debug("tcp client connected", "remote", conn.RemoteAddr().String())

		go func(c net.Conn) {
			defer func() {
				s.Hub.Remove(c)
				s.Log.Debug("tcp client disconnected", "remote", c.RemoteAddr().String())
			}()
			sc := bufio.NewScanner(c)
			for sc.Scan() {
			}
		}(conn)
	}
}
