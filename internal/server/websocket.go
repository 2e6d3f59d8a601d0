package server

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

const reportWriteTimeout = 5 * time.Second

var reportUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		host := strings.ToLower(strings.TrimSpace(r.Host))
		originHost := strings.ToLower(strings.TrimSpace(u.Host))
		return host == originHost
	},
}

func (s *Server) handleReportWS(w http.ResponseWriter, r *http.Request) {
	conn, err := reportUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.serveReportConnection(r.Context(), conn)
}

// serveReportConnection pushes a freshly built report on connect and then on
// every refresh tick until the client goes away.
func (s *Server) serveReportConnection(ctx context.Context, conn *websocket.Conn) {
	defer conn.Close()

	p := s.buildPayload(ctx)
	if err := writeReportPayload(conn, p); err != nil {
		s.log.WithError(err).Debug("websocket push failed")
		return
	}

	ticker := time.NewTicker(s.refresh)
	defer ticker.Stop()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-ticker.C:
			p := s.buildPayload(ctx)
			if err := writeReportPayload(conn, p); err != nil {
				s.log.WithError(err).Debug("websocket push failed")
				return
			}
		case <-done:
			return
		}
	}
}

func writeReportPayload(conn *websocket.Conn, p payload) error {
	_ = conn.SetWriteDeadline(time.Now().Add(reportWriteTimeout))
	return conn.WriteJSON(p)
}
