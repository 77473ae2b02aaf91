package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/btcsuite/websocket"
	"github.com/google/uuid"
	"github.com/haileyok/seneca/events"
	"github.com/haileyok/seneca/registry"
	"github.com/labstack/echo/v4"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

func subscribeFilter(kind string) (func(*registry.Event) bool, error) {
	switch kind {
	case "":
		return nil, nil
	case "schema":
		return func(evt *registry.Event) bool {
			return evt.Kind.IsSchema()
		}, nil
	case "credential":
		return func(evt *registry.Event) bool {
			return !evt.Kind.IsSchema()
		}, nil
	default:
		return nil, fmt.Errorf("unknown event kind %q", kind)
	}
}

func (s *Server) handleSubscribe(e echo.Context) error {
	filter, err := subscribeFilter(e.QueryParam("kind"))
	if err != nil {
		return e.JSON(400, map[string]string{"error": "InvalidRequest"})
	}

	conn, err := upgrader.Upgrade(e.Response().Writer, e.Request(), e.Response().Header())
	if err != nil {
		return err
	}
	defer conn.Close()

	s.logger.Info("new connection", "ua", e.Request().UserAgent())

	ctx, cancel := context.WithCancel(e.Request().Context())
	defer cancel()

	// the reader only exists to notice the client going away
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ident := e.RealIP() + "-" + e.Request().UserAgent() + "-" + uuid.NewString()

	evts, unsub, err := s.evtman.Subscribe(ctx, ident, filter)
	if err != nil {
		return err
	}
	defer unsub()

	for evt := range evts {
		wc, err := conn.NextWriter(websocket.TextMessage)
		if err != nil {
			return err
		}

		if err := json.NewEncoder(wc).Encode(events.NewMessage(evt)); err != nil {
			return fmt.Errorf("failed to write event: %w", err)
		}

		if err := wc.Close(); err != nil {
			return fmt.Errorf("failed to flush-close our event write: %w", err)
		}
	}

	return nil
}
