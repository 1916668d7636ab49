package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/driftlabs/drift/chat-client/internal/logger"
)

const heartbeatInterval = 30 * time.Second

// realtimeFrame is the phoenix-style envelope the change feed speaks.
type realtimeFrame struct {
	Topic   string          `json:"topic"`
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
	Ref     string          `json:"ref"`
}

type insertPayload struct {
	Type   string `json:"type"`
	Record Record `json:"record"`
}

type realtimeSubscription struct {
	conn  *websocket.Conn
	ch    chan Record
	done  chan struct{}
	once  sync.Once
	table string
}

func dialRealtime(ctx context.Context, wsURL, apiKey, token, table string, filter Filter) (*realtimeSubscription, error) {
	params := url.Values{}
	if apiKey != "" {
		params.Set("apikey", apiKey)
	}
	if token != "" {
		params.Set("token", token)
	}

	endpoint := wsURL
	if encoded := params.Encode(); encoded != "" {
		endpoint += "?" + encoded
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("dial realtime: %w", err)
	}

	sub := &realtimeSubscription{
		conn:  conn,
		ch:    make(chan Record, 256),
		done:  make(chan struct{}),
		table: table,
	}

	if err := sub.join(table, filter); err != nil {
		conn.Close()
		return nil, err
	}

	go sub.readLoop()
	go sub.heartbeatLoop()

	return sub, nil
}

func (s *realtimeSubscription) join(table string, filter Filter) error {
	payload := map[string]any{
		"config": map[string]any{
			"postgres_changes": []map[string]any{
				{
					"event":  "INSERT",
					"schema": "public",
					"table":  table,
					"filter": filterClause(filter),
				},
			},
		},
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return s.conn.WriteJSON(realtimeFrame{
		Topic:   "realtime:public:" + table,
		Event:   "phx_join",
		Payload: raw,
		Ref:     "1",
	})
}

func (s *realtimeSubscription) readLoop() {
	log := logger.Module("realtime")
	defer func() {
		close(s.ch)
	}()

	for {
		var frame realtimeFrame
		if err := s.conn.ReadJSON(&frame); err != nil {
			select {
			case <-s.done:
			default:
				log.Warn().Err(err).Str("table", s.table).Msg("realtime feed dropped")
			}
			return
		}

		if frame.Event != "INSERT" && frame.Event != "postgres_changes" {
			continue
		}

		var payload insertPayload
		if err := json.Unmarshal(frame.Payload, &payload); err != nil {
			log.Warn().Err(err).Msg("undecodable realtime payload")
			continue
		}
		if payload.Type != "" && payload.Type != "INSERT" {
			continue
		}
		if payload.Record == nil {
			continue
		}

		select {
		case s.ch <- payload.Record:
		case <-s.done:
			return
		}
	}
}

func (s *realtimeSubscription) heartbeatLoop() {
	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			frame := realtimeFrame{
				Topic:   "phoenix",
				Event:   "heartbeat",
				Payload: json.RawMessage("{}"),
			}
			if err := s.conn.WriteJSON(frame); err != nil {
				return
			}
		}
	}
}

func (s *realtimeSubscription) Records() <-chan Record { return s.ch }

func (s *realtimeSubscription) Close() {
	s.once.Do(func() {
		close(s.done)
		s.conn.Close()
	})
}

// filterClause renders the single-column equality the change feed supports.
func filterClause(filter Filter) string {
	for col, want := range filter {
		if _, multi := want.([]string); multi {
			continue
		}
		return fmt.Sprintf("%s=eq.%v", col, want)
	}
	return ""
}
