// internal/server/handlers/websocket.go

package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/nats-io/nats.go"

	"trendscope/internal/logging"
)

const (
	// Time allowed to write a message to the peer
	wsWriteWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	wsPongWait = 60 * time.Second

	// Send pings to peer with this period
	wsPingPeriod = (wsPongWait * 9) / 10
)

// WebSocketUpgrader is used to upgrade HTTP connections to WebSocket
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Single-tenant tool behind the dashboard; origin checks are
		// handled by the CORS middleware.
		return true
	},
}

// TrendsWebSocketHandler streams snapshot-refresh events to connected
// dashboards so they can re-render without polling. Events arrive over
// NATS from the aggregator.
func TrendsWebSocketHandler(natsConn *nats.Conn, topic string, log logging.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if natsConn == nil {
			http.Error(w, "Live updates are not available", http.StatusServiceUnavailable)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.WithFields(logging.Fields{"error": err.Error()}).Warn("failed to upgrade to WebSocket")
			return
		}

		send := make(chan []byte, 16)
		sub, err := natsConn.Subscribe(topic, func(msg *nats.Msg) {
			select {
			case send <- msg.Data:
			default:
				// Slow consumer; drop rather than block the NATS callback.
			}
		})
		if err != nil {
			log.WithFields(logging.Fields{"topic": topic, "error": err.Error()}).Warn("failed to subscribe to snapshot events")
			conn.Close()
			return
		}

		done := make(chan struct{})

		// Read pump: the dashboard never sends payloads, but reading is
		// required to process control frames and detect disconnects.
		go func() {
			defer close(done)
			conn.SetReadLimit(512)
			conn.SetReadDeadline(time.Now().Add(wsPongWait))
			conn.SetPongHandler(func(string) error {
				conn.SetReadDeadline(time.Now().Add(wsPongWait))
				return nil
			})
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		// Write pump
		go func() {
			ticker := time.NewTicker(wsPingPeriod)
			defer func() {
				ticker.Stop()
				sub.Unsubscribe()
				conn.Close()
			}()

			for {
				select {
				case message := <-send:
					conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
					if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
						return
					}
				case <-ticker.C:
					conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
					if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
						return
					}
				case <-done:
					return
				}
			}
		}()
	}
}
