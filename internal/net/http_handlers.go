package net

import (
	"encoding/json"
	"io"
	"log"
	nethttp "net/http"
	"time"

	"github.com/gorilla/websocket"

	"fracturelab/server"
)

type HTTPHandlerConfig struct {
	Logger *log.Logger
}

// clientMessage is the envelope for viewer commands arriving over the
// websocket: wholesale filter passes, forced refreshes, and monitor resets.
type clientMessage struct {
	Type string  `json:"type"`
	Gap  float64 `json:"gap"`
}

type ackMessage struct {
	Type       string `json:"type"`
	Ack        string `json:"ack"`
	ServerTime int64  `json:"serverTime"`
}

// NewHTTPHandler wires the hub's HTTP and websocket surface.
func NewHTTPHandler(hub *server.Hub, cfg HTTPHandlerConfig) nethttp.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}

	mux := nethttp.NewServeMux()

	mux.HandleFunc("/health", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("ok"))
	})

	mux.HandleFunc("/diagnostics", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		payload := struct {
			Status      string `json:"status"`
			ServerTime  int64  `json:"serverTime"`
			Diagnostics any    `json:"diagnostics"`
		}{
			Status:      "ok",
			ServerTime:  time.Now().UnixMilli(),
			Diagnostics: hub.DiagnosticsSnapshot(),
		}
		writeJSON(w, payload)
	})

	mux.HandleFunc("/cracks", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if r.Method != nethttp.MethodGet {
			httpError(w, "method not allowed", nethttp.StatusMethodNotAllowed)
			return
		}
		writeJSON(w, hub.CrackSnapshot())
	})

	mux.HandleFunc("/cracks/filter", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if r.Method != nethttp.MethodPost {
			httpError(w, "method not allowed", nethttp.StatusMethodNotAllowed)
			return
		}

		var req struct {
			Gap *float64 `json:"gap"`
		}
		if r.Body != nil {
			defer r.Body.Close()
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
				httpError(w, "invalid payload", nethttp.StatusBadRequest)
				return
			}
		}
		if req.Gap == nil {
			httpError(w, "missing gap", nethttp.StatusBadRequest)
			return
		}

		hub.Filter(*req.Gap)
		writeJSON(w, hub.CrackSnapshot())
	})

	mux.HandleFunc("/cracks/refresh", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if r.Method != nethttp.MethodPost {
			httpError(w, "method not allowed", nethttp.StatusMethodNotAllowed)
			return
		}
		hub.ForceRefresh()
		writeJSON(w, hub.CrackSnapshot())
	})

	mux.HandleFunc("/reset", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if r.Method != nethttp.MethodPost {
			httpError(w, "method not allowed", nethttp.StatusMethodNotAllowed)
			return
		}
		hub.ResetMonitor()
		writeJSON(w, struct {
			Status string `json:"status"`
		}{Status: "ok"})
	})

	mux.HandleFunc("/summary", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte(hub.Summary()))
	})

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *nethttp.Request) bool {
			return true
		},
	}

	mux.HandleFunc("/ws", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Printf("upgrade failed: %v", err)
			return
		}

		sub, snapshot := hub.Subscribe(conn)

		data, err := json.Marshal(snapshot)
		if err != nil {
			logger.Printf("failed to marshal initial snapshot for %d: %v", sub.ID(), err)
			hub.Disconnect(sub.ID())
			return
		}
		if err := sub.WriteMessage(data); err != nil {
			hub.Disconnect(sub.ID())
			return
		}

		for {
			_, payload, err := conn.ReadMessage()
			if err != nil {
				hub.Disconnect(sub.ID())
				return
			}

			var msg clientMessage
			if err := json.Unmarshal(payload, &msg); err != nil {
				logger.Printf("discarding malformed message from %d: %v", sub.ID(), err)
				continue
			}

			switch msg.Type {
			case "filter":
				hub.Filter(msg.Gap)
			case "refresh":
				hub.ForceRefresh()
			case "reset":
				hub.ResetMonitor()
			default:
				logger.Printf("unknown message type %q from %d", msg.Type, sub.ID())
				continue
			}

			ack := ackMessage{Type: "ack", Ack: msg.Type, ServerTime: time.Now().UnixMilli()}
			data, err := json.Marshal(ack)
			if err != nil {
				logger.Printf("failed to marshal ack for %d: %v", sub.ID(), err)
				continue
			}
			if err := sub.WriteMessage(data); err != nil {
				hub.Disconnect(sub.ID())
				return
			}
		}
	})

	return mux
}

func writeJSON(w nethttp.ResponseWriter, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		httpError(w, "failed to encode", nethttp.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

func httpError(w nethttp.ResponseWriter, msg string, code int) {
	nethttp.Error(w, msg, code)
}
