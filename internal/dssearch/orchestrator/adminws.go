package orchestrator

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	logTailPeriod = 2 * time.Second
	wsPongWait    = 60 * time.Second
	wsPingPeriod  = 30 * time.Second
	wsWriteWait   = 10 * time.Second
)

var logTailUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// HandleLogTail upgrades to a WebSocket and, checking every logTailPeriod,
// sends the 20 most recent logs whenever a newer entry has been logged
// since the last send, for the admin §6 "tail recent search logs" surface.
func (s *Server) HandleLogTail(w http.ResponseWriter, r *http.Request) {
	conn, err := logTailUpgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[dssearch] admin log-tail upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(wsPongWait))
		return nil
	})

	done := make(chan struct{})
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				close(done)
				return
			}
		}
	}()

	ticker := time.NewTicker(logTailPeriod)
	defer ticker.Stop()
	pinger := time.NewTicker(wsPingPeriod)
	defer pinger.Stop()

	var lastSent time.Time
	for {
		select {
		case <-done:
			return
		case <-pinger.C:
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-ticker.C:
			logs := s.orch.RecentLogs(20)
			if len(logs) == 0 || !logs[0].Timestamp.After(lastSent) {
				continue
			}
			lastSent = logs[0].Timestamp
			payload, err := json.Marshal(logs)
			if err != nil {
				continue
			}
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		}
	}
}
