package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nerrad567/relayhub/internal/infrastructure/config"
	"github.com/nerrad567/relayhub/internal/infrastructure/logging"
	"github.com/nerrad567/relayhub/internal/relay"
)

// Policy-violation close reasons sent to unclassifiable peers.
const (
	closeReasonInvalidType = "Invalid connection type"
	closeReasonNoDeviceID  = "Device ID required"

	// defaultSendBuffer is used when the config leaves send_buffer unset.
	defaultSendBuffer = 64

	closeWriteTimeout = time.Second
)

// upgrader configures the WebSocket upgrader.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		// Origin checking is handled by CORS middleware
		return true
	},
}

// Hub tracks every upgraded peer so they can be closed on shutdown.
// Routing is the relay engine's job; the hub only owns transport lifetime.
type Hub struct {
	cfg    config.WebSocketConfig
	logger *logging.Logger
	peers  map[*Peer]struct{}
	mu     sync.RWMutex
}

// NewHub creates a new WebSocket hub.
func NewHub(cfg config.WebSocketConfig, logger *logging.Logger) *Hub {
	return &Hub{
		cfg:    cfg,
		logger: logger,
		peers:  make(map[*Peer]struct{}),
	}
}

// Run blocks until the context is cancelled, then closes every peer.
func (h *Hub) Run(ctx context.Context) {
	<-ctx.Done()
	h.closeAll()
}

// Register adds a peer to the hub.
func (h *Hub) Register(p *Peer) {
	h.mu.Lock()
	h.peers[p] = struct{}{}
	h.mu.Unlock()
}

// Unregister removes a peer and closes its send queue.
func (h *Hub) Unregister(p *Peer) {
	h.mu.Lock()
	delete(h.peers, p)
	h.mu.Unlock()
	p.closeSend()
}

// PeerCount returns the number of upgraded peers.
func (h *Hub) PeerCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.peers)
}

// closeAll closes every peer. Read pumps then observe the error and run
// their disconnect hooks.
func (h *Hub) closeAll() {
	h.mu.Lock()
	peers := make([]*Peer, 0, len(h.peers))
	for p := range h.peers {
		peers = append(peers, p)
		delete(h.peers, p)
	}
	h.mu.Unlock()

	for _, p := range peers {
		p.closeSend()
		p.conn.Close()
	}
}

// Peer is one upgraded WebSocket connection. It implements relay.Conn.
type Peer struct {
	conn   *websocket.Conn
	logger *logging.Logger

	mu     sync.RWMutex
	send   chan []byte
	closed bool
}

func newPeer(conn *websocket.Conn, bufSize int, logger *logging.Logger) *Peer {
	if bufSize < 1 {
		bufSize = defaultSendBuffer
	}
	return &Peer{
		conn:   conn,
		logger: logger,
		send:   make(chan []byte, bufSize),
	}
}

// Send queues frame without blocking.
func (p *Peer) Send(frame []byte) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return relay.ErrConnClosed
	}
	select {
	case p.send <- frame:
		return nil
	default:
		return relay.ErrSendBufferFull
	}
}

// IsOpen reports whether the peer still accepts frames.
func (p *Peer) IsOpen() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return !p.closed
}

// closeSend marks the peer closed and closes its queue exactly once.
func (p *Peer) closeSend() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	close(p.send)
}

// handleWebSocket upgrades the connection and attaches it to the relay
// engine as a device or dashboard depending on the query parameters.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	connType, deviceID := q.Get("type"), q.Get("deviceId")
	role, classifyErr := s.engine.Classify(connType, deviceID)

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	if classifyErr != nil {
		reason := closeReasonInvalidType
		if connType == "device" {
			reason = closeReasonNoDeviceID
		}
		s.logger.Warn("rejecting websocket peer", "type", connType, "error", classifyErr)
		//nolint:errcheck // Best-effort close frame before dropping the connection
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, reason),
			time.Now().Add(closeWriteTimeout))
		conn.Close()
		return
	}

	p := newPeer(conn, s.wsCfg.SendBuffer, s.logger)
	s.hub.Register(p)

	switch role {
	case relay.RoleDevice:
		s.engine.ConnectDevice(deviceID, p)
		go p.writePump(s.wsCfg)
		go p.readPump(s.wsCfg,
			func(msg []byte) {
				//nolint:errcheck // Malformed frames are logged by the engine
				s.engine.HandleDeviceFrame(deviceID, msg)
			},
			func() {
				s.hub.Unregister(p)
				s.engine.DisconnectDevice(deviceID, p)
			},
		)
	case relay.RoleDashboard:
		id := s.engine.ConnectDashboard(p)
		go p.writePump(s.wsCfg)
		go p.readPump(s.wsCfg,
			func(msg []byte) { s.engine.HandleDashboardFrame(id, msg) },
			func() {
				s.hub.Unregister(p)
				s.engine.DisconnectDashboard(id)
			},
		)
	}
}

// readPump reads frames until the connection fails, then runs onClose.
func (p *Peer) readPump(cfg config.WebSocketConfig, onMessage func([]byte), onClose func()) {
	defer func() {
		onClose()
		p.conn.Close()
	}()

	if cfg.MaxMessageSize > 0 {
		p.conn.SetReadLimit(int64(cfg.MaxMessageSize))
	}
	pingInterval := time.Duration(cfg.PingInterval) * time.Second
	pongWait := time.Duration(cfg.PongTimeout) * time.Second
	keepAlive := pingInterval > 0
	if keepAlive {
		//nolint:errcheck // Best-effort deadline on connection setup
		p.conn.SetReadDeadline(time.Now().Add(pingInterval + pongWait))
		p.conn.SetPongHandler(func(string) error {
			return p.conn.SetReadDeadline(time.Now().Add(pingInterval + pongWait))
		})
	}

	for {
		_, message, err := p.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				p.logger.Debug("websocket read error", "error", err)
			}
			return
		}
		if keepAlive {
			//nolint:errcheck // Best-effort deadline reset
			p.conn.SetReadDeadline(time.Now().Add(pingInterval + pongWait))
		}
		onMessage(message)
	}
}

// writePump drains the send queue onto the wire and keeps the link alive
// with pings.
func (p *Peer) writePump(cfg config.WebSocketConfig) {
	pingInterval := time.Duration(cfg.PingInterval) * time.Second
	var tick <-chan time.Time
	if pingInterval > 0 {
		ticker := time.NewTicker(pingInterval)
		defer ticker.Stop()
		tick = ticker.C
	}
	defer p.conn.Close()

	writeWait := time.Duration(cfg.PongTimeout) * time.Second
	if writeWait <= 0 {
		writeWait = 10 * time.Second
	}

	for {
		select {
		case message, ok := <-p.send:
			if !ok {
				//nolint:errcheck // Best-effort close message
				p.conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			//nolint:errcheck // Best-effort deadline; write error caught below
			p.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := p.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-tick:
			//nolint:errcheck // Best-effort deadline; ping error caught below
			p.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := p.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
