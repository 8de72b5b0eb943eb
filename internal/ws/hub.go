package ws

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/example/flipbook/internal/cartoon"
)

// Hub broadcasts applied offsets to websocket clients and accepts control
// messages that drive the player registry. It implements screen.Screen, so
// a browser canvas is just another surface.
type Hub struct {
	id  string
	reg *cartoon.Registry

	mu           sync.RWMutex
	clients      map[*websocket.Conn]bool
	frameID      uint64
	lastX, lastY int
	startTime    time.Time

	// wmu serializes socket writes: several players can share this hub, so
	// offsets arrive from independent timer goroutines, and gorilla allows
	// at most one concurrent writer per connection.
	wmu sync.Mutex
}

func NewHub(id string, reg *cartoon.Registry) *Hub {
	return &Hub{
		id:        id,
		reg:       reg,
		clients:   map[*websocket.Conn]bool{},
		startTime: time.Now(),
	}
}

func (h *Hub) ID() string { return h.id }

type offsetFrame struct {
	T       int64  `json:"t"`
	FrameID uint64 `json:"frame_id"`
	Screen  string `json:"screen"`
	X       int    `json:"x"`
	Y       int    `json:"y"`
}

func (h *Hub) ApplyOffset(x, y int) error {
	h.mu.Lock()
	h.frameID++
	f := offsetFrame{T: time.Now().UnixNano(), FrameID: h.frameID, Screen: h.id, X: x, Y: y}
	h.lastX, h.lastY = x, y
	conns := make([]*websocket.Conn, 0, len(h.clients))
	for c := range h.clients {
		conns = append(conns, c)
	}
	h.mu.Unlock()

	b, _ := json.Marshal(f)
	h.wmu.Lock()
	for _, c := range conns {
		c.SetWriteDeadline(time.Now().Add(200 * time.Millisecond))
		if err := c.WriteMessage(websocket.TextMessage, b); err != nil {
			log.Debug().Err(err).Msg("write offset")
		}
	}
	h.wmu.Unlock()
	return nil
}

func (h *Hub) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		_ = c.Close()
	}
	h.clients = map[*websocket.Conn]bool{}
	return nil
}

// HandleFramesWS subscribes a client to offset broadcasts.
func (h *Hub) HandleFramesWS(w http.ResponseWriter, r *http.Request) {
	up := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	h.mu.Lock()
	h.clients[conn] = true
	h.mu.Unlock()

	go func() {
		defer func() {
			h.mu.Lock()
			delete(h.clients, conn)
			h.mu.Unlock()
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

type controlMsg struct {
	Cartoon  string `json:"cartoon"`
	Cmd      string `json:"cmd"`
	Position *int   `json:"position,omitempty"`
	Frame    *int   `json:"frame,omitempty"`
}

// HandleControlWS drives players from a websocket: one JSON controlMsg per
// message.
func (h *Hub) HandleControlWS(w http.ResponseWriter, r *http.Request) {
	up := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var msg controlMsg
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		h.applyControl(msg)
	}
}

func (h *Hub) applyControl(msg controlMsg) {
	p, ok := h.reg.Get(msg.Cartoon)
	if !ok {
		log.Warn().Str("cartoon", msg.Cartoon).Msg("control for unknown cartoon")
		return
	}
	switch msg.Cmd {
	case "play":
		p.Play()
	case "stop":
		p.Stop()
	case "step":
		code := p.Step()
		log.Debug().Str("cartoon", msg.Cartoon).Stringer("progress", code).Msg("step")
	case "rewind":
		p.Rewind()
	case "skip":
		if msg.Position != nil {
			p.SkipTo(*msg.Position)
		}
	case "frame":
		if msg.Frame != nil {
			p.DisplayFrame(*msg.Frame)
		}
	default:
		log.Warn().Str("cmd", msg.Cmd).Msg("unknown control command")
	}
}

// HandleHealth reports hub uptime and per-cartoon playback state.
func (h *Hub) HandleHealth(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	frameID := h.frameID
	clients := len(h.clients)
	h.mu.RUnlock()

	cartoons := map[string]any{}
	for _, name := range h.reg.List() {
		if p, ok := h.reg.Get(name); ok {
			cartoons[name] = map[string]any{
				"position": p.SequenceNumber(),
				"playing":  p.Playing(),
			}
		}
	}
	resp := map[string]any{
		"frame_id": frameID,
		"clients":  clients,
		"uptime_s": time.Since(h.startTime).Seconds(),
		"cartoons": cartoons,
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}
