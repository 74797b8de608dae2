package server

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// session is one client connection. Its fields other than the hub-managed
// registration and the send-side state are touched only from the
// connection's read goroutine.
type session struct {
	connID string
	room   string
	conn   *websocket.Conn

	mu     sync.Mutex
	send   chan []byte
	closed bool
}

// enqueue hands data to the write pump. The closed flag is checked under
// the same lock that close takes, so a broadcast racing a disconnect
// drops the frame instead of sending on a closed channel. A full channel
// means a stalled client; that frame is dropped rather than blocking the
// room.
func (sess *session) enqueue(data []byte) {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.closed {
		return
	}
	select {
	case sess.send <- data:
	default:
		log.Printf("send buffer full conn=%s, dropping frame", sess.connID)
	}
}

// close shuts the send channel exactly once.
func (sess *session) close() {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if !sess.closed {
		sess.closed = true
		close(sess.send)
	}
}

type hub struct {
	mu    sync.Mutex
	rooms map[string]map[*session]struct{}
	conns map[string]*session
}

func newHub() *hub {
	return &hub{
		rooms: make(map[string]map[*session]struct{}),
		conns: make(map[string]*session),
	}
}

func (h *hub) add(sess *session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[sess.connID] = sess
}

// subscribe moves a session into a room group, leaving any previous one.
func (h *hub) subscribe(sess *session, code string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.detachLocked(sess)
	group := h.rooms[code]
	if group == nil {
		group = make(map[*session]struct{})
		h.rooms[code] = group
	}
	group[sess] = struct{}{}
}

func (h *hub) unsubscribe(sess *session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.detachLocked(sess)
}

func (h *hub) detachLocked(sess *session) {
	for code, group := range h.rooms {
		if _, ok := group[sess]; ok {
			delete(group, sess)
			if len(group) == 0 {
				delete(h.rooms, code)
			}
		}
	}
}

func (h *hub) remove(sess *session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.detachLocked(sess)
	if _, ok := h.conns[sess.connID]; ok {
		delete(h.conns, sess.connID)
		sess.close()
	}
}

func (h *hub) broadcast(code string, data []byte) {
	h.mu.Lock()
	sessions := make([]*session, 0, len(h.rooms[code]))
	for sess := range h.rooms[code] {
		sessions = append(sessions, sess)
	}
	h.mu.Unlock()
	for _, sess := range sessions {
		sess.enqueue(data)
	}
}

func (h *hub) sendTo(connID string, data []byte) {
	h.mu.Lock()
	sess, ok := h.conns[connID]
	h.mu.Unlock()
	if ok {
		sess.enqueue(data)
	}
}

type envelope struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// flush serializes and sends queued frames in order; per-connection send
// channels preserve that order through the write pump.
func (s *Server) flush(code string, frames []frame) {
	for _, f := range frames {
		data, err := json.Marshal(envelope{Type: f.event, Data: f.data})
		if err != nil {
			log.Printf("marshal event failed room=%s event=%s error=%v", code, f.event, err)
			continue
		}
		if f.to == "" {
			s.hub.broadcast(code, data)
		} else {
			s.hub.sendTo(f.to, data)
		}
	}
}

func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	sess := &session{
		connID: uuid.NewString(),
		conn:   conn,
		send:   make(chan []byte, 64),
	}
	s.hub.add(sess)
	log.Printf("ws connected conn=%s remote=%s", sess.connID, r.RemoteAddr)
	go sess.writePump()
	s.readLoop(sess)
}

func (s *Server) readLoop(sess *session) {
	defer s.handleDisconnect(sess)
	for {
		_, raw, err := sess.conn.ReadMessage()
		if err != nil {
			log.Printf("ws disconnected conn=%s error=%v", sess.connID, err)
			return
		}
		var cmd command
		if err := json.Unmarshal(raw, &cmd); err != nil {
			s.ack(sess, 0, nil, errMalformedCommand)
			continue
		}
		data, err := s.dispatch(sess, cmd)
		s.ack(sess, cmd.ID, data, err)
	}
}

func (sess *session) writePump() {
	defer sess.conn.Close()
	for message := range sess.send {
		if err := sess.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
	_ = sess.conn.WriteMessage(websocket.CloseMessage, []byte{})
}

func (s *Server) ack(sess *session, id int64, data any, err error) {
	payload := ackPayload{Type: "ack", ID: id, OK: err == nil, Data: data}
	if err != nil {
		payload.Error = err.Error()
	}
	raw, marshalErr := json.Marshal(payload)
	if marshalErr != nil {
		return
	}
	sess.enqueue(raw)
}
