package server

import (
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"hues-and-cues/internal/config"

	"github.com/google/uuid"
)

// testConfig disables the inter-phase pause so phase transitions happen
// synchronously inside the command that triggered them.
func testConfig() config.Config {
	cfg := config.Default()
	cfg.PhasePauseSeconds = 0
	return cfg
}

func newTestSession() *session {
	return &session{
		connID: uuid.NewString(),
		send:   make(chan []byte, 64),
	}
}

// setupRoom creates a room hosted by the first name and joins the rest,
// marking every joiner ready. Returns the room code and one session per
// player, host first.
func setupRoom(t *testing.T, srv *Server, names ...string) (string, []*session) {
	t.Helper()
	sessions := make([]*session, len(names))
	sessions[0] = newTestSession()
	created, err := srv.createRoom(sessions[0], names[0], Settings{Rounds: 1})
	if err != nil {
		t.Fatalf("create room: %v", err)
	}
	for i := 1; i < len(names); i++ {
		sessions[i] = newTestSession()
		if _, err := srv.joinRoom(sessions[i], created.Code, names[i], ""); err != nil {
			t.Fatalf("join room as %s: %v", names[i], err)
		}
		if err := srv.setReady(sessions[i], created.Code, true); err != nil {
			t.Fatalf("set ready for %s: %v", names[i], err)
		}
	}
	return created.Code, sessions
}

func mustRoom(t *testing.T, srv *Server, code string) *Room {
	t.Helper()
	room, ok := srv.registry.Lookup(code)
	if !ok {
		t.Fatalf("room %s not found", code)
	}
	return room
}

func newTestServer(t *testing.T, handler http.Handler) *httptest.Server {
	t.Helper()
	listener, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Skipf("skipping test; listen unavailable: %v", err)
	}
	ts := &httptest.Server{
		Listener: listener,
		Config:   &http.Server{Handler: handler},
	}
	ts.Start()
	return ts
}
