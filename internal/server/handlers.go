package server

import (
	"encoding/json"
	"net/http"

	qrcode "github.com/skip2/go-qrcode"
)

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /api/rooms", s.handleListRooms)
	mux.HandleFunc("GET /api/rooms/{code}/qr", s.handleRoomQR)
	mux.HandleFunc("GET /ws", s.handleWebsocket)
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleListRooms serves the lobby browser: every room that did not opt
// into privacy, with its occupancy and whether a game is running.
func (s *Server) handleListRooms(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"rooms": s.registry.ListPublic(),
	})
}

// handleRoomQR renders the room's join link as a QR code so a host can
// put it on a shared screen.
func (s *Server) handleRoomQR(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")
	if _, ok := s.registry.Lookup(code); !ok {
		http.NotFound(w, r)
		return
	}
	png, err := qrcode.Encode(s.cfg.JoinBaseURL+"/room/"+code, qrcode.Medium, 256)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to render qr code")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{
		"error": message,
	})
}
