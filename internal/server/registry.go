package server

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Registry is the process-wide table of live rooms. Its mutex covers only
// the code-to-room mapping; gameplay inside a room is serialized by that
// room's own lock.
type Registry struct {
	mu    sync.Mutex
	rooms map[string]*Room
}

func NewRegistry() *Registry {
	return &Registry{
		rooms: make(map[string]*Room),
	}
}

// Create allocates a room with a fresh collision-checked code and a single
// ready host player.
func (r *Registry) Create(hostConnID, hostName string, settings Settings) *Room {
	r.mu.Lock()
	defer r.mu.Unlock()

	code := newRoomCode()
	for _, taken := r.rooms[code]; taken; _, taken = r.rooms[code] {
		code = newRoomCode()
	}
	room := &Room{
		Code:   code,
		HostID: hostConnID,
		Players: []Player{{
			ConnID:    hostConnID,
			UserID:    newUserID(),
			Name:      hostName,
			Ready:     true,
			Connected: true,
		}},
		Settings:  settings,
		CreatedAt: time.Now().UTC(),
	}
	r.rooms[code] = room
	return room
}

func (r *Registry) Lookup(code string) (*Room, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[code]
	return room, ok
}

func (r *Registry) Delete(code string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.rooms, code)
}

// ListPublic returns summaries of rooms that opted into the public
// listing, for the lobby browser.
func (r *Registry) ListPublic() []RoomSummary {
	r.mu.Lock()
	rooms := make([]*Room, 0, len(r.rooms))
	for _, room := range r.rooms {
		rooms = append(rooms, room)
	}
	r.mu.Unlock()

	list := make([]RoomSummary, 0, len(rooms))
	for _, room := range rooms {
		room.mu.Lock()
		if !room.Settings.IsPrivate {
			list = append(list, RoomSummary{
				Code:       room.Code,
				Players:    len(room.Players),
				MaxPlayers: room.Settings.MaxPlayers,
				InGame:     room.Game != nil,
			})
		}
		room.mu.Unlock()
	}
	return list
}

func newRoomCode() string {
	const alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		return "AAAAAA"
	}
	for i := range buf {
		buf[i] = alphabet[int(buf[i])%len(alphabet)]
	}
	return string(buf)
}

func newUserID() string {
	return "user_" + uuid.NewString()
}
