// internal/httpserver/coop_relay.go
//
// Co-op websocket relay. Peers joining the same ?room= receive each
// other's frames verbatim; the relay itself only emits partner status
// frames when a peer joins or leaves.
package httpserver

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/net/websocket"

	"github.com/robalobadob/alchemy/internal/coop"
)

const (
	maxRoomPeers      = 2
	maxRelayFrameSize = 64 << 10
)

type relayPeer struct {
	mu   sync.Mutex
	conn *websocket.Conn
	user string
}

func (p *relayPeer) write(raw []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return websocket.Message.Send(p.conn, string(raw))
}

func (p *relayPeer) writeStatus(status string) error {
	raw, err := json.Marshal(coop.StatusMessage(status))
	if err != nil {
		return err
	}
	return p.write(raw)
}

type relayRoom struct {
	peers map[*relayPeer]struct{}
}

type hub struct {
	mu    sync.Mutex
	rooms map[string]*relayRoom
}

func newHub() *hub {
	return &hub{rooms: make(map[string]*relayRoom)}
}

// join adds p to room and returns the peers already there. ok is false
// when the room is full.
func (h *hub) join(room string, p *relayPeer) (others []*relayPeer, ok bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	rm, exists := h.rooms[room]
	if !exists {
		rm = &relayRoom{peers: make(map[*relayPeer]struct{})}
		h.rooms[room] = rm
	}
	if len(rm.peers) >= maxRoomPeers {
		return nil, false
	}
	for q := range rm.peers {
		others = append(others, q)
	}
	rm.peers[p] = struct{}{}
	return others, true
}

// leave removes p and returns the peers left behind.
func (h *hub) leave(room string, p *relayPeer) []*relayPeer {
	h.mu.Lock()
	defer h.mu.Unlock()
	rm, ok := h.rooms[room]
	if !ok {
		return nil
	}
	delete(rm.peers, p)
	if len(rm.peers) == 0 {
		delete(h.rooms, room)
		return nil
	}
	return rm.others(p)
}

func (h *hub) peersExcept(room string, p *relayPeer) []*relayPeer {
	h.mu.Lock()
	defer h.mu.Unlock()
	rm, ok := h.rooms[room]
	if !ok {
		return nil
	}
	return rm.others(p)
}

func (r *relayRoom) others(p *relayPeer) []*relayPeer {
	out := make([]*relayPeer, 0, len(r.peers))
	for q := range r.peers {
		if q != p {
			out = append(out, q)
		}
	}
	return out
}

// handleCoopWS upgrades to a websocket and relays frames within the room.
func (s *Server) handleCoopWS(w http.ResponseWriter, r *http.Request) {
	room := strings.TrimSpace(r.URL.Query().Get("room"))
	if room == "" || len(room) > 64 {
		fail(w, http.StatusBadRequest, "invalid_room")
		return
	}
	user := userFrom(r.Context())
	websocket.Server{
		Handler: func(conn *websocket.Conn) {
			conn.MaxPayloadBytes = maxRelayFrameSize
			s.relay(conn, room, user)
		},
	}.ServeHTTP(w, r)
}

func (s *Server) relay(conn *websocket.Conn, room, user string) {
	defer func() { _ = conn.Close() }()

	p := &relayPeer{conn: conn, user: user}
	others, ok := s.hub.join(room, p)
	if !ok {
		log.Warn().Str("room", room).Msg("coop: room full")
		return
	}
	log.Info().Str("room", room).Str("user", user).Int("peers", len(others)+1).Msg("coop: peer joined")

	for _, q := range others {
		_ = q.writeStatus(coop.StatusJoined)
		_ = p.writeStatus(coop.StatusJoined)
	}
	defer func() {
		for _, q := range s.hub.leave(room, p) {
			_ = q.writeStatus(coop.StatusLeft)
		}
		log.Info().Str("room", room).Str("user", user).Msg("coop: peer left")
	}()

	for {
		var raw []byte
		if err := websocket.Message.Receive(conn, &raw); err != nil {
			if !errors.Is(err, io.EOF) {
				log.Debug().Err(err).Str("room", room).Msg("coop: receive")
			}
			return
		}
		if !json.Valid(raw) {
			continue
		}
		for _, q := range s.hub.peersExcept(room, p) {
			if err := q.write(raw); err != nil {
				log.Debug().Err(err).Str("room", room).Msg("coop: forward")
			}
		}
	}
}
