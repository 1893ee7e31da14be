// internal/coop/websocket.go
//
// WSBus speaks to the /coop/ws relay. A reader goroutine decodes frames
// into a channel so Receive can honor its context.
package coop

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/net/websocket"
)

// WSBus is a Bus over a websocket connection.
type WSBus struct {
	conn *websocket.Conn

	sendMu sync.Mutex
	frames chan Message

	once sync.Once
	done chan struct{}
}

// DialWS joins room on the relay at base (an http(s) URL). token, when set,
// is sent as a bearer credential.
func DialWS(ctx context.Context, base, room, token string) (*WSBus, error) {
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("coop: parse relay url: %w", err)
	}
	origin := u.Scheme + "://" + u.Host
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = joinPath(u.Path, "/coop/ws")
	q := u.Query()
	q.Set("room", room)
	u.RawQuery = q.Encode()

	cfg, err := websocket.NewConfig(u.String(), origin)
	if err != nil {
		return nil, fmt.Errorf("coop: websocket config: %w", err)
	}
	if token != "" {
		cfg.Header = make(http.Header)
		cfg.Header.Set("Authorization", "Bearer "+token)
	}
	conn, err := cfg.DialContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("coop: dial relay: %w", err)
	}
	return NewWSBus(conn), nil
}

func joinPath(base, p string) string {
	for len(base) > 0 && base[len(base)-1] == '/' {
		base = base[:len(base)-1]
	}
	return base + p
}

// NewWSBus wraps an open connection and starts its reader.
func NewWSBus(conn *websocket.Conn) *WSBus {
	b := &WSBus{
		conn:   conn,
		frames: make(chan Message, 32),
		done:   make(chan struct{}),
	}
	go b.read()
	return b
}

func (b *WSBus) read() {
	defer close(b.frames)
	for {
		var m Message
		if err := websocket.JSON.Receive(b.conn, &m); err != nil {
			if !errors.Is(err, io.EOF) {
				select {
				case <-b.done:
				default:
					log.Debug().Err(err).Msg("coop: websocket read")
				}
			}
			return
		}
		select {
		case b.frames <- m:
		case <-b.done:
			return
		}
	}
}

// Send writes m as one JSON frame. After Close, or once the connection
// fails, it returns ErrDisconnected.
func (b *WSBus) Send(ctx context.Context, m Message) error {
	select {
	case <-b.done:
		return ErrDisconnected
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	b.sendMu.Lock()
	defer b.sendMu.Unlock()
	if err := websocket.JSON.Send(b.conn, m); err != nil {
		return fmt.Errorf("%w: %v", ErrDisconnected, err)
	}
	return nil
}

// Receive returns the next frame from the relay. It reports ErrDisconnected
// once the reader goroutine has stopped.
func (b *WSBus) Receive(ctx context.Context) (Message, error) {
	select {
	case m, ok := <-b.frames:
		if !ok {
			return Message{}, ErrDisconnected
		}
		return m, nil
	case <-ctx.Done():
		return Message{}, ctx.Err()
	}
}

// Close shuts the connection down. It is safe to call more than once.
func (b *WSBus) Close() error {
	var err error
	b.once.Do(func() {
		close(b.done)
		err = b.conn.Close()
	})
	return err
}
