// internal/coop/bus.go
package coop

import (
	"context"
	"sync"

	"github.com/robalobadob/alchemy/internal/errs"
)

// ErrDisconnected is returned by a bus whose peer or connection is gone.
var ErrDisconnected = errs.New(errs.KindCoopDisconnect, "co-op partner disconnected")

// Bus carries co-op frames between two players.
type Bus interface {
	Send(ctx context.Context, m Message) error
	// Receive blocks for the next inbound frame. It returns ErrDisconnected
	// once the other side is gone and every buffered frame was delivered.
	Receive(ctx context.Context) (Message, error)
	Close() error
}

// MemoryBus is one end of an in-process bus pair.
type MemoryBus struct {
	in   chan Message
	peer *MemoryBus

	once sync.Once
	done chan struct{}
}

// Pipe returns two connected in-memory buses.
func Pipe(buffer int) (*MemoryBus, *MemoryBus) {
	a := &MemoryBus{in: make(chan Message, buffer), done: make(chan struct{})}
	b := &MemoryBus{in: make(chan Message, buffer), done: make(chan struct{})}
	a.peer, b.peer = b, a
	return a, b
}

func (b *MemoryBus) Send(ctx context.Context, m Message) error {
	select {
	case <-b.done:
		return ErrDisconnected
	case <-b.peer.done:
		return ErrDisconnected
	default:
	}
	select {
	case b.peer.in <- m:
		return nil
	case <-b.done:
		return ErrDisconnected
	case <-b.peer.done:
		return ErrDisconnected
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *MemoryBus) Receive(ctx context.Context) (Message, error) {
	// Buffered frames win over a closed peer.
	select {
	case m := <-b.in:
		return m, nil
	default:
	}
	select {
	case m := <-b.in:
		return m, nil
	case <-b.done:
		return Message{}, ErrDisconnected
	case <-b.peer.done:
		select {
		case m := <-b.in:
			return m, nil
		default:
			return Message{}, ErrDisconnected
		}
	case <-ctx.Done():
		return Message{}, ctx.Err()
	}
}

func (b *MemoryBus) Close() error {
	b.once.Do(func() { close(b.done) })
	return nil
}
