// internal/coop/adapter.go
//
// Adapter binds a Bus to a game controller. Outbound it implements the
// controller's Partner hook; inbound, Run dispatches frames to a Target.
//
// Post-win offer: either player may offer to continue. The offer resolves
// to accepted only when the other side answers yes; silence for the offer
// timeout, an explicit no, or a partner disconnect all decline.
package coop

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/alchemy/internal/element"
	"github.com/robalobadob/alchemy/internal/errs"
)

// DefaultOfferTimeout auto-declines an unanswered continue offer.
const DefaultOfferTimeout = 30 * time.Second

// Target receives partner events. *game.Controller satisfies it.
type Target interface {
	AddPartnerElement(ctx context.Context, name, emoji string) bool
	PartnerCompleted(ctx context.Context, target string) bool
	PartnerDisconnected()
	ContinueTogether() error
}

// Option customizes an Adapter.
type Option func(*Adapter)

// WithOfferTimeout overrides DefaultOfferTimeout.
func WithOfferTimeout(d time.Duration) Option { return func(a *Adapter) { a.offerTimeout = d } }

// WithOfferHandler is called when the partner offers to continue. The
// presentation layer answers with Accept or Decline.
func WithOfferHandler(f func()) Option { return func(a *Adapter) { a.onOffer = f } }

// WithStatusHandler is called with StatusJoined / StatusLeft.
func WithStatusHandler(f func(status string)) Option { return func(a *Adapter) { a.onStatus = f } }

// Adapter is safe for concurrent use.
type Adapter struct {
	bus          Bus
	target       Target
	offerTimeout time.Duration
	onOffer      func()
	onStatus     func(string)

	mu       sync.Mutex
	seen     map[string]struct{}
	outgoing *offer // we offered, waiting for an answer
	incoming *offer // partner offered, waiting for us
}

type offer struct {
	timer  *time.Timer
	result chan bool
}

// NewAdapter returns an adapter; call Run to start dispatching.
func NewAdapter(bus Bus, target Target, opts ...Option) *Adapter {
	a := &Adapter{
		bus:          bus,
		target:       target,
		offerTimeout: DefaultOfferTimeout,
		seen:         make(map[string]struct{}),
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// SendElement forwards a local discovery.
func (a *Adapter) SendElement(ctx context.Context, e element.Element) error {
	return a.bus.Send(ctx, ElementMessage(e.Name, e.Emoji))
}

// SendCompletion forwards the local target-reached event.
func (a *Adapter) SendCompletion(ctx context.Context, target string) error {
	return a.bus.Send(ctx, CompleteMessage(target))
}

// Run dispatches inbound frames until ctx ends or the bus disconnects.
// A disconnect declines pending offers and is reported to the target; it
// returns ErrDisconnected.
func (a *Adapter) Run(ctx context.Context) error {
	for {
		m, err := a.bus.Receive(ctx)
		if err != nil {
			if errors.Is(err, errs.CoopDisconnect) {
				a.disconnected()
				return ErrDisconnected
			}
			return err
		}
		a.Dispatch(ctx, m)
	}
}

// Dispatch handles one inbound frame. Frames are deduplicated by id.
func (a *Adapter) Dispatch(ctx context.Context, m Message) {
	if m.ID != "" {
		a.mu.Lock()
		_, dup := a.seen[m.ID]
		a.seen[m.ID] = struct{}{}
		a.mu.Unlock()
		if dup {
			return
		}
	}

	switch m.Type {
	case TypeElement:
		a.target.AddPartnerElement(ctx, m.Element, m.Emoji)
	case TypeComplete:
		a.target.PartnerCompleted(ctx, m.Target)
	case TypePartner:
		if a.onStatus != nil {
			a.onStatus(m.Status)
		}
		if m.Status == StatusLeft {
			a.disconnected()
		}
	case TypeOffer:
		a.receiveOffer()
	case TypeAnswer:
		a.receiveAnswer(m.Accept)
	default:
		log.Debug().Str("type", string(m.Type)).Msg("coop: ignoring unknown frame")
	}
}

// OfferContinue asks the partner to keep playing. The returned channel
// yields once: true when the partner accepted (the target has then already
// continued), false otherwise.
func (a *Adapter) OfferContinue(ctx context.Context) (<-chan bool, error) {
	a.mu.Lock()
	if a.outgoing != nil {
		a.mu.Unlock()
		return nil, errs.New(errs.KindBusy, "offer continue: already waiting for an answer")
	}
	o := &offer{result: make(chan bool, 1)}
	a.outgoing = o
	o.timer = time.AfterFunc(a.offerTimeout, func() { a.resolveOutgoing(o, false) })
	a.mu.Unlock()

	if err := a.bus.Send(ctx, NewMessage(TypeOffer)); err != nil {
		a.resolveOutgoing(o, false)
		return o.result, err
	}
	return o.result, nil
}

// Accept answers a pending partner offer with yes and continues locally.
func (a *Adapter) Accept(ctx context.Context) error { return a.answer(ctx, true) }

// Decline answers a pending partner offer with no.
func (a *Adapter) Decline(ctx context.Context) error { return a.answer(ctx, false) }

func (a *Adapter) answer(ctx context.Context, accept bool) error {
	a.mu.Lock()
	o := a.incoming
	a.incoming = nil
	a.mu.Unlock()
	if o == nil {
		return errs.New(errs.KindInvalidState, "answer: no pending offer")
	}
	o.timer.Stop()
	o.result <- accept

	m := NewMessage(TypeAnswer)
	m.Accept = accept
	if err := a.bus.Send(ctx, m); err != nil {
		return err
	}
	if accept {
		return a.target.ContinueTogether()
	}
	return nil
}

// PendingOffer reports whether the partner is waiting for an answer.
func (a *Adapter) PendingOffer() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.incoming != nil
}

func (a *Adapter) receiveOffer() {
	a.mu.Lock()
	if a.incoming != nil {
		a.mu.Unlock()
		return
	}
	o := &offer{result: make(chan bool, 1)}
	a.incoming = o
	o.timer = time.AfterFunc(a.offerTimeout, func() {
		if a.dropIncoming(o) {
			log.Info().Msg("coop: continue offer timed out, declining")
			m := NewMessage(TypeAnswer)
			if err := a.bus.Send(context.Background(), m); err != nil {
				log.Warn().Err(err).Msg("coop: send auto-decline")
			}
		}
	})
	a.mu.Unlock()

	if a.onOffer != nil {
		a.onOffer()
	}
}

// dropIncoming clears o if it is still pending and reports whether it was.
func (a *Adapter) dropIncoming(o *offer) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.incoming != o {
		return false
	}
	a.incoming = nil
	o.result <- false
	return true
}

func (a *Adapter) receiveAnswer(accept bool) {
	a.mu.Lock()
	o := a.outgoing
	a.mu.Unlock()
	if o == nil {
		return
	}
	if accept {
		if err := a.target.ContinueTogether(); err != nil {
			log.Warn().Err(err).Msg("coop: continue together")
			accept = false
		}
	}
	a.resolveOutgoing(o, accept)
}

func (a *Adapter) resolveOutgoing(o *offer, accept bool) {
	a.mu.Lock()
	if a.outgoing != o {
		a.mu.Unlock()
		return
	}
	a.outgoing = nil
	a.mu.Unlock()
	o.timer.Stop()
	o.result <- accept
}

func (a *Adapter) disconnected() {
	a.mu.Lock()
	out, in := a.outgoing, a.incoming
	a.mu.Unlock()
	if out != nil {
		a.resolveOutgoing(out, false)
	}
	if in != nil {
		a.dropIncoming(in)
		in.timer.Stop()
	}
	a.target.PartnerDisconnected()
}
