// internal/engine/engine.go
//
// Client-side assembly of the game engine.
// Responsibilities:
//   - Open the device-local store (SQLite file or memory) behind the quota guard.
//   - Build the backend client and the game controller from config.Engine.
//   - Join a co-op room over the websocket relay.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/alchemy/internal/api"
	"github.com/robalobadob/alchemy/internal/clock"
	"github.com/robalobadob/alchemy/internal/config"
	"github.com/robalobadob/alchemy/internal/coop"
	"github.com/robalobadob/alchemy/internal/daily"
	"github.com/robalobadob/alchemy/internal/game"
	"github.com/robalobadob/alchemy/internal/localstore"
	"github.com/robalobadob/alchemy/internal/progress"
	"github.com/robalobadob/alchemy/internal/puzzle"
)

// Runtime is a wired engine.
type Runtime struct {
	Controller *game.Controller
	Client     *api.Client
	Local      *progress.Local

	apiURL string
	closer func() error

	mu     sync.Mutex
	cancel context.CancelFunc
	bus    coop.Bus
}

// Option customizes Open.
type Option func(*openOptions)

type openOptions struct {
	clock clock.Provider
	game  []game.Option
}

// WithClock sets the time source for the controller and the local guard.
func WithClock(c clock.Provider) Option {
	return func(o *openOptions) { o.clock = c }
}

// WithGameOptions forwards options to game.New.
func WithGameOptions(opts ...game.Option) Option {
	return func(o *openOptions) { o.game = append(o.game, opts...) }
}

// Open builds a Runtime from cfg.
func Open(cfg config.Engine, opts ...Option) (*Runtime, error) {
	o := openOptions{clock: clock.New()}
	for _, opt := range opts {
		opt(&o)
	}

	var (
		kv     localstore.Store
		closer = func() error { return nil }
	)
	if cfg.LocalDB == "" {
		kv = localstore.NewMemory(cfg.LocalQuota)
	} else {
		lite, err := localstore.OpenSQLite(cfg.LocalDB, cfg.LocalQuota)
		if err != nil {
			return nil, fmt.Errorf("engine: open local store: %w", err)
		}
		kv, closer = lite, lite.Close
	}
	guarded := localstore.NewGuarded(kv, func() string { return daily.DateKey(o.clock.Now()) })
	local := progress.NewLocal(guarded)

	client := api.New(cfg.APIURL)
	gopts := append([]game.Option{game.WithClock(o.clock)}, o.game...)
	ctl := game.New(cfg.GameConfig(), client, local, gopts...)

	return &Runtime{
		Controller: ctl,
		Client:     client,
		Local:      local,
		apiURL:     cfg.APIURL,
		closer:     closer,
	}, nil
}

// Close leaves co-op and releases the local store.
func (r *Runtime) Close() error {
	r.LeaveCoop()
	return r.closer()
}

// CoopOptions configures JoinCoop.
type CoopOptions struct {
	Room         string
	Puzzle       *puzzle.Puzzle
	OfferTimeout time.Duration
	OnOffer      func()
	OnStatus     func(status string)
}

// JoinCoop dials the relay, enters co-op mode and starts relaying frames.
// The returned adapter answers post-win offers.
func (r *Runtime) JoinCoop(ctx context.Context, opts CoopOptions) (*coop.Adapter, error) {
	if opts.Room == "" {
		return nil, errors.New("engine: coop room is required")
	}
	if _, err := r.Client.EnsureSession(ctx); err != nil {
		log.Warn().Err(err).Msg("engine: joining co-op without a session")
	}
	token, _ := r.Client.Session()
	bus, err := coop.DialWS(ctx, r.apiURL, opts.Room, token)
	if err != nil {
		return nil, err
	}

	var aopts []coop.Option
	if opts.OfferTimeout > 0 {
		aopts = append(aopts, coop.WithOfferTimeout(opts.OfferTimeout))
	}
	if opts.OnOffer != nil {
		aopts = append(aopts, coop.WithOfferHandler(opts.OnOffer))
	}
	if opts.OnStatus != nil {
		aopts = append(aopts, coop.WithStatusHandler(opts.OnStatus))
	}
	adapter := coop.NewAdapter(bus, r.Controller, aopts...)

	if err := r.Controller.StartCoop(ctx, game.CoopOptions{Partner: adapter, Puzzle: opts.Puzzle}); err != nil {
		_ = bus.Close()
		return nil, err
	}

	runCtx, cancel := context.WithCancel(context.Background())
	r.mu.Lock()
	r.cancel, r.bus = cancel, bus
	r.mu.Unlock()
	go func() {
		if err := adapter.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
			log.Info().Err(err).Str("room", opts.Room).Msg("engine: co-op link closed")
		}
	}()
	return adapter, nil
}

// LeaveCoop closes the relay link and returns the controller to idle.
func (r *Runtime) LeaveCoop() {
	r.mu.Lock()
	cancel, bus := r.cancel, r.bus
	r.cancel, r.bus = nil, nil
	r.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	_ = bus.Close()
	r.Controller.LeaveCoop()
}
