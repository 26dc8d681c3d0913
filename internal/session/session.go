// Package session runs one lanmouse host: it wires the capture backend, the
// ownership machine, the event channel and the side-channel together.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/lanmouse/lanmouse/capture"
	"github.com/lanmouse/lanmouse/event"
	"github.com/lanmouse/lanmouse/internal/keymap"
	"github.com/lanmouse/lanmouse/internal/server/events"
	"github.com/lanmouse/lanmouse/internal/server/side"
	"github.com/lanmouse/lanmouse/internal/server/side/handler"
	"github.com/lanmouse/lanmouse/ownership"
	"github.com/lanmouse/lanmouse/peer"
	"github.com/lanmouse/lanmouse/sideclient"
	"github.com/lanmouse/lanmouse/sidetypes"
)

// ErrSinkFailed ends Run when the sink keeps rejecting events.
var ErrSinkFailed = errors.New("event sink failed")

// Deps are the components a session drives. Registry, Channel, Side, Source
// and Sink are required.
type Deps struct {
	Registry *peer.Registry
	Channel  *events.Channel
	Side     *side.Server
	Source   capture.EventSource
	Sink     capture.EventSink
	// Keymap is offered to peers. Nil offers none.
	Keymap *keymap.Provider
	// Cache keeps the owner's keymap across restarts. Optional.
	Cache   *keymap.Cache
	Initial ownership.State
	Version string
	Logger  *slog.Logger
	// Dial returns a side-channel client for a peer. Defaults to a client on
	// the peer's side address.
	Dial func(ep peer.Endpoint) *sideclient.Client
}

// Session is a running host.
type Session struct {
	cfg     Config
	reg     *peer.Registry
	machine *ownership.Machine
	channel *events.Channel
	side    *side.Server
	source  capture.EventSource
	sink    capture.EventSink
	cache   *keymap.Cache
	dial    func(ep peer.Endpoint) *sideclient.Client
	logger  *slog.Logger

	sinkMu       sync.Mutex
	sinkFailures int

	// grabMu orders SetGrab calls; grabbed is the last applied grab.
	grabMu  sync.Mutex
	grabbed *bool
	fatal        chan error

	// keymapKick asks the keymap sync to try again.
	keymapKick chan struct{}
	keymapMu   sync.Mutex
	keymapSum  string
	keymapDone bool
}

// New wires a session and registers the side-channel handlers on d.Side.
func New(cfg Config, d Deps) (*Session, error) {
	if d.Registry == nil || d.Channel == nil || d.Side == nil || d.Source == nil || d.Sink == nil {
		return nil, errors.New("session: missing dependency")
	}
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Session{
		cfg:        cfg,
		reg:        d.Registry,
		channel:    d.Channel,
		side:       d.Side,
		source:     d.Source,
		sink:       d.Sink,
		cache:      d.Cache,
		dial:       d.Dial,
		logger:     logger,
		fatal:      make(chan error, 1),
		keymapKick: make(chan struct{}, 1),
	}
	if s.dial == nil {
		s.dial = func(ep peer.Endpoint) *sideclient.Client { return sideclient.New(ep.SideAddr().String()) }
	}

	m, err := ownership.New(d.Registry, d.Initial,
		ownership.WithLogger(logger.With("component", "ownership")),
		ownership.WithTransitionHook(s.onTransition),
	)
	if err != nil {
		return nil, err
	}
	s.machine = m

	km := d.Keymap
	if km == nil {
		km, _ = keymap.Load("", nil)
	}
	handler.RegisterAll(d.Side.Router(), handler.Deps{
		Version:  d.Version,
		Registry: d.Registry,
		Keymap:   km,
		State:    m,
		Seen:     d.Channel,
	})
	return s, nil
}

// Machine returns the ownership machine of the session.
func (s *Session) Machine() *ownership.Machine { return s.machine }

// Run serves until ctx is done or a fatal error occurs. It returns nil on
// orderly shutdown.
func (s *Session) Run(ctx context.Context) error {
	if err := s.side.Start(); err != nil {
		return fmt.Errorf("start side-channel: %w", err)
	}
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		<-ctx.Done()
		s.side.Close()
		return nil
	})
	g.Go(func() error {
		return s.channel.ListenAndServe(ctx, func(from peer.Endpoint, ev event.Event) {
			s.onRemote(ctx, from, ev)
		})
	})
	g.Go(func() error { return s.captureLoop(ctx) })
	g.Go(func() error {
		select {
		case err := <-s.fatal:
			return err
		case <-ctx.Done():
			return nil
		}
	})
	if st := s.machine.State(); st.Kind == ownership.Injecting {
		g.Go(func() error { return s.syncKeymap(ctx, st.Peer) })
	}

	s.logger.Info("session started", "role", s.reg.Self().Role, "state", s.machine.State())
	err := g.Wait()
	s.logger.Info("session stopped", "transitions", s.machine.Transitions())
	return err
}

func (s *Session) captureLoop(ctx context.Context) error {
	select {
	case <-s.channel.Ready():
	case <-ctx.Done():
		return nil
	}
	for {
		ev, err := s.source.Next(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, io.EOF) {
				s.logger.Info("capture source closed")
				return nil
			}
			return fmt.Errorf("capture: %w", err)
		}
		s.execute(ctx, s.machine.HandleLocal(ev))
	}
}

func (s *Session) onRemote(ctx context.Context, from peer.Endpoint, ev event.Event) {
	act := s.machine.HandleRemote(from, ev)
	if ev.Kind() == event.KindEnter && act.Inject != nil {
		select {
		case s.keymapKick <- struct{}{}:
		default:
		}
	}
	s.execute(ctx, act)
}

func (s *Session) execute(ctx context.Context, act ownership.Action) {
	if act.Inject != nil {
		s.inject(ctx, act.Inject)
	}
	for _, out := range act.Send {
		if err := s.channel.Send(out.To, out.Event); err != nil {
			s.logger.Debug("send failed", "to", out.To.Role, "event", out.Event, "error", err)
		}
	}
}

// inject applies ev to the sink. Consecutive failures beyond the configured
// limit are fatal.
func (s *Session) inject(ctx context.Context, ev event.Event) {
	s.sinkMu.Lock()
	defer s.sinkMu.Unlock()

	actx, cancel := ctx, context.CancelFunc(func() {})
	if s.cfg.SinkTimeout > 0 {
		actx, cancel = context.WithTimeout(ctx, s.cfg.SinkTimeout)
	}
	err := s.sink.Apply(actx, ev)
	cancel()
	if err == nil {
		s.sinkFailures = 0
		return
	}
	if ctx.Err() != nil {
		return
	}
	s.sinkFailures++
	s.logger.Warn("inject failed", "event", ev, "failures", s.sinkFailures, "error", err)
	if s.cfg.SinkMaxFailures > 0 && s.sinkFailures >= s.cfg.SinkMaxFailures {
		select {
		case s.fatal <- fmt.Errorf("%w: %d consecutive failures: %w", ErrSinkFailed, s.sinkFailures, err):
		default:
		}
	}
}

func (s *Session) onTransition(from, to ownership.State) {
	g, ok := s.source.(capture.Grabber)
	if !ok {
		return
	}
	s.grabMu.Lock()
	defer s.grabMu.Unlock()

	// Hooks run after the new state is published and may arrive out of
	// order, so the grab follows the current state rather than to.
	cur := to
	if s.machine != nil {
		cur = s.machine.State()
	}
	var grab bool
	switch cur.Kind {
	case ownership.Remote:
		grab = true
	case ownership.Local:
		grab = false
	default:
		return
	}
	if s.grabbed != nil && *s.grabbed == grab {
		return
	}
	if err := g.SetGrab(grab); err != nil {
		s.logger.Warn("failed to change input grab", "grab", grab, "error", err)
		return
	}
	s.grabbed = &grab
}

// syncKeymap loads the owner's keymap into the sink: the cached copy first,
// then the owner's current one. A failed fetch is retried on the next Enter.
func (s *Session) syncKeymap(ctx context.Context, owner peer.Role) error {
	applier, ok := s.sink.(capture.KeymapApplier)
	if !ok {
		s.logger.Debug("sink cannot load keymaps, skipping keymap sync")
		return nil
	}
	ep, err := s.reg.Lookup(owner)
	if err != nil {
		return err
	}
	logger := s.logger.With("component", "keymap", "owner", owner)

	if s.cache != nil {
		data, ok, err := s.cache.Get(owner)
		switch {
		case err != nil:
			logger.Warn("failed to read keymap cache", "error", err)
		case ok:
			if err := applier.ApplyKeymap(data); err != nil {
				logger.Warn("failed to apply cached keymap", "error", err)
			} else {
				s.setKeymap(keymap.Digest(data), false)
				logger.Info("applied cached keymap", "bytes", len(data))
			}
		}
	}

	for {
		err := s.fetchKeymap(ctx, ep, applier, logger)
		if ctx.Err() != nil {
			return nil
		}
		if err == nil {
			return nil
		}
		logger.Warn("keymap sync failed, retrying on next enter", "error", err)
		select {
		case <-ctx.Done():
			return nil
		case <-s.keymapKick:
		}
	}
}

func (s *Session) fetchKeymap(ctx context.Context, ep peer.Endpoint, applier capture.KeymapApplier, logger *slog.Logger) error {
	cli := s.dial(ep)

	var dg *sidetypes.KeymapDigestResponse
	err := sideclient.Retry(ctx, s.cfg.KeymapAttempts, s.cfg.KeymapBackoff, func(ctx context.Context) error {
		var err error
		dg, err = cli.KeymapDigestCtx(ctx)
		return err
	})
	var apiErr sidetypes.ApiError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
		logger.Info("owner offers no keymap")
		s.setKeymap("", true)
		return nil
	}
	if err != nil {
		return fmt.Errorf("keymap digest: %w", err)
	}
	if sum, _ := s.Keymap(); sum == dg.Digest {
		logger.Debug("keymap up to date", "digest", dg.Digest)
		s.setKeymap(dg.Digest, true)
		return nil
	}

	var data []byte
	err = sideclient.Retry(ctx, s.cfg.KeymapAttempts, s.cfg.KeymapBackoff, func(ctx context.Context) error {
		var err error
		data, err = cli.GetKeymapCtx(ctx)
		return err
	})
	if err != nil {
		return fmt.Errorf("keymap: %w", err)
	}
	sum := keymap.Digest(data)
	if sum != dg.Digest {
		logger.Warn("keymap changed between requests", "announced", dg.Digest, "received", sum)
	}
	if err := applier.ApplyKeymap(data); err != nil {
		return fmt.Errorf("apply keymap: %w", err)
	}
	s.setKeymap(sum, true)
	logger.Info("applied owner keymap", "bytes", len(data), "digest", sum)

	if s.cache != nil {
		if err := s.cache.Put(ep.Role, data); err != nil {
			logger.Warn("failed to cache keymap", "error", err)
		}
	}
	return nil
}

func (s *Session) setKeymap(sum string, synced bool) {
	s.keymapMu.Lock()
	defer s.keymapMu.Unlock()
	s.keymapSum = sum
	s.keymapDone = s.keymapDone || synced
}

// Keymap returns the digest of the keymap applied to the sink and whether
// it was confirmed with the owner.
func (s *Session) Keymap() (string, bool) {
	s.keymapMu.Lock()
	defer s.keymapMu.Unlock()
	return s.keymapSum, s.keymapDone
}
