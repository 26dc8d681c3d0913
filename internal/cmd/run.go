package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/lanmouse/lanmouse/internal/backend"
	"github.com/lanmouse/lanmouse/internal/configpaths"
	"github.com/lanmouse/lanmouse/internal/keymap"
	"github.com/lanmouse/lanmouse/internal/log"
	"github.com/lanmouse/lanmouse/internal/server/events"
	"github.com/lanmouse/lanmouse/internal/server/side"
	"github.com/lanmouse/lanmouse/internal/session"
	"github.com/lanmouse/lanmouse/ownership"
	"github.com/lanmouse/lanmouse/peer"
)

// defaultPort is used for peer ports when the local listen address has none.
const defaultPort = 4242

type Run struct {
	Peers      string `help:"Peer registry file (json, yaml or toml)" required:"" type:"path" env:"LANMOUSE_PEERS"`
	Owner      string `help:"Role of the host owning input at start; empty or the local role means this host" env:"LANMOUSE_OWNER"`
	Backend    string `help:"Display backend" default:"null" env:"LANMOUSE_BACKEND"`
	KeymapFile string `help:"Keymap file offered to peers instead of the backend's own" type:"path" env:"LANMOUSE_KEYMAP_FILE"`
	CacheDir   string `help:"Keymap cache directory (defaults to the user cache dir)" type:"path" env:"LANMOUSE_CACHE_DIR"`
	NoCache    bool   `help:"Do not persist fetched keymaps" env:"LANMOUSE_NO_CACHE"`

	Session session.Config `embed:""`
	Events  events.Config  `embed:"" prefix:"events."`
	Side    side.Config    `embed:"" prefix:"side."`
}

// Run is called by Kong when the run command is executed.
func (r *Run) Run(logger *slog.Logger, rawLogger log.RawLogger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return r.StartSession(ctx, logger, rawLogger)
}

// StartSession runs the session until ctx is done.
func (r *Run) StartSession(ctx context.Context, logger *slog.Logger, rawLogger log.RawLogger) error {
	cfg, err := peer.Load(r.Peers, peer.Defaults{
		EventPort: portOf(r.Events.Addr),
		SidePort:  portOf(r.Side.Addr),
	})
	if err != nil {
		return err
	}
	reg, err := peer.New(cfg)
	if err != nil {
		return err
	}
	self := reg.Self()
	initial := r.initialState(self.Role)
	logger.Info("starting lanmouse", "role", self.Role, "screen", self.Screen, "peers", len(reg.Peers()), "initial", initial)

	b, err := backend.Open(r.Backend, &backend.Options{Logger: logger.With("component", "backend"), Screen: self.Screen})
	if err != nil {
		return err
	}
	defer func() {
		if err := b.Close(); err != nil {
			logger.Warn("failed to close backend", "error", err)
		}
	}()

	km, err := keymap.Load(r.KeymapFile, b.Source)
	if err != nil {
		return err
	}
	logger.Info("keymap loaded", "source", km.Source())

	var cache *keymap.Cache
	if !r.NoCache {
		cache, err = r.openCache(logger)
		if err != nil {
			logger.Warn("keymap cache disabled", "error", err)
		} else {
			defer func() { _ = cache.Close() }()
		}
	}

	if r.Side.Addr == "" {
		return errors.New("side-channel address must be set (default :4242)")
	}
	ch := events.New(r.Events, reg, logger.With("component", "events"), rawLogger)
	srv := side.New(r.Side.Addr, r.Side, logger.With("component", "side"))
	s, err := session.New(r.Session, session.Deps{
		Registry: reg,
		Channel:  ch,
		Side:     srv,
		Source:   b.Source,
		Sink:     b.Sink,
		Keymap:   km,
		Cache:    cache,
		Initial:  initial,
		Version:  Version,
		Logger:   logger,
	})
	if err != nil {
		return err
	}
	return s.Run(ctx)
}

func (r *Run) initialState(self peer.Role) ownership.State {
	owner := peer.Role(strings.ToLower(strings.TrimSpace(r.Owner)))
	if owner == "" || owner == self {
		return ownership.State{Kind: ownership.Local}
	}
	return ownership.State{Kind: ownership.Injecting, Peer: owner}
}

func (r *Run) openCache(logger *slog.Logger) (*keymap.Cache, error) {
	dir := r.CacheDir
	if dir == "" {
		var err error
		if dir, err = configpaths.DefaultCacheDir(); err != nil {
			return nil, fmt.Errorf("resolve cache dir: %w", err)
		}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return keymap.OpenCache(dir, logger.With("component", "keymap-cache"))
}

func portOf(addr string) uint16 {
	_, p, err := net.SplitHostPort(addr)
	if err != nil {
		return defaultPort
	}
	n, err := strconv.ParseUint(p, 10, 16)
	if err != nil || n == 0 {
		return defaultPort
	}
	return uint16(n)
}
