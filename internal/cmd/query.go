package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lanmouse/lanmouse/internal/keymap"
	"github.com/lanmouse/lanmouse/sideclient"
)

// Query holds the flags shared by commands talking to a peer.
type Query struct {
	Addr    string        `arg:"" name:"addr" help:"Side-channel address of the peer (host:port)"`
	Timeout time.Duration `help:"Timeout for the request" default:"5s"`

	Out io.Writer `kong:"-"`
}

func (q *Query) client() *sideclient.Client {
	return sideclient.NewWithConfig(q.Addr, &sideclient.Config{
		DialTimeout:  q.Timeout,
		ReadTimeout:  q.Timeout,
		WriteTimeout: q.Timeout,
	})
}

func (q *Query) out() io.Writer {
	if q.Out == nil {
		return os.Stdout
	}
	return q.Out
}

func (q *Query) requestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), q.Timeout+time.Second)
}

func (q *Query) printJSON(v any) error {
	enc := json.NewEncoder(q.out())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Ping checks that a peer answers.
type Ping struct {
	Query `embed:""`
}

func (p *Ping) Run(logger *slog.Logger) error {
	ctx, cancel := p.requestContext()
	defer cancel()
	start := time.Now()
	resp, err := p.client().PingCtx(ctx)
	if err != nil {
		return err
	}
	logger.Debug("ping answered", "addr", p.Addr, "rtt", time.Since(start))
	return p.printJSON(resp)
}

// Status prints the ownership state of a peer.
type Status struct {
	Query `embed:""`
}

func (s *Status) Run(logger *slog.Logger) error {
	ctx, cancel := s.requestContext()
	defer cancel()
	resp, err := s.client().StatusCtx(ctx)
	if err != nil {
		return err
	}
	return s.printJSON(resp)
}

// KeymapCommand groups keymap-related subcommands.
type KeymapCommand struct {
	Get    KeymapGet    `cmd:"" help:"Download the keymap offered by a peer"`
	Digest KeymapDigest `cmd:"" help:"Print the digest of the keymap offered by a peer"`
}

// KeymapGet downloads a peer's keymap.
type KeymapGet struct {
	Query `embed:""`
	Output string `short:"o" help:"Write the keymap to this file instead of stdout" type:"path"`
	Force  bool   `help:"Overwrite if the file already exists"`
}

func (k *KeymapGet) Run(logger *slog.Logger) error {
	ctx, cancel := k.requestContext()
	defer cancel()
	data, err := k.client().GetKeymapCtx(ctx)
	if err != nil {
		return err
	}
	logger.Debug("keymap received", "addr", k.Addr, "bytes", len(data), "digest", keymap.Digest(data))
	if k.Output == "" {
		_, err := k.out().Write(data)
		return err
	}
	flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if !k.Force {
		flags |= os.O_EXCL
	}
	f, err := os.OpenFile(k.Output, flags, 0o644)
	if err != nil {
		return fmt.Errorf("open output: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// KeymapDigest prints the digest a peer announces for its keymap.
type KeymapDigest struct {
	Query `embed:""`
}

func (k *KeymapDigest) Run(logger *slog.Logger) error {
	ctx, cancel := k.requestContext()
	defer cancel()
	resp, err := k.client().KeymapDigestCtx(ctx)
	if err != nil {
		return err
	}
	return k.printJSON(resp)
}
