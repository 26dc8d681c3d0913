package backend_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lanmouse/lanmouse/capture"
	"github.com/lanmouse/lanmouse/event"
	"github.com/lanmouse/lanmouse/internal/backend"
	_ "github.com/lanmouse/lanmouse/internal/registry"
)

func TestRegistry(t *testing.T) {
	assert.Subset(t, backend.Names(), []string{"log", "null"})
	assert.NotNil(t, backend.Get("NULL"))
	assert.Nil(t, backend.Get("wayland-nope"))

	_, err := backend.Open("wayland-nope", &backend.Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "available: ")
}

func TestRegisterCustom(t *testing.T) {
	backend.Register("Custom-Test", func(o *backend.Options) (*backend.Backend, error) {
		return &backend.Backend{Sink: capture.SinkFunc(func(context.Context, event.Event) error { return nil })}, nil
	})
	b, err := backend.Open("custom-test", &backend.Options{})
	require.NoError(t, err)
	require.NotNil(t, b.Close)
	assert.NoError(t, b.Close())
	assert.Contains(t, backend.Names(), "custom-test")
}

func TestNullSourceBlocks(t *testing.T) {
	b, err := backend.Open("null", &backend.Options{})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	ev, err := b.Source.Next(ctx)
	assert.Nil(t, ev)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.NoError(t, b.Sink.Apply(context.Background(), event.Key{Keycode: 1}))
}

func TestLogSink(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	b, err := backend.Open("log", &backend.Options{Logger: logger})
	require.NoError(t, err)

	require.NoError(t, b.Sink.Apply(context.Background(), event.Key{Time: 7, Keycode: 30, Pressed: true}))
	ka, ok := b.Sink.(capture.KeymapApplier)
	require.True(t, ok)
	require.NoError(t, ka.ApplyKeymap([]byte("xkb")))

	out := buf.String()
	assert.Contains(t, out, "msg=inject")
	assert.Contains(t, out, "component=sink")
	assert.Contains(t, out, "msg=\"apply keymap\" component=sink bytes=3")
}
