package keymap

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger"

	"github.com/lanmouse/lanmouse/peer"
)

// Cache persists the last keymap fetched from each peer, so an injecting
// host can load the owner's layout before the owner is reachable.
type Cache struct {
	db *badger.DB
}

// OpenCache opens or creates the cache in dir.
func OpenCache(dir string, logger *slog.Logger) (*Cache, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = &badgerLogger{l: logger.With("component", "badger")}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open keymap cache: %w", err)
	}
	return &Cache{db: db}, nil
}

func cacheKey(role peer.Role) []byte { return []byte("keymap/" + string(role)) }

// Put stores data as the keymap of role.
func (c *Cache) Put(role peer.Role, data []byte) error {
	return c.db.Update(func(txn *badger.Txn) error {
		return txn.Set(cacheKey(role), data)
	})
}

// Get returns the cached keymap of role.
func (c *Cache) Get(role peer.Role) ([]byte, bool, error) {
	var data []byte
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(cacheKey(role))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	switch {
	case errors.Is(err, badger.ErrKeyNotFound):
		return nil, false, nil
	case err != nil:
		return nil, false, fmt.Errorf("read cached keymap of %s: %w", role, err)
	}
	return data, true, nil
}

// Close flushes and closes the cache.
func (c *Cache) Close() error { return c.db.Close() }

type badgerLogger struct {
	l *slog.Logger
}

func (l badgerLogger) Errorf(msg string, args ...any) {
	l.l.Error(fmt.Sprintf(msg, args...))
}

func (l badgerLogger) Warningf(msg string, args ...any) {
	l.l.Warn(fmt.Sprintf(msg, args...))
}

// Infof is demoted: badger reports routine compaction and replay at info.
func (l badgerLogger) Infof(msg string, args ...any) {
	l.l.Debug(fmt.Sprintf(msg, args...))
}

func (l badgerLogger) Debugf(msg string, args ...any) {
	l.l.Debug(fmt.Sprintf(msg, args...))
}
