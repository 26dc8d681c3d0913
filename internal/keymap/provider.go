// Package keymap holds the keyboard layout this host offers to peers and a
// persistent cache of the layouts fetched from them.
package keymap

import (
	"encoding/hex"
	"fmt"
	"os"

	"golang.org/x/crypto/blake2b"

	"github.com/lanmouse/lanmouse/capture"
)

// Digest returns the hex BLAKE2b-256 of a keymap blob.
func Digest(data []byte) string {
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Provider is the keymap offered on the side-channel. It is loaded once so
// every request is answered with the same bytes.
type Provider struct {
	data   []byte
	digest string
	source string
	ok     bool
}

// Load resolves the local keymap: the file when set, else the source's
// KeymapProvider capability, else none.
func Load(file string, src capture.EventSource) (*Provider, error) {
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read keymap file: %w", err)
		}
		return newProvider(data, "file:"+file), nil
	}
	if kp, ok := src.(capture.KeymapProvider); ok {
		data, err := kp.Keymap()
		if err != nil {
			return nil, fmt.Errorf("export keymap: %w", err)
		}
		if data != nil {
			return newProvider(data, "source"), nil
		}
	}
	return &Provider{source: "none"}, nil
}

// Static returns a provider serving data.
func Static(data []byte) *Provider { return newProvider(data, "static") }

func newProvider(data []byte, source string) *Provider {
	return &Provider{
		data:   append([]byte(nil), data...),
		digest: Digest(data),
		source: source,
		ok:     true,
	}
}

// Keymap returns the blob and whether one is offered.
func (p *Provider) Keymap() ([]byte, bool) { return p.data, p.ok }

// Digest returns the digest of the offered blob.
func (p *Provider) Digest() (string, bool) { return p.digest, p.ok }

// Source describes where the keymap came from.
func (p *Provider) Source() string { return p.source }
