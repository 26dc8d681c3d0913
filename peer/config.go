package peer

import (
	"encoding/json"
	"fmt"
	"net/netip"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml"
	yaml "gopkg.in/yaml.v3"
)

// Config is the on-disk registry description.
//
//	self:
//	  role: desk
//	  screen: {width: 1920, height: 1080}
//	peers:
//	  - role: laptop
//	    address: 192.168.1.20
//	    position: right
//	    screen: {width: 2560, height: 1600}
type Config struct {
	Self     SelfConfig   `json:"self" yaml:"self" toml:"self"`
	Peers    []PeerConfig `json:"peers" yaml:"peers" toml:"peers"`
	Defaults Defaults     `json:"-" yaml:"-" toml:"-"`
}

// SelfConfig describes the local host.
type SelfConfig struct {
	Role   string `json:"role" yaml:"role" toml:"role"`
	Screen Screen `json:"screen" yaml:"screen" toml:"screen"`
}

// PeerConfig describes one remote host. Address must be an IP literal.
//
// Incoming datagrams are attributed to a peer by source IP alone, so every
// peer needs its own address: two peers behind one IP (NAT, or two
// instances on one host with different ports) are rejected even when their
// ports differ.
type PeerConfig struct {
	Role      string `json:"role" yaml:"role" toml:"role"`
	Address   string `json:"address" yaml:"address" toml:"address"`
	EventPort uint16 `json:"eventPort,omitempty" yaml:"eventPort,omitempty" toml:"eventPort,omitempty"`
	SidePort  uint16 `json:"sidePort,omitempty" yaml:"sidePort,omitempty" toml:"sidePort,omitempty"`
	Position  string `json:"position" yaml:"position" toml:"position"`
	Screen    Screen `json:"screen" yaml:"screen" toml:"screen"`
}

// Defaults fill in ports omitted by a peer entry.
type Defaults struct {
	EventPort uint16
	SidePort  uint16
}

// Load reads a registry file. The decoder is picked by file extension:
// .yaml/.yml, .toml, anything else is JSON.
func Load(path string, defaults Defaults) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read peers file: %w", err)
	}
	cfg, err := Parse(data, filepath.Ext(path))
	if err != nil {
		return Config{}, fmt.Errorf("parse peers file %s: %w", path, err)
	}
	cfg.Defaults = defaults
	return cfg, nil
}

// Parse decodes registry data in the format named by ext.
func Parse(data []byte, ext string) (Config, error) {
	var cfg Config
	var err error
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "yaml", "yml":
		err = yaml.Unmarshal(data, &cfg)
	case "toml":
		err = toml.Unmarshal(data, &cfg)
	default:
		err = json.Unmarshal(data, &cfg)
	}
	return cfg, err
}

func (pc PeerConfig) endpoint(d Defaults) (Endpoint, error) {
	role := normalizeRole(pc.Role)
	if role == "" {
		return Endpoint{}, fmt.Errorf("role is empty")
	}
	addr, err := netip.ParseAddr(strings.TrimSpace(pc.Address))
	if err != nil {
		return Endpoint{}, fmt.Errorf("%s: address %q is not an IP literal: %v", role, pc.Address, err)
	}
	pos, err := ParseDirection(pc.Position)
	if err != nil {
		return Endpoint{}, fmt.Errorf("%s: %v", role, err)
	}
	if err := validScreen(pc.Screen); err != nil {
		return Endpoint{}, fmt.Errorf("%s: %v", role, err)
	}
	ep := Endpoint{
		Role:      role,
		Addr:      addr.Unmap(),
		EventPort: pc.EventPort,
		SidePort:  pc.SidePort,
		Screen:    pc.Screen,
		Position:  pos,
	}
	if ep.EventPort == 0 {
		ep.EventPort = d.EventPort
	}
	if ep.SidePort == 0 {
		ep.SidePort = d.SidePort
	}
	if ep.EventPort == 0 || ep.SidePort == 0 {
		return Endpoint{}, fmt.Errorf("%s: event and side ports must be set", role)
	}
	return ep, nil
}
