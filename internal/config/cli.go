// Package config defines the lanmouse command line. Every flag can also be
// set from a config file or the environment.
package config

import "github.com/lanmouse/lanmouse/internal/cmd"

// LogConfig controls logging output.
type LogConfig struct {
	Level   string `help:"Log level" enum:"trace,debug,info,warn,error" default:"info" env:"LANMOUSE_LOG_LEVEL"`
	File    string `help:"Also write logs to this file" type:"path" env:"LANMOUSE_LOG_FILE"`
	RawFile string `help:"Write a hex dump of every event datagram to this file" type:"path" env:"LANMOUSE_LOG_RAW_FILE"`
	Format  string `help:"Log format; auto uses text on a terminal and json otherwise" enum:"auto,text,json" default:"auto" env:"LANMOUSE_LOG_FORMAT"`
}

// CLI is the root command.
type CLI struct {
	Config string    `help:"Config file (json, yaml or toml)" type:"path" env:"LANMOUSE_CONFIG"`
	Log    LogConfig `embed:"" prefix:"log."`

	Run    cmd.Run           `cmd:"" help:"Share input with the peers in the registry file"`
	Keymap cmd.KeymapCommand `cmd:"" help:"Inspect the keymap offered by a peer"`
	Status cmd.Status        `cmd:"" help:"Show the ownership state of a peer"`
	Ping   cmd.Ping          `cmd:"" help:"Check that a peer's side-channel answers"`
	Cfg    cmd.ConfigCommand `cmd:"" name:"config" help:"Manage configuration files"`
}
