// Package sidetypes holds the wire types of the lanmouse side-channel.
package sidetypes

import (
	"fmt"
	"time"
)

// Response status bytes. Every side-channel response starts with one.
const (
	StatusOK    byte = 0x00
	StatusError byte = 0x01
)

// ApiError represents an RFC 7807 (problem+json) error response.
type ApiError struct {
	// Status is the HTTP-style status code (e.g., 400, 404, 500)
	Status int `json:"status"`
	// Title is a short, human-readable summary of the problem type
	Title string `json:"title"`
	// Detail is a human-readable explanation specific to this occurrence
	Detail string `json:"detail"`
}

func (e ApiError) Error() string {
	if e.Status == 0 && e.Title == "" {
		return "unknown error"
	}
	if e.Status == 0 {
		return fmt.Sprintf("%s: %s", e.Title, e.Detail)
	}
	return fmt.Sprintf("%d %s: %s", e.Status, e.Title, e.Detail)
}

// --

type PingResponse struct {
	Server  string `json:"server"`
	Version string `json:"version"`
	Role    string `json:"role"`
}

type KeymapDigestResponse struct {
	// Digest is the hex BLAKE2b-256 of the keymap blob.
	Digest string `json:"digest"`
	Size   int    `json:"size"`
}

type PeerStatus struct {
	Role     string     `json:"role"`
	Address  string     `json:"address"`
	Position string     `json:"position"`
	LastSeen *time.Time `json:"lastSeen,omitempty"`
}

type StatusResponse struct {
	Role        string       `json:"role"`
	State       string       `json:"state"`
	Transitions uint64       `json:"transitions"`
	Peers       []PeerStatus `json:"peers"`
}
