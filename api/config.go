// Package api provides the HTTP API server for the engram memory layer.
package api

// Config is the API server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":8733")
	ListenAddr string
}
