// Package server holds the long-lived state of the gateway process: the
// server context tying the credential store to lazily created provider
// clients, and the dedicated metrics/health HTTP server.
package server
