// Package cmd implements the command-line interface for deskgate.
//
// This package provides the following commands:
//   - serve: Start the MCP server exposing Gmail and Calendar tools
//   - auth: Manage the stored Google credential (url, exchange, status)
//   - version: Display version information
package cmd
