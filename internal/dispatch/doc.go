// Package dispatch implements the tool registry and the dispatch pipeline:
// schema validation, credential acquisition, capability invocation with one
// bounded unauthorized retry, and envelope shaping.
//
// Each tool call is independent and stateless across calls. The caller
// always receives either a result envelope or exactly one classified error.
package dispatch
