// Package gateway defines the shapes that cross the tool-dispatch boundary:
// the classified error taxonomy and the uniform result envelope.
//
// Provider adapters classify every failure into one of the fixed error kinds
// so the dispatcher and callers never have to know Gmail or Calendar error
// idiosyncrasies. Envelope building is a pure function over the adapter's
// provider response and the tool's shape rule.
package gateway
