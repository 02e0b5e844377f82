// Package google owns the delegated-access credential lifecycle for the
// Google APIs: OAuth2 configuration, the persisted token blob, validity
// checks, serialized refresh, and persistence.
//
// The Store is the only writer of credential state. Adapters never hold a
// credential directly; they consume the Store's TokenSource, which re-requests
// a live handle for every provider call.
//
// Interactive consent is out-of-band: the Store exposes the consent URL and
// accepts the resulting authorization code, but never opens a browser itself.
package google
