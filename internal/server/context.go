package server

import (
	"context"
	"sync"

	"github.com/teemow/deskgate/internal/calendar"
	"github.com/teemow/deskgate/internal/gmail"
	"github.com/teemow/deskgate/internal/google"
)

// ServerContext holds the process-wide state of the gateway: the single
// credential store and lazily created provider clients.
type ServerContext struct {
	ctx    context.Context
	cancel context.CancelFunc
	store  *google.Store

	mu       sync.Mutex
	gmail    *gmail.Client
	calendar *calendar.Client
	shutdown bool
}

// NewServerContext creates a new server context. Provider clients are not
// created until first use so the server can start before authentication has
// happened.
func NewServerContext(ctx context.Context, store *google.Store) *ServerContext {
	shutdownCtx, cancel := context.WithCancel(ctx)
	return &ServerContext{
		ctx:    shutdownCtx,
		cancel: cancel,
		store:  store,
	}
}

// Context returns the server lifetime context.
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

// Store returns the credential store.
func (sc *ServerContext) Store() *google.Store {
	return sc.store
}

// Gmail returns the Gmail client, creating it on first use.
//
// Clients are built on a token source bound to the server lifetime context,
// not the caller's: oauth2.Transport refreshes tokens without a per-request
// context, and the refreshed token must outlive any single call anyway. The
// caller's context still cancels the API request itself, since every provider
// call passes it via .Context(ctx).
func (sc *ServerContext) Gmail(ctx context.Context) (*gmail.Client, error) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.gmail != nil {
		return sc.gmail, nil
	}

	client, err := gmail.NewClient(ctx, sc.store.TokenSource(sc.ctx))
	if err != nil {
		return nil, err
	}
	sc.gmail = client
	return client, nil
}

// Calendar returns the Calendar client, creating it on first use.
func (sc *ServerContext) Calendar(ctx context.Context) (*calendar.Client, error) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.calendar != nil {
		return sc.calendar, nil
	}

	client, err := calendar.NewClient(ctx, sc.store.TokenSource(sc.ctx))
	if err != nil {
		return nil, err
	}
	sc.calendar = client
	return client, nil
}

// Shutdown cancels the server context. Safe to call more than once.
func (sc *ServerContext) Shutdown() {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return
	}
	sc.shutdown = true
	sc.cancel()
}

// IsShutdown reports whether Shutdown has been called.
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.shutdown
}
