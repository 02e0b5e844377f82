package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"github.com/teemow/deskgate/internal/gateway"
	"github.com/teemow/deskgate/internal/instrumentation"
	"github.com/teemow/deskgate/internal/logging"
)

// expiryGrace treats a token expiring within this window as already expired,
// so a dispatch never hands an adapter a token that dies mid-call.
const expiryGrace = 30 * time.Second

// storedToken is the persisted credential blob. A single opaque file, readable
// and writable only by the gateway process.
type storedToken struct {
	AccessToken  string    `json:"access_token"`
	TokenType    string    `json:"token_type,omitempty"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	Expiry       time.Time `json:"expiry,omitempty"`
	Scopes       []string  `json:"scopes,omitempty"`
}

// Store owns the single process-wide credential: load, validity check,
// refresh, persist. All access goes through Acquire; the internal mutex
// serializes concurrent refresh attempts so two simultaneous tool calls never
// race to redeem the same refresh token.
type Store struct {
	mu     sync.Mutex
	conf   *oauth2.Config
	path   string
	logger *slog.Logger

	tok     *oauth2.Token
	loaded  bool
	metrics *instrumentation.Metrics

	// refresh performs the refresh exchange with the identity provider.
	// Injectable for tests.
	refresh func(ctx context.Context, t *oauth2.Token) (*oauth2.Token, error)
	now     func() time.Time
}

// NewStore creates a credential store persisting to path.
func NewStore(conf *oauth2.Config, path string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{
		conf:   conf,
		path:   path,
		logger: logging.WithService(logger, "oauth"),
		now:    time.Now,
	}
	s.refresh = s.refreshExchange
	return s
}

// SetMetrics attaches a metrics recorder for refresh accounting.
func (s *Store) SetMetrics(m *instrumentation.Metrics) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metrics = m
}

// Acquire returns a live credential. A valid stored credential is returned
// unchanged; an expired-but-refreshable one is refreshed, persisted, and then
// returned; anything else fails with an auth_required error, signalling that
// the out-of-band consent flow must run.
//
// A refresh that succeeds at the network level but cannot be persisted is
// discarded: the store never hands out a token it could not later reload.
func (s *Store) Acquire(ctx context.Context) (*oauth2.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loaded {
		tok, err := s.load()
		if err != nil {
			return nil, gateway.E(gateway.KindAuthRequired,
				"no usable Google credential at %s: complete the out-of-band consent flow first", s.path)
		}
		s.tok = tok
		s.loaded = true
	}

	if s.live(s.tok) {
		return cloneToken(s.tok), nil
	}

	if s.tok == nil || s.tok.RefreshToken == "" {
		return nil, gateway.E(gateway.KindAuthRequired,
			"stored credential is expired and has no refresh token: re-run the consent flow")
	}

	fresh, err := s.refresh(ctx, s.tok)
	if err != nil {
		s.recordRefresh(ctx, false)
		return nil, classifyRefreshError(err)
	}
	if fresh.RefreshToken == "" {
		// Google omits the refresh token on refresh responses; keep the old one.
		fresh.RefreshToken = s.tok.RefreshToken
	}

	if err := s.persist(fresh); err != nil {
		// One immediate retry before giving up. The refreshed token is not
		// durable yet, so it is never adopted or handed out on failure.
		s.logger.Warn("persisting refreshed credential failed, retrying", logging.Err(err))
		if err = s.persist(fresh); err != nil {
			s.recordRefresh(ctx, false)
			return nil, gateway.E(gateway.KindTransient,
				"refreshed credential could not be persisted: %v", err)
		}
	}

	s.tok = fresh
	s.recordRefresh(ctx, true)
	s.logger.Info("credential refreshed",
		slog.Time("expiry", fresh.Expiry),
		slog.String("access_token", logging.SanitizeToken(fresh.AccessToken)))
	return cloneToken(fresh), nil
}

// Invalidate marks the current access token as expired so the next Acquire
// performs a refresh. Used by the dispatcher for its single bounded
// refresh-and-retry after a provider-side unauthorized.
func (s *Store) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tok != nil {
		s.tok.Expiry = time.Unix(1, 0)
	}
}

// HasToken reports whether a persisted credential exists.
func (s *Store) HasToken() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loaded && s.tok != nil {
		return true
	}
	_, err := os.Stat(s.path)
	return err == nil
}

// Status describes the stored credential without exposing its material.
func (s *Store) Status() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	tok := s.tok
	if !s.loaded {
		loaded, err := s.load()
		if err != nil {
			return "not authenticated: no stored credential"
		}
		tok = loaded
	}
	switch {
	case s.live(tok):
		return "authenticated: credential valid"
	case tok.RefreshToken != "":
		return "credential expired but refreshable"
	default:
		return "credential expired and not refreshable: re-run consent"
	}
}

// AuthURL returns the consent URL for the out-of-band authorization flow.
func (s *Store) AuthURL() string {
	return s.conf.AuthCodeURL("state", oauth2.AccessTypeOffline)
}

// SaveAuthCode exchanges an authorization code obtained out-of-band and
// persists the resulting credential.
func (s *Store) SaveAuthCode(ctx context.Context, authCode string) error {
	tok, err := s.conf.Exchange(ctx, authCode)
	if err != nil {
		return fmt.Errorf("failed to exchange auth code: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.persist(tok); err != nil {
		if err = s.persist(tok); err != nil {
			return fmt.Errorf("failed to persist credential: %w", err)
		}
	}
	s.tok = tok
	s.loaded = true
	s.logger.Info("credential saved", slog.Time("expiry", tok.Expiry))
	return nil
}

// TokenSource returns an oauth2.TokenSource view of the store. Adapters build
// their API services on top of this so every provider call re-requests a live
// handle instead of caching one.
func (s *Store) TokenSource(ctx context.Context) oauth2.TokenSource {
	return storeTokenSource{ctx: ctx, store: s}
}

type storeTokenSource struct {
	ctx   context.Context
	store *Store
}

func (ts storeTokenSource) Token() (*oauth2.Token, error) {
	return ts.store.Acquire(ts.ctx)
}

// live reports whether the token is usable without a refresh. A token counts
// as expired slightly early (expiryGrace) to avoid mid-call expiry.
func (s *Store) live(t *oauth2.Token) bool {
	if t == nil || t.AccessToken == "" {
		return false
	}
	if t.Expiry.IsZero() {
		return true
	}
	return s.now().Add(expiryGrace).Before(t.Expiry)
}

func (s *Store) load() (*oauth2.Token, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, err
	}
	var st storedToken
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("invalid token file %s: %w", s.path, err)
	}
	if len(st.Scopes) > 0 && !scopesSatisfied(st.Scopes, s.conf.Scopes) {
		return nil, fmt.Errorf("stored credential is missing required scopes")
	}
	return &oauth2.Token{
		AccessToken:  st.AccessToken,
		TokenType:    st.TokenType,
		RefreshToken: st.RefreshToken,
		Expiry:       st.Expiry,
	}, nil
}

// persist writes the credential atomically: temp file plus rename, mode 0600,
// so a crash never leaves a partially written blob.
func (s *Store) persist(tok *oauth2.Token) error {
	st := storedToken{
		AccessToken:  tok.AccessToken,
		TokenType:    tok.TokenType,
		RefreshToken: tok.RefreshToken,
		Expiry:       tok.Expiry,
		Scopes:       s.conf.Scopes,
	}
	data, err := json.Marshal(st)
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create credential directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".google-*.json")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, s.path)
}

func (s *Store) refreshExchange(ctx context.Context, t *oauth2.Token) (*oauth2.Token, error) {
	return s.conf.TokenSource(ctx, t).Token()
}

func (s *Store) recordRefresh(ctx context.Context, success bool) {
	if s.metrics == nil {
		return
	}
	status := logging.StatusSuccess
	if !success {
		status = logging.StatusError
	}
	s.metrics.RecordTokenRefresh(ctx, status)
}

// classifyRefreshError distinguishes a revoked/invalid grant (consent must be
// redone) from a transient identity-provider fault.
func classifyRefreshError(err error) *gateway.Error {
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) && retrieveErr.Response != nil {
		code := retrieveErr.Response.StatusCode
		if code == http.StatusBadRequest || code == http.StatusUnauthorized {
			return gateway.E(gateway.KindAuthRequired,
				"refresh token rejected by identity provider: re-run the consent flow")
		}
	}
	return gateway.E(gateway.KindTransient, "credential refresh failed: %v", err)
}

func scopesSatisfied(granted, required []string) bool {
	have := make(map[string]bool, len(granted))
	for _, scope := range granted {
		have[scope] = true
	}
	for _, scope := range required {
		if !have[scope] {
			return false
		}
	}
	return true
}

func cloneToken(t *oauth2.Token) *oauth2.Token {
	if t == nil {
		return nil
	}
	clone := *t
	return &clone
}
