// Package session maps browser sessions to their own allocation store.
// Each visitor gets an isolated workspace that lives in memory until it
// has been idle for the configured TTL.
package session

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"graphfi/internal/cache"
	"graphfi/internal/log"
	"graphfi/internal/store"
)

// CookieName is the cookie carrying the session ID.
const CookieName = "graphfi_session"

// Registry owns the workspaces of all live sessions.
type Registry struct {
	sessions *cache.LRUCache[*store.Store]
	ttl      time.Duration
	secure   bool
	newStore func() *store.Store
	logger   *log.Logger
	now      func() time.Time
}

// Option configures a Registry.
type Option func(*Registry)

// WithStoreFactory replaces how a fresh workspace is built.
func WithStoreFactory(f func() *store.Store) Option {
	return func(r *Registry) {
		if f != nil {
			r.newStore = f
		}
	}
}

// WithSecureCookie marks the session cookie Secure.
func WithSecureCookie(secure bool) Option {
	return func(r *Registry) { r.secure = secure }
}

// WithLogger sets the registry logger.
func WithLogger(l *log.Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithClock replaces time.Now for session expiry, for tests.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		if now != nil {
			r.now = now
		}
	}
}

// NewRegistry keeps at most maxSessions workspaces, each expiring after ttl
// without use.
func NewRegistry(maxSessions int, ttl time.Duration, opts ...Option) *Registry {
	r := &Registry{
		ttl:    ttl,
		logger: log.Nop(),
		now:    time.Now,
		newStore: func() *store.Store {
			return store.NewDefault()
		},
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.WithComponent(log.ComponentSession)
	r.sessions = cache.NewLRUCache(maxSessions, ttl,
		cache.WithSliding[*store.Store](),
		cache.WithClock[*store.Store](r.now),
		cache.WithEvictHook(r.evicted))
	return r
}

func (r *Registry) evicted(id string, _ *store.Store, reason cache.EvictReason) {
	r.logger.Debug("Session discarded",
		log.FieldSessionID, id,
		"reason", reason.String())
}

// Cleaner exposes the backing cache for periodic cleanup.
func (r *Registry) Cleaner() cache.Cleaner { return r.sessions }

// Len is the number of live sessions.
func (r *Registry) Len() int { return r.sessions.Size() }

// Lookup returns the workspace of id without creating one.
func (r *Registry) Lookup(id string) (*store.Store, bool) {
	if id == "" {
		return nil, false
	}
	return r.sessions.Get(id)
}

// Resolve returns the session ID and workspace of the request, starting a
// new session and setting its cookie when the request has none or its
// session has expired.
func (r *Registry) Resolve(w http.ResponseWriter, req *http.Request) (string, *store.Store) {
	if c, err := req.Cookie(CookieName); err == nil {
		if _, err := uuid.Parse(c.Value); err == nil {
			s, created := r.sessions.GetOrCreate(c.Value, r.newStore)
			if created {
				r.logger.InfoContext(req.Context(), "Session restarted", log.FieldSessionID, c.Value)
			}
			r.setCookie(w, c.Value)
			return c.Value, s
		}
	}

	id := uuid.NewString()
	s, _ := r.sessions.GetOrCreate(id, r.newStore)
	r.setCookie(w, id)
	r.logger.InfoContext(req.Context(), "Session started", log.FieldSessionID, id)
	return id, s
}

func (r *Registry) setCookie(w http.ResponseWriter, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    id,
		Path:     "/",
		MaxAge:   int(r.ttl / time.Second),
		HttpOnly: true,
		Secure:   r.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

type contextKey struct{}

// NewContext attaches the session ID to ctx.
func NewContext(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// IDFromContext returns the session ID attached by NewContext.
func IDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(contextKey{}).(string)
	return id
}
