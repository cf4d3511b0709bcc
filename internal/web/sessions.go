package web

// sessions.go keeps one set of view controllers per browser.
//
// A view session is identified by a random cookie. It owns its Listing,
// Bulk controller and notification queue; the Enricher is shared by all
// sessions so identical station lookups collapse. Sessions idle longer than
// the configured timeout are swept, and when the store is full the least
// recently used session is evicted.

import (
	"context"
	"sync"
	"time"

	"github.com/JonMunkholm/SensorDesk/internal/core"
	"github.com/JonMunkholm/SensorDesk/internal/logging"
	"github.com/google/uuid"
)

// viewSession is the state behind one browser's page.
type viewSession struct {
	id      string
	listing *core.Listing
	bulk    *core.Bulk
	queue   *core.NotificationQueue

	initMu sync.Mutex
	ready  bool

	lastSeen time.Time // Guarded by sessionStore.mu
}

// ensureReady initializes the listing on first use and reports whether this
// call did it. A failed initialization is retried on the next request.
func (v *viewSession) ensureReady(ctx context.Context) (bool, error) {
	v.initMu.Lock()
	defer v.initMu.Unlock()
	if v.ready {
		return false, nil
	}
	if err := v.listing.Initialize(ctx); err != nil {
		return true, err
	}
	v.ready = true
	return true, nil
}

// sessionFactory builds the controllers of a new session.
type sessionFactory func(id string) *viewSession

// newSessionFactory wires a session's controllers to svc.
func newSessionFactory(svc core.DataService, enricher *core.Enricher, pageSizes []int, fallback int) sessionFactory {
	return func(id string) *viewSession {
		queue := core.NewNotificationQueue(0)
		listing := core.NewListing(svc, core.ListingOptions{
			PageSizeOptions: pageSizes,
			FallbackSize:    fallback,
			Enricher:        enricher,
			Notifier:        queue,
		})
		return &viewSession{
			id:      id,
			listing: listing,
			bulk:    core.NewBulk(svc, svc, listing, queue),
			queue:   queue,
		}
	}
}

// sessionStore holds live view sessions.
type sessionStore struct {
	mu       sync.Mutex
	sessions map[string]*viewSession
	create   sessionFactory
	idle     time.Duration
	max      int
	now      func() time.Time
}

func newSessionStore(create sessionFactory, idle time.Duration, maxSessions int) *sessionStore {
	return &sessionStore{
		sessions: make(map[string]*viewSession),
		create:   create,
		idle:     idle,
		max:      maxSessions,
		now:      time.Now,
	}
}

// get returns the live session with id and marks it used.
func (st *sessionStore) get(id string) (*viewSession, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()

	sess, ok := st.sessions[id]
	if !ok {
		return nil, false
	}
	now := st.now()
	if st.idle > 0 && now.Sub(sess.lastSeen) > st.idle {
		delete(st.sessions, id)
		return nil, false
	}
	sess.lastSeen = now
	return sess, true
}

// open creates a session with a fresh id, evicting the least recently used
// session when the store is full.
func (st *sessionStore) open() *viewSession {
	sess := st.create(uuid.NewString())

	st.mu.Lock()
	defer st.mu.Unlock()

	if st.max > 0 && len(st.sessions) >= st.max {
		st.evictOldestLocked()
	}
	sess.lastSeen = st.now()
	st.sessions[sess.id] = sess
	return sess
}

func (st *sessionStore) evictOldestLocked() {
	var oldest *viewSession
	for _, s := range st.sessions {
		if oldest == nil || s.lastSeen.Before(oldest.lastSeen) {
			oldest = s
		}
	}
	if oldest != nil {
		delete(st.sessions, oldest.id)
	}
}

// sweep removes idle sessions and returns how many were removed.
func (st *sessionStore) sweep() int {
	if st.idle <= 0 {
		return 0
	}
	st.mu.Lock()
	defer st.mu.Unlock()

	now := st.now()
	removed := 0
	for id, s := range st.sessions {
		if now.Sub(s.lastSeen) > st.idle {
			delete(st.sessions, id)
			removed++
		}
	}
	return removed
}

// count returns the number of live sessions.
func (st *sessionStore) count() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

// run sweeps idle sessions every interval until ctx is done.
func (st *sessionStore) run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := st.sweep(); n > 0 {
				logging.FromContext(ctx).Debug("swept idle view sessions", "removed", n, "live", st.count())
			}
		}
	}
}
