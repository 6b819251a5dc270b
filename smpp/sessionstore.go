package smpp

import (
	"sync"

	"golang.org/x/exp/maps"
)

var _store = newSessionStore()

// GetSessions returns the live sessions of the process.
func GetSessions() []*Session {
	return _store.find(nil)
}

// FindSessions returns the live sessions accepted by match.
func FindSessions(match func(*Session) bool) []*Session {
	return _store.find(match)
}

type sessionStore struct {
	ts map[string]*Session
	mu sync.RWMutex
}

func newSessionStore() *sessionStore {
	return &sessionStore{
		ts: make(map[string]*Session),
	}
}

func (t *sessionStore) find(match func(*Session) bool) []*Session {
	t.mu.RLock()
	ts := maps.Clone(t.ts)
	t.mu.RUnlock()

	sess := make([]*Session, 0, len(ts))
	for _, s := range ts {
		if match == nil || match(s) {
			sess = append(sess, s)
		}
	}

	return sess
}

func (t *sessionStore) add(sess *Session) {
	t.mu.Lock()
	t.ts[sess.Id()] = sess
	t.mu.Unlock()

	logDebug("[SessionStore] Add session, id: %s, system id: %s", sess.Id(), sess.SystemId())
}

func (t *sessionStore) del(id string) {
	t.mu.Lock()
	sess := t.ts[id]
	delete(t.ts, id)
	t.mu.Unlock()

	systemId := ""
	if sess != nil {
		systemId = sess.SystemId()
	}

	logDebug("[SessionStore] Del session, id: %s, system id: %s", id, systemId)
}
