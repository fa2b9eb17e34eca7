package auth

import (
	stderrors "errors"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// ErrSessionIdle is returned for a session with no request inside the idle
// window.
var ErrSessionIdle = stderrors.New("session expired after inactivity")

// ErrSessionEnded is returned for a session closed by logout.
var ErrSessionEnded = stderrors.New("session ended")

// Sessions tracks last activity per session id. An entry lives for the idle
// timeout after its latest request.
type Sessions struct {
	idle time.Duration
	seen *expirable.LRU[string, time.Time]
	now  func() time.Time
}

// NewSessions creates a tracker holding at most capacity live sessions.
func NewSessions(idle time.Duration, capacity int) *Sessions {
	if capacity <= 0 {
		capacity = 10000
	}
	return &Sessions{
		idle: idle,
		seen: expirable.NewLRU[string, time.Time](capacity, nil, idle),
		now:  time.Now,
	}
}

// Touch records a request on the session. A session not in the tracker is
// admitted only when its token was issued inside the idle window, so a
// restart or eviction cannot revive a long-idle token.
func (s *Sessions) Touch(sessionID string, issuedAt time.Time) error {
	now := s.now()
	last, ok := s.seen.Get(sessionID)
	switch {
	case ok && last.IsZero():
		return ErrSessionEnded
	case !ok && now.Sub(issuedAt) > s.idle:
		return ErrSessionIdle
	}
	s.seen.Add(sessionID, now)
	return nil
}

// End closes a session. The closed marker expires with the idle window, by
// which time the token is too old to be admitted as a new session.
func (s *Sessions) End(sessionID string) {
	s.seen.Add(sessionID, time.Time{})
}

// Live returns the number of tracked sessions.
func (s *Sessions) Live() int {
	return s.seen.Len()
}
