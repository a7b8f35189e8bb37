package limiter

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/and161185/casebuddy/internal/errs"
	"github.com/and161185/casebuddy/internal/repository"
)

var _ Limiter = (*Store)(nil)

// state is the persisted failure record of one username.
type state struct {
	Fails        int       `json:"fail_count"`
	UpdatedAt    time.Time `json:"updated_at"`
	BlockedUntil time.Time `json:"blocked_until"`
}

// Store is a limiter with a sliding failure window and lockout whose state lives in a
// Medium, so it holds across separate process runs.
type Store struct {
	mu       sync.Mutex
	m        repository.Medium
	window   time.Duration
	maxFails int
	blockFor time.Duration
	now      func() time.Time
}

// NewStore constructs a limiter that blocks a username for blockFor once maxFails
// failures land within window. maxFails <= 0 disables blocking.
func NewStore(m repository.Medium, window time.Duration, maxFails int, blockFor time.Duration) *Store {
	return &Store{m: m, window: window, maxFails: maxFails, blockFor: blockFor, now: time.Now}
}

func (l *Store) load(ctx context.Context, username string) (state, error) {
	var st state
	data, err := l.m.Get(ctx, repository.LimiterKey(username))
	if errors.Is(err, errs.ErrNotFound) {
		return st, nil
	}
	if err != nil {
		return st, err
	}
	if json.Unmarshal(data, &st) != nil {
		// unreadable state starts over
		return state{}, nil
	}
	return st, nil
}

func (l *Store) save(ctx context.Context, username string, st state) error {
	data, err := json.Marshal(st)
	if err != nil {
		return err
	}
	return l.m.Set(ctx, repository.LimiterKey(username), data)
}

// Allow reports whether username may attempt a login now and the retry-after duration.
func (l *Store) Allow(ctx context.Context, username string) (bool, time.Duration, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	st, err := l.load(ctx, username)
	if err != nil {
		return false, 0, err
	}
	now := l.now()
	if st.BlockedUntil.After(now) {
		return false, st.BlockedUntil.Sub(now), nil
	}
	return true, 0, nil
}

// Success forgets the failure history of username.
func (l *Store) Success(ctx context.Context, username string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.m.Delete(ctx, repository.LimiterKey(username))
}

// Failure records a failed attempt and reports whether username is now blocked.
func (l *Store) Failure(ctx context.Context, username string) (bool, time.Duration, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	st, err := l.load(ctx, username)
	if err != nil {
		return false, 0, err
	}
	now := l.now()
	if now.Sub(st.UpdatedAt) > l.window {
		st.Fails = 0
	}
	st.Fails++
	st.UpdatedAt = now

	blocked := false
	if l.maxFails > 0 && st.Fails >= l.maxFails {
		st.BlockedUntil = now.Add(l.blockFor)
		st.Fails = 0
		blocked = true
	}
	if err := l.save(ctx, username, st); err != nil {
		return false, 0, err
	}
	if blocked {
		return true, l.blockFor, nil
	}
	return false, 0, nil
}
