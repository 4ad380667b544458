package notify

import (
	"context"
	"sync"
)

// Recorder is a test Notifier that keeps every notice it receives.
type Recorder struct {
	mu      sync.Mutex
	Notices []Recorded
	Err     error
}

// Recorded is one call to Recorder.Notify.
type Recorded struct {
	SessionID string
	Notice    Notice
}

func (r *Recorder) Notify(_ context.Context, sessionID string, n Notice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Notices = append(r.Notices, Recorded{SessionID: sessionID, Notice: n})
	return r.Err
}

// Last returns the most recent notice, or false if none was recorded.
func (r *Recorder) Last() (Recorded, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.Notices) == 0 {
		return Recorded{}, false
	}
	return r.Notices[len(r.Notices)-1], true
}
