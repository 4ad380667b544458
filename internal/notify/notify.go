// Package notify delivers short-lived storefront notices ("Item added to
// cart!", "Please correct highlighted errors in the form") to a shopper's
// session. A notice removes itself once its display duration has elapsed.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// DefaultDuration is how long a notice stays visible when no duration is given.
const DefaultDuration = 3500 * time.Millisecond

// Level is the severity tag of a notice.
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// ParseLevel maps a raw tag onto a Level. Unknown tags become LevelInfo.
func ParseLevel(s string) Level {
	switch Level(s) {
	case LevelSuccess, LevelError:
		return Level(s)
	}
	return LevelInfo
}

// Notice is a single transient message.
type Notice struct {
	ID        string
	Message   string
	Level     Level
	Duration  time.Duration
	CreatedAt time.Time
}

type noticeJSON struct {
	ID         string    `json:"id"`
	Message    string    `json:"message"`
	Level      Level     `json:"level"`
	DurationMS int64     `json:"duration_ms"`
	CreatedAt  time.Time `json:"created_at"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// MarshalJSON writes the duration in milliseconds, the unit the page script uses.
func (n Notice) MarshalJSON() ([]byte, error) {
	return json.Marshal(noticeJSON{
		ID:         n.ID,
		Message:    n.Message,
		Level:      n.Level,
		DurationMS: n.Duration.Milliseconds(),
		CreatedAt:  n.CreatedAt,
		ExpiresAt:  n.ExpiresAt(),
	})
}

func (n *Notice) UnmarshalJSON(b []byte) error {
	var w noticeJSON
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	*n = Notice{
		ID:        w.ID,
		Message:   w.Message,
		Level:     ParseLevel(string(w.Level)),
		Duration:  time.Duration(w.DurationMS) * time.Millisecond,
		CreatedAt: w.CreatedAt,
	}
	return nil
}

// ExpiresAt is when the notice is removed.
func (n Notice) ExpiresAt() time.Time {
	return n.CreatedAt.Add(n.Duration)
}

// New builds a notice with the default duration.
func New(level Level, message string) Notice {
	return Notice{Message: message, Level: level, Duration: DefaultDuration}
}

// Stamped returns n with its ID, level, duration and creation time filled
// in. Notifiers stamp every notice; callers stamp one when they need its ID
// before posting it.
func (n Notice) Stamped() Notice {
	return n.normalize(time.Now())
}

// normalize fills in the fields a caller may leave blank.
func (n Notice) normalize(now time.Time) Notice {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	n.Level = ParseLevel(string(n.Level))
	if n.Duration <= 0 {
		n.Duration = DefaultDuration
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = now
	}
	return n
}

// Notifier shows a notice to the shopper owning sessionID.
type Notifier interface {
	Notify(ctx context.Context, sessionID string, n Notice) error
}

// Multi fans a notice out to every notifier and joins their errors.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, sessionID string, n Notice) error {
	n = n.normalize(time.Now())
	var errs []error
	for _, target := range m {
		if err := target.Notify(ctx, sessionID, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
