package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
)

// DefaultSubjectPrefix is the subject root notices are published under.
const DefaultSubjectPrefix = "storefront.notices"

// Publisher is the slice of *nats.Conn the notifier needs.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// NATSNotifier publishes notices for a push gateway that relays them to the
// shopper's open pages. Subject: <prefix>.<sessionID>.
type NATSNotifier struct {
	conn   Publisher
	prefix string
}

// NewNATSNotifier creates a notifier publishing on conn.
func NewNATSNotifier(conn Publisher, prefix string) *NATSNotifier {
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	return &NATSNotifier{conn: conn, prefix: strings.TrimSuffix(prefix, ".")}
}

// Connect dials the NATS server used for notice fan-out.
func Connect(url string) (*nats.Conn, error) {
	nc, err := nats.Connect(url,
		nats.Name("airkicks-storefront"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats: %w", err)
	}
	return nc, nil
}

// Subject returns the subject a session's notices are published on.
func (p *NATSNotifier) Subject(sessionID string) string {
	return p.prefix + "." + subjectToken(sessionID)
}

func (p *NATSNotifier) Notify(ctx context.Context, sessionID string, n Notice) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	n = n.normalize(time.Now())

	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to encode notice: %w", err)
	}
	if err := p.conn.Publish(p.Subject(sessionID), data); err != nil {
		return fmt.Errorf("failed to publish notice: %w", err)
	}
	return nil
}

// subjectToken replaces characters NATS treats as separators or wildcards.
func subjectToken(s string) string {
	if s == "" {
		return "anonymous"
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '.', '*', '>', ' ', '\t', '\r', '\n':
			return '_'
		}
		return r
	}, s)
}
