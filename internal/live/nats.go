package live

import (
	"encoding/json"
	"log"
	"strings"

	"github.com/nats-io/nats.go"
)

// NATSPublisher forwards trip events to external consumers over NATS.
// Subjects take the form trips.<tripID>.
type NATSPublisher struct {
	nc *nats.Conn
}

// NewNATSPublisher connects to the NATS server at url.
func NewNATSPublisher(url string) (*NATSPublisher, error) {
	nc, err := nats.Connect(url,
		nats.Name("buspass"),
		nats.DisconnectHandler(func(_ *nats.Conn) {
			log.Printf("[NATS] disconnected")
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			log.Printf("[NATS] reconnected")
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			log.Printf("[NATS] connection closed")
		}),
	)
	if err != nil {
		return nil, err
	}
	return &NATSPublisher{nc: nc}, nil
}

// Publish implements Publisher. Errors are logged, never propagated: a
// broken feed must not affect the tick loop.
func (p *NATSPublisher) Publish(event Event) {
	subject := "trips." + subjectToken(event.TripID)

	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("[NATS] marshal event for %s: %v", event.TripID, err)
		return
	}
	if err := p.nc.Publish(subject, data); err != nil {
		log.Printf("[NATS] publish %s: %v", subject, err)
	}
}

// Close drains and closes the connection.
func (p *NATSPublisher) Close() {
	if p.nc != nil {
		_ = p.nc.Drain()
		p.nc.Close()
	}
}

// subjectToken sanitizes an ID for use as a NATS subject token.
func subjectToken(s string) string {
	s = strings.TrimSpace(s)
	repl := strings.NewReplacer(" ", "_", ".", "_", ">", "_", "*", "_", "/", "_")
	s = repl.Replace(s)
	if s == "" {
		s = "_"
	}
	return s
}

// Ensure NATSPublisher implements Publisher.
var _ Publisher = (*NATSPublisher)(nil)
