package channel

import (
	"errors"
	"io"
	"log/slog"
	"net"
	"os"
	"time"

	"simeval/internal/models"
	"simeval/internal/protocol"
)

// Channel is the typed request/response surface over one peer transport.
// It is single-caller: at most one exchange is in flight at a time.
type Channel struct {
	name    string
	tr      Transport
	expect  *protocol.Interaction
	node    *protocol.Interaction
	timeout time.Duration
	logger  *slog.Logger
	rec     io.Writer
	closed  bool
}

// New wraps a transport. expect is the interaction this side assumes the
// peer implements; timeout is the steady-state exchange timeout.
func New(name string, tr Transport, expect *protocol.Interaction, timeout time.Duration, logger *slog.Logger) *Channel {
	return &Channel{
		name:    name,
		tr:      tr,
		expect:  expect,
		timeout: timeout,
		logger:  logger.With("peer", name),
	}
}

func (c *Channel) Name() string { return c.name }

// Expect returns the interaction this side expects of the peer. The
// compatibility checker mutates it when forcing the simulator's types onto
// an agent without introspection.
func (c *Channel) Expect() *protocol.Interaction { return c.expect }

// Node returns the interaction the peer declared during the handshake, or
// nil if the peer does not support introspection.
func (c *Channel) Node() *protocol.Interaction { return c.node }

// SetRecorder copies every frame sent and received to w until the next
// call. Pass nil to detach.
func (c *Channel) SetRecorder(w io.Writer) { c.rec = w }

// Handshake asks the peer for its declared interaction. Peers may answer
// that they do not support introspection, which is not an error here; the
// compatibility checker decides what to do about it.
func (c *Channel) Handshake(timeout time.Duration) error {
	reply, err := c.roundTrip(TopicProtocolInquiry, nil, timeout)
	if err != nil {
		return err
	}
	switch reply.Topic {
	case TopicProtocol:
		var decl protocol.Interaction
		if err := reply.Decode(&decl); err != nil {
			return models.Infrastructure(err, "peer "+c.name+" sent a malformed protocol declaration")
		}
		c.node = &decl
		return nil
	case TopicProtocolUnsupported:
		c.node = nil
		return nil
	default:
		return models.Infrastructure(nil, "peer "+c.name+" answered handshake with unexpected topic "+reply.Topic)
	}
}

// WriteTopicExpectZero sends a message and waits for the peer's bare
// acknowledgement.
func (c *Channel) WriteTopicExpectZero(topic string, payload any) error {
	reply, err := c.roundTrip(topic, payload, c.timeout)
	if err != nil {
		return err
	}
	if reply.Topic != TopicOK {
		return models.Infrastructure(nil, "peer "+c.name+" replied "+reply.Topic+" to "+topic+" instead of acknowledging")
	}
	return nil
}

// WriteTopicExpect sends a message and waits for exactly one reply of the
// named topic.
func (c *Channel) WriteTopicExpect(topic string, payload any, expect string) (*Message, error) {
	reply, err := c.roundTrip(topic, payload, c.timeout)
	if err != nil {
		return nil, err
	}
	if reply.Topic != expect {
		return nil, models.Infrastructure(nil, "peer "+c.name+" replied "+reply.Topic+" to "+topic+", expected "+expect)
	}
	return reply, nil
}

// WriteTopicExpectAny sends a message and returns whatever single reply the
// peer produces. Used where the reply topic itself carries meaning, like
// scenario enumeration.
func (c *Channel) WriteTopicExpectAny(topic string, payload any) (*Message, error) {
	return c.roundTrip(topic, payload, c.timeout)
}

// Record serializes an envelope straight into the recorder, bypassing the
// transport. Telemetry such as per-step timing enters the episode log this
// way.
func (c *Channel) Record(topic string, payload any) error {
	if c.rec == nil {
		return nil
	}
	m, err := NewMessage(topic, payload)
	if err != nil {
		return err
	}
	p, err := m.Marshal()
	if err != nil {
		return err
	}
	if _, err := c.rec.Write(p); err != nil {
		return models.Infrastructure(err, "writing log entry")
	}
	return nil
}

// Close releases the transport. Safe to call more than once.
func (c *Channel) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	return c.tr.Close()
}

func (c *Channel) roundTrip(topic string, payload any, timeout time.Duration) (*Message, error) {
	m, err := NewMessage(topic, payload)
	if err != nil {
		return nil, models.Infrastructure(err, "building message for peer "+c.name)
	}
	p, err := m.Marshal()
	if err != nil {
		return nil, models.Infrastructure(err, "encoding message for peer "+c.name)
	}
	if c.rec != nil {
		if _, err := c.rec.Write(p); err != nil {
			return nil, models.Infrastructure(err, "recording exchange with peer "+c.name)
		}
	}
	if err := c.tr.Send(p); err != nil {
		return nil, c.transportErr(err, "writing "+topic)
	}

	rp, err := c.tr.Recv(timeout)
	if err != nil {
		return nil, c.transportErr(err, "awaiting reply to "+topic)
	}
	if c.rec != nil {
		if _, err := c.rec.Write(rp); err != nil {
			return nil, models.Infrastructure(err, "recording exchange with peer "+c.name)
		}
	}
	reply, err := Unmarshal(rp)
	if err != nil {
		return nil, models.Infrastructure(err, "reply from peer "+c.name)
	}
	if reply.Topic == TopicAborted {
		return nil, models.RemoteAbort(c.name)
	}
	return &reply, nil
}

func (c *Channel) transportErr(err error, doing string) error {
	var nerr net.Error
	if errors.Is(err, os.ErrDeadlineExceeded) || (errors.As(err, &nerr) && nerr.Timeout()) {
		return models.Infrastructure(err, "peer "+c.name+" timed out while "+doing)
	}
	return models.Infrastructure(err, "transport failure with peer "+c.name+" while "+doing)
}
