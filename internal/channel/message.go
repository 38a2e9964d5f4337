// Package channel implements the typed request/response channel to one
// peer process: envelope codec, framed transports, protocol handshake and
// the per-exchange recorder tap that feeds the episode log.
package channel

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// Control topics of the channel layer itself, below the peer interaction
// surface.
const (
	TopicProtocolInquiry     = "protocol_inquiry"
	TopicProtocol            = "protocol"
	TopicProtocolUnsupported = "protocol_unsupported"
	TopicOK                  = "ok"
	TopicAborted             = "aborted"
)

// compatTag identifies the envelope revision on the wire and in logs.
var compatTag = []string{"sev1"}

// Message is the wire envelope: a topic plus an opaque CBOR payload.
type Message struct {
	Compat []string        `cbor:"compat"`
	Topic  string          `cbor:"topic"`
	Data   cbor.RawMessage `cbor:"data,omitempty"`
}

// NewMessage builds an envelope, encoding payload as CBOR. A nil payload
// produces an empty-bodied message.
func NewMessage(topic string, payload any) (Message, error) {
	m := Message{Compat: compatTag, Topic: topic}
	if payload != nil {
		data, err := cbor.Marshal(payload)
		if err != nil {
			return m, fmt.Errorf("encoding payload for topic %s: %w", topic, err)
		}
		m.Data = data
	}
	return m, nil
}

// Decode unmarshals the message payload into v.
func (m *Message) Decode(v any) error {
	if len(m.Data) == 0 {
		return fmt.Errorf("topic %s: empty payload", m.Topic)
	}
	if err := cbor.Unmarshal(m.Data, v); err != nil {
		return fmt.Errorf("decoding payload of topic %s: %w", m.Topic, err)
	}
	return nil
}

// Marshal encodes the whole envelope.
func (m Message) Marshal() ([]byte, error) {
	return cbor.Marshal(m)
}

// Unmarshal decodes a whole envelope.
func Unmarshal(p []byte) (Message, error) {
	var m Message
	if err := cbor.Unmarshal(p, &m); err != nil {
		return m, fmt.Errorf("decoding envelope: %w", err)
	}
	return m, nil
}
