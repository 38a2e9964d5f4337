// Package channeltest provides a scripted in-process peer for exercising
// the evaluator side of the protocol in tests.
package channeltest

import (
	"sync"

	"simeval/internal/channel"
	"simeval/internal/protocol"
)

// Handler produces the reply to one received message. Returning an empty
// topic suppresses the reply, which starves the evaluator into a timeout.
type Handler func(m channel.Message) (replyTopic string, payload any)

// Peer reads frames from a transport and answers them with a Handler
// until the transport closes.
type Peer struct {
	tr      channel.Transport
	mu      sync.Mutex
	topics  []string
	errored error
	done    chan struct{}
}

// Serve starts answering on tr.
func Serve(tr channel.Transport, handler Handler) *Peer {
	p := &Peer{tr: tr, done: make(chan struct{})}
	go func() {
		defer close(p.done)
		for {
			raw, err := tr.Recv(0)
			if err != nil {
				return
			}
			m, err := channel.Unmarshal(raw)
			if err != nil {
				p.mu.Lock()
				p.errored = err
				p.mu.Unlock()
				return
			}
			p.mu.Lock()
			p.topics = append(p.topics, m.Topic)
			p.mu.Unlock()

			topic, payload := handler(m)
			if topic == "" {
				continue
			}
			reply, err := channel.NewMessage(topic, payload)
			if err != nil {
				p.mu.Lock()
				p.errored = err
				p.mu.Unlock()
				return
			}
			out, err := reply.Marshal()
			if err != nil {
				p.mu.Lock()
				p.errored = err
				p.mu.Unlock()
				return
			}
			if err := tr.Send(out); err != nil {
				return
			}
		}
	}()
	return p
}

// Topics returns every topic received so far, in order.
func (p *Peer) Topics() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string{}, p.topics...)
}

// Err returns the first scripting error, if any.
func (p *Peer) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.errored
}

// Close tears down the transport and waits for the serving goroutine.
func (p *Peer) Close() {
	p.tr.Close()
	<-p.done
}

// WithProtocol wraps a handler with handshake support: the inquiry is
// answered with decl, or with protocol_unsupported when decl is nil.
func WithProtocol(decl *protocol.Interaction, h Handler) Handler {
	return func(m channel.Message) (string, any) {
		if m.Topic == channel.TopicProtocolInquiry {
			if decl == nil {
				return channel.TopicProtocolUnsupported, nil
			}
			return channel.TopicProtocol, decl
		}
		return h(m)
	}
}
